package deck

// PermutationEngine keeps a shuffled index permutation and a cursor into it.
// Each Draw is O(1).
type PermutationEngine struct {
	cards  []Card
	order  []int
	cursor int
	rng    RandomSource
}

// NewPermutationEngine returns an engine already shuffled and ready to draw.
func NewPermutationEngine(cards []Card, rng RandomSource) *PermutationEngine {
	mustHaveCards(cards)
	if rng == nil {
		rng = DefaultRNG()
	}
	order := make([]int, len(cards))
	for i := range order {
		order[i] = i
	}
	e := &PermutationEngine{cards: cards, order: order, rng: rng}
	e.Shuffle()
	return e
}

// Draw returns the card under the cursor, reshuffling first when the
// permutation is used up.
func (e *PermutationEngine) Draw() Card {
	if e.cursor == len(e.order) {
		e.Shuffle()
	}
	c := e.cards[e.order[e.cursor]]
	e.cursor++
	return c
}

// Shuffle permutes the index array in place (Fisher-Yates) and rewinds the cursor.
func (e *PermutationEngine) Shuffle() {
	for n := len(e.order) - 1; n > 0; n-- {
		k := e.rng.IntN(n + 1)
		e.order[n], e.order[k] = e.order[k], e.order[n]
	}
	e.cursor = 0
}

// Remaining is the number of draws left before the next implicit reshuffle.
func (e *PermutationEngine) Remaining() int { return len(e.order) - e.cursor }

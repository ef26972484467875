package deck

// RejectionEngine samples uniform positions and retries until it finds one not
// yet drawn. A full cycle costs about N*H(N) samples, so prefer
// PermutationEngine for long runs.
type RejectionEngine struct {
	cards []Card
	drawn []bool
	count int
	rng   RandomSource
}

func NewRejectionEngine(cards []Card, rng RandomSource) *RejectionEngine {
	mustHaveCards(cards)
	if rng == nil {
		rng = DefaultRNG()
	}
	return &RejectionEngine{cards: cards, drawn: make([]bool, len(cards)), rng: rng}
}

func (e *RejectionEngine) Draw() Card {
	if e.count == len(e.cards) {
		e.Shuffle()
	}
	var r int
	for {
		r = e.rng.IntN(len(e.cards))
		if !e.drawn[r] {
			break
		}
	}
	e.drawn[r] = true
	e.count++
	return e.cards[r]
}

// Shuffle forgets every drawn position.
func (e *RejectionEngine) Shuffle() {
	clear(e.drawn)
	e.count = 0
}

// Remaining is the number of draws left before the next implicit reshuffle.
func (e *RejectionEngine) Remaining() int { return len(e.cards) - e.count }

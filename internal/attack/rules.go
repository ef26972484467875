package attack

import "github.com/xtding233/havensim/internal/deck"

// rules is one game's advantage/disadvantage dialect. Normal draws and the
// terminal reshuffle are shared and live on Simulator.
type rules interface {
	// drawVantage appends the advantage/disadvantage draw sequence to cards.
	drawVantage(draw func() deck.Card, cards []deck.Card) []deck.Card
	// pickVantage chooses the result of an advantage/disadvantage draw.
	pickVantage(kind Kind, cards []deck.Card) deck.Card
}

func rulesFor(game Game) rules {
	switch game {
	case Gloomhaven:
		return gloomhaven{}
	case Frosthaven:
		return frosthaven{}
	default:
		panic("attack: " + ErrUnknownGame.Error() + ": " + game.String())
	}
}

// gloomhaven fills two slots, rolling cards included, and keeps drawing
// until some non-rolling card has shown up.
type gloomhaven struct{}

func (gloomhaven) drawVantage(draw func() deck.Card, cards []deck.Card) []deck.Card {
	settled := false
	for n := 0; n < 2 || !settled; n++ {
		c := draw()
		cards = append(cards, c)
		settled = settled || !c.Rolling
	}
	return cards
}

func (gloomhaven) pickVantage(kind Kind, cards []deck.Card) deck.Card {
	if len(cards) >= 2 && cards[0].Rolling && cards[1].Rolling {
		return firstSettled(cards)
	}
	head := cards[:min(2, len(cards))]
	candidates := make([]deck.Card, 0, 2)
	for _, c := range head {
		if !c.Rolling {
			candidates = append(candidates, c)
		}
	}
	return pickBest(kind, candidates, cards)
}

// frosthaven absorbs a rolling prefix, then always draws exactly one more card.
type frosthaven struct{}

func (frosthaven) drawVantage(draw func() deck.Card, cards []deck.Card) []deck.Card {
	cards = drawUntilSettled(draw, cards)
	return append(cards, draw())
}

func (frosthaven) pickVantage(kind Kind, cards []deck.Card) deck.Card {
	i := 0
	for i < len(cards) && cards[i].Rolling {
		i++
	}
	return pickBest(kind, cards[i:min(i+2, len(cards))], cards)
}

func drawUntilSettled(draw func() deck.Card, cards []deck.Card) []deck.Card {
	for {
		c := draw()
		cards = append(cards, c)
		if !c.Rolling {
			return cards
		}
	}
}

// firstSettled returns the first non-rolling card, or the first card if none.
func firstSettled(cards []deck.Card) deck.Card {
	for _, c := range cards {
		if !c.Rolling {
			return c
		}
	}
	return cards[0]
}

// pickBest returns the highest (Advantage) or lowest (Disadvantage) value among
// candidates, first occurrence winning ties. With no candidates it falls back
// to the first witnessed card.
func pickBest(kind Kind, candidates, witnessed []deck.Card) deck.Card {
	if len(candidates) == 0 {
		return witnessed[0]
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		switch kind {
		case Advantage:
			if c.Value > best.Value {
				best = c
			}
		case Disadvantage:
			if c.Value < best.Value {
				best = c
			}
		default:
			panic("attack: " + ErrUnknownKind.Error() + ": " + kind.String())
		}
	}
	return best
}

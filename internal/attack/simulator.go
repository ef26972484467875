package attack

import (
	"fmt"

	"github.com/xtding233/havensim/internal/deck"
)

// Simulator resolves attacks for one game variant over an engine it owns
// exclusively. It is not safe for concurrent use.
type Simulator struct {
	game   Game
	engine deck.Engine
	rules  rules
}

// NewSimulator wraps engine with the rules of game. It panics on an unknown game.
func NewSimulator(game Game, engine deck.Engine) *Simulator {
	if engine == nil {
		panic("attack: simulator needs an engine")
	}
	return &Simulator{game: game, engine: engine, rules: rulesFor(game)}
}

func (s *Simulator) Game() Game { return s.game }

func (s *Simulator) DrawCard() deck.Card { return s.engine.Draw() }

func (s *Simulator) Shuffle() { s.engine.Shuffle() }

// Attack performs one attack of the given kind and returns the result card and
// every card drawn on the way, in draw order. If any drawn card is terminal the
// engine is reshuffled once, after the result has been chosen.
func (s *Simulator) Attack(kind Kind) (deck.Card, []deck.Card) {
	cards := make([]deck.Card, 0, 4)
	var result deck.Card
	switch kind {
	case Normal:
		cards = drawUntilSettled(s.DrawCard, cards)
		result = firstSettled(cards)
	case Advantage, Disadvantage:
		cards = s.rules.drawVantage(s.DrawCard, cards)
		result = s.rules.pickVantage(kind, cards)
	default:
		panic(fmt.Sprintf("attack: %v: %v", ErrUnknownKind, kind))
	}
	for _, c := range cards {
		if c.Terminal {
			s.Shuffle()
			break
		}
	}
	return result, cards
}

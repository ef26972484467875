package deck

import (
	"errors"
	"fmt"
	"strings"
)

// Engine draws cards without replacement from a fixed deck.
//
// Between two Shuffle calls every deck position is returned at most once.
// Once all positions have been drawn, the next Draw reshuffles first.
type Engine interface {
	Draw() Card
	Shuffle()
}

// Strategy selects an Engine implementation.
type Strategy string

const (
	StrategyPermutation Strategy = "permutation"
	StrategyRejection   Strategy = "rejection"
)

var ErrUnknownStrategy = errors.New("unknown engine strategy")

// ParseStrategy maps user input to a Strategy. Empty input selects the permutation engine.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyPermutation:
		return StrategyPermutation, nil
	case StrategyRejection:
		return StrategyRejection, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// NewEngine builds an engine of the given strategy over cards.
// It panics on an empty deck or an unknown strategy; both are caller bugs.
func NewEngine(strategy Strategy, cards []Card, rng RandomSource) Engine {
	switch strategy {
	case StrategyPermutation:
		return NewPermutationEngine(cards, rng)
	case StrategyRejection:
		return NewRejectionEngine(cards, rng)
	default:
		panic(fmt.Sprintf("deck: %v: %q", ErrUnknownStrategy, strategy))
	}
}

func mustHaveCards(cards []Card) {
	if len(cards) == 0 {
		panic("deck: engine needs at least one card")
	}
}

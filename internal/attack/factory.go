package attack

import "github.com/xtding233/havensim/internal/deck"

// New expands groups into a deck, builds an engine of the given strategy over
// it and wraps it for game. Unknown games or strategies and empty decks panic.
func New(game Game, groups []deck.Group, strategy deck.Strategy, rng deck.RandomSource) *Simulator {
	return NewSimulator(game, deck.NewEngine(strategy, deck.Expand(groups), rng))
}

// NewForScenarios builds one simulator per scenario, each on its own engine
// and its own PCG stream of seed, so runs are reproducible in any order.
func NewForScenarios(scenarios []Scenario, groups []deck.Group, strategy deck.Strategy, seed uint64) []*Simulator {
	cards := deck.Expand(groups)
	sims := make([]*Simulator, len(scenarios))
	for i, sc := range scenarios {
		rng := deck.NewStreamRNG(seed, uint64(i))
		sims[i] = NewSimulator(sc.Game, deck.NewEngine(strategy, cards, rng))
	}
	return sims
}

package attack

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the draw mode of one attack.
type Kind int

const (
	Normal Kind = iota
	Advantage
	Disadvantage
)

var ErrUnknownKind = errors.New("unknown attack kind")

// Kinds lists every attack kind in report order.
func Kinds() []Kind { return []Kind{Normal, Advantage, Disadvantage} }

func (k Kind) String() string {
	switch k {
	case Normal:
		return "Normal"
	case Advantage:
		return "Advantage"
	case Disadvantage:
		return "Disadvantage"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind accepts the kind name in any case.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if strings.EqualFold(strings.TrimSpace(s), k.String()) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Game is a rule dialect for advantage and disadvantage draws.
type Game int

const (
	Gloomhaven Game = iota
	Frosthaven
)

var ErrUnknownGame = errors.New("unknown game variant")

// Games lists every game variant in report order.
func Games() []Game { return []Game{Gloomhaven, Frosthaven} }

func (g Game) String() string {
	switch g {
	case Gloomhaven:
		return "Gloomhaven"
	case Frosthaven:
		return "Frosthaven"
	default:
		return fmt.Sprintf("Game(%d)", int(g))
	}
}

// ParseGame accepts the game name in any case.
func ParseGame(s string) (Game, error) {
	for _, g := range Games() {
		if strings.EqualFold(strings.TrimSpace(s), g.String()) {
			return g, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownGame, s)
}

// Scenario pairs a game with an attack kind; a run simulates each one.
type Scenario struct {
	Game Game
	Kind Kind
}

func (s Scenario) String() string { return s.Game.String() + "/" + s.Kind.String() }

// Scenarios returns the six (game, kind) pairs, games outermost.
func Scenarios() []Scenario {
	out := make([]Scenario, 0, len(Games())*len(Kinds()))
	for _, g := range Games() {
		for _, k := range Kinds() {
			out = append(out, Scenario{Game: g, Kind: k})
		}
	}
	return out
}

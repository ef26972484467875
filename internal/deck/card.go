package deck

import "errors"

// MissValue is the sentinel value carried by a "miss" card.
const MissValue = -100

// Card is one attack modifier card. It is comparable and used as a map key
// when tallying results, so two cards with equal fields are the same card.
type Card struct {
	Tag      string `json:"tag"`                // display string, e.g. "+1", "x2", "miss"
	Value    int    `json:"value"`              // additive modifier; MissValue for a miss
	Rolling  bool   `json:"rolling,omitempty"`  // another card is drawn on top of it
	Terminal bool   `json:"terminal,omitempty"` // drawing it forces a reshuffle after the attack
}

// String returns the printable form; rolling cards get a caret prefix.
func (c Card) String() string {
	if c.Rolling {
		return "^" + c.Tag
	}
	return c.Tag
}

// IsMiss reports whether the card carries the miss sentinel.
func (c Card) IsMiss() bool { return c.Value == MissValue }

// Group is the ingestion shape: a card plus how many copies of it the deck holds.
type Group struct {
	Tag      string `json:"tag" yaml:"tag"`
	Value    int    `json:"value" yaml:"value"`
	Rolling  bool   `json:"rolling" yaml:"rolling"`
	Terminal bool   `json:"terminal,omitempty" yaml:"terminal,omitempty"`
	Count    int    `json:"count" yaml:"count"`
}

// Card returns the card this group multiplies.
func (g Group) Card() Card {
	return Card{Tag: g.Tag, Value: g.Value, Rolling: g.Rolling, Terminal: g.Terminal}
}

// Expand flattens groups into one card instance per copy.
// Groups with a non-positive count contribute nothing.
func Expand(groups []Group) []Card {
	n := 0
	for _, g := range groups {
		if g.Count > 0 {
			n += g.Count
		}
	}
	cards := make([]Card, 0, n)
	for _, g := range groups {
		c := g.Card()
		for i := 0; i < g.Count; i++ {
			cards = append(cards, c)
		}
	}
	return cards
}

// Distinct returns each distinct card of the groups once, in first-seen order.
// Groups with a non-positive count are skipped.
func Distinct(groups []Group) []Card {
	seen := make(map[Card]bool, len(groups))
	out := make([]Card, 0, len(groups))
	for _, g := range groups {
		c := g.Card()
		if g.Count <= 0 || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

var (
	ErrEmptyDeck      = errors.New("deck has no cards")
	ErrNoSettlingCard = errors.New("deck has no non-rolling card")
)

// CheckPlayable reports whether attacks over cards can terminate: the deck must
// be non-empty and hold at least one non-rolling card.
func CheckPlayable(cards []Card) error {
	if len(cards) == 0 {
		return ErrEmptyDeck
	}
	for _, c := range cards {
		if !c.Rolling {
			return nil
		}
	}
	return ErrNoSettlingCard
}

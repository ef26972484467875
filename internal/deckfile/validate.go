package deckfile

import (
	"fmt"
	"strings"

	"github.com/xtding233/havensim/internal/deck"
)

// validateRaw checks every group and reports all problems at once.
func validateRaw(raw []rawGroup) error {
	if len(raw) == 0 {
		return deck.ErrEmptyDeck
	}
	var errs []string
	for i, g := range raw {
		if g.Tag == nil {
			errs = append(errs, fmt.Sprintf("[%d].tag is required", i))
		}
		if g.Value == nil {
			errs = append(errs, fmt.Sprintf("[%d].value is required", i))
		}
		if g.Rolling == nil {
			errs = append(errs, fmt.Sprintf("[%d].rolling is required", i))
		}
		switch {
		case g.Count == nil:
			errs = append(errs, fmt.Sprintf("[%d].count is required", i))
		case *g.Count <= 0:
			errs = append(errs, fmt.Sprintf("[%d].count must be >= 1", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidGroup, strings.Join(errs, "; "))
	}
	return nil
}

// Validate checks already decoded groups, e.g. ones built in code.
func Validate(groups []deck.Group) error {
	if len(groups) == 0 {
		return deck.ErrEmptyDeck
	}
	var errs []string
	for i, g := range groups {
		if g.Count <= 0 {
			errs = append(errs, fmt.Sprintf("[%d].count must be >= 1", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidGroup, strings.Join(errs, "; "))
	}
	return deck.CheckPlayable(deck.Expand(groups))
}

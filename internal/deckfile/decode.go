package deckfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/xtding233/havensim/internal/deck"
)

var (
	ErrInvalidGroup  = errors.New("invalid card group")
	ErrUnknownFormat = errors.New("unknown deck format")
)

// Format is the serialization of a deck description.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file extension. Anything that is not
// .yaml or .yml is read as JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// rawGroup mirrors one card group as written. Pointer fields tell a missing
// key apart from a zero value.
type rawGroup struct {
	Tag      *string `json:"tag"`
	Value    *int    `json:"value"`
	Rolling  *bool   `json:"rolling"`
	Terminal *bool   `json:"terminal"`
	Count    *int    `json:"count"`
}

// UnmarshalYAML matches keys case-insensitively and ignores unknown ones,
// the way encoding/json treats the same document.
func (r *rawGroup) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: card group must be a mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		var err error
		switch strings.ToLower(key.Value) {
		case "tag":
			r.Tag = new(string)
			err = val.Decode(r.Tag)
		case "value":
			r.Value = new(int)
			err = val.Decode(r.Value)
		case "rolling":
			r.Rolling = new(bool)
			err = val.Decode(r.Rolling)
		case "terminal":
			r.Terminal = new(bool)
			err = val.Decode(r.Terminal)
		case "count":
			r.Count = new(int)
			err = val.Decode(r.Count)
		}
		if err != nil {
			return fmt.Errorf("key %q: %w", key.Value, err)
		}
	}
	return nil
}

// Load reads and validates the deck description at path.
func Load(path string) ([]deck.Group, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(b, FormatFor(path))
}

// Decode parses a deck description and validates it.
func Decode(data []byte, format Format) ([]deck.Group, error) {
	var raw []rawGroup
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err := validateRaw(raw); err != nil {
		return nil, err
	}
	groups := make([]deck.Group, len(raw))
	for i, r := range raw {
		groups[i] = deck.Group{
			Tag:      *r.Tag,
			Value:    *r.Value,
			Rolling:  *r.Rolling,
			Terminal: r.Terminal != nil && *r.Terminal,
			Count:    *r.Count,
		}
	}
	if err := deck.CheckPlayable(deck.Expand(groups)); err != nil {
		return nil, err
	}
	return groups, nil
}

package deckfile

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/xtding233/havensim/internal/deck"
)

var ErrUnknownBuiltin = errors.New("unknown built-in deck")

//go:embed data/*.json
var builtinFS embed.FS

// BuiltinNames lists the embedded decks, sorted.
func BuiltinNames() []string {
	entries, err := fs.ReadDir(builtinFS, "data")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names
}

// Builtin returns the embedded deck with the given name.
func Builtin(name string) ([]deck.Group, error) {
	b, err := builtinFS.ReadFile(path.Join("data", name+".json"))
	if err != nil {
		return nil, fmt.Errorf("%w: %q (have %s)", ErrUnknownBuiltin, name, strings.Join(BuiltinNames(), ", "))
	}
	return Decode(b, FormatJSON)
}

// Package symbols provides the auditory stimulus sets.
package symbols

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for symbol set resolution.
var (
	ErrUnknownSet = errors.New("symbols: unknown stimulus set")
	ErrEmptySet   = errors.New("symbols: symbol file is empty")
)

// DefaultSet is used when no set is configured.
const DefaultSet = "letters"

var builtin = map[string][]string{
	"letters": {
		"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M",
		"N", "O", "P", "Q", "R", "S", "T", "U", "V", "W", "X", "Y", "Z",
	},
	"nonconfusing": {"A", "K", "Q", "R", "U", "W", "H", "L", "O"},
	"ganzhi": {
		"jia", "yi", "bing", "ding", "wu", "ji", "geng", "xin", "ren", "gui",
		"zi", "chou", "yin", "mao", "chen", "si", "wu_branch", "wei", "shen", "you", "xu", "hai",
	},
}

// Names lists the built-in set names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Set returns a copy of the named built-in set.
func Set(name string) ([]string, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultSet
	}
	set, ok := builtin[key]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownSet, name, strings.Join(Names(), ", "))
	}
	return append([]string(nil), set...), nil
}

// Resolve returns the symbols from path when set, otherwise the named set.
// The returned label identifies the source for session records.
func Resolve(name, path string) ([]string, string, error) {
	if strings.TrimSpace(path) != "" {
		syms, err := LoadSymbols(path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load symbol file: %w", err)
		}
		return syms, "file:" + path, nil
	}
	syms, err := Set(name)
	if err != nil {
		return nil, "", err
	}
	if strings.TrimSpace(name) == "" {
		name = DefaultSet
	}
	return syms, strings.ToLower(strings.TrimSpace(name)), nil
}

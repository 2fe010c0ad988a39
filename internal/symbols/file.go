// Package symbols loads custom symbol files.
package symbols

import (
	"bufio"
	"fmt"
	"os"
)

// LoadSymbols reads one symbol per line from the provided file path.
// Duplicates are dropped, keeping the first occurrence.
func LoadSymbols(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only symbol file.
			_ = cerr
		}
	}()

	var syms []string
	seen := map[string]struct{}{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		sym, ok := normalize(scanner.Text())
		if !ok {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		syms = append(syms, sym)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(syms) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySet, path)
	}
	return syms, nil
}

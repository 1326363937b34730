// internal/symbols/symbols.go
//
// Face-symbol set management for the deck.
//
// Responsibilities:
//   - Load the symbol set from an environment-provided file or fall back to
//     the embedded default (the seven fruits).
//   - Normalize: trim, skip blanks and "#" comments, drop duplicates.
//   - Expose the loaded set and a count for diagnostics.
//
// Environment variables:
//   SYMBOLS_FILE=/path/to/symbols.txt
//
// Constraints:
//   • At least two distinct symbols, otherwise Init fails.
//   • Initialization is run once (sync.Once).

package symbols

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/robalobadob/memory/apps/go-server/assets"
	"github.com/robalobadob/memory/apps/go-server/internal/deck"
)

var (
	initOnce   sync.Once
	loaded     []deck.Symbol
	initialErr error
)

// ErrTooFew is returned when fewer than two distinct symbols are configured.
var ErrTooFew = errors.New("symbols: need at least two distinct symbols")

// Init loads the symbol set exactly once.
func Init() error {
	initOnce.Do(func() {
		loaded, initialErr = Load(os.Getenv("SYMBOLS_FILE"))
	})
	return initialErr
}

// Load reads path, or the embedded default when path is empty.
func Load(path string) ([]deck.Symbol, error) {
	var lines []string
	var err error
	if path != "" {
		lines, err = readSymbolFile(path)
	} else {
		lines, err = assets.SymbolList()
	}
	if err != nil {
		return nil, fmt.Errorf("symbols: %w", err)
	}
	out := dedupe(lines)
	if len(out) < 2 {
		return nil, ErrTooFew
	}
	return out, nil
}

// readSymbolFile loads one symbol per line, skipping blanks and comments.
func readSymbolFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

func dedupe(lines []string) []deck.Symbol {
	seen := make(map[string]struct{}, len(lines))
	out := make([]deck.Symbol, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, deck.Symbol(l))
	}
	return out
}

// All returns the loaded set, or deck.DefaultSymbols before Init ran.
func All() []deck.Symbol {
	if len(loaded) == 0 {
		return deck.DefaultSymbols
	}
	return loaded
}

package assets

import (
	"bufio"
	"embed"
	"strings"
)

//go:embed symbols.txt help.txt
var FS embed.FS

func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
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

// SymbolList returns the embedded default face set.
func SymbolList() ([]string, error) {
	return readLines("symbols.txt")
}

// HelpText returns the how-to-play text.
func HelpText() (string, error) {
	b, err := FS.ReadFile("help.txt")
	return strings.TrimSpace(string(b)), err
}

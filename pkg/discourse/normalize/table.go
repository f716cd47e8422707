package normalize

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// TableConverter performs character-level script conversion from a
// user-supplied mapping. Chains in the mapping (A→B, B→C) are resolved at build time so
// conversion is idempotent.
type TableConverter struct {
	mapping map[rune]rune
}

// NewTableConverter builds a converter from a rune mapping.
func NewTableConverter(mapping map[rune]rune) *TableConverter {
	resolved := make(map[rune]rune, len(mapping))
	for from := range mapping {
		to := mapping[from]
		seen := map[rune]struct{}{from: {}}
		for {
			next, ok := mapping[to]
			if !ok {
				break
			}
			if _, loop := seen[to]; loop {
				break
			}
			seen[to] = struct{}{}
			to = next
		}
		if to != from {
			resolved[from] = to
		}
	}
	return &TableConverter{mapping: resolved}
}

// Convert maps every rune that has a table entry.
func (c *TableConverter) Convert(text string) string {
	if len(c.mapping) == 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if to, ok := c.mapping[r]; ok {
			b.WriteRune(to)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Len returns the number of mapped runes.
func (c *TableConverter) Len() int { return len(c.mapping) }

// LoadTable reads a conversion table file. Each non-empty, non-comment line
// holds a source character, a tab or space, then one or more candidate
// characters separated by spaces; the first candidate wins. This is the
// layout of OpenCC's TSCharacters.txt.
func LoadTable(path string) (*TableConverter, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open conversion table: %w", err)
	}
	defer f.Close()
	return ReadTable(f)
}

// ReadTable parses a conversion table from r. See LoadTable for the format.
func ReadTable(r io.Reader) (*TableConverter, error) {
	mapping := make(map[rune]rune)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("conversion table line %d: want source and target", lineNo)
		}
		from, n := utf8.DecodeRuneInString(fields[0])
		if n != len(fields[0]) {
			// Phrase entries are not supported by a character table.
			continue
		}
		to, m := utf8.DecodeRuneInString(fields[1])
		if m != len(fields[1]) {
			continue
		}
		mapping[from] = to
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read conversion table: %w", err)
	}
	return NewTableConverter(mapping), nil
}

// Package normalize canonicalizes extracted speech text: traditional
// characters are mapped to simplified ones, then everything outside the
// core CJK ideograph block is dropped.
package normalize

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Inclusive bounds of the kept ideograph range (U+4E00..U+9FA5).
const (
	CoreFirst rune = 0x4E00
	CoreLast  rune = 0x9FA5
)

var coreIdeographs = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: uint16(CoreFirst), Hi: uint16(CoreLast), Stride: 1}},
}

// Converter maps text from one script variant to another.
type Converter interface {
	Convert(text string) string
}

// Normalizer applies script unification followed by character filtering.
// It is safe for concurrent use when its Converter is.
type Normalizer struct {
	conv Converter
}

// New creates a Normalizer. A nil converter falls back to
// DefaultConverter; New panics if its dictionaries cannot be loaded.
func New(conv Converter) *Normalizer {
	if conv == nil {
		def, err := DefaultConverter()
		if err != nil {
			panic(err)
		}
		conv = def
	}
	return &Normalizer{conv: conv}
}

// Normalize converts raw to simplified script and strips every rune outside
// [CoreFirst, CoreLast]. Conversion runs first because it can move a rune
// into or out of the kept range.
func (n *Normalizer) Normalize(raw string) string {
	converted := n.conv.Convert(raw)
	out, _, err := transform.String(runes.Remove(runes.NotIn(coreIdeographs)), converted)
	if err != nil {
		// not reached for string input
		return filterCore(converted)
	}
	return out
}

// IsCore reports whether r survives the character filter.
func IsCore(r rune) bool {
	return r >= CoreFirst && r <= CoreLast
}

func filterCore(s string) string {
	buf := make([]rune, 0, len(s)/3)
	for _, r := range s {
		if IsCore(r) {
			buf = append(buf, r)
		}
	}
	return string(buf)
}

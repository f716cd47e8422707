// Package segment splits normalized text into tokens. The concrete
// segmentation algorithm is pluggable; the rest of the pipeline only sees
// the Segmenter interface.
package segment

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-ego/gse"

	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/internalerr"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/stoplist"
)

// Segmentation strategies selectable from configuration.
const (
	StrategyGSE    = "gse"
	StrategyBigram = "bigram"
	StrategyRune   = "rune"
)

// Segmenter splits text into an ordered token sequence.
type Segmenter interface {
	Segment(text string) []string
}

// New returns the segmenter for a strategy name. An empty name selects gse.
func New(strategy string) (Segmenter, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", StrategyGSE:
		return NewGSE()
	case StrategyBigram:
		return Bigram{}, nil
	case StrategyRune:
		return Rune{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown segmenter %q", internalerr.ErrInvalidConfig, strategy)
	}
}

// GSE is a dictionary + HMM segmenter backed by go-ego/gse.
type GSE struct {
	seg gse.Segmenter
}

// NewGSE loads the embedded Chinese dictionary.
func NewGSE() (*GSE, error) {
	g := &GSE{}
	if err := g.seg.LoadDictEmbed(); err != nil {
		return nil, fmt.Errorf("load gse dictionary: %w", err)
	}
	return g, nil
}

// Segment implements Segmenter.
func (g *GSE) Segment(text string) []string {
	if text == "" {
		return nil
	}
	return g.seg.Cut(text, true)
}

// Bigram emits overlapping two-rune windows. Text of a single rune yields
// that rune.
type Bigram struct{}

// Segment implements Segmenter.
func (Bigram) Segment(text string) []string {
	rs := []rune(text)
	switch len(rs) {
	case 0:
		return nil
	case 1:
		return []string{text}
	}
	out := make([]string, 0, len(rs)-1)
	for i := 0; i+1 < len(rs); i++ {
		out = append(out, string(rs[i:i+2]))
	}
	return out
}

// Rune emits one token per rune.
type Rune struct{}

// Segment implements Segmenter.
func (Rune) Segment(text string) []string {
	out := make([]string, 0, utf8.RuneCountInString(text))
	for _, r := range text {
		out = append(out, string(r))
	}
	return out
}

// Tokenizer wraps a Segmenter with token cleanup: whitespace-only tokens,
// tokens shorter than MinRunes and stopwords are dropped.
type Tokenizer struct {
	seg      Segmenter
	stops    *stoplist.Manager
	minRunes int
}

// NewTokenizer creates a tokenizer. stops may be nil.
func NewTokenizer(seg Segmenter, stops *stoplist.Manager) *Tokenizer {
	return &Tokenizer{seg: seg, stops: stops, minRunes: 1}
}

// SetMinRunes sets the minimum token length in runes. Values below 1 are
// clamped to 1.
func (t *Tokenizer) SetMinRunes(n int) {
	if n < 1 {
		n = 1
	}
	t.minRunes = n
}

// Tokenize segments text and cleans the resulting tokens.
func (t *Tokenizer) Tokenize(text string) []string {
	raw := t.seg.Segment(text)
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if utf8.RuneCountInString(tok) < t.minRunes {
			continue
		}
		if t.stops != nil && t.stops.IsStop(tok) {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

package segment

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/internalerr"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/stoplist"
)

// fixedSegmenter splits on '|' so tests control token boundaries.
type fixedSegmenter struct{}

func (fixedSegmenter) Segment(text string) []string { return strings.Split(text, "|") }

func TestBigram(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{input: "", want: nil},
		{input: "国", want: []string{"国"}},
		{input: "人工智能", want: []string{"人工", "工智", "智能"}},
	}
	for _, tt := range tests {
		got := Bigram{}.Segment(tt.input)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Bigram(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestRune(t *testing.T) {
	got := Rune{}.Segment("守正创新")
	want := []string{"守", "正", "创", "新"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Rune = %v, want %v", got, want)
	}
}

func TestNewUnknownStrategy(t *testing.T) {
	_, err := New("pkuseg")
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestNewBuiltinStrategies(t *testing.T) {
	for _, name := range []string{StrategyBigram, StrategyRune, " BIGRAM "} {
		seg, err := New(name)
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		if seg == nil {
			t.Fatalf("New(%q) returned nil segmenter", name)
		}
	}
}

func TestTokenizerCleanup(t *testing.T) {
	stops := stoplist.NewManager([]string{"的"})
	tok := NewTokenizer(fixedSegmenter{}, stops)

	got := tok.Tokenize("发展| |的|人民|中")
	want := []string{"发展", "人民", "中"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}

	tok.SetMinRunes(2)
	got = tok.Tokenize("发展| |的|人民|中")
	want = []string{"发展", "人民"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize with min runes = %v, want %v", got, want)
	}

	tok.SetMinRunes(0)
	if tok.minRunes != 1 {
		t.Errorf("min runes should clamp to 1, got %d", tok.minRunes)
	}
}

func TestTokenizerEmptyText(t *testing.T) {
	tok := NewTokenizer(Bigram{}, nil)
	if got := tok.Tokenize(""); len(got) != 0 {
		t.Errorf("expected no tokens, got %v", got)
	}
}

func TestGSESegmentsWholeText(t *testing.T) {
	if testing.Short() {
		t.Skip("loads the embedded dictionary")
	}
	seg, err := NewGSE()
	if err != nil {
		t.Fatalf("NewGSE: %v", err)
	}

	text := "坚持科技向善推动高质量发展"
	tokens := seg.Segment(text)
	if len(tokens) < 2 {
		t.Fatalf("expected several tokens, got %v", tokens)
	}
	if strings.Join(tokens, "") != text {
		t.Errorf("tokens %v do not cover %q", tokens, text)
	}
	if seg.Segment("") != nil {
		t.Error("empty text should yield nil")
	}
}

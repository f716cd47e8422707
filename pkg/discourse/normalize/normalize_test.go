package normalize

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNormalizeStripsNonIdeographs(t *testing.T) {
	n := New(nil)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "punctuation and latin", input: "人工智能, AI 123 向善!", want: "人工智能向善"},
		{name: "whitespace and newlines", input: "守正\n创新\t ", want: "守正创新"},
		{name: "fullwidth punctuation", input: "科技伦理（草案）。", want: "科技伦理草案"},
		{name: "digits in dates", input: "2023年10月1日", want: "年月日"},
		{name: "empty", input: "", want: ""},
		{name: "only latin", input: "editor: someone", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeRangeBoundaries(t *testing.T) {
	n := New(NewTableConverter(nil))

	in := string([]rune{CoreFirst - 1, CoreFirst, CoreLast, CoreLast + 1})
	want := string([]rune{CoreFirst, CoreLast})

	if got := n.Normalize(in); got != want {
		t.Errorf("boundary filter = %U, want %U", []rune(got), []rune(want))
	}
	if !IsCore(CoreFirst) || !IsCore(CoreLast) {
		t.Error("range bounds must be inclusive")
	}
	if IsCore(CoreFirst-1) || IsCore(CoreLast+1) {
		t.Error("runes outside the range must be rejected")
	}
}

func TestNormalizeConvertsTraditional(t *testing.T) {
	n := New(nil)

	got := n.Normalize("經濟發展，國家安全")
	if got != "经济发展国家安全" {
		t.Errorf("got %q, want %q", got, "经济发展国家安全")
	}
}

func TestNormalizeConversionBeforeFilter(t *testing.T) {
	// A converter that maps a Latin letter into the ideograph range proves
	// conversion runs before the filter.
	conv := NewTableConverter(map[rune]rune{'A': '甲'})
	n := New(conv)

	if got := n.Normalize("A乙"); got != "甲乙" {
		t.Errorf("got %q, want %q", got, "甲乙")
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	n := New(nil)

	inputs := []string{
		"",
		"人工智能向善人工智能",
		"習近平在中央經濟工作會議上的講話 2021-12-08",
		"Mixed 內容 with 標點、符號；and ASCII",
		"\xff\xfe invalid utf8 中文",
		strings.Repeat("發展", 50),
	}
	for _, in := range inputs {
		once := n.Normalize(in)
		twice := n.Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestTableConverterResolvesChains(t *testing.T) {
	conv := NewTableConverter(map[rune]rune{'a': 'b', 'b': 'c', 'x': 'y', 'y': 'x'})

	if got := conv.Convert("ab"); got != "cc" {
		t.Errorf("chain not resolved: got %q", got)
	}
	// Cycles stop at the first revisit and never hang.
	_ = conv.Convert("xy")
	if conv.Convert(conv.Convert("ab")) != conv.Convert("ab") {
		t.Error("conversion should be idempotent")
	}
}

func TestDefaultConverterWords(t *testing.T) {
	n := New(nil)
	cases := []struct {
		in, want string
	}{
		{"臺灣", "台湾"},
		{"廢除", "废除"},
		{"鄧小平", "邓小平"},
		{"兒童", "儿童"},
		{"澤東", "泽东"},
	}
	for _, tc := range cases {
		if got := n.Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDefaultConverterShared(t *testing.T) {
	a, err := DefaultConverter()
	if err != nil {
		t.Fatalf("DefaultConverter: %v", err)
	}
	b, _ := DefaultConverter()
	if a != b {
		t.Error("expected a single shared converter")
	}
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "TSCharacters.txt")
	content := "# comment\n萬\t万\n乾\t干 乾\n\n後 后\n一個\t一个\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	conv, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if conv.Len() != 3 {
		t.Errorf("expected 3 single-character entries, got %d", conv.Len())
	}
	if got := conv.Convert("萬乾後"); got != "万干后" {
		t.Errorf("Convert = %q", got)
	}
}

func TestLoadTableErrors(t *testing.T) {
	if _, err := LoadTable("/nonexistent/table.txt"); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := ReadTable(strings.NewReader("萬\n")); err == nil {
		t.Error("expected error for line without target")
	}
}

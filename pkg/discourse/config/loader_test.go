package config

import (
	"reflect"
	"testing"

	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/segment"
)

func TestLoaderBuildsComponents(t *testing.T) {
	stops := writeFile(t, "stoplist.yaml", "terms:\n  - 发展\n")
	table := writeFile(t, "ts.txt", "發\t发\n展\t展\n")

	l := &Loader{
		StoplistPath:        stops,
		ConversionTablePath: table,
		Segmenter:           segment.StrategyBigram,
		MinRunes:            2,
	}
	comp, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := comp.Normalizer.Normalize("發展, 改革!"); got != "发展改革" {
		t.Errorf("normalized = %q", got)
	}
	if !comp.Stoplist.IsStop("发展") {
		t.Error("stoplist not loaded")
	}
	// bigrams of 发展改革: 发展 展改 改革; 发展 is a stopword
	if got, want := comp.Tokenizer.Tokenize("发展改革"), []string{"展改", "改革"}; !reflect.DeepEqual(got, want) {
		t.Errorf("tokens = %v, want %v", got, want)
	}
}

func TestLoaderDefaultConverter(t *testing.T) {
	comp, err := (&Loader{Segmenter: segment.StrategyRune}).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := comp.Normalizer.Normalize("臺灣兒童"); got != "台湾儿童" {
		t.Errorf("normalized = %q", got)
	}
}

func TestLoaderErrors(t *testing.T) {
	tests := []struct {
		name string
		l    Loader
	}{
		{"missing stoplist", Loader{StoplistPath: "/nonexistent/stop.yaml", Segmenter: segment.StrategyRune}},
		{"missing table", Loader{ConversionTablePath: "/nonexistent/ts.txt", Segmenter: segment.StrategyRune}},
		{"bad segmenter", Loader{Segmenter: "pkuseg"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.l.Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestConfigLoader(t *testing.T) {
	cfg := Default()
	cfg.Topics.StopwordsPath = "s.yaml"
	cfg.Analysis.ConversionTable = "t.txt"
	l := cfg.Loader()
	if l.StoplistPath != "s.yaml" || l.ConversionTablePath != "t.txt" || l.Segmenter != segment.StrategyGSE || l.MinRunes != 2 {
		t.Fatalf("unexpected loader %+v", l)
	}
}

package config

import (
	"fmt"

	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/normalize"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/segment"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/stoplist"
)

// Loader loads all configuration files and constructs components
type Loader struct {
	StoplistPath        string
	ConversionTablePath string
	Segmenter           string
	MinRunes            int
}

// Components holds all loaded configuration components
type Components struct {
	Normalizer *normalize.Normalizer
	Stoplist   *stoplist.Manager
	Segmenter  segment.Segmenter
	Tokenizer  *segment.Tokenizer
}

// Loader returns a loader for the files referenced by c.
func (c Config) Loader() *Loader {
	return &Loader{
		StoplistPath:        c.Topics.StopwordsPath,
		ConversionTablePath: c.Analysis.ConversionTable,
		Segmenter:           c.Topics.Segmenter,
		MinRunes:            c.Topics.MinRunes,
	}
}

// Load reads all configuration files and returns initialized components
func (l *Loader) Load() (*Components, error) {
	comp := &Components{}

	// Conversion table
	if l.ConversionTablePath != "" {
		table, err := normalize.LoadTable(l.ConversionTablePath)
		if err != nil {
			return nil, fmt.Errorf("load conversion table: %w", err)
		}
		comp.Normalizer = normalize.New(table)
	} else {
		conv, err := normalize.DefaultConverter()
		if err != nil {
			return nil, err
		}
		comp.Normalizer = normalize.New(conv)
	}

	// Stoplist
	if l.StoplistPath != "" {
		sl, err := LoadStoplist(l.StoplistPath)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		comp.Stoplist = stoplist.NewManager(sl.Terms)
	} else {
		comp.Stoplist = stoplist.NewManager(nil)
	}

	seg, err := segment.New(l.Segmenter)
	if err != nil {
		return nil, err
	}
	comp.Segmenter = seg
	comp.Tokenizer = segment.NewTokenizer(seg, comp.Stoplist)
	comp.Tokenizer.SetMinRunes(l.MinRunes)

	return comp, nil
}

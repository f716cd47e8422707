package topics

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/internalerr"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/store"
)

// Tokenizer turns normalized content into tokens.
type Tokenizer interface {
	Tokenize(text string) []string
}

// Options controls one training run.
type Options struct {
	Topics  int
	Passes  int
	Seed    uint64
	NoBelow int     // minimum absolute document frequency
	NoAbove float64 // maximum document frequency fraction
	KeepN   int     // 0 keeps every surviving term

	Coherence      bool
	Measure        string
	CoherenceTopN  int
	TopTermsReport int
}

// DefaultOptions mirrors the archive analysis defaults.
func DefaultOptions() Options {
	return Options{
		Topics:         5,
		Passes:         15,
		Seed:           42,
		NoBelow:        5,
		NoAbove:        0.5,
		Coherence:      true,
		Measure:        MeasureNPMI,
		CoherenceTopN:  10,
		TopTermsReport: 10,
	}
}

// Result is the artifact of one training run. It is owned by the caller
// and never persisted by the pipeline.
type Result struct {
	Dictionary *Dictionary
	Corpus     [][]Term
	Model      *Model
	Texts      [][]string
	Dropped    int // documents with no tokens

	Coherence    *float64
	CoherenceErr error
}

// Pipeline tokenizes documents, builds a pruned dictionary and trains a
// topic model.
type Pipeline struct {
	tokenizer Tokenizer
	trainer   func(Options) Trainer
	logger    *slog.Logger
}

// NewPipeline creates a pipeline using collapsed Gibbs LDA.
func NewPipeline(tok Tokenizer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		tokenizer: tok,
		trainer: func(o Options) Trainer {
			return GibbsLDA{Topics: o.Topics, Passes: o.Passes, Seed: o.Seed}
		},
		logger: logger,
	}
}

// WithTrainer replaces the topic-model backend.
func (p *Pipeline) WithTrainer(t Trainer) *Pipeline {
	p.trainer = func(Options) Trainer { return t }
	return p
}

// Train runs the pipeline over docs. Coherence failures are recorded in
// the result and do not fail the run.
func (p *Pipeline) Train(ctx context.Context, docs []store.Document, opts Options) (*Result, error) {
	if opts.Topics <= 0 || opts.Passes <= 0 {
		return nil, fmt.Errorf("%w: topics=%d passes=%d", internalerr.ErrInvalidConfig, opts.Topics, opts.Passes)
	}
	if opts.NoAbove <= 0 || opts.NoAbove > 1 {
		return nil, fmt.Errorf("%w: no_above %v outside (0,1]", internalerr.ErrInvalidConfig, opts.NoAbove)
	}

	res := &Result{}
	for _, d := range docs {
		toks := p.tokenizer.Tokenize(d.Content)
		if len(toks) == 0 {
			res.Dropped++
			continue
		}
		res.Texts = append(res.Texts, toks)
	}
	if len(res.Texts) == 0 {
		return nil, fmt.Errorf("%w: no document produced tokens", internalerr.ErrEmptyCorpus)
	}

	res.Dictionary = NewDictionary(res.Texts)
	before := res.Dictionary.Len()
	res.Dictionary.FilterExtremes(opts.NoBelow, opts.NoAbove, opts.KeepN)
	p.logger.Debug("dictionary pruned", "before", before, "after", res.Dictionary.Len(), "documents", len(res.Texts))
	if res.Dictionary.Len() == 0 {
		return nil, fmt.Errorf("%w: vocabulary empty after pruning", internalerr.ErrEmptyCorpus)
	}

	res.Corpus = make([][]Term, len(res.Texts))
	for i, text := range res.Texts {
		res.Corpus[i] = res.Dictionary.Doc2Bow(text)
	}

	model, err := p.trainer(opts).Train(ctx, res.Corpus, res.Dictionary.Len())
	if err != nil {
		return nil, fmt.Errorf("train topic model: %w", err)
	}
	model.dict = res.Dictionary
	res.Model = model

	if opts.Coherence {
		topN := opts.CoherenceTopN
		if topN <= 0 {
			topN = 10
		}
		terms := make([][]string, model.NumTopics)
		for k := range terms {
			for _, tw := range model.TopTerms(k, topN) {
				terms[k] = append(terms[k], tw.Term)
			}
		}
		score, err := Coherence(opts.Measure, terms, res.Texts)
		if err != nil {
			p.logger.Warn("coherence unavailable", "measure", opts.Measure, "error", err)
			res.CoherenceErr = err
		} else {
			res.Coherence = &score
		}
	}
	return res, nil
}

package discourse

import (
	"context"
	"fmt"

	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/internalerr"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/keywords"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/store"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/topics"
)

// AnalyzeOptions controls a keyword analysis.
type AnalyzeOptions struct {
	Keywords    []string
	Range       keywords.DateRange
	TopN        int
	TrendWindow int
}

// Analysis is the derived keyword output of a corpus.
type Analysis struct {
	keywords.Result
	Trend keywords.TrendTable
}

// Analyze counts keywords over the persisted corpus.
func (e *Engine) Analyze(ctx context.Context, opts AnalyzeOptions) (*Analysis, error) {
	docs, err := e.corpus(ctx)
	if err != nil {
		return nil, err
	}
	res, err := keywords.Analyze(docs, opts.Keywords, opts.Range, opts.TopN)
	if err != nil {
		return nil, err
	}
	inRange := docs
	if opts.Range.Bounded() {
		inRange = make([]store.Document, 0, len(docs))
		for _, d := range docs {
			if opts.Range.Contains(d) {
				inRange = append(inRange, d)
			}
		}
	}
	e.logger.Info("keyword analysis", "documents", res.Included, "excluded", res.Excluded, "keywords", len(res.Summary))
	return &Analysis{
		Result: res,
		Trend:  keywords.Trend(inRange, opts.Keywords, opts.TrendWindow),
	}, nil
}

// Topics trains a topic model over the persisted corpus.
func (e *Engine) Topics(ctx context.Context, opts topics.Options) (*topics.Result, error) {
	if e.tokenizer == nil {
		return nil, fmt.Errorf("%w: no tokenizer", internalerr.ErrInvalidConfig)
	}
	docs, err := e.corpus(ctx)
	if err != nil {
		return nil, err
	}
	res, err := topics.NewPipeline(e.tokenizer, e.logger).Train(ctx, docs, opts)
	if err != nil {
		return nil, err
	}
	e.logger.Info("topic model trained", "documents", len(res.Corpus), "dropped", res.Dropped, "vocabulary", res.Dictionary.Len(), "topics", res.Model.NumTopics)
	return res, nil
}

func (e *Engine) corpus(ctx context.Context) ([]store.Document, error) {
	docs, err := e.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: corpus is empty, run a crawl or import first", internalerr.ErrEmptyCorpus)
	}
	return docs, nil
}

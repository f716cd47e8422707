package topics

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/internalerr"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/store"
)

type fieldsTokenizer struct{}

func (fieldsTokenizer) Tokenize(text string) []string { return strings.Fields(text) }

func pipelineDocs() []store.Document {
	var docs []store.Document
	for i := 0; i < 10; i++ {
		content := "common "
		if i%2 == 0 {
			content += "经济 发展 市场"
		} else {
			content += "生态 环境 绿色"
		}
		if i == 3 {
			content += " 罕见"
		}
		docs = append(docs, store.Document{URL: string(rune('a' + i)), Content: content})
	}
	docs = append(docs, store.Document{URL: "empty", Content: "   "})
	return docs
}

func TestPipelineTrain(t *testing.T) {
	opts := DefaultOptions()
	opts.Topics = 2
	opts.NoBelow = 2
	opts.NoAbove = 0.6

	res, err := NewPipeline(fieldsTokenizer{}, nil).Train(context.Background(), pipelineDocs(), opts)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if res.Dropped != 1 {
		t.Errorf("dropped = %d, want 1", res.Dropped)
	}
	if len(res.Corpus) != 10 {
		t.Errorf("corpus size = %d, want 10", len(res.Corpus))
	}
	for _, tok := range []string{"罕见", "common"} {
		if _, ok := res.Dictionary.ID(tok); ok {
			t.Errorf("%q should have been pruned", tok)
		}
	}
	if res.Dictionary.Len() != 6 {
		t.Errorf("vocabulary = %d, want 6", res.Dictionary.Len())
	}
	if res.Coherence == nil || res.CoherenceErr != nil {
		t.Fatalf("expected coherence, got err %v", res.CoherenceErr)
	}
	if got := res.Model.TopTerms(0, 3); len(got) != 3 {
		t.Errorf("top terms = %+v", got)
	}
}

func TestPipelineCoherenceFailureIsNotFatal(t *testing.T) {
	opts := DefaultOptions()
	opts.Topics = 2
	opts.NoBelow = 2
	opts.NoAbove = 0.6
	opts.CoherenceTopN = 1

	res, err := NewPipeline(fieldsTokenizer{}, nil).Train(context.Background(), pipelineDocs(), opts)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if res.Model == nil {
		t.Fatal("model should still be returned")
	}
	if res.Coherence != nil || !errors.Is(res.CoherenceErr, ErrInsufficientData) {
		t.Fatalf("expected recorded coherence failure, got %v", res.CoherenceErr)
	}
}

func TestPipelineEmptyVocabulary(t *testing.T) {
	opts := DefaultOptions()
	_, err := NewPipeline(fieldsTokenizer{}, nil).Train(context.Background(), pipelineDocs()[:3], opts)
	if !errors.Is(err, internalerr.ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
}

func TestPipelineNoTokens(t *testing.T) {
	_, err := NewPipeline(fieldsTokenizer{}, nil).Train(context.Background(), []store.Document{{URL: "x"}}, DefaultOptions())
	if !errors.Is(err, internalerr.ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
}

func TestPipelineRejectsBadOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.NoAbove = 1.5
	_, err := NewPipeline(fieldsTokenizer{}, nil).Train(context.Background(), pipelineDocs(), opts)
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

type stubTrainer struct{ calls int }

func (s *stubTrainer) Train(ctx context.Context, corpus [][]Term, vocab int) (*Model, error) {
	s.calls++
	tw := make([]float64, vocab)
	for i := range tw {
		tw[i] = 1 / float64(vocab)
	}
	return &Model{NumTopics: 1, TopicWord: [][]float64{tw}}, nil
}

func TestPipelineWithTrainer(t *testing.T) {
	opts := DefaultOptions()
	opts.NoBelow = 2
	opts.NoAbove = 0.6
	stub := &stubTrainer{}

	res, err := NewPipeline(fieldsTokenizer{}, nil).WithTrainer(stub).Train(context.Background(), pipelineDocs(), opts)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if stub.calls != 1 {
		t.Fatalf("trainer calls = %d", stub.calls)
	}
	if got := res.Model.TopTerms(0, 1); len(got) != 1 || got[0].Term == "" {
		t.Fatalf("dictionary should be attached to injected model, got %+v", got)
	}
}

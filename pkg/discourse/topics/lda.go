package topics

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/internalerr"
)

// Trainer fits a topic model to a bag-of-tokens corpus.
type Trainer interface {
	Train(ctx context.Context, corpus [][]Term, vocabSize int) (*Model, error)
}

// Model holds trained topic-word and document-topic distributions.
type Model struct {
	NumTopics int
	// TopicWord[k][w] is P(w | topic k).
	TopicWord [][]float64
	// DocTopic[d][k] is P(topic k | document d).
	DocTopic [][]float64
	dict     *Dictionary
}

// TermWeight is a token with its probability under a topic.
type TermWeight struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// TopTerms returns the n most probable terms of topic. Equal weights are
// ordered by dictionary id.
func (m *Model) TopTerms(topic, n int) []TermWeight {
	if m == nil || topic < 0 || topic >= len(m.TopicWord) {
		return nil
	}
	dist := m.TopicWord[topic]
	ids := make([]int, len(dist))
	for i := range ids {
		ids[i] = i
	}
	sort.SliceStable(ids, func(i, j int) bool { return dist[ids[i]] > dist[ids[j]] })
	if n > 0 && len(ids) > n {
		ids = ids[:n]
	}
	out := make([]TermWeight, len(ids))
	for i, id := range ids {
		out[i] = TermWeight{Term: m.dict.Token(id), Weight: dist[id]}
	}
	return out
}

// GibbsLDA trains latent Dirichlet allocation by collapsed Gibbs sampling.
// Training is deterministic for a given seed and corpus.
type GibbsLDA struct {
	Topics int
	Passes int
	Seed   uint64
	// Alpha and Beta default to 1/Topics when zero.
	Alpha float64
	Beta  float64
}

// Train implements Trainer.
func (g GibbsLDA) Train(ctx context.Context, corpus [][]Term, vocabSize int) (*Model, error) {
	k := g.Topics
	if k <= 0 {
		return nil, fmt.Errorf("%w: topic count %d", internalerr.ErrInvalidConfig, k)
	}
	if g.Passes <= 0 {
		return nil, fmt.Errorf("%w: pass count %d", internalerr.ErrInvalidConfig, g.Passes)
	}
	if vocabSize == 0 || len(corpus) == 0 {
		return nil, fmt.Errorf("%w: nothing to train on", internalerr.ErrEmptyCorpus)
	}
	alpha, beta := g.Alpha, g.Beta
	if alpha <= 0 {
		alpha = 1 / float64(k)
	}
	if beta <= 0 {
		beta = 1 / float64(k)
	}

	rng := rand.New(rand.NewPCG(g.Seed, g.Seed^0x9e3779b97f4a7c15))

	// Expand bags into token streams.
	words := make([][]int, len(corpus))
	for d, bow := range corpus {
		for _, t := range bow {
			for i := 0; i < t.Count; i++ {
				words[d] = append(words[d], t.ID)
			}
		}
	}

	nDK := make([][]int, len(corpus))
	nKW := make([][]int, k)
	nK := make([]int, k)
	for i := range nKW {
		nKW[i] = make([]int, vocabSize)
	}
	z := make([][]int, len(corpus))
	for d, ws := range words {
		nDK[d] = make([]int, k)
		z[d] = make([]int, len(ws))
		for i, w := range ws {
			t := rng.IntN(k)
			z[d][i] = t
			nDK[d][t]++
			nKW[t][w]++
			nK[t]++
		}
	}

	vBeta := float64(vocabSize) * beta
	p := make([]float64, k)
	for pass := 0; pass < g.Passes; pass++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for d, ws := range words {
			for i, w := range ws {
				t := z[d][i]
				nDK[d][t]--
				nKW[t][w]--
				nK[t]--

				var total float64
				for j := 0; j < k; j++ {
					total += (float64(nDK[d][j]) + alpha) * (float64(nKW[j][w]) + beta) / (float64(nK[j]) + vBeta)
					p[j] = total
				}
				u := rng.Float64() * total
				t = sort.SearchFloat64s(p, u)
				if t >= k {
					t = k - 1
				}

				z[d][i] = t
				nDK[d][t]++
				nKW[t][w]++
				nK[t]++
			}
		}
	}

	m := &Model{NumTopics: k, TopicWord: make([][]float64, k), DocTopic: make([][]float64, len(corpus))}
	for t := 0; t < k; t++ {
		m.TopicWord[t] = make([]float64, vocabSize)
		denom := float64(nK[t]) + vBeta
		for w := 0; w < vocabSize; w++ {
			m.TopicWord[t][w] = (float64(nKW[t][w]) + beta) / denom
		}
	}
	kAlpha := float64(k) * alpha
	for d := range corpus {
		m.DocTopic[d] = make([]float64, k)
		denom := float64(len(words[d])) + kAlpha
		for t := 0; t < k; t++ {
			m.DocTopic[d][t] = (float64(nDK[d][t]) + alpha) / denom
		}
	}
	return m, nil
}

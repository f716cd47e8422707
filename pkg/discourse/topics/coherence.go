package topics

import (
	"errors"
	"fmt"

	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/internalerr"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/pmi"
)

// Coherence measures.
const (
	MeasureNPMI  = "c_npmi"
	MeasureUMass = "u_mass"
)

// ErrInsufficientData is returned when coherence cannot be estimated.
var ErrInsufficientData = errors.New("insufficient data for coherence")

// Coherence scores topics, each given as its top terms in rank order,
// against the co-occurrence statistics of texts. The result is the mean
// over topics of the mean pairwise score.
func Coherence(measure string, topics [][]string, texts [][]string) (float64, error) {
	switch measure {
	case "", MeasureNPMI, MeasureUMass:
	default:
		return 0, fmt.Errorf("%w: coherence measure %q", internalerr.ErrInvalidConfig, measure)
	}
	if len(texts) == 0 {
		return 0, fmt.Errorf("%w: no texts", ErrInsufficientData)
	}

	var watch []string
	for _, terms := range topics {
		watch = append(watch, terms...)
	}
	counter := pmi.NewWatchCounter(watch)
	for _, text := range texts {
		counter.AddDocument(text)
	}
	calc := pmi.NewCalculator(pmi.DefaultEpsilon)

	var sum float64
	var scored int
	for _, terms := range topics {
		if len(terms) < 2 {
			continue
		}
		var topicSum float64
		var pairs int
		for i := 1; i < len(terms); i++ {
			for j := 0; j < i; j++ {
				a, b := terms[i], terms[j]
				nAB := counter.GetPairCount(a, b)
				if measure == MeasureUMass {
					topicSum += calc.UMass(nAB, counter.GetTokenCount(b))
				} else {
					topicSum += calc.NPMI(nAB, counter.GetTokenCount(a), counter.GetTokenCount(b), counter.TotalDocs())
				}
				pairs++
			}
		}
		sum += topicSum / float64(pairs)
		scored++
	}
	if scored == 0 {
		return 0, fmt.Errorf("%w: no topic has two terms", ErrInsufficientData)
	}
	return sum / float64(scored), nil
}

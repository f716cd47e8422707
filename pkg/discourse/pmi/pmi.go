package pmi

import "math"

// Calculator handles PMI (Pointwise Mutual Information) calculations
type Calculator struct {
	epsilon float64 // smoothing constant
}

// DefaultEpsilon is the probability smoothing used for NPMI coherence.
const DefaultEpsilon = 1e-12

// NewCalculator creates a new PMI calculator with the given epsilon
func NewCalculator(epsilon float64) *Calculator {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	return &Calculator{epsilon: epsilon}
}

// PMI calculates the pointwise mutual information between two tokens
//
// PMI(a,b) = log((P(a,b) + ε) / (P(a) P(b)))
//
// Where probabilities are document frequencies divided by N.
func (c *Calculator) PMI(nAB, nA, nB, N int64) float64 {
	if N == 0 || nA == 0 || nB == 0 {
		return 0
	}
	n := float64(N)
	pAB := float64(nAB) / n
	pA := float64(nA) / n
	pB := float64(nB) / n
	return math.Log((pAB + c.epsilon) / (pA * pB))
}

// NPMI calculates normalized PMI (range: -1 to 1)
// NPMI(a,b) = PMI(a,b) / -log(P(a,b) + ε)
func (c *Calculator) NPMI(nAB, nA, nB, N int64) float64 {
	if N == 0 || nA == 0 || nB == 0 {
		return 0
	}
	pAB := float64(nAB) / float64(N)
	if pAB >= 1 {
		// a and b occur in every document
		return 1
	}
	denom := -math.Log(pAB + c.epsilon)
	v := c.PMI(nAB, nA, nB, N) / denom
	return math.Max(-1, math.Min(1, v))
}

// UMass returns log((D(a,b) + 1) / D(b)), the asymmetric document
// co-occurrence score where b is the conditioning (higher ranked) word.
func (c *Calculator) UMass(nAB, nB int64) float64 {
	if nB == 0 {
		return 0
	}
	return math.Log((float64(nAB) + 1) / float64(nB))
}

package pmi

import "sort"

// Counter maintains document co-occurrence counts for coherence scoring.
type Counter struct {
	N     int64               // total number of documents
	Nx    map[string]int64    // document frequency per token
	Nxy   map[TokenPair]int64 // co-occurrence count per token pair
	watch map[string]struct{} // nil counts every token
}

// TokenPair represents an ordered pair of tokens (t1 < t2)
type TokenPair struct {
	T1, T2 string
}

// NewCounter creates a new co-occurrence counter
func NewCounter() *Counter {
	return &Counter{
		Nx:  make(map[string]int64),
		Nxy: make(map[TokenPair]int64),
	}
}

// NewWatchCounter counts only the given tokens. Topic coherence needs
// statistics for a few top terms per topic, not the whole vocabulary.
func NewWatchCounter(tokens []string) *Counter {
	c := NewCounter()
	c.watch = make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		c.watch[t] = struct{}{}
	}
	return c
}

// AddDocument updates counts for a document. Tokens are deduplicated, so
// a document contributes at most once per token and pair.
func (c *Counter) AddDocument(tokens []string) {
	c.N++

	seen := make(map[string]struct{}, len(tokens))
	uniq := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if c.watch != nil {
			if _, ok := c.watch[t]; !ok {
				continue
			}
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		uniq = append(uniq, t)
	}

	for _, t := range uniq {
		c.Nx[t]++
	}

	sort.Strings(uniq)
	for i := 0; i < len(uniq); i++ {
		for j := i + 1; j < len(uniq); j++ {
			c.Nxy[TokenPair{T1: uniq[i], T2: uniq[j]}]++
		}
	}
}

// GetPairCount returns the co-occurrence count for a token pair
func (c *Counter) GetPairCount(t1, t2 string) int64 {
	if t1 > t2 {
		t1, t2 = t2, t1
	}
	return c.Nxy[TokenPair{T1: t1, T2: t2}]
}

// GetTokenCount returns the document frequency for a token
func (c *Counter) GetTokenCount(t string) int64 {
	return c.Nx[t]
}

// TotalDocs returns the total number of documents processed
func (c *Counter) TotalDocs() int64 {
	return c.N
}

// UniqueTokens returns the number of unique tokens
func (c *Counter) UniqueTokens() int {
	return len(c.Nx)
}

// UniquePairs returns the number of unique token pairs
func (c *Counter) UniquePairs() int {
	return len(c.Nxy)
}

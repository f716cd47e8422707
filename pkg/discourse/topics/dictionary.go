package topics

import (
	"sort"
)

// Term is one entry of a bag-of-tokens vector.
type Term struct {
	ID    int
	Count int
}

// Dictionary maps tokens to dense integer ids and tracks document frequency.
type Dictionary struct {
	token2id map[string]int
	id2token []string
	dfs      []int
	numDocs  int
}

// NewDictionary builds a dictionary over tokenized texts. Ids follow first
// appearance.
func NewDictionary(texts [][]string) *Dictionary {
	d := &Dictionary{token2id: make(map[string]int)}
	for _, text := range texts {
		d.AddDocument(text)
	}
	return d
}

// AddDocument folds one tokenized text into the dictionary.
func (d *Dictionary) AddDocument(tokens []string) {
	d.numDocs++
	seen := make(map[int]struct{}, len(tokens))
	for _, tok := range tokens {
		id, ok := d.token2id[tok]
		if !ok {
			id = len(d.id2token)
			d.token2id[tok] = id
			d.id2token = append(d.id2token, tok)
			d.dfs = append(d.dfs, 0)
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		d.dfs[id]++
	}
}

// Len returns the vocabulary size.
func (d *Dictionary) Len() int { return len(d.id2token) }

// NumDocs returns the number of documents folded in.
func (d *Dictionary) NumDocs() int { return d.numDocs }

// ID returns the id of tok.
func (d *Dictionary) ID(tok string) (int, bool) {
	id, ok := d.token2id[tok]
	return id, ok
}

// Token returns the token with the given id.
func (d *Dictionary) Token(id int) string {
	if d == nil || id < 0 || id >= len(d.id2token) {
		return ""
	}
	return d.id2token[id]
}

// DocFreq returns the number of documents containing tok.
func (d *Dictionary) DocFreq(tok string) int {
	id, ok := d.token2id[tok]
	if !ok {
		return 0
	}
	return d.dfs[id]
}

// FilterExtremes removes tokens found in fewer than noBelow documents or in
// more than noAbove (a fraction) of documents. If keepN > 0 only the keepN
// most frequent remaining tokens are kept. Ids are reassigned compactly in
// their previous relative order.
func (d *Dictionary) FilterExtremes(noBelow int, noAbove float64, keepN int) {
	maxDF := int(noAbove * float64(d.numDocs))

	var keep []int
	for id, df := range d.dfs {
		if df < noBelow || df > maxDF {
			continue
		}
		keep = append(keep, id)
	}

	if keepN > 0 && len(keep) > keepN {
		sort.SliceStable(keep, func(i, j int) bool { return d.dfs[keep[i]] > d.dfs[keep[j]] })
		keep = keep[:keepN]
		sort.Ints(keep)
	}

	token2id := make(map[string]int, len(keep))
	id2token := make([]string, 0, len(keep))
	dfs := make([]int, 0, len(keep))
	for _, old := range keep {
		tok := d.id2token[old]
		token2id[tok] = len(id2token)
		id2token = append(id2token, tok)
		dfs = append(dfs, d.dfs[old])
	}
	d.token2id, d.id2token, d.dfs = token2id, id2token, dfs
}

// Doc2Bow converts tokens to a sparse count vector sorted by id. Unknown
// tokens are ignored.
func (d *Dictionary) Doc2Bow(tokens []string) []Term {
	counts := make(map[int]int)
	for _, tok := range tokens {
		if id, ok := d.token2id[tok]; ok {
			counts[id]++
		}
	}
	bow := make([]Term, 0, len(counts))
	for id, n := range counts {
		bow = append(bow, Term{ID: id, Count: n})
	}
	sort.Slice(bow, func(i, j int) bool { return bow[i].ID < bow[j].ID })
	return bow
}

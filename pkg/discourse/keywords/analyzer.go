package keywords

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/internalerr"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/store"
)

// DefaultTopN is the size of the global document ranking.
const DefaultTopN = 10

// DateRange is an inclusive publication-date filter. A zero bound is open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Bounded reports whether either bound is set.
func (r DateRange) Bounded() bool {
	return !r.From.IsZero() || !r.To.IsZero()
}

// Contains reports whether doc passes the filter. Undated documents pass
// only an unbounded range.
func (r DateRange) Contains(doc store.Document) bool {
	if !r.Bounded() {
		return true
	}
	if !doc.HasDate() {
		return false
	}
	if !r.From.IsZero() && doc.Date.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && doc.Date.After(r.To) {
		return false
	}
	return true
}

// Validate rejects inverted ranges.
func (r DateRange) Validate() error {
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return fmt.Errorf("%w: date range ends before it starts", internalerr.ErrInvalidConfig)
	}
	return nil
}

// SummaryRow is the per-keyword aggregate. TopYear is zero when no dated
// document mentions the keyword.
type SummaryRow struct {
	Keyword             string
	Total               int
	TopDocumentURL      string
	TopDocumentTitle    string
	TopDocumentMentions int
	TopYear             int
	TopYearMentions     int
}

// DocumentHits is one entry of the global document ranking.
type DocumentHits struct {
	URL   string
	Title string
	Date  time.Time
	Hits  int
}

type docRef struct {
	url   string
	title string
	date  time.Time
}

type keywordState struct {
	total    int
	docHits  map[string]int
	docOrder []string
	yearHits map[int]int
	years    []int
}

// Analyzer aggregates literal keyword occurrences document by document.
type Analyzer struct {
	keywords []string
	rng      DateRange
	state    map[string]*keywordState
	docs     map[string]docRef
	overall  map[string]int
	order    []string // documents with at least one hit, first-seen order
	included int
	excluded int
}

// NewAnalyzer creates an analyzer for keywords. Duplicate and empty
// keywords are dropped.
func NewAnalyzer(keywords []string, rng DateRange) *Analyzer {
	a := &Analyzer{
		rng:     rng,
		state:   make(map[string]*keywordState),
		docs:    make(map[string]docRef),
		overall: make(map[string]int),
	}
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if _, ok := a.state[kw]; ok {
			continue
		}
		a.keywords = append(a.keywords, kw)
		a.state[kw] = &keywordState{
			docHits:  make(map[string]int),
			yearHits: make(map[int]int),
		}
	}
	return a
}

// Process consumes one document. It reports whether the document passed
// the date filter.
func (a *Analyzer) Process(doc store.Document) bool {
	if !a.rng.Contains(doc) {
		a.excluded++
		return false
	}
	a.included++

	for _, kw := range a.keywords {
		n := strings.Count(doc.Content, kw)
		if n == 0 {
			continue
		}
		st := a.state[kw]
		st.total += n

		if _, ok := st.docHits[doc.URL]; !ok {
			st.docOrder = append(st.docOrder, doc.URL)
		}
		st.docHits[doc.URL] += n

		if doc.HasDate() {
			y := doc.Date.Year()
			if _, ok := st.yearHits[y]; !ok {
				st.years = append(st.years, y)
			}
			st.yearHits[y] += n
		}

		if _, ok := a.overall[doc.URL]; !ok {
			a.order = append(a.order, doc.URL)
			a.docs[doc.URL] = docRef{url: doc.URL, title: doc.Title, date: doc.Date}
		}
		a.overall[doc.URL] += n
	}
	return true
}

// Stats is a point-in-time view of the aggregation.
type Stats struct {
	Included int
	Excluded int
	Rows     []SummaryRow // keyword order
	docs     []DocumentHits
}

// Snapshot returns the accumulated statistics.
func (a *Analyzer) Snapshot() Stats {
	s := Stats{
		Included: a.included,
		Excluded: a.excluded,
		Rows:     make([]SummaryRow, 0, len(a.keywords)),
	}
	for _, kw := range a.keywords {
		st := a.state[kw]
		row := SummaryRow{Keyword: kw, Total: st.total}

		for _, u := range st.docOrder {
			if n := st.docHits[u]; n > row.TopDocumentMentions {
				row.TopDocumentMentions = n
				row.TopDocumentURL = u
				row.TopDocumentTitle = a.docs[u].title
			}
		}
		for _, y := range st.years {
			if n := st.yearHits[y]; n > row.TopYearMentions {
				row.TopYearMentions = n
				row.TopYear = y
			}
		}
		s.Rows = append(s.Rows, row)
	}

	s.docs = make([]DocumentHits, 0, len(a.order))
	for _, u := range a.order {
		ref := a.docs[u]
		s.docs = append(s.docs, DocumentHits{URL: u, Title: ref.title, Date: ref.date, Hits: a.overall[u]})
	}
	return s
}

// Sorted returns the summary ordered by total mentions, highest first.
// Keywords with equal totals keep their configured order.
func (s Stats) Sorted() []SummaryRow {
	out := append([]SummaryRow(nil), s.Rows...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}

// TopDocuments ranks documents by hits summed over all keywords. Ties keep
// first-seen order. n <= 0 returns every document with a hit.
func (s Stats) TopDocuments(n int) []DocumentHits {
	out := append([]DocumentHits(nil), s.docs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Hits > out[j].Hits })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Result bundles the two outputs of a keyword analysis.
type Result struct {
	Summary      []SummaryRow
	TopDocuments []DocumentHits
	Included     int
	Excluded     int
}

// Analyze runs a full keyword analysis over docs in stored order.
func Analyze(docs []store.Document, keywords []string, rng DateRange, topN int) (Result, error) {
	if err := rng.Validate(); err != nil {
		return Result{}, err
	}
	a := NewAnalyzer(keywords, rng)
	if len(a.keywords) == 0 {
		return Result{}, fmt.Errorf("%w: no keywords", internalerr.ErrInvalidInput)
	}
	for _, d := range docs {
		a.Process(d)
	}
	if topN == 0 {
		topN = DefaultTopN
	}
	s := a.Snapshot()
	return Result{
		Summary:      s.Sorted(),
		TopDocuments: s.TopDocuments(topN),
		Included:     s.Included,
		Excluded:     s.Excluded,
	}, nil
}

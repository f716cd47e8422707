package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"
)

// Store is the Corpus Store: resumable, append-only persistence of fetched
// documents keyed by URL, plus the discovered-link list.
//
// Membership never shrinks: Append ignores URLs already present and no
// method removes documents.
type Store interface {
	Close() error

	// Load returns the persisted corpus in stored (discovery) order.
	Load(ctx context.Context) ([]Document, error)
	// Append adds doc unless its URL is already known. It reports whether
	// the document was added.
	Append(ctx context.Context, doc Document) (bool, error)
	// Snapshot persists the current corpus. A partial snapshot is an
	// intermediate artifact; the full snapshot is authoritative for Load.
	Snapshot(ctx context.Context, partial bool) error

	// SaveLinks persists the discovered-link list.
	SaveLinks(ctx context.Context, urls []string) error
	// LoadLinks returns the last persisted link list.
	LoadLinks(ctx context.Context) ([]string, error)
}

// Document is one harvested speech. Content holds the normalized text and is
// written once, before the document is appended.
type Document struct {
	URL        string
	Title      string
	Date       time.Time // zero when no date could be recovered
	RawContent string
	Content    string
}

// HasDate reports whether the document carries a publication date.
func (d Document) HasDate() bool { return !d.Date.IsZero() }

// Record is the JSON shape of a persisted document.
type Record struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	Date       string `json:"date"`
	RawContent string `json:"raw_content,omitempty"`
	Content    string `json:"content"`
}

// DateLayout is the layout used for persisted dates.
const DateLayout = "2006-01-02"

// ToRecord converts a document to its persisted form.
func (d Document) ToRecord() Record {
	r := Record{
		URL:        d.URL,
		Title:      d.Title,
		RawContent: d.RawContent,
		Content:    d.Content,
	}
	if d.HasDate() {
		r.Date = d.Date.Format(DateLayout)
	}
	return r
}

// ToDocument converts a persisted record back to a document. An unparsable
// date yields a document without a date rather than an error.
func (r Record) ToDocument() Document {
	d := Document{
		URL:        r.URL,
		Title:      r.Title,
		RawContent: r.RawContent,
		Content:    r.Content,
	}
	if r.Date != "" {
		if t, err := ParseDate(r.Date); err == nil {
			d.Date = t
		}
	}
	return d
}

// ErrMalformedDate marks a date-shaped string that is not a real calendar date.
var ErrMalformedDate = errors.New("malformed date")

// DatePattern matches year-month-day in CJK (2021年3月5日) or hyphenated
// (2021-03-05) form, including mixtures of the two separators.
var DatePattern = regexp.MustCompile(`(\d{4}[年\-]\d{1,2}[月\-]\d{1,2}日?)`)

var dateParts = regexp.MustCompile(`^(\d{4})[年\-](\d{1,2})[月\-](\d{1,2})日?$`)

// ParseDate parses a string matched by DatePattern.
func ParseDate(s string) (time.Time, error) {
	m := dateParts.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
	}
	return t, nil
}

// URLSet is a set of canonical URLs.
type URLSet map[string]struct{}

// NewURLSet builds a set from urls.
func NewURLSet(urls ...string) URLSet {
	s := make(URLSet, len(urls))
	for _, u := range urls {
		s.Add(u)
	}
	return s
}

// KnownURLs returns the URL set of docs.
func KnownURLs(docs []Document) URLSet {
	s := make(URLSet, len(docs))
	for _, d := range docs {
		s.Add(d.URL)
	}
	return s
}

// Add inserts u and reports whether it was new.
func (s URLSet) Add(u string) bool {
	if u == "" {
		return false
	}
	if _, ok := s[u]; ok {
		return false
	}
	s[u] = struct{}{}
	return true
}

// Has reports membership.
func (s URLSet) Has(u string) bool {
	_, ok := s[u]
	return ok
}

// Sorted returns the members in lexical order.
func (s URLSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for u := range s {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// Difference returns the members of s absent from other, sorted. This is
// the work queue of a resumed crawl: discovered minus known.
func (s URLSet) Difference(other URLSet) []string {
	out := make([]string, 0, len(s))
	for u := range s {
		if !other.Has(u) {
			out = append(out, u)
		}
	}
	sort.Strings(out)
	return out
}

// IsSupersetOf reports whether every member of other is in s.
func (s URLSet) IsSupersetOf(other URLSet) bool {
	for u := range other {
		if !s.Has(u) {
			return false
		}
	}
	return true
}

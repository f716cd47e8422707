package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/internalerr"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/store"
)

// SnapshotKind names a recorded snapshot.
type SnapshotKind string

const (
	Partial SnapshotKind = "partial"
	Full    SnapshotKind = "full"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu        sync.RWMutex
	docs      []store.Document
	urlIndex  map[string]int
	links     map[string]struct{}
	snapshots []SnapshotKind
	saved     []store.Document // corpus as of the last full snapshot

	// FailAppendAfter makes Append fail once this many documents have been
	// added. Zero disables the failure.
	FailAppendAfter int
}

// New creates a new in-memory store seeded with docs.
func New(docs ...store.Document) *Store {
	s := &Store{
		urlIndex: make(map[string]int),
		links:    make(map[string]struct{}),
	}
	for _, d := range docs {
		if _, ok := s.urlIndex[d.URL]; ok || d.URL == "" {
			continue
		}
		s.urlIndex[d.URL] = len(s.docs)
		s.docs = append(s.docs, d)
	}
	s.saved = append([]store.Document(nil), s.docs...)
	return s
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// Load implements store.Store.
func (s *Store) Load(ctx context.Context) ([]store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]store.Document(nil), s.docs...), nil
}

// Append implements store.Store.
func (s *Store) Append(ctx context.Context, doc store.Document) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.URL == "" {
		return false, fmt.Errorf("%w: document without URL", internalerr.ErrInvalidInput)
	}
	if _, ok := s.urlIndex[doc.URL]; ok {
		return false, nil
	}
	if s.FailAppendAfter > 0 && len(s.docs) >= s.FailAppendAfter {
		return false, fmt.Errorf("%w: injected append failure", internalerr.ErrStoreUnavailable)
	}
	s.urlIndex[doc.URL] = len(s.docs)
	s.docs = append(s.docs, doc)
	return true, nil
}

// Snapshot implements store.Store and records the call order.
func (s *Store) Snapshot(ctx context.Context, partial bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if partial {
		s.snapshots = append(s.snapshots, Partial)
		return nil
	}
	s.snapshots = append(s.snapshots, Full)
	s.saved = append([]store.Document(nil), s.docs...)
	return nil
}

// SaveLinks implements store.Store.
func (s *Store) SaveLinks(ctx context.Context, urls []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range urls {
		if u != "" {
			s.links[u] = struct{}{}
		}
	}
	return nil
}

// LoadLinks implements store.Store.
func (s *Store) LoadLinks(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.links))
	for u := range s.links {
		out = append(out, u)
	}
	sort.Strings(out)
	return out, nil
}

// Snapshots returns the snapshot kinds in call order.
func (s *Store) Snapshots() []SnapshotKind {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]SnapshotKind(nil), s.snapshots...)
}

// Saved returns the corpus captured by the last full snapshot.
func (s *Store) Saved() []store.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]store.Document(nil), s.saved...)
}

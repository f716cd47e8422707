// Package jsonstore persists the corpus as three JSON artifacts in one
// directory: the discovered-link list, a partial corpus snapshot and the
// authoritative full snapshot.
package jsonstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/neopian-sys/DiscourseAnalyses/internal/atomicfile"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/internalerr"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/store"
)

// Default artifact names.
const (
	LinksFile   = "links.json"
	PartialFile = "raw_speeches_partial.json"
	FullFile    = "raw_speeches.json"
)

// Store implements store.Store on JSON files.
type Store struct {
	dir string

	mu     sync.Mutex
	loaded bool
	docs   []store.Document
	known  store.URLSet
}

var _ store.Store = (*Store)(nil)

// Open prepares dir (creating it if needed). Nothing is read until Load,
// Append or Snapshot is first called.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty output directory", internalerr.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", internalerr.ErrStoreUnavailable, dir, err)
	}
	return &Store{dir: dir, known: store.URLSet{}}, nil
}

// Dir returns the artifact directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the full path of an artifact name.
func (s *Store) Path(name string) string { return filepath.Join(s.dir, name) }

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// Load reads the full snapshot. A missing file is an empty corpus. Records
// repeating an earlier URL are dropped so the URL-uniqueness invariant holds
// even for hand-edited files.
func (s *Store) Load(ctx context.Context) ([]store.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return nil, err
	}
	return copyDocs(s.docs), nil
}

func (s *Store) loadLocked() error {
	if s.loaded {
		return nil
	}
	var records []store.Record
	found, err := readJSON(s.Path(FullFile), &records)
	if err != nil {
		return err
	}
	s.docs = s.docs[:0]
	s.known = store.URLSet{}
	if found {
		for _, r := range records {
			if !s.known.Add(r.URL) {
				continue
			}
			s.docs = append(s.docs, r.ToDocument())
		}
	}
	s.loaded = true
	return nil
}

// Append implements store.Store.
func (s *Store) Append(ctx context.Context, doc store.Document) (bool, error) {
	if doc.URL == "" {
		return false, fmt.Errorf("%w: document without URL", internalerr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return false, err
	}
	if !s.known.Add(doc.URL) {
		return false, nil
	}
	s.docs = append(s.docs, doc)
	return true, nil
}

// Snapshot writes the corpus to the partial or full artifact.
func (s *Store) Snapshot(ctx context.Context, partial bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return err
	}
	records := make([]store.Record, len(s.docs))
	for i, d := range s.docs {
		records[i] = d.ToRecord()
	}
	name := FullFile
	if partial {
		name = PartialFile
	}
	return writeJSON(s.Path(name), records)
}

// SaveLinks implements store.Store. Links are written sorted.
func (s *Store) SaveLinks(ctx context.Context, urls []string) error {
	sorted := append([]string(nil), urls...)
	sort.Strings(sorted)
	return writeJSON(s.Path(LinksFile), sorted)
}

// LoadLinks implements store.Store.
func (s *Store) LoadLinks(ctx context.Context) ([]string, error) {
	var links []string
	if _, err := readJSON(s.Path(LinksFile), &links); err != nil {
		return nil, err
	}
	return links, nil
}

// readJSON decodes path into v. It reports false without error when the file
// does not exist.
func readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: read %s: %v", internalerr.ErrStoreUnavailable, path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("%w: decode %s: %v", internalerr.ErrStoreUnavailable, path, err)
	}
	return true, nil
}

// writeJSON replaces path with the encoded v so a crash never leaves a
// truncated artifact behind.
func writeJSON(path string, v any) error {
	err := atomicfile.WriteFile(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}
	return nil
}

func copyDocs(in []store.Document) []store.Document {
	out := make([]store.Document, len(in))
	copy(out, in)
	return out
}

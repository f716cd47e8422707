package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/internalerr"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/store"
)

// TestSQLiteIntegrationAppend tests insertion order and URL uniqueness
func TestSQLiteIntegrationAppend(t *testing.T) {
	ctx := context.Background()
	st, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer st.Close()

	for i := 3; i >= 1; i-- {
		doc := store.Document{
			URL:     fmt.Sprintf("https://example.com/article/%d", i),
			Title:   fmt.Sprintf("Doc %d", i),
			Content: "内容",
		}
		added, err := st.Append(ctx, doc)
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		if !added {
			t.Errorf("Append(%s) should add", doc.URL)
		}
	}

	added, err := st.Append(ctx, store.Document{URL: "https://example.com/article/2", Title: "changed"})
	if err != nil {
		t.Fatalf("duplicate Append: %v", err)
	}
	if added {
		t.Error("duplicate URL should be ignored")
	}

	docs, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	var titles []string
	for _, d := range docs {
		titles = append(titles, d.Title)
	}
	want := []string{"Doc 3", "Doc 2", "Doc 1"}
	if !reflect.DeepEqual(titles, want) {
		t.Errorf("titles = %v, want %v (insertion order, original kept)", titles, want)
	}
}

// TestSQLiteIntegrationSnapshots tests both checkpoint modes
func TestSQLiteIntegrationSnapshots(t *testing.T) {
	ctx := context.Background()
	st, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer st.Close()

	if _, err := st.Append(ctx, store.Document{URL: "u", Content: "c"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := st.Snapshot(ctx, true); err != nil {
		t.Errorf("partial snapshot: %v", err)
	}
	if err := st.Snapshot(ctx, false); err != nil {
		t.Errorf("full snapshot: %v", err)
	}
}

// TestSQLiteIntegrationLinksAccumulate tests that links are never dropped
func TestSQLiteIntegrationLinksAccumulate(t *testing.T) {
	ctx := context.Background()
	st, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer st.Close()

	if err := st.SaveLinks(ctx, []string{"https://b", "https://a"}); err != nil {
		t.Fatalf("SaveLinks: %v", err)
	}
	if err := st.SaveLinks(ctx, []string{"https://c", "https://a", ""}); err != nil {
		t.Fatalf("SaveLinks: %v", err)
	}
	links, err := st.LoadLinks(ctx)
	if err != nil {
		t.Fatalf("LoadLinks: %v", err)
	}
	want := []string{"https://a", "https://b", "https://c"}
	if !reflect.DeepEqual(links, want) {
		t.Errorf("links = %v, want %v", links, want)
	}
}

// TestSQLiteIntegrationRejectsEmptyURL tests input validation
func TestSQLiteIntegrationRejectsEmptyURL(t *testing.T) {
	ctx := context.Background()
	st, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer st.Close()

	if _, err := st.Append(ctx, store.Document{}); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

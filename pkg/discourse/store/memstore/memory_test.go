package memstore

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/internalerr"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/store"
)

func TestAppendIgnoresKnownURL(t *testing.T) {
	ctx := context.Background()
	s := New(store.Document{URL: "a", Title: "first"})

	added, err := s.Append(ctx, store.Document{URL: "a", Title: "second"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if added {
		t.Fatal("known URL should not be added")
	}
	added, _ = s.Append(ctx, store.Document{URL: "b"})
	if !added {
		t.Fatal("new URL should be added")
	}

	docs, _ := s.Load(ctx)
	if len(docs) != 2 || docs[0].Title != "first" || docs[1].URL != "b" {
		t.Fatalf("unexpected docs %+v", docs)
	}
}

func TestSnapshotOrderAndSaved(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Append(ctx, store.Document{URL: "a"})
	s.Snapshot(ctx, true)
	if len(s.Saved()) != 0 {
		t.Fatal("partial snapshot must not update the saved corpus")
	}
	s.Snapshot(ctx, false)

	want := []SnapshotKind{Partial, Full}
	if got := s.Snapshots(); !reflect.DeepEqual(got, want) {
		t.Fatalf("snapshots = %v, want %v", got, want)
	}
	if len(s.Saved()) != 1 {
		t.Fatal("full snapshot should capture the corpus")
	}
}

func TestFailAppendAfter(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.FailAppendAfter = 1
	if _, err := s.Append(ctx, store.Document{URL: "a"}); err != nil {
		t.Fatalf("first append: %v", err)
	}
	_, err := s.Append(ctx, store.Document{URL: "b"})
	if !errors.Is(err, internalerr.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestLinksSortedAndAccumulated(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.SaveLinks(ctx, []string{"c", "a"})
	s.SaveLinks(ctx, []string{"b", "a"})
	got, _ := s.LoadLinks(ctx)
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("links = %v, want %v", got, want)
	}
}

package stoplist

import (
	"reflect"
	"testing"
)

func TestManagerBasics(t *testing.T) {
	m := NewManager([]string{"的", "了", ""})

	if m.Len() != 2 {
		t.Fatalf("expected 2 stopwords, got %d", m.Len())
	}
	if !m.IsStop("的") {
		t.Error("的 should be a stopword")
	}
	if m.IsStop("发展") {
		t.Error("发展 should not be a stopword")
	}
}

func TestManagerIgnoresEmptyToken(t *testing.T) {
	m := NewManager([]string{"", ""})
	if m.Len() != 0 || m.IsStop("") {
		t.Error("empty tokens must not become stopwords")
	}
}

func TestManagerFilter(t *testing.T) {
	m := NewManager([]string{"的", "是"})

	in := []string{"发展", "的", "是", "人民", "的"}
	got := m.Filter(in)
	want := []string{"发展", "人民"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Filter = %v, want %v", got, want)
	}
	if len(in) != 5 {
		t.Error("Filter must not modify its input")
	}

	var nilManager *Manager
	if got := nilManager.Filter(in); len(got) != len(in) {
		t.Errorf("nil manager should keep all tokens, got %v", got)
	}
}

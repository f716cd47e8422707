package topics

import (
	"reflect"
	"testing"
)

func TestDictionaryDocFreq(t *testing.T) {
	d := NewDictionary([][]string{
		{"改革", "改革", "开放"},
		{"开放", "发展"},
	})
	if d.NumDocs() != 2 || d.Len() != 3 {
		t.Fatalf("docs=%d len=%d", d.NumDocs(), d.Len())
	}
	if d.DocFreq("改革") != 1 || d.DocFreq("开放") != 2 {
		t.Errorf("unexpected document frequencies")
	}
	if id, _ := d.ID("发展"); d.Token(id) != "发展" {
		t.Errorf("id/token mapping broken")
	}
}

func TestFilterExtremesPrunesRareAndCommon(t *testing.T) {
	var texts [][]string
	for i := 0; i < 10; i++ {
		text := []string{"common"}
		if i < 6 {
			text = append(text, "frequent")
		}
		if i < 5 {
			text = append(text, "half")
		}
		if i < 4 {
			text = append(text, "rare")
		}
		texts = append(texts, text)
	}
	d := NewDictionary(texts)
	d.FilterExtremes(5, 0.5, 0)

	if _, ok := d.ID("rare"); ok {
		t.Error("term below no_below must be pruned")
	}
	if _, ok := d.ID("common"); ok {
		t.Error("term above no_above must be pruned")
	}
	if _, ok := d.ID("frequent"); ok {
		t.Error("term in 60% of documents must be pruned at no_above=0.5")
	}
	if id, ok := d.ID("half"); !ok || id != 0 {
		t.Errorf("half should survive with id 0, got %d %v", id, ok)
	}
	if d.Len() != 1 {
		t.Errorf("len = %d, want 1", d.Len())
	}
}

func TestFilterExtremesKeepN(t *testing.T) {
	d := NewDictionary([][]string{
		{"a", "b", "c"},
		{"b", "c"},
		{"c"},
	})
	d.FilterExtremes(1, 1, 2)

	if d.Len() != 2 {
		t.Fatalf("len = %d, want 2", d.Len())
	}
	if _, ok := d.ID("a"); ok {
		t.Error("least frequent term should be dropped by keep_n")
	}
	// relative order preserved
	if d.Token(0) != "b" || d.Token(1) != "c" {
		t.Errorf("tokens = %q %q", d.Token(0), d.Token(1))
	}
}

func TestDoc2Bow(t *testing.T) {
	d := NewDictionary([][]string{{"a", "b", "c"}})
	got := d.Doc2Bow([]string{"c", "a", "c", "unknown"})
	want := []Term{{ID: 0, Count: 1}, {ID: 2, Count: 2}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("bow = %v, want %v", got, want)
	}
}

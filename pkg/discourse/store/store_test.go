package store

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{input: "2021年3月5日", want: time.Date(2021, 3, 5, 0, 0, 0, 0, time.UTC)},
		{input: "2021年03月05", want: time.Date(2021, 3, 5, 0, 0, 0, 0, time.UTC)},
		{input: "2020-12-31", want: time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC)},
		{input: "2020-1-2", want: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)},
		{input: "2020年13月1日", wantErr: true},
		{input: "2021-02-30", wantErr: true},
		{input: "March 5 2021", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrMalformedDate) {
				t.Errorf("ParseDate(%q) error = %v, want ErrMalformedDate", tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDate(%q): %v", tt.input, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestDatePatternFindsEmbeddedDate(t *testing.T) {
	text := "来源：人民日报\n2022年10月16日 09:00\n正文"
	if got := DatePattern.FindString(text); got != "2022年10月16日" {
		t.Errorf("FindString = %q", got)
	}
}

func TestRecordRoundTripKeepsNullDate(t *testing.T) {
	doc := Document{URL: "https://example.org/article/1", Title: "t", Content: "内容"}
	rec := doc.ToRecord()
	if rec.Date != "" {
		t.Errorf("null date should persist as empty string, got %q", rec.Date)
	}
	if back := rec.ToDocument(); back.HasDate() {
		t.Error("document without a date gained one")
	}

	legacy := Record{URL: "u", Date: "2019年5月4日", Content: "c"}
	if d := legacy.ToDocument(); !d.HasDate() || d.Date.Year() != 2019 {
		t.Errorf("legacy CJK date not parsed: %+v", d)
	}

	broken := Record{URL: "u", Date: "not a date"}
	if d := broken.ToDocument(); d.HasDate() {
		t.Error("unparsable date should yield a null date")
	}
}

func TestURLSetDifference(t *testing.T) {
	discovered := NewURLSet("c", "a", "b", "a")
	known := NewURLSet("b")

	got := discovered.Difference(known)
	want := []string{"a", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Difference = %v, want %v", got, want)
	}

	if len(discovered.Difference(discovered)) != 0 {
		t.Error("a set minus itself must be empty")
	}
	if discovered.Add("") {
		t.Error("empty URL must not be added")
	}
	if !discovered.IsSupersetOf(known) || known.IsSupersetOf(discovered) {
		t.Error("superset check is wrong")
	}
}

func TestKnownURLs(t *testing.T) {
	docs := []Document{{URL: "x"}, {URL: "y"}, {URL: "x"}}
	set := KnownURLs(docs)
	if len(set) != 2 || !set.Has("x") || !set.Has("y") {
		t.Errorf("KnownURLs = %v", set.Sorted())
	}
}

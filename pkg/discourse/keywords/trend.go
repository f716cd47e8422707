package keywords

import (
	"sort"
	"strings"

	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/store"
)

// TrendTable is a year × keyword frequency table over dated documents.
// Values[i][j] is the (possibly smoothed) count of Keywords[j] in Years[i].
type TrendTable struct {
	Years    []int
	Keywords []string
	Values   [][]float64
}

// Trend counts keyword occurrences per publication year. Undated documents
// are skipped. A window above 1 replaces each cell with the mean of the
// trailing window rows, using fewer rows at the start of the table.
func Trend(docs []store.Document, keywords []string, window int) TrendTable {
	counts := make(map[int][]float64)
	for _, d := range docs {
		if !d.HasDate() {
			continue
		}
		y := d.Date.Year()
		row, ok := counts[y]
		if !ok {
			row = make([]float64, len(keywords))
			counts[y] = row
		}
		for j, kw := range keywords {
			if kw == "" {
				continue
			}
			row[j] += float64(strings.Count(d.Content, kw))
		}
	}

	t := TrendTable{Keywords: append([]string(nil), keywords...)}
	for y := range counts {
		t.Years = append(t.Years, y)
	}
	sort.Ints(t.Years)
	for _, y := range t.Years {
		t.Values = append(t.Values, counts[y])
	}

	if window > 1 {
		t.Values = rolling(t.Values, window)
	}
	return t
}

func rolling(rows [][]float64, window int) [][]float64 {
	out := make([][]float64, len(rows))
	for i := range rows {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		out[i] = make([]float64, len(rows[i]))
		for j := range rows[i] {
			var sum float64
			for k := lo; k <= i; k++ {
				sum += rows[k][j]
			}
			out[i][j] = sum / float64(i-lo+1)
		}
	}
	return out
}

// Column returns the series for keyword, or nil if it is not in the table.
func (t TrendTable) Column(keyword string) []float64 {
	for j, kw := range t.Keywords {
		if kw != keyword {
			continue
		}
		col := make([]float64, len(t.Years))
		for i := range t.Years {
			col[i] = t.Values[i][j]
		}
		return col
	}
	return nil
}

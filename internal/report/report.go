// Package report writes derived outputs: keyword tables as CSV, the
// keyword summary as a workbook, the crawl failure report and topic
// listings as JSON.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/keywords"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/topics"
)

// File names inside the output directory.
const (
	SummaryFile      = "keyword_summary.csv"
	SummaryXLSXFile  = "keyword_summary.xlsx"
	TopDocumentsFile = "top_documents.csv"
	TrendFile        = "keyword_trend.csv"
	FailuresFile     = "failures.json"
	TopicsFile       = "topics.json"
)

// utf8BOM lets spreadsheet tools detect the encoding of CJK text.
const utf8BOM = "\ufeff"

var summaryHeader = []string{"Keyword", "Total Mentions", "Top Speech", "Top Speech URL", "Mentions in Top Speech", "Top Year", "Mentions in Top Year"}

// SummarySheet is the worksheet name used by WriteSummaryXLSX.
const SummarySheet = "Summary"

// WriteSummaryCSV writes the keyword summary table.
func WriteSummaryCSV(w io.Writer, rows []keywords.SummaryRow) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.Write(summaryHeader)
	for _, r := range rows {
		year := ""
		if r.TopYear != 0 {
			year = strconv.Itoa(r.TopYear)
		}
		cw.Write([]string{
			r.Keyword,
			strconv.Itoa(r.Total),
			r.TopDocumentTitle,
			r.TopDocumentURL,
			strconv.Itoa(r.TopDocumentMentions),
			year,
			strconv.Itoa(r.TopYearMentions),
		})
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummaryXLSX writes the keyword summary as a single-sheet workbook
// with the same columns as WriteSummaryCSV. Counts are numeric cells; a
// missing top year is left blank.
func WriteSummaryXLSX(w io.Writer, rows []keywords.SummaryRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	header := make([]any, len(summaryHeader))
	for i, h := range summaryHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(SummarySheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range rows {
		var year any
		if r.TopYear != 0 {
			year = r.TopYear
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{r.Keyword, r.Total, r.TopDocumentTitle, r.TopDocumentURL, r.TopDocumentMentions, year, r.TopYearMentions}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	return f.Write(w)
}

// WriteTopDocumentsCSV writes the global document ranking.
func WriteTopDocumentsCSV(w io.Writer, docs []keywords.DocumentHits) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.Write([]string{"Rank", "Title", "URL", "Date", "Mentions"})
	for i, d := range docs {
		date := ""
		if !d.Date.IsZero() {
			date = d.Date.Format("2006-01-02")
		}
		cw.Write([]string{strconv.Itoa(i + 1), d.Title, d.URL, date, strconv.Itoa(d.Hits)})
	}
	cw.Flush()
	return cw.Error()
}

// WriteTrendCSV writes a year × keyword table.
func WriteTrendCSV(w io.Writer, t keywords.TrendTable) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.Write(append([]string{"Year"}, t.Keywords...))
	for i, y := range t.Years {
		rec := []string{strconv.Itoa(y)}
		for _, v := range t.Values[i] {
			rec = append(rec, strconv.FormatFloat(v, 'f', -1, 64))
		}
		cw.Write(rec)
	}
	cw.Flush()
	return cw.Error()
}

// Failure is one skipped URL.
type Failure struct {
	URL      string `json:"url"`
	Kind     string `json:"kind"`
	Attempts int    `json:"attempts"`
	Status   int    `json:"status,omitempty"`
	Error    string `json:"error"`
}

// FailureReport lists every URL a crawl gave up on.
type FailureReport struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Failures   []Failure `json:"failures"`
}

// Topic is one topic's leading terms.
type Topic struct {
	ID    int                 `json:"id"`
	Terms []topics.TermWeight `json:"terms"`
}

// TopicsReport summarizes a trained topic model.
type TopicsReport struct {
	Documents      int      `json:"documents"`
	Dropped        int      `json:"dropped"`
	Vocabulary     int      `json:"vocabulary"`
	Measure        string   `json:"measure,omitempty"`
	Coherence      *float64 `json:"coherence"`
	CoherenceError string   `json:"coherence_error,omitempty"`
	Topics         []Topic  `json:"topics"`
}

// NewTopicsReport builds a report listing topN terms per topic.
func NewTopicsReport(res *topics.Result, measure string, topN int) TopicsReport {
	r := TopicsReport{
		Documents:  len(res.Corpus),
		Dropped:    res.Dropped,
		Vocabulary: res.Dictionary.Len(),
		Coherence:  res.Coherence,
	}
	if res.Coherence != nil || res.CoherenceErr != nil {
		r.Measure = measure
	}
	if res.CoherenceErr != nil {
		r.CoherenceError = res.CoherenceErr.Error()
	}
	for k := 0; k < res.Model.NumTopics; k++ {
		r.Topics = append(r.Topics, Topic{ID: k, Terms: res.Model.TopTerms(k, topN)})
	}
	return r
}

// WriteJSON encodes v with two-space indentation and unescaped CJK/HTML.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

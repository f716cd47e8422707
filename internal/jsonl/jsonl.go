// Package jsonl reads externally collected speeches, one JSON object per
// line, for import into a corpus.
package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/store"
)

// Item represents one imported speech
type Item struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Date    string `json:"date"`
	Content string `json:"content"`
	Text    string `json:"text"` // accepted when content is absent
}

// Document converts the item. The body becomes RawContent; normalization
// happens on import.
func (it Item) Document() store.Document {
	body := it.Content
	if body == "" {
		body = it.Text
	}
	d := store.Document{URL: strings.TrimSpace(it.URL), Title: it.Title, RawContent: body}
	if it.Date != "" {
		if m := store.DatePattern.FindString(it.Date); m != "" {
			if t, err := store.ParseDate(m); err == nil {
				d.Date = t
			}
		}
	}
	return d
}

// LoadFromJSONL loads items from a JSONL file with proper error handling
func LoadFromJSONL(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}
	defer f.Close()

	items, err := Read(f, slog.Default().With("file", path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}

// Read decodes items from r, skipping malformed lines and lines without a
// URL.
func Read(r io.Reader, logger *slog.Logger) ([]Item, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var items []Item
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var item Item
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			logger.Warn("skipping malformed line", "line", lineNo, "error", err)
			continue
		}
		if strings.TrimSpace(item.URL) == "" {
			logger.Warn("skipping line without url", "line", lineNo)
			continue
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read jsonl: %w", err)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("no valid items found")
	}
	return items, nil
}

// Documents converts items in order.
func Documents(items []Item) []store.Document {
	docs := make([]store.Document, len(items))
	for i, it := range items {
		docs[i] = it.Document()
	}
	return docs
}

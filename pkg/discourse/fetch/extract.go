package fetch

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/store"
)

// boilerplate marks the start of the editor credit and related-links
// footer that follows an article body.
var boilerplate = regexp.MustCompile(`责任编辑|编辑|相关链接`)

// Extraction is what an article page yields before normalization.
type Extraction struct {
	Title    string
	FullText string
	Content  string
	DateText string
	Date     time.Time
	DateErr  error // set when no usable date was found
}

// Extract parses an article page. The title is the first non-empty h1,
// then h2, then the document title, falling back to pageURL. Content is
// the text after the first occurrence of the title, cut at the first
// boilerplate marker.
func Extract(r io.Reader, pageURL string) (Extraction, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Extraction{}, fmt.Errorf("parse html: %w", err)
	}

	var ex Extraction
	for _, a := range []atom.Atom{atom.H1, atom.H2, atom.Title} {
		if n := findFirst(doc, a); n != nil {
			ex.Title = joinText(n, "")
			break
		}
	}
	if ex.Title == "" {
		ex.Title = pageURL
	}

	ex.FullText = joinText(doc, "\n")

	ex.DateText = store.DatePattern.FindString(ex.FullText)
	if ex.DateText == "" {
		ex.DateErr = fmt.Errorf("%w: no date found", ErrMalformedDate)
	} else if t, err := store.ParseDate(ex.DateText); err != nil {
		ex.DateErr = err
	} else {
		ex.Date = t
	}

	after := ex.FullText
	if i := strings.Index(after, ex.Title); i >= 0 {
		after = after[i+len(ex.Title):]
	}
	if loc := boilerplate.FindStringIndex(after); loc != nil {
		after = after[:loc[0]]
	}
	ex.Content = strings.TrimSpace(after)
	return ex, nil
}

// findFirst returns the first element of type a, in document order, that
// has non-empty text.
func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a && joinText(n, "") != "" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

// joinText collects trimmed, non-empty text nodes under n joined by sep.
// Script and style bodies are skipped.
func joinText(n *html.Node, sep string) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
			return
		}
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				parts = append(parts, s)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(parts, sep)
}

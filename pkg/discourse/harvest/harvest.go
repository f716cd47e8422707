package harvest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/internalerr"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/store"
)

// DefaultBaseURL is the speech archive root.
const DefaultBaseURL = "https://jhsjk.people.cn/"

// DefaultCategories are the archive's listing tabs: meetings, activities,
// inspections, meetings with guests, visits abroad, speeches, letters and
// other.
var DefaultCategories = []int{701, 702, 703, 704, 705, 706, 707, 718}

// DefaultPageDelay separates consecutive listing requests.
const DefaultPageDelay = 500 * time.Millisecond

// DefaultTimeout bounds a single listing request.
const DefaultTimeout = 10 * time.Second

var articleHref = regexp.MustCompile(`article/\d+`)

// Doer is satisfied by *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// LinkSink persists the accumulated link set.
type LinkSink interface {
	SaveLinks(ctx context.Context, urls []string) error
}

// Options configures a Harvester.
type Options struct {
	BaseURL    string
	Categories []int
	PageDelay  time.Duration
	MaxPages   int // 0 means no cap
	Timeout    time.Duration
	UserAgent  string
	Client     Doer
	Logger     *slog.Logger
}

// Harvester walks paginated category listings and collects article links.
type Harvester struct {
	root       *url.URL
	categories []int
	maxPages   int
	timeout    time.Duration
	userAgent  string
	client     Doer
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// New creates a harvester. Zero options fall back to the archive defaults.
func New(opts Options) (*Harvester, error) {
	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	root, err := url.Parse(base)
	if err != nil || root.Host == "" {
		return nil, fmt.Errorf("%w: base url %q", internalerr.ErrInvalidConfig, base)
	}
	root.Scheme = "https"
	root.Path = "/"
	root.RawQuery = ""
	root.Fragment = ""

	cats := opts.Categories
	if len(cats) == 0 {
		cats = DefaultCategories
	}
	if opts.MaxPages < 0 {
		return nil, fmt.Errorf("%w: max pages %d", internalerr.ErrInvalidConfig, opts.MaxPages)
	}

	if opts.Timeout < 0 {
		return nil, fmt.Errorf("%w: timeout %v", internalerr.ErrInvalidConfig, opts.Timeout)
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	limit := rate.Inf
	if opts.PageDelay > 0 {
		limit = rate.Every(opts.PageDelay)
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = "Mozilla/5.0"
	}

	return &Harvester{
		root:       root,
		categories: append([]int(nil), cats...),
		maxPages:   opts.MaxPages,
		timeout:    timeout,
		userAgent:  ua,
		client:     client,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
	}, nil
}

// ListingURL returns the listing address of page (1-based) in category.
func (h *Harvester) ListingURL(category, page int) string {
	u := h.root.JoinPath("result")
	u.RawQuery = fmt.Sprintf("else=501&form=%d", category)
	if page > 1 {
		u.RawQuery += fmt.Sprintf("&page=%d", page)
	}
	return u.String()
}

// Canonicalize resolves href against the site root, forces https and drops
// the fragment.
func (h *Harvester) Canonicalize(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := h.root.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	abs.Scheme = "https"
	abs.Fragment = ""
	return abs.String(), true
}

// Harvest crawls every category and returns the canonical link set. The
// set is handed to sink after each category. Listing failures end that
// category only; sink failures and cancellation are returned together with
// the links gathered so far.
func (h *Harvester) Harvest(ctx context.Context, sink LinkSink) (store.URLSet, error) {
	links := store.NewURLSet()
	for _, cat := range h.categories {
		if err := h.harvestCategory(ctx, cat, links); err != nil {
			return links, err
		}
		if sink != nil {
			if err := sink.SaveLinks(ctx, links.Sorted()); err != nil {
				return links, fmt.Errorf("save links after category %d: %w", cat, err)
			}
		}
	}
	return links, nil
}

func (h *Harvester) harvestCategory(ctx context.Context, cat int, links store.URLSet) error {
	for page := 1; h.maxPages == 0 || page <= h.maxPages; page++ {
		if err := h.limiter.Wait(ctx); err != nil {
			return err
		}
		listing := h.ListingURL(cat, page)
		found, err := h.fetchPage(ctx, listing)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			h.logger.Warn("listing page failed", "category", cat, "page", page, "url", listing, "error", err)
			return nil
		}
		if len(found) == 0 {
			h.logger.Debug("no more links", "category", cat, "page", page)
			return nil
		}

		added := 0
		for _, href := range found {
			if u, ok := h.Canonicalize(href); ok && links.Add(u) {
				added++
			}
		}
		h.logger.Info("listing page", "category", cat, "page", page, "links", len(found), "new", added, "total", len(links))
	}
	h.logger.Info("page cap reached", "category", cat, "max_pages", h.maxPages)
	return nil
}

func (h *Harvester) fetchPage(ctx context.Context, listing string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listing, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return ExtractLinks(resp.Body)
}

// ExtractLinks returns the href of every anchor pointing at an article.
func ExtractLinks(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}
	var out []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if articleHref.MatchString(href) {
			out = append(out, strings.TrimSpace(href))
		}
	})
	return out, nil
}

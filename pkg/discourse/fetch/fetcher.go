package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/internalerr"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/store"
)

// Defaults for the retry state machine.
const (
	DefaultMaxAttempts = 5
	DefaultBaseBackoff = 10 * time.Second
	DefaultTimeout     = 10 * time.Second
	DefaultReferer     = "https://jhsjk.people.cn/"

	maxBodyBytes = 16 << 20
)

// DefaultUserAgents is the rotation pool for article requests.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/15.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Ubuntu Chromium/114.0.5735.198 Chrome/114.0.5735.198 Safari/537.36",
}

// Doer is satisfied by *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Options configures a Fetcher.
type Options struct {
	MaxAttempts int
	BaseBackoff time.Duration
	Timeout     time.Duration
	UserAgents  []string
	Referer     string
	// ForceHTTPS rewrites http:// URLs before fetching. Defaults to true
	// through DefaultOptions.
	ForceHTTPS bool

	Client Doer
	Sleep  SleepFunc
	Rand   *rand.Rand
	Logger *slog.Logger
}

// DefaultOptions returns the archive defaults.
func DefaultOptions() Options {
	return Options{
		MaxAttempts: DefaultMaxAttempts,
		BaseBackoff: DefaultBaseBackoff,
		Timeout:     DefaultTimeout,
		UserAgents:  DefaultUserAgents,
		Referer:     DefaultReferer,
		ForceHTTPS:  true,
	}
}

// Attempt records one request made by the state machine.
type Attempt struct {
	N       int           // 0-based
	Delay   time.Duration // backoff slept before this attempt
	Agent   string
	Status  int
	Err     error
	Elapsed time.Duration
}

// Fetcher downloads and extracts one article at a time.
type Fetcher struct {
	opts   Options
	client Doer
	sleep  SleepFunc
	rng    *rand.Rand
	logger *slog.Logger
}

// New creates a fetcher.
func New(opts Options) (*Fetcher, error) {
	if opts.MaxAttempts <= 0 {
		return nil, fmt.Errorf("%w: max attempts %d", internalerr.ErrInvalidConfig, opts.MaxAttempts)
	}
	if opts.BaseBackoff < 0 || opts.Timeout <= 0 {
		return nil, fmt.Errorf("%w: backoff %v timeout %v", internalerr.ErrInvalidConfig, opts.BaseBackoff, opts.Timeout)
	}
	if len(opts.UserAgents) == 0 {
		opts.UserAgents = DefaultUserAgents
	}
	f := &Fetcher{
		opts:   opts,
		client: opts.Client,
		sleep:  opts.Sleep,
		rng:    opts.Rand,
		logger: opts.Logger,
	}
	if f.client == nil {
		f.client = &http.Client{Timeout: opts.Timeout}
	}
	if f.sleep == nil {
		f.sleep = Sleep
	}
	if f.rng == nil {
		f.rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f, nil
}

// Backoff returns the delay before attempt k. Attempt 0 is immediate.
func (f *Fetcher) Backoff(k int) time.Duration {
	if k <= 0 {
		return 0
	}
	return f.opts.BaseBackoff << (k - 1)
}

type state int

const (
	stateRequest state = iota
	stateBackoff
	stateExtract
	stateDone
	stateFailed
)

// Fetch retrieves url and returns a document with RawContent set and
// Content left empty for the normalizer. Failures are *FetchError except
// for cancellation of ctx, which is returned as is.
func (f *Fetcher) Fetch(ctx context.Context, url string) (store.Document, error) {
	doc, _, err := f.FetchTrace(ctx, url)
	return doc, err
}

// FetchTrace is Fetch plus the record of every attempt made.
func (f *Fetcher) FetchTrace(ctx context.Context, url string) (store.Document, []Attempt, error) {
	if f.opts.ForceHTTPS && strings.HasPrefix(url, "http://") {
		url = "https://" + strings.TrimPrefix(url, "http://")
	}

	var (
		trace   []Attempt
		body    []byte
		lastErr error
		fail    *FetchError
		doc     store.Document
		k       int
	)

	st := stateRequest
	for st != stateDone && st != stateFailed {
		switch st {
		case stateRequest:
			a := f.attempt(ctx, url, k)
			a.Delay = f.Backoff(k)
			trace = append(trace, a.Attempt)
			if ctx.Err() != nil {
				return store.Document{}, trace, ctx.Err()
			}
			switch {
			case a.Err == nil:
				body = a.body
				st = stateExtract
			case Retryable(a.Err) && k+1 < f.opts.MaxAttempts:
				lastErr = a.Err
				st = stateBackoff
			default:
				fail = f.failure(url, a.Err, k+1, a.Status)
				st = stateFailed
			}

		case stateBackoff:
			k++
			d := f.Backoff(k)
			f.logger.Warn("retrying", "url", url, "attempt", k, "backoff_ms", d.Milliseconds(), "error", lastErr)
			if err := f.sleep(ctx, d); err != nil {
				return store.Document{}, trace, err
			}
			st = stateRequest

		case stateExtract:
			ex, err := Extract(bytes.NewReader(body), url)
			if err != nil {
				fail = &FetchError{URL: url, Kind: ErrPermanentFetch, Attempts: k + 1, Err: err}
				st = stateFailed
				break
			}
			if ex.DateErr != nil {
				f.logger.Warn("no usable date", "url", url, "error", ex.DateErr)
			}
			if ex.Content == "" {
				fail = &FetchError{URL: url, Kind: ErrEmptyExtraction, Attempts: k + 1, Status: trace[k].Status}
				st = stateFailed
				break
			}
			doc = store.Document{URL: url, Title: ex.Title, Date: ex.Date, RawContent: ex.Content}
			st = stateDone
		}
	}

	if st == stateFailed {
		f.logger.Warn("fetch failed", "url", url, "attempts", fail.Attempts, "error", fail)
		return store.Document{}, trace, fail
	}
	return doc, trace, nil
}

type attemptResult struct {
	Attempt
	body []byte
}

func (f *Fetcher) attempt(ctx context.Context, url string, k int) (res attemptResult) {
	start := time.Now()
	res = attemptResult{Attempt: Attempt{N: k, Agent: f.opts.UserAgents[f.rng.IntN(len(f.opts.UserAgents))]}}
	defer func() { res.Elapsed = time.Since(start) }()

	actx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(actx, http.MethodGet, url, nil)
	if err != nil {
		res.Err = fmt.Errorf("%w: %v", ErrPermanentFetch, err)
		return res
	}
	req.Header.Set("User-Agent", res.Agent)
	if f.opts.Referer != "" {
		req.Header.Set("Referer", f.opts.Referer)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		res.Err = classify(err)
		return res
	}
	defer resp.Body.Close()
	res.Status = resp.StatusCode

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body)
		res.Err = fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
		return res
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		io.Copy(io.Discard, resp.Body)
		res.Err = fmt.Errorf("%w: status %d", ErrPermanentFetch, resp.StatusCode)
		return res
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		res.Err = classify(err)
		return res
	}
	res.body = body
	return res
}

// classify maps a transport error onto the failure taxonomy.
func classify(err error) error {
	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &ne) && ne.Timeout(),
		errors.Is(err, syscall.ECONNRESET):
		return fmt.Errorf("%w: %v", ErrTransientNetwork, err)
	default:
		return fmt.Errorf("%w: %v", ErrPermanentFetch, err)
	}
}

func (f *Fetcher) failure(url string, err error, attempts, status int) *FetchError {
	kind := ErrPermanentFetch
	switch {
	case errors.Is(err, ErrRateLimited):
		kind = ErrRateLimited
	case errors.Is(err, ErrTransientNetwork):
		kind = ErrTransientNetwork
	}
	return &FetchError{URL: url, Kind: kind, Attempts: attempts, Status: status, Err: err}
}

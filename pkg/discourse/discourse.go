// Package discourse sequences the crawl-and-analyze pipeline: link
// discovery, resumable fetching into a corpus store, keyword analysis and
// topic modeling.
package discourse

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	mrand "math/rand/v2"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/neopian-sys/DiscourseAnalyses/internal/atomicfile"
	"github.com/neopian-sys/DiscourseAnalyses/internal/report"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/fetch"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/harvest"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/internalerr"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/store"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/topics"
)

// Harvester discovers candidate document URLs.
type Harvester interface {
	Harvest(ctx context.Context, sink harvest.LinkSink) (store.URLSet, error)
}

// Fetcher retrieves a single document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (store.Document, error)
}

// Normalizer canonicalizes raw document text.
type Normalizer interface {
	Normalize(raw string) string
}

// Engine is the pipeline facade
type Engine struct {
	store      store.Store
	harvester  Harvester
	fetcher    Fetcher
	normalizer Normalizer
	tokenizer  topics.Tokenizer

	politeMin       time.Duration
	politeMax       time.Duration
	checkpointEvery int
	limiter         *rate.Limiter
	failuresPath    string

	sleep   fetch.SleepFunc
	rngMu   sync.Mutex
	rng     *mrand.Rand
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
	logger  *slog.Logger
}

// Options configures an Engine. Store and Normalizer are required;
// Harvester and Fetcher only for Crawl, Tokenizer only for Topics.
type Options struct {
	Store      store.Store
	Harvester  Harvester
	Fetcher    Fetcher
	Normalizer Normalizer
	Tokenizer  topics.Tokenizer

	// Delay after every fetched URL is drawn uniformly from
	// [PolitenessMin, PolitenessMax].
	PolitenessMin time.Duration
	PolitenessMax time.Duration
	// CheckpointEvery writes a partial snapshot after that many additions.
	CheckpointEvery int
	// RequestsPerSecond caps the fetch loop. Zero disables the cap.
	RequestsPerSecond float64
	// FailuresPath receives the failure report of each crawl when set.
	FailuresPath string

	Sleep  fetch.SleepFunc
	Rand   *mrand.Rand
	Now    func() time.Time
	Logger *slog.Logger
}

// New creates an Engine with the given dependencies
func New(opts Options) (*Engine, error) {
	if opts.Store == nil || opts.Normalizer == nil {
		return nil, fmt.Errorf("%w: store and normalizer are required", internalerr.ErrInvalidConfig)
	}
	if opts.PolitenessMin < 0 || opts.PolitenessMax < opts.PolitenessMin {
		return nil, fmt.Errorf("%w: politeness range [%v, %v]", internalerr.ErrInvalidConfig, opts.PolitenessMin, opts.PolitenessMax)
	}
	e := &Engine{
		store:           opts.Store,
		harvester:       opts.Harvester,
		fetcher:         opts.Fetcher,
		normalizer:      opts.Normalizer,
		tokenizer:       opts.Tokenizer,
		politeMin:       opts.PolitenessMin,
		politeMax:       opts.PolitenessMax,
		checkpointEvery: opts.CheckpointEvery,
		failuresPath:    opts.FailuresPath,
		sleep:           opts.Sleep,
		rng:             opts.Rand,
		entropy:         ulid.Monotonic(rand.Reader, 0),
		now:             opts.Now,
		logger:          opts.Logger,
	}
	if opts.RequestsPerSecond > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	if e.sleep == nil {
		e.sleep = fetch.Sleep
	}
	if e.rng == nil {
		e.rng = mrand.New(mrand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e, nil
}

// Close cleanly shuts down the engine and its store
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying corpus store.
func (e *Engine) Store() store.Store { return e.store }

// Failure is a URL the crawl gave up on.
type Failure struct {
	URL      string
	Kind     error // one of the fetch failure sentinels
	Attempts int
	Status   int
	Err      error
}

// CrawlReport summarizes one crawl run. Added counts documents appended
// by this run only.
type CrawlReport struct {
	RunID       ulid.ULID
	StartedAt   time.Time
	FinishedAt  time.Time
	Discovered  int
	Known       int
	Queued      int
	Added       int
	Failures    []Failure
	Interrupted bool
}

// linkSink keeps the persisted link list from shrinking when a harvest
// sees fewer links than an earlier run.
type linkSink struct {
	prev  store.URLSet
	store store.Store
}

func (s linkSink) SaveLinks(ctx context.Context, urls []string) error {
	all := store.NewURLSet(urls...)
	for u := range s.prev {
		all.Add(u)
	}
	return s.store.SaveLinks(ctx, all.Sorted())
}

// Crawl discovers links, fetches every URL not yet in the corpus and
// appends the results. Fetch failures are collected in the report; only
// store failures are returned as errors. On cancellation the corpus is
// still snapshotted and the report is returned with ctx's error.
func (e *Engine) Crawl(ctx context.Context) (*CrawlReport, error) {
	if e.harvester == nil || e.fetcher == nil {
		return nil, fmt.Errorf("%w: crawl needs a harvester and a fetcher", internalerr.ErrInvalidConfig)
	}

	rep := &CrawlReport{
		RunID:     ulid.MustNew(ulid.Timestamp(e.now()), e.entropy),
		StartedAt: e.now(),
	}
	log := e.logger.With("run", rep.RunID.String())

	docs, err := e.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	known := store.KnownURLs(docs)
	rep.Known = len(known)

	prevLinks, err := e.store.LoadLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load links: %w", err)
	}
	discovered, err := e.harvester.Harvest(ctx, linkSink{prev: store.NewURLSet(prevLinks...), store: e.store})
	if err != nil && ctx.Err() == nil {
		return nil, fmt.Errorf("harvest: %w", err)
	}
	if discovered == nil {
		discovered = store.NewURLSet()
	}
	for _, u := range prevLinks {
		discovered.Add(u)
	}
	rep.Discovered = len(discovered)

	queue := discovered.Difference(known)
	rep.Queued = len(queue)
	log.Info("crawl planned", "discovered", rep.Discovered, "known", rep.Known, "queued", rep.Queued)

	loopErr := e.fetchAll(ctx, queue, rep, log)

	// Final snapshots run even when ctx is cancelled.
	final := context.WithoutCancel(ctx)
	if err := e.store.Snapshot(final, true); err != nil {
		return rep, fmt.Errorf("partial snapshot: %w", err)
	}
	if err := e.store.Snapshot(final, false); err != nil {
		return rep, fmt.Errorf("full snapshot: %w", err)
	}
	rep.FinishedAt = e.now()

	if e.failuresPath != "" {
		if err := e.writeFailures(rep); err != nil {
			return rep, err
		}
	}
	log.Info("crawl finished", "added", rep.Added, "failures", len(rep.Failures), "interrupted", rep.Interrupted)

	if loopErr != nil {
		return rep, loopErr
	}
	if rep.Interrupted {
		return rep, ctx.Err()
	}
	return rep, nil
}

// fetchAll works through the queue. It returns only store errors;
// cancellation marks the report as interrupted.
func (e *Engine) fetchAll(ctx context.Context, queue []string, rep *CrawlReport, log *slog.Logger) error {
	for i, u := range queue {
		if ctx.Err() != nil {
			rep.Interrupted = true
			return nil
		}
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				rep.Interrupted = true
				return nil
			}
		}

		doc, err := e.fetcher.Fetch(ctx, u)
		switch {
		case err != nil && ctx.Err() != nil:
			rep.Interrupted = true
			return nil
		case err != nil:
			rep.Failures = append(rep.Failures, newFailure(u, err))
			log.Warn("skipping url", "url", u, "error", err)
		default:
			doc.URL = u
			doc.Content = e.normalizer.Normalize(doc.RawContent)
			added, err := e.store.Append(ctx, doc)
			if err != nil {
				return fmt.Errorf("append %s: %w", u, err)
			}
			if added {
				rep.Added++
				log.Debug("document added", "url", u, "title", doc.Title, "progress", fmt.Sprintf("%d/%d", i+1, len(queue)))
				if e.checkpointEvery > 0 && rep.Added%e.checkpointEvery == 0 {
					if err := e.store.Snapshot(ctx, true); err != nil {
						return fmt.Errorf("checkpoint: %w", err)
					}
				}
			}
		}

		if err := e.sleep(ctx, e.politeDelay()); err != nil {
			rep.Interrupted = true
			return nil
		}
	}
	return nil
}

func (e *Engine) politeDelay() time.Duration {
	span := e.politeMax - e.politeMin
	if span <= 0 {
		return e.politeMin
	}
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.politeMin + time.Duration(e.rng.Int64N(int64(span)+1))
}

func newFailure(u string, err error) Failure {
	f := Failure{URL: u, Kind: fetch.ErrPermanentFetch, Attempts: 1, Err: err}
	var fe *fetch.FetchError
	if errors.As(err, &fe) {
		f.Kind = fe.Kind
		f.Attempts = fe.Attempts
		f.Status = fe.Status
	}
	return f
}

func (e *Engine) writeFailures(rep *CrawlReport) error {
	out := report.FailureReport{
		RunID:      rep.RunID.String(),
		StartedAt:  rep.StartedAt,
		FinishedAt: rep.FinishedAt,
		Failures:   make([]report.Failure, 0, len(rep.Failures)),
	}
	for _, f := range rep.Failures {
		out.Failures = append(out.Failures, report.Failure{
			URL:      f.URL,
			Kind:     f.Kind.Error(),
			Attempts: f.Attempts,
			Status:   f.Status,
			Error:    f.Err.Error(),
		})
	}
	err := atomicfile.WriteFile(e.failuresPath, func(w io.Writer) error { return report.WriteJSON(w, out) })
	if err != nil {
		return fmt.Errorf("%w: failure report: %v", internalerr.ErrStoreUnavailable, err)
	}
	return nil
}

// Links runs discovery only and persists the link list.
func (e *Engine) Links(ctx context.Context) (store.URLSet, error) {
	if e.harvester == nil {
		return nil, fmt.Errorf("%w: no harvester", internalerr.ErrInvalidConfig)
	}
	prev, err := e.store.LoadLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load links: %w", err)
	}
	links, err := e.harvester.Harvest(ctx, linkSink{prev: store.NewURLSet(prev...), store: e.store})
	if err != nil {
		return links, fmt.Errorf("harvest: %w", err)
	}
	return links, nil
}

// Import appends externally collected documents through the same path as
// fetched ones: normalized once, skipped when the URL is already known.
// It returns the number of documents added.
func (e *Engine) Import(ctx context.Context, docs []store.Document) (int, error) {
	added := 0
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			break
		}
		if d.URL == "" {
			continue
		}
		raw := d.RawContent
		if raw == "" {
			raw = d.Content
		}
		d.RawContent = raw
		d.Content = e.normalizer.Normalize(raw)
		ok, err := e.store.Append(ctx, d)
		if err != nil {
			return added, fmt.Errorf("append %s: %w", d.URL, err)
		}
		if ok {
			added++
		}
	}

	final := context.WithoutCancel(ctx)
	if err := e.store.Snapshot(final, true); err != nil {
		return added, fmt.Errorf("partial snapshot: %w", err)
	}
	if err := e.store.Snapshot(final, false); err != nil {
		return added, fmt.Errorf("full snapshot: %w", err)
	}
	e.logger.Info("import finished", "documents", len(docs), "added", added)
	return added, ctx.Err()
}

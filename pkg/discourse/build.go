package discourse

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/neopian-sys/DiscourseAnalyses/internal/report"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/config"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/fetch"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/harvest"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/internalerr"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/store"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/store/jsonstore"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/store/sqlite"
)

// OpenStore opens the configured corpus backend.
func OpenStore(ctx context.Context, cfg config.Store) (store.Store, error) {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}
	switch cfg.Backend {
	case config.BackendJSON, "":
		st, err := jsonstore.Open(cfg.OutputDir)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.BackendSQLite:
		return sqlite.OpenSQLite(ctx, cfg.DatabasePath())
	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", internalerr.ErrInvalidConfig, cfg.Backend)
	}
}

// AnalyzeOptionsFrom converts the analysis settings of cfg.
func AnalyzeOptionsFrom(cfg config.Config) (AnalyzeOptions, error) {
	rng, err := cfg.DateRange()
	if err != nil {
		return AnalyzeOptions{}, err
	}
	return AnalyzeOptions{
		Keywords:    cfg.Analysis.Keywords,
		Range:       rng,
		TopN:        cfg.Analysis.TopN,
		TrendWindow: cfg.Analysis.TrendWindow,
	}, nil
}

// FromConfig wires a complete engine from configuration. client may be
// nil to use a default HTTP client per component.
func FromConfig(ctx context.Context, cfg config.Config, client *http.Client, logger *slog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	comp, err := cfg.Loader().Load()
	if err != nil {
		return nil, err
	}
	logger.Debug("components loaded", "segmenter", cfg.Topics.Segmenter, "stopwords", comp.Stoplist.Len())

	var doer fetch.Doer
	var hdoer harvest.Doer
	if client != nil {
		doer, hdoer = client, client
	}

	var ua string
	if len(cfg.Site.UserAgents) > 0 {
		ua = cfg.Site.UserAgents[0]
	}
	h, err := harvest.New(harvest.Options{
		BaseURL:    cfg.Site.BaseURL,
		Categories: cfg.Site.Categories,
		PageDelay:  cfg.Crawl.PageDelay,
		MaxPages:   cfg.Crawl.MaxPages,
		Timeout:    cfg.Crawl.Timeout,
		UserAgent:  ua,
		Client:     hdoer,
		Logger:     logger.With("component", "harvest"),
	})
	if err != nil {
		return nil, err
	}

	fo := fetch.DefaultOptions()
	fo.MaxAttempts = cfg.Crawl.MaxAttempts
	fo.BaseBackoff = cfg.Crawl.BaseBackoff
	fo.Timeout = cfg.Crawl.Timeout
	fo.UserAgents = cfg.Site.UserAgents
	fo.Referer = cfg.Site.Referer
	fo.ForceHTTPS = cfg.Site.ForceHTTPS
	fo.Client = doer
	fo.Logger = logger.With("component", "fetch")
	f, err := fetch.New(fo)
	if err != nil {
		return nil, err
	}

	st, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	e, err := New(Options{
		Store:             st,
		Harvester:         h,
		Fetcher:           f,
		Normalizer:        comp.Normalizer,
		Tokenizer:         comp.Tokenizer,
		PolitenessMin:     cfg.Crawl.PolitenessMin,
		PolitenessMax:     cfg.Crawl.PolitenessMax,
		CheckpointEvery:   cfg.Crawl.CheckpointEvery,
		RequestsPerSecond: cfg.Crawl.RequestsPerSecond,
		FailuresPath:      filepath.Join(cfg.Store.OutputDir, report.FailuresFile),
		Logger:            logger,
	})
	if err != nil {
		st.Close()
		return nil, err
	}
	return e, nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/fetch"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/harvest"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/internalerr"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/keywords"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/segment"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/store"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/topics"
)

// DefaultKeywords are the phrases tracked by the archive analysis.
var DefaultKeywords = []string{"科研伦理", "科技伦理", "人工智能向善", "科技向善", "守正创新", "负责人创新", "高水平安全", "科研诚信"}

// Store backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config is the complete run configuration.
type Config struct {
	Site     Site     `yaml:"site"`
	Crawl    Crawl    `yaml:"crawl"`
	Analysis Analysis `yaml:"analysis"`
	Topics   Topics   `yaml:"topics"`
	Store    Store    `yaml:"store"`
}

// Site describes the archive being crawled.
type Site struct {
	BaseURL    string   `yaml:"base_url"`
	Categories []int    `yaml:"categories"`
	Referer    string   `yaml:"referer"`
	UserAgents []string `yaml:"user_agents"`
	ForceHTTPS bool     `yaml:"force_https"`
}

// Crawl holds the retry and politeness controls.
type Crawl struct {
	MaxAttempts     int           `yaml:"max_attempts"`
	BaseBackoff     time.Duration `yaml:"base_backoff"`
	Timeout         time.Duration `yaml:"timeout"`
	PageDelay       time.Duration `yaml:"page_delay"`
	PolitenessMin   time.Duration `yaml:"politeness_min"`
	PolitenessMax   time.Duration `yaml:"politeness_max"`
	MaxPages        int           `yaml:"max_pages"`
	CheckpointEvery int           `yaml:"checkpoint_every"`
	// RequestsPerSecond caps article requests on top of the politeness
	// delay. Zero disables the cap.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// Analysis configures keyword counting.
type Analysis struct {
	Keywords        []string `yaml:"keywords"`
	StartDate       string   `yaml:"start_date"`
	EndDate         string   `yaml:"end_date"`
	TopN            int      `yaml:"top_n"`
	TrendWindow     int      `yaml:"trend_window"`
	ConversionTable string   `yaml:"conversion_table"`
}

// Topics configures the topic model.
type Topics struct {
	Segmenter     string  `yaml:"segmenter"`
	StopwordsPath string  `yaml:"stopwords_path"`
	MinRunes      int     `yaml:"min_runes"`
	NumTopics     int     `yaml:"num_topics"`
	Passes        int     `yaml:"passes"`
	Seed          uint64  `yaml:"seed"`
	NoBelow       int     `yaml:"no_below"`
	NoAbove       float64 `yaml:"no_above"`
	KeepN         int     `yaml:"keep_n"`
	Coherence     bool    `yaml:"coherence"`
	Measure       string  `yaml:"measure"`
	TopTerms      int     `yaml:"top_terms"`
}

// Store selects the corpus backend and output location.
type Store struct {
	Backend    string `yaml:"backend"`
	OutputDir  string `yaml:"output_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Default returns the archive defaults.
func Default() Config {
	to := topics.DefaultOptions()
	return Config{
		Site: Site{
			BaseURL:    harvest.DefaultBaseURL,
			Categories: append([]int(nil), harvest.DefaultCategories...),
			Referer:    fetch.DefaultReferer,
			UserAgents: append([]string(nil), fetch.DefaultUserAgents...),
			ForceHTTPS: true,
		},
		Crawl: Crawl{
			MaxAttempts:     fetch.DefaultMaxAttempts,
			BaseBackoff:     fetch.DefaultBaseBackoff,
			Timeout:         fetch.DefaultTimeout,
			PageDelay:       harvest.DefaultPageDelay,
			PolitenessMin:   time.Second,
			PolitenessMax:   3 * time.Second,
			CheckpointEvery: 50,
		},
		Analysis: Analysis{
			Keywords:    append([]string(nil), DefaultKeywords...),
			TopN:        keywords.DefaultTopN,
			TrendWindow: 1,
		},
		Topics: Topics{
			Segmenter: segment.StrategyGSE,
			MinRunes:  2,
			NumTopics: to.Topics,
			Passes:    to.Passes,
			Seed:      to.Seed,
			NoBelow:   to.NoBelow,
			NoAbove:   to.NoAbove,
			Coherence: to.Coherence,
			Measure:   to.Measure,
			TopTerms:  to.TopTermsReport,
		},
		Store: Store{
			Backend:   BackendJSON,
			OutputDir: "output",
		},
	}
}

// Load reads a YAML file over the defaults. Keys absent from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: parse %s: %v", internalerr.ErrInvalidConfig, path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks ranges and cross-field constraints.
func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if len(c.Site.Categories) == 0 {
		add("site.categories is empty")
	}
	if c.Crawl.MaxAttempts < 1 {
		add("crawl.max_attempts must be at least 1")
	}
	if c.Crawl.BaseBackoff < 0 || c.Crawl.Timeout <= 0 || c.Crawl.PageDelay < 0 {
		add("crawl durations must not be negative and timeout must be positive")
	}
	if c.Crawl.PolitenessMin < 0 || c.Crawl.PolitenessMax < c.Crawl.PolitenessMin {
		add("crawl.politeness_min must be in [0, politeness_max]")
	}
	if c.Crawl.MaxPages < 0 || c.Crawl.CheckpointEvery < 0 || c.Crawl.RequestsPerSecond < 0 {
		add("crawl.max_pages, checkpoint_every and requests_per_second must not be negative")
	}
	if len(c.Analysis.Keywords) == 0 {
		add("analysis.keywords is empty")
	}
	if _, err := c.DateRange(); err != nil {
		errs = append(errs, err)
	}
	if c.Analysis.TrendWindow < 1 {
		add("analysis.trend_window must be at least 1")
	}
	if c.Topics.NumTopics < 1 || c.Topics.Passes < 1 {
		add("topics.num_topics and topics.passes must be at least 1")
	}
	if c.Topics.NoAbove <= 0 || c.Topics.NoAbove > 1 {
		add("topics.no_above must be in (0, 1]")
	}
	switch c.Topics.Measure {
	case topics.MeasureNPMI, topics.MeasureUMass:
	default:
		add("topics.measure %q is not one of %s, %s", c.Topics.Measure, topics.MeasureNPMI, topics.MeasureUMass)
	}
	switch c.Store.Backend {
	case BackendJSON, BackendSQLite:
	default:
		add("store.backend %q is not one of %s, %s", c.Store.Backend, BackendJSON, BackendSQLite)
	}
	if c.Store.OutputDir == "" {
		add("store.output_dir is empty")
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", internalerr.ErrInvalidConfig, errors.Join(errs...))
}

// DateRange parses the analysis date bounds. Both YYYY-MM-DD and
// YYYY年M月D日 forms are accepted.
func (c Config) DateRange() (keywords.DateRange, error) {
	var r keywords.DateRange
	var err error
	if s := strings.TrimSpace(c.Analysis.StartDate); s != "" {
		if r.From, err = store.ParseDate(s); err != nil {
			return r, fmt.Errorf("analysis.start_date: %w", err)
		}
	}
	if s := strings.TrimSpace(c.Analysis.EndDate); s != "" {
		if r.To, err = store.ParseDate(s); err != nil {
			return r, fmt.Errorf("analysis.end_date: %w", err)
		}
	}
	if err := r.Validate(); err != nil {
		return r, err
	}
	return r, nil
}

// TopicsOptions converts the topic settings into training options.
func (c Config) TopicsOptions() topics.Options {
	o := topics.DefaultOptions()
	o.Topics = c.Topics.NumTopics
	o.Passes = c.Topics.Passes
	o.Seed = c.Topics.Seed
	o.NoBelow = c.Topics.NoBelow
	o.NoAbove = c.Topics.NoAbove
	o.KeepN = c.Topics.KeepN
	o.Coherence = c.Topics.Coherence
	o.Measure = c.Topics.Measure
	if c.Topics.TopTerms > 0 {
		o.TopTermsReport = c.Topics.TopTerms
		o.CoherenceTopN = c.Topics.TopTerms
	}
	return o
}

// DatabasePath returns the SQLite location, defaulting to corpus.db in the
// output directory.
func (s Store) DatabasePath() string {
	if s.SQLitePath != "" {
		return s.SQLitePath
	}
	return filepath.Join(s.OutputDir, "corpus.db")
}

// Stoplist represents the stopword list configuration
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}

	return &sl, nil
}

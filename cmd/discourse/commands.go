package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/neopian-sys/DiscourseAnalyses/internal/atomicfile"
	"github.com/neopian-sys/DiscourseAnalyses/internal/jsonl"
	"github.com/neopian-sys/DiscourseAnalyses/internal/report"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/config"
)

// analysisFlags override the analysis section of the configuration.
type analysisFlags struct {
	start    string
	end      string
	keywords []string
	window   int
	top      int
}

func (f *analysisFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.start, "start", "", "Earliest publication date (YYYY-MM-DD)")
	fs.StringVar(&f.end, "end", "", "Latest publication date (YYYY-MM-DD)")
	fs.StringSliceVarP(&f.keywords, "keyword", "k", nil, "Keyword to track (repeatable)")
	fs.IntVar(&f.window, "window", 1, "Rolling window in years for the trend table")
	fs.IntVar(&f.top, "top", 10, "Number of top documents to report")
}

func (f *analysisFlags) apply(cfg *config.Config, fs *pflag.FlagSet) {
	if fs.Changed("start") {
		cfg.Analysis.StartDate = f.start
	}
	if fs.Changed("end") {
		cfg.Analysis.EndDate = f.end
	}
	if fs.Changed("keyword") {
		cfg.Analysis.Keywords = f.keywords
	}
	if fs.Changed("window") {
		cfg.Analysis.TrendWindow = f.window
	}
	if fs.Changed("top") {
		cfg.Analysis.TopN = f.top
	}
}

// topicFlags override the topic model section of the configuration.
type topicFlags struct {
	topics    int
	passes    int
	seed      uint64
	segmenter string
	measure   string
	noCoh     bool
}

func (f *topicFlags) bind(fs *pflag.FlagSet) {
	fs.IntVar(&f.topics, "topics", 5, "Number of topics")
	fs.IntVar(&f.passes, "passes", 15, "Training passes over the corpus")
	fs.Uint64Var(&f.seed, "seed", 42, "Random seed for training")
	fs.StringVar(&f.segmenter, "segmenter", "gse", "Word segmenter: gse, bigram or rune")
	fs.StringVar(&f.measure, "measure", "c_npmi", "Coherence measure: c_npmi or u_mass")
	fs.BoolVar(&f.noCoh, "no-coherence", false, "Skip the coherence score")
}

func (f *topicFlags) apply(cfg *config.Config, fs *pflag.FlagSet) {
	if fs.Changed("topics") {
		cfg.Topics.NumTopics = f.topics
	}
	if fs.Changed("passes") {
		cfg.Topics.Passes = f.passes
	}
	if fs.Changed("seed") {
		cfg.Topics.Seed = f.seed
	}
	if fs.Changed("segmenter") {
		cfg.Topics.Segmenter = f.segmenter
	}
	if fs.Changed("measure") {
		cfg.Topics.Measure = f.measure
	}
	if f.noCoh {
		cfg.Topics.Coherence = false
	}
}

// engineFor loads the configuration, runs mutate over it and builds an
// engine.
func engineFor(cmd *cobra.Command, o *options, mutate func(*config.Config)) (*discourse.Engine, config.Config, error) {
	cfg, err := o.load(cmd)
	if err != nil {
		return nil, cfg, err
	}
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := discourse.FromConfig(cmd.Context(), cfg, nil, o.logger(cmd))
	if err != nil {
		return nil, cfg, err
	}
	return e, cfg, nil
}

func newCrawlCmd(o *options) *cobra.Command {
	var maxPages int
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Discover and fetch new speeches",
		Long: `Walks the archive listings, then fetches every article not yet in the
corpus. Interrupting the crawl saves progress; rerunning resumes it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := engineFor(cmd, o, func(cfg *config.Config) {
				if cmd.Flags().Changed("max-pages") {
					cfg.Crawl.MaxPages = maxPages
				}
			})
			if err != nil {
				return err
			}
			defer e.Close()
			return runCrawl(cmd, e)
		},
	}
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "Listing pages per category (0 = until empty)")
	return cmd
}

func runCrawl(cmd *cobra.Command, e *discourse.Engine) error {
	rep, err := e.Crawl(cmd.Context())
	if rep != nil {
		printCrawl(cmd.OutOrStdout(), rep)
	}
	return err
}

func printCrawl(w io.Writer, rep *discourse.CrawlReport) {
	fmt.Fprintf(w, "run %s: discovered %d, already stored %d, queued %d, added %d, failed %d\n",
		rep.RunID, rep.Discovered, rep.Known, rep.Queued, rep.Added, len(rep.Failures))
	for _, f := range rep.Failures {
		fmt.Fprintf(w, "  failed %s (%v, %d attempts)\n", f.URL, f.Kind, f.Attempts)
	}
	if rep.Interrupted {
		fmt.Fprintln(w, "crawl interrupted; rerun to resume")
	}
}

func newLinksCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "links",
		Short: "Discover article links without fetching",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := engineFor(cmd, o, nil)
			if err != nil {
				return err
			}
			defer e.Close()
			links, err := e.Links(cmd.Context())
			cmd.Printf("%d links discovered\n", len(links))
			return err
		},
	}
}

func newAnalyzeCmd(o *options) *cobra.Command {
	af := &analysisFlags{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Count tracked keywords across the corpus",
		Long: `Writes the keyword summary, the top documents and the per-year trend
as CSV files into the output directory, plus the summary as a workbook.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, cfg, err := engineFor(cmd, o, func(cfg *config.Config) { af.apply(cfg, cmd.Flags()) })
			if err != nil {
				return err
			}
			defer e.Close()
			return runAnalyze(cmd, e, cfg)
		},
	}
	af.bind(cmd.Flags())
	return cmd
}

func runAnalyze(cmd *cobra.Command, e *discourse.Engine, cfg config.Config) error {
	opts, err := discourse.AnalyzeOptionsFrom(cfg)
	if err != nil {
		return err
	}
	a, err := e.Analyze(cmd.Context(), opts)
	if err != nil {
		return err
	}
	dir := cfg.Store.OutputDir
	if err := writeAnalysis(dir, a); err != nil {
		return err
	}
	cmd.Printf("%d documents analyzed, %d outside the date range\n", a.Included, a.Excluded)
	for _, row := range a.Summary {
		cmd.Printf("  %s\t%d\n", row.Keyword, row.Total)
	}
	cmd.Printf("reports written to %s\n", dir)
	return nil
}

func writeAnalysis(dir string, a *discourse.Analysis) error {
	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{report.SummaryFile, func(w io.Writer) error { return report.WriteSummaryCSV(w, a.Summary) }},
		{report.SummaryXLSXFile, func(w io.Writer) error { return report.WriteSummaryXLSX(w, a.Summary) }},
		{report.TopDocumentsFile, func(w io.Writer) error { return report.WriteTopDocumentsCSV(w, a.TopDocuments) }},
		{report.TrendFile, func(w io.Writer) error { return report.WriteTrendCSV(w, a.Trend) }},
	}
	for _, f := range files {
		if err := atomicfile.WriteFile(filepath.Join(dir, f.name), f.write); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	return nil
}

func newTopicsCmd(o *options) *cobra.Command {
	tf := &topicFlags{}
	cmd := &cobra.Command{
		Use:   "topics",
		Short: "Train a topic model over the corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, cfg, err := engineFor(cmd, o, func(cfg *config.Config) { tf.apply(cfg, cmd.Flags()) })
			if err != nil {
				return err
			}
			defer e.Close()
			return runTopics(cmd, e, cfg)
		},
	}
	tf.bind(cmd.Flags())
	return cmd
}

func runTopics(cmd *cobra.Command, e *discourse.Engine, cfg config.Config) error {
	opts := cfg.TopicsOptions()
	res, err := e.Topics(cmd.Context(), opts)
	if err != nil {
		return err
	}
	rep := report.NewTopicsReport(res, opts.Measure, opts.TopTermsReport)
	path := filepath.Join(cfg.Store.OutputDir, report.TopicsFile)
	if err := atomicfile.WriteFile(path, func(w io.Writer) error { return report.WriteJSON(w, rep) }); err != nil {
		return fmt.Errorf("write %s: %w", report.TopicsFile, err)
	}

	for _, t := range rep.Topics {
		cmd.Printf("topic %d:", t.ID)
		for _, tw := range t.Terms {
			cmd.Printf(" %s", tw.Term)
		}
		cmd.Println()
	}
	if rep.Coherence != nil {
		cmd.Printf("coherence (%s): %.4f\n", rep.Measure, *rep.Coherence)
	} else if rep.CoherenceError != "" {
		cmd.Printf("coherence unavailable: %s\n", rep.CoherenceError)
	}
	return nil
}

func newRunCmd(o *options) *cobra.Command {
	af := &analysisFlags{}
	tf := &topicFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Crawl, then analyze keywords and topics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, cfg, err := engineFor(cmd, o, func(cfg *config.Config) {
				af.apply(cfg, cmd.Flags())
				tf.apply(cfg, cmd.Flags())
			})
			if err != nil {
				return err
			}
			defer e.Close()

			if err := runCrawl(cmd, e); err != nil {
				return err
			}
			if err := runAnalyze(cmd, e, cfg); err != nil {
				return err
			}
			return runTopics(cmd, e, cfg)
		},
	}
	af.bind(cmd.Flags())
	tf.bind(cmd.Flags())
	return cmd
}

func newImportCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.jsonl>",
		Short: "Add documents from a JSON Lines export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := jsonl.LoadFromJSONL(args[0])
			if err != nil {
				return err
			}
			e, _, err := engineFor(cmd, o, nil)
			if err != nil {
				return err
			}
			defer e.Close()

			n, err := e.Import(cmd.Context(), jsonl.Documents(items))
			cmd.Printf("%d of %d documents added\n", n, len(items))
			return err
		},
	}
}

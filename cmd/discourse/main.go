// Command discourse crawls the speech archive and analyzes the collected
// corpus.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/config"
)

// options are the flags shared by every subcommand.
type options struct {
	configPath string
	outputDir  string
	backend    string
	verbose    bool
}

// load reads the configuration file (or the defaults) and applies the
// persistent flag overrides.
func (o *options) load(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return cfg, err
		}
	}
	if cmd.Flags().Changed("output") {
		cfg.Store.OutputDir = o.outputDir
	}
	if cmd.Flags().Changed("backend") {
		cfg.Store.Backend = o.backend
	}
	return cfg, nil
}

func (o *options) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:   "discourse",
		Short: "Crawl and analyze a speech archive",
		Long: `Collects speeches from the archive into a resumable local corpus,
then counts tracked keywords over time and trains a topic model.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(os.Stdout)
	pf := root.PersistentFlags()
	pf.StringVarP(&o.configPath, "config", "c", "", "YAML configuration file")
	pf.StringVarP(&o.outputDir, "output", "o", "output", "Output directory for corpus and reports")
	pf.StringVar(&o.backend, "backend", config.BackendJSON, "Corpus backend: json or sqlite")
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "Debug logging")

	root.AddCommand(
		newCrawlCmd(o),
		newLinksCmd(o),
		newAnalyzeCmd(o),
		newTopicsCmd(o),
		newRunCmd(o),
		newImportCmd(o),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "interrupted; progress saved, rerun to resume")
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

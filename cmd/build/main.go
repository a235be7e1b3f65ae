// Package main provides the build command that runs the whole
// translation pipeline: load records, translate into every configured
// language, enrich, render, and print the run summary.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"transpipe/internal/cache"
	"transpipe/internal/config"
	"transpipe/internal/enrich"
	"transpipe/internal/ingest"
	"transpipe/internal/linkpool"
	"transpipe/internal/logger"
	"transpipe/internal/pipeline"
	"transpipe/internal/progress"
	"transpipe/internal/render"
	"transpipe/internal/translate"
)

var (
	configFile string
	langFilter []string
	workers    int
	seed       int64
)

var rootCmd = &cobra.Command{
	Use:   "build",
	Short: "Translate source articles into every configured language",
	Long: `Reads records from the source CSV, translates them into each configured
language with caching and retries, and renders the HTML output tree.
Interrupted runs resume from the progress ledger.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cmd.SilenceUsage = true

		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "config.yaml", "path to config file")
	rootCmd.Flags().StringSliceVarP(&langFilter, "lang", "l", nil, "limit the run to these language codes")
	rootCmd.Flags().IntVarP(&workers, "workers", "w", 0, "override the configured worker count")
	rootCmd.Flags().Int64Var(&seed, "seed", 0, "fixed seed for link and cross-reference choices")
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if len(langFilter) > 0 {
		if cfg.Languages, err = filterLanguages(cfg.Languages, langFilter); err != nil {
			return err
		}
	}

	if workers > 0 {
		cfg.Pipeline.Workers = workers
	}

	log := logger.NewLogger(cfg.Logging.Level)

	store, err := cache.NewFSStore(cfg.Output.CacheDir, log)
	if err != nil {
		return fmt.Errorf("failed to open translation cache: %w", err)
	}

	renderer, err := render.NewHTMLRenderer(cfg.Output, log)
	if err != nil {
		return err
	}

	provider := translate.NewHTTPProvider(cfg.Translation.Endpoint, cfg.Translation.Timeout())
	translator := translate.New(provider, store, cfg.Translation, log)
	ledger := progress.NewStore(cfg.Output.ProgressFile, renderer, log)

	rngSeed := seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	enricher := enrich.New(cfg.Meta, rand.New(rand.NewSource(rngSeed)))

	records, err := ingest.LoadCSV(cfg.Source.CSVFile)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		return fmt.Errorf("%w in %s", pipeline.ErrNoRecords, cfg.Source.CSVFile)
	}

	log.Info("starting run",
		"records", len(records),
		"languages", len(cfg.Languages),
		"workers", cfg.Pipeline.Workers)

	pool, err := linkpool.NewPool(cfg.LinkPool, filepath.Join(cfg.Output.CacheDir, "linkpool.json"), log).URLs(ctx)
	if err != nil {
		// Backlinks are an enhancement; a run without them still
		// produces every artifact.
		log.Warn("continuing without backlink pool", "error", err.Error())
	}

	runner := pipeline.NewRunner(cfg, translator, ledger, enricher, renderer, log)

	rep, runErr := runner.Run(ctx, records, pool)

	fmt.Print(rep.Summary())

	if runErr != nil {
		return runErr
	}

	if rep.HasFailures() {
		return fmt.Errorf("run finished with failures")
	}

	return nil
}

func filterLanguages(langs []config.LanguageConfig, codes []string) ([]config.LanguageConfig, error) {
	var out []config.LanguageConfig

	for _, code := range codes {
		found := false

		for _, lang := range langs {
			if lang.Code == code {
				out = append(out, lang)
				found = true

				break
			}
		}

		if !found {
			return nil, fmt.Errorf("unknown language code %q", code)
		}
	}

	return out, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pkg/browser"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/codetrend/internal/cache"
	"github.com/rohankatakam/codetrend/internal/config"
	"github.com/rohankatakam/codetrend/internal/errors"
	"github.com/rohankatakam/codetrend/internal/git"
	"github.com/rohankatakam/codetrend/internal/ingestion"
	"github.com/rohankatakam/codetrend/internal/metrics"
	"github.com/rohankatakam/codetrend/internal/models"
	"github.com/rohankatakam/codetrend/internal/output"
	"github.com/rohankatakam/codetrend/internal/storage"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <path-or-url>",
	Short: "Measure every commit of a repository",
	Long: `Walk the history of a local repository or a remote URL (cloned into a
temporary directory) and measure every commit, oldest first.

Examples:
  # CSV of the current repository to stdout
  ctrend analyze .

  # HTML chart of the last 500 commits, opened in the browser
  ctrend analyze https://github.com/owner/repo --max-commits 500 --html trend.html --open

  # Keep blob counts between runs and store the run
  ctrend analyze ~/src/project --cache-db ~/.codetrend/blobs.db --save`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var analyzeFlags struct {
	ref          string
	since        string
	until        string
	maxCommits   int
	firstParent  bool
	window       int
	maxBlobBytes int64
	workers      int
	backend      string
	csv          string
	json         string
	html         string
	title        string
	open         bool
	cacheDB      string
	save         bool
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeFlags.ref, "ref", "HEAD", "revision to walk back from")
	f.StringVar(&analyzeFlags.since, "since", "", "only commits at or after this date (YYYY-MM-DD or RFC 3339)")
	f.StringVar(&analyzeFlags.until, "until", "", "only commits at or before this date (YYYY-MM-DD or RFC 3339)")
	f.IntVar(&analyzeFlags.maxCommits, "max-commits", 0, "keep only the newest N commits (0 = all)")
	f.BoolVar(&analyzeFlags.firstParent, "first-parent", true, "follow only the first parent of merges")
	f.IntVar(&analyzeFlags.window, "window", 10, "rolling window for the message length average")
	f.Int64Var(&analyzeFlags.maxBlobBytes, "max-blob-bytes", metrics.DefaultMaxBlobBytes, "skip blobs larger than this")
	f.IntVar(&analyzeFlags.workers, "workers", 0, "files measured in parallel per commit (default: number of CPUs)")
	f.StringVar(&analyzeFlags.backend, "backend", git.BackendGoGit, "git access: gogit or cli")
	f.StringVar(&analyzeFlags.csv, "csv", "", "write the series as CSV to this file")
	f.StringVar(&analyzeFlags.json, "json", "", "write the run as JSON to this file")
	f.StringVar(&analyzeFlags.html, "html", "", "write an interactive chart to this file")
	f.StringVar(&analyzeFlags.title, "title", "", "chart title")
	f.BoolVar(&analyzeFlags.open, "open", false, "open the HTML chart in a browser")
	f.StringVar(&analyzeFlags.cacheDB, "cache-db", "", "persist blob metrics in this bbolt file")
	f.BoolVar(&analyzeFlags.save, "save", false, "store the run (storage.type, sqlite when none)")
}

// applyAnalyzeFlags copies explicitly set flags over the loaded config.
func applyAnalyzeFlags(cmd *cobra.Command, c *config.Config) {
	changed := cmd.Flags().Changed
	if changed("ref") {
		c.Git.Ref = analyzeFlags.ref
	}
	if changed("since") {
		c.Git.Since = analyzeFlags.since
	}
	if changed("until") {
		c.Git.Until = analyzeFlags.until
	}
	if changed("max-commits") {
		c.Git.MaxCommits = analyzeFlags.maxCommits
	}
	if changed("first-parent") {
		c.Git.FirstParent = analyzeFlags.firstParent
	}
	if changed("backend") {
		c.Git.Backend = analyzeFlags.backend
	}
	if changed("window") {
		c.Metrics.Window = analyzeFlags.window
	}
	if changed("max-blob-bytes") {
		c.Metrics.MaxBlobBytes = analyzeFlags.maxBlobBytes
	}
	if changed("workers") {
		c.Metrics.Workers = analyzeFlags.workers
	}
	if changed("csv") {
		c.Output.CSV = analyzeFlags.csv
	}
	if changed("json") {
		c.Output.JSON = analyzeFlags.json
	}
	if changed("html") {
		c.Output.HTML = analyzeFlags.html
	}
	if changed("title") {
		c.Output.Title = analyzeFlags.title
	}
	if changed("open") {
		c.Output.Open = analyzeFlags.open
	}
	if changed("cache-db") {
		c.Cache.Path = analyzeFlags.cacheDB
	}
	if analyzeFlags.save && c.Storage.Type == "none" {
		c.Storage.Type = "sqlite"
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	source := args[0]
	applyAnalyzeFlags(cmd, cfg)

	result := cfg.Validate()
	for _, w := range result.Warnings {
		logger.Warn(w)
	}
	if err := result.Err(); err != nil {
		return err
	}
	since, _ := config.ParseSince(cfg.Git.Since)
	until, _ := config.ParseUntil(cfg.Git.Until)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path, cleanup, err := ingestion.Acquire(ctx, source, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	repo, err := git.Open(path, cfg.Git.Backend)
	if err != nil {
		return errors.RepositoryError(err, "failed to open repository")
	}

	blobs, closeCache, err := openBlobCache(cfg.Cache.Path)
	if err != nil {
		return err
	}
	defer closeCache()

	var progress ingestion.Progress = ingestion.NopProgress{}
	if !cfg.Log.JSON && !config.GetBool("CODETREND_NO_PROGRESS", false) {
		progress = ingestion.NewProgress(os.Stderr, logger)
	}

	orch := ingestion.NewOrchestrator(repo, blobs, metrics.AggregatorConfig{
		MaxBlobBytes: cfg.Metrics.MaxBlobBytes,
		Workers:      cfg.Metrics.Workers,
	}, progress, logger)

	run, err := orch.Run(ctx, ingestion.RunOptions{
		Source: source,
		Window: cfg.Metrics.Window,
		List: git.ListOptions{
			Ref:         cfg.Git.Ref,
			Since:       since,
			Until:       until,
			MaxCommits:  cfg.Git.MaxCommits,
			FirstParent: cfg.Git.FirstParent,
		},
	})
	if err != nil {
		return err
	}

	wrote, err := writeOutputs(run, cfg.Output)
	if err != nil {
		return err
	}

	if cfg.Storage.Type != "none" {
		if err := saveRun(ctx, run); err != nil {
			return err
		}
	}

	if !wrote {
		f, _ := output.NewFormatter(output.FormatCSV, output.Options{})
		if err := f.Format(run, cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("failed to write csv: %w", err)
		}
	}

	if cfg.Output.Open && cfg.Output.HTML != "" {
		if err := browser.OpenFile(cfg.Output.HTML); err != nil {
			logger.WithError(err).Warn("Failed to open browser")
		}
	}
	return nil
}

func openBlobCache(path string) (*cache.BlobCache, func(), error) {
	if path == "" {
		return cache.NewBlobCache(nil, logger), func() {}, nil
	}
	store, err := cache.OpenBoltStore(path, metrics.HeuristicsVersion, logger)
	if err != nil {
		return nil, nil, errors.StorageError(err, "failed to open blob cache")
	}
	closeFn := func() {
		if err := store.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close blob cache")
		}
	}
	return cache.NewBlobCache(store, logger), closeFn, nil
}

// writeOutputs writes every configured file and reports whether any was.
func writeOutputs(run *models.Run, out config.OutputConfig) (bool, error) {
	targets := []struct {
		format output.Format
		path   string
	}{
		{output.FormatCSV, out.CSV},
		{output.FormatJSON, out.JSON},
		{output.FormatHTML, out.HTML},
	}

	wrote := false
	for _, t := range targets {
		if t.path == "" {
			continue
		}
		f, err := output.NewFormatter(t.format, output.Options{Title: out.Title})
		if err != nil {
			return wrote, err
		}
		if err := output.WriteFile(t.path, f, run); err != nil {
			return wrote, errors.FileSystemErrorf(err, "failed to write %s output", t.format)
		}
		abs, _ := filepath.Abs(t.path)
		logger.WithFields(logrus.Fields{
			"format": t.format,
			"path":   abs,
		}).Info("Wrote output")
		wrote = true
	}
	return wrote, nil
}

func saveRun(ctx context.Context, run *models.Run) error {
	store, err := storage.NewStore(cfg.Storage, logger)
	if err != nil {
		return errors.StorageError(err, "failed to open run store")
	}
	defer store.Close()

	if err := store.SaveRun(ctx, run); err != nil {
		return errors.StorageError(err, "failed to save run")
	}
	logger.WithFields(logrus.Fields{
		"run_id":  run.ID,
		"storage": cfg.Storage.Type,
	}).Info("Saved run")
	return nil
}

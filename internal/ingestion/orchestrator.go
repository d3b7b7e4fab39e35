package ingestion

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/codetrend/internal/cache"
	"github.com/rohankatakam/codetrend/internal/errors"
	"github.com/rohankatakam/codetrend/internal/git"
	"github.com/rohankatakam/codetrend/internal/metrics"
	"github.com/rohankatakam/codetrend/internal/models"
)

// DefaultWindow is the rolling window for the message length average.
const DefaultWindow = 10

// RunOptions selects the history to measure.
type RunOptions struct {
	Source string // label stored with the run
	List   git.ListOptions
	Window int
}

// Orchestrator walks a repository's history and produces one row per commit.
type Orchestrator struct {
	repo       git.Repository
	blobs      *cache.BlobCache
	aggregator *metrics.Aggregator
	progress   Progress
	logger     *logrus.Logger
}

// NewOrchestrator creates an orchestrator. blobs may be shared between runs
// over the same repository; progress may be nil.
func NewOrchestrator(
	repo git.Repository,
	blobs *cache.BlobCache,
	aggCfg metrics.AggregatorConfig,
	progress Progress,
	logger *logrus.Logger,
) *Orchestrator {
	if progress == nil {
		progress = NopProgress{}
	}
	return &Orchestrator{
		repo:       repo,
		blobs:      blobs,
		aggregator: metrics.NewAggregator(repo, blobs, aggCfg, logger),
		progress:   progress,
		logger:     logger,
	}
}

// Run measures every selected commit, oldest first. It returns
// errors.ErrNoCommits when the selection is empty. On failure or
// cancellation no partial run is returned.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (*models.Run, error) {
	started := time.Now()
	window := opts.Window
	if window < 1 {
		window = DefaultWindow
	}

	commits, err := o.repo.ListCommits(ctx, opts.List)
	if err != nil {
		return nil, fmt.Errorf("failed to list commits: %w", err)
	}
	if len(commits) == 0 {
		return nil, errors.ErrNoCommits
	}

	o.logger.WithFields(logrus.Fields{
		"source":  opts.Source,
		"ref":     refLabel(opts.List.Ref),
		"commits": len(commits),
		"window":  window,
	}).Info("Starting history analysis")

	run := &models.Run{
		ID:        uuid.NewString(),
		Source:    opts.Source,
		Ref:       refLabel(opts.List.Ref),
		Window:    window,
		StartedAt: started.UTC(),
		Rows:      make([]models.CommitRow, 0, len(commits)),
	}
	avg := metrics.NewRollingAverage(window)
	before := o.blobs.Stats()

	o.progress.Start(len(commits))
	defer o.progress.Finish()

	for i, c := range commits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := o.aggregator.ComputeMetricsForCommit(ctx, c.Hash)
		if err != nil {
			return nil, fmt.Errorf("commit %s: %w", c.ShortHash, err)
		}

		msgLen := MessageLength(c.Message)
		row := models.CommitRow{
			Seq:        i + 1,
			Timestamp:  c.Timestamp.UTC(),
			ShortID:    c.ShortHash,
			NonTestLOC: m.NonTestLOC,
			TotalTests: m.TotalTests,
			DocLOC:     m.DocLOC,
			MsgLen:     msgLen,
			MsgLenAvg:  avg.Add(msgLen),
		}
		run.Rows = append(run.Rows, row)
		o.progress.Advance(i+1, row)
	}

	stats := o.blobs.Stats().Sub(before)
	run.CommitCount = len(run.Rows)
	run.CacheHits = stats.Hits
	run.CacheMisses = stats.Misses
	run.Duration = time.Since(started)

	last, _ := run.Last()
	o.logger.WithFields(logrus.Fields{
		"run_id":          run.ID,
		"commits":         run.CommitCount,
		"duration":        run.Duration.String(),
		"cache_hits":      stats.Hits,
		"cache_misses":    stats.Misses,
		"persistent_hits": stats.PersistentHits,
		"non_test_loc":    last.NonTestLOC,
		"total_tests":     last.TotalTests,
		"doc_loc":         last.DocLOC,
	}).Info("History analysis completed")

	return run, nil
}

// MessageLength counts the characters of a commit message with trailing
// whitespace removed.
func MessageLength(msg string) int {
	return utf8.RuneCountInString(strings.TrimRightFunc(msg, unicode.IsSpace))
}

func refLabel(ref string) string {
	if ref == "" {
		return "HEAD"
	}
	return ref
}

package metrics

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rohankatakam/codetrend/internal/cache"
	"github.com/rohankatakam/codetrend/internal/classify"
	"github.com/rohankatakam/codetrend/internal/git"
	"github.com/rohankatakam/codetrend/internal/models"
)

// DefaultMaxBlobBytes is the size ceiling for counted blobs (1 MiB).
const DefaultMaxBlobBytes int64 = 1 << 20

// AggregatorConfig tunes an Aggregator.
type AggregatorConfig struct {
	MaxBlobBytes int64 // <= 0 means DefaultMaxBlobBytes
	Workers      int   // <= 0 means runtime.NumCPU()
}

// Aggregator sums blob metrics over every file of a commit's tree.
type Aggregator struct {
	repo         git.Repository
	cache        *cache.BlobCache
	maxBlobBytes int64
	workers      int
	logger       *logrus.Logger
}

// NewAggregator creates an aggregator reading from repo and memoizing blob
// metrics in blobs.
func NewAggregator(repo git.Repository, blobs *cache.BlobCache, cfg AggregatorConfig, logger *logrus.Logger) *Aggregator {
	if cfg.MaxBlobBytes <= 0 {
		cfg.MaxBlobBytes = DefaultMaxBlobBytes
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Aggregator{
		repo:         repo,
		cache:        blobs,
		maxBlobBytes: cfg.MaxBlobBytes,
		workers:      cfg.Workers,
		logger:       logger,
	}
}

// CacheKey identifies a blob's metrics. Counting depends on the extension
// as well as the content, so identical content under two extensions is
// counted separately.
func CacheKey(hash, ext string) string {
	return hash + "|" + ext
}

// ComputeMetricsForCommit lists the commit's tree and sums the metrics of
// every counted file. A tree listing failure or cancellation aborts the
// commit; per-blob problems only zero that blob.
func (a *Aggregator) ComputeMetricsForCommit(ctx context.Context, commitID string) (models.CommitMetrics, error) {
	entries, err := a.repo.ListTree(ctx, commitID)
	if err != nil {
		return models.CommitMetrics{}, fmt.Errorf("failed to list files of commit %s: %w", commitID, err)
	}

	var (
		mu     sync.Mutex
		totals models.CommitMetrics
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for _, entry := range entries {
		if gctx.Err() != nil {
			break
		}
		cat, ext, ok := a.selectEntry(entry)
		if !ok {
			continue
		}
		isTest := cat == classify.Code && classify.IsTestPath(entry.Path)

		g.Go(func() error {
			m, err := a.blobMetrics(gctx, entry, ext, cat)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			switch {
			case cat == classify.Doc:
				totals.DocLOC += m.DocLines
			case isTest:
				totals.TotalTests += m.TestCases
			default:
				totals.NonTestLOC += m.CodeLines
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return models.CommitMetrics{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.CommitMetrics{}, err
	}
	return totals, nil
}

// selectEntry decides whether an entry is counted at all.
func (a *Aggregator) selectEntry(entry git.FileEntry) (classify.Category, string, bool) {
	if !entry.IsBlob {
		return classify.None, "", false
	}
	cat := classify.Classify(entry.Path)
	switch cat {
	case classify.None:
		return cat, "", false
	case classify.Code:
		if classify.ShouldSkipPath(entry.Path) {
			return cat, "", false
		}
	}
	if entry.Size != git.UnknownSize && entry.Size > a.maxBlobBytes {
		a.logger.WithFields(logrus.Fields{
			"path": entry.Path,
			"size": entry.Size,
		}).Debug("Skipping oversized blob")
		return cat, "", false
	}
	return cat, classify.Extension(entry.Path), true
}

func (a *Aggregator) blobMetrics(ctx context.Context, entry git.FileEntry, ext string, cat classify.Category) (models.BlobMetrics, error) {
	return a.cache.GetOrCompute(ctx, CacheKey(entry.Hash, ext), func(ctx context.Context) (models.BlobMetrics, error) {
		content, err := a.repo.ReadBlob(ctx, entry.Hash, a.maxBlobBytes)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return models.BlobMetrics{}, ctxErr
			}
			a.logger.WithFields(logrus.Fields{
				"path": entry.Path,
				"blob": entry.Hash,
			}).WithError(err).Debug("Unreadable blob counted as zero")
			return models.BlobMetrics{}, nil
		}
		return ComputeBlobMetrics(content, ext, cat), nil
	})
}

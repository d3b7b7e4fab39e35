package ingestion

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/codetrend/internal/cache"
	"github.com/rohankatakam/codetrend/internal/errors"
	"github.com/rohankatakam/codetrend/internal/git"
	"github.com/rohankatakam/codetrend/internal/logging"
	"github.com/rohankatakam/codetrend/internal/metrics"
	"github.com/rohankatakam/codetrend/internal/models"
)

type memRepo struct {
	commits []git.Commit
	trees   map[string][]git.FileEntry
	blobs   map[string]string
	listErr error
}

func newMemRepo() *memRepo {
	return &memRepo{trees: map[string][]git.FileEntry{}, blobs: map[string]string{}}
}

// commit appends a commit whose tree holds files (path -> content).
func (m *memRepo) commit(msg string, files map[string]string) {
	n := len(m.commits)
	hash := fmt.Sprintf("%040d", n+1)
	m.commits = append(m.commits, git.Commit{
		Hash:      hash,
		ShortHash: hash[:git.ShortHashLen],
		Timestamp: time.Date(2024, 1, 1+n, 12, 0, 0, 0, time.FixedZone("CET", 3600)),
		Message:   msg,
	})
	for path, content := range files {
		bh := "blob:" + content
		m.blobs[bh] = content
		m.trees[hash] = append(m.trees[hash], git.FileEntry{Path: path, Hash: bh, Size: int64(len(content)), IsBlob: true})
	}
}

func (m *memRepo) ListCommits(ctx context.Context, opts git.ListOptions) ([]git.Commit, error) {
	return m.commits, m.listErr
}

func (m *memRepo) ListTree(ctx context.Context, commitID string) ([]git.FileEntry, error) {
	return m.trees[commitID], nil
}

func (m *memRepo) ReadBlob(ctx context.Context, hash string, maxBytes int64) ([]byte, error) {
	return []byte(m.blobs[hash]), nil
}

func newTestOrchestrator(repo git.Repository) *Orchestrator {
	log := logging.Discard()
	return NewOrchestrator(repo, cache.NewBlobCache(nil, log), metrics.AggregatorConfig{Workers: 2}, nil, log)
}

type recordingProgress struct {
	total  int
	seen   []int
	closed bool
}

func (r *recordingProgress) Start(total int)                       { r.total = total }
func (r *recordingProgress) Advance(done int, _ models.CommitRow) { r.seen = append(r.seen, done) }
func (r *recordingProgress) Finish()                               { r.closed = true }

func TestRun_ProducesOneRowPerCommit(t *testing.T) {
	repo := newMemRepo()
	repo.commit("init\n", map[string]string{
		"foo.py": "# comment\nx = 1\ny = 2\n",
	})
	repo.commit("add tests and docs\n\n", map[string]string{
		"foo.py":      "# comment\nx = 1\ny = 2\n",
		"test_foo.py": "def test_one():\n    assert True\n",
		"README.md":   "# Title\n\nSome text.\n",
	})
	repo.commit("héllo", map[string]string{
		"foo.py": "x = 1\n",
	})

	progress := &recordingProgress{}
	log := logging.Discard()
	o := NewOrchestrator(repo, cache.NewBlobCache(nil, log), metrics.AggregatorConfig{}, progress, log)

	run, err := o.Run(context.Background(), RunOptions{Source: "mem", Window: 2})
	require.NoError(t, err)
	require.Len(t, run.Rows, 3)

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "mem", run.Source)
	assert.Equal(t, "HEAD", run.Ref)
	assert.Equal(t, 2, run.Window)
	assert.Equal(t, 3, run.CommitCount)

	first, second, third := run.Rows[0], run.Rows[1], run.Rows[2]
	assert.Equal(t, 1, first.Seq)
	assert.Equal(t, repo.commits[0].ShortHash, first.ShortID)
	assert.Equal(t, time.UTC, first.Timestamp.Location())
	assert.Equal(t, time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC), first.Timestamp)

	assert.Equal(t, models.CommitRow{
		Seq: 2, Timestamp: second.Timestamp, ShortID: second.ShortID,
		NonTestLOC: 2, TotalTests: 1, DocLOC: 2, MsgLen: 18, MsgLenAvg: 11,
	}, second)
	assert.Equal(t, 1, third.NonTestLOC)
	assert.Equal(t, 5, third.MsgLen)
	assert.InDelta(t, 11.5, third.MsgLenAvg, 1e-9)

	assert.Equal(t, 3, progress.total)
	assert.Equal(t, []int{1, 2, 3}, progress.seen)
	assert.True(t, progress.closed)
}

func TestRun_CacheCountersArePerRun(t *testing.T) {
	repo := newMemRepo()
	repo.commit("one", map[string]string{"a.go": "package a\n"})
	repo.commit("two", map[string]string{"a.go": "package a\n", "b.md": "docs\n"})
	repo.commit("three", map[string]string{"a.go": "package a\n\nvar x = 1\n", "b.md": "docs\n"})

	log := logging.Discard()
	shared := cache.NewBlobCache(nil, log)
	o := NewOrchestrator(repo, shared, metrics.AggregatorConfig{Workers: 1}, nil, log)

	first, err := o.Run(context.Background(), RunOptions{Source: "mem"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), first.CacheMisses)
	assert.Equal(t, int64(2), first.CacheHits)

	second, err := o.Run(context.Background(), RunOptions{Source: "mem"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), second.CacheMisses)
	assert.Equal(t, int64(5), second.CacheHits)
	assert.Equal(t, first.Rows[2].NonTestLOC, second.Rows[2].NonTestLOC)
}

func TestRun_NoCommits(t *testing.T) {
	_, err := newTestOrchestrator(newMemRepo()).Run(context.Background(), RunOptions{})
	assert.ErrorIs(t, err, errors.ErrNoCommits)
}

func TestRun_ListFailure(t *testing.T) {
	repo := newMemRepo()
	repo.listErr = stderrors.New("corrupt repository")
	_, err := newTestOrchestrator(repo).Run(context.Background(), RunOptions{})
	assert.ErrorIs(t, err, repo.listErr)
}

func TestRun_Cancelled(t *testing.T) {
	repo := newMemRepo()
	repo.commit("one", map[string]string{"a.go": "package a\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := newTestOrchestrator(repo).Run(ctx, RunOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, run)
}

func TestRun_DefaultWindow(t *testing.T) {
	repo := newMemRepo()
	repo.commit("one", nil)
	run, err := newTestOrchestrator(repo).Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, DefaultWindow, run.Window)
}

func TestMessageLength(t *testing.T) {
	tests := map[string]int{
		"":                 0,
		"fix":              3,
		"fix\n":            3,
		"fix  \n\n\t":      3,
		"subject\n\nbody\n": 13,
		"  lead":           6,
		"héllo wörld":      11,
	}
	for msg, want := range tests {
		assert.Equal(t, want, MessageLength(msg), "%q", msg)
	}
}

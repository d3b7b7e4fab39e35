package models

import (
	"time"
)

// BlobMetrics is the derived, cached result for one distinct blob.
type BlobMetrics struct {
	CodeLines int `json:"code_lines"`
	TestCases int `json:"test_cases"`
	DocLines  int `json:"doc_lines"`
}

// IsZero reports whether all counts are zero
func (b BlobMetrics) IsZero() bool {
	return b == BlobMetrics{}
}

// CommitMetrics holds the per-commit totals produced by the aggregator.
type CommitMetrics struct {
	NonTestLOC int `json:"non_test_loc"`
	TotalTests int `json:"total_tests"`
	DocLOC     int `json:"doc_loc"`
}

// CommitRow is one line of the output series.
type CommitRow struct {
	Seq        int       `json:"seq" db:"seq"`
	Timestamp  time.Time `json:"timestamp" db:"committed_at"`
	ShortID    string    `json:"commit" db:"short_id"`
	NonTestLOC int       `json:"non_test_loc" db:"non_test_loc"`
	TotalTests int       `json:"total_tests" db:"total_tests"`
	DocLOC     int       `json:"doc_loc" db:"doc_loc"`
	MsgLen     int       `json:"commit_msg_len" db:"msg_len"`
	MsgLenAvg  float64   `json:"commit_msg_len_avg" db:"msg_len_avg"`
}

// Run is one complete pass over a repository's history.
type Run struct {
	ID          string        `json:"id" db:"id"`
	Source      string        `json:"source" db:"source"`
	Ref         string        `json:"ref" db:"ref"`
	Window      int           `json:"window" db:"window_size"`
	StartedAt   time.Time     `json:"started_at" db:"started_at"`
	Duration    time.Duration `json:"duration_ns" db:"duration_ns"`
	CommitCount int           `json:"commit_count" db:"commit_count"`
	CacheHits   int64         `json:"cache_hits" db:"cache_hits"`
	CacheMisses int64         `json:"cache_misses" db:"cache_misses"`
	Rows        []CommitRow   `json:"rows"`
}

// Last returns the final row of the run, or false when the run is empty.
func (r *Run) Last() (CommitRow, bool) {
	if len(r.Rows) == 0 {
		return CommitRow{}, false
	}
	return r.Rows[len(r.Rows)-1], true
}

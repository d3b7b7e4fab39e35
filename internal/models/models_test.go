package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunLast(t *testing.T) {
	var empty Run
	_, ok := empty.Last()
	assert.False(t, ok)

	run := Run{Rows: []CommitRow{{Seq: 1, ShortID: "a"}, {Seq: 2, ShortID: "b"}}}
	last, ok := run.Last()
	assert.True(t, ok)
	assert.Equal(t, "b", last.ShortID)
}

func TestBlobMetricsIsZero(t *testing.T) {
	assert.True(t, BlobMetrics{}.IsZero())
	assert.False(t, BlobMetrics{DocLines: 1}.IsZero())
}

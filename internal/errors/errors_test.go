package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeStorage, SeverityHigh, "ignored"))
}

func TestErrorMessageIncludesCause(t *testing.T) {
	cause := fmt.Errorf("exit status 128")
	err := RepositoryError(cause, "list tree")

	assert.Equal(t, "list tree: exit status 128", err.Error())
	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, IsFatal(err))
	assert.Equal(t, ErrorTypeRepository, GetType(err))
}

func TestIsMatchesByType(t *testing.T) {
	a := ValidationError("window must be >= 1")
	b := ValidationErrorf("bad backend %q", "svn")

	assert.True(t, stderrors.Is(a, b))
	assert.False(t, stderrors.Is(a, ConfigError(fmt.Errorf("x"), "load")))
}

func TestGetTypeThroughWrapping(t *testing.T) {
	inner := StorageError(fmt.Errorf("disk full"), "save run")
	outer := fmt.Errorf("analyze: %w", inner)

	assert.Equal(t, ErrorTypeStorage, GetType(outer))
	assert.False(t, IsFatal(outer))
	assert.Equal(t, ErrorTypeInternal, GetType(fmt.Errorf("plain")))
}

func TestNoCommitsSentinel(t *testing.T) {
	err := fmt.Errorf("run: %w", ErrNoCommits)
	assert.True(t, stderrors.Is(err, ErrNoCommits))
	assert.False(t, IsFatal(err))
}

func TestDetailedString(t *testing.T) {
	err := ConfigError(fmt.Errorf("unknown storage type %q", "mongo"), "invalid configuration").WithContext("key", "storage.type")
	s := err.DetailedString()

	assert.Contains(t, s, "[CRITICAL] [CONFIG]")
	assert.Contains(t, s, "storage.type")
	assert.Contains(t, s, "Caused by: unknown storage type")
}

package git

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// UnknownSize marks a FileEntry whose byte size the backend did not report.
const UnknownSize int64 = -1

// ShortHashLen is the length of Commit.ShortHash.
const ShortHashLen = 7

var (
	// ErrBlobTooLarge is returned by ReadBlob when the blob exceeds maxBytes.
	ErrBlobTooLarge = errors.New("blob exceeds size limit")
	// ErrUnknownBackend is returned by Open for an unrecognised backend name.
	ErrUnknownBackend = errors.New("unknown git backend")
)

// Backend names accepted by Open
const (
	BackendGoGit = "gogit"
	BackendCLI   = "cli"
)

// Commit is one entry of the linear history being walked.
type Commit struct {
	Hash      string
	ShortHash string
	Timestamp time.Time // committer time, UTC
	Message   string
}

// FileEntry is one file as it exists in a commit's tree.
type FileEntry struct {
	Path   string // slash separated, relative to the repository root
	Hash   string // blob object id
	Size   int64  // UnknownSize when not reported
	IsBlob bool   // file content; false for submodules and symlinks
}

// ListOptions selects the commits returned by ListCommits.
type ListOptions struct {
	Ref         string    // starting revision, default HEAD
	Since       time.Time // zero = unbounded
	Until       time.Time // zero = unbounded
	MaxCommits  int       // keep only the newest N; 0 = all
	FirstParent bool      // follow only first parents through merges
}

// Repository is the read-only history access the metrics pipeline consumes.
type Repository interface {
	// ListCommits returns the selected commits oldest first.
	ListCommits(ctx context.Context, opts ListOptions) ([]Commit, error)
	// ListTree returns every entry of the commit's tree, recursively.
	ListTree(ctx context.Context, commitID string) ([]FileEntry, error)
	// ReadBlob returns the blob content, or ErrBlobTooLarge when it is
	// bigger than maxBytes.
	ReadBlob(ctx context.Context, hash string, maxBytes int64) ([]byte, error)
}

// Open opens the repository at path with the named backend ("" = gogit).
func Open(path, backend string) (Repository, error) {
	switch backend {
	case "", BackendGoGit:
		return OpenGoGit(path)
	case BackendCLI:
		return OpenCLI(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

func shortHash(h string) string {
	if len(h) > ShortHashLen {
		return h[:ShortHashLen]
	}
	return h
}

func inRange(t time.Time, opts ListOptions) bool {
	if !opts.Since.IsZero() && t.Before(opts.Since) {
		return false
	}
	if !opts.Until.IsZero() && t.After(opts.Until) {
		return false
	}
	return true
}

// newestN keeps the last n commits of an oldest-first slice.
func newestN(commits []Commit, n int) []Commit {
	if n > 0 && len(commits) > n {
		return commits[len(commits)-n:]
	}
	return commits
}

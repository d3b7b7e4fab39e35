package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// CLIRepository shells out to the git binary. It is slower than the go-git
// backend but reads every object format the installed git understands.
type CLIRepository struct {
	path string
}

// OpenCLI verifies that path is inside a git repository.
func OpenCLI(path string) (*CLIRepository, error) {
	r := &CLIRepository{path: path}
	if _, err := r.run(context.Background(), "rev-parse", "--git-dir"); err != nil {
		return nil, fmt.Errorf("failed to open git repository %s: %w", path, err)
	}
	return r, nil
}

// ListCommits runs git log from opts.Ref and returns the selection oldest first.
func (r *CLIRepository) ListCommits(ctx context.Context, opts ListOptions) ([]Commit, error) {
	ref := refOrHead(opts.Ref)
	start, err := r.run(ctx, "rev-parse", "--verify", "--quiet", ref+"^{commit}")
	if err != nil {
		if ref == "HEAD" && !r.hasCommits(ctx) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve %s: %w", ref, err)
	}

	args := []string{"log", "--date-order", "--format=%H%x00%ct%x00%B%x1e"}
	if opts.FirstParent {
		args = append(args, "--first-parent")
	}
	args = append(args, strings.TrimSpace(string(start)))

	out, err := r.run(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to walk history from %s: %w", ref, err)
	}

	var newestFirst []Commit
	for _, rec := range strings.Split(string(out), "\x1e") {
		rec = strings.TrimLeft(rec, "\n")
		if rec == "" {
			continue
		}
		parts := strings.SplitN(rec, "\x00", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("unexpected git log record %q", rec)
		}
		secs, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid commit time %q for %s: %w", parts[1], shortHash(parts[0]), err)
		}
		ts := time.Unix(secs, 0).UTC()
		if !inRange(ts, opts) {
			continue
		}
		newestFirst = append(newestFirst, Commit{
			Hash:      parts[0],
			ShortHash: shortHash(parts[0]),
			Timestamp: ts,
			Message:   parts[2],
		})
	}

	commits := make([]Commit, len(newestFirst))
	for i, c := range newestFirst {
		commits[len(newestFirst)-1-i] = c
	}
	return newestN(commits, opts.MaxCommits), nil
}

const symlinkMode = "120000"

// ListTree parses git ls-tree -r -l -z for the commit.
func (r *CLIRepository) ListTree(ctx context.Context, commitID string) ([]FileEntry, error) {
	out, err := r.run(ctx, "ls-tree", "-r", "-l", "-z", commitID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tree of %s: %w", shortHash(commitID), err)
	}

	var entries []FileEntry
	for _, rec := range bytes.Split(out, []byte{0}) {
		if len(rec) == 0 {
			continue
		}
		// <mode> SP <type> SP <object> SP+ <size> TAB <path>
		meta, path, ok := strings.Cut(string(rec), "\t")
		if !ok {
			return nil, fmt.Errorf("unexpected ls-tree record %q", rec)
		}
		fields := strings.Fields(meta)
		if len(fields) != 4 {
			return nil, fmt.Errorf("unexpected ls-tree record %q", rec)
		}
		fe := FileEntry{
			Path:   path,
			Hash:   fields[2],
			Size:   UnknownSize,
			IsBlob: fields[1] == "blob" && fields[0] != symlinkMode,
		}
		if size, err := strconv.ParseInt(fields[3], 10, 64); err == nil {
			fe.Size = size
		}
		entries = append(entries, fe)
	}
	return entries, nil
}

// ReadBlob checks the size with cat-file -s before reading the content.
func (r *CLIRepository) ReadBlob(ctx context.Context, hash string, maxBytes int64) ([]byte, error) {
	if maxBytes > 0 {
		out, err := r.run(ctx, "cat-file", "-s", hash)
		if err != nil {
			return nil, fmt.Errorf("failed to stat blob %s: %w", shortHash(hash), err)
		}
		size, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid size for blob %s: %w", shortHash(hash), err)
		}
		if size > maxBytes {
			return nil, ErrBlobTooLarge
		}
	}
	out, err := r.run(ctx, "cat-file", "blob", hash)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", shortHash(hash), err)
	}
	return out, nil
}

// hasCommits is false for a freshly initialised repository with an unborn HEAD.
func (r *CLIRepository) hasCommits(ctx context.Context) bool {
	out, err := r.run(ctx, "rev-list", "-n", "1", "--all")
	return err == nil && len(bytes.TrimSpace(out)) > 0
}

func (r *CLIRepository) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.path
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("git %s: %w (stderr: %s)", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

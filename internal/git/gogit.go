package git

import (
	"context"
	"errors"
	"fmt"
	"io"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GoGitRepository reads history in-process with go-git.
type GoGitRepository struct {
	repo *gogit.Repository
}

// OpenGoGit opens the repository at path (a work tree or bare repository).
func OpenGoGit(path string) (*GoGitRepository, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository %s: %w", path, err)
	}
	return &GoGitRepository{repo: repo}, nil
}

// NewGoGitRepository wraps an already opened go-git repository.
func NewGoGitRepository(repo *gogit.Repository) *GoGitRepository {
	return &GoGitRepository{repo: repo}
}

// ListCommits walks back from opts.Ref and returns the selection oldest first.
func (g *GoGitRepository) ListCommits(ctx context.Context, opts ListOptions) ([]Commit, error) {
	start, err := g.resolve(opts.Ref)
	if err != nil {
		return nil, err
	}
	if start.IsZero() {
		return nil, nil
	}

	var newestFirst []Commit
	collect := func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		ts := c.Committer.When.UTC()
		if !inRange(ts, opts) {
			return nil
		}
		newestFirst = append(newestFirst, Commit{
			Hash:      c.Hash.String(),
			ShortHash: shortHash(c.Hash.String()),
			Timestamp: ts,
			Message:   c.Message,
		})
		return nil
	}

	if opts.FirstParent {
		err = walkFirstParent(g.repo, start, collect)
	} else {
		var iter object.CommitIter
		iter, err = g.repo.Log(&gogit.LogOptions{From: start, Order: gogit.LogOrderCommitterTime})
		if err == nil {
			err = iter.ForEach(collect)
			iter.Close()
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to walk history from %s: %w", refOrHead(opts.Ref), err)
	}

	commits := make([]Commit, len(newestFirst))
	for i, c := range newestFirst {
		commits[len(newestFirst)-1-i] = c
	}
	return newestN(commits, opts.MaxCommits), nil
}

// ListTree lists every blob and submodule entry of the commit's tree.
func (g *GoGitRepository) ListTree(ctx context.Context, commitID string) ([]FileEntry, error) {
	commit, err := g.repo.CommitObject(plumbing.NewHash(commitID))
	if err != nil {
		return nil, fmt.Errorf("failed to load commit %s: %w", shortHash(commitID), err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load tree of %s: %w", shortHash(commitID), err)
	}

	var entries []FileEntry
	walker := object.NewTreeWalker(tree, true, nil)
	defer walker.Close()
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name, entry, err := walker.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to walk tree of %s: %w", shortHash(commitID), err)
		}
		if entry.Mode == filemode.Dir {
			continue
		}
		fe := FileEntry{
			Path:   name,
			Hash:   entry.Hash.String(),
			Size:   UnknownSize,
			IsBlob: entry.Mode.IsFile() && entry.Mode != filemode.Symlink,
		}
		if fe.IsBlob {
			if size, err := g.repo.Storer.EncodedObjectSize(entry.Hash); err == nil {
				fe.Size = size
			}
		}
		entries = append(entries, fe)
	}
	return entries, nil
}

// ReadBlob reads a blob, refusing anything larger than maxBytes.
func (g *GoGitRepository) ReadBlob(ctx context.Context, hash string, maxBytes int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	blob, err := g.repo.BlobObject(plumbing.NewHash(hash))
	if err != nil {
		return nil, fmt.Errorf("failed to load blob %s: %w", shortHash(hash), err)
	}
	if maxBytes > 0 && blob.Size > maxBytes {
		return nil, ErrBlobTooLarge
	}
	r, err := blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to open blob %s: %w", shortHash(hash), err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (g *GoGitRepository) resolve(ref string) (plumbing.Hash, error) {
	h, err := g.repo.ResolveRevision(plumbing.Revision(refOrHead(ref)))
	if err != nil {
		if refOrHead(ref) == "HEAD" && errors.Is(err, plumbing.ErrReferenceNotFound) {
			// Unborn HEAD: an empty repository has no history to walk.
			return plumbing.ZeroHash, nil
		}
		return plumbing.ZeroHash, fmt.Errorf("failed to resolve %s: %w", refOrHead(ref), err)
	}
	return *h, nil
}

func walkFirstParent(repo *gogit.Repository, start plumbing.Hash, fn func(*object.Commit) error) error {
	c, err := repo.CommitObject(start)
	for err == nil {
		if err := fn(c); err != nil {
			return err
		}
		if c.NumParents() == 0 {
			return nil
		}
		c, err = c.Parent(0)
	}
	return err
}

func refOrHead(ref string) string {
	if ref == "" {
		return "HEAD"
	}
	return ref
}

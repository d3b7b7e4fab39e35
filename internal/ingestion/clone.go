package ingestion

import (
	"context"
	"os"
	"path/filepath"

	gogit "github.com/go-git/go-git/v5"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/codetrend/internal/errors"
	"github.com/rohankatakam/codetrend/internal/git"
)

// Acquire turns a source argument into a local repository path. Local paths
// are returned as-is. Remote URLs are cloned with full history into a
// temporary directory that cleanup removes. cleanup is never nil.
func Acquire(ctx context.Context, source string, logger *logrus.Logger) (path string, cleanup func(), err error) {
	cleanup = func() {}
	if !git.IsRemoteURL(source) {
		abs, err := filepath.Abs(source)
		if err != nil {
			return "", cleanup, errors.FileSystemErrorf(err, "invalid repository path %s", source)
		}
		if _, err := os.Stat(abs); err != nil {
			return "", cleanup, errors.FileSystemErrorf(err, "repository path %s", source)
		}
		return abs, cleanup, nil
	}

	dir, err := os.MkdirTemp("", "codetrend-"+git.RepoName(source)+"-")
	if err != nil {
		return "", cleanup, errors.FileSystemError(err, "failed to create clone directory")
	}
	cleanup = func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.WithError(err).WithField("dir", dir).Warn("Failed to remove clone directory")
		}
	}

	logger.WithFields(logrus.Fields{
		"url": source,
		"dir": dir,
	}).Info("Cloning repository")

	// Full history: every commit is measured.
	_, err = gogit.PlainCloneContext(ctx, dir, false, &gogit.CloneOptions{
		URL:  source,
		Tags: gogit.NoTags,
	})
	if err != nil {
		cleanup()
		return "", func() {}, errors.RepositoryErrorf(err, "failed to clone %s", source)
	}
	return dir, cleanup, nil
}

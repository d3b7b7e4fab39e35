package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/codetrend/internal/config"
	"github.com/rohankatakam/codetrend/internal/models"
)

// Common errors
var (
	ErrNotFound = errors.New("not found")
)

// Store persists completed runs so their series can be listed, shown and
// re-exported later.
type Store interface {
	// SaveRun stores the run and its rows, replacing a run with the same ID.
	SaveRun(ctx context.Context, run *models.Run) error
	// ListRuns returns run summaries (without rows), newest first.
	ListRuns(ctx context.Context, limit int) ([]*models.Run, error)
	// GetRun returns a run with its rows, or ErrNotFound.
	GetRun(ctx context.Context, id string) (*models.Run, error)

	Close() error
}

// NewStore opens the store selected by cfg.Type. Type "none" returns a nil
// store and no error.
func NewStore(cfg config.StorageConfig, logger *logrus.Logger) (Store, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "sqlite":
		store, err := NewSQLiteStore(cfg.LocalPath, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "postgres":
		store, err := NewPostgresStore(cfg.PostgresDSN, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

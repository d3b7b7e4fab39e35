package storage

import (
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// PostgresStore implements storage using PostgreSQL (for shared history)
type PostgresStore struct {
	*sqlStore
}

// NewPostgresStore creates a new PostgreSQL storage
func NewPostgresStore(dsn string, logger *logrus.Logger) (*PostgresStore, error) {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)

	store := &PostgresStore{&sqlStore{db: db, logger: logger}}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		ref TEXT NOT NULL,
		window_size INTEGER NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		duration_ns BIGINT NOT NULL,
		commit_count INTEGER NOT NULL,
		cache_hits BIGINT NOT NULL,
		cache_misses BIGINT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_rows (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		committed_at TIMESTAMPTZ NOT NULL,
		short_id TEXT NOT NULL,
		non_test_loc INTEGER NOT NULL,
		total_tests INTEGER NOT NULL,
		doc_loc INTEGER NOT NULL,
		msg_len INTEGER NOT NULL,
		msg_len_avg DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (run_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

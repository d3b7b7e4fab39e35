package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/codetrend/internal/models"
)

// sqlStore holds the queries shared by the SQLite and Postgres stores.
// Queries are written with ? placeholders and rebound for the driver.
type sqlStore struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

type rowRecord struct {
	RunID string `db:"run_id"`
	models.CommitRow
}

const runColumns = `id, source, ref, window_size, started_at, duration_ns,
	commit_count, cache_hits, cache_misses`

func (s *sqlStore) SaveRun(ctx context.Context, run *models.Run) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.db.Rebind(`DELETE FROM run_rows WHERE run_id = ?`), run.ID); err != nil {
		return fmt.Errorf("clear run rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.db.Rebind(`DELETE FROM runs WHERE id = ?`), run.ID); err != nil {
		return fmt.Errorf("clear run: %w", err)
	}

	stored := *run
	stored.StartedAt = run.StartedAt.UTC()
	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO runs (`+runColumns+`)
		VALUES (:id, :source, :ref, :window_size, :started_at, :duration_ns,
			:commit_count, :cache_hits, :cache_misses)
	`, &stored)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	query := `
		INSERT INTO run_rows (run_id, seq, committed_at, short_id, non_test_loc,
			total_tests, doc_loc, msg_len, msg_len_avg)
		VALUES (:run_id, :seq, :committed_at, :short_id, :non_test_loc,
			:total_tests, :doc_loc, :msg_len, :msg_len_avg)
	`
	for _, row := range run.Rows {
		rec := rowRecord{RunID: run.ID, CommitRow: row}
		rec.Timestamp = row.Timestamp.UTC()
		if _, err := tx.NamedExecContext(ctx, query, &rec); err != nil {
			return fmt.Errorf("save row %d: %w", row.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"run_id": run.ID,
		"rows":   len(run.Rows),
	}).Debug("Saved run")
	return nil
}

func (s *sqlStore) ListRuns(ctx context.Context, limit int) ([]*models.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []*models.Run
	query := s.db.Rebind(`SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id LIMIT ?`)
	if err := s.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	for _, r := range runs {
		r.StartedAt = r.StartedAt.UTC()
	}
	return runs, nil
}

func (s *sqlStore) GetRun(ctx context.Context, id string) (*models.Run, error) {
	var run models.Run
	err := s.db.GetContext(ctx, &run, s.db.Rebind(`SELECT `+runColumns+` FROM runs WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	run.StartedAt = run.StartedAt.UTC()

	run.Rows = []models.CommitRow{}
	err = s.db.SelectContext(ctx, &run.Rows, s.db.Rebind(`
		SELECT seq, committed_at, short_id, non_test_loc, total_tests, doc_loc,
			msg_len, msg_len_avg
		FROM run_rows WHERE run_id = ? ORDER BY seq
	`), id)
	if err != nil {
		return nil, fmt.Errorf("get run rows: %w", err)
	}
	for i := range run.Rows {
		run.Rows[i].Timestamp = run.Rows[i].Timestamp.UTC()
	}
	return &run, nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

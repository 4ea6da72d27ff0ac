// Package sqlite implements tsdb.Store on an embedded SQLite database, storing
// points column-wise (one row per field) so reads come back in the same shape
// as InfluxDB tables: grouped by field, time ascending within each field.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"soilmon/internal/tsdb"
)

//go:embed sql/upsert-point.sql
var upsertPointSQL string

//go:embed sql/select-range.sql
var selectRangeSQL string

// tsLayout is fixed width so string comparison in SQL matches time order.
const tsLayout = "2006-01-02T15:04:05.000Z07:00"

type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ tsdb.Store = (*Store)(nil)

// New wraps an already migrated database.
func New(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

func formatTS(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

// WritePoint stores all fields of p atomically, truncated to the second.
// Writing the same measurement/timestamp/field again overwrites the value.
func (s *Store) WritePoint(ctx context.Context, p tsdb.Point) error {
	ts := p.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	tsStr := formatTS(ts.Truncate(time.Second))

	names := make([]string, 0, len(p.Fields))
	for name := range p.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin write: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, upsertPointSQL)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare write: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			s.logger.Error("close upsert statement", "error", err)
		}
	}()

	for _, name := range names {
		if _, err := stmt.ExecContext(ctx, p.Measurement, tsStr, name, p.Fields[name]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("write %s.%s: %w", p.Measurement, name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit write: %w", err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, q tsdb.RangeQuery, fn func(tsdb.Row) error) error {
	rows, err := s.db.QueryContext(ctx, selectRangeSQL,
		q.Measurement, formatTS(q.Start), formatTS(q.Stop), q.Field, q.Field)
	if err != nil {
		return fmt.Errorf("query range: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Error("close range rows", "error", err)
		}
	}()

	for rows.Next() {
		var (
			row tsdb.Row
			ts  string
		)
		if err := rows.Scan(&ts, &row.Field, &row.Value, &row.Measurement); err != nil {
			return fmt.Errorf("scan range row: %w", err)
		}
		row.Time, err = time.Parse(tsLayout, ts)
		if err != nil {
			return fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *Store) Ping(ctx context.Context) error {
	var ok int
	if err := s.db.QueryRowContext(ctx, `SELECT 1`).Scan(&ok); err != nil {
		return fmt.Errorf("sqlite ping: %w", err)
	}
	return nil
}

// Close is a no-op; the *sql.DB belongs to the caller.
func (s *Store) Close() error { return nil }

package repository

import (
	"context"
	"fmt"
	"time"

	"soilmon/internal/modules/soil/types"
	"soilmon/internal/tsdb"
)

type SoilRepository interface {
	// WriteSample appends s as one soil_data point. Errors wrap types.ErrWrite.
	WriteSample(ctx context.Context, s types.Sample) error
	// QueryRange returns every raw row in [from, to], optionally for one
	// field. On any store error it returns no rows and an error wrapping
	// types.ErrQuery.
	QueryRange(ctx context.Context, from, to time.Time, field string) ([]types.RawRow, error)
}

type repositoryImpl struct {
	store tsdb.Store
	now   func() time.Time
}

func NewRepository(store tsdb.Store) SoilRepository {
	return &repositoryImpl{store: store, now: time.Now}
}

func (r *repositoryImpl) WriteSample(ctx context.Context, s types.Sample) error {
	ts := s.Time
	if ts.IsZero() {
		ts = r.now()
	}
	p := tsdb.Point{
		Measurement: types.Measurement,
		Fields:      s.Values(),
		Time:        ts.UTC().Truncate(time.Second),
	}
	if err := r.store.WritePoint(ctx, p); err != nil {
		return fmt.Errorf("%w: %w", types.ErrWrite, err)
	}
	return nil
}

func (r *repositoryImpl) QueryRange(ctx context.Context, from, to time.Time, field string) ([]types.RawRow, error) {
	q := tsdb.RangeQuery{
		Measurement: types.Measurement,
		Start:       from,
		Stop:        to,
		Field:       field,
	}
	out := make([]types.RawRow, 0)
	err := r.store.Query(ctx, q, func(row tsdb.Row) error {
		out = append(out, types.RawRow{
			Time:        row.Time.UTC().Format(time.RFC3339Nano),
			Field:       row.Field,
			Value:       row.Value,
			Measurement: row.Measurement,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrQuery, err)
	}
	return out, nil
}

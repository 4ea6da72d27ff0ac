// Package influx implements tsdb.Store on InfluxDB 2.x.
package influx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"soilmon/internal/tsdb"
)

type Options struct {
	URL     string
	Token   string
	Org     string
	Bucket  string
	Timeout time.Duration
}

type Store struct {
	client influxdb2.Client
	writer api.WriteAPIBlocking
	reader api.QueryAPI
	bucket string
	logger *slog.Logger
}

var _ tsdb.Store = (*Store)(nil)

// New creates a client writing with second precision. Writes go through the
// blocking API so a nil error means InfluxDB accepted the point.
func New(opts Options, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	clientOpts := influxdb2.DefaultOptions().SetPrecision(time.Second)
	if opts.Timeout > 0 {
		secs := uint(opts.Timeout / time.Second)
		if secs == 0 {
			secs = 1
		}
		clientOpts.SetHTTPRequestTimeout(secs)
	}
	client := influxdb2.NewClientWithOptions(opts.URL, opts.Token, clientOpts)
	return &Store{
		client: client,
		writer: client.WriteAPIBlocking(opts.Org, opts.Bucket),
		reader: client.QueryAPI(opts.Org),
		bucket: opts.Bucket,
		logger: logger,
	}
}

func (s *Store) WritePoint(ctx context.Context, p tsdb.Point) error {
	fields := make(map[string]interface{}, len(p.Fields))
	for k, v := range p.Fields {
		fields[k] = v
	}
	ts := p.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	point := influxdb2.NewPoint(p.Measurement, nil, fields, ts.Truncate(time.Second))
	if err := s.writer.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("influx write %s: %w", p.Measurement, err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, q tsdb.RangeQuery, fn func(tsdb.Row) error) (err error) {
	flux := q.Flux(s.bucket)
	s.logger.Debug("flux query", "query", flux)

	result, err := s.reader.Query(ctx, flux)
	if err != nil {
		return fmt.Errorf("influx query: %w", err)
	}
	defer func() {
		if closeErr := result.Close(); closeErr != nil {
			s.logger.Error("close influx result", "error", closeErr)
		}
	}()

	for result.Next() {
		rec := result.Record()
		value, ok := toFloat(rec.Value())
		if !ok {
			return fmt.Errorf("influx row %s@%s: unexpected value type %T", rec.Field(), rec.Time(), rec.Value())
		}
		row := tsdb.Row{
			Time:        rec.Time(),
			Field:       rec.Field(),
			Value:       value,
			Measurement: rec.Measurement(),
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	if err := result.Err(); err != nil {
		return fmt.Errorf("influx result: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	ok, err := s.client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("influx ping: %w", err)
	}
	if !ok {
		return errors.New("influx ping: server not ready")
	}
	return nil
}

func (s *Store) Close() error {
	s.client.Close()
	return nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

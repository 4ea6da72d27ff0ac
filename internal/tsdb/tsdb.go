// Package tsdb is the narrow time-series store contract the soil pipeline
// depends on: append one multi-field point, stream a range back as
// one row per field per timestamp.
package tsdb

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Point is one write unit: a timestamp plus float fields under one measurement.
type Point struct {
	Measurement string
	Fields      map[string]float64
	Time        time.Time
}

// Row is the store's native columnar shape.
type Row struct {
	Time        time.Time
	Field       string
	Value       float64
	Measurement string
}

// RangeQuery selects every point of Measurement in [Start, Stop], optionally
// restricted to a single Field.
type RangeQuery struct {
	Measurement string
	Start       time.Time
	Stop        time.Time
	Field       string
}

// Store is implemented by the influx and sqlite backends.
type Store interface {
	// WritePoint appends p and returns only once the write is flushed.
	WritePoint(ctx context.Context, p Point) error
	// Query streams matching rows to fn. A non-nil error from fn or from the
	// store aborts the read.
	Query(ctx context.Context, q RangeQuery, fn func(Row) error) error
	Ping(ctx context.Context) error
	Close() error
}

// Flux renders q as a Flux script against bucket.
func (q RangeQuery) Flux(bucket string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "from(bucket: %s)\n", strconv.Quote(bucket))
	fmt.Fprintf(&b, "  |> range(start: %s, stop: %s)\n",
		q.Start.UTC().Format(time.RFC3339Nano),
		q.Stop.UTC().Format(time.RFC3339Nano),
	)
	fmt.Fprintf(&b, "  |> filter(fn: (r) => r._measurement == %s)\n", strconv.Quote(q.Measurement))
	if q.Field != "" {
		fmt.Fprintf(&b, "  |> filter(fn: (r) => r._field == %s)\n", strconv.Quote(q.Field))
	}
	return b.String()
}

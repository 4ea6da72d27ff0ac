package service

import (
	"context"
	"log/slog"
	"strings"

	"soilmon/internal/metrics"
	"soilmon/internal/modules/soil/export"
	"soilmon/internal/modules/soil/repository"
	"soilmon/internal/modules/soil/types"
)

// Query kinds used as metric labels.
const (
	kindField = "field"
	kindAll   = "all"
	kindCSV   = "csv"
)

type Service struct {
	repository repository.SoilRepository
	filter     *ChangeFilter
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewService wires the soil pipeline. filter may be nil, in which case a
// filter with DefaultThreshold is used; m may be nil to disable metrics.
func NewService(repo repository.SoilRepository, filter *ChangeFilter, m *metrics.Metrics, logger *slog.Logger) *Service {
	if filter == nil {
		filter = NewChangeFilter(DefaultThreshold)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repository: repo, filter: filter, metrics: m, logger: logger}
}

// Filter returns the change filter shared by bus deliveries.
func (s *Service) Filter() *ChangeFilter {
	return s.filter
}

// Save validates and writes one reading received over HTTP. It does not
// consult or update the change filter.
func (s *Service) Save(ctx context.Context, payload []byte) (types.Sample, error) {
	sample, err := ParseSample(payload)
	if err != nil {
		return types.Sample{}, err
	}
	err = s.repository.WriteSample(context.WithoutCancel(ctx), sample)
	s.metrics.RecordWrite("http", err)
	if err != nil {
		return types.Sample{}, err
	}
	return sample, nil
}

// Ingest runs a bus payload through validation and the change filter and
// writes it when accepted. It reports whether a write was issued.
func (s *Service) Ingest(ctx context.Context, payload []byte) (bool, error) {
	sample, err := ParseSample(payload)
	if err != nil {
		s.metrics.RecordIngest(metrics.IngestInvalid)
		return false, err
	}

	if !s.filter.Accept(sample) {
		s.metrics.RecordIngest(metrics.IngestFiltered)
		s.logger.Debug("reading within threshold, skipped",
			"nitrogen", sample.Nitrogen,
			"phosphorus", sample.Phosphorus,
			"potassium", sample.Potassium,
			"ph", sample.PH,
		)
		return false, nil
	}

	err = s.repository.WriteSample(ctx, sample)
	s.metrics.RecordWrite("mqtt", err)
	if err != nil {
		s.metrics.RecordIngest(metrics.IngestFailed)
		return true, err
	}
	s.metrics.RecordIngest(metrics.IngestAccepted)
	return true, nil
}

// Query returns raw rows between the start and end days, optionally for a
// single field. Bad input fails with an error wrapping types.ErrBadRequest
// before the store is touched.
func (s *Service) Query(ctx context.Context, start, end, field string) ([]types.RawRow, error) {
	from, to, err := DayRange(start, end)
	if err != nil {
		return nil, err
	}
	field = strings.TrimSpace(field)
	if field != "" && !types.IsField(field) {
		return nil, types.ErrInvalidField
	}

	kind := kindField
	if field == "" {
		kind = kindAll
	}
	rows, err := s.repository.QueryRange(context.WithoutCancel(ctx), from, to, field)
	s.metrics.RecordQuery(kind, len(rows), err)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Export returns every reading between the start and end days merged to one
// record per timestamp, ready for CSV rendering.
func (s *Service) Export(ctx context.Context, start, end string) ([]types.MergedRecord, error) {
	from, to, err := DayRange(start, end)
	if err != nil {
		return nil, err
	}
	rows, err := s.repository.QueryRange(context.WithoutCancel(ctx), from, to, "")
	s.metrics.RecordQuery(kindCSV, len(rows), err)
	if err != nil {
		return nil, err
	}
	return export.MergeByTimestamp(rows), nil
}

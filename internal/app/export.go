package app

import (
	"context"
	"io"
	"log/slog"

	"soilmon/internal/config"
	"soilmon/internal/modules/soil/export"
	"soilmon/internal/modules/soil/repository"
	"soilmon/internal/modules/soil/service"
)

// Export runs the CSV pipeline once for [start, end] and writes the document
// to w. It returns the number of records written.
func Export(ctx context.Context, cfg config.Config, logger *slog.Logger, start, end string, w io.Writer) (int, error) {
	store, closeStore, err := OpenStore(cfg, logger)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("store close", "error", err)
		}
	}()

	svc := service.NewService(repository.NewRepository(store), nil, nil, logger)
	records, err := svc.Export(ctx, start, end)
	if err != nil {
		return 0, err
	}
	if err := export.WriteCSV(w, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

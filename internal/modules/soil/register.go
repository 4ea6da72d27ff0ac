package soil

import (
	"log/slog"
	"net/http"

	"soilmon/internal/metrics"
	"soilmon/internal/modules/soil/controller"
	"soilmon/internal/modules/soil/repository"
	"soilmon/internal/modules/soil/service"
	"soilmon/internal/tsdb"
)

type Options struct {
	ChangeThreshold float64
	Metrics         *metrics.Metrics
	Logger          *slog.Logger
}

// RegisterFeature mounts the soil routes on mux and, when subscriber is not
// nil, attaches the bus ingest pipeline to it.
func RegisterFeature(mux *http.ServeMux, store tsdb.Store, subscriber service.MessageSubscriber, opts Options) *service.Service {
	soilRepository := repository.NewRepository(store)
	soilService := service.NewService(
		soilRepository,
		service.NewChangeFilter(opts.ChangeThreshold),
		opts.Metrics,
		opts.Logger,
	)
	if subscriber != nil {
		soilService.Register(subscriber)
	}
	soilController := controller.NewSoilController(soilService, opts.Logger)
	soilController.RegisterRoutes(mux)
	return soilService
}

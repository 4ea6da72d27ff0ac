package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"soilmon/internal/config"
	"soilmon/internal/metrics"
)

func NewServer(cfg config.Config, mux *http.ServeMux, m *metrics.Metrics, logger *slog.Logger) *http.Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           corsMiddleware(cfg.CORSAllowedOrigins)(requestLogger(logger, m, mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

package controller

import (
	"log/slog"
	"net/http"

	"soilmon/internal/modules/soil/service"
)

type SoilController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type soilControllerImpl struct {
	service *service.Service
	logger  *slog.Logger
}

func NewSoilController(svc *service.Service, logger *slog.Logger) SoilController {
	if logger == nil {
		logger = slog.Default()
	}
	return &soilControllerImpl{service: svc, logger: logger}
}

func (c *soilControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", c.handleWelcome)
	mux.HandleFunc("POST /sensor", c.handleSave)
	mux.HandleFunc("GET /sensor", c.handleQuery)
	mux.HandleFunc("GET /sensor/all", c.handleQueryAll)
	mux.HandleFunc("GET /sensor/csv", c.handleCSV)
}

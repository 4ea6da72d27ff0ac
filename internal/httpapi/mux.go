package httpapi

import (
	"net/http"

	"soilmon/internal/metrics"
)

func NewMux(store Pinger, m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, store)
	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}
	return mux
}

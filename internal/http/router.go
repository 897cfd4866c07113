// Package http assembles the full router from the feature handlers.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Feature is anything that can mount its routes on the router. Every
// feature handler implements it.
type Feature interface {
	Register(r chi.Router)
}

// NewRouter mounts the feature handlers plus the operational endpoints.
func NewRouter(features ...Feature) chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, f := range features {
		f.Register(r)
	}
	return r
}

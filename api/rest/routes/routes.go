package routes

import (
	"net/http"

	"review-reconciler/api/rest/handlers"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all API routes
func SetupRoutes(
	r *mux.Router,
	runHandler *handlers.RunHandler,
	snapshotHandler *handlers.SnapshotHandler,
	gatherer prometheus.Gatherer,
) {
	api := r.PathPrefix("/v1").Subrouter()

	// Run endpoints
	api.HandleFunc("/analyze", runHandler.Analyze).Methods("POST")
	api.HandleFunc("/runs", runHandler.ListRuns).Methods("GET")
	api.HandleFunc("/runs/{id}", runHandler.GetRun).Methods("GET")
	api.HandleFunc("/runs/{id}/events", runHandler.GetRunEvents).Methods("GET")

	// Passive load of whatever the store holds now
	api.HandleFunc("/snapshot/latest", snapshotHandler.GetLatest).Methods("GET")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")
}

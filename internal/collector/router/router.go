package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)
import "github.com/gorilla/mux"

// CreateRouter builds the collector's HTTP side: the scrape endpoint for
// aggregated and self metrics, and a liveness probe.
func CreateRouter() http.Handler {
	r := mux.NewRouter()

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods("GET")

	return r
}

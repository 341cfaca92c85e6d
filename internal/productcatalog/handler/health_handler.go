package handler

import (
	"net/http"

	"go.uber.org/zap"
)

type HealthResponseDTO struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

func HealthCheckHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(w, HealthResponseDTO{Status: "healthy", Service: "productcatalog"}, logger)
	}
}

package router

import (
	"net/http"

	"github.com/Avi18971911/Emporium/internal/frontend/handler"
	"github.com/Avi18971911/Emporium/internal/frontend/service"
	"github.com/Avi18971911/Emporium/internal/telemetry/middleware"
	"github.com/Avi18971911/Emporium/internal/telemetry/propagation"
	traceService "github.com/Avi18971911/Emporium/internal/telemetry/trace/service"
	"go.uber.org/zap"
)
import "github.com/gorilla/mux"

func CreateRouter(
	frontendService service.FrontendService,
	tracer *traceService.Tracer,
	serverMetrics *middleware.ServerMetrics,
	logger *zap.Logger,
) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.HTTPServer(tracer, propagation.TraceContextPropagator{}, serverMetrics))
	r.Handle("/health", handler.HealthCheckHandler(logger)).Methods("GET")
	r.Handle("/api/products", handler.ProductListHandler(frontendService, logger)).Methods("GET")
	r.Handle("/api/products/{id}", handler.ProductGetHandler(frontendService, logger)).Methods("GET")
	r.Handle("/api/cart/{user_id}/items", handler.CartAddItemHandler(frontendService, logger)).Methods("POST")
	r.Handle("/api/cart/{user_id}", handler.CartViewHandler(frontendService, logger)).Methods("GET")
	r.Handle("/api/cart/{user_id}", handler.CartEmptyHandler(frontendService, logger)).Methods("DELETE")
	return r
}

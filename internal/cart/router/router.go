package router

import (
	"net/http"

	"github.com/Avi18971911/Emporium/internal/cart/handler"
	"github.com/Avi18971911/Emporium/internal/cart/service"
	"github.com/Avi18971911/Emporium/internal/telemetry/middleware"
	"github.com/Avi18971911/Emporium/internal/telemetry/propagation"
	traceService "github.com/Avi18971911/Emporium/internal/telemetry/trace/service"
	"go.uber.org/zap"
)
import "github.com/gorilla/mux"

func CreateRouter(
	cartService service.CartService,
	tracer *traceService.Tracer,
	serverMetrics *middleware.ServerMetrics,
	logger *zap.Logger,
) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.HTTPServer(tracer, propagation.TraceContextPropagator{}, serverMetrics))
	r.Handle("/health", handler.HealthCheckHandler(logger)).Methods("GET")
	r.Handle("/cart/{user_id}/items", handler.CartAddItemHandler(cartService, logger)).Methods("POST")
	r.Handle("/cart/{user_id}", handler.CartGetHandler(cartService, logger)).Methods("GET")
	r.Handle("/cart/{user_id}", handler.CartEmptyHandler(cartService, logger)).Methods("DELETE")
	return r
}

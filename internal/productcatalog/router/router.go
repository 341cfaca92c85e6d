package router

import (
	"net/http"

	"github.com/Avi18971911/Emporium/internal/productcatalog/handler"
	"github.com/Avi18971911/Emporium/internal/productcatalog/service"
	"github.com/Avi18971911/Emporium/internal/telemetry/middleware"
	"github.com/Avi18971911/Emporium/internal/telemetry/propagation"
	traceService "github.com/Avi18971911/Emporium/internal/telemetry/trace/service"
	"go.uber.org/zap"
)
import "github.com/gorilla/mux"

// CreateRouter wires the catalog routes behind the tracing middleware. The
// search route is registered before the id route so that "search" is never
// captured as a product id.
func CreateRouter(
	productService service.ProductService,
	tracer *traceService.Tracer,
	serverMetrics *middleware.ServerMetrics,
	logger *zap.Logger,
) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.HTTPServer(tracer, propagation.TraceContextPropagator{}, serverMetrics))
	r.Handle("/health", handler.HealthCheckHandler(logger)).Methods("GET")
	r.Handle("/products", handler.ProductListHandler(productService, logger)).Methods("GET")
	r.Handle("/products/search", handler.ProductSearchHandler(productService, logger)).Methods("GET")
	r.Handle("/products/{id}", handler.ProductGetHandler(productService, logger)).Methods("GET")
	return r
}

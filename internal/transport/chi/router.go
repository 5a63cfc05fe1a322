package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/glycomeal/internal/metrics"
)

// NewRouter mounts the server's routes behind the standard middleware stack.
// Metrics collectors must be registered before the router serves traffic.
func NewRouter(s *Server, apiKeys []string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	r.Post("/recommendations", s.CreateRecommendation)
	r.Post("/feedback", s.SubmitFeedback)
	r.Get("/feedback/export", s.ExportFeedback)
	r.Get("/rankings/{category}", s.GetRanking)
	r.Post("/instructions", s.CreateInstructions)
	r.Post("/questions", s.AnswerQuestion)
	r.Put("/catalog", s.PutCatalog)
	r.Get("/usage", s.GetUsage)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	return r
}

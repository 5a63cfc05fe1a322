// Package chi exposes the meal engine over HTTP.
package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/glycomeal/internal/domain"
	dombatch "github.com/kailas-cloud/glycomeal/internal/domain/batch"
	"github.com/kailas-cloud/glycomeal/internal/domain/recipe"
	domusage "github.com/kailas-cloud/glycomeal/internal/domain/usage"
	"github.com/kailas-cloud/glycomeal/internal/logger"
	"github.com/kailas-cloud/glycomeal/internal/usecase/advice"
	"github.com/kailas-cloud/glycomeal/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/glycomeal/internal/usecase/health"
	"github.com/kailas-cloud/glycomeal/internal/usecase/instructions"
)

// Ranking listing bounds.
const (
	DefaultRankingLimit = 10
	MaxRankingLimit     = 100
)

// DefaultSearchTimeout bounds one recommendation search.
const DefaultSearchTimeout = 10 * time.Second

// maxCatalogBytes bounds a PUT /catalog body.
const maxCatalogBytes = 8 << 20

// Services groups the use cases the server dispatches to. Instructions and Advice may be nil.
type Services struct {
	Recommend    Recommender
	Feedback     FeedbackRecorder
	Rankings     RankingReader
	Instructions InstructionWriter
	Advice       Advisor
	Catalog      CatalogImporter
	Usage        UsageReporter
	Health       HealthChecker
}

// Server holds the HTTP handlers.
type Server struct {
	svc           Services
	searchTimeout time.Duration
	logger        *zap.Logger
}

// NewServer creates an HTTP API server. A zero searchTimeout uses DefaultSearchTimeout.
func NewServer(svc Services, searchTimeout time.Duration, logger *zap.Logger) *Server {
	if searchTimeout <= 0 {
		searchTimeout = DefaultSearchTimeout
	}
	return &Server{svc: svc, searchTimeout: searchTimeout, logger: logger}
}

// CreateRecommendation handles POST /recommendations.
func (s *Server) CreateRecommendation(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	domReq, err := req.toDomain()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.searchTimeout)
	defer cancel()

	rec, err := s.svc.Recommend.Recommend(ctx, domReq)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recommendationToResponse(rec))
}

// SubmitFeedback handles POST /feedback.
func (s *Server) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.svc.Feedback.Submit(r.Context(), req.toDomain())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FeedbackResponse{Updates: res.Updates, GlucoseID: res.GlucoseID})
}

// ExportFeedback handles GET /feedback/export.
func (s *Server) ExportFeedback(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.svc.Feedback.Export(r.Context(), &buf); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="glucose_log.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// GetRanking handles GET /rankings/{category}.
func (s *Server) GetRanking(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")

	var k *int
	if err := runtime.BindQueryParameter("form", true, false, "k", r.URL.Query(), &k); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid parameter k")
		return
	}
	limit := DefaultRankingLimit
	if k != nil {
		if *k <= 0 || *k > MaxRankingLimit {
			writeError(w, http.StatusBadRequest, CodeValidationFailed,
				fmt.Sprintf("k must be between 1 and %d", MaxRankingLimit))
			return
		}
		limit = *k
	}

	entries, err := s.svc.Rankings.Top(recipe.Role(category), limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	items := make([]RankingItem, len(entries))
	for i, e := range entries {
		items[i] = RankingItem{Recipe: e.Name, Score: e.Score}
	}
	writeJSON(w, http.StatusOK, RankingResponse{Category: category, Items: items})
}

// CreateInstructions handles POST /instructions.
func (s *Server) CreateInstructions(w http.ResponseWriter, r *http.Request) {
	if s.svc.Instructions == nil {
		s.handleDomainError(w, r, domain.ErrNotImplemented)
		return
	}
	var req InstructionsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithLLMUsage(r.Context())
	res, err := s.svc.Instructions.Generate(ctx, instructions.Request{
		Recipes:  req.Recipes,
		Ratios:   req.Ratios,
		MealType: req.MealType,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	setLLMHeaders(w, usage)
	writeJSON(w, http.StatusOK, res)
}

// AnswerQuestion handles POST /questions.
func (s *Server) AnswerQuestion(w http.ResponseWriter, r *http.Request) {
	if s.svc.Advice == nil {
		s.handleDomainError(w, r, domain.ErrNotImplemented)
		return
	}
	var req QuestionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithLLMUsage(r.Context())
	res, err := s.svc.Advice.Answer(ctx, advice.Request{
		Question:       req.Question,
		Profile:        req.Profile,
		DiabetesType:   req.DiabetesType,
		PreMealGlucose: req.PreMealGlucose,
		PreMealInsulin: req.PreMealInsulin,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	setLLMHeaders(w, usage)
	writeJSON(w, http.StatusOK, res)
}

// PutCatalog handles PUT /catalog. The body is YAML or JSON.
func (s *Server) PutCatalog(w http.ResponseWriter, r *http.Request) {
	doc, err := catalog.Parse(http.MaxBytesReader(w, r.Body, maxCatalogBytes))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	results, err := s.svc.Catalog.Import(r.Context(), doc)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := CatalogResponse{Items: make([]BatchResultItem, len(results))}
	for i, res := range results {
		resp.Items[i] = batchResultToItem(res)
		if res.Status() == dombatch.StatusOK {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetUsage handles GET /usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	var raw *string
	if err := runtime.BindQueryParameter("form", true, false, "period", r.URL.Query(), &raw); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid parameter period")
		return
	}
	p := ""
	if raw != nil {
		p = *raw
	}
	period, err := domusage.ParsePeriod(p)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, usageToResponse(s.svc.Usage.GetReport(r.Context(), period)))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.svc.Health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func setLLMHeaders(w http.ResponseWriter, usage *domain.LLMUsage) {
	if usage == nil {
		return
	}
	w.Header().Set("X-LLM-Tokens", strconv.Itoa(usage.TotalTokens))
	if usage.Cached {
		w.Header().Set("X-LLM-Cache", "hit")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// errorMapping binds a sentinel to its HTTP status and code, most specific first.
var errorMapping = []struct {
	sentinel error
	status   int
	code     ErrorCode
}{
	{domain.ErrValidation, http.StatusBadRequest, CodeValidationFailed},
	{domain.ErrNotFound, http.StatusNotFound, CodeNotFound},
	{domain.ErrNoStaples, http.StatusServiceUnavailable, CodeNoStaples},
	{domain.ErrPredictorFailure, http.StatusBadGateway, CodePredictorFailure},
	{domain.ErrLLMQuotaExceeded, http.StatusPaymentRequired, CodeLLMQuotaExceeded},
	{domain.ErrLLMProviderError, http.StatusBadGateway, CodeLLMProviderError},
	{domain.ErrNotImplemented, http.StatusNotImplemented, CodeNotImplemented},
	{context.DeadlineExceeded, http.StatusServiceUnavailable, CodeTimeout},
}

// classify returns the code and status for err, falling back to 500.
func classify(err error) (ErrorCode, int) {
	for _, m := range errorMapping {
		if errors.Is(err, m.sentinel) {
			return m.code, m.status
		}
	}
	return CodeInternalError, http.StatusInternalServerError
}

// clientMessage exposes validation details and sentinel texts, never internal errors.
func clientMessage(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	for _, m := range errorMapping {
		if errors.Is(err, m.sentinel) {
			return m.sentinel.Error()
		}
	}
	return "internal error"
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	code, status := classify(err)
	if status == http.StatusInternalServerError {
		log.Error("internal error", zap.Error(err))
	} else {
		log.Warn("domain error", zap.String("code", string(code)), zap.Error(err))
	}
	writeError(w, status, code, clientMessage(err))
}

package chi

import (
	"time"

	"github.com/kailas-cloud/glycomeal/internal/domain"
	dombatch "github.com/kailas-cloud/glycomeal/internal/domain/batch"
	domfb "github.com/kailas-cloud/glycomeal/internal/domain/feedback"
	"github.com/kailas-cloud/glycomeal/internal/domain/needs"
	"github.com/kailas-cloud/glycomeal/internal/domain/nutrient"
	"github.com/kailas-cloud/glycomeal/internal/domain/recommendation"
	domusage "github.com/kailas-cloud/glycomeal/internal/domain/usage"
	"github.com/kailas-cloud/glycomeal/internal/usecase/feedback"
	"github.com/kailas-cloud/glycomeal/internal/usecase/preference"
	"github.com/kailas-cloud/glycomeal/internal/usecase/recommend"
)

// ErrorCode is a machine-readable error kind.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	CodeBadRequest       ErrorCode = "bad_request"
	CodeUnauthorized     ErrorCode = "unauthorized"
	CodeValidationFailed ErrorCode = "validation_failed"
	CodeNotFound         ErrorCode = "not_found"
	CodeNoStaples        ErrorCode = "no_staples"
	CodePredictorFailure ErrorCode = "predictor_failure"
	CodeLLMProviderError ErrorCode = "llm_provider_error"
	CodeLLMQuotaExceeded ErrorCode = "llm_quota_exceeded"
	CodeNotImplemented   ErrorCode = "not_implemented"
	CodeTimeout          ErrorCode = "timeout"
	CodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// RecommendRequest carries either explicit needs or a body profile with a meal type.
type RecommendRequest struct {
	Needs          *nutrient.Needs `json:"needs,omitempty"`
	Profile        *needs.Profile  `json:"profile,omitempty"`
	MealType       needs.Meal      `json:"meal_type,omitempty"`
	PreMealGlucose float64         `json:"pre_meal_glucose,omitempty"`
}

func (r RecommendRequest) toDomain() (recommend.Request, error) {
	switch {
	case r.Needs != nil && r.Profile != nil:
		return recommend.Request{}, domain.NewValidationError("needs", "give either needs or profile, not both")
	case r.Needs != nil:
		return recommend.Request{Needs: *r.Needs, PreMealGlucose: r.PreMealGlucose}, nil
	case r.Profile != nil:
		meal := r.MealType
		if meal == "" {
			meal = needs.Lunch
		}
		n, err := needs.ForMeal(*r.Profile, meal)
		if err != nil {
			return recommend.Request{}, err
		}
		return recommend.Request{Needs: n, PreMealGlucose: r.PreMealGlucose}, nil
	default:
		return recommend.Request{}, domain.NewValidationError("needs", "needs or profile is required")
	}
}

// Scores is the flat score block of a recommendation.
type Scores struct {
	HealthScore         float64    `json:"health_score"`
	GlucoseScore        float64    `json:"glucose_score"`
	NutrientScore       float64    `json:"nutrient_score"`
	Energy              float64    `json:"energy"`
	PredictedGlucose120 float64    `json:"predicted_glucose_120"`
	PredictedGlucose    [3]float64 `json:"predicted_glucose"`
	Carb                float64    `json:"carb"`
	Protein             float64    `json:"protein"`
	Fat                 float64    `json:"fat"`
	Fiber               float64    `json:"fiber"`
}

// RecommendResponse is the body of POST /recommendations.
type RecommendResponse struct {
	Recipes      [3]string  `json:"recipes"`
	Ratios       [3]float64 `json:"ratios"`
	Scores       Scores     `json:"scores"`
	Attempts     int        `json:"attempts"`
	Outcome      string     `json:"outcome"`
	ThresholdMet bool       `json:"threshold_met"`
}

func recommendationToResponse(r recommendation.Recommendation) RecommendResponse {
	return RecommendResponse{
		Recipes: r.Recipes,
		Ratios:  r.Ratios,
		Scores: Scores{
			HealthScore:         r.Score.Health,
			GlucoseScore:        r.Score.Glucose,
			NutrientScore:       r.Score.Nutrient,
			Energy:              r.Energy(),
			PredictedGlucose120: r.PredictedGlucose120(),
			PredictedGlucose:    r.Score.Predicted,
			Carb:                r.Nutrition.Carb,
			Protein:             r.Nutrition.Protein,
			Fat:                 r.Nutrition.Fat,
			Fiber:               r.Nutrition.Fiber,
		},
		Attempts:     r.Attempts,
		Outcome:      string(r.Outcome),
		ThresholdMet: r.ThresholdMet(),
	}
}

// GlucoseReading is the measured response part of a feedback session.
type GlucoseReading struct {
	PreMealGlucose float64          `json:"pre_meal_glucose"`
	Post60         float64          `json:"post_meal_glucose_60"`
	Post120        float64          `json:"post_meal_glucose_120"`
	Post180        float64          `json:"post_meal_glucose_180"`
	Nutrition      nutrient.Profile `json:"nutrition"`
}

// FeedbackRequest is the body of POST /feedback.
type FeedbackRequest struct {
	Ratings []domfb.Rating  `json:"ratings"`
	Glucose *GlucoseReading `json:"glucose,omitempty"`
}

func (r FeedbackRequest) toDomain() feedback.Session {
	sess := feedback.Session{Ratings: r.Ratings}
	if g := r.Glucose; g != nil {
		sess.Glucose = &domfb.GlucoseEntry{
			PreMealGlucose: g.PreMealGlucose,
			Nutrition:      g.Nutrition,
			Post60:         g.Post60,
			Post120:        g.Post120,
			Post180:        g.Post180,
		}
	}
	return sess
}

// FeedbackResponse is the body of a successful POST /feedback.
type FeedbackResponse struct {
	Updates   []preference.Result `json:"updates"`
	GlucoseID string              `json:"glucose_id,omitempty"`
}

// RankingItem is one recipe in a ranking listing.
type RankingItem struct {
	Recipe string  `json:"recipe"`
	Score  float64 `json:"score"`
}

// RankingResponse is the body of GET /rankings/{category}.
type RankingResponse struct {
	Category string        `json:"category"`
	Items    []RankingItem `json:"items"`
}

// InstructionsRequest is the body of POST /instructions.
type InstructionsRequest struct {
	Recipes  []string   `json:"recipes"`
	Ratios   []float64  `json:"ratios"`
	MealType needs.Meal `json:"meal_type,omitempty"`
}

// QuestionRequest is the body of POST /questions.
type QuestionRequest struct {
	Question       string        `json:"question"`
	Profile        needs.Profile `json:"profile"`
	DiabetesType   string        `json:"diabetes_type,omitempty"`
	PreMealGlucose float64       `json:"pre_meal_glucose,omitempty"`
	PreMealInsulin float64       `json:"pre_meal_insulin,omitempty"`
}

// BatchResultItem is the outcome of one catalog recipe.
type BatchResultItem struct {
	Name   string         `json:"name"`
	Status string         `json:"status"`
	Error  *ErrorResponse `json:"error,omitempty"`
}

// CatalogResponse is the body of PUT /catalog.
type CatalogResponse struct {
	Items     []BatchResultItem `json:"items"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

func batchResultToItem(r dombatch.Result) BatchResultItem {
	item := BatchResultItem{Name: r.Name(), Status: string(r.Status())}
	if r.Err() != nil {
		code, _ := classify(r.Err())
		item.Error = &ErrorResponse{Code: code, Message: clientMessage(r.Err())}
	}
	return item
}

// BudgetStatus is the token budget block of a usage report.
type BudgetStatus struct {
	TokensLimit     int64      `json:"tokens_limit"`
	TokensRemaining int64      `json:"tokens_remaining"`
	IsExhausted     bool       `json:"is_exhausted"`
	ResetsAt        *time.Time `json:"resets_at,omitempty"`
}

// UsageResponse is the body of GET /usage.
type UsageResponse struct {
	Period        string       `json:"period"`
	PeriodStartAt *time.Time   `json:"period_start_at,omitempty"`
	PeriodEndAt   *time.Time   `json:"period_end_at,omitempty"`
	TokensUsed    int64        `json:"tokens_used"`
	Budget        BudgetStatus `json:"budget"`
}

func usageToResponse(report domusage.Report) UsageResponse {
	resp := UsageResponse{
		Period:     string(report.Period()),
		TokensUsed: report.TokensUsed(),
		Budget: BudgetStatus{
			TokensLimit:     report.Budget().TokensLimit(),
			TokensRemaining: report.Budget().TokensRemaining(),
			IsExhausted:     report.Budget().IsExhausted(),
		},
	}
	if report.PeriodStart() > 0 {
		start := time.UnixMilli(report.PeriodStart()).UTC()
		end := time.UnixMilli(report.PeriodEnd()).UTC()
		resp.PeriodStartAt = &start
		resp.PeriodEndAt = &end
	}
	if report.Budget().ResetsAt() > 0 {
		resetsAt := time.UnixMilli(report.Budget().ResetsAt()).UTC()
		resp.Budget.ResetsAt = &resetsAt
	}
	return resp
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

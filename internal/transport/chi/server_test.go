package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"testing"

	"github.com/kailas-cloud/glycomeal/internal/domain"
	"github.com/kailas-cloud/glycomeal/internal/domain/batch"
	"github.com/kailas-cloud/glycomeal/internal/domain/health"
	"github.com/kailas-cloud/glycomeal/internal/domain/nutrient"
	"github.com/kailas-cloud/glycomeal/internal/domain/recipe"
	"github.com/kailas-cloud/glycomeal/internal/domain/recommendation"
	domusage "github.com/kailas-cloud/glycomeal/internal/domain/usage"
	"github.com/kailas-cloud/glycomeal/internal/usecase/advice"
	"github.com/kailas-cloud/glycomeal/internal/usecase/feedback"
	healthuc "github.com/kailas-cloud/glycomeal/internal/usecase/health"
	"github.com/kailas-cloud/glycomeal/internal/usecase/instructions"
	"github.com/kailas-cloud/glycomeal/internal/usecase/preference"
	"github.com/kailas-cloud/glycomeal/internal/usecase/ranking"
)

func usageFromCtx(ctx context.Context, tokens int) {
	domain.LLMUsageFromContext(ctx).AddTokens(tokens)
}

func decodeBody[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return v
}

func TestCreateRecommendation_ExplicitNeeds(t *testing.T) {
	ts := newTestServer(t)
	ts.recommend.res = recommendation.Recommendation{
		Combination: recommendation.Combination{
			Recipes:   [3]string{"Rice", "Broccoli", "Tofu"},
			Ratios:    nutrient.Ratios{0.675, 0.5625, 1},
			Nutrition: nutrient.Profile{Carb: 60, Protein: 20, Fat: 10, Fiber: 5},
			Score:     health.Score{Health: 2.1, Glucose: 9.333, Nutrient: 6.5, Predicted: health.Prediction{7.5, 6.0, 5.5}},
		},
		Outcome:  recommendation.Accepted,
		Attempts: 3,
	}

	rr := ts.do(http.MethodPost, "/recommendations",
		`{"needs":{"carb":90,"protein":36,"fat":24},"pre_meal_glucose":6.1}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	if ts.recommend.got.Needs.Carb != 90 || ts.recommend.got.PreMealGlucose != 6.1 {
		t.Errorf("unexpected request: %+v", ts.recommend.got)
	}

	resp := decodeBody[RecommendResponse](t, rr.Body.Bytes())
	if resp.Recipes[2] != "Tofu" || resp.Outcome != "accepted" || !resp.ThresholdMet || resp.Attempts != 3 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Scores.PredictedGlucose120 != 6.0 || resp.Scores.Energy != 60*4+20*4+10*9 {
		t.Errorf("unexpected scores: %+v", resp.Scores)
	}
}

func TestCreateRecommendation_Profile(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(http.MethodPost, "/recommendations",
		`{"profile":{"height":170,"weight":70,"age":40,"gender":"male","activity_level":"sedentary"},"meal_type":"breakfast"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	// BMR = 700 + 1062.5 - 200 + 5 = 1567.5; TDEE ×1.2 = 1881; breakfast 30% = 564.3 kcal.
	wantCarb := 564.3 * 0.5 / 4
	if got := ts.recommend.got.Needs.Carb; math.Abs(got-wantCarb) > 1e-9 {
		t.Errorf("carb need = %v, want %v", got, wantCarb)
	}
}

func TestCreateRecommendation_BadInput(t *testing.T) {
	ts := newTestServer(t)
	cases := map[string]string{
		"malformed":   `{"needs":`,
		"neither":     `{}`,
		"both":        `{"needs":{"carb":1},"profile":{"height":1,"weight":1,"age":1,"gender":"male"}}`,
		"bad profile": `{"profile":{"height":0,"weight":70,"age":40,"gender":"male"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if rr := ts.do(http.MethodPost, "/recommendations", body); rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, body %s", rr.Code, rr.Body)
			}
		})
	}
}

func TestCreateRecommendation_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   ErrorCode
	}{
		{domain.NewValidationError("needs.carb", "must be non-negative"), http.StatusBadRequest, CodeValidationFailed},
		{fmt.Errorf("snapshot: %w", domain.ErrNoStaples), http.StatusServiceUnavailable, CodeNoStaples},
		{fmt.Errorf("predict: %w", domain.ErrPredictorFailure), http.StatusBadGateway, CodePredictorFailure},
		{context.DeadlineExceeded, http.StatusServiceUnavailable, CodeTimeout},
		{errors.New("redis: connection reset"), http.StatusInternalServerError, CodeInternalError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			ts := newTestServer(t)
			ts.recommend.err = tt.err
			rr := ts.do(http.MethodPost, "/recommendations", `{"needs":{"carb":1,"protein":1,"fat":1}}`)
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d", rr.Code, tt.status)
			}
			resp := decodeBody[ErrorResponse](t, rr.Body.Bytes())
			if resp.Code != tt.code {
				t.Errorf("code = %s, want %s", resp.Code, tt.code)
			}
			if strings.Contains(resp.Message, "redis") {
				t.Errorf("internal detail leaked: %q", resp.Message)
			}
		})
	}
}

func TestSubmitFeedback(t *testing.T) {
	ts := newTestServer(t)
	ts.feedback.res = feedback.Result{
		Updates:   []preference.Result{{Recipe: "Rice", Score: 3.2, Reranked: true}},
		GlucoseID: "abc",
	}

	rr := ts.do(http.MethodPost, "/feedback", `{
		"ratings":[{"recipe":"Rice","rating":8}],
		"glucose":{"pre_meal_glucose":5.5,"post_meal_glucose_60":8,"post_meal_glucose_120":7,"post_meal_glucose_180":6,
			"nutrition":{"carb":60,"protein":20,"fat":10,"fiber":4}}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	got := ts.feedback.got
	if len(got.Ratings) != 1 || got.Ratings[0].Value != 8 {
		t.Errorf("ratings = %+v", got.Ratings)
	}
	if got.Glucose == nil || got.Glucose.Post120 != 7 || got.Glucose.Nutrition.Carb != 60 {
		t.Errorf("glucose = %+v", got.Glucose)
	}
	resp := decodeBody[FeedbackResponse](t, rr.Body.Bytes())
	if resp.GlucoseID != "abc" || len(resp.Updates) != 1 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestSubmitFeedback_UnknownRecipe(t *testing.T) {
	ts := newTestServer(t)
	ts.feedback.err = fmt.Errorf("recipe Ghost: %w", domain.ErrNotFound)
	if rr := ts.do(http.MethodPost, "/feedback", `{"ratings":[{"recipe":"Ghost","rating":5}]}`); rr.Code != http.StatusNotFound {
		t.Errorf("status = %d", rr.Code)
	}
}

func TestExportFeedback(t *testing.T) {
	ts := newTestServer(t)
	ts.feedback.csv = "Pre_Meal_Glucose,Carb\n5.5,60\n"

	rr := ts.do(http.MethodGet, "/feedback/export", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type = %q", ct)
	}
	if rr.Body.String() != ts.feedback.csv {
		t.Errorf("body = %q", rr.Body)
	}

	ts.feedback.exportErr = domain.ErrNotImplemented
	if rr := ts.do(http.MethodGet, "/feedback/export", ""); rr.Code != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", rr.Code)
	}
}

func TestGetRanking(t *testing.T) {
	ts := newTestServer(t)
	ts.rankings.entries = []ranking.Entry{{Name: "Rice", Score: 0.9}, {Name: "Noodles", Score: 0.7}}

	rr := ts.do(http.MethodGet, "/rankings/staple?k=2", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	if ts.rankings.gotRole != recipe.RoleStaple || ts.rankings.gotK != 2 {
		t.Errorf("Top called with %q, %d", ts.rankings.gotRole, ts.rankings.gotK)
	}
	resp := decodeBody[RankingResponse](t, rr.Body.Bytes())
	if len(resp.Items) != 2 || resp.Items[0].Recipe != "Rice" {
		t.Errorf("unexpected items: %+v", resp.Items)
	}
}

func TestGetRanking_DefaultAndBadK(t *testing.T) {
	ts := newTestServer(t)
	if rr := ts.do(http.MethodGet, "/rankings/protein", ""); rr.Code != http.StatusOK || ts.rankings.gotK != DefaultRankingLimit {
		t.Errorf("status = %d, k = %d", rr.Code, ts.rankings.gotK)
	}
	for _, q := range []string{"k=abc", "k=0", "k=101"} {
		if rr := ts.do(http.MethodGet, "/rankings/protein?"+q, ""); rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", q, rr.Code)
		}
	}

	ts.rankings.err = domain.NewValidationError("category", "unknown")
	if rr := ts.do(http.MethodGet, "/rankings/dessert", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("unknown category status = %d", rr.Code)
	}
}

func TestCreateInstructions(t *testing.T) {
	ts := newTestServer(t)
	ts.instructions.res = instructions.Result{Text: "1. Boil."}
	ts.instructions.tokens = 42

	rr := ts.do(http.MethodPost, "/instructions", `{"recipes":["Rice"],"ratios":[1.2],"meal_type":"dinner"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	if ts.instructions.got.MealType != "dinner" || ts.instructions.got.Ratios[0] != 1.2 {
		t.Errorf("unexpected request: %+v", ts.instructions.got)
	}
	if rr.Header().Get("X-LLM-Tokens") != "42" {
		t.Errorf("X-LLM-Tokens = %q", rr.Header().Get("X-LLM-Tokens"))
	}
}

func TestCreateInstructions_Errors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domain.ErrLLMQuotaExceeded, http.StatusPaymentRequired},
		{fmt.Errorf("chat: %w", domain.ErrLLMProviderError), http.StatusBadGateway},
		{domain.ErrNotImplemented, http.StatusNotImplemented},
	}
	for _, tt := range tests {
		ts := newTestServer(t)
		ts.instructions.err = tt.err
		if rr := ts.do(http.MethodPost, "/instructions", `{"recipes":["Rice"],"ratios":[1]}`); rr.Code != tt.status {
			t.Errorf("%v: status = %d, want %d", tt.err, rr.Code, tt.status)
		}
	}
}

func TestAnswerQuestion(t *testing.T) {
	ts := newTestServer(t)
	ts.advice.res = advice.Result{Answer: "Eat it with protein."}
	ts.advice.tokens = 17

	rr := ts.do(http.MethodPost, "/questions", `{"question":"Is oatmeal ok?","profile":{"height":175,"weight":80,"age":45,"gender":"male"},"diabetes_type":"type 2","pre_meal_glucose":6.1}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	got := ts.advice.got
	if got.Question != "Is oatmeal ok?" || got.Profile.WeightKg != 80 || got.DiabetesType != "type 2" || got.PreMealGlucose != 6.1 {
		t.Errorf("unexpected request: %+v", got)
	}
	if !strings.Contains(rr.Body.String(), `"answer":"Eat it with protein."`) {
		t.Errorf("body = %s", rr.Body)
	}
	if rr.Header().Get("X-LLM-Tokens") != "17" {
		t.Errorf("X-LLM-Tokens = %q", rr.Header().Get("X-LLM-Tokens"))
	}
}

func TestAnswerQuestion_Errors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domain.NewValidationError("question", "must not be empty"), http.StatusBadRequest},
		{domain.ErrLLMQuotaExceeded, http.StatusPaymentRequired},
		{domain.ErrNotImplemented, http.StatusNotImplemented},
	}
	for _, tt := range tests {
		ts := newTestServer(t)
		ts.advice.err = tt.err
		if rr := ts.do(http.MethodPost, "/questions", `{"question":"?"}`); rr.Code != tt.status {
			t.Errorf("%v: status = %d, want %d", tt.err, rr.Code, tt.status)
		}
	}
}

func TestPutCatalog(t *testing.T) {
	ts := newTestServer(t)
	ts.catalog.results = []batch.Result{
		batch.NewOK("Rice"),
		batch.NewError("Ghost", domain.NewValidationError("ingredients[0]", "unknown ingredient")),
	}

	body := `
ingredients:
  - {name: rice, carb: 28, protein: 2.7, fat: 0.3, fiber: 0.4, types: [Staple]}
recipes:
  - name: Rice
    category: Staple
    ingredients: [{name: rice, weight: 150}]
`
	rr := ts.do(http.MethodPut, "/catalog", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	if len(ts.catalog.got.Recipes) != 1 || ts.catalog.got.Recipes[0].Ingredients[0].Weight != 150 {
		t.Errorf("parsed document = %+v", ts.catalog.got)
	}
	resp := decodeBody[CatalogResponse](t, rr.Body.Bytes())
	if resp.Succeeded != 1 || resp.Failed != 1 {
		t.Errorf("unexpected counts: %+v", resp)
	}
	if resp.Items[1].Error == nil || resp.Items[1].Error.Code != CodeValidationFailed {
		t.Errorf("item error = %+v", resp.Items[1].Error)
	}
}

func TestPutCatalog_BadDocument(t *testing.T) {
	ts := newTestServer(t)
	if rr := ts.do(http.MethodPut, "/catalog", "recipes: [{name: Rice, flavour: sweet}]"); rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rr.Code)
	}
}

func TestGetUsage(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(http.MethodGet, "/usage?period=month", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	if ts.usage.got != domusage.PeriodMonth {
		t.Errorf("period = %q", ts.usage.got)
	}
	resp := decodeBody[UsageResponse](t, rr.Body.Bytes())
	if resp.TokensUsed != 120 || resp.Budget.TokensRemaining != 880 || resp.PeriodStartAt == nil {
		t.Errorf("unexpected response: %+v", resp)
	}

	if rr := ts.do(http.MethodGet, "/usage?period=week", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("bad period status = %d", rr.Code)
	}
	if rr := ts.do(http.MethodGet, "/usage", ""); rr.Code != http.StatusOK || ts.usage.got != domusage.PeriodDay {
		t.Errorf("default period: status = %d, period = %q", rr.Code, ts.usage.got)
	}
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t, "secret")
	if rr := ts.do(http.MethodGet, "/health", ""); rr.Code != http.StatusOK {
		t.Errorf("healthy status = %d", rr.Code)
	}

	ts.health.report = healthuc.Report{Status: healthuc.Degraded, Checks: map[string]healthuc.CheckResult{"predictor": healthuc.CheckError}}
	rr := ts.do(http.MethodGet, "/health", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("degraded status = %d", rr.Code)
	}
	resp := decodeBody[HealthResponse](t, rr.Body.Bytes())
	if resp.Status != "degraded" || resp.Checks["predictor"] != "error" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestRouter_AuthAndRequestID(t *testing.T) {
	ts := newTestServer(t, "secret")

	rr := ts.do(http.MethodGet, "/rankings/staple", "")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID must be set")
	}
	if rr := ts.do(http.MethodGet, "/nope", ""); rr.Code != http.StatusUnauthorized {
		t.Errorf("auth runs before routing, got %d", rr.Code)
	}
}

func TestRouter_NotFound(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(http.MethodGet, "/nope", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	if resp := decodeBody[ErrorResponse](t, rr.Body.Bytes()); resp.Code != CodeNotFound {
		t.Errorf("code = %s", resp.Code)
	}
}

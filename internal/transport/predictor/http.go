// Package predictor adapts glucose-response models to the recommend.Predictor contract.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kailas-cloud/glycomeal/internal/domain"
	"github.com/kailas-cloud/glycomeal/internal/domain/health"
)

// DefaultTimeout bounds one prediction round trip.
const DefaultTimeout = 5 * time.Second

const maxErrorBody = 512

// HTTPConfig holds the model-serving sidecar settings.
type HTTPConfig struct {
	URL     string
	Timeout time.Duration
	// Client overrides the HTTP client (tests).
	Client *http.Client
}

// HTTP calls a model-serving sidecar over JSON.
type HTTP struct {
	baseURL string
	client  *http.Client
}

type predictRequest struct {
	Carb           float64 `json:"carb"`
	Fat            float64 `json:"fat"`
	Fiber          float64 `json:"fiber"`
	PreMealGlucose float64 `json:"pre_meal_glucose"`
}

type predictResponse struct {
	Glucose []float64 `json:"glucose"`
}

// NewHTTP creates the sidecar client.
func NewHTTP(cfg HTTPConfig) *HTTP {
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &HTTP{baseURL: strings.TrimRight(cfg.URL, "/"), client: client}
}

// Predict posts the meal macros and returns glucose at 60/120/180 min.
// Every failure wraps domain.ErrPredictorFailure; there are no retries.
func (p *HTTP) Predict(ctx context.Context, carb, fat, fiber, preMealGlucose float64) (health.Prediction, error) {
	body, err := json.Marshal(predictRequest{Carb: carb, Fat: fat, Fiber: fiber, PreMealGlucose: preMealGlucose})
	if err != nil {
		return health.Prediction{}, fmt.Errorf("encode predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return health.Prediction{}, fmt.Errorf("build predict request: %w: %w", err, domain.ErrPredictorFailure)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return health.Prediction{}, fmt.Errorf("predict request: %w: %w", err, domain.ErrPredictorFailure)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return health.Prediction{}, fmt.Errorf("predictor returned %d: %s: %w",
			resp.StatusCode, strings.TrimSpace(string(detail)), domain.ErrPredictorFailure)
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return health.Prediction{}, fmt.Errorf("decode predict response: %w: %w", err, domain.ErrPredictorFailure)
	}
	if len(out.Glucose) != len(health.Checkpoints) {
		return health.Prediction{}, fmt.Errorf("predictor returned %d values, want %d: %w",
			len(out.Glucose), len(health.Checkpoints), domain.ErrPredictorFailure)
	}

	pred := health.Prediction{out.Glucose[0], out.Glucose[1], out.Glucose[2]}
	if !pred.IsValid() {
		return health.Prediction{}, fmt.Errorf("predictor returned %v: %w", out.Glucose, domain.ErrPredictorFailure)
	}
	return pred, nil
}

// HealthCheck GETs {url}/health and expects 2xx.
func (p *HTTP) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("predictor health: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("predictor health returned %d", resp.StatusCode)
	}
	return nil
}

// Package advice answers free-form diabetes questions with the asker's health profile in the prompt.
package advice

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/glycomeal/internal/domain"
	"github.com/kailas-cloud/glycomeal/internal/domain/needs"
	"github.com/kailas-cloud/glycomeal/internal/logger"
)

// MaxQuestionRunes bounds the question length.
const MaxQuestionRunes = 2000

const systemPrompt = "You are a diabetes health advisor. Answer using the patient's health data, " +
	"say so when a question needs a doctor, and never change medication doses."

// Request is one question plus the asker's health data.
type Request struct {
	Question       string
	Profile        needs.Profile
	DiabetesType   string
	PreMealGlucose float64 // mmol/L, 0 when unknown
	PreMealInsulin float64 // units, 0 when none
}

// Result is the model's answer.
type Result struct {
	Answer string `json:"answer"`
}

// Service asks the chat model. A nil completer disables it.
type Service struct {
	completer domain.ChatCompleter
}

// New creates the advice service.
func New(completer domain.ChatCompleter) *Service {
	return &Service{completer: completer}
}

// Answer validates the request and returns the model's reply.
func (s *Service) Answer(ctx context.Context, req Request) (Result, error) {
	if s.completer == nil {
		return Result{}, fmt.Errorf("diabetes advice: %w", domain.ErrNotImplemented)
	}
	req.Question = strings.TrimSpace(req.Question)
	if err := validate(req); err != nil {
		return Result{}, err
	}

	res, err := s.completer.Complete(ctx, systemPrompt, buildPrompt(req))
	if err != nil {
		return Result{}, fmt.Errorf("answer question: %w", err)
	}

	logger.FromContext(ctx).Info("question answered",
		zap.Int("question_runes", utf8.RuneCountInString(req.Question)),
		zap.Int("tokens", res.TotalTokens),
	)
	return Result{Answer: res.Text}, nil
}

func validate(req Request) error {
	if req.Question == "" {
		return domain.NewValidationError("question", "must not be empty")
	}
	if utf8.RuneCountInString(req.Question) > MaxQuestionRunes {
		return domain.NewValidationError("question", fmt.Sprintf("must be at most %d characters", MaxQuestionRunes))
	}
	if err := req.Profile.Validate(); err != nil {
		return err
	}
	checks := []struct {
		name string
		v    float64
	}{{"pre_meal_glucose", req.PreMealGlucose}, {"pre_meal_insulin", req.PreMealInsulin}}
	for _, c := range checks {
		if math.IsNaN(c.v) || math.IsInf(c.v, 0) || c.v < 0 {
			return domain.NewValidationError(c.name, "must be a non-negative number")
		}
	}
	return nil
}

func buildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Answer the question below for this patient.\n\nPatient:\n")
	fmt.Fprintf(&b, "- height: %g cm\n", req.Profile.HeightCm)
	fmt.Fprintf(&b, "- weight: %g kg\n", req.Profile.WeightKg)
	fmt.Fprintf(&b, "- age: %g years\n", req.Profile.AgeYears)
	fmt.Fprintf(&b, "- gender: %s\n", req.Profile.Gender)
	if req.Profile.ActivityLevel != "" {
		fmt.Fprintf(&b, "- activity level: %s\n", req.Profile.ActivityLevel)
	}
	if req.DiabetesType != "" {
		fmt.Fprintf(&b, "- diabetes type: %s\n", req.DiabetesType)
	}
	if req.PreMealGlucose > 0 {
		fmt.Fprintf(&b, "- pre-meal glucose: %g mmol/L\n", req.PreMealGlucose)
	}
	if req.PreMealInsulin > 0 {
		fmt.Fprintf(&b, "- pre-meal insulin: %g units\n", req.PreMealInsulin)
	}
	fmt.Fprintf(&b, "\nQuestion: %s\n", req.Question)
	return b.String()
}

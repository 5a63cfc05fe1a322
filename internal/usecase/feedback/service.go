package feedback

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/glycomeal/internal/domain"
	domfb "github.com/kailas-cloud/glycomeal/internal/domain/feedback"
	domrecipe "github.com/kailas-cloud/glycomeal/internal/domain/recipe"
	"github.com/kailas-cloud/glycomeal/internal/logger"
	"github.com/kailas-cloud/glycomeal/internal/metrics"
	"github.com/kailas-cloud/glycomeal/internal/usecase/preference"
)

// csvHeader is the column layout the predictor training pipeline reads.
var csvHeader = []string{
	"Pre_Meal_Glucose", "Carb", "Protein", "Fat", "Fiber",
	"Post_Meal_Glucose_60min", "Post_Meal_Glucose_120min", "Post_Meal_Glucose_180min",
}

// Session is the feedback for one served meal.
type Session struct {
	Ratings []domfb.Rating
	// Glucose is optional. ID and RecordedAt are assigned on submit.
	Glucose *domfb.GlucoseEntry
}

// Result reports what a session changed.
type Result struct {
	Updates   []preference.Result
	GlucoseID string
}

// Service records meal feedback.
type Service struct {
	updater Updater
	scores  Scores
	log     Log
	now     func() time.Time
}

// New creates a feedback service. log may be nil when no glucose log is configured.
func New(updater Updater, scores Scores, log Log) *Service {
	return &Service{updater: updater, scores: scores, log: log, now: time.Now}
}

// Submit validates the whole session first, including that every rated recipe
// exists, then applies the ratings in order and appends the glucose reading.
func (s *Service) Submit(ctx context.Context, sess Session) (Result, error) {
	if len(sess.Ratings) == 0 && sess.Glucose == nil {
		return Result{}, domain.NewValidationError("ratings", "at least one rating or a glucose reading is required")
	}
	seen := make(map[string]struct{}, len(sess.Ratings))
	for i, r := range sess.Ratings {
		if err := domrecipe.ValidateName(r.Recipe); err != nil {
			return Result{}, domain.NewValidationError(fmt.Sprintf("ratings[%d].recipe", i), err.Error())
		}
		if _, dup := seen[r.Recipe]; dup {
			return Result{}, domain.NewValidationError(fmt.Sprintf("ratings[%d].recipe", i), "rated twice in one session")
		}
		seen[r.Recipe] = struct{}{}
		if err := domfb.ValidateRating(r.Value); err != nil {
			return Result{}, fmt.Errorf("ratings[%d]: %w", i, err)
		}
	}
	if sess.Glucose != nil {
		if s.log == nil {
			return Result{}, fmt.Errorf("glucose log: %w", domain.ErrNotImplemented)
		}
		if err := sess.Glucose.Validate(); err != nil {
			return Result{}, err
		}
	}

	for _, r := range sess.Ratings {
		if _, err := s.scores.CurrentScore(ctx, r.Recipe); err != nil {
			return Result{}, fmt.Errorf("recipe %s: %w", r.Recipe, err)
		}
	}

	var res Result
	for _, r := range sess.Ratings {
		upd, err := s.updater.Apply(ctx, r.Recipe, r.Value)
		if err != nil {
			return res, fmt.Errorf("apply rating for %s: %w", r.Recipe, err)
		}
		res.Updates = append(res.Updates, upd)
	}

	if sess.Glucose != nil {
		entry := *sess.Glucose
		entry.ID = uuid.NewString()
		entry.RecordedAt = s.now().UTC()
		if err := s.log.Append(ctx, entry); err != nil {
			return res, fmt.Errorf("append glucose entry: %w", err)
		}
		metrics.FeedbackTotal.WithLabelValues("glucose").Inc()
		res.GlucoseID = entry.ID
		logger.FromContext(ctx).Info("glucose reading logged",
			zap.String("id", entry.ID),
			zap.Float64("post_120", entry.Post120),
		)
	}
	return res, nil
}

// Export writes the glucose log as CSV, oldest first.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	if s.log == nil {
		return fmt.Errorf("glucose log: %w", domain.ErrNotImplemented)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	err := s.log.Each(ctx, func(e domfb.GlucoseEntry) error {
		return cw.Write([]string{
			formatReading(e.PreMealGlucose),
			formatReading(e.Nutrition.Carb),
			formatReading(e.Nutrition.Protein),
			formatReading(e.Nutrition.Fat),
			formatReading(e.Nutrition.Fiber),
			formatReading(e.Post60),
			formatReading(e.Post120),
			formatReading(e.Post180),
		})
	})
	if err != nil {
		return fmt.Errorf("export glucose log: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func formatReading(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

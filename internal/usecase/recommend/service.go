package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/glycomeal/internal/domain"
	"github.com/kailas-cloud/glycomeal/internal/domain/nutrient"
	"github.com/kailas-cloud/glycomeal/internal/domain/recommendation"
	"github.com/kailas-cloud/glycomeal/internal/logger"
	"github.com/kailas-cloud/glycomeal/internal/metrics"
)

// Defaults for Config fields left at zero.
const (
	DefaultMaxAttempts    = 100
	DefaultTopK           = 10
	DefaultPreMealGlucose = 5.0
)

// Config bounds a search.
type Config struct {
	MaxAttempts int
	TopK        int
	// Seed makes sampling reproducible when non-zero.
	Seed uint64
}

// Request is one recommendation query.
type Request struct {
	Needs nutrient.Needs
	// PreMealGlucose in mmol/L. Zero means DefaultPreMealGlucose.
	PreMealGlucose float64
}

type state int

const (
	stateSampling state = iota
	stateEvaluating
	stateAccepted
	stateExhausted
)

// Service runs the bounded randomized search for an acceptable meal.
type Service struct {
	rankings  Rankings
	profiler  Profiler
	predictor Predictor
	scorer    Scorer
	cfg       Config

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New creates a search service.
func New(rankings Rankings, profiler Profiler, predictor Predictor, scorer Scorer, cfg Config) *Service {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Service{
		rankings:  rankings,
		profiler:  profiler,
		predictor: predictor,
		scorer:    scorer,
		cfg:       cfg,
		rng:       rand.New(rand.NewPCG(seed, seed>>1|1)),
	}
}

// WithRand replaces the random source.
func (s *Service) WithRand(r *rand.Rand) *Service {
	s.rngMu.Lock()
	s.rng = r
	s.rngMu.Unlock()
	return s
}

// Recommend samples combinations from the top-K of each ranking until one
// scores at least the acceptance threshold or the attempt budget runs out.
// Exhaustion is not an error: the last evaluated combination is returned
// with Outcome Exhausted.
func (s *Service) Recommend(ctx context.Context, req Request) (recommendation.Recommendation, error) {
	if err := req.Needs.Validate(); err != nil {
		return recommendation.Recommendation{}, err
	}
	preMeal := req.PreMealGlucose
	if math.IsNaN(preMeal) || math.IsInf(preMeal, 0) || preMeal < 0 {
		return recommendation.Recommendation{}, domain.NewValidationError("pre_meal_glucose", "must be a non-negative number")
	}
	if preMeal == 0 {
		preMeal = DefaultPreMealGlucose
	}

	log := logger.FromContext(ctx)
	pools := s.rankings.Snapshot(s.cfg.TopK)
	if len(pools[0]) == 0 {
		return recommendation.Recommendation{}, fmt.Errorf("recommend: %w", domain.ErrNoStaples)
	}
	for i := 1; i < len(pools); i++ {
		if len(pools[i]) == 0 {
			log.Warn("empty ranking, sampling from staples instead", zap.Int("role_index", i))
			pools[i] = pools[0]
		}
	}

	var (
		picks    [3]string
		last     recommendation.Combination
		attempts int
		st       = stateSampling
	)
	for {
		switch st {
		case stateSampling:
			if attempts >= s.cfg.MaxAttempts {
				st = stateExhausted
				continue
			}
			if err := ctx.Err(); err != nil {
				return recommendation.Recommendation{}, fmt.Errorf("recommend: %w", err)
			}
			picks = s.sample(pools)
			attempts++
			st = stateEvaluating

		case stateEvaluating:
			comb, err := s.evaluate(ctx, picks, req.Needs, preMeal)
			if err != nil {
				return recommendation.Recommendation{}, err
			}
			last = comb
			if comb.Score.Accepted() {
				st = stateAccepted
				continue
			}
			log.Debug("combination rejected",
				zap.Int("attempt", attempts),
				zap.Strings("recipes", comb.Recipes[:]),
				zap.Float64("health_score", comb.Score.Health),
			)
			st = stateSampling

		case stateAccepted:
			return s.finish(ctx, last, recommendation.Accepted, attempts), nil

		case stateExhausted:
			return s.finish(ctx, last, recommendation.Exhausted, attempts), nil
		}
	}
}

func (s *Service) sample(pools [3][]string) [3]string {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()

	var picks [3]string
	for i, pool := range pools {
		picks[i] = pool[s.rng.IntN(len(pool))]
	}
	return picks
}

func (s *Service) evaluate(ctx context.Context, picks [3]string, needs nutrient.Needs, preMeal float64) (recommendation.Combination, error) {
	var raw [3]nutrient.Profile
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range picks {
		g.Go(func() error {
			p, err := s.profiler.Profile(gctx, name, 1)
			if err != nil {
				return err
			}
			raw[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return recommendation.Combination{}, fmt.Errorf("recipe profiles: %w", err)
	}

	ratios := nutrient.Solve(raw[0], raw[1], raw[2], needs)
	total := nutrient.Combine(raw, ratios)

	predicted, err := s.predictor.Predict(ctx, total.Carb, total.Fat, total.Fiber, preMeal)
	if err != nil {
		if errors.Is(err, domain.ErrPredictorFailure) {
			return recommendation.Combination{}, err
		}
		return recommendation.Combination{}, fmt.Errorf("%w: %w", domain.ErrPredictorFailure, err)
	}
	if !predicted.IsValid() {
		return recommendation.Combination{}, fmt.Errorf("%w: non-finite or negative prediction %v", domain.ErrPredictorFailure, predicted)
	}

	return recommendation.Combination{
		Recipes:   picks,
		Ratios:    ratios,
		Nutrition: total,
		Score:     s.scorer.Score(total, needs, predicted),
	}, nil
}

func (s *Service) finish(ctx context.Context, c recommendation.Combination, outcome recommendation.Outcome, attempts int) recommendation.Recommendation {
	metrics.SearchAttempts.Observe(float64(attempts))
	metrics.SearchOutcomesTotal.WithLabelValues(string(outcome)).Inc()
	metrics.HealthScore.Observe(c.Score.Health)

	logger.FromContext(ctx).Info("recommendation search finished",
		zap.String("outcome", string(outcome)),
		zap.Int("attempts", attempts),
		zap.Strings("recipes", c.Recipes[:]),
		zap.Float64("health_score", c.Score.Health),
	)
	return recommendation.Recommendation{Combination: c, Outcome: outcome, Attempts: attempts}
}

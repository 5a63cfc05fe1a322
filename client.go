// Package glycomeal is an embedded client for the glycomeal recommendation engine.
// It talks to the recipe store directly, without the HTTP server.
package glycomeal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	dbRedis "github.com/kailas-cloud/glycomeal/internal/db/redis"
	dombatch "github.com/kailas-cloud/glycomeal/internal/domain/batch"
	domfb "github.com/kailas-cloud/glycomeal/internal/domain/feedback"
	"github.com/kailas-cloud/glycomeal/internal/domain/health"
	"github.com/kailas-cloud/glycomeal/internal/domain/recommendation"
	"github.com/kailas-cloud/glycomeal/internal/logger"
	"github.com/kailas-cloud/glycomeal/internal/repository/glucoselog"
	reciperepo "github.com/kailas-cloud/glycomeal/internal/repository/recipe"
	"github.com/kailas-cloud/glycomeal/internal/transport/predictor"
	"github.com/kailas-cloud/glycomeal/internal/usecase/catalog"
	"github.com/kailas-cloud/glycomeal/internal/usecase/feedback"
	"github.com/kailas-cloud/glycomeal/internal/usecase/nutrition"
	"github.com/kailas-cloud/glycomeal/internal/usecase/preference"
	"github.com/kailas-cloud/glycomeal/internal/usecase/ranking"
	"github.com/kailas-cloud/glycomeal/internal/usecase/recommend"
)

const defaultReadinessTimeout = 10 * time.Second

type recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (recommendation.Recommendation, error)
}

type rater interface {
	Submit(ctx context.Context, sess feedback.Session) (feedback.Result, error)
}

type ranker interface {
	Rebuild(ctx context.Context) error
	Top(role Role, k int) ([]ranking.Entry, error)
}

type importer interface {
	Import(ctx context.Context, doc catalog.Document) ([]dombatch.Result, error)
}

// Client is the glycomeal SDK entry point.
type Client struct {
	store  *dbRedis.Store
	closer io.Closer
	logger *zap.Logger

	recommend recommender
	feedback  rater
	rankings  ranker
	catalog   importer
}

// New creates a Client, connects to the recipe store and loads the rankings.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{logger: zap.NewNop()}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("glycomeal: database address required (use WithValkey or WithRedis)")
	}
	if cfg.driver != "redis" && cfg.driver != "valkey" {
		return nil, fmt.Errorf("glycomeal: unknown driver %q", cfg.driver)
	}

	store, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.addrs, Password: cfg.password})
	if err != nil {
		return nil, fmt.Errorf("glycomeal: create %s store: %w", cfg.driver, err)
	}

	ctx := logger.ContextWithLogger(context.Background(), cfg.logger)
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("glycomeal: database not ready: %w", err)
	}

	c, err := wireClient(ctx, store, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func wireClient(ctx context.Context, store *dbRedis.Store, cfg *clientConfig) (*Client, error) {
	recipes := reciperepo.New(store)
	rankings := ranking.New(recipes)
	if err := rankings.Rebuild(ctx); err != nil {
		return nil, fmt.Errorf("glycomeal: build rankings: %w", err)
	}

	recSvc := recommend.New(rankings, nutrition.New(recipes), newPredictor(cfg), health.Scorer{}, recommend.Config{
		MaxAttempts: cfg.maxAttempts,
		TopK:        cfg.topK,
		Seed:        cfg.seed,
	})

	c := &Client{
		store:     store,
		logger:    cfg.logger,
		recommend: recSvc,
		rankings:  rankings,
		catalog:   catalog.New(recipes, rankings).WithMaxBatchSize(cfg.maxBatchSize),
	}

	var log feedback.Log
	if cfg.feedbackLog != "" {
		repo, err := glucoselog.Open(ctx, cfg.feedbackLog)
		if err != nil {
			return nil, fmt.Errorf("glycomeal: open feedback log: %w", err)
		}
		c.closer = repo
		log = repo
	}
	c.feedback = feedback.New(preference.New(recipes, rankings), recipes, log)
	return c, nil
}

func newPredictor(cfg *clientConfig) predictor.Model {
	if cfg.predictorURL != "" {
		return predictor.NewInstrumented(predictor.NewHTTP(predictor.HTTPConfig{URL: cfg.predictorURL}), "http", cfg.logger)
	}
	model := predictor.DefaultLinearModel()
	if cfg.linear != nil {
		model = *cfg.linear
	}
	return predictor.NewInstrumented(predictor.NewLinear(model), "linear", cfg.logger)
}

// Close releases all resources.
func (c *Client) Close() {
	if c.closer != nil {
		_ = c.closer.Close()
	}
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

func (c *Client) ctx(ctx context.Context) context.Context {
	if c.logger == nil {
		return ctx
	}
	return logger.ContextWithLogger(ctx, c.logger)
}

// Meal starts a fluent recommendation request.
func (c *Client) Meal() *MealRequest {
	return &MealRequest{client: c}
}

// Rate applies a 0..10 rating to a recipe and returns its updated scores.
func (c *Client) Rate(ctx context.Context, recipe string, rating float64) (Rating, error) {
	res, err := c.feedback.Submit(c.ctx(ctx), feedback.Session{
		Ratings: []domfb.Rating{{Recipe: recipe, Value: rating}},
	})
	if err != nil {
		return Rating{}, fmt.Errorf("rate %s: %w", recipe, err)
	}
	if len(res.Updates) == 0 {
		return Rating{}, fmt.Errorf("rate %s: no update applied", recipe)
	}
	return ratingFromDomain(res.Updates[0]), nil
}

// Rankings lists the top k recipes of a role, best first.
func (c *Client) Rankings(_ context.Context, role Role, k int) ([]RankedRecipe, error) {
	entries, err := c.rankings.Top(role, k)
	if err != nil {
		return nil, fmt.Errorf("rankings %s: %w", role, err)
	}
	return rankedFromDomain(entries), nil
}

// ImportCatalog reads a YAML catalog and writes every recipe it holds.
// Per-recipe failures are reported in the result, not as an error.
func (c *Client) ImportCatalog(ctx context.Context, r io.Reader) (ImportResult, error) {
	doc, err := catalog.Parse(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import catalog: %w", err)
	}
	results, err := c.catalog.Import(c.ctx(ctx), doc)
	if err != nil {
		return importFromDomain(results), fmt.Errorf("import catalog: %w", err)
	}
	return importFromDomain(results), nil
}

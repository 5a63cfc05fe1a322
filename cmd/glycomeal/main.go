package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/glycomeal/internal/config"
	dbRedis "github.com/kailas-cloud/glycomeal/internal/db/redis"
	"github.com/kailas-cloud/glycomeal/internal/domain"
	dombatch "github.com/kailas-cloud/glycomeal/internal/domain/batch"
	"github.com/kailas-cloud/glycomeal/internal/domain/health"
	logpkg "github.com/kailas-cloud/glycomeal/internal/logger"
	"github.com/kailas-cloud/glycomeal/internal/metrics"
	budgetrepo "github.com/kailas-cloud/glycomeal/internal/repository/budget"
	"github.com/kailas-cloud/glycomeal/internal/repository/glucoselog"
	"github.com/kailas-cloud/glycomeal/internal/repository/instrcache"
	reciperepo "github.com/kailas-cloud/glycomeal/internal/repository/recipe"
	chiTransport "github.com/kailas-cloud/glycomeal/internal/transport/chi"
	openaiLLM "github.com/kailas-cloud/glycomeal/internal/transport/openai"
	"github.com/kailas-cloud/glycomeal/internal/transport/predictor"
	"github.com/kailas-cloud/glycomeal/internal/usecase/advice"
	catalogsvc "github.com/kailas-cloud/glycomeal/internal/usecase/catalog"
	feedbacksvc "github.com/kailas-cloud/glycomeal/internal/usecase/feedback"
	healthuc "github.com/kailas-cloud/glycomeal/internal/usecase/health"
	"github.com/kailas-cloud/glycomeal/internal/usecase/instructions"
	llmuc "github.com/kailas-cloud/glycomeal/internal/usecase/llm"
	"github.com/kailas-cloud/glycomeal/internal/usecase/nutrition"
	"github.com/kailas-cloud/glycomeal/internal/usecase/preference"
	"github.com/kailas-cloud/glycomeal/internal/usecase/ranking"
	"github.com/kailas-cloud/glycomeal/internal/usecase/recommend"
	usageuc "github.com/kailas-cloud/glycomeal/internal/usecase/usage"
	"github.com/kailas-cloud/glycomeal/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting glycomeal API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("predictor", cfg.Predictor.Type),
		zap.Bool("llm_enabled", cfg.LLM.Enabled()),
	)

	// Redis and Valkey share the wire protocol, one client serves both.
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := logpkg.ContextWithLogger(context.Background(), logger)
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	metrics.RegisterEngineMetrics()
	metrics.RegisterLLMMetrics()

	recipes := reciperepo.New(store)
	rankings := ranking.New(recipes)
	catalogSvc := catalogsvc.New(recipes, rankings).WithMaxBatchSize(cfg.Storage.MaxBatchSize)

	if cfg.Storage.SeedCatalog != "" {
		if err := seedCatalog(ctx, catalogSvc, cfg.Storage.SeedCatalog); err != nil {
			logger.Fatal("Failed to seed catalog", zap.Error(err))
		}
	}
	if err := rankings.Rebuild(ctx); err != nil {
		logger.Fatal("Failed to build rankings", zap.Error(err))
	}

	model, err := buildPredictor(cfg.Predictor, logger)
	if err != nil {
		logger.Fatal("Failed to create predictor", zap.Error(err))
	}

	aggregator := nutrition.New(recipes)
	recommendSvc := recommend.New(rankings, aggregator, model, health.Scorer{}, recommend.Config{
		MaxAttempts: cfg.Search.MaxAttempts,
		TopK:        cfg.Search.TopK,
		Seed:        cfg.Search.Seed,
	})

	preferenceSvc := preference.New(recipes, rankings)

	// Untyped nil keeps the feedback log disabled.
	var glucoseLog feedbacksvc.Log
	if cfg.FeedbackLog.Path != "" {
		if dir := filepath.Dir(cfg.FeedbackLog.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				logger.Fatal("Failed to create feedback log dir", zap.Error(err))
			}
		}
		repo, err := glucoselog.Open(ctx, cfg.FeedbackLog.Path)
		if err != nil {
			logger.Fatal("Failed to open feedback log", zap.Error(err))
		}
		defer func() { _ = repo.Close() }()
		glucoseLog = repo
	}
	feedbackSvc := feedbacksvc.New(preferenceSvc, recipes, glucoseLog)

	// LLM chain: OpenAI -> Cached -> Instrumented (budget + metrics).
	var (
		completer    domain.ChatCompleter
		llmChecker   healthuc.Checker
		budgetReader usageuc.BudgetReader
	)
	if cfg.LLM.Enabled() {
		base := openaiLLM.NewCompleter(&openaiLLM.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
			Logger:      logger,
		})
		llmChecker = base

		// Pass a nil interface, not a typed nil pointer, when no budget is set.
		var budgetChecker llmuc.BudgetChecker
		budgetCfg := cfg.LLM.Budget
		if budgetCfg.DailyTokenLimit > 0 || budgetCfg.MonthlyTokenLimit > 0 {
			action := llmuc.BudgetActionWarn
			if budgetCfg.Action == string(llmuc.BudgetActionReject) {
				action = llmuc.BudgetActionReject
			}
			budget := llmuc.NewBudgetTracker(
				"llm", budgetCfg.DailyTokenLimit, budgetCfg.MonthlyTokenLimit, action, logger,
			).WithStore(ctx, budgetrepo.New(store, budgetrepo.DefaultDailyTTL, budgetrepo.DefaultMonthlyTTL))
			budgetChecker = budget
			budgetReader = budget
		}

		cached := instrcache.New(base, store, time.Duration(cfg.LLM.CacheTTLH)*time.Hour,
			metrics.InstructionCacheTotal, logger)
		completer = llmuc.NewInstrumentedCompleter(cached, cfg.LLM.Model, budgetChecker, logger)
	}
	instructionsSvc := instructions.New(aggregator, completer)

	server := chiTransport.NewServer(chiTransport.Services{
		Recommend:    recommendSvc,
		Feedback:     feedbackSvc,
		Rankings:     rankings,
		Instructions: instructionsSvc,
		Advice:       advice.New(completer),
		Catalog:      catalogSvc,
		Usage:        usageuc.New(budgetReader),
		Health:       healthuc.New(store, model, llmChecker),
	}, time.Duration(cfg.Search.TimeoutSec)*time.Second, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildPredictor picks the glucose model and wraps it with metrics.
func buildPredictor(cfg config.PredictorConfig, logger *zap.Logger) (*predictor.Instrumented, error) {
	switch cfg.Type {
	case config.PredictorHTTP:
		p := predictor.NewHTTP(predictor.HTTPConfig{
			URL:     cfg.URL,
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		})
		return predictor.NewInstrumented(p, cfg.Type, logger), nil
	default:
		p := predictor.NewLinear(predictor.DefaultLinearModel())
		if cfg.CoefficientsPath != "" {
			loaded, err := predictor.LoadLinear(cfg.CoefficientsPath)
			if err != nil {
				return nil, fmt.Errorf("load coefficients: %w", err)
			}
			p = loaded
		}
		return predictor.NewInstrumented(p, config.PredictorLinear, logger), nil
	}
}

// seedCatalog imports a YAML catalog file. Per-recipe failures are logged, not fatal.
func seedCatalog(ctx context.Context, svc *catalogsvc.Service, path string) error {
	ctx = logpkg.With(ctx, zap.String("catalog", path))
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()

	doc, err := catalogsvc.Parse(f)
	if err != nil {
		return err
	}
	results, err := svc.Import(ctx, doc)
	if err != nil {
		return err
	}

	log := logpkg.FromContext(ctx)
	failed := 0
	for _, r := range results {
		if r.Status() != dombatch.StatusOK {
			failed++
			log.Warn("catalog recipe rejected", zap.String("recipe", r.Name()), zap.Error(r.Err()))
		}
	}
	log.Info("Catalog seeded",
		zap.Int("recipes", len(results)),
		zap.Int("failed", failed),
	)
	return nil
}

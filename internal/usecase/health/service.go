// Package health aggregates dependency checks into a service status.
package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/glycomeal/internal/logger"
)

// Status is the overall service state.
type Status string

const (
	// Healthy means every probed component answered.
	Healthy Status = "ok"
	// Degraded means at least one component failed or timed out.
	Degraded Status = "degraded"
)

// CheckResult is one component's outcome.
type CheckResult string

const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// Component names reported in Checks.
const (
	ComponentDatabase  = "database"
	ComponentPredictor = "predictor"
	ComponentLLM       = "llm"
)

// DefaultCheckTimeout bounds a single probe.
const DefaultCheckTimeout = 2 * time.Second

// Report is the aggregated outcome of one Check call.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

type probe struct {
	name string
	fn   func(ctx context.Context) error
}

// Service probes the store and the optional outbound dependencies in parallel.
type Service struct {
	probes  []probe
	timeout time.Duration
}

// New creates a Service. predictor and llm may be nil and are then not reported.
func New(db DBPinger, predictor, llm Checker) *Service {
	s := &Service{timeout: DefaultCheckTimeout}
	s.probes = append(s.probes, probe{ComponentDatabase, db.Ping})
	if predictor != nil {
		s.probes = append(s.probes, probe{ComponentPredictor, predictor.HealthCheck})
	}
	if llm != nil {
		s.probes = append(s.probes, probe{ComponentLLM, llm.HealthCheck})
	}
	return s
}

// WithTimeout overrides the per-probe deadline.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Check runs every probe concurrently. A slow probe is reported as an error
// once its deadline passes, without holding up the others.
func (s *Service) Check(ctx context.Context) Report {
	log := logger.FromContext(ctx)

	var mu sync.Mutex
	report := Report{Status: Healthy, Checks: make(map[string]CheckResult, len(s.probes))}

	var g errgroup.Group
	for _, p := range s.probes {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			result := CheckOK
			if err := p.fn(pctx); err != nil {
				log.Warn("health check failed", zap.String("component", p.name), zap.Error(err))
				result = CheckError
			}

			mu.Lock()
			defer mu.Unlock()
			report.Checks[p.name] = result
			if result == CheckError {
				report.Status = Degraded
			}
			return nil
		})
	}
	_ = g.Wait()
	return report
}

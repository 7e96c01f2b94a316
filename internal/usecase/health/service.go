package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates search answers but may fail or return nothing.
	Degraded Status = "degraded"
	// Unhealthy indicates the vector store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckMissing indicates the vector index has not been created.
	CheckMissing CheckResult = "missing"
)

// Component names used in Report.Checks.
const (
	ComponentDatabase  = "database"
	ComponentIndex     = "index"
	ComponentEmbedding = "embedding"
)

// DefaultCheckTimeout bounds each component check.
const DefaultCheckTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	index     IndexChecker
	embedding EmbeddingChecker
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates a Service. index and embedding can be nil.
func New(db DBPinger, index IndexChecker, embedding EmbeddingChecker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, index: index, embedding: embedding, timeout: DefaultCheckTimeout, logger: logger}
}

// Check runs the component checks concurrently.
func (s *Service) Check(ctx context.Context) Report {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		checks = make(map[string]CheckResult, 3)
	)
	run := func(name string, fn func(context.Context) CheckResult) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			res := fn(cctx)
			mu.Lock()
			checks[name] = res
			mu.Unlock()
		}()
	}

	run(ComponentDatabase, func(ctx context.Context) CheckResult {
		return s.result(ComponentDatabase, s.db.Ping(ctx))
	})
	if s.index != nil {
		run(ComponentIndex, func(ctx context.Context) CheckResult {
			ok, err := s.index.Exists(ctx)
			if err != nil {
				return s.result(ComponentIndex, err)
			}
			if !ok {
				return CheckMissing
			}
			return CheckOK
		})
	}
	if s.embedding != nil {
		run(ComponentEmbedding, func(ctx context.Context) CheckResult {
			return s.result(ComponentEmbedding, s.embedding.HealthCheck(ctx))
		})
	}
	wg.Wait()

	return Report{Status: aggregate(checks), Checks: checks}
}

func (s *Service) result(component string, err error) CheckResult {
	if err != nil {
		s.logger.Warn("health check failed", zap.String("component", component), zap.Error(err))
		return CheckError
	}
	return CheckOK
}

func aggregate(checks map[string]CheckResult) Status {
	if checks[ComponentDatabase] != CheckOK {
		return Unhealthy
	}
	for _, v := range checks {
		if v != CheckOK {
			return Degraded
		}
	}
	return Healthy
}

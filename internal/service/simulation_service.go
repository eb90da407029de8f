package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/reorder-replay/internal/cache"
	"github.com/andresuchdata/reorder-replay/internal/domain"
)

const (
	// MinRangeDays and MaxRangeDays bound a request's calendar range at the
	// API boundary. The engine re-checks the ceiling itself.
	MinRangeDays = 30
	MaxRangeDays = 730
)

// Runner is the replay engine as the service sees it.
type Runner interface {
	Run(ctx context.Context, req domain.SimulationRequest) *domain.SimulationResult
}

// Exporter pushes a completed result to object storage.
type Exporter interface {
	Export(ctx context.Context, result *domain.SimulationResult) error
}

// SimulationService validates requests, consults the result cache and drives
// the replay engine. Export of finished runs is best-effort.
type SimulationService struct {
	engine   Runner
	cache    cache.SimulationResultCache
	exporter Exporter
}

func NewSimulationService(engine Runner, cacheImpl cache.SimulationResultCache, exporter Exporter) *SimulationService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopResultCache()
	}
	return &SimulationService{engine: engine, cache: cacheImpl, exporter: exporter}
}

// Run validates and executes one simulation request. Identical requests
// within the cache TTL return the cached result without re-running.
func (s *SimulationService) Run(ctx context.Context, req domain.SimulationRequest) (*domain.SimulationResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	if result, ok, err := s.cache.GetByRequest(ctx, req); err == nil && ok {
		log.Info().Str("run_id", result.RunID.String()).Msg("simulation: returning cached result")
		return result, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("simulation: cache lookup failed")
	}

	result := s.engine.Run(ctx, req)

	if result.Status == domain.SimulationCompleted {
		if err := s.cache.SetResult(ctx, req, result); err != nil {
			log.Warn().Err(err).Msg("simulation: cache store failed")
		}
		if s.exporter != nil {
			if err := s.exporter.Export(ctx, result); err != nil {
				log.Warn().Err(err).Str("run_id", result.RunID.String()).Msg("simulation: export failed")
			}
		}
	}

	return result, nil
}

// GetResult fetches a previously completed run from the cache.
func (s *SimulationService) GetResult(ctx context.Context, runID string) (*domain.SimulationResult, bool, error) {
	return s.cache.GetResult(ctx, runID)
}

func validateRequest(req domain.SimulationRequest) error {
	if req.TenantID <= 0 {
		return fmt.Errorf("tenant id is required")
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return fmt.Errorf("start and end dates are required")
	}
	if req.EndDate.Before(req.StartDate) {
		return fmt.Errorf("end date must not be before start date")
	}
	if days := req.Days(); days < MinRangeDays || days > MaxRangeDays {
		return fmt.Errorf("date range must cover between %d and %d days, got %d", MinRangeDays, MaxRangeDays, days)
	}
	if len(req.ItemIDs) == 0 {
		return fmt.Errorf("at least one item is required")
	}
	if req.Policy.LeadTimeBufferDays < 0 {
		return fmt.Errorf("lead time buffer must not be negative")
	}
	if req.Policy.MinOrderQuantity < 1 {
		return fmt.Errorf("minimum order quantity must be at least 1")
	}
	if req.Policy.ServiceLevel <= 0 || req.Policy.ServiceLevel >= 1 {
		return fmt.Errorf("service level must be a fraction between 0 and 1")
	}
	return nil
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/caninosoft/vetcore/backend/internal/domain/entities"
	"github.com/caninosoft/vetcore/backend/internal/domain/providers"
	"github.com/caninosoft/vetcore/backend/internal/domain/repositories"
)

// CacheWarmingService pre-populates the cache with slow-changing reference
// data: branches, per-branch inventories and the vaccine catalog.
type CacheWarmingService struct {
	branches repositories.BranchRepository
	drugs    repositories.DrugRepository
	vaccines repositories.VaccineRepository
	cache    providers.CacheProvider
}

// NewCacheWarmingService creates a new cache warming service
func NewCacheWarmingService(
	branches repositories.BranchRepository,
	drugs repositories.DrugRepository,
	vaccines repositories.VaccineRepository,
	cache providers.CacheProvider,
) *CacheWarmingService {
	return &CacheWarmingService{
		branches: branches,
		drugs:    drugs,
		vaccines: vaccines,
		cache:    cache,
	}
}

// WarmCache warms the cache with frequently accessed reference data
func (s *CacheWarmingService) WarmCache(ctx context.Context) error {
	log.Info().Msg("starting cache warming")

	branches, err := s.warmBranches(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to warm branch cache")
	}
	for _, branch := range branches {
		if err := s.warmBranchDrugs(ctx, branch.ID); err != nil {
			log.Warn().Err(err).Str("branch_id", branch.ID).Msg("failed to warm drug cache")
		}
	}
	if err := s.warmVaccineCatalog(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to warm vaccine catalog cache")
	}

	log.Info().Msg("cache warming completed")
	return nil
}

func (s *CacheWarmingService) warmBranches(ctx context.Context) ([]*entities.Branch, error) {
	branches, err := s.branches.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch branches: %w", err)
	}

	data, err := json.Marshal(branches)
	if err != nil {
		return branches, fmt.Errorf("failed to marshal branches: %w", err)
	}
	if err := s.cache.Set(ctx, "branches:list", data, 600); err != nil {
		return branches, fmt.Errorf("failed to cache branches: %w", err)
	}

	for _, branch := range branches {
		data, err := json.Marshal(branch)
		if err != nil {
			continue
		}
		if err := s.cache.Set(ctx, "branch:"+branch.ID, data, 600); err != nil {
			log.Warn().Err(err).Str("branch_id", branch.ID).Msg("failed to cache branch")
		}
	}
	return branches, nil
}

func (s *CacheWarmingService) warmBranchDrugs(ctx context.Context, branchID string) error {
	drugs, err := s.drugs.ListByBranch(ctx, branchID)
	if err != nil {
		return fmt.Errorf("failed to fetch drugs: %w", err)
	}

	data, err := json.Marshal(drugs)
	if err != nil {
		return fmt.Errorf("failed to marshal drugs: %w", err)
	}
	// Inventory moves with every completion, keep the TTL short
	return s.cache.Set(ctx, "drugs:branch:"+branchID, data, 120)
}

func (s *CacheWarmingService) warmVaccineCatalog(ctx context.Context) error {
	for _, species := range []entities.Species{entities.SpeciesCanine, entities.SpeciesFeline} {
		catalog, err := s.vaccines.ListCatalog(ctx, species)
		if err != nil {
			return fmt.Errorf("failed to fetch %s catalog: %w", species, err)
		}

		data, err := json.Marshal(catalog)
		if err != nil {
			return fmt.Errorf("failed to marshal %s catalog: %w", species, err)
		}
		// The catalog is immutable reference data
		if err := s.cache.Set(ctx, "vaccines:catalog:"+string(species), data, 3600); err != nil {
			return fmt.Errorf("failed to cache %s catalog: %w", species, err)
		}
	}
	return nil
}

// StartPeriodicWarming warms once immediately and then on a ticker until
// the context is cancelled
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	if err := s.WarmCache(ctx); err != nil {
		log.Warn().Err(err).Msg("initial cache warming failed")
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("stopping cache warming service")
				return
			case <-ticker.C:
				if err := s.WarmCache(context.Background()); err != nil {
					log.Warn().Err(err).Msg("periodic cache warming failed")
				}
			}
		}
	}()
	log.Info().Dur("interval", interval).Msg("started periodic cache warming")
}

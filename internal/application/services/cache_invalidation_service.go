package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/caninosoft/vetcore/backend/internal/domain/entities"
	"github.com/caninosoft/vetcore/backend/internal/domain/providers"
)

// CacheInvalidationService drops stale cache entries in response to
// clinic events. HTTP response caches are invalidated narrowly per
// entity; everything else expires by TTL so a burst of updates cannot
// stampede the stores.
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start subscribes to the clinic channels and begins invalidating
func (s *CacheInvalidationService) Start() error {
	channels := []string{
		providers.EventChannelAppointments,
		providers.EventChannelStock,
		providers.EventChannelVaccinations,
	}
	for _, channel := range channels {
		eventChan, err := s.eventBus.Subscribe(s.ctx, channel)
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
		}
		go s.processEvents(eventChan)
	}

	log.Info().Msg("cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	log.Info().Msg("cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.ClinicEvent) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case event := <-eventChan:
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

func (s *CacheInvalidationService) handleEvent(event *entities.ClinicEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var patterns []string
	switch event.EventType {
	case entities.ClinicEventAppointmentRequested,
		entities.ClinicEventAppointmentConfirmed,
		entities.ClinicEventAppointmentCancelled,
		entities.ClinicEventAppointmentNoShow:
		patterns = s.appointmentPatterns(event)

	case entities.ClinicEventAppointmentCompleted:
		patterns = s.appointmentPatterns(event)
		// A completed vaccination visit changes the due projection
		if t, ok := event.Payload["type"].(string); ok && t == string(entities.AppointmentTypeVaccination) && event.PatientID != "" {
			patterns = append(patterns, dueCacheKeyPrefix+event.PatientID)
		}

	case entities.ClinicEventStockChanged:
		if event.BranchID != "" {
			patterns = append(patterns, fmt.Sprintf("http:cache:*branches/%s/drugs*", event.BranchID))
		}
		patterns = append(patterns, fmt.Sprintf("http:cache:*drugs/%s*", event.EntityID))

	case entities.ClinicEventVaccineAdministered:
		if event.PatientID != "" {
			patterns = append(patterns,
				dueCacheKeyPrefix+event.PatientID,
				fmt.Sprintf("http:cache:*patients/%s/vaccinations*", event.PatientID))
		}
	}

	for _, pattern := range patterns {
		if err := s.cache.DeletePattern(ctx, pattern); err != nil {
			log.Warn().Err(err).Str("pattern", pattern).Str("event_id", event.ID).Msg("cache invalidation failed")
		}
	}
}

func (s *CacheInvalidationService) appointmentPatterns(event *entities.ClinicEvent) []string {
	patterns := []string{
		fmt.Sprintf("http:cache:*appointments/%s*", event.EntityID),
	}
	if event.VeterinarianID != "" {
		patterns = append(patterns, fmt.Sprintf("http:cache:*veterinarians/%s/calendar*", event.VeterinarianID))
		patterns = append(patterns, fmt.Sprintf("http:cache:*veterinarians/%s/open-slots*", event.VeterinarianID))
	}
	return patterns
}

// InvalidateAppointmentCaches drops every cached appointment response.
// Used after bulk administrative imports.
func (s *CacheInvalidationService) InvalidateAppointmentCaches(ctx context.Context) error {
	if err := s.cache.DeletePattern(ctx, "http:cache:*appointments*"); err != nil {
		return fmt.Errorf("failed to invalidate appointment caches: %w", err)
	}
	return nil
}

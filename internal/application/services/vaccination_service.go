package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/caninosoft/vetcore/backend/internal/domain/entities"
	"github.com/caninosoft/vetcore/backend/internal/domain/providers"
	"github.com/caninosoft/vetcore/backend/internal/domain/repositories"
	apperrors "github.com/caninosoft/vetcore/backend/pkg/errors"
)

const (
	dueCacheKeyPrefix = "vaccinations:due:"
	dueCacheTTLSecs   = 300
)

// AdministrationRequest carries the input of recording an applied dose
type AdministrationRequest struct {
	PatientID      string    `json:"patient_id"`
	CatalogEntryID string    `json:"catalog_entry_id"`
	VeterinarianID *string   `json:"veterinarian_id,omitempty"`
	AppliedAt      time.Time `json:"applied_at"`
	Notes          string    `json:"notes,omitempty"`
}

// VaccinationService computes due-date projections from the catalog and a
// patient's administration history, and records applied doses.
type VaccinationService struct {
	vaccines repositories.VaccineRepository
	patients repositories.PatientRepository
	cache    providers.CacheProvider
	eventBus providers.EventBus

	now func() time.Time
}

// NewVaccinationService creates a new vaccination service. cache and
// eventBus may be nil.
func NewVaccinationService(
	vaccines repositories.VaccineRepository,
	patients repositories.PatientRepository,
	cache providers.CacheProvider,
	eventBus providers.EventBus,
) *VaccinationService {
	return &VaccinationService{
		vaccines: vaccines,
		patients: patients,
		cache:    cache,
		eventBus: eventBus,
		now:      time.Now,
	}
}

// WithClock replaces the service clock, used in tests
func (s *VaccinationService) WithClock(now func() time.Time) *VaccinationService {
	s.now = now
	return s
}

// Catalog retrieves the recommendation catalog for a species
func (s *VaccinationService) Catalog(ctx context.Context, species entities.Species) ([]*entities.VaccineCatalogEntry, error) {
	return s.vaccines.ListCatalog(ctx, species)
}

// History retrieves a patient's administration history
func (s *VaccinationService) History(ctx context.Context, patientID string) ([]*entities.VaccineAdministration, error) {
	if _, err := s.patients.GetByID(ctx, patientID); err != nil {
		return nil, err
	}
	return s.vaccines.ListAdministrations(ctx, patientID)
}

// NextDue projects upcoming vaccinations for a patient, ordered by the
// catalog sequence. The projection is derived from the catalog and the
// administration history on every call; the cache is a short-TTL
// read-through layer on top.
func (s *VaccinationService) NextDue(ctx context.Context, patientID string) ([]*entities.DueVaccination, error) {
	if cached, ok := s.readDueCache(ctx, patientID); ok {
		return cached, nil
	}

	patient, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	catalog, err := s.vaccines.ListCatalog(ctx, patient.Species)
	if err != nil {
		return nil, err
	}

	history, err := s.vaccines.ListAdministrations(ctx, patientID)
	if err != nil {
		return nil, err
	}

	due := s.project(patient, catalog, history)
	s.writeDueCache(ctx, patientID, due)
	return due, nil
}

// project walks the species catalog in sequence order. For each entry:
// never administered → due at birth date + recommended age; administered
// with a booster policy → due one interval after the latest dose;
// administered one-shots drop out. Iteration stops at the first entry
// whose predecessor was never administered and whose own recommended age
// still lies in the future; entries whose age has already been reached
// keep emitting so late starters catch up on the whole overdue series.
func (s *VaccinationService) project(
	patient *entities.Patient,
	catalog []*entities.VaccineCatalogEntry,
	history []*entities.VaccineAdministration,
) []*entities.DueVaccination {
	latest := make(map[string]time.Time, len(history))
	for _, admin := range history {
		if current, ok := latest[admin.CatalogEntryID]; !ok || admin.AppliedAt.After(current) {
			latest[admin.CatalogEntryID] = admin.AppliedAt
		}
	}

	now := s.now()
	due := []*entities.DueVaccination{}
	for _, entry := range catalog {
		recommendedAt := entry.RecommendedAge.AddTo(patient.DateOfBirth)
		lastApplied, administered := latest[entry.ID]

		if !administered && entry.PredecessorID != nil {
			if _, predecessorDone := latest[*entry.PredecessorID]; !predecessorDone && recommendedAt.After(now) {
				break
			}
		}

		if !administered {
			due = append(due, &entities.DueVaccination{
				Entry:   entry,
				DueAt:   recommendedAt,
				Overdue: recommendedAt.Before(now),
			})
			continue
		}

		if entry.IsOneShot() {
			continue
		}

		applied := lastApplied
		nextAt := entry.BoosterInterval.AddTo(applied)
		due = append(due, &entities.DueVaccination{
			Entry:       entry,
			DueAt:       nextAt,
			Overdue:     nextAt.Before(now),
			LastApplied: &applied,
		})
	}
	return due
}

// RecordAdministration appends an applied dose after validating the
// species match, then invalidates the cached projection and publishes a
// vaccination event.
func (s *VaccinationService) RecordAdministration(ctx context.Context, req *AdministrationRequest) (*entities.VaccineAdministration, error) {
	if req.AppliedAt.IsZero() {
		return nil, apperrors.NewValidationError("administration date is required")
	}

	patient, err := s.patients.GetByID(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	entry, err := s.vaccines.GetCatalogEntry(ctx, req.CatalogEntryID)
	if err != nil {
		return nil, err
	}
	if entry.Species != patient.Species {
		return nil, apperrors.NewValidationError(fmt.Sprintf(
			"vaccine %s targets %s patients, %s is %s", entry.Name, entry.Species, patient.Name, patient.Species))
	}

	admin := &entities.VaccineAdministration{
		ID:             uuid.New().String(),
		PatientID:      req.PatientID,
		CatalogEntryID: req.CatalogEntryID,
		VeterinarianID: req.VeterinarianID,
		AppliedAt:      req.AppliedAt,
		Notes:          req.Notes,
		CreatedAt:      s.now().UTC(),
	}

	if err := s.vaccines.RecordAdministration(ctx, admin); err != nil {
		return nil, err
	}

	s.InvalidateDueCache(ctx, req.PatientID)
	s.publishAdministration(ctx, admin)
	return admin, nil
}

// InvalidateDueCache drops the cached projection for a patient. The
// scheduling flow calls it when a vaccination appointment completes.
func (s *VaccinationService) InvalidateDueCache(ctx context.Context, patientID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, dueCacheKeyPrefix+patientID); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("patient_id", patientID).Msg("failed to invalidate due-vaccination cache")
	}
}

func (s *VaccinationService) readDueCache(ctx context.Context, patientID string) ([]*entities.DueVaccination, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, dueCacheKeyPrefix+patientID)
	if err != nil || raw == nil {
		return nil, false
	}
	var due []*entities.DueVaccination
	if err := json.Unmarshal(raw, &due); err != nil {
		return nil, false
	}
	return due, true
}

func (s *VaccinationService) writeDueCache(ctx context.Context, patientID string, due []*entities.DueVaccination) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(due)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, dueCacheKeyPrefix+patientID, raw, dueCacheTTLSecs); err != nil {
		log.Ctx(ctx).Debug().Err(err).Str("patient_id", patientID).Msg("failed to cache due-vaccination projection")
	}
}

func (s *VaccinationService) publishAdministration(ctx context.Context, admin *entities.VaccineAdministration) {
	if s.eventBus == nil {
		return
	}

	event := entities.NewClinicEvent(entities.ClinicEventVaccineAdministered, admin.ID)
	event.PatientID = admin.PatientID
	event.Payload["catalog_entry_id"] = admin.CatalogEntryID
	event.Payload["applied_at"] = admin.AppliedAt

	if err := s.eventBus.Publish(ctx, providers.EventChannelVaccinations, event); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("patient_id", admin.PatientID).Msg("failed to publish vaccination event")
	}
}

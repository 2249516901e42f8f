package repositories

import (
	"context"

	"github.com/caninosoft/vetcore/backend/internal/domain/entities"
)

// VaccineRepository defines access to the vaccine recommendation catalog
// and per-patient administration history. The catalog is immutable
// reference data; administrations are append-only and their dates are
// non-decreasing per (patient, entry) pair.
type VaccineRepository interface {
	// ListCatalog retrieves the catalog entries for a species, ordered by
	// sequence order
	ListCatalog(ctx context.Context, species entities.Species) ([]*entities.VaccineCatalogEntry, error)

	// GetCatalogEntry retrieves a catalog entry by ID
	GetCatalogEntry(ctx context.Context, id string) (*entities.VaccineCatalogEntry, error)

	// RecordAdministration appends an administration. It fails with a
	// validation error when the date precedes the latest recorded
	// administration for the same patient and entry.
	RecordAdministration(ctx context.Context, admin *entities.VaccineAdministration) error

	// ListAdministrations retrieves a patient's administration history,
	// ordered by applied date
	ListAdministrations(ctx context.Context, patientID string) ([]*entities.VaccineAdministration, error)
}

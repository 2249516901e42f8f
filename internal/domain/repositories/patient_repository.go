package repositories

import (
	"context"

	"github.com/caninosoft/vetcore/backend/internal/domain/entities"
)

// PatientRepository defines read access to patients
type PatientRepository interface {
	// GetByID retrieves a patient by ID
	GetByID(ctx context.Context, id string) (*entities.Patient, error)

	// GetByIDs retrieves multiple patients by their IDs
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Patient, error)

	// ListByOwner retrieves an owner's patients, ordered by name
	ListByOwner(ctx context.Context, ownerID string) ([]*entities.Patient, error)

	// ListActive retrieves all active patients. The reminder sweep walks
	// this set to project due vaccinations
	ListActive(ctx context.Context) ([]*entities.Patient, error)
}

// OwnerRepository defines read access to pet owners
type OwnerRepository interface {
	// GetByID retrieves an owner by ID
	GetByID(ctx context.Context, id string) (*entities.Owner, error)
}

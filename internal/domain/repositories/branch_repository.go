package repositories

import (
	"context"

	"github.com/caninosoft/vetcore/backend/internal/domain/entities"
)

// BranchRepository defines read access to clinic branches. Branch
// administration is owned by the surrounding application; the core only
// resolves references.
type BranchRepository interface {
	// GetByID retrieves a branch by ID
	GetByID(ctx context.Context, id string) (*entities.Branch, error)

	// List retrieves all active branches, ordered by name
	List(ctx context.Context) ([]*entities.Branch, error)
}

// VeterinarianRepository defines read access to veterinarians
type VeterinarianRepository interface {
	// GetByID retrieves a veterinarian by ID
	GetByID(ctx context.Context, id string) (*entities.Veterinarian, error)

	// GetByIDs retrieves multiple veterinarians by their IDs
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Veterinarian, error)

	// ListByBranch retrieves the active veterinarians assigned to a branch
	ListByBranch(ctx context.Context, branchID string) ([]*entities.Veterinarian, error)
}

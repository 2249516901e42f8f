package repositories

import (
	"context"

	"github.com/caninosoft/vetcore/backend/internal/domain/entities"
)

// DrugRepository defines the stock ledger interface. Stock mutations are
// atomic per drug: a usage either commits its decrement together with the
// usage row or leaves both untouched, and no concurrent usage against the
// same drug observes an intermediate state. Committed stock never goes
// negative.
type DrugRepository interface {
	// GetByID retrieves a drug by ID
	GetByID(ctx context.Context, id string) (*entities.Drug, error)

	// ListByBranch retrieves a branch's inventory, ordered by name
	ListByBranch(ctx context.Context, branchID string) ([]*entities.Drug, error)

	// RecordUsage decrements stock by quantity and appends the usage row
	// as one atomic unit. It fails with an insufficient stock error when
	// quantity exceeds the current stock.
	RecordUsage(ctx context.Context, appointmentID, drugID string, quantity int) (*entities.TreatmentUsage, error)

	// ReverseUsage re-increments stock and removes the usage atomically.
	// Used when a committed usage must be undone.
	ReverseUsage(ctx context.Context, usageID string) error

	// Restock atomically increments stock by quantity
	Restock(ctx context.Context, drugID string, quantity int) (*entities.Drug, error)

	// ListUsagesByAppointment retrieves the usages committed against an
	// appointment, in recording order
	ListUsagesByAppointment(ctx context.Context, appointmentID string) ([]*entities.TreatmentUsage, error)
}

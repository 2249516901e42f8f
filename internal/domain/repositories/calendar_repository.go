package repositories

import (
	"context"
	"time"

	"github.com/caninosoft/vetcore/backend/internal/domain/entities"
)

// CalendarRepository defines the interface for veterinarian calendar
// reservations. Implementations guarantee that no two committed slots for
// the same veterinarian overlap, and that reservation attempts serialize
// per veterinarian while proceeding in parallel across veterinarians.
type CalendarRepository interface {
	// Reserve commits a slot for the veterinarian covering the interval.
	// It fails with a scheduling conflict error when the interval overlaps
	// an existing reservation, and with a busy error when the
	// veterinarian's calendar could not be locked in time.
	Reserve(ctx context.Context, vetID, branchID string, interval entities.Interval) (*entities.CalendarSlot, error)

	// Release frees a reservation. Releasing an unknown slot is a no-op,
	// making the operation safe to retry.
	Release(ctx context.Context, slotID string) error

	// Query returns the reserved intervals for a veterinarian between from
	// and to, ordered by start time.
	Query(ctx context.Context, vetID string, from, to time.Time) ([]entities.Interval, error)
}

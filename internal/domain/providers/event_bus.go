package providers

import (
	"context"

	"github.com/caninosoft/vetcore/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to clinic
// events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.ClinicEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.ClinicEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event types
const (
	// EventChannelAppointments is the channel for all appointment
	// lifecycle updates
	EventChannelAppointments = "clinic:appointments"

	// EventChannelStock is the channel for drug stock changes
	EventChannelStock = "clinic:stock"

	// EventChannelVaccinations is the channel for vaccine administrations
	EventChannelVaccinations = "clinic:vaccinations"

	// EventChannelBranchPrefix is the prefix for branch-scoped channels
	EventChannelBranchPrefix = "clinic:branch:"
)

// GetBranchChannel returns the channel name for a specific branch
func GetBranchChannel(branchID string) string {
	return EventChannelBranchPrefix + branchID
}

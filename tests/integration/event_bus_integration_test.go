//go:build integration

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caninosoft/vetcore/backend/internal/adapters/events"
	"github.com/caninosoft/vetcore/backend/internal/domain/entities"
	"github.com/caninosoft/vetcore/backend/internal/domain/providers"
)

func TestRedisEventBusFanoutIntegration(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	defer eventBus.Close()

	channel := providers.EventChannelAppointments
	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel1()
	defer cancel2()

	sub1, err := eventBus.Subscribe(ctx1, channel)
	require.NoError(t, err)
	sub2, err := eventBus.Subscribe(ctx2, channel)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	event := entities.NewClinicEvent(entities.ClinicEventAppointmentConfirmed, "appt-redis-1")
	event.BranchID = "branch-1"
	event.VeterinarianID = "vet-1"
	event.Payload["status"] = "confirmed"

	err = eventBus.Publish(context.Background(), channel, event)
	require.NoError(t, err)

	received1 := waitForClinicEvent(t, sub1)
	received2 := waitForClinicEvent(t, sub2)

	assert.Equal(t, event.ID, received1.ID)
	assert.Equal(t, event.ID, received2.ID)
	assert.Equal(t, entities.ClinicEventAppointmentConfirmed, received1.EventType)
	assert.Equal(t, "branch-1", received1.BranchID)
}

func TestRedisEventBusBranchChannelIntegration(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	defer eventBus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := eventBus.Subscribe(ctx, providers.GetBranchChannel("branch-1"))
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	scoped := entities.NewClinicEvent(entities.ClinicEventAppointmentCancelled, "appt-branch-1")
	scoped.BranchID = "branch-1"
	other := entities.NewClinicEvent(entities.ClinicEventAppointmentCancelled, "appt-branch-2")
	other.BranchID = "branch-2"

	require.NoError(t, eventBus.Publish(context.Background(), providers.GetBranchChannel("branch-2"), other))
	require.NoError(t, eventBus.Publish(context.Background(), providers.GetBranchChannel("branch-1"), scoped))

	received := waitForClinicEvent(t, sub)
	assert.Equal(t, "appt-branch-1", received.EntityID)
}

func waitForClinicEvent(t *testing.T, ch <-chan *entities.ClinicEvent) *entities.ClinicEvent {
	t.Helper()
	select {
	case event := <-ch:
		require.NotNil(t, event)
		return event
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for clinic event")
		return nil
	}
}

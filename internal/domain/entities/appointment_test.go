package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitionTable(t *testing.T) {
	allStatuses := []AppointmentStatus{
		AppointmentStatusRequested,
		AppointmentStatusConfirmed,
		AppointmentStatusCompleted,
		AppointmentStatusCancelled,
		AppointmentStatusNoShow,
	}

	allowed := map[AppointmentStatus]map[AppointmentStatus]bool{
		AppointmentStatusRequested: {
			AppointmentStatusConfirmed: true,
			AppointmentStatusCancelled: true,
		},
		AppointmentStatusConfirmed: {
			AppointmentStatusCompleted: true,
			AppointmentStatusCancelled: true,
			AppointmentStatusNoShow:    true,
		},
	}

	// Every pair outside the allowed set must be rejected
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			expected := allowed[from][to]
			assert.Equal(t, expected, from.CanTransitionTo(to),
				"transition %s -> %s", from, to)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.False(t, AppointmentStatusRequested.IsTerminal())
	assert.False(t, AppointmentStatusConfirmed.IsTerminal())
	assert.True(t, AppointmentStatusCompleted.IsTerminal())
	assert.True(t, AppointmentStatusCancelled.IsTerminal())
	assert.True(t, AppointmentStatusNoShow.IsTerminal())
}

func TestStatusValid(t *testing.T) {
	assert.True(t, AppointmentStatusRequested.Valid())
	assert.False(t, AppointmentStatus("pending").Valid())
	assert.False(t, AppointmentStatus("").Valid())
}

func TestAppointmentTypeValid(t *testing.T) {
	assert.True(t, AppointmentTypeCheckup.Valid())
	assert.True(t, AppointmentTypeVaccination.Valid())
	assert.True(t, AppointmentTypeSurgery.Valid())
	assert.False(t, AppointmentType("grooming").Valid())
}

func TestAppointmentInterval(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	appt := &Appointment{ScheduledAt: start, DurationMinutes: 45}

	iv := appt.Interval()
	assert.Equal(t, start, iv.Start)
	assert.Equal(t, start.Add(45*time.Minute), iv.End)
}

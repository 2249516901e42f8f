package entities

import (
	"time"
)

// AppointmentStatus represents the lifecycle status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusRequested AppointmentStatus = "requested"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
)

// transitions is the closed transition table of the appointment lifecycle
var transitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusRequested: {AppointmentStatusConfirmed, AppointmentStatusCancelled},
	AppointmentStatusConfirmed: {AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow},
	AppointmentStatusCompleted: {},
	AppointmentStatusCancelled: {},
	AppointmentStatusNoShow:    {},
}

// CanTransitionTo reports whether the status may move to target
func (s AppointmentStatus) CanTransitionTo(target AppointmentStatus) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions
func (s AppointmentStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// Valid reports whether the status is one of the known values
func (s AppointmentStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// AppointmentType represents the kind of visit
type AppointmentType string

const (
	AppointmentTypeCheckup     AppointmentType = "checkup"
	AppointmentTypeVaccination AppointmentType = "vaccination"
	AppointmentTypeSurgery     AppointmentType = "surgery"
)

// Valid reports whether the appointment type is a known value
func (t AppointmentType) Valid() bool {
	switch t {
	case AppointmentTypeCheckup, AppointmentTypeVaccination, AppointmentTypeSurgery:
		return true
	}
	return false
}

// Appointment represents a scheduled visit of a patient to a veterinarian
type Appointment struct {
	ID              string            `json:"id" db:"id"`
	PatientID       string            `json:"patient_id" db:"patient_id"`
	VeterinarianID  string            `json:"veterinarian_id" db:"veterinarian_id"`
	BranchID        string            `json:"branch_id" db:"branch_id"`
	SlotID          string            `json:"slot_id" db:"slot_id"`
	Type            AppointmentType   `json:"type" db:"type"`
	Status          AppointmentStatus `json:"status" db:"status"`
	RequestedDate   *time.Time        `json:"requested_date,omitempty" db:"requested_date"`
	ScheduledAt     time.Time         `json:"scheduled_at" db:"scheduled_at"`
	DurationMinutes int               `json:"duration_minutes" db:"duration_minutes"`
	Notes           string            `json:"notes" db:"notes"`
	CancelReason    string            `json:"cancel_reason,omitempty" db:"cancel_reason"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`
}

// Interval returns the appointment's half-open time range
func (a *Appointment) Interval() Interval {
	return NewInterval(a.ScheduledAt, a.DurationMinutes)
}

// CalendarSlot is a committed reservation on one veterinarian's calendar.
// Its ID is the handle held by the owning appointment.
type CalendarSlot struct {
	ID             string    `json:"id" db:"id"`
	VeterinarianID string    `json:"veterinarian_id" db:"veterinarian_id"`
	BranchID       string    `json:"branch_id" db:"branch_id"`
	StartsAt       time.Time `json:"starts_at" db:"starts_at"`
	EndsAt         time.Time `json:"ends_at" db:"ends_at"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Interval returns the reserved half-open time range
func (s *CalendarSlot) Interval() Interval {
	return Interval{Start: s.StartsAt, End: s.EndsAt}
}

package repositories

import (
	"context"
	"time"

	"github.com/caninosoft/vetcore/backend/internal/domain/entities"
)

// AppointmentRepository defines the interface for appointment data
// operations. Status changes go through UpdateStatus, a compare-and-swap
// against the expected current status, so concurrent transitions cannot
// both apply. Completion is a dedicated atomic operation (see Complete).
type AppointmentRepository interface {
	// Create creates a new appointment
	Create(ctx context.Context, appointment *entities.Appointment) error

	// GetByID retrieves an appointment by ID
	GetByID(ctx context.Context, id string) (*entities.Appointment, error)

	// List retrieves appointments matching the filter, ordered by
	// scheduled start time
	List(ctx context.Context, filter AppointmentFilter) ([]*entities.Appointment, error)

	// UpdateStatus transitions an appointment from the expected status to
	// the target status, recording the cancel reason when given. It fails
	// with an invalid transition error when the stored status is not the
	// expected one.
	UpdateStatus(ctx context.Context, id string, from, to entities.AppointmentStatus, cancelReason string) error

	// Complete atomically creates the clinical record, commits every drug
	// usage against stock and transitions the appointment from confirmed
	// to completed. Any failure rolls the whole unit back: the appointment
	// stays confirmed, stock is untouched and no record exists.
	Complete(ctx context.Context, appointmentID string, record *entities.ClinicalRecord, usages []entities.UsageRequest) ([]*entities.TreatmentUsage, error)

	// CountOpenByPatient counts non-terminal appointments for a patient.
	// Patients with open appointments must not be deleted.
	CountOpenByPatient(ctx context.Context, patientID string) (int, error)
}

// AppointmentFilter defines filters for listing appointments
type AppointmentFilter struct {
	VeterinarianID string
	PatientID      string
	BranchID       string
	Status         entities.AppointmentStatus
	From           *time.Time
	To             *time.Time
	Limit          int
	Offset         int
}

// ClinicalRecordRepository defines read access to clinical records. There
// is deliberately no standalone insert: records come into existence only
// through the appointment completion transaction.
type ClinicalRecordRepository interface {
	// GetByAppointment retrieves the record produced by an appointment
	GetByAppointment(ctx context.Context, appointmentID string) (*entities.ClinicalRecord, error)

	// ListByPatient retrieves a patient's record history, newest first
	ListByPatient(ctx context.Context, patientID string) ([]*entities.ClinicalRecord, error)
}

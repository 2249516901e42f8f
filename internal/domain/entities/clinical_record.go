package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClinicalRecord is the medical outcome of one completed appointment.
// Exactly one record exists per completed appointment; it is created only
// as part of the completion transition, never standalone.
type ClinicalRecord struct {
	ID             string              `json:"id" db:"id"`
	AppointmentID  string              `json:"appointment_id" db:"appointment_id"`
	PatientID      string              `json:"patient_id" db:"patient_id"`
	VeterinarianID string              `json:"veterinarian_id" db:"veterinarian_id"`
	Diagnosis      string              `json:"diagnosis" db:"diagnosis"`
	Treatment      string              `json:"treatment" db:"treatment"`
	Notes          string              `json:"notes" db:"notes"`
	WeightKg       decimal.NullDecimal `json:"weight_kg" db:"weight_kg"`
	TemperatureC   decimal.NullDecimal `json:"temperature_c" db:"temperature_c"`
	ExamRefs       string              `json:"exam_refs" db:"exam_refs"`
	// NextControlAt recommends a follow-up visit. NoNextControl records the
	// explicit decision that none is needed, distinct from "not yet decided".
	NextControlAt *time.Time `json:"next_control_at,omitempty" db:"next_control_at"`
	NoNextControl bool       `json:"no_next_control" db:"no_next_control"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

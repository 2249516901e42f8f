package entities

import (
	"time"
)

// TreatmentUsage is a committed consumption of a drug quantity tied to one
// appointment. The drug reference is weak: deleting an appointment's usage
// reverses stock but never touches the drug itself.
type TreatmentUsage struct {
	ID            string    `json:"id" db:"id"`
	AppointmentID string    `json:"appointment_id" db:"appointment_id"`
	DrugID        string    `json:"drug_id" db:"drug_id"`
	Quantity      int       `json:"quantity" db:"quantity"`
	RecordedAt    time.Time `json:"recorded_at" db:"recorded_at"`
}

// UsageRequest is the caller-facing shape of one drug consumption inside a
// completion: which drug and how much
type UsageRequest struct {
	DrugID   string `json:"drug_id"`
	Quantity int    `json:"quantity"`
}

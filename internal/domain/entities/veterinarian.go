package entities

import (
	"time"
)

// Specialty represents a veterinarian's area of practice
type Specialty string

const (
	SpecialtyGeneralMedicine Specialty = "general_medicine"
	SpecialtySurgery         Specialty = "surgery"
	SpecialtyDermatology     Specialty = "dermatology"
	SpecialtyOphthalmology   Specialty = "ophthalmology"
	SpecialtyDentistry       Specialty = "dentistry"
	SpecialtyOther           Specialty = "other"
)

// Veterinarian represents a clinician assigned to exactly one branch at a
// time. Branch reassignment is an external administrative update.
type Veterinarian struct {
	ID            string    `json:"id" db:"id"`
	BranchID      string    `json:"branch_id" db:"branch_id"`
	FullName      string    `json:"full_name" db:"full_name"`
	Specialty     Specialty `json:"specialty" db:"specialty"`
	LicenseNumber string    `json:"license_number" db:"license_number"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

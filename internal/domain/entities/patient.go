package entities

import (
	"time"
)

// Species represents the canonical species of a patient. Raw strings from
// the portal are normalized before they reach the core.
type Species string

const (
	SpeciesCanine Species = "canine"
	SpeciesFeline Species = "feline"
	SpeciesOther  Species = "other"
)

// Sex represents a patient's sex
type Sex string

const (
	SexFemale  Sex = "female"
	SexMale    Sex = "male"
	SexUnknown Sex = "unknown"
)

// Patient represents an animal under care, owned by exactly one Owner.
// Patients are never deleted while open appointments reference them.
type Patient struct {
	ID          string    `json:"id" db:"id"`
	OwnerID     string    `json:"owner_id" db:"owner_id"`
	Name        string    `json:"name" db:"name"`
	Species     Species   `json:"species" db:"species"`
	Breed       string    `json:"breed" db:"breed"`
	Sex         Sex       `json:"sex" db:"sex"`
	DateOfBirth time.Time `json:"date_of_birth" db:"date_of_birth"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// AgeAt returns the patient's age at the given instant
func (p *Patient) AgeAt(t time.Time) time.Duration {
	if t.Before(p.DateOfBirth) {
		return 0
	}
	return t.Sub(p.DateOfBirth)
}

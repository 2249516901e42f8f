package entities

import (
	"time"
)

// TimeUnit expresses vaccine catalog ages and booster intervals
type TimeUnit string

const (
	TimeUnitWeeks  TimeUnit = "weeks"
	TimeUnitMonths TimeUnit = "months"
	TimeUnitYears  TimeUnit = "years"
)

// Valid reports whether the unit is a known value
func (u TimeUnit) Valid() bool {
	switch u {
	case TimeUnitWeeks, TimeUnitMonths, TimeUnitYears:
		return true
	}
	return false
}

// AgeSpan is a duration expressed in catalog units (e.g. 6 weeks, 1 year)
type AgeSpan struct {
	Value int      `json:"value" db:"-"`
	Unit  TimeUnit `json:"unit" db:"-"`
}

// AddTo advances t by the span using calendar arithmetic, so "1 month"
// lands on the same day of the next month
func (s AgeSpan) AddTo(t time.Time) time.Time {
	switch s.Unit {
	case TimeUnitWeeks:
		return t.AddDate(0, 0, 7*s.Value)
	case TimeUnitMonths:
		return t.AddDate(0, s.Value, 0)
	case TimeUnitYears:
		return t.AddDate(s.Value, 0, 0)
	}
	return t
}

// IsZero reports whether the span is unset
func (s AgeSpan) IsZero() bool {
	return s.Value == 0 && s.Unit == ""
}

// VaccineCatalogEntry is an immutable reference record recommending a
// vaccination for a species. Entries form an ordered series per species:
// SequenceOrder drives iteration and PredecessorID links each entry to the
// prior dose in the series (nil for series heads).
type VaccineCatalogEntry struct {
	ID             string   `json:"id" db:"id"`
	Species        Species  `json:"species" db:"species"`
	Name           string   `json:"name" db:"name"`
	Description    string   `json:"description" db:"description"`
	RecommendedAge AgeSpan  `json:"recommended_age"`
	// BoosterInterval is nil for one-shot vaccines; otherwise each
	// administration schedules the next dose one interval later
	BoosterInterval *AgeSpan `json:"booster_interval,omitempty"`
	BoosterNote     string   `json:"booster_note" db:"booster_note"`
	SequenceOrder   int      `json:"sequence_order" db:"sequence_order"`
	PredecessorID   *string  `json:"predecessor_id,omitempty" db:"predecessor_id"`
}

// IsOneShot reports whether the entry has no recurring booster policy
func (e *VaccineCatalogEntry) IsOneShot() bool {
	return e.BoosterInterval == nil
}

// VaccineAdministration records one applied dose of a catalog entry to a
// patient. Dates for the same patient/entry pair are non-decreasing.
type VaccineAdministration struct {
	ID             string    `json:"id" db:"id"`
	PatientID      string    `json:"patient_id" db:"patient_id"`
	CatalogEntryID string    `json:"catalog_entry_id" db:"catalog_entry_id"`
	VeterinarianID *string   `json:"veterinarian_id,omitempty" db:"veterinarian_id"`
	AppliedAt      time.Time `json:"applied_at" db:"applied_at"`
	Notes          string    `json:"notes" db:"notes"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// DueVaccination is one line of the computed due-date projection. It is
// derived on demand from the catalog and administration history and never
// persisted as a source of truth.
type DueVaccination struct {
	Entry       *VaccineCatalogEntry `json:"entry"`
	DueAt       time.Time            `json:"due_at"`
	Overdue     bool                 `json:"overdue"`
	LastApplied *time.Time           `json:"last_applied,omitempty"`
}

package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAgeSpanAddTo(t *testing.T) {
	base := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		span     AgeSpan
		expected time.Time
	}{
		{"six weeks", AgeSpan{Value: 6, Unit: TimeUnitWeeks}, base.AddDate(0, 0, 42)},
		{"three months", AgeSpan{Value: 3, Unit: TimeUnitMonths}, time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)},
		{"one year", AgeSpan{Value: 1, Unit: TimeUnitYears}, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"unknown unit is a no-op", AgeSpan{Value: 5, Unit: ""}, base},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.span.AddTo(base))
		})
	}
}

func TestCatalogEntryOneShot(t *testing.T) {
	oneShot := &VaccineCatalogEntry{Name: "Bordetella bronchiseptica"}
	assert.True(t, oneShot.IsOneShot())

	annual := &VaccineCatalogEntry{
		Name:            "Rabies",
		BoosterInterval: &AgeSpan{Value: 1, Unit: TimeUnitYears},
	}
	assert.False(t, annual.IsOneShot())
}

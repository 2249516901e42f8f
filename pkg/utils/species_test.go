package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSpecies(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"english dog", "dog", SpeciesCanine},
		{"spanish dog", "Perro", SpeciesCanine},
		{"canonical canine", "canine", SpeciesCanine},
		{"spanish catalog value", "canino", SpeciesCanine},
		{"english cat", "cat", SpeciesFeline},
		{"spanish cat", "GATO", SpeciesFeline},
		{"feminine form", "gata", SpeciesFeline},
		{"with qualifier", "canine (mixed breed)", SpeciesCanine},
		{"with slash qualifier", "dog/labrador", SpeciesCanine},
		{"whitespace", "  felino  ", SpeciesFeline},
		{"unknown species", "iguana", SpeciesOther},
		{"empty", "", SpeciesOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeSpecies(tt.input))
		})
	}
}

func TestIsCatalogSpecies(t *testing.T) {
	assert.True(t, IsCatalogSpecies(SpeciesCanine))
	assert.True(t, IsCatalogSpecies(SpeciesFeline))
	assert.False(t, IsCatalogSpecies(SpeciesOther))
	assert.False(t, IsCatalogSpecies("iguana"))
}

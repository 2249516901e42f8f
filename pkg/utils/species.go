package utils

import (
	"strings"
)

// Canonical species values used by the vaccine catalog
const (
	SpeciesCanine = "canine"
	SpeciesFeline = "feline"
	SpeciesOther  = "other"
)

// speciesSynonyms maps raw patient species strings, as typed by clinic
// staff in either English or Spanish, to canonical values
var speciesSynonyms = map[string]string{
	"canine":  SpeciesCanine,
	"canino":  SpeciesCanine,
	"canina":  SpeciesCanine,
	"dog":     SpeciesCanine,
	"perro":   SpeciesCanine,
	"perra":   SpeciesCanine,
	"feline":  SpeciesFeline,
	"felino":  SpeciesFeline,
	"felina":  SpeciesFeline,
	"cat":     SpeciesFeline,
	"gato":    SpeciesFeline,
	"gata":    SpeciesFeline,
	"kitten":  SpeciesFeline,
	"puppy":   SpeciesCanine,
	"cachorro": SpeciesCanine,
}

// NormalizeSpecies maps a free-form species string to its canonical value.
// Unknown species normalize to SpeciesOther.
func NormalizeSpecies(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return SpeciesOther
	}
	if canonical, ok := speciesSynonyms[key]; ok {
		return canonical
	}
	// Tolerate qualifiers like "canine (mixed breed)"
	if idx := strings.IndexAny(key, " (/"); idx > 0 {
		if canonical, ok := speciesSynonyms[key[:idx]]; ok {
			return canonical
		}
	}
	return SpeciesOther
}

// IsCatalogSpecies reports whether the canonical species has vaccine
// catalog coverage
func IsCatalogSpecies(species string) bool {
	return species == SpeciesCanine || species == SpeciesFeline
}

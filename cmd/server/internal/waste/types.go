// Package waste defines the fixed agricultural waste-type vocabulary.
// The set is closed: manual correction choices and classifier output are
// matched against these labels, and the labels themselves are never
// translated so they stay comparable with the classification service.
package waste

import "strings"

// Types lists the known agricultural waste categories in display order.
var Types = []string{
	"Wheat Straw",
	"Rice Husk",
	"Corn Stover",
	"Sugarcane Bagasse",
	"Manure",
	"Fruit/Vegetable Waste",
	"Other Biomass",
}

// ConfidenceBand labels a classifier confidence value for display.
type ConfidenceBand string

const (
	BandHigh   ConfidenceBand = "high"   // confidence > 0.8
	BandMedium ConfidenceBand = "medium" // confidence > 0.5
	BandLow    ConfidenceBand = "low"
)

// IsKnown reports whether label is one of the fixed waste types.
func IsKnown(label string) bool {
	_, ok := Normalize(label)
	return ok
}

// Normalize maps a label to its canonical form, matching case-insensitively
// and ignoring surrounding whitespace. Returns false for unknown labels.
func Normalize(label string) (string, bool) {
	trimmed := strings.TrimSpace(label)
	for _, t := range Types {
		if strings.EqualFold(t, trimmed) {
			return t, true
		}
	}
	return "", false
}

// Band returns the display band for a confidence value in [0,1].
func Band(confidence float64) ConfidenceBand {
	switch {
	case confidence > 0.8:
		return BandHigh
	case confidence > 0.5:
		return BandMedium
	default:
		return BandLow
	}
}

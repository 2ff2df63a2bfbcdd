package analyze

import (
	"fmt"

	"github.com/formvault/pdf-stamper/internal/profile"
)

// LowConfidenceThreshold is the analyzer confidence below which a mapped
// field gets a review warning attached to the response.
const LowConfidenceThreshold = 80

// MappedField is a detected field joined with the profile value that should
// be written into its box. ID carries the detected region's instance id so
// render adjustments can target one box even when a form repeats a label.
type MappedField struct {
	ID         string      `json:"id"`
	FieldKey   string      `json:"fieldKey"`
	Value      string      `json:"value"`
	Box        BoundingBox `json:"box"`
	Page       int         `json:"page"`
	Confidence float64     `json:"confidence"`
}

// MapFields joins detected fields against the profile. Fields whose key
// resolves to nothing, or whose profile value is empty, are dropped rather
// than stamped blank. Low-confidence matches survive but carry a warning so
// the caller can flag them for review.
func MapFields(p *profile.Profile, fields []DetectedField) (mapped []MappedField, warnings []string) {
	for _, f := range fields {
		fieldKey, value, ok := p.ResolveKey(f.Key)
		if !ok {
			continue
		}
		if f.Confidence > 0 && f.Confidence < LowConfidenceThreshold {
			warnings = append(warnings, fmt.Sprintf(
				"field %q matched %s with low confidence (%.0f%%), verify placement", f.Key, fieldKey, f.Confidence))
		}
		mapped = append(mapped, MappedField{
			ID:         f.ID,
			FieldKey:   fieldKey,
			Value:      value,
			Box:        f.Box,
			Page:       f.Page,
			Confidence: f.Confidence,
		})
	}
	return mapped, warnings
}

// BestSignature returns the highest-confidence signature region, or false
// when the analyzer found none.
func BestSignature(sigs []DetectedSignature) (DetectedSignature, bool) {
	if len(sigs) == 0 {
		return DetectedSignature{}, false
	}
	best := sigs[0]
	for _, s := range sigs[1:] {
		if s.Confidence > best.Confidence {
			best = s
		}
	}
	return best, true
}

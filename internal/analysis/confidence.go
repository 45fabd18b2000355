package analysis

import (
	"strings"

	"finadvisor/internal/config"
)

// Scorer derives a confidence score in [0,1] from a generated response.
// The score is a fixed, documented heuristic, not a model output.
type Scorer func(text string) float64

// NewLengthHeuristicScorer builds the default scorer from configuration:
//
//	score = clamp01(min(ceiling, base + len(text)/lengthDivisor)
//	                - markerPenalty * lowConfidenceMarkersFound)
//
// Longer responses score higher up to the ceiling; each distinct
// low-confidence marker present in the text subtracts a fixed penalty.
func NewLengthHeuristicScorer(cfg config.Confidence) Scorer {
	markers := make([]string, len(cfg.LowConfidenceMarkers))
	for i, m := range cfg.LowConfidenceMarkers {
		markers[i] = strings.ToLower(m)
	}
	return func(text string) float64 {
		score := cfg.Base + float64(len(text))/cfg.LengthDivisor
		if score > cfg.Ceiling {
			score = cfg.Ceiling
		}
		lower := strings.ToLower(text)
		for _, m := range markers {
			if strings.Contains(lower, m) {
				score -= cfg.MarkerPenalty
			}
		}
		if score < 0 {
			return 0
		}
		if score > 1 {
			return 1
		}
		return score
	}
}

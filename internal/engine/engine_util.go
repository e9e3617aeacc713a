package engine

import (
	"math"
	"math/rand/v2"
)

const (
	DefaultRoundSeconds = 15
	MinRoundSeconds     = 5
	MaxRoundSeconds     = 1200
)

// ClampDuration turns a host-supplied duration into the round length.
// Missing, non-finite and non-positive values fall back to def; anything
// else is rounded to whole seconds and clamped to [MinRoundSeconds,
// MaxRoundSeconds]. A round is never refused over its duration.
func ClampDuration(requested *float64, def int) int {
	if def <= 0 {
		def = DefaultRoundSeconds
	}
	if requested == nil {
		return def
	}
	v := *requested
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return def
	}
	secs := int(math.Round(v))
	return min(max(secs, MinRoundSeconds), MaxRoundSeconds)
}

// pickIndex is swapped out by tests that need a fixed choice.
var pickIndex = func(n int) int { return rand.IntN(n) }

func RandomPrompt() string {
	return Words[pickIndex(len(Words))]
}

// RandomWinner picks uniformly among ids, or "" when there are none.
func RandomWinner(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return ids[pickIndex(len(ids))]
}

// Package ranking implements the time-decayed popularity score used to
// order the hot feed.
package ranking

import (
	"math"
	"time"
)

// epochOffset anchors the age term. Changing it would rescale every
// stored rank, so it must stay fixed for compatibility with existing rows.
const epochOffset = 1134028003

// decayWindow is the number of seconds of age worth one order of
// magnitude of score.
const decayWindow = 45000

// Hot computes the hot rank for a target with the given vote score and
// creation time. It is a pure function of its inputs and safe to
// recompute from persisted fields at any time.
func Hot(score int64, createdAt time.Time) float64 {
	sign := 0.0
	if score > 0 {
		sign = 1
	} else if score < 0 {
		sign = -1
	}
	abs := score
	if abs < 0 {
		abs = -abs
	}
	order := math.Log10(math.Max(float64(abs), 1))
	age := float64(createdAt.Unix() - epochOffset)
	return round7(sign*order + age/decayWindow)
}

// round7 rounds to 7 decimal places, matching the precision the rank is
// persisted with.
func round7(v float64) float64 {
	return math.Round(v*1e7) / 1e7
}

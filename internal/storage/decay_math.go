package storage

import "math"

// decayImportance applies exponential temporal decay:
// new = max(floor, old * exp(-lambda * hoursElapsed)).
func decayImportance(old float32, lambda float64, floor float32, hoursElapsed float64) float32 {
	decayed := float32(float64(old) * math.Exp(-lambda*hoursElapsed))
	if decayed < floor {
		return floor
	}
	return decayed
}

package storage

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summarize returns min, max, mean and std of energies. An empty slice gives
// an empty map; NaN or infinite results are left out.
func Summarize(energies []float64) map[string]float64 {
	out := map[string]float64{}
	if len(energies) == 0 {
		return out
	}
	mean, std := stat.MeanStdDev(energies, nil)
	set(out, "min", floats.Min(energies))
	set(out, "max", floats.Max(energies))
	set(out, "mean", mean)
	if len(energies) > 1 {
		set(out, "std", std)
	}
	return out
}

// set skips non-finite values, which encoding/json rejects.
func set(m map[string]float64, key string, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	m[key] = v
}

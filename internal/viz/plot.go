package viz

import (
	"math"

	"github.com/guptarohit/asciigraph"
)

const (
	PlotHeight = 12
	PlotWidth  = 80
)

// EnergyPlot draws energies against geometry index. Non-finite values are
// dropped and long series are averaged down to the plot width.
func EnergyPlot(energies []float64, caption string) string {
	data := make([]float64, 0, len(energies))
	for _, e := range energies {
		if !math.IsNaN(e) && !math.IsInf(e, 0) {
			data = append(data, e)
		}
	}
	if len(data) == 0 {
		return Subtle.Render("no finite energies to plot")
	}
	if len(data) == 1 {
		data = append(data, data[0])
	}
	return asciigraph.Plot(downsample(data, PlotWidth),
		asciigraph.Height(PlotHeight),
		asciigraph.Width(PlotWidth),
		asciigraph.Caption(caption),
	)
}

// downsample averages values into n buckets.
func downsample(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	out := make([]float64, n)
	for i := range out {
		lo := i * len(values) / n
		hi := (i + 1) * len(values) / n
		s := 0.0
		for _, v := range values[lo:hi] {
			s += v
		}
		out[i] = s / float64(hi-lo)
	}
	return out
}

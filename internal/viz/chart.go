package viz

import (
	"errors"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// SaveEnergyChart draws energy against geometry index and writes it to
// filename. The extension picks the format (png, svg, pdf, ...).
// Non-finite energies are left out.
func SaveEnergyChart(filename, title, units string, energies []float64) error {
	pts := make(plotter.XYs, 0, len(energies))
	for i, e := range energies {
		if math.IsNaN(e) || math.IsInf(e, 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(i), Y: e})
	}
	if len(pts) == 0 {
		return errors.New("viz: no finite energies to chart")
	}

	p := plot.New()
	p.Title.Text = title
	p.Title.Padding = 3 * vg.Millimeter
	p.X.Label.Text = "geometry"
	p.Y.Label.Text = "energy (" + units + ")"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	p.Add(line)
	if len(pts) <= 200 {
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		s.GlyphStyle.Radius = vg.Points(1.5)
		p.Add(s)
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, filename)
}

package viz

import (
	"fmt"
	"strings"
	"time"
)

type Summary struct {
	Title      string
	Source     string
	Geometries int
	Atoms      int
	Workers    int
	Elapsed    time.Duration
	Timed      bool
	Units      string
	Stats      map[string]float64
	Energies   []float64
}

func (s Summary) Render() string {
	rows := [][2]string{
		{"potential", s.Source},
		{"geometries", fmt.Sprintf("%d × %d atoms", s.Geometries, s.Atoms)},
		{"workers", workers(s.Workers)},
	}
	if s.Timed {
		rows = append(rows, [2]string{"elapsed", s.Elapsed.String()})
		if s.Elapsed > 0 && s.Geometries > 0 {
			rate := float64(s.Geometries) / s.Elapsed.Seconds()
			rows = append(rows, [2]string{"throughput", fmt.Sprintf("%.0f geometries/s", rate)})
		}
	}
	for _, key := range []string{"min", "max", "mean", "std"} {
		if v, ok := s.Stats[key]; ok {
			rows = append(rows, [2]string{key, fmt.Sprintf("%.10g %s", v, s.Units)})
		}
	}

	var b strings.Builder
	b.WriteString(Title.Render(s.Title))
	b.WriteString("\n")
	b.WriteString(Separator(40))
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString(Label.Render(fmt.Sprintf("%-11s", r[0])))
		b.WriteString(" ")
		b.WriteString(Value.Render(r[1]))
		b.WriteString("\n")
	}
	if len(s.Energies) > 1 {
		b.WriteString(Sparkline(s.Energies, 40))
	}
	return Panel.Render(strings.TrimRight(b.String(), "\n"))
}

func workers(n int) string {
	if n == 0 {
		return "serial"
	}
	return fmt.Sprintf("%d", n)
}

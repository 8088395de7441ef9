// Package viz renders evaluation results for the terminal: lipgloss styled
// summaries, sparklines and asciigraph energy plots.
package viz

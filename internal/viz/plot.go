package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/san-kum/partsim/internal/event"
	"github.com/san-kum/partsim/internal/metrics"
	"github.com/san-kum/partsim/internal/particle"
)

var printer = message.NewPrinter(language.English)

// FormatCount groups digits, e.g. 100000 -> "100,000".
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}

type PlotOptions struct {
	Width  int
	Height int
}

// PlotHistogram draws the bin contents of h as an ASCII line chart captioned
// with the range, entries and mean.
func PlotHistogram(h *metrics.Histogram, opts PlotOptions) string {
	if opts.Height <= 0 {
		opts.Height = 10
	}
	if opts.Width <= 0 {
		opts.Width = 60
	}

	data := h.Counts
	if len(data) == 1 {
		data = []float64{data[0], data[0]}
	}
	caption := fmt.Sprintf("%s [%g, %g)  entries %s  mean %.4g  std %.4g",
		h.Name, h.Min, h.Max, FormatCount(h.Entries), h.Mean(), h.StdDev())
	return asciigraph.Plot(data,
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption(caption),
	)
}

// SummaryTable renders run totals as label/value rows.
func SummaryTable(sum event.Summary) string {
	var s strings.Builder
	rows := []struct {
		label string
		value int
	}{
		{"Events", sum.Events},
		{"Particles", sum.Particles},
		{"Decays", sum.Decays},
		{"Skipped", sum.Skipped},
		{"Forbidden", sum.Forbidden},
	}
	for _, r := range rows {
		s.WriteString(MetricLabel.Render(r.label) + MetricValue.Render(FormatCount(r.value)) + "\n")
	}
	return s.String()
}

// SpeciesTable lists the registry in handle order.
func SpeciesTable(reg *particle.Registry) string {
	var s strings.Builder
	s.WriteString(Header.Render(fmt.Sprintf("%-4s %-8s %10s %7s %8s", "#", "NAME", "MASS", "CHARGE", "WIDTH")) + "\n")
	for i, sp := range reg.All() {
		width := "-"
		if sp.IsResonance() {
			width = fmt.Sprintf("%.4f", sp.Width)
		}
		s.WriteString(fmt.Sprintf("%-4d %-8s %10.5f %+7d %8s\n", i, sp.Name, sp.Mass, sp.Charge, width))
	}
	s.WriteString(Subtle.Render(fmt.Sprintf("%d of %d species slots used", reg.Count(), reg.Cap())) + "\n")
	return s.String()
}

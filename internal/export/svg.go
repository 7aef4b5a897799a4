package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/partsim/internal/metrics"
	"github.com/san-kum/partsim/internal/viz"
)

const margin = 40.0

// CanvasToSVG draws every lit braille dot as a circle.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	dw, dh := canvas.Dots()
	width := float64(dw) * scale
	height := float64(dh) * scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00ff00">
`, width, height, width, height)

	r := scale * 0.4
	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			if canvas.IsSet(x, y) {
				fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
					float64(x)*scale+scale/2, float64(y)*scale+scale/2, r)
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// HistogramSVG draws h as a step outline with per-bin error bars.
func HistogramSVG(h *metrics.Histogram, width, height int, strokeColor string) string {
	if h == nil || h.Bins == 0 {
		return ""
	}

	top := 0.0
	for i, c := range h.Counts {
		top = max(top, c+h.BinError(i))
	}
	if top == 0 {
		top = 1
	}
	top *= 1.05

	plotW := float64(width) - 2*margin
	plotH := float64(height) - 2*margin
	xOf := func(i int) float64 { return margin + float64(i)/float64(h.Bins)*plotW }
	yOf := func(v float64) float64 { return margin + plotH - v/top*plotH }

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g stroke="#666688" fill="#888899" font-family="monospace" font-size="11">
<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
<text x="%.1f" y="%.1f" stroke="none">%g</text>
<text x="%.1f" y="%.1f" stroke="none" text-anchor="end">%g</text>
<text x="%.1f" y="%.1f" stroke="none" text-anchor="middle">%s (entries %d)</text>
</g>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height,
		margin, margin+plotH, margin+plotW, margin+plotH,
		margin, margin, margin, margin+plotH,
		margin, margin+plotH+15, h.Min,
		margin+plotW, margin+plotH+15, h.Max,
		margin+plotW/2, margin-15, h.Name, h.Entries,
		strokeColor)

	fmt.Fprintf(&sb, "%.1f,%.1f", xOf(0), yOf(0))
	for i, c := range h.Counts {
		fmt.Fprintf(&sb, " L%.1f,%.1f L%.1f,%.1f", xOf(i), yOf(c), xOf(i+1), yOf(c))
	}
	fmt.Fprintf(&sb, " L%.1f,%.1f\"/>\n", xOf(h.Bins), yOf(0))

	fmt.Fprintf(&sb, "<g stroke=\"%s\" stroke-width=\"1\">\n", strokeColor)
	for i, c := range h.Counts {
		e := h.BinError(i)
		if e == 0 {
			continue
		}
		x := (xOf(i) + xOf(i+1)) / 2
		fmt.Fprintf(&sb, "<line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\"/>\n", x, yOf(c-e), x, yOf(c+e))
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

package metrics

import (
	"fmt"
	"math"
)

// Histogram is a fixed-binning 1D histogram with per-bin sum of squared
// weights. The upper edge is exclusive; values outside [Min, Max) go to the
// underflow and overflow counters.
type Histogram struct {
	Name      string    `json:"name"`
	Bins      int       `json:"bins"`
	Min       float64   `json:"min"`
	Max       float64   `json:"max"`
	Counts    []float64 `json:"counts"`
	SumW2     []float64 `json:"sumw2"`
	Underflow float64   `json:"underflow"`
	Overflow  float64   `json:"overflow"`
	Entries   int       `json:"entries"`

	sumW   float64
	sumWX  float64
	sumWX2 float64
}

func NewHistogram(name string, bins int, min, max float64) (*Histogram, error) {
	if bins <= 0 {
		return nil, fmt.Errorf("histogram %s: bins must be positive, got %d", name, bins)
	}
	if !(max > min) {
		return nil, fmt.Errorf("histogram %s: empty range [%v, %v)", name, min, max)
	}
	return &Histogram{
		Name:   name,
		Bins:   bins,
		Min:    min,
		Max:    max,
		Counts: make([]float64, bins),
		SumW2:  make([]float64, bins),
	}, nil
}

func (h *Histogram) Fill(x float64) { h.FillWeight(x, 1) }

// FillWeight ignores NaN values.
func (h *Histogram) FillWeight(x, w float64) {
	if math.IsNaN(x) {
		return
	}
	h.Entries++

	switch {
	case x < h.Min:
		h.Underflow += w
		return
	case x >= h.Max:
		h.Overflow += w
		return
	}

	i := int((x - h.Min) / h.BinWidth())
	if i >= h.Bins {
		i = h.Bins - 1
	}
	h.Counts[i] += w
	h.SumW2[i] += w * w

	h.sumW += w
	h.sumWX += w * x
	h.sumWX2 += w * x * x
}

func (h *Histogram) BinWidth() float64 { return (h.Max - h.Min) / float64(h.Bins) }

func (h *Histogram) BinLow(i int) float64 { return h.Min + float64(i)*h.BinWidth() }

func (h *Histogram) BinCenter(i int) float64 { return h.BinLow(i) + 0.5*h.BinWidth() }

// BinError is sqrt of the summed squared weights in bin i.
func (h *Histogram) BinError(i int) float64 { return math.Sqrt(h.SumW2[i]) }

// Integral is the in-range content.
func (h *Histogram) Integral() float64 {
	total := 0.0
	for _, c := range h.Counts {
		total += c
	}
	return total
}

// Mean of in-range fills. For histograms rebuilt from stored bins it falls
// back to bin centres.
func (h *Histogram) Mean() float64 {
	if h.sumW > 0 {
		return h.sumWX / h.sumW
	}
	sw, swx := 0.0, 0.0
	for i, c := range h.Counts {
		sw += c
		swx += c * h.BinCenter(i)
	}
	if sw == 0 {
		return 0
	}
	return swx / sw
}

func (h *Histogram) StdDev() float64 {
	var sw, swx, swx2 float64
	if h.sumW > 0 {
		sw, swx, swx2 = h.sumW, h.sumWX, h.sumWX2
	} else {
		for i, c := range h.Counts {
			x := h.BinCenter(i)
			sw += c
			swx += c * x
			swx2 += c * x * x
		}
	}
	if sw == 0 {
		return 0
	}
	mean := swx / sw
	v := swx2/sw - mean*mean
	if v < 0 {
		return 0
	}
	return math.Sqrt(v)
}

// MaxBin returns the index of the fullest bin.
func (h *Histogram) MaxBin() int {
	best := 0
	for i, c := range h.Counts {
		if c > h.Counts[best] {
			best = i
		}
	}
	return best
}

func (h *Histogram) Reset() {
	for i := range h.Counts {
		h.Counts[i] = 0
		h.SumW2[i] = 0
	}
	h.Underflow, h.Overflow = 0, 0
	h.Entries = 0
	h.sumW, h.sumWX, h.sumWX2 = 0, 0, 0
}

package particle

import "fmt"

// Species describes one particle type. A species with positive Width is a
// resonance and may be decayed; otherwise it is stable.
type Species struct {
	Name   string
	Mass   float64
	Charge int
	Width  float64
}

func (s Species) IsResonance() bool { return s.Width > 0 }

func (s Species) String() string {
	if s.IsResonance() {
		return fmt.Sprintf("%s (m=%.5f q=%+d w=%.4f)", s.Name, s.Mass, s.Charge, s.Width)
	}
	return fmt.Sprintf("%s (m=%.5f q=%+d)", s.Name, s.Mass, s.Charge)
}

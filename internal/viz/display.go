package viz

import (
	"math"

	"github.com/san-kum/partsim/internal/event"
	"github.com/san-kum/partsim/internal/kinematics"
)

// Direction is a momentum direction, Theta in [0, pi] and Phi in [0, 2pi).
type Direction struct {
	Theta, Phi float64
}

func DirectionOf(p kinematics.Vec3) Direction {
	phi := math.Atan2(p.Y, p.X)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	return Direction{Theta: math.Atan2(p.Perp(), p.Z), Phi: phi}
}

// EventSnapshot keeps the directions of one event's final-state particles.
// Decay products are stored pairwise in Products.
type EventSnapshot struct {
	Index     int
	Particles []Direction
	Products  []Direction
}

// Snapshot copies what the display needs out of ev, whose buffers the
// generator reuses.
func Snapshot(ev *event.Event) EventSnapshot {
	s := EventSnapshot{
		Index:     ev.Index,
		Particles: make([]Direction, 0, len(ev.Particles)),
		Products:  make([]Direction, 0, len(ev.Products)),
	}
	for _, p := range ev.Particles {
		s.Particles = append(s.Particles, DirectionOf(p.Momentum()))
	}
	for _, p := range ev.Products {
		s.Products = append(s.Products, DirectionOf(p.Momentum()))
	}
	return s
}

// DrawEvent plots every direction on the phi (horizontal) versus theta
// (vertical) plane and joins each pair of decay products.
func DrawEvent(c *Canvas, s EventSnapshot) {
	c.Clear()
	w, h := c.Dots()
	toDots := func(d Direction) (int, int) {
		x := int(math.Round(d.Phi / (2 * math.Pi) * float64(w-1)))
		y := int(math.Round(d.Theta / math.Pi * float64(h-1)))
		return x, y
	}

	for _, d := range s.Particles {
		c.Set(toDots(d))
	}
	for i := 0; i+1 < len(s.Products); i += 2 {
		x0, y0 := toDots(s.Products[i])
		x1, y1 := toDots(s.Products[i+1])
		c.DrawLine(x0, y0, x1, y1)
	}
}

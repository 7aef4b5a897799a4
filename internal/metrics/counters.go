package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/partsim/internal/event"
)

const namespace = "partsim"

// Counters tracks run totals as Prometheus metrics on a private registry.
type Counters struct {
	registry *prometheus.Registry

	Events       prometheus.Counter
	Particles    prometheus.Counter
	Decays       prometheus.Counter
	Skipped      prometheus.Counter
	Forbidden    prometheus.Counter
	Multiplicity prometheus.Histogram
}

func NewCounters() *Counters {
	c := &Counters{
		registry: prometheus.NewRegistry(),
		Events: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "events_total",
			Help: "Number of simulated events.",
		}),
		Particles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "particles_total",
			Help: "Final-state particles, decay products included.",
		}),
		Decays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "decays_total",
			Help: "Two-body decays performed.",
		}),
		Skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "skipped_particles_total",
			Help: "Particles dropped after a per-slot error.",
		}),
		Forbidden: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "forbidden_decays_total",
			Help: "Resonances left undecayed because the channel was closed.",
		}),
		Multiplicity: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "event_multiplicity",
			Help:    "Final-state particles per event.",
			Buckets: prometheus.LinearBuckets(90, 5, 8),
		}),
	}
	c.registry.MustRegister(c.Events, c.Particles, c.Decays, c.Skipped, c.Forbidden, c.Multiplicity)
	return c
}

func (c *Counters) OnEvent(ev *event.Event) {
	n := len(ev.Particles) + len(ev.Products)
	c.Events.Inc()
	c.Particles.Add(float64(n))
	c.Decays.Add(float64(ev.Decays()))
	c.Skipped.Add(float64(ev.Skipped))
	c.Forbidden.Add(float64(ev.Forbidden))
	c.Multiplicity.Observe(float64(n))
}

func (c *Counters) Gatherer() prometheus.Gatherer { return c.registry }

// WriteTextfile writes the counters in the Prometheus text format, suitable
// for the node exporter textfile collector.
func (c *Counters) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}

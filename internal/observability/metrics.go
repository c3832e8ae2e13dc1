// Package observability exposes simulation progress as Prometheus metrics.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vovakirdan/causal-sim/internal/sim"
)

// Contact kinds used as the "kind" label.
const (
	KindBoundary = "boundary"
	KindStatic   = "static"
	KindMobile   = "mobile"
)

// Collector bundles the simulation metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	Ticks              prometheus.Counter
	Contacts           *prometheus.CounterVec
	Restarts           prometheus.Counter
	SnapshotsPersisted prometheus.Counter
	StreamLength       prometheus.Gauge
	CurrentTick        prometheus.Gauge
}

// NewCollector registers the simulation metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ticks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "causalsim_ticks_total",
		Help: "Total number of completed simulation steps.",
	}), "causalsim_ticks_total")
	if err != nil {
		return nil, err
	}

	contacts, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "causalsim_contacts_total",
		Help: "Total number of resolved contacts, labeled by kind (boundary, static, mobile).",
	}, []string{"kind"}), "causalsim_contacts_total")
	if err != nil {
		return nil, err
	}

	restarts, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "causalsim_restarts_total",
		Help: "Total number of simulation restarts.",
	}), "causalsim_restarts_total")
	if err != nil {
		return nil, err
	}

	persisted, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "causalsim_snapshots_persisted_total",
		Help: "Total number of snapshots written to storage.",
	}), "causalsim_snapshots_persisted_total")
	if err != nil {
		return nil, err
	}

	length, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "causalsim_stream_length",
		Help: "Number of snapshots currently held by the stream.",
	}), "causalsim_stream_length")
	if err != nil {
		return nil, err
	}

	tick, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "causalsim_tick",
		Help: "Tick of the most recent snapshot.",
	}), "causalsim_tick")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:           gatherer,
		Ticks:              ticks,
		Contacts:           contacts,
		Restarts:           restarts,
		SnapshotsPersisted: persisted,
		StreamLength:       length,
		CurrentTick:        tick,
	}, nil
}

// ObserveStep records one step. Its signature matches sim.Observer.
func (c *Collector) ObserveStep(snap sim.Snapshot, stats sim.StepStats) {
	if c == nil {
		return
	}
	c.Ticks.Inc()
	c.CurrentTick.Set(float64(snap.Tick))
	c.Contacts.WithLabelValues(KindBoundary).Add(float64(stats.BoundaryContacts))
	c.Contacts.WithLabelValues(KindStatic).Add(float64(stats.StaticContacts))
	c.Contacts.WithLabelValues(KindMobile).Add(float64(stats.MobileContacts))
}

// ObserveRestart records a restart.
func (c *Collector) ObserveRestart() {
	if c == nil {
		return
	}
	c.Restarts.Inc()
	c.CurrentTick.Set(0)
}

// ObservePersisted records snapshots written by the recorder.
func (c *Collector) ObservePersisted(n int) {
	if c == nil {
		return
	}
	c.SnapshotsPersisted.Add(float64(n))
}

// SetStreamLength updates the stream length gauge.
func (c *Collector) SetStreamLength(n int) {
	if c == nil {
		return
	}
	c.StreamLength.Set(float64(n))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("observability: collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("observability: collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("observability: collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles Prometheus metrics for the jump subsystem. All methods
// are nil-safe so engines can run unmetered in tests.
type Collector struct {
	gatherer prometheus.Gatherer

	Ticks                prometheus.Counter
	JumpPointsDiscovered prometheus.Counter
	JumpsCompleted       prometheus.Counter
	JumpsFailed          prometheus.Counter
	MissionsCompleted    prometheus.Counter

	ActiveMissions     prometheus.Gauge
	ActivePreparations prometheus.Gauge
	ActiveJumps        prometheus.Gauge
}

// NewCollector registers the subsystem metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
// Re-registration of an identical collector is tolerated.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{gatherer: gatherer}

	var err error
	if c.Ticks, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jumpnet_ticks_total",
		Help: "Total number of simulation ticks processed by the coordinator.",
	}), "jumpnet_ticks_total"); err != nil {
		return nil, err
	}
	if c.JumpPointsDiscovered, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jumpnet_jump_points_discovered_total",
		Help: "Total jump point discoveries across all factions.",
	}), "jumpnet_jump_points_discovered_total"); err != nil {
		return nil, err
	}
	if c.JumpsCompleted, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jumpnet_jumps_completed_total",
		Help: "Total fleet jumps that arrived in their target system.",
	}), "jumpnet_jumps_completed_total"); err != nil {
		return nil, err
	}
	if c.JumpsFailed, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jumpnet_jumps_failed_total",
		Help: "Total fleet jumps that failed during preparation or arrival.",
	}), "jumpnet_jumps_failed_total"); err != nil {
		return nil, err
	}
	if c.MissionsCompleted, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jumpnet_missions_completed_total",
		Help: "Total exploration and survey missions brought to completion.",
	}), "jumpnet_missions_completed_total"); err != nil {
		return nil, err
	}

	if c.ActiveMissions, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "jumpnet_active_missions",
		Help: "Exploration missions currently in progress.",
	}), "jumpnet_active_missions"); err != nil {
		return nil, err
	}
	if c.ActivePreparations, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "jumpnet_active_preparations",
		Help: "Fleets currently in the jump preparation phase.",
	}), "jumpnet_active_preparations"); err != nil {
		return nil, err
	}
	if c.ActiveJumps, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "jumpnet_active_jumps",
		Help: "Fleets currently mid-transit.",
	}), "jumpnet_active_jumps"); err != nil {
		return nil, err
	}

	return c, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveTick records one coordinator tick and the current phase counts.
func (c *Collector) ObserveTick(missions, preparations, jumps int) {
	if c == nil {
		return
	}
	c.Ticks.Inc()
	c.ActiveMissions.Set(float64(missions))
	c.ActivePreparations.Set(float64(preparations))
	c.ActiveJumps.Set(float64(jumps))
}

// AddDiscoveries records n jump point discoveries.
func (c *Collector) AddDiscoveries(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.JumpPointsDiscovered.Add(float64(n))
}

// JumpCompleted records one finished transit, successful or not.
func (c *Collector) JumpCompleted(success bool) {
	if c == nil {
		return
	}
	if success {
		c.JumpsCompleted.Inc()
	} else {
		c.JumpsFailed.Inc()
	}
}

// MissionCompleted records one finalized exploration mission.
func (c *Collector) MissionCompleted() {
	if c == nil {
		return
	}
	c.MissionsCompleted.Inc()
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

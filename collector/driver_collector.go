package collector

import (
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// Stats is a snapshot of the driver's runtime counters.
type Stats struct {
	State          string
	ActiveSessions int
	PollCycles     uint64
	PollFailures   uint64
	// Commands maps entity command identifiers to dispatch counts.
	Commands map[string]uint64
}

// StatsSource provides driver statistics for collection.
type StatsSource interface {
	Stats() Stats
}

type DriverCollector struct {
	Logger *log.Entry
	source StatsSource

	driverState        *prometheus.GaugeVec
	activeSessionCount *prometheus.GaugeVec
	pollCycles         *prometheus.GaugeVec
	pollFailures       *prometheus.GaugeVec
	commandMetric      *prometheus.GaugeVec
}

func NewDriverCollector(s StatsSource, l *log.Entry) *DriverCollector {
	return &DriverCollector{
		Logger: l,
		source: s,

		driverState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "ucplex",
				Subsystem: "driver",
				Name:      "state",
				Help:      "Current driver state",
			},
			[]string{"state"},
		),
		activeSessionCount: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "ucplex",
				Subsystem: "sessions",
				Name:      "active_count",
				Help:      "Number of tracked clients with an active Plex session",
			},
			[]string{},
		),
		pollCycles: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "ucplex",
				Subsystem: "poller",
				Name:      "cycles_total",
				Help:      "Number of completed session poll cycles",
			},
			[]string{},
		),
		pollFailures: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "ucplex",
				Subsystem: "poller",
				Name:      "failures_total",
				Help:      "Number of failed session poll cycles",
			},
			[]string{},
		),
		commandMetric: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "ucplex",
				Subsystem: "commands",
				Name:      "dispatched_total",
				Help:      "Number of entity commands dispatched per command",
			},
			[]string{"command"},
		),
	}
}

func (c *DriverCollector) Describe(ch chan<- *prometheus.Desc) {
	c.driverState.Describe(ch)
	c.activeSessionCount.Describe(ch)
	c.pollCycles.Describe(ch)
	c.pollFailures.Describe(ch)
	c.commandMetric.Describe(ch)
}

func (c *DriverCollector) Collect(ch chan<- prometheus.Metric) {
	v := c.source.Stats()

	c.Logger.Trace(v)
	c.driverState.Reset()
	c.driverState.WithLabelValues(v.State).Set(1)
	c.activeSessionCount.WithLabelValues().Set(float64(v.ActiveSessions))
	c.pollCycles.WithLabelValues().Set(float64(v.PollCycles))
	c.pollFailures.WithLabelValues().Set(float64(v.PollFailures))

	for cmd, count := range v.Commands {
		c.commandMetric.WithLabelValues(cmd).Set(float64(count))
	}

	c.driverState.Collect(ch)
	c.activeSessionCount.Collect(ch)
	c.pollCycles.Collect(ch)
	c.pollFailures.Collect(ch)
	c.commandMetric.Collect(ch)
}

// Package metrics exposes bot counters to Prometheus and serves them together
// with a status endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the bot's collectors. A nil *Metrics discards everything.
type Metrics struct {
	reg *prometheus.Registry

	messages       prometheus.Counter
	commands       *prometheus.CounterVec
	commandLatency *prometheus.HistogramVec
	purged         prometheus.Counter
}

// New creates the collectors and registers them with a private registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		messages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "b3bot",
			Subsystem: "chat",
			Name:      "messages",
			Help:      "Number of messages seen, including the bot's own.",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "b3bot",
			Subsystem: "commands",
			Name:      "invocations",
			Help:      "Number of command invocations by command and result.",
		}, []string{"command", "result"}),
		commandLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			Namespace: "b3bot",
			Subsystem: "commands",
			Name:      "latency",
			Help:      "How long commands take to complete in seconds.",
		}, []string{"command"}),
		purged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "b3bot",
			Subsystem: "purge",
			Name:      "deleted",
			Help:      "Number of messages removed by clearsince.",
		}),
	}
	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.messages, m.commands, m.commandLatency, m.purged,
	)
	return m
}

// Result labels used for command invocations.
const (
	ResultOK     = "ok"
	ResultDenied = "denied"
	ResultError  = "error"
)

// ObserveMessage counts one received message.
func (m *Metrics) ObserveMessage() {
	if m == nil {
		return
	}
	m.messages.Inc()
}

// ObserveCommand records one invocation. result is one of the Result labels.
func (m *Metrics) ObserveCommand(name, result string, took time.Duration) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(name, result).Inc()
	m.commandLatency.WithLabelValues(name).Observe(took.Seconds())
}

// ObservePurged counts deleted messages.
func (m *Metrics) ObservePurged(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.purged.Add(float64(n))
}

// Gauge registers a gauge sampled from f at scrape time.
func (m *Metrics) Gauge(subsystem, name, help string, f func() float64) {
	if m == nil {
		return
	}
	m.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "b3bot",
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, f))
}

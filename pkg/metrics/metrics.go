// Package metrics collects authcore Prometheus metrics and serves them for scraping.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "authcore"

// Collector holds the service metrics.
type Collector struct {
	commands        *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	eventsPublished *prometheus.CounterVec
	eventsFailed    *prometheus.CounterVec
	httpResponses   *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Auth commands handled, by command and outcome.",
		}, []string{"command", "outcome"}),
		commandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Auth command latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"command"}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Domain events delivered to the sink.",
		}, []string{"event"}),
		eventsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_failed_total",
			Help:      "Domain events the sink rejected.",
		}, []string{"event"}),
		httpResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_responses_total",
			Help:      "HTTP responses by route and status code.",
		}, []string{"route", "status_code"}),
	}

	reg.MustRegister(
		c.commands,
		c.commandDuration,
		c.eventsPublished,
		c.eventsFailed,
		c.httpResponses,
	)
	return c
}

// RecordCommand records one handled command.
func (c *Collector) RecordCommand(command, outcome string, d time.Duration) {
	c.commands.WithLabelValues(command, outcome).Inc()
	c.commandDuration.WithLabelValues(command).Observe(d.Seconds())
}

// EventPublished records a delivered event.
func (c *Collector) EventPublished(name string) {
	c.eventsPublished.WithLabelValues(name).Inc()
}

// EventPublishFailed records an event the sink rejected.
func (c *Collector) EventPublishFailed(name string) {
	c.eventsFailed.WithLabelValues(name).Inc()
}

// RecordHTTPResponse records one response status for route.
func (c *Collector) RecordHTTPResponse(route string, status int) {
	c.httpResponses.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

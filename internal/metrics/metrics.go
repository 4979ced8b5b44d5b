// Package metrics exposes the Prometheus instruments for the router.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var registry = prometheus.NewRegistry()

var (
	// EventsProcessed counts AMI events flowing through the gateway,
	// labelled by the raw upstream event name.
	EventsProcessed = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "callrouter_events_processed_total",
			Help: "Total number of AMI events processed",
		},
		[]string{"event_type"},
	)

	CallsActive = promauto.With(registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "callrouter_calls_active",
			Help: "Number of calls currently tracked in the registry",
		},
	)

	SubscribersConnected = promauto.With(registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "callrouter_subscribers_connected",
			Help: "Number of connected push subscribers",
		},
	)

	SubscribersDropped = promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "callrouter_subscribers_dropped_total",
			Help: "Subscribers removed after a failed delivery",
		},
	)

	BroadcastsSent = promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "callrouter_broadcasts_sent_total",
			Help: "Event payloads delivered to subscribers",
		},
	)

	// AMIActions counts outbound control actions by action name and
	// result ("ok" or "error").
	AMIActions = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "callrouter_ami_actions_total",
			Help: "Outbound AMI actions sent over the link",
		},
		[]string{"action", "result"},
	)

	MQTTPublishErrors = promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "callrouter_mqtt_publish_errors_total",
			Help: "Failed publishes to the MQTT mirror",
		},
	)
)

// Handler returns the HTTP handler serving the metrics registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		Registry:          registry,
	})
}

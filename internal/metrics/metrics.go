package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// AdmissionDecisions counts admission outcomes by stage.
	AdmissionDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_admission_decisions_total",
			Help: "Admission decisions by gate and outcome.",
		},
		[]string{"stage", "outcome"},
	)

	NotificationsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_notifications_created_total",
			Help: "Notification records committed.",
		},
	)

	NotificationsDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_notifications_delivered_total",
			Help: "Live notification deliveries by channel and result.",
		},
		[]string{"channel", "result"},
	)

	MessageEdits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_message_edits_total",
			Help: "History snapshots committed.",
		},
	)

	RateWindows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "parley_rate_windows",
			Help: "Rate windows tracked by the in-process store.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		AdmissionDecisions,
		NotificationsCreated,
		NotificationsDelivered,
		MessageEdits,
		RateWindows,
	)
}

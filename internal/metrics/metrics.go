package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the desk workflow. Registered on the default registry and
// served by the API's /metrics endpoint.
var (
	PackagesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parceldesk_packages_received_total",
		Help: "Parcels logged at the front desk.",
	})

	PickupsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parceldesk_pickups_completed_total",
		Help: "Parcels handed over after code verification.",
	})

	PickupCodesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parceldesk_pickup_codes_issued_total",
		Help: "One-time pickup codes generated and sent.",
	})

	PickupVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parceldesk_pickup_verifications_total",
		Help: "Pickup code checks by result.",
	}, []string{"result"})

	BotMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parceldesk_bot_messages_total",
		Help: "Chat messages sent to residents by result.",
	}, []string{"result"})

	SheetRequestSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "parceldesk_sheet_request_seconds",
		Help:    "Spreadsheet API request latency by operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
)

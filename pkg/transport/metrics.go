package transport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	senderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_sender_requests_total",
			Help: "Total SOAP requests sent, by route and HTTP status",
		},
		[]string{"route", "status"},
	)

	senderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ws_sender_request_duration_seconds",
			Help:    "Round trip duration of SOAP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	senderInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_sender_connections_in_flight",
			Help: "Connections currently held against the total connection limit",
		},
	)

	serverRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_server_requests_total",
			Help: "Total SOAP requests received, by HTTP status",
		},
		[]string{"status"},
	)
)

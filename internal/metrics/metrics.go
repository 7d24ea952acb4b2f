package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationsTotal tracks stream operations by outcome
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streampay_operations_total",
			Help: "Total number of stream operations",
		},
		[]string{"operation", "result"},
	)

	// OperationLatency tracks end-to-end operation latency, including inclusion waits
	OperationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "streampay_operation_latency_seconds",
			Help:    "Stream operation latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 15, 30, 60, 120},
		},
		[]string{"operation"},
	)

	// ApprovalsTotal tracks token approvals submitted before deposits
	ApprovalsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streampay_token_approvals_total",
			Help: "Total number of token approvals submitted",
		},
	)

	// StreamsDropped tracks streams left out of a listing because their details failed
	StreamsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streampay_streams_dropped_total",
			Help: "Total number of streams dropped from listings",
		},
	)

	// WalletConnects tracks wallet connection attempts
	WalletConnects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streampay_wallet_connects_total",
			Help: "Total number of wallet connection attempts",
		},
		[]string{"result"},
	)

	// WalletConnected is 1 while a wallet session is published
	WalletConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "streampay_wallet_connected",
			Help: "Whether a wallet session is currently connected",
		},
	)
)

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransfersTotal counts transfers by direction and final status
	TransfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_transfers_total",
			Help: "Total number of bridge transfers",
		},
		[]string{"direction", "status"},
	)

	// ApprovalsTotal counts validator approvals by outcome
	ApprovalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_approvals_total",
			Help: "Total number of validator approvals submitted",
		},
		[]string{"outcome"},
	)

	// TransferAmount tracks the amount of tokens transferred
	TransferAmount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_transfer_amount",
			Help:    "Amount of tokens transferred",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		},
		[]string{"direction", "token"},
	)

	// EscrowBalance tracks custodied balance per token
	EscrowBalance = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bridge_escrow_balance",
			Help: "Current escrow balance by token",
		},
		[]string{"token"},
	)

	// PendingTransfers tracks number of non-terminal transfers
	PendingTransfers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bridge_pending_transfers",
			Help: "Number of pending transfers by direction",
		},
		[]string{"direction"},
	)

	// ErrorsTotal counts errors by operation and category
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_errors_total",
			Help: "Total number of errors",
		},
		[]string{"operation", "category"},
	)

	// PausedState is 1 while the bridge is paused
	PausedState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bridge_paused",
			Help: "Whether the bridge is currently paused",
		},
	)
)

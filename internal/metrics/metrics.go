// Package metrics defines the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Broadcast hub metrics
var (
	// HubConnectedClients tracks the number of live SSE connections.
	HubConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_connected_clients",
			Help: "Number of currently registered SSE connections",
		},
	)

	// HubBroadcastsTotal tracks broadcasts by event name.
	HubBroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_broadcasts_total",
			Help: "Total broadcast calls by event name",
		},
		[]string{"event"},
	)

	// HubFramesDroppedTotal tracks frames dropped because a client's send
	// buffer was full (the client is then evicted).
	HubFramesDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_frames_dropped_total",
			Help: "Total frames dropped due to a full per-connection buffer",
		},
	)

	// HubEvictionsTotal tracks connections removed after a failed or
	// stalled write.
	HubEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_evictions_total",
			Help: "Total connections evicted due to write failure",
		},
	)

	// HubHeartbeatsTotal tracks heartbeat ticks.
	HubHeartbeatsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_heartbeats_total",
			Help: "Total heartbeat ticks sent to registered connections",
		},
	)
)

// Lead pipeline metrics
var (
	// LeadsCreatedTotal tracks captured leads by source.
	LeadsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_created_total",
			Help: "Total leads captured via the public form by source",
		},
		[]string{"source"},
	)

	// LeadsRateLimitedTotal tracks public form submissions refused by the
	// rate limiter.
	LeadsRateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leads_rate_limited_total",
			Help: "Total lead submissions rejected by rate limiting",
		},
	)

	// LeadsDedupedTotal tracks duplicate submissions suppressed inside the
	// dedup window.
	LeadsDedupedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leads_deduped_total",
			Help: "Total duplicate lead submissions suppressed",
		},
	)
)

// Email metrics
var (
	// EmailsSentTotal tracks notification emails by delivery status.
	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Total lead notification emails by status",
		},
		[]string{"status"},
	)
)

// Auth metrics
var (
	// LoginAttemptsTotal tracks login attempts by outcome.
	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Total admin login attempts by outcome",
		},
		[]string{"outcome"},
	)
)

// Chat assistant metrics
var (
	// ChatRequestsTotal tracks public assistant questions by outcome.
	ChatRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_requests_total",
			Help: "Total website chat questions by outcome",
		},
		[]string{"outcome"},
	)
)

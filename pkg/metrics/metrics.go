// Package metrics exposes the runtime's Prometheus instrumentation:
// packet counters, live-connection gauge, and tick-duration histogram,
// the way m-lab/tcp-info, runZero's go-tcpinfo forks and katzenpost all
// register collectors with github.com/prometheus/client_golang.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "netrun"

var (
	// PacketsSent counts datagrams successfully written to the socket.
	PacketsSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "packets_sent_total",
		Help:      "Datagrams written to the underlying socket.",
	})

	// PacketsReceived counts datagrams read from the socket, before
	// classification.
	PacketsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "packets_received_total",
		Help:      "Datagrams read from the underlying socket.",
	})

	// PacketsDropped counts datagrams dropped for failing to classify or
	// decode (CodecError).
	PacketsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "packets_dropped_total",
		Help:      "Datagrams dropped due to malformed framing.",
	})

	// PacketsRetransmitted counts reliable-channel resends.
	PacketsRetransmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "packets_retransmitted_total",
		Help:      "Reliable-channel packets resent after their gate elapsed.",
	})

	// ConnectionsLive reports the current number of live peer
	// connections, sampled at the end of every tick.
	ConnectionsLive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "connections_live",
		Help:      "Peer connections currently considered alive.",
	})

	// DeadPeerEvictions counts connections reaped for exceeding the
	// keep-alive timeout.
	DeadPeerEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dead_peer_evictions_total",
		Help:      "Connections reaped for exceeding the keep-alive timeout.",
	})

	// TickDuration measures wall-clock time spent in one Runtime.Tick
	// call.
	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "tick_duration_seconds",
		Help:      "Time spent in one Runtime.Tick call.",
		Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 12),
	})
)

/*
Copyright (C) 2026 Lumenworks

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// APIRequestsTotal counts HTTP requests by method, endpoint and status.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "showgate_api_requests_total",
		Help: "Total HTTP API requests.",
	}, []string{"method", "endpoint", "status"})

	// APIRequestDuration observes request latency by method, endpoint and status.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "showgate_api_request_duration_seconds",
		Help:    "HTTP API request duration.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	// APIActiveConnections gauges in-flight HTTP requests.
	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "showgate_api_active_connections",
		Help: "In-flight HTTP API requests.",
	})

	// SourceFetchesTotal counts upstream telemetry fetches by source and outcome.
	SourceFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "showgate_source_fetches_total",
		Help: "Upstream source fetches by outcome.",
	}, []string{"source", "outcome"})

	// SourceCacheHitsTotal counts cache hits per source slot.
	SourceCacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "showgate_source_cache_hits_total",
		Help: "Per-source cache slot hits.",
	}, []string{"source"})

	// ScheduleFallbacksTotal counts snapshots served from the hour heuristic.
	ScheduleFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "showgate_schedule_fallbacks_total",
		Help: "Snapshots derived from the schedule fallback heuristic.",
	})

	// SpeakerDispatchesTotal counts hardware dispatches by command and outcome.
	SpeakerDispatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "showgate_speaker_dispatches_total",
		Help: "Speaker hardware dispatches by outcome.",
	}, []string{"command", "outcome"})

	// SpeakerGateRejectionsTotal counts turn-on requests rejected by a gate.
	SpeakerGateRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "showgate_speaker_gate_rejections_total",
		Help: "Speaker turn-on requests rejected by gating.",
	}, []string{"reason"})

	// SpeakerConfirmationsTotal counts hardware confirmations by reported status.
	SpeakerConfirmationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "showgate_speaker_confirmations_total",
		Help: "Hardware speaker confirmations received.",
	}, []string{"status"})
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

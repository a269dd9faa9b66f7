// Package metrics exposes the engine's Prometheus instrumentation:
// packet throughput, save/emit latency and drop counters, registered
// against the default registry via promauto (spec §9 observability
// supplement). Grounded on MOHCentral-opm-stats-api's worker.Pool
// promauto.NewCounter/NewHistogram usage — the same "package-level
// vars wired through promauto" idiom, generalized to this engine's
// metric names.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PacketsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "raidtrack_packets_processed_total",
		Help: "Total number of packets successfully handled by the encounter engine.",
	})

	PacketsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "raidtrack_packets_failed_total",
		Help: "Total number of packets that failed to parse or dispatch, by opcode.",
	}, []string{"opcode"})

	SavesRequested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "raidtrack_saves_requested_total",
		Help: "Total number of encounter save requests raised by the engine.",
	})

	SavesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "raidtrack_saves_dropped_total",
		Help: "Total number of save requests dropped because the save channel was full.",
	})

	SaveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "raidtrack_save_duration_seconds",
		Help:    "Duration of one encounter persistence pipeline run.",
		Buckets: prometheus.DefBuckets,
	})

	EmitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "raidtrack_emit_duration_seconds",
		Help:    "Duration of one live-broadcast emit tick.",
		Buckets: prometheus.DefBuckets,
	})

	EncountersActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "raidtrack_encounters_active",
		Help: "1 while the live encounter has a boss or any damage dealt, 0 otherwise.",
	})
)

// Package metrics provides Prometheus metrics for dedupe runs. A CLI run
// has no scrape endpoint, so the registry is written out in the
// node_exporter textfile format at the end of the run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nethoundsh/dedupe/pkg/record"
)

var (
	entriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dedupe_entries_total",
			Help: "Entries recorded during traversal, by classification",
		},
		[]string{"kind"},
	)

	bytesHashed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dedupe_bytes_hashed_total",
			Help: "Bytes read by the hasher",
		},
	)

	rootDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dedupe_root_duration_seconds",
			Help:    "Time to traverse, hash and group one root",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		},
	)

	groupsFound = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dedupe_groups",
			Help: "Duplicate groups in the live set",
		},
	)

	reclaimableBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dedupe_reclaimable_bytes",
			Help: "Bytes held by redundant group members",
		},
	)

	trashTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dedupe_trash_total",
			Help: "Trash attempts, by status",
		},
		[]string{"status"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dedupe_cache_lookups_total",
			Help: "Digest cache lookups, by result",
		},
		[]string{"result"},
	)

	runOutcome = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dedupe_last_run_outcome",
			Help: "Set to 1 for the outcome of the last run",
		},
		[]string{"outcome"},
	)
)

// RecordEntry counts one appended record.
func RecordEntry(e record.Entry) {
	entriesTotal.WithLabelValues(kindLabel(e.Class.Kind)).Inc()
}

func kindLabel(k record.Kind) string {
	switch k {
	case record.Directory:
		return "directory"
	case record.Empty:
		return "empty"
	case record.Error:
		return "error"
	case record.Unique:
		return "unique"
	case record.Group:
		return "group"
	default:
		return "hashed"
	}
}

// AddBytesHashed adds to the hashed byte counter.
func AddBytesHashed(n int64) {
	bytesHashed.Add(float64(n))
}

// ObserveRoot records the time spent on one root.
func ObserveRoot(d time.Duration) {
	rootDuration.Observe(d.Seconds())
}

// SetGroups sets the duplicate totals of the live set.
func SetGroups(groups int, reclaimable int64) {
	groupsFound.Set(float64(groups))
	reclaimableBytes.Set(float64(reclaimable))
}

// RecordTrash records a trash batch.
func RecordTrash(trashed int, failed bool) {
	trashTotal.WithLabelValues("success").Add(float64(trashed))
	if failed {
		trashTotal.WithLabelValues("error").Inc()
	}
}

// RecordCache records digest cache hits and misses.
func RecordCache(hits, misses int) {
	cacheLookups.WithLabelValues("hit").Add(float64(hits))
	cacheLookups.WithLabelValues("miss").Add(float64(misses))
}

// SetOutcome marks the terminal outcome of the run.
func SetOutcome(outcome string) {
	runOutcome.Reset()
	runOutcome.WithLabelValues(outcome).Set(1)
}

// WriteTextfile writes every registered metric to path.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

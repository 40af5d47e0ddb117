package replay

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts the work of the replay engine. The skipped-blocks counter
// exists because a storage read failure silently drops a block's contracts;
// operators watch it to judge how much derived state may be missing.
type Metrics struct {
	BlocksScanned    prometheus.Counter
	BlocksSkipped    prometheus.Counter
	ContractsApplied prometheus.Counter
}

// NewMetrics creates the replay counters and registers them.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		BlocksScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "meridian",
			Subsystem: "replay",
			Name:      "blocks_scanned_total",
			Help:      "Number of block index entries walked during replays",
		}),
		BlocksSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "meridian",
			Subsystem: "replay",
			Name:      "blocks_skipped_total",
			Help:      "Number of blocks whose contracts were skipped on a read failure",
		}),
		ContractsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "meridian",
			Subsystem: "replay",
			Name:      "contracts_applied_total",
			Help:      "Number of contracts handed to the dispatcher",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			metrics.BlocksScanned,
			metrics.BlocksSkipped,
			metrics.ContractsApplied,
		)
	}

	return metrics
}

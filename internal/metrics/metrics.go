package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultOk     = "ok"
	ResultNoop   = "noop"
	ResultDenied = "denied"
	ResultError  = "error"
)

var (
	LinkerOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "boardledger",
		Name:      "linker_operations_total",
		Help:      "Bill/transaction linker operations by operation and result.",
	}, []string{"operation", "result"})

	InvariantViolations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "boardledger",
		Name:      "invariant_violations_total",
		Help:      "Detected mismatches between a bill's paid flag and its linked transactions.",
	}, []string{"kind"})

	RolloverWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "boardledger",
		Name:      "rollover_writes_total",
		Help:      "Monthly summary writes by result.",
	}, []string{"result"})

	RolloverPending = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "boardledger",
		Name:      "rollover_pending_writes",
		Help:      "Debounced monthly summary writes waiting for their quiet period.",
	})

	ShareTargets = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "boardledger",
		Name:      "bill_share_targets_total",
		Help:      "Per-target outcomes of bill sharing.",
	}, []string{"result"})
)

// Result picks the label for an operation outcome.
func Result(err error, denied func(error) bool) string {
	switch {
	case err == nil:
		return ResultOk
	case denied != nil && denied(err):
		return ResultDenied
	default:
		return ResultError
	}
}

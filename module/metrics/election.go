package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	model "github.com/onflow/multiphase/model/election"
	"github.com/onflow/multiphase/module"
)

const namespaceElection = "election"

// ElectionCollector exposes prometheus metrics for the election provider.
type ElectionCollector struct {
	currentPhase         prometheus.Gauge
	currentRound         prometheus.Gauge
	snapshotVoters       prometheus.Gauge
	snapshotTargets      prometheus.Gauge
	solutionsAccepted    *prometheus.CounterVec
	solutionsRejected    *prometheus.CounterVec
	verificationDuration prometheus.Histogram
	fallbackInvocations  prometheus.Counter
	emergencyEntries     prometheus.Counter
}

var _ module.ElectionMetrics = (*ElectionCollector)(nil)

func NewElectionCollector() *ElectionCollector {

	ec := &ElectionCollector{

		currentPhase: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespaceElection,
			Name:      "current_phase",
			Help:      "the currently active election phase (0=Off 1=Signed 2=SignedValidation 3=Unsigned 4=Done 5=Emergency)",
		}),

		currentRound: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespaceElection,
			Name:      "current_round",
			Help:      "the current election round counter",
		}),

		snapshotVoters: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespaceElection,
			Name:      "snapshot_voters",
			Help:      "number of voters in the current snapshot",
		}),

		snapshotTargets: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespaceElection,
			Name:      "snapshot_targets",
			Help:      "number of targets in the current snapshot",
		}),

		solutionsAccepted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceElection,
			Name:      "solutions_accepted_total",
			Help:      "count of solutions accepted into the queue, by submission channel",
		}, []string{"channel"}),

		solutionsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceElection,
			Name:      "solutions_rejected_total",
			Help:      "count of rejected submissions, by rejection reason",
		}, []string{"reason"}),

		verificationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespaceElection,
			Name:      "verification_duration_seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1},
			Help:      "duration of one solution feasibility check",
		}),

		fallbackInvocations: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceElection,
			Name:      "fallback_invocations_total",
			Help:      "count of rounds closed through the fallback election",
		}),

		emergencyEntries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceElection,
			Name:      "emergency_entries_total",
			Help:      "count of rounds closed in the emergency phase",
		}),
	}

	return ec
}

func (ec *ElectionCollector) CurrentPhase(phase model.Phase) {
	ec.currentPhase.Set(float64(phase))
}

func (ec *ElectionCollector) CurrentRound(round uint64) {
	ec.currentRound.Set(float64(round))
}

func (ec *ElectionCollector) SnapshotSize(voters int, targets int) {
	ec.snapshotVoters.Set(float64(voters))
	ec.snapshotTargets.Set(float64(targets))
}

func (ec *ElectionCollector) SolutionAccepted(channel string) {
	ec.solutionsAccepted.WithLabelValues(channel).Inc()
}

func (ec *ElectionCollector) SolutionRejected(reason string) {
	ec.solutionsRejected.WithLabelValues(reason).Inc()
}

func (ec *ElectionCollector) VerificationDuration(duration time.Duration) {
	ec.verificationDuration.Observe(duration.Seconds())
}

func (ec *ElectionCollector) FallbackInvoked() {
	ec.fallbackInvocations.Inc()
}

func (ec *ElectionCollector) EmergencyEntered() {
	ec.emergencyEntries.Inc()
}

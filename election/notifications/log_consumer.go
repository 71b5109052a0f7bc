package notifications

import (
	"github.com/rs/zerolog"

	"github.com/onflow/multiphase/election"
	model "github.com/onflow/multiphase/model/election"
)

// LogConsumer renders every election event as a structured log line.
type LogConsumer struct {
	log zerolog.Logger
}

var _ election.Consumer = (*LogConsumer)(nil)

func NewLogConsumer(log zerolog.Logger) *LogConsumer {
	return &LogConsumer{
		log: log.With().Str("component", "election_events").Logger(),
	}
}

func (lc *LogConsumer) OnPhaseTransition(round uint64, height uint64, from model.Phase, to model.Phase) {
	lc.log.Info().
		Uint64("round", round).
		Uint64("height", height).
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("phase transition")
}

func (lc *LogConsumer) OnSnapshotTaken(round uint64, height uint64, voters int, targets int) {
	lc.log.Info().
		Uint64("round", round).
		Uint64("height", height).
		Int("voters", voters).
		Int("targets", targets).
		Msg("snapshot taken")
}

func (lc *LogConsumer) OnSolutionAccepted(round uint64, height uint64, solutionID model.Identifier, score model.Score) {
	lc.log.Info().
		Uint64("round", round).
		Uint64("height", height).
		Hex("solution_id", solutionID[:]).
		Str("score", score.String()).
		Msg("solution accepted")
}

func (lc *LogConsumer) OnSolutionRejected(round uint64, height uint64, solutionID model.Identifier, err error) {
	lc.log.Warn().
		Uint64("round", round).
		Uint64("height", height).
		Hex("solution_id", solutionID[:]).
		Err(err).
		Msg("solution rejected")
}

func (lc *LogConsumer) OnFallbackInvoked(round uint64, height uint64) {
	lc.log.Warn().
		Uint64("round", round).
		Uint64("height", height).
		Msg("fallback election invoked")
}

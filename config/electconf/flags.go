package electconf

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// All constant strings are used for CLI flag names and corresponding keys
	// for config values.
	firstElectionHeight   = "election-first-height"
	roundLength           = "election-round-length"
	signedPhaseLength     = "election-signed-phase-length"
	validationPhaseLength = "election-validation-phase-length"
	unsignedPhaseLength   = "election-unsigned-phase-length"
	maxVoters             = "election-max-voters"
	maxTargets            = "election-max-targets"
	maxVoterDegree        = "election-max-voter-degree"
	desiredWinners        = "election-desired-winners"
	overflowReject        = "election-overflow-reject"
	weightTolerance       = "election-weight-tolerance"
	validationBudget      = "election-validation-budget"
	maxPendingSigned      = "election-max-pending-signed"
)

const (
	defaultFirstElectionHeight   = 100
	defaultRoundLength           = 100
	defaultSignedPhaseLength     = 25
	defaultValidationPhaseLength = 10
	defaultUnsignedPhaseLength   = 25
	defaultMaxVoters             = 10_000
	defaultMaxTargets            = 1_000
	defaultMaxVoterDegree        = 16
	defaultDesiredWinners        = 50
	defaultWeightTolerance       = 0
	defaultValidationBudget      = 4
	defaultMaxPendingSigned      = 16
)

// InitializeFlags registers all election configuration flags on the given
// flag set with their default values.
func InitializeFlags(flags *pflag.FlagSet) {
	flags.Uint64(firstElectionHeight, defaultFirstElectionHeight, "block height of the first election boundary")
	flags.Uint64(roundLength, defaultRoundLength, "number of blocks between election boundaries")
	flags.Uint64(signedPhaseLength, defaultSignedPhaseLength, "number of blocks accepting signed submissions")
	flags.Uint64(validationPhaseLength, defaultValidationPhaseLength, "number of blocks validating queued signed submissions")
	flags.Uint64(unsignedPhaseLength, defaultUnsignedPhaseLength, "number of blocks accepting unsigned submissions")
	flags.Uint32(maxVoters, defaultMaxVoters, "maximum number of voters in a snapshot")
	flags.Uint32(maxTargets, defaultMaxTargets, "maximum number of targets in a snapshot")
	flags.Uint32(maxVoterDegree, defaultMaxVoterDegree, "maximum number of preferences per voter")
	flags.Uint32(desiredWinners, defaultDesiredWinners, "number of winners each round elects")
	flags.Bool(overflowReject, false, "reject (rather than truncate) snapshots exceeding their bounds")
	flags.Uint64(weightTolerance, defaultWeightTolerance, "permitted absolute error in per-voter assigned weight sums")
	flags.Uint32(validationBudget, defaultValidationBudget, "queued signed submissions validated per block")
	flags.Uint32(maxPendingSigned, defaultMaxPendingSigned, "maximum queued signed submissions per round")
}

// BindFlags binds the election flags into the given viper instance, so that
// values can also be supplied via config file or environment.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for _, name := range []string{
		firstElectionHeight, roundLength, signedPhaseLength, validationPhaseLength,
		unsignedPhaseLength, maxVoters, maxTargets, maxVoterDegree, desiredWinners,
		overflowReject, weightTolerance, validationBudget, maxPendingSigned,
	} {
		flag := flags.Lookup(name)
		if flag == nil {
			return fmt.Errorf("flag %s not registered", name)
		}
		err := v.BindPFlag(name, flag)
		if err != nil {
			return fmt.Errorf("could not bind flag %s: %w", name, err)
		}
	}
	return nil
}

// FromViper builds a validated configuration from the given viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	conf := Config{
		FirstElectionHeight:   v.GetUint64(firstElectionHeight),
		RoundLength:           v.GetUint64(roundLength),
		SignedPhaseLength:     v.GetUint64(signedPhaseLength),
		ValidationPhaseLength: v.GetUint64(validationPhaseLength),
		UnsignedPhaseLength:   v.GetUint64(unsignedPhaseLength),
		MaxVoters:             v.GetUint32(maxVoters),
		MaxTargets:            v.GetUint32(maxTargets),
		MaxVoterDegree:        v.GetUint32(maxVoterDegree),
		DesiredWinners:        v.GetUint32(desiredWinners),
		Overflow:              Truncate,
		WeightTolerance:       v.GetUint64(weightTolerance),
		ValidationBudget:      v.GetUint32(validationBudget),
		MaxPendingSigned:      v.GetUint32(maxPendingSigned),
	}
	if v.GetBool(overflowReject) {
		conf.Overflow = Reject
	}
	err := conf.Validate()
	if err != nil {
		return Config{}, fmt.Errorf("invalid election config: %w", err)
	}
	return conf, nil
}

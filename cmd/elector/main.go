// elector runs a standalone election provider node: it drives the phase
// schedule from a simulated block clock, accepts solution submissions, and
// exposes the round state via prometheus metrics. Deployments embed the
// election packages directly; this binary exists for local runs and load
// experiments.
package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/onflow/multiphase/config/electconf"
	"github.com/onflow/multiphase/election/deposits"
	"github.com/onflow/multiphase/election/fallback"
	"github.com/onflow/multiphase/election/feasibility"
	"github.com/onflow/multiphase/election/multiphase"
	"github.com/onflow/multiphase/election/notifications"
	"github.com/onflow/multiphase/election/notifications/pubsub"
	"github.com/onflow/multiphase/election/queue"
	"github.com/onflow/multiphase/election/snapshot"
	"github.com/onflow/multiphase/engine/submission"
	model "github.com/onflow/multiphase/model/election"
	"github.com/onflow/multiphase/module/irrecoverable"
	"github.com/onflow/multiphase/module/metrics"
	bstorage "github.com/onflow/multiphase/storage/badger"
)

var (
	flagDataDir       string
	flagMetricsAddr   string
	flagBlockInterval time.Duration
	flagLogLevel      string
	flagSimVoters     uint32
	flagSimTargets    uint32
	flagSimMaxStake   uint64
)

var rootCmd = &cobra.Command{
	Use:   "elector",
	Short: "standalone multi-phase election provider",
	RunE:  run,
}

func init() {
	electconf.InitializeFlags(rootCmd.Flags())

	rootCmd.Flags().StringVar(&flagDataDir, "datadir", "data", "directory for the protocol database")
	rootCmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", ":9090", "address to serve prometheus metrics on")
	rootCmd.Flags().DurationVar(&flagBlockInterval, "block-interval", time.Second, "interval between simulated finalized blocks")
	rootCmd.Flags().StringVar(&flagLogLevel, "loglevel", "info", "log verbosity (debug, info, warn, error)")
	rootCmd.Flags().Uint32Var(&flagSimVoters, "sim-voters", 100, "number of voters in the simulated universe")
	rootCmd.Flags().Uint32Var(&flagSimTargets, "sim-targets", 20, "number of targets in the simulated universe")
	rootCmd.Flags().Uint64Var(&flagSimMaxStake, "sim-max-stake", 1_000_000, "upper bound on simulated voter stake")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {

	level, err := zerolog.ParseLevel(flagLogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", flagLogLevel, err)
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Logger()

	v := viper.New()
	err = electconf.BindFlags(v, cmd.Flags())
	if err != nil {
		return fmt.Errorf("could not bind election flags: %w", err)
	}
	conf, err := electconf.FromViper(v)
	if err != nil {
		return err
	}

	db, err := badger.Open(badger.DefaultOptions(flagDataDir).WithLogger(nil))
	if err != nil {
		return fmt.Errorf("could not open protocol database: %w", err)
	}
	defer db.Close()

	voters, targets := simulatedUniverse(flagSimVoters, flagSimTargets, flagSimMaxStake)
	log.Info().
		Int("voters", len(voters.list)).
		Int("targets", len(targets.list)).
		Msg("simulated universe generated")

	collector := metrics.NewElectionCollector()
	ledger := deposits.NewLedger(log)

	consumers := pubsub.NewDistributor()
	consumers.AddConsumer(notifications.NewLogConsumer(log))

	provider, err := multiphase.NewProvider(
		log,
		conf,
		collector,
		consumers,
		bstorage.NewElections(db),
		snapshot.NewManager(log, conf, voters, targets),
		feasibility.NewChecker(conf),
		queue.NewSlot(log, ledger),
		fallback.NewSequential(log),
		ledger,
	)
	if err != nil {
		return fmt.Errorf("could not create election provider: %w", err)
	}

	engine, err := submission.New(log, provider)
	if err != nil {
		return fmt.Errorf("could not create submission engine: %w", err)
	}

	metricsSrv := &http.Server{Addr: flagMetricsAddr, Handler: promhttp.Handler()}
	go func() {
		log.Info().Str("addr", flagMetricsAddr).Msg("metrics server started")
		err := metricsSrv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	runCtx, cancel := context.WithCancel(ctx)
	signalerCtx, errChan := irrecoverable.WithSignaler(runCtx)

	engine.Start(signalerCtx)
	<-engine.Ready()
	log.Info().Msg("submission engine ready")

	ticker := time.NewTicker(flagBlockInterval)
	defer ticker.Stop()

	height := uint64(0)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down")
			cancel()
			<-engine.Done()
			shutdownCtx, release := context.WithTimeout(context.Background(), 5*time.Second)
			defer release()
			return metricsSrv.Shutdown(shutdownCtx)
		case err := <-errChan:
			cancel()
			<-engine.Done()
			return fmt.Errorf("irrecoverable failure: %w", err)
		case <-ticker.C:
			height++
			engine.OnFinalizedBlock(height)
		}
	}
}

// simulatedUniverse generates a random all-prefer-all voter/target universe.
type simVoterSource struct{ list []model.Voter }
type simTargetSource struct{ list []model.Target }

func (s *simVoterSource) Voters(max uint32) ([]model.Voter, error) {
	if uint32(len(s.list)) > max {
		return s.list[:max], nil
	}
	return s.list, nil
}

func (s *simTargetSource) Targets(max uint32) ([]model.Target, error) {
	if uint32(len(s.list)) > max {
		return s.list[:max], nil
	}
	return s.list, nil
}

func simulatedUniverse(voterCount uint32, targetCount uint32, maxStake uint64) (*simVoterSource, *simTargetSource) {

	targets := make([]model.Target, 0, targetCount)
	prefs := make([]model.Identifier, 0, targetCount)
	for i := uint32(0); i < targetCount; i++ {
		id := randomIdentifier()
		targets = append(targets, model.Target{TargetID: id})
		prefs = append(prefs, id)
	}

	voters := make([]model.Voter, 0, voterCount)
	for i := uint32(0); i < voterCount; i++ {
		voters = append(voters, model.Voter{
			VoterID:     randomIdentifier(),
			Stake:       1 + randomUint64()%maxStake,
			Preferences: prefs,
		})
	}

	return &simVoterSource{list: voters}, &simTargetSource{list: targets}
}

func randomIdentifier() model.Identifier {
	var id model.Identifier
	_, err := rand.Read(id[:])
	if err != nil {
		panic(fmt.Sprintf("could not read randomness: %v", err))
	}
	return id
}

func randomUint64() uint64 {
	var buf [8]byte
	_, err := rand.Read(buf[:])
	if err != nil {
		panic(fmt.Sprintf("could not read randomness: %v", err))
	}
	var v uint64
	for _, b := range buf {
		v = v<<8 | uint64(b)
	}
	return v
}

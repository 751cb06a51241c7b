package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/5ys-5y5/alsign-sub001/internal/catalog"
	"github.com/5ys-5y5/alsign-sub001/internal/consensus"
	"github.com/5ys-5y5/alsign-sub001/internal/engine"
	"github.com/5ys-5y5/alsign-sub001/internal/provider"
	"github.com/5ys-5y5/alsign-sub001/internal/scheduler"
	"github.com/5ys-5y5/alsign-sub001/internal/scheduler/jobs"
	"github.com/5ys-5y5/alsign-sub001/internal/store"
	"github.com/5ys-5y5/alsign-sub001/pkg/database"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the job scheduler",
	Long: `Runs scheduled background jobs:

  metric_backfill    - daily document recomputation for configured tickers
  consensus_backfill - periodic re-linking of consensus partitions

Example:
  go run ./cmd/alsign scheduler
  go run ./cmd/alsign scheduler --run-now metric_backfill`,
	RunE: runScheduler,
}

var runNowJob string

func init() {
	rootCmd.AddCommand(schedulerCmd)

	schedulerCmd.Flags().StringVar(&runNowJob, "run-now", "", "trigger one job immediately on startup")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	cat, _, err := catalog.LoadFile(cfg.Engine.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	eng := engine.New(cat, log.Zerolog())

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	providerClient := provider.NewClient(cfg, log)
	resultRepo := store.NewResultRepository(db.Pool)
	resolver := consensus.NewResolver(store.NewConsensusStore(db.Pool), log.Zerolog())

	sched := scheduler.New(log)

	if err := sched.AddJob(jobs.NewMetricBackfillJob(eng, providerClient, resultRepo, cfg, log)); err != nil {
		return fmt.Errorf("add metric backfill job: %w", err)
	}
	if err := sched.AddJob(jobs.NewConsensusBackfillJob(resolver, log)); err != nil {
		return fmt.Errorf("add consensus backfill job: %w", err)
	}

	sched.Start()
	defer sched.Stop()

	if runNowJob != "" {
		if err := sched.RunJob(runNowJob); err != nil {
			return fmt.Errorf("run job %s: %w", runNowJob, err)
		}
	}

	fmt.Println("Scheduler running. Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down scheduler...")
	return nil
}

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/5ys-5y5/alsign-sub001/internal/catalog"
	"github.com/5ys-5y5/alsign-sub001/internal/engine"
	"github.com/5ys-5y5/alsign-sub001/internal/provider"
	"github.com/5ys-5y5/alsign-sub001/internal/store"
	"github.com/5ys-5y5/alsign-sub001/pkg/database"
)

// computeCmd represents the compute command
var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Evaluate the metric graph for one ticker",
	Long: `Fetches quarterly records from the provider, evaluates every metric
in dependency order and prints the grouped document as JSON.

Example:
  go run ./cmd/alsign compute --ticker AAPL --date 2026-08-25
  go run ./cmd/alsign compute --ticker AAPL --date 2026-08-25 --persist`,
	RunE: runCompute,
}

var (
	computeTicker  string
	computeDate    string
	computePersist bool
)

func init() {
	rootCmd.AddCommand(computeCmd)

	computeCmd.Flags().StringVar(&computeTicker, "ticker", "", "ticker symbol (required)")
	computeCmd.Flags().StringVar(&computeDate, "date", "", "event date YYYY-MM-DD (default today)")
	computeCmd.Flags().BoolVar(&computePersist, "persist", false, "persist the document to the database")
	_ = computeCmd.MarkFlagRequired("ticker")
}

func runCompute(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	eventDate := time.Now().UTC().Truncate(24 * time.Hour)
	if computeDate != "" {
		eventDate, err = time.Parse("2006-01-02", computeDate)
		if err != nil {
			return fmt.Errorf("parse --date: %w", err)
		}
	}

	cat, _, err := catalog.LoadFile(cfg.Engine.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	eng := engine.New(cat, log.Zerolog())
	providerClient := provider.NewClient(cfg, log)

	ctx := context.Background()

	ev, err := provider.BuildEventContext(ctx, providerClient, cat, computeTicker, eventDate, cfg.Engine.LookbackQtr)
	if err != nil {
		return fmt.Errorf("build event context: %w", err)
	}

	result, err := eng.EvaluateEvent(ctx, *ev)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	if computePersist {
		db, err := database.New(cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		if err := store.NewResultRepository(db.Pool).SaveDocument(ctx, result); err != nil {
			return fmt.Errorf("persist document: %w", err)
		}
		log.WithField("ticker", result.Ticker).Info("Document persisted")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/5ys-5y5/alsign-sub001/internal/consensus"
	"github.com/5ys-5y5/alsign-sub001/internal/contracts"
	"github.com/5ys-5y5/alsign-sub001/internal/store"
	"github.com/5ys-5y5/alsign-sub001/pkg/database"
)

// consensusCmd groups consensus subcommands
var consensusCmd = &cobra.Command{
	Use:   "consensus",
	Short: "Consensus signal operations",
}

// consensusResolveCmd represents the consensus resolve command
var consensusResolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve previous-event comparisons",
	Long: `Links each analyst price-target event to the same analyst's previous
publication on the same ticker and persists the revision signal.

With --ticker/--analyst/--company, resolves one partition. Without
flags, backfills every partition in the database.

Example:
  go run ./cmd/alsign consensus resolve
  go run ./cmd/alsign consensus resolve --ticker AAPL --analyst "J. Doe" --company "Big Bank"`,
	RunE: runConsensusResolve,
}

var (
	consensusTicker  string
	consensusAnalyst string
	consensusCompany string
)

func init() {
	rootCmd.AddCommand(consensusCmd)
	consensusCmd.AddCommand(consensusResolveCmd)

	consensusResolveCmd.Flags().StringVar(&consensusTicker, "ticker", "", "ticker symbol")
	consensusResolveCmd.Flags().StringVar(&consensusAnalyst, "analyst", "", "analyst name")
	consensusResolveCmd.Flags().StringVar(&consensusCompany, "company", "", "analyst company")
}

func runConsensusResolve(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	resolver := consensus.NewResolver(store.NewConsensusStore(db.Pool), log.Zerolog())
	ctx := context.Background()

	keyed := consensusTicker != "" || consensusAnalyst != "" || consensusCompany != ""
	if keyed {
		if consensusTicker == "" || consensusAnalyst == "" || consensusCompany == "" {
			return fmt.Errorf("partition key requires --ticker, --analyst and --company together")
		}

		resolved, err := resolver.Resolve(ctx, contracts.PartitionKey{
			Ticker:         consensusTicker,
			AnalystName:    consensusAnalyst,
			AnalystCompany: consensusCompany,
		})
		if err != nil {
			return fmt.Errorf("resolve partition: %w", err)
		}
		fmt.Printf("Resolved %d events\n", len(resolved))
		return nil
	}

	total, err := resolver.ResolveAll(ctx)
	if err != nil {
		return fmt.Errorf("resolve all partitions: %w", err)
	}
	fmt.Printf("Resolved %d events\n", total)
	return nil
}

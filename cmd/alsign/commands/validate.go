package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/5ys-5y5/alsign-sub001/internal/catalog"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the metric catalog",
	Long: `Loads the catalog file, validates every definition, builds the
dependency graph and prints the evaluation order. Fails with a nonzero
exit code on the first validation error.

Example:
  go run ./cmd/alsign validate
  go run ./cmd/alsign validate --catalog config/metrics.yaml`,
	RunE: runValidate,
}

var validateCatalogPath string

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateCatalogPath, "catalog", "", "catalog file path (overrides METRIC_CATALOG_PATH)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, _, err := bootstrap()
	if err != nil {
		return err
	}

	path := cfg.Engine.CatalogPath
	if validateCatalogPath != "" {
		path = validateCatalogPath
	}

	cat, _, err := catalog.LoadFile(path)
	if err != nil {
		return fmt.Errorf("catalog validation failed: %w", err)
	}

	hash, err := catalog.Hash(cat)
	if err != nil {
		return fmt.Errorf("hash catalog: %w", err)
	}

	fmt.Printf("Catalog OK: %d metrics (hash %s)\n", cat.Len(), hash[:12])
	fmt.Println("Evaluation order:")
	for i, id := range cat.Order() {
		fmt.Printf("  %3d. %s\n", i+1, id)
	}
	return nil
}

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/glycomeal"
)

var seedCmd = &cobra.Command{
	Use:   "seed <catalog.yaml>",
	Short: "Import a recipe catalog",
	Long: `Import ingredients and recipes from a YAML catalog and rebuild the rankings.

Examples:
  glycomeal seed data/catalog.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	f, err := os.Open(filepath.Clean(args[0]))
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()

	res, err := client.ImportCatalog(context.Background(), f)
	if err != nil {
		return err
	}
	printImport(cmd.OutOrStdout(), res)
	if res.Succeeded == 0 && res.Failed > 0 {
		return fmt.Errorf("no recipe imported")
	}
	return nil
}

func printImport(w io.Writer, res glycomeal.ImportResult) {
	for _, item := range res.Items {
		if item.Err != nil {
			_, _ = fmt.Fprintf(w, "  ✗ %s: %v\n", item.Recipe, item.Err)
		}
	}
	_, _ = fmt.Fprintf(w, "Imported %d recipes (%d failed)\n", res.Succeeded, res.Failed)
}

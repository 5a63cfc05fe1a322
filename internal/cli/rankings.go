package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/glycomeal"
)

var rankingsLimit int

var rankingsCmd = &cobra.Command{
	Use:       "rankings <staple|vegetable|protein>",
	Short:     "List the top recipes of a role",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"staple", "vegetable", "protein"},
	RunE:      runRankings,
}

func init() {
	rankingsCmd.Flags().IntVarP(&rankingsLimit, "limit", "n", 10, "max results")
}

func runRankings(cmd *cobra.Command, args []string) error {
	entries, err := client.Rankings(context.Background(), glycomeal.Role(args[0]), rankingsLimit)
	if err != nil {
		return err
	}
	printRankings(cmd.OutOrStdout(), entries)
	return nil
}

func printRankings(w io.Writer, entries []glycomeal.RankedRecipe) {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "No recipes ranked.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "#\tRECIPE\tSCORE")
	for i, e := range entries {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%.3f\n", i+1, e.Name, e.Score)
	}
	_ = tw.Flush()
}

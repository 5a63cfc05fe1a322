package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/glycomeal"
)

var rateCmd = &cobra.Command{
	Use:   "rate <recipe> <rating>",
	Short: "Rate a recipe from 0 to 10",
	Long: `Rate a recipe. The rating moves the recipe's and its ingredients'
preference scores and re-ranks the recipe.

Examples:
  glycomeal rate baked-salmon 9`,
	Args: cobra.ExactArgs(2),
	RunE: runRate,
}

func runRate(cmd *cobra.Command, args []string) error {
	rating, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid rating %q: %w", args[1], err)
	}
	res, err := client.Rate(context.Background(), args[0], rating)
	if err != nil {
		return err
	}
	printRating(cmd.OutOrStdout(), res)
	return nil
}

func printRating(w io.Writer, r glycomeal.Rating) {
	_, _ = fmt.Fprintf(w, "%s: %.3f\n", r.Recipe, r.Score)
	names := make([]string, 0, len(r.Ingredients))
	for name := range r.Ingredients {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		_, _ = fmt.Fprintf(w, "  %s: %.3f\n", name, r.Ingredients[name])
	}
}

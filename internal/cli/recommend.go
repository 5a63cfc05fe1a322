package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/glycomeal"
)

var (
	recCarb     float64
	recProtein  float64
	recFat      float64
	recFiber    float64
	recGlucose  float64
	recHeight   float64
	recWeight   float64
	recAge      float64
	recGender   string
	recActivity string
	recMeal     string
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend a meal",
	Long: `Search for a staple, vegetable and protein dish combination.

Targets come either from explicit macros or from a body profile.

Examples:
  glycomeal recommend --carb 70 --protein 30 --fat 20
  glycomeal recommend --height 175 --weight 70 --age 30 --gender male --meal lunch --glucose 5.8`,
	RunE: runRecommend,
}

func init() {
	f := recommendCmd.Flags()
	f.Float64Var(&recCarb, "carb", 0, "carbohydrate target (g)")
	f.Float64Var(&recProtein, "protein", 0, "protein target (g)")
	f.Float64Var(&recFat, "fat", 0, "fat target (g)")
	f.Float64Var(&recFiber, "fiber", 0, "fiber target (g)")
	f.Float64Var(&recGlucose, "glucose", 0, "pre-meal glucose (mmol/L, default 5.0)")
	f.Float64Var(&recHeight, "height", 0, "height (cm)")
	f.Float64Var(&recWeight, "weight", 0, "weight (kg)")
	f.Float64Var(&recAge, "age", 0, "age (years)")
	f.StringVar(&recGender, "gender", "", "male or female")
	f.StringVar(&recActivity, "activity", "sedentary", "activity level")
	f.StringVar(&recMeal, "meal", "lunch", "breakfast, lunch or dinner")

	recommendCmd.MarkFlagsRequiredTogether("carb", "protein", "fat")
	recommendCmd.MarkFlagsRequiredTogether("height", "weight", "age", "gender")
	recommendCmd.MarkFlagsMutuallyExclusive("carb", "height")
	recommendCmd.MarkFlagsOneRequired("carb", "height")
}

func runRecommend(cmd *cobra.Command, _ []string) error {
	req := client.Meal().PreMealGlucose(recGlucose)
	if cmd.Flags().Changed("carb") {
		req = req.Needs(recCarb, recProtein, recFat)
		if cmd.Flags().Changed("fiber") {
			req = req.Fiber(recFiber)
		}
	} else {
		req = req.ForProfile(glycomeal.Profile{
			HeightCm:      recHeight,
			WeightKg:      recWeight,
			AgeYears:      recAge,
			Gender:        glycomeal.Gender(recGender),
			ActivityLevel: recActivity,
		}, glycomeal.MealType(recMeal))
	}

	meal, err := req.Do(context.Background())
	if err != nil {
		return err
	}
	printMeal(cmd.OutOrStdout(), meal)
	return nil
}

func printMeal(w io.Writer, m glycomeal.Meal) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RECIPE\tRATIO")
	for _, d := range m.Dishes {
		_, _ = fmt.Fprintf(tw, "%s\t%.2f\n", d.Recipe, d.Ratio)
	}
	_ = tw.Flush()

	status := "accepted"
	if !m.Accepted {
		status = "best effort, threshold not met"
	}
	_, _ = fmt.Fprintf(w, "\nHealth score: %.2f (%s after %d attempts)\n", m.HealthScore, status, m.Attempts)
	_, _ = fmt.Fprintf(w, "  glucose %.2f, nutrient %.2f\n", m.GlucoseScore, m.NutrientScore)
	_, _ = fmt.Fprintf(w, "Predicted glucose: %.1f / %.1f / %.1f mmol/L at 60/120/180 min\n",
		m.PredictedGlucose[0], m.PredictedGlucose[1], m.PredictedGlucose[2])
	_, _ = fmt.Fprintf(w, "Energy: %.0f kcal  carb %.1fg  protein %.1fg  fat %.1fg  fiber %.1fg\n",
		m.Energy, m.Carb, m.Protein, m.Fat, m.Fiber)
}

// Package cli provides the glycomeal command-line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/glycomeal"
	logpkg "github.com/kailas-cloud/glycomeal/internal/logger"
	"github.com/kailas-cloud/glycomeal/internal/version"
)

var (
	dbDriver     string
	dbAddr       string
	dbPassword   string
	predictorURL string
	feedbackLog  string
	seed         uint64
	verbose      bool

	client *glycomeal.Client
)

var rootCmd = &cobra.Command{
	Use:   "glycomeal",
	Short: "Glucose-aware meal recommendations",
	Long: `glycomeal recommends three-dish meals whose predicted blood glucose
response stays in range while meeting macro targets.

The CLI talks to the recipe store directly.`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}
		env := "prod"
		if verbose {
			env = "local"
		}
		logger, err := logpkg.NewLogger(env, levelFor(verbose))
		if err != nil {
			return err
		}

		opts := []glycomeal.Option{glycomeal.WithLogger(logger)}
		switch dbDriver {
		case "valkey":
			opts = append(opts, glycomeal.WithValkey(dbAddr, dbPassword))
		case "redis":
			opts = append(opts, glycomeal.WithRedis(dbAddr, dbPassword))
		default:
			return fmt.Errorf("unknown driver %q (redis or valkey)", dbDriver)
		}
		if predictorURL != "" {
			opts = append(opts, glycomeal.WithPredictorURL(predictorURL))
		}
		if feedbackLog != "" {
			opts = append(opts, glycomeal.WithFeedbackLog(feedbackLog))
		}
		if seed != 0 {
			opts = append(opts, glycomeal.WithSeed(seed))
		}

		client, err = glycomeal.New(opts...)
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		logger.Debug("connected", zap.String("driver", dbDriver), zap.String("addr", dbAddr))
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if client != nil {
			client.Close()
		}
	},
}

func levelFor(verbose bool) string {
	if verbose {
		return "debug"
	}
	return "warn"
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dbDriver, "driver", "redis", "store driver: redis or valkey")
	pf.StringVar(&dbAddr, "addr", "localhost:6379", "store address")
	pf.StringVar(&dbPassword, "password", "", "store password")
	pf.StringVar(&predictorURL, "predictor-url", "", "glucose predictor sidecar URL (default: built-in linear model)")
	pf.StringVar(&feedbackLog, "feedback-log", "", "SQLite glucose log path")
	pf.Uint64Var(&seed, "seed", 0, "sampling seed (0 = random)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(rateCmd)
	rootCmd.AddCommand(rankingsCmd)
}

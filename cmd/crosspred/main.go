package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "crosspred",
		Short: "Age-binned cross-prediction of WISC scores from functional connectivity",
		Long: `crosspred bins a cohort into age groups, trains a model on each group and
scores it on all groups, and tests every score against a label-permutation null.

Configuration is read from the environment (and an optional .env file);
see LABELS_FILE, FC_DIR, OUTPUT_DIR, DATABASE_URL and N_PERMUTATIONS.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newBinsCmd(),
		newSimilarityCmd(),
		newReportCmd(),
		newServeCmd(),
		newMigrateCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

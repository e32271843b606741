package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"crosspred/adapters/db/postgres/migrations"
	"crosspred/app"
	"crosspred/domain/core"
	"crosspred/domain/result"
	"crosspred/internal/report"
	"crosspred/ui"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var (
		permutations int
		seed         int64
		workers      int
		appendMode   bool
		runID        string
		measures     []string
		models       []string
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the cross-prediction permutation study",
		Long: `Run bins the cohort into three age groups and, for every measure and model,
trains on each bin, scores on all three, and computes permutation p-values.

Interrupting the run keeps the repetitions completed so far.

Example: crosspred run --permutations 100 --measures WISC_FSIQ --models ridge`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()

			a := &env.cfg.Analysis
			flags := cmd.Flags()
			if flags.Changed("permutations") {
				a.NumPermutations = permutations
			}
			if flags.Changed("seed") {
				a.Seed = seed
			}
			if flags.Changed("workers") {
				a.Workers = workers
			}
			if flags.Changed("measures") {
				a.Measures = measures
			}
			if flags.Changed("models") {
				a.Models = models
			}
			if err := env.cfg.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			repo, err := env.repository(ctx, appendMode)
			if err != nil {
				return err
			}
			svc, resolved, err := env.study(repo)
			if err != nil {
				return err
			}
			req := env.request(resolved)
			if runID != "" {
				id, err := core.ParseRunID(runID)
				if err != nil {
					return err
				}
				req.RunID = id
			}

			res, err := svc.Run(ctx, req)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			for _, e := range res.Entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s, Score: %.4f, P: %.4f\n", e, e.Score, e.PValue)
			}
			if res.Partial {
				fmt.Fprintln(cmd.ErrOrStderr(), "run interrupted: results are partial")
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&permutations, "permutations", 500, "Number of label permutations per test")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic operations")
	cmd.Flags().IntVar(&workers, "workers", 1, "Parallel permutation workers")
	cmd.Flags().BoolVar(&appendMode, "append", false, "Append to an existing results file")
	cmd.Flags().StringVar(&runID, "run-id", "", "Run identifier (generated when empty)")
	cmd.Flags().StringSliceVar(&measures, "measures", nil, "WISC measures to predict")
	cmd.Flags().StringSliceVar(&models, "models", nil, "Models to fit (ridge, pls)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the study result as JSON")

	return cmd
}

func newBinsCmd() *cobra.Command {
	var numBins int

	cmd := &cobra.Command{
		Use:   "bins",
		Short: "Show the age bins of the configured cohort",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()
			if !cmd.Flags().Changed("num-bins") {
				numBins = env.cfg.Analysis.NumBins
			}

			svc, _, err := env.study(nil)
			if err != nil {
				return err
			}
			bins, err := svc.Bins(cmd.Context(), numBins)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "BIN\tSUBJECTS\tMIN AGE\tMAX AGE")
			for _, b := range bins {
				fmt.Fprintf(w, "%s\t%d\t%.2f\t%.2f\n", b.Label, b.Count, b.MinAge, b.MaxAge)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&numBins, "num-bins", 3, "Number of age bins (2 or 3)")
	return cmd
}

func newSimilarityCmd() *cobra.Command {
	var (
		measure string
		model   string
		metric  string
		topK    int
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "similarity",
		Short: "Compare model weights fitted on the whole cohort and on each age bin",
		Long: `Similarity fits one model on All, Bin 1, Bin 2 and Bin 3 and prints the
pairwise cosine similarity (or normalized euclidean distance) of the weights.

Example: crosspred similarity --measure WISC_FSIQ --model ridge --metric euclidean`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()

			if measure != "" {
				env.cfg.Analysis.Measures = []string{measure}
			}
			svc, resolved, err := env.study(nil)
			if err != nil {
				return err
			}
			if measure == "" {
				measure = resolved[0]
			}
			res, err := svc.Similarity(cmd.Context(), app.SimilarityRequest{Measure: measure, Model: model, Metric: metric, TopK: topK})
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(res.Metric), strings.Join(res.Labels, "\t"))
			for i, row := range res.Matrix {
				fmt.Fprint(w, res.Labels[i])
				for _, v := range row {
					fmt.Fprintf(w, "\t%.4f", v)
				}
				fmt.Fprintln(w)
			}
			for i, top := range res.TopFeatures {
				fmt.Fprintf(w, "top %s\t%v\n", res.Labels[i], top)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&measure, "measure", "", "WISC measure (defaults to the first configured measure)")
	cmd.Flags().StringVar(&model, "model", "ridge", "Model whose weights are compared (ridge, pls)")
	cmd.Flags().StringVar(&metric, "metric", "cosine", "Comparison metric (cosine, euclidean)")
	cmd.Flags().IntVar(&topK, "top", 0, "Report the indices of the strongest features per group")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the comparison as JSON")
	return cmd
}

func newReportCmd() *cobra.Command {
	var (
		filter  result.Filter
		runID   string
		asHTML  bool
		outPath string
		alpha   float64
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize saved results as markdown or HTML",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()

			if runID != "" {
				id, err := core.ParseRunID(runID)
				if err != nil {
					return err
				}
				filter.RunID = id
			}
			repo, err := env.repository(cmd.Context(), true)
			if err != nil {
				return err
			}
			entries, err := repo.ListEntries(cmd.Context(), filter)
			if err != nil {
				return err
			}

			opts := report.DefaultOptions()
			opts.Alpha = alpha
			out := report.Markdown(entries, opts)
			if asHTML {
				out = report.HTML(entries, opts)
			}
			if outPath == "" {
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}
			return os.WriteFile(outPath, out, 0o644)
		},
	}

	cmd.Flags().StringVar(&filter.Target, "target", "", "Only include this target measure")
	cmd.Flags().StringVar(&filter.Model, "model", "", "Only include this model")
	cmd.Flags().StringVar(&runID, "run-id", "", "Only include this run (postgres store)")
	cmd.Flags().BoolVar(&asHTML, "html", false, "Render HTML instead of markdown")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Write the report to a file")
	cmd.Flags().Float64Var(&alpha, "alpha", 0.05, "Significance threshold")

	return cmd
}

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve saved results over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()
			if port == "" {
				port = env.cfg.Server.Port
			}
			gin.SetMode(env.cfg.Server.GinMode)

			repo, err := env.repository(cmd.Context(), true)
			if err != nil {
				return err
			}
			server := ui.NewServer(repo, env.logger)
			if svc, _, err := env.study(repo); err == nil {
				server.WithStudy(svc, env.cfg.Analysis.NumBins)
			} else {
				env.logger.Warn("[Serve] /bins disabled: %v", err)
			}
			return server.Start(cmd.Context(), ":"+port)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Listen port (default PORT)")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres results schema",
	}

	migrator := func(cmd *cobra.Command) (*migrations.Migrator, *environment, error) {
		env, err := loadEnvironment()
		if err != nil {
			return nil, nil, err
		}
		db, err := env.connect(cmd.Context(), false)
		if err != nil {
			env.Close()
			return nil, nil, err
		}
		return migrations.NewMigrator(db.DB, env.logger), env, nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				m, env, err := migrator(cmd)
				if err != nil {
					return err
				}
				defer env.Close()
				return m.Up(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				m, env, err := migrator(cmd)
				if err != nil {
					return err
				}
				defer env.Close()
				return m.Down(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "List migrations and whether they are applied",
			RunE: func(cmd *cobra.Command, args []string) error {
				m, env, err := migrator(cmd)
				if err != nil {
					return err
				}
				defer env.Close()
				statuses, err := m.Status(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "VERSION\tNAME\tAPPLIED")
				for _, s := range statuses {
					fmt.Fprintf(w, "%s\t%s\t%t\n", s.Version, s.Name, s.Applied)
				}
				return w.Flush()
			},
		},
	)
	return cmd
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"campaignintel/domain/core"
	"campaignintel/internal"
	"campaignintel/internal/config"
	"campaignintel/internal/container"
	"campaignintel/internal/testkit"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "campaignctl",
		Short:         "Synthesize, rank and narrate constituency strategies",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (error, warn, info, debug)")

	open := func(cmd *cobra.Command) (*container.Container, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		logger := internal.NewLogger(internal.ParseLogLevel(logLevel))
		return container.New(cmd.Context(), cfg, logger)
	}

	rootCmd.AddCommand(
		newSynthesizeCmd(open),
		newRankCmd(open),
		newImportCmd(open),
		newNarrativeCmd(open),
		newWeightsCmd(open),
		newSeedCmd(open),
		newCoverageCmd(open),
	)
	return rootCmd
}

type opener func(cmd *cobra.Command) (*container.Container, error)

func parseIDs(args []string) ([]core.ConstituencyID, error) {
	ids := make([]core.ConstituencyID, 0, len(args))
	for _, a := range args {
		id, err := core.ParseConstituencyID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func newSynthesizeCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "synthesize <constituency-id>",
		Short: "Print the winning strategy for one constituency as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			c, err := open(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			ws, err := c.Strategies.Synthesize(cmd.Context(), ids[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), ws)
		},
	}
}

func newRankCmd(open opener) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "rank [constituency-id...]",
		Short: "Rank constituencies by priority; all known ones when none are given",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			c, err := open(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			p, err := c.Strategies.Portfolio(cmd.Context(), ids)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), p)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RANK\tID\tSTATUS\tTIER\tSCORE\tWIN%")
			for _, r := range p.Ranked {
				ws := r.Strategy
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%.1f\n", r.Rank, ws.ConstituencyID, ws.Status, ws.PriorityTier, ws.PriorityScore, ws.WinProbability)
			}
			for _, f := range p.Failures {
				fmt.Fprintf(tw, "-\t%s\t%s\t\t\t\n", f.ID, f.Code)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the ranked portfolio as JSON")
	return cmd
}

func newImportCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "import <workbook.xlsx|file.csv>",
		Short: "Load constituency records from a spreadsheet into the record store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := open(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			if c.Importer == nil {
				return fmt.Errorf("import needs DATABASE_URL to point at a record store")
			}
			ids, err := c.Importer.ImportFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d constituencies\n", len(ids))
			return nil
		},
	}
}

func newNarrativeCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "narrative <constituency-id>",
		Short: "Print the markdown campaign brief for one constituency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			c, err := open(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			ws, err := c.Strategies.Synthesize(cmd.Context(), ids[0])
			if err != nil {
				return err
			}
			res, err := c.Narratives.Narrate(cmd.Context(), ws)
			if err != nil {
				return err
			}
			if res.Fallback {
				fmt.Fprintf(cmd.ErrOrStderr(), "narrative provider unavailable, showing %s brief\n", res.Source)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), res.Markdown)
			return err
		},
	}
}

func newWeightsCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "weights",
		Short: "Print the effective scoring weights as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := open(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(c.Weights); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func newCoverageCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "coverage",
		Short: "Report how much of each constituency profile is estimated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := open(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			report, err := c.Strategies.Coverage(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "%d constituencies\n\n", report.Constituencies)
			fmt.Fprintln(tw, "FIELD\tEXACT\tREGIONAL\tDEFAULT\tEXACT%")
			for _, fc := range report.Coverage {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.0f\n", fc.Field, fc.Exact, fc.Regional, fc.Default, fc.ExactRate*100)
			}
			unresolved := make([]string, 0, len(report.Unresolved))
			for id := range report.Unresolved {
				unresolved = append(unresolved, id)
			}
			sort.Strings(unresolved)
			for _, id := range unresolved {
				fmt.Fprintf(tw, "unresolved %s: %s\n", id, report.Unresolved[id])
			}
			return tw.Flush()
		},
	}
}

func newSeedCmd(open opener) *cobra.Command {
	cfg := testkit.DefaultGeneratorConfig()
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the record store with synthetic constituencies for demos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := open(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			if c.RecordStore == nil {
				return fmt.Errorf("seed needs DATABASE_URL to point at a record store")
			}
			recs := testkit.NewGenerator(cfg).Records()
			for _, rec := range recs {
				if err := c.RecordStore.UpsertRecord(cmd.Context(), rec); err != nil {
					return fmt.Errorf("seed %s: %w", rec.ID, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d constituencies\n", len(recs))
			return nil
		},
	}
	cmd.Flags().IntVar(&cfg.Count, "count", cfg.Count, "number of constituencies")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	cmd.Flags().Float64Var(&cfg.SparseRate, "sparse", cfg.SparseRate, "chance that each optional field is left out")
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

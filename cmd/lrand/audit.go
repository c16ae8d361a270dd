package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Blackdeer1524/lrand/src/audit"
)

func auditCmd(envFile *string) *cobra.Command {
	var (
		rows       int64
		sampleSize int
	)

	cmd := &cobra.Command{
		Use:   "audit [PATH]",
		Short: "Verify a persisted sweep and report collisions and the L_RAND distribution",
		Long: `Stream a dataset written by "lrand sweep" and check that its row index is dense,
L_RAND never increases and, with --rows, that no row is missing. Equal
neighbouring L_RAND values are counted as collisions.

PATH defaults to the configured output path.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*envFile)
			if err != nil {
				return err
			}

			path := cfg.OutputPath()
			if len(args) == 1 {
				path = args[0]
			}

			e, err := startApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			rep, err := audit.VerifyFile(e.Sink(), path, rows, sampleSize)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "rows:        %d\n", rep.Rows)
			fmt.Fprintf(out, "collisions:  %d\n", rep.Collisions)
			fmt.Fprintf(out, "max whole:   %d\n", rep.MaxWhole)
			fmt.Fprintf(out, "min whole:   %d\n", rep.MinWhole)
			fmt.Fprintf(out, "sample:      %d values, mean %.6f, median %.6f, std %.6f\n",
				rep.Summary.Count, rep.Summary.Mean, rep.Summary.Median, rep.Summary.StdDev)

			return nil
		},
	}

	cmd.Flags().Int64Var(&rows, "rows", -1, "Expected row count (negative: do not check)")
	cmd.Flags().IntVar(&sampleSize, "sample", audit.DefaultSampleSize, "Values kept for the distribution summary")

	return cmd
}

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func sweepCmd(envFile *string) *cobra.Command {
	var (
		low, high   int64
		chunkLength int64
		workers     int
		variant     string
		output      string
		whole       bool
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Hash every identifier of a domain and persist the result sorted by L_RAND",
		Long: `Partition [low, high) into chunks, hash the chunks in parallel, sort all rows by
L_RAND descending and write them as gzip-compressed CSV. The output file only
appears once the whole domain has been written.

Environment variables:
  LRAND_DATA_DIR        Base data directory (default: data)
  LRAND_REFERENCE_DIR   Output directory under DATA_DIR (default: reference)
  LRAND_OUTPUT_FILE     Output file name (default: identifier_output.csv.gz)
  LRAND_DOMAIN_MIN      Lower bound, inclusive (default: 1010001)
  LRAND_DOMAIN_MAX      Upper bound, exclusive (default: 899999999)
  LRAND_CHUNK_LENGTH    Identifiers per chunk (default: 100000)
  LRAND_CHUNK_WORKERS   Chunks in flight (default: number of CPUs)
  LRAND_KERNEL_WORKERS  Kernel worker pool size (default: number of CPUs)
  LRAND_VARIANT         exact or approximate (default: exact)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*envFile)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("low") {
				cfg.DomainMin = low
			}
			if flags.Changed("high") {
				cfg.DomainMax = high
			}
			if flags.Changed("chunk-length") {
				cfg.ChunkLength = chunkLength
			}
			if flags.Changed("workers") {
				cfg.ChunkWorkers = workers
			}
			if flags.Changed("variant") {
				cfg.Variant = variant
			}
			if flags.Changed("output") {
				cfg.OutputFile = output
			}
			if flags.Changed("whole") {
				cfg.IncludeWhole = whole
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			e, err := startApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			rep, err := e.Run(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run:      %s\n", rep.RunID)
			fmt.Fprintf(out, "output:   %s\n", rep.Path)
			fmt.Fprintf(out, "rows:     %d in %d chunks\n", rep.Rows, rep.Chunks)
			fmt.Fprintf(out, "wrapped:  %d\n", rep.Wrapped)
			fmt.Fprintf(out, "collided: %d\n", rep.Collisions)
			fmt.Fprintf(out, "L_RAND:   max %.10f, mean %.6f, std %.6f\n",
				rep.Summary.Max, rep.Summary.Mean, rep.Summary.StdDev)
			fmt.Fprintf(out, "elapsed:  %s\n", rep.Elapsed)

			return nil
		},
	}

	cmd.Flags().Int64Var(&low, "low", 0, "Lower bound, inclusive (default: LRAND_DOMAIN_MIN)")
	cmd.Flags().Int64Var(&high, "high", 0, "Upper bound, exclusive (default: LRAND_DOMAIN_MAX)")
	cmd.Flags().Int64Var(&chunkLength, "chunk-length", 0, "Identifiers per chunk (default: LRAND_CHUNK_LENGTH)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Chunks in flight (default: LRAND_CHUNK_WORKERS)")
	cmd.Flags().StringVar(&variant, "variant", "", "Kernel variant (default: LRAND_VARIANT)")
	cmd.Flags().StringVar(&output, "output", "", "Output file; absolute or relative to the reference directory")
	cmd.Flags().BoolVar(&whole, "whole", false, "Add the L_RAND_WHOLE column")

	return cmd
}

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Blackdeer1524/lrand/src/jitter"
)

func jitterCmd() *cobra.Command {
	var offset int64

	cmd := &cobra.Command{
		Use:   "jitter IDENTIFIER",
		Short: "Perturb an identifier by an offset and digit reversal",
		Long: `Adds an offset to the identifier and reverses the decimal digits of the sum.
Without --offset the sub-second part of the current time (in microseconds) is
used, so the output is not reproducible.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("identifier %q: %w", args[0], err)
			}

			if cmd.Flags().Changed("offset") {
				fmt.Fprintln(cmd.OutOrStdout(), jitter.Apply(id, offset))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), jitter.ApplyNow(id))
			}

			return nil
		},
	}

	cmd.Flags().Int64Var(&offset, "offset", 0, "Explicit offset (default: current microseconds)")

	return cmd
}

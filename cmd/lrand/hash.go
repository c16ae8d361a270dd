package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Blackdeer1524/lrand/src/kernel"
)

func hashCmd() *cobra.Command {
	var (
		variant string
		whole   bool
	)

	cmd := &cobra.Command{
		Use:   "hash IDENTIFIER...",
		Short: "Compute L_RAND for individual identifiers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			variants, err := parseVariants(variant)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("identifier %q: %w", arg, err)
				}

				for _, v := range variants {
					res, err := kernel.Evaluate(id, v)
					if err != nil {
						return err
					}

					fmt.Fprintf(out, "%d\t%s\t%s", id, v, res)
					if whole {
						fmt.Fprintf(out, "\t%d", res.Whole)
					}
					if res.Wrapped {
						fmt.Fprint(out, "\twrapped")
					}
					fmt.Fprintln(out)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&variant, "variant", "exact", "Kernel variant: exact, approximate or both")
	cmd.Flags().BoolVar(&whole, "whole", false, "Also print L_RAND_WHOLE")

	return cmd
}

func parseVariants(s string) ([]kernel.Variant, error) {
	if s == "both" {
		return []kernel.Variant{kernel.Exact, kernel.Approximate}, nil
	}

	v, err := kernel.ParseVariant(s)
	if err != nil {
		return nil, err
	}

	return []kernel.Variant{v}, nil
}

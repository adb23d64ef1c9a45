package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/accesstrace/internal/config"
	"github.com/SmitUplenchwar2687/accesstrace/internal/trace"
)

func newConvertCmd(root *rootOptions) *cobra.Command {
	var (
		input       string
		output      string
		column      int
		onMalformed string
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Extract the key column of a trace into an access record file",
		Long: `Reads a comma-separated trace line by line, takes one column (the lbn,
column 5, by default) and writes it as the key of an access record:

  timestamp,command,key,size,ttl
  0,0,<value>,0,0

No header is assumed on the input. Fields are split on commas with no quote
handling. Lines without the requested column follow --on-malformed:

  error   stop with exit status 4 (default)
  skip    drop the line
  empty   write the record with an empty key

Run without flags to convert cloud.csv into access_records.csv.`,
		Example: `  accesstrace convert
  accesstrace convert --input blk.csv --output keys.csv --column 3
  accesstrace convert --input trace.csv.zst --on-malformed skip`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load(cmd, func(c *config.Config) {
				if cmd.Flags().Changed("input") {
					c.Convert.Input = input
				}
				if cmd.Flags().Changed("output") {
					c.Convert.Output = output
				}
				if cmd.Flags().Changed("column") {
					c.Convert.Column = column
				}
				if cmd.Flags().Changed("on-malformed") {
					c.Convert.OnMalformed = onMalformed
				}
			}, func(c config.Config) error { return c.Convert.Validate() })
			if err != nil {
				return err
			}

			sum, err := trace.Convert(cmd.Context(), trace.Options{
				InputPath:   cfg.Convert.Input,
				OutputPath:  cfg.Convert.Output,
				Column:      cfg.Convert.Column,
				OnMalformed: trace.MalformedPolicy(cfg.Convert.OnMalformed),
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d records to %s\n", sum.Rows, cfg.Convert.Output)
			if sum.Skipped > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "  Skipped: %d\n", sum.Skipped)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", trace.DefaultInputPath, "input trace (.zst is decompressed)")
	cmd.Flags().StringVar(&output, "output", trace.DefaultOutputPath, "output access record file (.zst is compressed)")
	cmd.Flags().IntVar(&column, "column", trace.DefaultColumn, "1-based column holding the key")
	cmd.Flags().StringVar(&onMalformed, "on-malformed", string(trace.PolicyError), "policy for short lines (error, skip, empty)")

	return cmd
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/accesstrace/internal/config"
	"github.com/SmitUplenchwar2687/accesstrace/internal/trace"
)

func newRemapCmd(root *rootOptions) *cobra.Command {
	var (
		input       string
		output      string
		columns     trace.Mapping
		skipHeader  bool
		onMalformed string
	)

	cmd := &cobra.Command{
		Use:   "remap",
		Short: "Rewrite arbitrary trace columns into an access record file",
		Long: `Maps input columns onto the access record fields. Each field takes a
1-based column index; 0 writes the placeholder "0". Values are trimmed and
blank lines are dropped.

The defaults read a Twitter cache trace: timestamp from column 1, key from
column 2 and size from column 3.`,
		Example: `  accesstrace remap --input twitter_cluster52.csv --output test_twitter.csv
  accesstrace remap --input kv.csv --key 4 --size 5 --timestamp 0 --skip-header`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load(cmd, func(c *config.Config) {
				if cmd.Flags().Changed("input") {
					c.Remap.Input = input
				}
				if cmd.Flags().Changed("output") {
					c.Remap.Output = output
				}
				if cmd.Flags().Changed("timestamp") {
					c.Remap.Columns.Timestamp = columns.Timestamp
				}
				if cmd.Flags().Changed("command") {
					c.Remap.Columns.Command = columns.Command
				}
				if cmd.Flags().Changed("key") {
					c.Remap.Columns.Key = columns.Key
				}
				if cmd.Flags().Changed("size") {
					c.Remap.Columns.Size = columns.Size
				}
				if cmd.Flags().Changed("ttl") {
					c.Remap.Columns.TTL = columns.TTL
				}
				if cmd.Flags().Changed("skip-header") {
					c.Remap.SkipHeader = skipHeader
				}
				if cmd.Flags().Changed("on-malformed") {
					c.Remap.OnMalformed = onMalformed
				}
			}, func(c config.Config) error { return c.Remap.Validate() })
			if err != nil {
				return err
			}
			if cfg.Remap.Input == "" {
				return fmt.Errorf("--input is required")
			}

			sum, err := trace.Remap(cmd.Context(), trace.RemapOptions{
				InputPath:   cfg.Remap.Input,
				OutputPath:  cfg.Remap.Output,
				Mapping:     cfg.Remap.Columns,
				SkipHeader:  cfg.Remap.SkipHeader,
				OnMalformed: trace.MalformedPolicy(cfg.Remap.OnMalformed),
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d records to %s\n", sum.Rows, cfg.Remap.Output)
			if sum.Skipped > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "  Skipped: %d\n", sum.Skipped)
			}
			return nil
		},
	}

	def := trace.TwitterMapping
	cmd.Flags().StringVar(&input, "input", "", "input trace (required unless set in config)")
	cmd.Flags().StringVar(&output, "output", trace.DefaultOutputPath, "output access record file")
	cmd.Flags().IntVar(&columns.Timestamp, "timestamp", def.Timestamp, "column for timestamp (0 = placeholder)")
	cmd.Flags().IntVar(&columns.Command, "command", def.Command, "column for command (0 = placeholder)")
	cmd.Flags().IntVar(&columns.Key, "key", def.Key, "column for key")
	cmd.Flags().IntVar(&columns.Size, "size", def.Size, "column for size (0 = placeholder)")
	cmd.Flags().IntVar(&columns.TTL, "ttl", def.TTL, "column for ttl (0 = placeholder)")
	cmd.Flags().BoolVar(&skipHeader, "skip-header", false, "drop the first input line")
	cmd.Flags().StringVar(&onMalformed, "on-malformed", string(trace.PolicyError), "policy for short lines (error, skip, empty)")

	return cmd
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/accesstrace/internal/config"
	"github.com/SmitUplenchwar2687/accesstrace/internal/generate"
)

func newGenerateCmd(root *rootOptions) *cobra.Command {
	var (
		output string
		count  int
		size   string
		alpha  float64
		keys   uint64
		seed   int64
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate synthetic traces and example config",
		Long: `Generates sample data for testing and experimentation.

Use "generate trace" to create a Zipf-distributed access record file.
Use "generate config" to create an example TOML config file.`,
	}

	traceCmd := &cobra.Command{
		Use:   "trace",
		Short: "Generate a Zipf-distributed access record file",
		Long: `Writes key-only access records whose keys follow a Zipf distribution
over [1, keys]: key k is drawn with weight k^-alpha.

Generation stops after --count records or once the file reaches --size,
whichever comes first. Set --size 0 to rely on --count alone.`,
		Example: `  accesstrace generate trace --output zipf_data.csv --size 50MB
  accesstrace generate trace --count 100000 --size 0 --alpha 1.1 --keys 5000 --seed 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load(cmd, func(c *config.Config) {
				if cmd.Flags().Changed("output") {
					c.Generate.Output = output
				}
				if cmd.Flags().Changed("count") {
					c.Generate.Count = count
				}
				if cmd.Flags().Changed("size") {
					c.Generate.Size = size
				}
				if cmd.Flags().Changed("alpha") {
					c.Generate.Alpha = alpha
				}
				if cmd.Flags().Changed("keys") {
					c.Generate.Keys = keys
				}
				if cmd.Flags().Changed("seed") {
					c.Generate.Seed = seed
				}
			}, func(c config.Config) error { return c.Generate.Validate() })
			if err != nil {
				return err
			}

			var sizeBytes int64
			if cfg.Generate.Size != "" {
				if sizeBytes, err = generate.ParseSize(cfg.Generate.Size); err != nil {
					return err
				}
			}

			n, err := generate.WriteFile(cmd.Context(), cfg.Generate.Output, generate.Options{
				Count:     cfg.Generate.Count,
				SizeBytes: sizeBytes,
				Alpha:     cfg.Generate.Alpha,
				Keys:      cfg.Generate.Keys,
				Seed:      cfg.Generate.Seed,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Generated %d access records to %s\n", n, cfg.Generate.Output)
			fmt.Fprintf(cmd.OutOrStdout(), "  Keys:  %d\n", cfg.Generate.Keys)
			fmt.Fprintf(cmd.OutOrStdout(), "  Alpha: %g\n", cfg.Generate.Alpha)
			return nil
		},
	}

	defaults := generate.DefaultOptions()
	traceCmd.Flags().StringVar(&output, "output", generate.DefaultOutputPath, "output file path")
	traceCmd.Flags().IntVar(&count, "count", 0, "number of records (0 = limited by --size)")
	traceCmd.Flags().StringVar(&size, "size", "50MB", "approximate file size (e.g. 100KB, 2MB)")
	traceCmd.Flags().Float64Var(&alpha, "alpha", defaults.Alpha, "Zipf exponent (> 1)")
	traceCmd.Flags().Uint64Var(&keys, "keys", defaults.Keys, "number of distinct keys")
	traceCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time based)")

	var configOutput string
	configCmd := &cobra.Command{
		Use:     "config",
		Short:   "Generate an example TOML config file",
		Example: `  accesstrace generate config --output accesstrace.toml`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteExample(configOutput); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated example config at %s\n", configOutput)
			return nil
		},
	}
	configCmd.Flags().StringVar(&configOutput, "output", "accesstrace.toml", "output file path")

	cmd.AddCommand(traceCmd, configCmd)
	return cmd
}

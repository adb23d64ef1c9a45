package cli

import (
	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/accesstrace/internal/config"
)

func addFilterFlags(cmd *cobra.Command, o *config.FilterConfig) {
	cmd.Flags().StringSliceVar(&o.Keys, "keys", nil, "only replay these keys (comma-separated)")
	cmd.Flags().StringSliceVar(&o.Commands, "commands", nil, "only replay these command codes (comma-separated)")
	cmd.Flags().StringVar(&o.After, "after", "", "only replay records after this trace time (seconds or RFC 3339)")
	cmd.Flags().StringVar(&o.Before, "before", "", "only replay records before this trace time (seconds or RFC 3339)")
}

func applyFilterFlags(cmd *cobra.Command, dst *config.FilterConfig, src config.FilterConfig) {
	if cmd.Flags().Changed("keys") {
		dst.Keys = src.Keys
	}
	if cmd.Flags().Changed("commands") {
		dst.Commands = src.Commands
	}
	if cmd.Flags().Changed("after") {
		dst.After = src.After
	}
	if cmd.Flags().Changed("before") {
		dst.Before = src.Before
	}
}

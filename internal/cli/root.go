package cli

import (
	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/accesstrace/internal/config"
	"github.com/SmitUplenchwar2687/accesstrace/internal/logging"
)

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

// NewRootCmd creates the root accesstrace command.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "accesstrace",
		Short: "Build and replay cache access traces",
		Long: `accesstrace turns raw block and key-value traces into access record
files (timestamp,command,key,size,ttl), synthesizes Zipf traces in the same
format, replays them against a cache to measure the miss ratio, and sweeps
cache sizes to build miss-ratio curves.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a TOML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format (text, json)")

	root.AddCommand(
		newConvertCmd(opts),
		newRemapCmd(opts),
		newGenerateCmd(opts),
		newReplayCmd(opts),
		newCurveCmd(opts),
	)

	return root
}

// load builds the effective config: defaults, then the config file, then
// flags the user set explicitly (applied by overlay). The log section and
// the sections the command uses (checked by validate) must be valid; the
// logger is initialized from the result.
func (o *rootOptions) load(cmd *cobra.Command, overlay func(*config.Config), validate func(config.Config) error) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		cfg, err = config.LoadFile(o.configPath)
		if err != nil {
			return cfg, err
		}
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format = o.logFormat
	}
	if overlay != nil {
		overlay(&cfg)
	}

	if err := cfg.Log.Validate(); err != nil {
		return cfg, err
	}
	if validate != nil {
		if err := validate(cfg); err != nil {
			return cfg, err
		}
	}
	if _, err := logging.Init(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format); err != nil {
		return cfg, err
	}
	return cfg, nil
}

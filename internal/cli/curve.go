package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/accesstrace/internal/config"
	"github.com/SmitUplenchwar2687/accesstrace/internal/generate"
	"github.com/SmitUplenchwar2687/accesstrace/internal/replay"
	"github.com/SmitUplenchwar2687/accesstrace/internal/trace"
)

// curveHeader is the first line of CSV curve output.
var curveHeader = []string{"policy", "sample_rate", "capacity", "miss_ratio", "hits", "misses"}

func newCurveCmd(root *rootOptions) *cobra.Command {
	var (
		file        string
		output      string
		format      string
		policies    []string
		maxCapacity string
		points      int
		sampleRates []float64
		filter      config.FilterConfig
	)

	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Build miss-ratio curves across cache sizes",
		Long: `Replays an access record file once through many in-memory caches and
reports the miss ratio at each size, for every eviction policy and sample
rate requested.

Sizes are --points evenly spaced capacities up to --max-capacity, in the
units of the size column (bytes for sized traces, keys for key-only ones).
A sample rate below 1 simulates only that fraction of the keys, chosen by
hash, against caches scaled down by the same factor (SHARDS).`,
		Example: `  accesstrace curve --file test_twitter.csv --max-capacity 4MB
  accesstrace curve --file zipf_data.csv --policies lru,fifo,lfu,2q --max-capacity 100000 --points 50
  accesstrace curve --file zipf_data.csv --sample-rates 1,0.1,0.01 --format json --output mrc.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var maxUnits config.Size
			if cmd.Flags().Changed("max-capacity") {
				n, err := generate.ParseSize(maxCapacity)
				if err != nil {
					return fmt.Errorf("invalid --max-capacity: %w", err)
				}
				maxUnits = config.Size(n)
			}

			cfg, err := root.load(cmd, func(c *config.Config) {
				if cmd.Flags().Changed("file") {
					c.Curve.Input = file
				}
				if cmd.Flags().Changed("output") {
					c.Curve.Output = output
				}
				if cmd.Flags().Changed("format") {
					c.Curve.Format = format
				}
				if cmd.Flags().Changed("policies") {
					c.Curve.Policies = policies
				}
				if cmd.Flags().Changed("max-capacity") {
					c.Curve.MaxCapacity = maxUnits
				}
				if cmd.Flags().Changed("points") {
					c.Curve.Points = points
				}
				if cmd.Flags().Changed("sample-rates") {
					c.Curve.SampleRates = sampleRates
				}
				applyFilterFlags(cmd, &c.Curve.FilterConfig, filter)
			}, func(c config.Config) error { return c.Curve.Validate() })
			if err != nil {
				return err
			}
			f, err := cfg.Curve.Filter()
			if err != nil {
				return err
			}

			var opts []replay.CurveOptions
			for _, p := range cfg.Curve.Policies {
				for _, rate := range cfg.Curve.SampleRates {
					opts = append(opts, replay.CurveOptions{
						Policy:      p,
						MaxCapacity: uint64(cfg.Curve.MaxCapacity),
						Points:      cfg.Curve.Points,
						SampleRate:  rate,
					})
				}
			}

			curves, err := replay.BuildCurvesFile(cmd.Context(), cfg.Curve.Input, f, opts...)
			if err != nil {
				return err
			}
			for _, c := range curves {
				slog.Info("curve built",
					"policy", c.Policy,
					"sample_rate", c.SampleRate,
					"accesses", c.Accesses,
					"sampled", c.Sampled,
					"elapsed", c.Elapsed)
			}

			if cfg.Curve.Output == "" {
				return writeCurves(cmd.OutOrStdout(), cfg.Curve.Format, curves)
			}
			return writeCurvesFile(cfg.Curve.Input, cfg.Curve.Output, cfg.Curve.Format, curves)
		},
	}

	defaults := config.Default().Curve
	cmd.Flags().StringVar(&file, "file", defaults.Input, "access record file to replay")
	cmd.Flags().StringVar(&output, "output", "", "write the curves to this file instead of stdout")
	cmd.Flags().StringVar(&format, "format", defaults.Format, "output format (csv, json)")
	cmd.Flags().StringSliceVar(&policies, "policies", defaults.Policies, "eviction policies (lru, fifo, lfu, 2q)")
	cmd.Flags().StringVar(&maxCapacity, "max-capacity", fmt.Sprint(uint64(defaults.MaxCapacity)), "largest simulated capacity (e.g. 100000, 4MB)")
	cmd.Flags().IntVar(&points, "points", defaults.Points, "number of cache sizes per curve")
	cmd.Flags().Float64SliceVar(&sampleRates, "sample-rates", defaults.SampleRates, "key sampling rates in (0, 1]")
	addFilterFlags(cmd, &filter)

	return cmd
}

func writeCurvesFile(input, path, format string, curves []*replay.Curve) (err error) {
	if err := trace.EnsureDistinct(input, path); err != nil {
		return err
	}
	out, err := trace.CreateOutput(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: closing %s: %w", trace.ErrOutputWrite, path, cerr)
		}
	}()
	if err := writeCurves(out, format, curves); err != nil {
		return fmt.Errorf("%w: %w", trace.ErrOutputWrite, err)
	}
	return nil
}

func writeCurves(w io.Writer, format string, curves []*replay.Curve) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(curves)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(curveHeader); err != nil {
		return err
	}
	for _, c := range curves {
		rate := strconv.FormatFloat(c.SampleRate, 'g', -1, 64)
		for _, p := range c.Points {
			if err := cw.Write([]string{
				c.Policy,
				rate,
				strconv.FormatUint(p.Capacity, 10),
				strconv.FormatFloat(p.MissRatio, 'f', 6, 64),
				strconv.Itoa(p.Hits),
				strconv.Itoa(p.Misses),
			}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/accesstrace/internal/cache"
	"github.com/SmitUplenchwar2687/accesstrace/internal/clock"
	"github.com/SmitUplenchwar2687/accesstrace/internal/config"
	"github.com/SmitUplenchwar2687/accesstrace/internal/generate"
	"github.com/SmitUplenchwar2687/accesstrace/internal/recorder"
	"github.com/SmitUplenchwar2687/accesstrace/internal/replay"
	"github.com/SmitUplenchwar2687/accesstrace/internal/trace"
)

func newReplayCmd(root *rootOptions) *cobra.Command {
	var (
		file       string
		backend    string
		policy     string
		capacity   string
		filter     config.FilterConfig
		outputJSON bool
		recordPath string
		redis      config.RedisConfig
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay an access record file against a cache",
		Long: `Replays an access record file in order through a cache and reports the
hit and miss counts and the miss ratio.

Caches:
  memory  in-process cache with an eviction --policy (lru, fifo, lfu, 2q).
          --capacity is in the units of the size column: bytes for traces
          with sizes ("64MB"), keys for key-only traces. ttl follows trace time.
  redis   SET NX per access against a Redis server; capacity and eviction
          come from the server's maxmemory settings`,
		Example: `  accesstrace replay --file access_records.csv --capacity 5000
  accesstrace replay --file twitter.csv --policy lfu --capacity 64MB
  accesstrace replay --file zipf_data.csv --cache redis --redis-host localhost:6379
  accesstrace replay --file access_records.csv --keys 42,43 --after 3600 --json
  accesstrace replay --file zipf_data.csv --record results.ndjson.zst`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var capUnits config.Size
			if cmd.Flags().Changed("capacity") {
				n, err := generate.ParseSize(capacity)
				if err != nil {
					return fmt.Errorf("invalid --capacity: %w", err)
				}
				capUnits = config.Size(n)
			}

			cfg, err := root.load(cmd, func(c *config.Config) {
				if cmd.Flags().Changed("file") {
					c.Replay.Input = file
				}
				if cmd.Flags().Changed("capacity") {
					c.Replay.Capacity = capUnits
				}
				if cmd.Flags().Changed("cache") {
					c.Replay.Cache = backend
				}
				if cmd.Flags().Changed("policy") {
					c.Replay.Policy = policy
				}
				applyFilterFlags(cmd, &c.Replay.FilterConfig, filter)
				applyRedisFlags(cmd, &c.Replay.Redis, redis)
			}, func(c config.Config) error { return c.Replay.Validate() })
			if err != nil {
				return err
			}
			if cfg.Replay.Cache == cache.BackendRedis {
				if err := normalizeRedis(&cfg.Replay.Redis); err != nil {
					return err
				}
			}
			f, err := cfg.Replay.Filter()
			if err != nil {
				return err
			}

			tc := clock.NewTraceClock(time.Unix(0, 0).UTC())
			c, err := createCache(cmd, cfg.Replay, tc)
			if err != nil {
				return err
			}
			defer c.Close()

			var cb func(replay.Result)
			var rec *recorder.Recorder
			if recordPath != "" {
				if err := trace.EnsureDistinct(cfg.Replay.Input, recordPath); err != nil {
					return err
				}
				if rec, err = recorder.Create(recordPath); err != nil {
					return err
				}
				defer rec.Close()
				cb = rec.Callback()
			}

			r := replay.New(c, tc, f)
			summary, err := r.RunFile(cmd.Context(), cfg.Replay.Input, cb)
			if err != nil {
				return err
			}
			if rec != nil {
				if err := rec.Close(); err != nil {
					return err
				}
				slog.Info("recorded replay results", "path", recordPath, "results", rec.Len())
			}

			out := cmd.OutOrStdout()
			if outputJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}

			fmt.Fprintf(out, "--- Replay Summary (%s) ---\n", describeCache(cfg.Replay))
			fmt.Fprintf(out, "  Total records:  %d\n", summary.TotalRecords)
			fmt.Fprintf(out, "  Replayed:       %d\n", summary.Filtered)
			fmt.Fprintf(out, "  Hits:           %d\n", summary.Hits)
			fmt.Fprintf(out, "  Misses:         %d\n", summary.Misses)
			fmt.Fprintf(out, "  Miss ratio:     %.4f\n", summary.MissRatio)
			fmt.Fprintf(out, "  Trace span:     %s\n", summary.Duration)
			fmt.Fprintf(out, "  Wall time:      %s\n", summary.WallDuration.Round(time.Millisecond))
			return nil
		},
	}

	defaults := config.Default().Replay
	cmd.Flags().StringVar(&file, "file", defaults.Input, "access record file to replay")
	cmd.Flags().StringVar(&backend, "cache", defaults.Cache, "cache backend (memory, redis)")
	cmd.Flags().StringVar(&policy, "policy", defaults.Policy, "memory cache eviction policy ("+strings.Join(cache.Policies, ", ")+")")
	cmd.Flags().StringVar(&capacity, "capacity", fmt.Sprint(uint64(defaults.Capacity)), "memory cache capacity in size units (e.g. 10000, 64MB)")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "output the summary as JSON")
	cmd.Flags().StringVar(&recordPath, "record", "", "write every replayed access as NDJSON to this file")
	addFilterFlags(cmd, &filter)
	addRedisFlags(cmd, &redis, defaults.Redis)

	return cmd
}

func describeCache(cfg config.ReplayConfig) string {
	if cfg.Cache == cache.BackendMemory {
		return fmt.Sprintf("memory %s, capacity %d", cfg.Policy, uint64(cfg.Capacity))
	}
	return cfg.Cache
}

func createCache(cmd *cobra.Command, cfg config.ReplayConfig, tc *clock.TraceClock) (cache.Cache, error) {
	switch cfg.Cache {
	case cache.BackendMemory:
		return cache.NewMemoryCache(cfg.Policy, uint64(cfg.Capacity), tc)
	case cache.BackendRedis:
		return cache.NewRedisCache(cmd.Context(), cfg.Redis.ToCacheConfig())
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache)
	}
}

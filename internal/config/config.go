package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/SmitUplenchwar2687/accesstrace/internal/cache"
	"github.com/SmitUplenchwar2687/accesstrace/internal/generate"
	"github.com/SmitUplenchwar2687/accesstrace/internal/replay"
	"github.com/SmitUplenchwar2687/accesstrace/internal/trace"
)

// Config is the top-level configuration for accesstrace.
type Config struct {
	Log      LogConfig      `toml:"log"`
	Convert  ConvertConfig  `toml:"convert"`
	Remap    RemapConfig    `toml:"remap"`
	Generate GenerateConfig `toml:"generate"`
	Replay   ReplayConfig   `toml:"replay"`
	Curve    CurveConfig    `toml:"curve"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text or json
}

// ConvertConfig holds settings for key extraction.
type ConvertConfig struct {
	Input       string `toml:"input"`
	Output      string `toml:"output"`
	Column      int    `toml:"column"`
	OnMalformed string `toml:"on_malformed"`
}

// RemapConfig holds settings for multi-column rewrites.
type RemapConfig struct {
	Input       string        `toml:"input"`
	Output      string        `toml:"output"`
	Columns     trace.Mapping `toml:"columns"`
	SkipHeader  bool          `toml:"skip_header"`
	OnMalformed string        `toml:"on_malformed"`
}

// GenerateConfig holds settings for synthetic traces.
type GenerateConfig struct {
	Output string  `toml:"output"`
	Count  int     `toml:"count"`
	Size   string  `toml:"size"` // e.g. "50MB"
	Alpha  float64 `toml:"alpha"`
	Keys   uint64  `toml:"keys"`
	Seed   int64   `toml:"seed"`
}

// FilterConfig selects the records a replay or curve looks at.
type FilterConfig struct {
	Keys     []string `toml:"keys"`
	Commands []string `toml:"commands"`
	After    string   `toml:"after"`  // trace seconds or RFC 3339, exclusive
	Before   string   `toml:"before"` // trace seconds or RFC 3339, exclusive
}

// ReplayConfig holds settings for cache replay.
type ReplayConfig struct {
	Input    string `toml:"input"`
	Cache    string `toml:"cache"`
	Policy   string `toml:"policy"`
	Capacity Size   `toml:"capacity"`
	FilterConfig
	Redis RedisConfig `toml:"redis"`
}

// CurveConfig holds settings for miss-ratio curves.
type CurveConfig struct {
	Input       string    `toml:"input"`
	Output      string    `toml:"output"` // empty writes to stdout
	Format      string    `toml:"format"` // csv or json
	Policies    []string  `toml:"policies"`
	MaxCapacity Size      `toml:"max_capacity"`
	Points      int       `toml:"points"`
	SampleRates []float64 `toml:"sample_rates"`
	FilterConfig
}

// RedisConfig configures the Redis replay backend.
type RedisConfig struct {
	Host         string        `toml:"host"`
	Port         int           `toml:"port"`
	Password     string        `toml:"password"`
	DB           int           `toml:"db"`
	Cluster      bool          `toml:"cluster"`
	ClusterNodes []string      `toml:"cluster_nodes"`
	PoolSize     int           `toml:"pool_size"`
	MaxRetries   int           `toml:"max_retries"`
	DialTimeout  time.Duration `toml:"dial_timeout"`
	Prefix       string        `toml:"prefix"`
}

// Size is a capacity written either as a plain integer or as a string
// with an optional KB, MB or GB suffix ("64MB").
type Size uint64

// UnmarshalTOML implements toml.Unmarshaler.
func (s *Size) UnmarshalTOML(v any) error {
	switch v := v.(type) {
	case int64:
		if v < 0 {
			return fmt.Errorf("size must not be negative, got %d", v)
		}
		*s = Size(v)
		return nil
	case string:
		n, err := generate.ParseSize(v)
		if err != nil {
			return err
		}
		*s = Size(n)
		return nil
	default:
		return fmt.Errorf("size must be an integer or a string, got %T", v)
	}
}

// Default returns a Config with sensible defaults.
func Default() Config {
	gen := generate.DefaultOptions()
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Convert: ConvertConfig{
			Input:       trace.DefaultInputPath,
			Output:      trace.DefaultOutputPath,
			Column:      trace.DefaultColumn,
			OnMalformed: string(trace.PolicyError),
		},
		Remap: RemapConfig{
			Output:      trace.DefaultOutputPath,
			Columns:     trace.TwitterMapping,
			OnMalformed: string(trace.PolicyError),
		},
		Generate: GenerateConfig{
			Output: generate.DefaultOutputPath,
			Size:   "50MB",
			Alpha:  gen.Alpha,
			Keys:   gen.Keys,
		},
		Replay: ReplayConfig{
			Input:    trace.DefaultOutputPath,
			Cache:    cache.BackendMemory,
			Policy:   cache.PolicyLRU,
			Capacity: 10_000,
			Redis: RedisConfig{
				Host:        "localhost",
				Port:        6379,
				PoolSize:    20,
				MaxRetries:  3,
				DialTimeout: 5 * time.Second,
				Prefix:      cache.DefaultRedisPrefix,
			},
		},
		Curve: CurveConfig{
			Input:       trace.DefaultOutputPath,
			Format:      "csv",
			Policies:    []string{cache.PolicyLRU},
			MaxCapacity: 4_000_000,
			Points:      replay.DefaultCurvePoints,
			SampleRates: []float64{1},
		},
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	return errors.Join(
		c.Log.Validate(),
		c.Convert.Validate(),
		c.Remap.Validate(),
		c.Generate.Validate(),
		c.Replay.Validate(),
		c.Curve.Validate(),
	)
}

// Validate checks the log section.
func (l LogConfig) Validate() error {
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q, must be one of: debug, info, warn, error", l.Level)
	}
	switch l.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q, must be one of: text, json", l.Format)
	}
	return nil
}

// Validate checks the convert section.
func (c ConvertConfig) Validate() error {
	if c.Column < 1 {
		return fmt.Errorf("convert.column must be at least 1, got %d", c.Column)
	}
	if _, err := trace.ParsePolicy(c.OnMalformed); err != nil {
		return fmt.Errorf("convert.on_malformed: %w", err)
	}
	return nil
}

// Validate checks the remap section.
func (r RemapConfig) Validate() error {
	if err := r.Columns.Validate(); err != nil {
		return fmt.Errorf("remap.columns: %w", err)
	}
	if _, err := trace.ParsePolicy(r.OnMalformed); err != nil {
		return fmt.Errorf("remap.on_malformed: %w", err)
	}
	return nil
}

// Validate checks the generate section.
func (g GenerateConfig) Validate() error {
	if g.Alpha <= 1 {
		return fmt.Errorf("generate.alpha must be greater than 1, got %g", g.Alpha)
	}
	if g.Size != "" {
		if _, err := generate.ParseSize(g.Size); err != nil {
			return fmt.Errorf("generate.size: %w", err)
		}
	}
	if g.Count < 0 {
		return fmt.Errorf("generate.count must not be negative, got %d", g.Count)
	}
	return nil
}

// Validate checks the replay section.
func (r ReplayConfig) Validate() error {
	if _, err := r.Filter(); err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	switch r.Cache {
	case cache.BackendMemory:
		if _, err := cache.ParsePolicy(r.Policy); err != nil {
			return fmt.Errorf("replay.policy: %w", err)
		}
		if r.Capacity == 0 {
			return errors.New("replay.capacity must be positive")
		}
	case cache.BackendRedis:
		return r.Redis.Validate()
	default:
		return fmt.Errorf("unknown replay.cache %q, must be one of: memory, redis", r.Cache)
	}
	return nil
}

// Validate checks the replay.redis section.
func (r RedisConfig) Validate() error {
	if r.Cluster {
		if len(r.ClusterNodes) == 0 {
			return errors.New("replay.redis.cluster_nodes is required when cluster=true")
		}
	} else {
		if r.Host == "" {
			return errors.New("replay.redis.host is required")
		}
		if r.Port <= 0 {
			return fmt.Errorf("replay.redis.port must be positive, got %d", r.Port)
		}
	}
	if r.DialTimeout < 0 {
		return fmt.Errorf("replay.redis.dial_timeout must not be negative, got %s", r.DialTimeout)
	}
	return nil
}

// Validate checks the curve section.
func (c CurveConfig) Validate() error {
	if _, err := c.Filter(); err != nil {
		return fmt.Errorf("curve: %w", err)
	}
	if len(c.Policies) == 0 {
		return errors.New("curve.policies must not be empty")
	}
	for _, p := range c.Policies {
		if _, err := cache.ParsePolicy(p); err != nil {
			return fmt.Errorf("curve.policies: %w", err)
		}
	}
	if c.MaxCapacity == 0 {
		return errors.New("curve.max_capacity must be positive")
	}
	if c.Points <= 0 {
		return fmt.Errorf("curve.points must be positive, got %d", c.Points)
	}
	if len(c.SampleRates) == 0 {
		return errors.New("curve.sample_rates must not be empty")
	}
	for _, r := range c.SampleRates {
		if r <= 0 || r > 1 {
			return fmt.Errorf("curve.sample_rates: %g is outside (0, 1]", r)
		}
	}
	switch c.Format {
	case "csv", "json":
	default:
		return fmt.Errorf("unknown curve.format %q, must be one of: csv, json", c.Format)
	}
	return nil
}

// Filter converts the section into a replay filter.
func (f FilterConfig) Filter() (replay.Filter, error) {
	after, err := replay.ParseTraceTime(f.After)
	if err != nil {
		return replay.Filter{}, fmt.Errorf("after: %w", err)
	}
	before, err := replay.ParseTraceTime(f.Before)
	if err != nil {
		return replay.Filter{}, fmt.Errorf("before: %w", err)
	}
	if !after.IsZero() && !before.IsZero() && !before.After(after) {
		return replay.Filter{}, fmt.Errorf("before (%s) must be later than after (%s)", f.Before, f.After)
	}
	return replay.Filter{
		Keys:     f.Keys,
		Commands: f.Commands,
		After:    after,
		Before:   before,
	}, nil
}

// LoadFile reads a TOML config file and merges it with defaults.
// Fields not specified in the file retain their default values.
// Unknown keys are rejected.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("loading config file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

// WriteExample writes an example config file to the given path.
func WriteExample(path string) error {
	example := `[log]
level = "info"
format = "text"

[convert]
input = "cloud.csv"
output = "access_records.csv"
column = 5
on_malformed = "error" # error, skip or empty

[remap]
input = "twitter_cluster52.csv"
output = "test_twitter.csv"
skip_header = false
on_malformed = "error"

[remap.columns]
timestamp = 1
key = 2
size = 3

[generate]
output = "zipf_data.csv"
size = "50MB"
alpha = 1.3
keys = 1000000

[replay]
input = "access_records.csv"
cache = "memory"
policy = "lru" # lru, fifo, lfu or 2q
capacity = 10000 # keys, or bytes ("64MB") when the trace has sizes
# commands = ["0"]
# after = "0"
# before = "3600"

[replay.redis]
host = "localhost"
port = 6379
pool_size = 20
max_retries = 3
dial_timeout = "5s"
prefix = "accesstrace:"

[curve]
input = "access_records.csv"
format = "csv"
policies = ["lru", "fifo", "lfu", "2q"]
max_capacity = "4MB"
points = 100
sample_rates = [1.0, 0.1, 0.01]
`
	return os.WriteFile(path, []byte(example), 0o644)
}

// ToCacheConfig converts the replay redis section for the cache package.
func (r RedisConfig) ToCacheConfig() *cache.RedisConfig {
	return &cache.RedisConfig{
		Host:         r.Host,
		Port:         r.Port,
		Password:     r.Password,
		DB:           r.DB,
		Cluster:      r.Cluster,
		ClusterNodes: append([]string(nil), r.ClusterNodes...),
		PoolSize:     r.PoolSize,
		MaxRetries:   r.MaxRetries,
		DialTimeout:  r.DialTimeout,
		Prefix:       r.Prefix,
	}
}

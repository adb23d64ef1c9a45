package cli

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/accesstrace/internal/config"
)

func addRedisFlags(cmd *cobra.Command, o *config.RedisConfig, def config.RedisConfig) {
	cmd.Flags().StringVar(&o.Host, "redis-host", def.Host, "redis host (or host:port)")
	cmd.Flags().IntVar(&o.Port, "redis-port", def.Port, "redis port")
	cmd.Flags().StringVar(&o.Password, "redis-password", "", "redis password")
	cmd.Flags().IntVar(&o.DB, "redis-db", 0, "redis database index")
	cmd.Flags().BoolVar(&o.Cluster, "redis-cluster", false, "enable redis cluster mode")
	cmd.Flags().StringSliceVar(&o.ClusterNodes, "redis-cluster-nodes", nil, "redis cluster nodes host:port list")
	cmd.Flags().IntVar(&o.PoolSize, "redis-pool-size", def.PoolSize, "redis connection pool size")
	cmd.Flags().IntVar(&o.MaxRetries, "redis-max-retries", def.MaxRetries, "redis max retries")
	cmd.Flags().DurationVar(&o.DialTimeout, "redis-dial-timeout", def.DialTimeout, "redis dial timeout")
	cmd.Flags().StringVar(&o.Prefix, "redis-prefix", def.Prefix, "prefix for replayed redis keys")
}

func applyRedisFlags(cmd *cobra.Command, dst *config.RedisConfig, src config.RedisConfig) {
	if cmd.Flags().Changed("redis-host") {
		dst.Host = src.Host
	}
	if cmd.Flags().Changed("redis-port") {
		dst.Port = src.Port
	}
	if cmd.Flags().Changed("redis-password") {
		dst.Password = src.Password
	}
	if cmd.Flags().Changed("redis-db") {
		dst.DB = src.DB
	}
	if cmd.Flags().Changed("redis-cluster") {
		dst.Cluster = src.Cluster
	}
	if cmd.Flags().Changed("redis-cluster-nodes") {
		dst.ClusterNodes = src.ClusterNodes
	}
	if cmd.Flags().Changed("redis-pool-size") {
		dst.PoolSize = src.PoolSize
	}
	if cmd.Flags().Changed("redis-max-retries") {
		dst.MaxRetries = src.MaxRetries
	}
	if cmd.Flags().Changed("redis-dial-timeout") {
		dst.DialTimeout = src.DialTimeout
	}
	if cmd.Flags().Changed("redis-prefix") {
		dst.Prefix = src.Prefix
	}
}

// normalizeRedis splits a host:port value given as the host.
func normalizeRedis(o *config.RedisConfig) error {
	if o.Cluster {
		return nil
	}

	host, port, err := normalizeRedisHostPort(o.Host, o.Port)
	if err != nil {
		return err
	}
	o.Host = host
	o.Port = port
	return nil
}

func normalizeRedisHostPort(host string, port int) (string, int, error) {
	if strings.Contains(host, ":") {
		h, p, err := net.SplitHostPort(host)
		if err != nil {
			return "", 0, fmt.Errorf("invalid --redis-host value %q: %w", host, err)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return "", 0, fmt.Errorf("invalid redis port in --redis-host %q: %w", host, err)
		}
		host = h
		port = n
	}

	if host == "" {
		return "", 0, fmt.Errorf("redis host cannot be empty")
	}
	if port <= 0 {
		return "", 0, fmt.Errorf("redis port must be positive, got %d", port)
	}

	return host, port, nil
}

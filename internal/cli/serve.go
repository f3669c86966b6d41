package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hydrokit/negflo/internal/server"
	"github.com/hydrokit/negflo/pkg/cache"
	"github.com/hydrokit/negflo/pkg/pipeline"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		cfg     server.Config
		redis   cache.RedisOptions
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the smoothing API over HTTP",
		Long: `Serve the smoothing API over HTTP.

Routes: GET /healthz, GET /v1/modes, POST /v1/smooth, GET /metrics.

Artifacts are cached in Redis when --redis is given, otherwise in the local
cache directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var (
				store cache.Cache
				err   error
			)
			switch {
			case noCache:
				store = cache.NewNullCache()
			case redis.Addr != "":
				store, err = cache.NewRedisCache(ctx, redis)
			default:
				store, err = c.newCache(false)
			}
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			runner := pipeline.NewRunner(store, cache.NewScopedKeyer(nil, "api:"), c.Logger)
			defer runner.Close()

			metrics := server.NewMetrics()
			metrics.Install()

			printInfo("Serving on %s", cfg.Addr)
			return server.New(cfg, runner, metrics, c.Logger).ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&cfg.Addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", server.DefaultTimeout, "per-request timeout")
	cmd.Flags().Int64Var(&cfg.MaxBodyBytes, "max-body", server.DefaultMaxBodyBytes, "largest accepted request body in bytes")
	cmd.Flags().IntVar(&cfg.Workers, "workers", 0, "columns smoothed in parallel per request (default: number of CPUs)")
	cmd.Flags().StringVar(&redis.Addr, "redis", "", "Redis address for a shared artifact cache (host:port)")
	cmd.Flags().StringVar(&redis.Password, "redis-password", "", "Redis password")
	cmd.Flags().IntVar(&redis.DB, "redis-db", 0, "Redis database number")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}


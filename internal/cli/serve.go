package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/splitdelegation/internal/server"
	"github.com/matzehuels/splitdelegation/pkg/observability"
	"github.com/matzehuels/splitdelegation/pkg/source/local"
)

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve voting power over HTTP",
		Long: `Serve runs the HTTP API. When [server] recompute is set, every configured
space (or every snapshot in the snapshots directory) is recomputed on that
cron schedule and stored in the configured result store.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				c.Config.Server.Addr = addr
			}
			return c.runServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func (c *CLI) runServe(ctx context.Context) error {
	cfg := c.Config
	runner, _, err := c.newRunner(ctx, runnerOpts{store: true})
	if err != nil {
		return err
	}
	defer func() {
		if err := runner.Close(); err != nil {
			c.Logger.Warn("shutdown", "err", err)
		}
	}()

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	observability.SetPipelineHooks(metrics)
	observability.SetCacheHooks(metrics)
	observability.SetHTTPHooks(metrics)

	if cfg.Server.Recompute != "" {
		spaces := cfg.Server.Spaces
		if dir, ok := runner.Source.(*local.Dir); ok && len(spaces) == 0 {
			if spaces, err = dir.Spaces(); err != nil {
				return err
			}
		}
		rc, err := server.NewRecomputer(runner, cfg.Server.Recompute, spaces, cfg.Compute.Concurrency, c.Logger)
		if err != nil {
			return err
		}
		rc.Start(ctx)
		go func() {
			if err := rc.RunOnce(ctx); err != nil {
				c.Logger.Warn("initial recompute failed", "err", err)
			}
		}()
		c.Logger.Info("recompute scheduled", "schedule", cfg.Server.Recompute, "spaces", len(spaces))
	}

	srv := server.New(server.Options{
		Runner:             runner,
		Logger:             c.Logger,
		DelegationOverride: cfg.Compute.DelegationOverride,
		MaxTreeDepth:       cfg.Compute.MaxTreeDepth,
		CORSOrigins:        cfg.Server.CORSOrigins,
		Timeout:            cfg.Server.Timeout,
	})
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

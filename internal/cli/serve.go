package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackreqs/pkg/api"
	"github.com/matzehuels/stackreqs/pkg/observability/prometheus"
)

// serveCommand runs the HTTP API against the configured registry.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
		metrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve load order resolution over HTTP",
		Long: `Serve the registry over HTTP. POST /v1/resolve accepts either component
identifiers or raw configuration keys; GET /metrics exposes Prometheus
metrics unless --metrics=false.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			reg, err := c.openRegistry(ctx)
			if err != nil {
				return err
			}
			defer reg.Close()

			opts := api.Options{Logger: logger, ResolveTimeout: timeout}
			if metrics {
				m := prometheus.New()
				m.Install()
				opts.Metrics = m.Handler()
			}

			logger.Info("serving registry", "backend", reg.Name(), "source", c.registrySource())
			return api.New(reg, opts).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "per-request resolution timeout (0 disables)")
	cmd.Flags().BoolVar(&metrics, "metrics", true, "expose Prometheus metrics at /metrics")
	return cmd
}

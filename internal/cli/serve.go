package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/modelir/internal/api"
	"github.com/matzehuels/modelir/pkg/observability"
)

// serveCommand creates the serve command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API until interrupted.

The server exposes /v1/optimize, /v1/inspect, /v1/render and /v1/passes,
plus /healthz for probes. It shares the cache configured for the CLI, so a
redis backend lets several instances reuse each other's results. With
--verbose every pass, cache lookup and request is logged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = c.Config.Server.Addr
			}
			ctx := cmd.Context()

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()
			observability.Install(observability.NewLogHooks(c.Logger))

			srv := api.New(runner, c.Logger, api.Options{
				MaxBodyBytes: c.Config.Server.MaxBodyBytes,
				ReadTimeout:  c.Config.Server.ReadTimeout,
				Passes:       c.Config.Passes,
				CacheTTL:     c.Config.Cache.TTL,
			})
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

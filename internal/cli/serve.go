package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/piwi3910/RollSlit/internal/api"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the slitting ledger over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx, rootOpts, cmd)
			if err != nil {
				return classify(err)
			}
			defer a.Close()

			if a.cfg.App.Env != "dev" {
				gin.SetMode(gin.ReleaseMode)
			}
			if addr == "" {
				addr = a.cfg.HTTP.Addr
			}
			var gatherer prometheus.Gatherer
			if a.cfg.Metrics.Enabled {
				gatherer = a.registry
			}
			srv := api.NewServer(addr, api.NewRouter(api.NewController(a.slitter, a.log), gatherer))

			errCh := make(chan error, 1)
			go func() {
				fmt.Fprintf(cmd.ErrOrStderr(), "Listening on %s\n", addr)
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				return classify(err)
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.log.Error("http shutdown", "err", err)
			}
			return <-errCh
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}

package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/coursealloc/internal/server"
)

// shutdownTimeout bounds how long in-flight requests may finish.
const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the configurator HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup()
			if err != nil {
				return err
			}
			defer e.log.Sync()
			if listen != "" {
				e.cfg.ListenAddr = listen
			}

			store, closeStore, err := e.openStore()
			if err != nil {
				return err
			}
			defer func() {
				if err := closeStore(); err != nil {
					e.log.Error("closing store", zap.Error(err))
				}
			}()

			srv := server.New(e.newManager(store), e.log)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return sysErr(serve(ctx, srv, e.cfg.ListenAddr))
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides listen_addr)")
	return cmd
}

// serve runs srv until ctx is cancelled or the listener fails, then shuts
// it down gracefully.
func serve(ctx context.Context, srv *server.Server, addr string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Listen(addr)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

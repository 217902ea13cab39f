package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/calder-labs/mirador/internal/adapters/driving/httpapi"
	"github.com/calder-labs/mirador/internal/schedule"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sync scheduler and the HTTP API",
	Long: `Starts the long-running service: periodic syncs for every
tenant plus the HTTP control API for tenant management, manual sync
triggers and search.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	scheduler := schedule.New(
		app.orchestrator,
		app.store.TenantStore(),
		app.listers,
		app.syncInterval(),
		app.logger,
	)
	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	defer scheduler.Stop()

	addr := serveAddr
	if addr == "" {
		addr = app.cfg.API.Addr
	}

	server := httpapi.NewServer(
		app.registry,
		app.orchestrator,
		app.searcher,
		app.store.ManifestStore(),
		app.logger,
	)

	app.logger.Info("mirador serving",
		zap.String("addr", addr),
		zap.Duration("sync_interval", app.syncInterval()))

	return server.Run(ctx, addr)
}

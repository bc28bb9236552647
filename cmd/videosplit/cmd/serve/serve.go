package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"videosplit/internal/app"
)

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server and the expiry sweeper",
	Long: `Starts the videosplit HTTP API together with the background sweeper
that removes segment artifacts once their retention window elapses.
Configuration comes from the environment (see .env.example).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func run() error {
	application := app.InitializeApplication()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go application.Sweeper.Run(ctx)

	if err := application.Server.Start(); err != nil {
		return err
	}

	// Block until interrupted, then drain in-flight requests.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	application.Logger.Info("shutdown signal received")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	return application.Server.Shutdown(shutdownCtx)
}

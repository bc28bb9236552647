package sweep

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"videosplit/internal/app"
)

// Cmd represents the sweep command
var Cmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a single expiry sweep and exit",
	Long: `Deletes the artifacts of every job whose retention window has elapsed
and marks those jobs expired. Intended for cron-style deployments that
do not keep the serve process running.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application := app.InitializeApplication()
		expired, failed := application.Sweeper.SweepOnce(context.Background())
		cmd.Printf("expired %d job(s), %d failure(s)\n", expired, failed)
		if failed > 0 {
			return fmt.Errorf("%d job(s) could not be expired", failed)
		}
		return nil
	},
}

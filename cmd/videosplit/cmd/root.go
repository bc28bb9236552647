package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"videosplit/cmd/videosplit/cmd/serve"
	"videosplit/cmd/videosplit/cmd/sweep"
	"videosplit/cmd/videosplit/cmd/version"
)

var Verbose bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "videosplit",
	Short: "A service for splitting uploaded videos into fixed-length segments",
	Long: `videosplit runs the video splitting backend.
- serve starts the HTTP API with the background expiry sweeper
- sweep runs a single cleanup pass and exits, for cron-style deployments
Segments are produced with ffmpeg and served from object storage or local disk.`,
	TraverseChildren: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serve.Cmd)
	rootCmd.AddCommand(sweep.Cmd)
	rootCmd.AddCommand(version.Cmd)

	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "V", false, "verbose output")
}

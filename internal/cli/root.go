package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the quiz-bot CLI.
func Execute() error {
	return newRootCmd().Execute()
}

// newRootCmd wires the subcommands. CONFIG_PATH and PORT seed the flag
// defaults so containers can be configured without arguments.
func newRootCmd() *cobra.Command {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	port := os.Getenv("PORT")

	cmd := &cobra.Command{
		Use:          "quiz-bot",
		Short:        "Telegram personality quiz bot with a websocket front-end",
		SilenceUsage: true,
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&configPath, "config", configPath, "path to YAML config")
	flags.StringVar(&port, "port", port, "HTTP port, overrides server.port")

	cmd.AddCommand(
		NewStartCmd(&configPath, &port),
		NewMigrateCmd(&configPath),
		NewSeedCmd(&configPath),
	)
	return cmd
}

package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	apiURL     string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}
	envAPI := os.Getenv("MDCAT_API_URL")
	if envAPI == "" {
		envAPI = "http://127.0.0.1:8000/api"
	}

	cmd := &cobra.Command{
		Use:   "mdcat-quiz",
		Short: "Quiz practice client for the MDCAT exam-prep backend",
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().StringVar(&apiURL, "api-url", envAPI, "backend API base URL")
	cmd.AddCommand(NewAttemptCmd(&configPath, &apiURL))
	cmd.AddCommand(NewResultsCmd(&configPath, &apiURL))
	cmd.AddCommand(NewExplainCmd(&configPath, &apiURL))
	cmd.AddCommand(NewLoginCmd(&configPath, &apiURL))
	cmd.AddCommand(NewLogoutCmd(&configPath, &apiURL))
	cmd.AddCommand(NewWhoamiCmd(&configPath, &apiURL))
	return cmd
}

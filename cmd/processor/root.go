package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yourorg/llm-message-processor/internal/config"
)

var version = "dev"

// settings holds the configuration loaded in PersistentPreRunE. Subcommands
// read it only from their RunE.
type settings struct {
	cfg config.Config
}

func newRootCmd() *cobra.Command {
	s := &settings{}
	cmd := &cobra.Command{
		Use:   "processor",
		Short: "Forward text and images to an OpenAI-compatible model",
		Long: `processor sends a message (optionally with an image URL) to a chat
completion API using the caller's own API key, and reports the reply together
with token usage. Run "processor serve" for the REST API or "processor app"
for a one-off request from the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			envFile, _ := cmd.Flags().GetString("env-file")
			if err := godotenv.Load(envFile); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s not loaded, relying on environment\n", envFile)
			}
			c, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			s.cfg = c
			return nil
		},
	}
	cmd.PersistentFlags().String("env-file", ".env", "dotenv file loaded before reading the environment")

	cmd.AddCommand(newServeCmd(s))
	cmd.AddCommand(newAppCmd(s))
	cmd.AddCommand(newConfigCmd(s))
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

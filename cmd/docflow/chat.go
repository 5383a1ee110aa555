package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lablia/docflow"
	"github.com/lablia/docflow/internal/agents"
	"github.com/lablia/docflow/internal/cli"
	"github.com/lablia/docflow/internal/logging"
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with an agent from the terminal",
	Long: `Starts an interactive chat session against one of the registered
agents. Documents are staged with '/attach <file>' and sent together with
the next message.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, _ := mustSetup(cmd, false)

		debug, _ := cmd.Flags().GetBool("debug")
		logger := logging.NewNop()
		if debug {
			logger = logging.New(logging.ParseLevel("debug"))
		}

		app, err := cli.NewApp(cfg, logger)
		if err != nil {
			fmt.Printf("Error initializing docflow: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		agent, _ := cmd.Flags().GetString("agent")
		model, _ := cmd.Flags().GetString("model")
		sessionID, _ := cmd.Flags().GetString("session")
		plain, _ := cmd.Flags().GetBool("plain")

		err = cli.RunChat(app, cli.ChatOptions{
			Agent:     agent,
			Model:     model,
			SessionID: sessionID,
			Plain:     plain,
			Version:   docflow.Version,
		})
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("agent", "a", agents.DefaultAgent, "Root agent to talk to")
	chatCmd.Flags().StringP("model", "m", "", "Model name, e.g. 'Gemini 2.5 Flash' or gemini-2.0-flash")
	chatCmd.Flags().StringP("session", "s", "", "Session ID to resume")
	chatCmd.Flags().Bool("plain", false, "Disable banner and markdown rendering")
	chatCmd.Flags().Bool("debug", false, "Log engine activity to stderr")

	// Make chat the default when no subcommand is given.
	rootCmd.Run = chatCmd.Run
}

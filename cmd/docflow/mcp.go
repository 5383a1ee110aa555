package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lablia/docflow"
	"github.com/lablia/docflow/internal/cli"
	mcpadapter "github.com/lablia/docflow/pkg/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the agent engine as an MCP server so external AI clients can
drive document extraction sessions as tools.

Supported transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, logger := mustSetup(cmd, true)

		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		app, err := cli.NewApp(cfg, logger)
		if err != nil {
			log.Fatalf("Error initializing docflow: %v", err)
		}
		defer app.Close()

		srv := mcpadapter.NewServer(app.Runner, app.Registry, cfg.App.Name, docflow.Version,
			mcpadapter.WithLogger(logger))

		switch transport {
		case "stdio":
			// Keep logs off Stdout so they don't corrupt JSON-RPC.
			log.SetOutput(os.Stderr)
			logger.Info("mcp server starting", "transport", "stdio")
			if err := srv.ServeStdio(); err != nil {
				logger.Error("mcp server execution failed", "error", err)
				os.Exit(1)
			}
		case "sse":
			logger.Info("mcp server starting", "transport", "sse", "port", port)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil {
				if err != http.ErrServerClosed {
					logger.Error("mcp server execution failed", "error", err)
					os.Exit(1)
				}
			}
			logger.Info("mcp server stopped")
		default:
			log.Fatalf("Unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8090, "Port to listen on (only for SSE)")
}

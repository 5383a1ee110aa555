package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lablia/docflow/internal/cli"
	httpadapter "github.com/lablia/docflow/pkg/adapters/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the agent engine in server mode, exposing sessions, turns and
the agent catalog as a JSON API over HTTP. Prometheus metrics are served
on /metrics.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, logger := mustSetup(cmd, true)

		if addr, _ := cmd.Flags().GetString("addr"); cmd.Flags().Changed("addr") {
			cfg.HTTP.Addr = addr
		}

		app, err := cli.NewApp(cfg, logger)
		if err != nil {
			fmt.Printf("Error initializing docflow: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		server := httpadapter.NewServer(app.Runner, app.Registry, cfg.App.Name,
			httpadapter.WithLogger(logger))

		srv := &http.Server{
			Addr:    cfg.HTTP.Addr,
			Handler: server.Handler(),
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("http server starting", "addr", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			logger.Error("server error", "error", err)
			os.Exit(1)

		case sig := <-shutdown:
			logger.Info("shutdown started", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "error", err)
				if err := srv.Close(); err != nil {
					logger.Error("error closing server", "error", err)
				}
			}
			logger.Info("http server stopped")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
}

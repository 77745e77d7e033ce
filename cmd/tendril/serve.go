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

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/cli"
	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/internal/presentation/tui"
	httpadapter "github.com/aretw0/tendril/pkg/adapters/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the demo notes app as an HTTP server",
	Long: `Starts the demo notes app and exposes it over HTTP: state reads,
dispatch by action name and an SSE stream of committed states.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		listen, _ := cmd.Flags().GetString("listen")

		cfg, err := cli.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if listen != "" {
			cfg.Listen = listen
		}

		logger := logging.New(cfg.Level())

		hub := httpadapter.NewHub[cli.Notes]()
		app, reg, closeStore, err := cli.NewNotesApp(cfg, logger,
			tendril.WithRenderer[cli.Notes](hub),
		)
		if err != nil {
			return err
		}
		defer closeStore()
		defer app.Close()

		srv := &http.Server{
			Addr:    cfg.Listen,
			Handler: httpadapter.NewHandler[cli.Notes](app, reg, hub),
		}

		serverErrors := make(chan error, 1)
		go func() {
			tui.PrintBanner()
			logger.Info("starting server", "address", srv.Addr, "store", cfg.Store.Backend)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("shutting down", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				srv.Close()
				return fmt.Errorf("could not stop server gracefully: %w", err)
			}
			return nil
		}
	},
}

func init() {
	serveCmd.Flags().String("listen", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

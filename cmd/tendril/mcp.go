package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/tendril/internal/cli"
	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the demo notes app as an MCP server so AI agents can read
state and dispatch actions as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		cfg, err := cli.LoadConfig(configPath)
		if err != nil {
			return err
		}

		// Logs must stay off Stdout so they don't corrupt JSON-RPC.
		logger := logging.New(cfg.Level())

		app, reg, closeStore, err := cli.NewNotesApp(cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()
		defer app.Close()

		srv := mcp.NewServer[cli.Notes](app, reg, logger)

		switch transport {
		case "stdio":
			log.SetOutput(os.Stderr)
			logger.Info("starting MCP server (stdio)")
			return srv.ServeStdio()

		case "sse":
			logger.Info("starting MCP server (SSE)", "port", port)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil && err != http.ErrServerClosed {
				return err
			}
			logger.Info("MCP server stopped gracefully")
			return nil

		default:
			return cmd.Usage()
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8090, "Port to listen on (only for SSE)")
}

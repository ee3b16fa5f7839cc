package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/averycross/waygate"
	mcpAdapter "github.com/averycross/waygate/pkg/adapters/mcp"
	"github.com/averycross/waygate/pkg/adapters/memory"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the engine as an MCP server so agents can drive relocations as tools.

Supported Transports:
- stdio (default): Standard Input/Output. Ideal for local process integration.
- sse: Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, tun, logger, err := loadSetup(cmd)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		scenarioPath, _ := cmd.Flags().GetString("scenario")
		data := []byte(defaultScenario)
		if scenarioPath != "" {
			if data, err = os.ReadFile(scenarioPath); err != nil {
				return err
			}
		}
		world, loader, _, err := memory.ParseScenario(data)
		if err != nil {
			return err
		}

		recorder := memory.NewRecorder(memory.WithClock(world))
		eng, err := waygate.New(world, loader,
			waygate.WithLogger(logger),
			waygate.WithTunables(tun),
			waygate.WithVisitRecorder(recorder),
		)
		if err != nil {
			return err
		}

		srv := mcpAdapter.NewServer(eng, recorder)

		switch transport {
		case "stdio":
			// Keep logs off Stdout so JSON-RPC stays clean.
			log.SetOutput(os.Stderr)
			logger.Info("starting waygate MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			logger.Info("starting waygate MCP server (sse)", "port", port)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil && err != http.ErrServerClosed {
				return err
			}
			logger.Info("MCP server stopped")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s (supported: stdio, sse)", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
	mcpCmd.Flags().String("scenario", "", "Path to a scenario YAML describing the simulated world")
}

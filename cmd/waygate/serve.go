package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/averycross/waygate"
	httpAdapter "github.com/averycross/waygate/pkg/adapters/http"
	"github.com/averycross/waygate/pkg/adapters/memory"
	redisAdapter "github.com/averycross/waygate/pkg/adapters/redis"
	"github.com/averycross/waygate/pkg/observability"
	"github.com/averycross/waygate/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP control surface",
	Long: `Starts the engine over a scenario world and exposes the transition API,
visit bookkeeping and Prometheus metrics over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, tun, logger, err := loadSetup(cmd)
		if err != nil {
			return err
		}
		port, _ := cmd.Flags().GetString("port")
		if port == "" {
			port = fmt.Sprintf("%d", cfg.Server.Port)
		}

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

		metrics := observability.NewMetrics()

		var recorder ports.VisitRecorder = memory.NewRecorder(memory.WithClock(world))
		engineOpts := []waygate.Option{
			waygate.WithLogger(logger),
			waygate.WithTunables(tun),
			waygate.WithLifecycleHooks(metrics.Hooks()),
		}
		if cfg.Redis.Enabled {
			client := backend.NewClient(&backend.Options{
				Addr:     cfg.Redis.Address,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			recorder = redisAdapter.NewFromClient(client)
			engineOpts = append(engineOpts,
				waygate.WithDistributedLock(redisAdapter.NewLocker(client, "waygate:"), cfg.Redis.LockKey))
		}
		engineOpts = append(engineOpts, waygate.WithVisitRecorder(recorder))

		eng, err := waygate.New(world, loader, engineOpts...)
		if err != nil {
			return err
		}

		handler := httpAdapter.NewHandler(eng,
			httpAdapter.WithVisitRecorder(recorder),
			httpAdapter.WithMetricsHandler(metrics.Handler()),
		)

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: handler,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting waygate server", "addr", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("starting shutdown", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("could not stop server: %w", err)
				}
			}
			logger.Info("waygate server stopped")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("scenario", "", "Path to a scenario YAML describing the simulated world")
}

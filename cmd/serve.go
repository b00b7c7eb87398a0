/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/valpere/polyglot/internal/engine"
	"github.com/valpere/polyglot/internal/httpserver"
	"github.com/valpere/polyglot/internal/translator"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the loopback HTTP listener",
	Long: `Run the translation listener on 127.0.0.1.

Signals:
  SIGHUP          restart the listener
  SIGINT/SIGTERM  stop the listener and exit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		providers, err := buildProviders(cfg)
		if err != nil {
			return err
		}
		eng, closeDB, err := buildEngine(cfg, providers, logger)
		if err != nil {
			return err
		}
		defer closeDB()

		pingCtx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		pingProviders(pingCtx, providers, logger)
		cancel()

		tr := httpserver.TranslatorFunc(func(ctx context.Context, req translator.Request) (string, error) {
			out, err := eng.Translate(ctx, req)
			if err != nil {
				logger.Debug().Str("code", engine.CodeOf(err).String()).Msg("translate request ended")
			}
			return out, err
		})

		manager := httpserver.NewManager(httpserver.Config{
			Port:            cfg.HTTPServerPort,
			ShutdownTimeout: cfg.ShutdownTimeout,
			MaxBodyBytes:    cfg.MaxBodyBytes,
			MetricsEnabled:  cfg.MetricsEnabled,
		}, tr, logger)

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		defer signal.Stop(sigs)

		manager.Start()
		if err := awaitListener(cmd.Context(), manager); err != nil {
			_ = manager.Stop(context.Background())
			return err
		}
		logger.Info().Strs("services", eng.Providers()).Msg("ready")

		for sig := range sigs {
			if sig != syscall.SIGHUP {
				logger.Info().Str("signal", sig.String()).Msg("shutting down")
				break
			}
			logger.Info().Msg("restarting listener")
			manager.Start()
			if err := awaitListener(cmd.Context(), manager); err != nil {
				logger.Error().Err(err).Msg("listener failed to restart")
			}
		}

		return manager.Stop(context.Background())
	},
}

func awaitListener(ctx context.Context, m *httpserver.Manager) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := m.WaitReady(ctx)
	return err
}

func init() {
	rootCmd.AddCommand(serveCmd)

	fs := serveCmd.Flags()
	fs.Int("port", httpserver.DefaultPort, "Port on 127.0.0.1")
	fs.Duration("shutdown-timeout", httpserver.DefaultShutdownTimeout, "Graceful shutdown limit before connections are closed")
	fs.Int64("max-body-bytes", 0, "Reject request bodies larger than this (0 = unlimited)")
	fs.Bool("metrics", false, "Expose prometheus metrics on GET /metrics")
	addProviderFlags(fs)
}

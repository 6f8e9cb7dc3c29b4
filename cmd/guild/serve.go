// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/blinklabs-io/guild"
	"github.com/blinklabs-io/guild/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func serveRun(_ *cobra.Command, _ []string, cfg *config.Config) {
	logger := commonRun(cfg)
	if err := run(cfg, logger); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	// Durations were checked when the config was loaded
	shutdownTimeout, _ := cfg.ShutdownTimeoutDuration()
	heightInterval, _ := cfg.HeightIntervalDuration()
	genesisTime, _ := cfg.GenesisTimeValue()
	databasePath := cfg.DatabasePath
	if cfg.DevMode {
		// Dev mode keeps everything in memory
		databasePath = ""
		logger.Warn("dev mode enabled, state will not persist", "component", "node")
	}
	n, err := guild.New(
		guild.NewConfig(
			guild.WithLogger(logger),
			guild.WithDatabasePath(databasePath),
			guild.WithGenesis(cfg.Genesis),
			guild.WithLedgerGenesis(cfg.Ledger),
			guild.WithListenAddress(cfg.ListenAddress()),
			guild.WithHeightInterval(heightInterval),
			guild.WithGenesisTime(genesisTime),
			guild.WithShutdownTimeout(shutdownTimeout),
			// Enable metrics with default prometheus registry
			guild.WithPrometheusRegistry(prometheus.DefaultRegisterer),
			guild.WithPrometheusGatherer(prometheus.DefaultGatherer),
			guild.WithTracing(cfg.Tracing),
			guild.WithTracingStdout(cfg.TracingExporter == "stdout"),
			guild.WithTracingEndpoint(cfg.TracingEndpoint),
		),
	)
	if err != nil {
		return err
	}
	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()
	if err := n.Run(signalCtx); err != nil {
		logger.Error("shutdown errors occurred", "error", err)
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

func serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the governance API",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				slog.Error("no config found in context")
				os.Exit(1)
			}
			serveRun(cmd, args, cfg)
		},
	}
	return cmd
}

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

package guild

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blinklabs-io/guild/api"
	"github.com/blinklabs-io/guild/bank"
	"github.com/blinklabs-io/guild/clock"
	"github.com/blinklabs-io/guild/database"
	"github.com/blinklabs-io/guild/event"
	"github.com/blinklabs-io/guild/governance"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const defaultShutdownTimeout = 30 * time.Second

type Node struct {
	config         Config
	db             *database.Database
	bank           bank.Transferer
	engine         *governance.Engine
	eventBus       *event.EventBus
	heightClock    *clock.HeightClock
	api            *api.Server
	tracerProvider trace.TracerProvider
	heightGauge    prometheus.Gauge
	shutdownFuncs  []func(context.Context) error
	ready          chan struct{}
	done           chan struct{}
	shutdownOnce   sync.Once
}

func New(cfg Config) (*Node, error) {
	n := &Node{
		config:   cfg,
		eventBus: event.NewEventBus(cfg.promRegistry, cfg.logger),
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
	}
	if err := n.configValidate(); err != nil {
		n.eventBus.Stop()
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.promRegistry != nil {
		n.heightGauge = promauto.With(cfg.promRegistry).NewGauge(
			prometheus.GaugeOpts{
				Name: "guild_height",
				Help: "current governance height",
			},
		)
	}
	return n, nil
}

// Run starts the node and blocks until ctx is cancelled or Stop is called
func (n *Node) Run(ctx context.Context) error {
	if err := n.start(ctx); err != nil {
		return errors.Join(err, n.Stop())
	}
	ticks := n.heightClock.Subscribe()
	g, _ := errgroup.WithContext(ctx)
	// The tick channel closes when the height clock stops
	g.Go(func() error {
		for tick := range ticks {
			if n.heightGauge != nil {
				n.heightGauge.Set(float64(tick.Height))
			}
		}
		return nil
	})
	close(n.ready)
	var err error
	select {
	case <-ctx.Done():
		err = n.Stop()
	case <-n.done:
	}
	return errors.Join(err, g.Wait())
}

func (n *Node) start(ctx context.Context) error {
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(ctx); err != nil {
			return err
		}
	}
	// Load database
	db, err := database.New(&database.Config{
		DataDir:      n.config.dataDir,
		Logger:       n.config.logger,
		PromRegistry: n.config.promRegistry,
		Clock:        n.config.clock,
	})
	if db != nil {
		n.db = db
	}
	if err != nil {
		var dbErr database.CommitTimestampError
		if errors.As(err, &dbErr) {
			n.config.logger.Error(
				"database stores disagree on last commit",
				"component", "node",
				"journal_ahead", dbErr.JournalAhead(),
			)
			return fmt.Errorf(
				"database stores are out of sync, restore from backup: %w",
				err,
			)
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	// Transfer primitive
	n.bank = n.config.transferer
	if n.bank == nil {
		n.bank = bank.NewLedger(n.config.logger, n.config.ledgerGenesis)
	}
	// Governance engine
	n.engine, err = governance.NewEngine(governance.EngineConfig{
		Database:       n.db,
		Bank:           n.bank,
		EventBus:       n.eventBus,
		Logger:         n.config.logger,
		PromRegistry:   n.config.promRegistry,
		TracerProvider: n.tracerProvider,
	})
	if err != nil {
		return fmt.Errorf("failed to create governance engine: %w", err)
	}
	// Height clock
	n.heightClock = clock.New(clock.Config{
		Logger:   n.config.logger,
		Clock:    n.config.clock,
		Genesis:  n.config.genesisTime,
		Interval: n.config.heightInterval,
	})
	genesis := n.config.genesis
	genesis.Height = n.heightClock.CurrentHeight()
	created, err := n.engine.Bootstrap(ctx, genesis)
	if err != nil {
		return fmt.Errorf("failed to bootstrap governance state: %w", err)
	}
	if created {
		n.config.logger.Info(
			"bootstrapped governance state",
			"component", "node",
			"admin", genesis.Admin,
			"treasury", genesis.TreasuryIdentity,
			"height", genesis.Height,
		)
	}
	n.heightClock.Start(ctx)
	// API
	n.api = api.New(
		api.Config{
			ListenAddress: n.config.listenAddress,
			PromRegistry:  n.config.promRegistry,
			PromGatherer:  n.config.promGatherer,
		},
		n.engine,
		n.heightClock,
		n.eventBus,
		n.config.logger,
	)
	if err := n.api.Start(ctx); err != nil {
		return err
	}
	return nil
}

// Ready is closed once the node is serving requests
func (n *Node) Ready() <-chan struct{} {
	return n.ready
}

// Engine returns the governance engine. It is nil until the node is ready.
func (n *Node) Engine() *governance.Engine {
	return n.engine
}

// CurrentHeight returns the current governance height
func (n *Node) CurrentHeight() uint64 {
	if n.heightClock == nil {
		return 0
	}
	return n.heightClock.CurrentHeight()
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	shutdownTimeout := defaultShutdownTimeout
	if n.config.shutdownTimeout > 0 {
		shutdownTimeout = n.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	n.config.logger.Debug("starting graceful shutdown")

	// Phase 1: Stop accepting new work
	n.config.logger.Debug("shutdown phase 1: stopping new work")

	if n.api != nil {
		if stopErr := n.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}
	if n.heightClock != nil {
		n.heightClock.Stop()
	}

	// Phase 2: Drain event delivery
	n.config.logger.Debug("shutdown phase 2: stopping event delivery")

	if n.eventBus != nil {
		n.eventBus.Stop()
	}

	// Phase 3: Close database
	n.config.logger.Debug("shutdown phase 3: closing database")

	if n.db != nil {
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("database close: %w", closeErr))
		}
	}

	// Phase 4: Cleanup resources
	n.config.logger.Debug("shutdown phase 4: cleanup resources")

	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	n.config.logger.Debug("graceful shutdown complete")
	close(n.done)
	return err
}

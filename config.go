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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/guild/bank"
	"github.com/blinklabs-io/guild/governance"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	promRegistry    prometheus.Registerer
	promGatherer    prometheus.Gatherer
	logger          *slog.Logger
	clock           clockwork.Clock
	transferer      bank.Transferer
	genesis         governance.Genesis
	ledgerGenesis   map[string]uint64
	dataDir         string
	listenAddress   string
	tracingEndpoint string
	genesisTime     time.Time
	heightInterval  time.Duration
	shutdownTimeout time.Duration
	tracing         bool
	tracingStdout   bool
}

func (n *Node) configValidate() error {
	if n.config.genesis.Admin == "" {
		return errors.New("no governance admin defined")
	}
	if n.config.genesis.TreasuryIdentity == "" {
		return errors.New("no treasury identity defined")
	}
	if err := n.config.genesis.Params.Validate(); err != nil {
		return fmt.Errorf("invalid governance parameters: %w", err)
	}
	if n.config.heightInterval < 0 {
		return fmt.Errorf(
			"invalid height interval: %s",
			n.config.heightInterval,
		)
	}
	if n.config.listenAddress == "" {
		return errors.New("no API listen address defined")
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the Connection config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new guild config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:        slog.New(slog.NewJSONHandler(io.Discard, nil)),
		listenAddress: ":8080",
		genesis: governance.Genesis{
			Params: governance.DefaultParams(),
		},
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithLogger specifies the logger to use. This will default to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithClock specifies the time source for the height clock and database
// commit timestamps
func WithClock(clock clockwork.Clock) ConfigOptionFunc {
	return func(c *Config) {
		c.clock = clock
	}
}

// WithGenesis specifies the governance state written on first start
func WithGenesis(genesis governance.Genesis) ConfigOptionFunc {
	return func(c *Config) {
		c.genesis = genesis
	}
}

// WithLedgerGenesis specifies the starting balances of the in-process
// ledger. It is ignored when a transferer is configured.
func WithLedgerGenesis(balances map[string]uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.ledgerGenesis = balances
	}
}

// WithTransferer specifies the native transfer primitive. The default is an
// in-process ledger.
func WithTransferer(transferer bank.Transferer) ConfigOptionFunc {
	return func(c *Config) {
		c.transferer = transferer
	}
}

// WithListenAddress specifies the API listen address
func WithListenAddress(addr string) ConfigOptionFunc {
	return func(c *Config) {
		c.listenAddress = addr
	}
}

// WithHeightInterval specifies the duration of a single height
func WithHeightInterval(interval time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.heightInterval = interval
	}
}

// WithGenesisTime specifies the start of height 0. The default is the node
// start time.
func WithGenesisTime(genesisTime time.Time) ConfigOptionFunc {
	return func(c *Config) {
		c.genesisTime = genesisTime
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithPrometheusGatherer specifies the source of the metrics served by the API
func WithPrometheusGatherer(gatherer prometheus.Gatherer) ConfigOptionFunc {
	return func(c *Config) {
		c.promGatherer = gatherer
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) OTLP collector
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithTracingEndpoint specifies the OTLP collector URL. The default comes
// from the standard OTEL_EXPORTER_OTLP_* environment variables
func WithTracingEndpoint(endpoint string) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingEndpoint = endpoint
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. The default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}

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

package badger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/prometheus/client_golang/prometheus"
)

const gcDiscardRatio = 0.5

// Store keeps the operation journal and the commit timestamp in badger. It
// runs in memory when no data directory is configured.
type Store struct {
	db               *badger.DB
	logger           *slog.Logger
	promRegistry     prometheus.Registerer
	metrics          *storeMetrics
	gcCancel         context.CancelFunc
	gcWg             sync.WaitGroup
	dataDir          string
	valueLogFileSize int64
	gcInterval       time.Duration
	syncWrites       bool
}

// New opens the journal store
func New(opts ...StoreOptionFunc) (*Store, error) {
	s := &Store{
		valueLogFileSize: DefaultValueLogFileSize,
		gcInterval:       DefaultGcInterval,
		syncWrites:       true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	db, err := badger.Open(s.badgerOptions())
	if err != nil {
		return nil, fmt.Errorf("open journal store: %w", err)
	}
	s.db = db
	if s.promRegistry != nil {
		s.metrics = s.registerMetrics()
	}
	// There is no value log to collect in memory
	if s.dataDir != "" && s.gcInterval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		s.gcCancel = cancel
		s.gcWg.Add(1)
		go s.runValueLogGC(ctx)
	}
	return s, nil
}

func (s *Store) badgerOptions() badger.Options {
	if s.dataDir == "" {
		return badger.DefaultOptions("").
			WithInMemory(true).
			WithLogger(newBadgerLogger(s.logger)).
			WithLoggingLevel(badger.WARNING)
	}
	return badger.DefaultOptions(filepath.Join(s.dataDir, "journal")).
		WithLogger(newBadgerLogger(s.logger)).
		WithLoggingLevel(badger.WARNING).
		WithSyncWrites(s.syncWrites).
		WithValueLogFileSize(s.valueLogFileSize).
		WithCompression(options.Snappy)
}

func (s *Store) runValueLogGC(ctx context.Context) {
	defer s.gcWg.Done()
	ticker := time.NewTicker(s.gcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		// Keep collecting while badger finds files worth rewriting
		for {
			err := s.db.RunValueLogGC(gcDiscardRatio)
			if err == nil {
				continue
			}
			if !errors.Is(err, badger.ErrNoRewrite) {
				s.logger.Warn(
					"journal value log GC failed",
					"component", "database",
					"error", err,
				)
			}
			break
		}
	}
}

// Close stops value log GC and closes the badger database
func (s *Store) Close() error {
	if s.gcCancel != nil {
		s.gcCancel()
		s.gcWg.Wait()
		s.gcCancel = nil
	}
	return s.db.Close()
}

// DataDir returns the directory holding the badger files, or an empty string
// for an in-memory store
func (s *Store) DataDir() string {
	if s.dataDir == "" {
		return ""
	}
	return filepath.Join(s.dataDir, "journal")
}

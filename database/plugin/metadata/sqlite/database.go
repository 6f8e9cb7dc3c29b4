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

package sqlite

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blinklabs-io/guild/database/models"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

const metadataFileName = "metadata.sqlite"

// Store keeps the governance entities (members, proposals, votes,
// delegations, return pools and the treasury state) in SQLite
type Store struct {
	db             *gorm.DB
	logger         *slog.Logger
	mu             sync.Mutex
	dataDir        string
	maxConnections int
	busyTimeout    time.Duration
	closed         bool
}

// New opens the metadata store. It uses a private in-memory database when
// no data directory is configured.
func New(opts ...OptionFunc) (*Store, error) {
	s := &Store{busyTimeout: DefaultBusyTimeout}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	dsn, err := s.dsn()
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(
		sqlite.Open(dsn),
		&gorm.Config{
			Logger:                 gormlogger.Discard,
			SkipDefaultTransaction: true,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("open metadata store: %w", err)
	}
	s.db = db
	if err := s.configure(); err != nil {
		return s, err
	}
	if err := s.migrate(); err != nil {
		return s, fmt.Errorf("migrate metadata store: %w", err)
	}
	return s, nil
}

func (s *Store) dsn() (string, error) {
	if s.dataDir == "" {
		// A unique name per store keeps shared-cache databases apart
		return fmt.Sprintf(
			"file:%s?mode=memory&cache=shared",
			uuid.NewString(),
		), nil
	}
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)&_pragma=busy_timeout(%d)",
		filepath.Join(s.dataDir, metadataFileName),
		s.busyTimeout.Milliseconds(),
	), nil
}

func (s *Store) configure() error {
	if s.maxConnections > 0 {
		sqlDb, err := s.db.DB()
		if err != nil {
			return fmt.Errorf("get database handle: %w", err)
		}
		sqlDb.SetMaxOpenConns(s.maxConnections)
	}
	return s.db.Use(tracing.NewPlugin(tracing.WithoutMetrics()))
}

func (s *Store) migrate() error {
	tables := append([]any{&syncState{}}, models.MigrateModels...)
	for _, model := range tables {
		s.logger.Debug(
			fmt.Sprintf("migrating table for %T", model),
			"component", "database",
		)
		if err := s.db.AutoMigrate(model); err != nil {
			return err
		}
	}
	return nil
}

// Close optimizes and closes an on-disk database. Repeated calls are no-ops
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.dataDir != "" {
		if err := s.db.Exec("PRAGMA optimize").Error; err != nil {
			s.logger.Warn(
				"metadata store optimize failed",
				"component", "database",
				"error", err,
			)
		}
	}
	sqlDb, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get database handle: %w", err)
	}
	return sqlDb.Close()
}

// DB returns the underlying GORM database handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

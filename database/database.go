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

package database

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/guild/database/plugin/blob"
	"github.com/blinklabs-io/guild/database/plugin/metadata"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
)

// Config holds the options for opening a Database
type Config struct {
	PromRegistry   prometheus.Registerer
	Logger         *slog.Logger
	Clock          clockwork.Clock // Source of commit timestamps
	BlobPlugin     string
	MetadataPlugin string
	DataDir        string // An empty value selects in-memory storage
}

// Database pairs the metadata store, which holds the governance entities,
// with the blob store, which holds the operation journal
type Database struct {
	logger   *slog.Logger
	clock    clockwork.Clock
	blob     blob.BlobStore
	metadata metadata.MetadataStore
}

// New opens both stores under cfg.DataDir and checks that they were last
// committed together. On a CommitTimestampError the opened Database is
// returned alongside the error so the caller can inspect or close it.
func New(cfg *Config) (*Database, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	db := &Database{
		logger: cfg.Logger,
		clock:  cfg.Clock,
	}
	if db.logger == nil {
		db.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if db.clock == nil {
		db.clock = clockwork.NewRealClock()
	}
	var err error
	db.metadata, err = metadata.New(cfg.MetadataPlugin, cfg.DataDir, db.logger)
	if err != nil {
		return nil, fmt.Errorf("metadata store: %w", err)
	}
	db.blob, err = blob.New(cfg.BlobPlugin, cfg.DataDir, db.logger, cfg.PromRegistry)
	if err != nil {
		return nil, errors.Join(
			fmt.Errorf("journal store: %w", err),
			db.metadata.Close(),
		)
	}
	if err := db.checkCommitTimestamp(); err != nil {
		return db, err
	}
	db.logger.Debug(
		"database opened",
		"component", "database",
		"data_dir", cfg.DataDir,
	)
	return db, nil
}

// Blob returns the journal store
func (d *Database) Blob() blob.BlobStore {
	return d.blob
}

// Metadata returns the underlying metadata store instance
func (d *Database) Metadata() metadata.MetadataStore {
	return d.metadata
}

// Transaction starts a transaction spanning both stores
func (d *Database) Transaction(readWrite bool) *Txn {
	return newTxn(d, readWrite)
}

// Close closes both stores
func (d *Database) Close() error {
	return errors.Join(d.metadata.Close(), d.blob.Close())
}

func (d *Database) now() time.Time {
	return d.clock.Now()
}

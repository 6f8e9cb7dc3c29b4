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

package blob

import (
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/guild/database/plugin/blob/badger"
	"github.com/blinklabs-io/guild/database/types"
	"github.com/prometheus/client_golang/prometheus"
)

const DefaultPluginName = "badger"

// BlobStore holds the append-only operation journal alongside the commit
// timestamp shared with the metadata store
type BlobStore interface {
	Close() error
	NewTransaction(update bool) types.Txn
	JournalHead(types.Txn) (uint64, error)
	AppendJournal(txn types.Txn, first uint64, entries [][]byte) error
	ScanJournal(
		txn types.Txn,
		from uint64,
		fn func(seq uint64, entry []byte) (bool, error),
	) error
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error
}

// New returns the blob store selected by name
func New(
	pluginName string,
	dataDir string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (BlobStore, error) {
	switch pluginName {
	case "", DefaultPluginName:
		return badger.New(
			badger.WithDataDir(dataDir),
			badger.WithLogger(logger),
			badger.WithPromRegistry(promRegistry),
		)
	default:
		return nil, fmt.Errorf("unknown blob plugin: %s", pluginName)
	}
}

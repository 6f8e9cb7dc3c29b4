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
	"sync"

	"github.com/blinklabs-io/guild/database/types"
)

// Txn pairs a metadata transaction with a journal transaction. Journal
// entries queued during an operation land in the same commit as the entity
// changes they describe.
type Txn struct {
	db          *Database
	metadataTxn types.Txn
	blobTxn     types.Txn
	journal     []types.JournalEntry
	mu          sync.Mutex
	readWrite   bool
	done        bool
}

func newTxn(db *Database, readWrite bool) *Txn {
	return &Txn{
		db:          db,
		metadataTxn: db.Metadata().Transaction(),
		blobTxn:     db.Blob().NewTransaction(readWrite),
		readWrite:   readWrite,
	}
}

// Metadata returns the metadata transaction handle
func (t *Txn) Metadata() types.Txn {
	return t.metadataTxn
}

// Blob returns the journal transaction handle
func (t *Txn) Blob() types.Txn {
	return t.blobTxn
}

// Journal queues an entry for the operation journal. Sequence numbers are
// assigned at commit and queued entries are dropped on rollback.
func (t *Txn) Journal(entry types.JournalEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.journal = append(t.journal, entry)
}

// Do runs fn inside the transaction, committing when it returns nil and
// rolling back otherwise
func (t *Txn) Do(fn func(*Txn) error) error {
	if err := fn(t); err != nil {
		if rbErr := t.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := t.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Commit writes the queued journal entries and the commit timestamp, then
// commits the journal store followed by the metadata store. Read-only
// transactions are simply released.
func (t *Txn) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return nil
	}
	if !t.readWrite {
		return t.discard()
	}
	if err := t.prepare(); err != nil {
		return errors.Join(err, t.discard())
	}
	t.done = true
	// A journal failure leaves both stores untouched
	if err := t.blobTxn.Commit(); err != nil {
		_ = t.metadataTxn.Rollback()
		return fmt.Errorf("journal commit: %w", err)
	}
	if err := t.metadataTxn.Commit(); err != nil {
		// The commit timestamps now disagree, which the next open reports
		t.db.logger.Error(
			"metadata commit failed after journal commit",
			"component", "database",
			"error", err,
		)
		_ = t.metadataTxn.Rollback()
		return fmt.Errorf("metadata commit after journal commit: %w", err)
	}
	return nil
}

func (t *Txn) prepare() error {
	if len(t.journal) > 0 {
		if err := t.db.writeJournal(t.blobTxn, t.journal); err != nil {
			return fmt.Errorf("write journal: %w", err)
		}
	}
	if err := t.db.updateCommitTimestamp(t, t.db.now().UnixMilli()); err != nil {
		return fmt.Errorf("update commit timestamp: %w", err)
	}
	return nil
}

func (t *Txn) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.discard()
}

func (t *Txn) discard() error {
	if t.done {
		return nil
	}
	t.done = true
	t.journal = nil
	var errs []error
	if err := t.blobTxn.Rollback(); err != nil {
		errs = append(errs, fmt.Errorf("journal rollback: %w", err))
	}
	if err := t.metadataTxn.Rollback(); err != nil {
		errs = append(errs, fmt.Errorf("metadata rollback: %w", err))
	}
	return errors.Join(errs...)
}

// Release rolls the transaction back, logging rather than returning any
// error so that it can be deferred
func (t *Txn) Release() {
	if err := t.Rollback(); err != nil {
		t.db.logger.Debug(
			"transaction release failed",
			"component", "database",
			"error", err,
			"read_write", t.readWrite,
		)
	}
}

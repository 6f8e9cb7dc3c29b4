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
	"fmt"

	"github.com/blinklabs-io/gouroboros/cbor"
	"github.com/blinklabs-io/guild/database/types"
)

// writeJournal assigns sequence numbers to the entries and appends them
func (d *Database) writeJournal(
	blobTxn types.Txn,
	entries []types.JournalEntry,
) error {
	head, err := d.Blob().JournalHead(blobTxn)
	if err != nil {
		return err
	}
	encoded := make([][]byte, 0, len(entries))
	for i := range entries {
		entry := entries[i]
		entry.Seq = head + uint64(i) + 1 //nolint:gosec
		entryCbor, err := cbor.Encode(&entry)
		if err != nil {
			return fmt.Errorf("encode journal entry: %w", err)
		}
		encoded = append(encoded, entryCbor)
	}
	return d.Blob().AppendJournal(blobTxn, head+1, encoded)
}

// JournalLength returns the sequence number of the last journal entry
func (d *Database) JournalLength(txn *Txn) (uint64, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.Blob().JournalHead(txn.Blob())
}

// JournalEntries returns up to limit journal entries starting at sequence
// number from. A limit of 0 returns all remaining entries.
func (d *Database) JournalEntries(
	from uint64,
	limit int,
	txn *Txn,
) ([]types.JournalEntry, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	ret := []types.JournalEntry{}
	err := d.Blob().ScanJournal(
		txn.Blob(),
		from,
		func(seq uint64, val []byte) (bool, error) {
			var entry types.JournalEntry
			if _, err := cbor.Decode(val, &entry); err != nil {
				return false, fmt.Errorf("decode journal entry %d: %w", seq, err)
			}
			ret = append(ret, entry)
			return limit <= 0 || len(ret) < limit, nil
		},
	)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

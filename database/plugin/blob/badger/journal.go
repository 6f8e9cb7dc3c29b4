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
	"errors"
	"fmt"

	"github.com/blinklabs-io/guild/database/types"
	badger "github.com/dgraph-io/badger/v4"
)

// JournalHead returns the sequence number of the last stored entry, or 0 for
// an empty journal
func (s *Store) JournalHead(txn types.Txn) (uint64, error) {
	jt, err := s.txn(txn, false)
	if err != nil {
		return 0, err
	}
	return s.journalHead(jt)
}

func (s *Store) journalHead(jt *journalTxn) (uint64, error) {
	val, err := s.get(jt, []byte(journalHeadKey))
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return decodeUint64("journal head", val)
}

// AppendJournal stores encoded entries under consecutive sequence numbers
// starting at first, which must directly follow the current head
func (s *Store) AppendJournal(
	txn types.Txn,
	first uint64,
	entries [][]byte,
) error {
	jt, err := s.txn(txn, true)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	head, err := s.journalHead(jt)
	if err != nil {
		return err
	}
	if first != head+1 {
		return fmt.Errorf(
			"journal gap: append at %d with head %d",
			first,
			head,
		)
	}
	seq := first
	for _, entry := range entries {
		if err := jt.tx.Set(journalKey(seq), entry); err != nil {
			return fmt.Errorf("store journal entry %d: %w", seq, err)
		}
		seq++
	}
	if err := jt.tx.Set([]byte(journalHeadKey), encodeUint64(seq-1)); err != nil {
		return err
	}
	jt.appended += len(entries)
	return nil
}

// ScanJournal calls fn for each stored entry in sequence order starting at
// from. Returning false from fn stops the scan.
func (s *Store) ScanJournal(
	txn types.Txn,
	from uint64,
	fn func(seq uint64, entry []byte) (bool, error),
) error {
	jt, err := s.txn(txn, false)
	if err != nil {
		return err
	}
	prefix := []byte(journalKeyPrefix)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := jt.tx.NewIterator(opts)
	defer iter.Close()
	for iter.Seek(journalKey(from)); iter.ValidForPrefix(prefix); iter.Next() {
		item := iter.Item()
		seq, ok := journalSeq(item.Key())
		if !ok {
			continue
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		more, err := fn(seq, val)
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	return nil
}

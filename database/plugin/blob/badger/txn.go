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

	"github.com/blinklabs-io/guild/database/types"
	badger "github.com/dgraph-io/badger/v4"
)

var (
	errTxnFinished   = errors.New("journal transaction already finished")
	errTxnOtherStore = errors.New("journal transaction belongs to a different store")
	errTxnReadOnly   = errors.New("journal transaction is read-only")
)

// journalTxn wraps a badger transaction. Appended entries are only counted
// once the transaction commits.
type journalTxn struct {
	store    *Store
	tx       *badger.Txn
	update   bool
	appended int
	finished bool
}

func (t *journalTxn) Commit() error {
	if t.finished {
		return nil
	}
	t.finished = true
	if err := t.tx.Commit(); err != nil {
		return err
	}
	if t.appended > 0 && t.store.metrics != nil {
		t.store.metrics.appended.Add(float64(t.appended))
	}
	return nil
}

func (t *journalTxn) Rollback() error {
	if t.finished {
		return nil
	}
	t.finished = true
	t.tx.Discard()
	return nil
}

// txn unwraps a transaction handle and checks that it can be used with this
// store
func (s *Store) txn(txn types.Txn, write bool) (*journalTxn, error) {
	if txn == nil {
		return nil, types.ErrNilTxn
	}
	jt, ok := txn.(*journalTxn)
	if !ok {
		return nil, types.ErrTxnWrongType
	}
	switch {
	case jt.store != s:
		return nil, errTxnOtherStore
	case jt.finished:
		return nil, errTxnFinished
	case write && !jt.update:
		return nil, errTxnReadOnly
	}
	return jt, nil
}

// NewTransaction starts a badger transaction
func (s *Store) NewTransaction(update bool) types.Txn {
	return &journalTxn{
		store:  s,
		tx:     s.db.NewTransaction(update),
		update: update,
	}
}

func (s *Store) get(jt *journalTxn, key []byte) ([]byte, error) {
	item, err := jt.tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, types.ErrBlobKeyNotFound
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

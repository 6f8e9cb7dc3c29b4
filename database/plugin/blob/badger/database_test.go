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
	"testing"

	"github.com/blinklabs-io/guild/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts ...StoreOptionFunc) *Store {
	t.Helper()
	store, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close() //nolint:errcheck
	})
	return store
}

func appendEntries(t *testing.T, store *Store, first uint64, entries ...string) {
	t.Helper()
	txn := store.NewTransaction(true)
	vals := make([][]byte, 0, len(entries))
	for _, e := range entries {
		vals = append(vals, []byte(e))
	}
	require.NoError(t, store.AppendJournal(txn, first, vals))
	require.NoError(t, txn.Commit())
}

func scanAll(t *testing.T, store *Store, from uint64) ([]uint64, []string) {
	t.Helper()
	txn := store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	var seqs []uint64
	var vals []string
	err := store.ScanJournal(txn, from, func(seq uint64, entry []byte) (bool, error) {
		seqs = append(seqs, seq)
		vals = append(vals, string(entry))
		return true, nil
	})
	require.NoError(t, err)
	return seqs, vals
}

func TestJournalKeyOrdering(t *testing.T) {
	key1 := journalKey(1)
	key2 := journalKey(256)
	assert.Less(t, string(key1), string(key2))
	seq, ok := journalSeq(key2)
	require.True(t, ok)
	assert.Equal(t, uint64(256), seq)
	_, ok = journalSeq([]byte("j123"))
	assert.False(t, ok)
}

func TestAppendAndScan(t *testing.T) {
	store := newTestStore(t)
	appendEntries(t, store, 1, "a", "b")
	appendEntries(t, store, 3, "c")

	txn := store.NewTransaction(false)
	head, err := store.JournalHead(txn)
	require.NoError(t, err)
	require.NoError(t, txn.Rollback())
	assert.Equal(t, uint64(3), head)

	seqs, vals := scanAll(t, store, 0)
	assert.Equal(t, []uint64{1, 2, 3}, seqs)
	assert.Equal(t, []string{"a", "b", "c"}, vals)
	seqs, _ = scanAll(t, store, 2)
	assert.Equal(t, []uint64{2, 3}, seqs)
}

func TestScanStops(t *testing.T) {
	store := newTestStore(t)
	appendEntries(t, store, 1, "a", "b", "c")
	txn := store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	var seen int
	err := store.ScanJournal(txn, 1, func(uint64, []byte) (bool, error) {
		seen++
		return seen < 2, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, seen)
}

func TestAppendRejectsGap(t *testing.T) {
	store := newTestStore(t)
	appendEntries(t, store, 1, "a")
	txn := store.NewTransaction(true)
	defer txn.Rollback() //nolint:errcheck
	require.ErrorContains(t, store.AppendJournal(txn, 3, [][]byte{[]byte("c")}), "journal gap")
}

func TestRollbackDiscardsAppend(t *testing.T) {
	store := newTestStore(t)
	txn := store.NewTransaction(true)
	require.NoError(t, store.AppendJournal(txn, 1, [][]byte{[]byte("a")}))
	require.NoError(t, txn.Rollback())
	// Using a finished transaction fails
	require.ErrorIs(t, store.AppendJournal(txn, 1, [][]byte{[]byte("a")}), errTxnFinished)

	seqs, _ := scanAll(t, store, 0)
	assert.Empty(t, seqs)
}

func TestTxnValidation(t *testing.T) {
	store := newTestStore(t)
	other := newTestStore(t)
	_, err := store.JournalHead(nil)
	require.ErrorIs(t, err, types.ErrNilTxn)

	txn := other.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	_, err = store.JournalHead(txn)
	require.ErrorIs(t, err, errTxnOtherStore)

	ro := store.NewTransaction(false)
	defer ro.Rollback() //nolint:errcheck
	require.ErrorIs(t, store.AppendJournal(ro, 1, [][]byte{[]byte("a")}), errTxnReadOnly)
	require.ErrorIs(t, store.SetCommitTimestamp(1, ro), errTxnReadOnly)
}

func TestCommitTimestamp(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetCommitTimestamp()
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
	txn := store.NewTransaction(true)
	require.NoError(t, store.SetCommitTimestamp(1700000000000, txn))
	require.NoError(t, txn.Commit())
	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000000), ts)
	require.ErrorIs(t, store.SetCommitTimestamp(1, nil), types.ErrNilTxn)
}

func TestOnDiskWithMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	dataDir := t.TempDir()
	store, err := New(
		WithDataDir(dataDir),
		WithPromRegistry(registry),
		WithValueLogFileSize(1<<20),
		WithSyncWrites(false),
	)
	require.NoError(t, err)
	appendEntries(t, store, 1, "a", "b")
	assert.InDelta(t, 2, testutil.ToFloat64(store.metrics.appended), 0)
	count, err := testutil.GatherAndCount(
		registry,
		"guild_journal_head_seq",
		"guild_journal_size_bytes",
	)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.NoError(t, store.Close())

	// Entries survive a reopen
	store = newTestStore(t, WithDataDir(dataDir), WithGcInterval(0))
	assert.Equal(t, dataDir+"/journal", store.DataDir())
	seqs, _ := scanAll(t, store, 1)
	assert.Equal(t, []uint64{1, 2}, seqs)
}

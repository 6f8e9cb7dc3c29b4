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

package database_test

import (
	"errors"
	"testing"
	"time"

	"github.com/blinklabs-io/guild/database"
	"github.com/blinklabs-io/guild/database/models"
	"github.com/blinklabs-io/guild/database/types"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDatabase(t *testing.T, cfg *database.Config) *database.Database {
	t.Helper()
	db, err := database.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close() //nolint:errcheck
	})
	return db
}

// TestInMemorySqliteMultipleTransaction tests that our sqlite connection allows multiple
// concurrent read transactions when using in-memory mode. This requires special URI flags, and
// this is mostly making sure that we don't lose them
func TestInMemorySqliteMultipleTransaction(t *testing.T) {
	db := newTestDatabase(t, nil)
	require.NoError(t, db.Metadata().SetMember(&models.Member{Identity: "alice"}, nil))
	txn1 := db.Transaction(false)
	defer txn1.Release()
	member, err := db.Metadata().GetMember("alice", txn1.Metadata())
	require.NoError(t, err)
	require.NotNil(t, member)
	txn2 := db.Transaction(false)
	defer txn2.Release()
	member, err = db.Metadata().GetMember("alice", txn2.Metadata())
	require.NoError(t, err)
	require.NotNil(t, member)
}

func TestTxnDoCommitsBothStores(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.UnixMilli(1_700_000_000_000))
	db := newTestDatabase(t, &database.Config{Clock: clock})
	err := db.Transaction(true).Do(func(txn *database.Txn) error {
		if err := db.Metadata().SetMember(&models.Member{Identity: "alice", VotingPower: 10}, txn.Metadata()); err != nil {
			return err
		}
		txn.Journal(types.JournalEntry{
			Height:    1,
			Caller:    "alice",
			Operation: "contribute",
			Amount:    10,
		})
		return nil
	})
	require.NoError(t, err)

	member, err := db.Metadata().GetMember("alice", nil)
	require.NoError(t, err)
	require.NotNil(t, member)
	entries, err := db.JournalEntries(0, 0, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(1), entries[0].Seq)
	assert.Equal(t, "contribute", entries[0].Operation)
	assert.Equal(t, uint64(10), entries[0].Amount)

	metadataTs, err := db.Metadata().GetCommitTimestamp()
	require.NoError(t, err)
	blobTs, err := db.Blob().GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_000_000_000), metadataTs)
	assert.Equal(t, metadataTs, blobTs)
}

func TestTxnDoRollsBackOnError(t *testing.T) {
	db := newTestDatabase(t, nil)
	testErr := errors.New("boom")
	err := db.Transaction(true).Do(func(txn *database.Txn) error {
		if err := db.Metadata().SetMember(&models.Member{Identity: "alice"}, txn.Metadata()); err != nil {
			return err
		}
		txn.Journal(types.JournalEntry{Operation: "contribute"})
		return testErr
	})
	require.ErrorIs(t, err, testErr)

	member, err := db.Metadata().GetMember("alice", nil)
	require.NoError(t, err)
	assert.Nil(t, member)
	length, err := db.JournalLength(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), length)
}

func TestJournalSequence(t *testing.T) {
	db := newTestDatabase(t, nil)
	for i := range 5 {
		err := db.Transaction(true).Do(func(txn *database.Txn) error {
			txn.Journal(types.JournalEntry{
				Height:    uint64(i),
				Operation: "deposit",
				Amount:    uint64(i * 100),
			})
			return nil
		})
		require.NoError(t, err)
	}
	length, err := db.JournalLength(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), length)

	entries, err := db.JournalEntries(3, 2, nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, uint64(3), entries[0].Seq)
	assert.Equal(t, uint64(200), entries[0].Amount)
	assert.Equal(t, uint64(4), entries[1].Seq)
}

func TestCommitTimestampMismatch(t *testing.T) {
	dataDir := t.TempDir()
	db, err := database.New(&database.Config{DataDir: dataDir})
	require.NoError(t, err)
	require.NoError(t, db.Transaction(true).Do(func(txn *database.Txn) error {
		return db.Metadata().SetMember(&models.Member{Identity: "alice"}, txn.Metadata())
	}))
	// Move the metadata store ahead of the blob store
	require.NoError(t, db.Metadata().SetCommitTimestamp(1, nil))
	require.NoError(t, db.Close())

	db, err = database.New(&database.Config{DataDir: dataDir})
	require.NotNil(t, db)
	defer db.Close() //nolint:errcheck
	var tsErr database.CommitTimestampError
	require.ErrorAs(t, err, &tsErr)
	assert.Equal(t, int64(1), tsErr.MetadataTimestamp)
	assert.True(t, tsErr.JournalAhead())
}

func TestUnknownPlugin(t *testing.T) {
	_, err := database.New(&database.Config{MetadataPlugin: "mysql"})
	require.Error(t, err)
	_, err = database.New(&database.Config{BlobPlugin: "gcs"})
	require.Error(t, err)
}

func TestCommitTimestampErrorMessage(t *testing.T) {
	err := database.CommitTimestampError{
		MetadataTimestamp: 1_700_000_000_000,
		BlobTimestamp:     0,
	}
	assert.Contains(t, err.Error(), "2023-11-14T22:13:20Z")
	assert.Contains(t, err.Error(), "journal at never")
	assert.False(t, err.JournalAhead())
}

func TestReadOnlyCommitReleases(t *testing.T) {
	db := newTestDatabase(t, nil)
	txn := db.Transaction(false)
	txn.Journal(types.JournalEntry{Operation: "deposit"})
	require.NoError(t, txn.Commit())
	length, err := db.JournalLength(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), length)
}

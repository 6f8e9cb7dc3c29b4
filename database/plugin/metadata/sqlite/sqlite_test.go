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
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/blinklabs-io/guild/database/models"
	"github.com/blinklabs-io/guild/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New()
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close() //nolint:errcheck
	})
	return store
}

type otherTxn struct{}

func (otherTxn) Commit() error   { return nil }
func (otherTxn) Rollback() error { return nil }

func TestInMemoryStoresAreIsolated(t *testing.T) {
	store1 := setupTestStore(t)
	store2 := setupTestStore(t)
	require.NoError(t, store1.SetMember(&models.Member{Identity: "alice"}, nil))
	member, err := store2.GetMember("alice", nil)
	require.NoError(t, err)
	assert.Nil(t, member)
}

func TestOnDiskStore(t *testing.T) {
	dataDir := t.TempDir()
	store, err := New(WithDataDir(dataDir))
	require.NoError(t, err)
	require.NoError(t, store.SetMember(
		&models.Member{Identity: "alice", VotingPower: 5},
		nil,
	))
	require.NoError(t, store.Close())

	store, err = New(WithDataDir(dataDir))
	require.NoError(t, err)
	defer store.Close() //nolint:errcheck
	member, err := store.GetMember("alice", nil)
	require.NoError(t, err)
	require.NotNil(t, member)
	assert.Equal(t, types.Uint64(5), member.VotingPower)
}

func TestResolveDBWrongTxnType(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.GetMember("alice", otherTxn{})
	require.ErrorIs(t, err, types.ErrTxnWrongType)

	// A transaction from a different store is rejected too
	otherStore := setupTestStore(t)
	txn := otherStore.Transaction()
	defer txn.Rollback() //nolint:errcheck
	_, err = store.GetMember("alice", txn)
	require.ErrorIs(t, err, types.ErrTxnWrongType)
}

func TestTransactionRollback(t *testing.T) {
	store := setupTestStore(t)
	txn := store.Transaction()
	require.NoError(t, store.SetMember(&models.Member{Identity: "alice"}, txn))
	member, err := store.GetMember("alice", txn)
	require.NoError(t, err)
	require.NotNil(t, member)
	require.NoError(t, txn.Rollback())
	// Finishing twice is harmless
	require.NoError(t, txn.Commit())

	member, err = store.GetMember("alice", nil)
	require.NoError(t, err)
	assert.Nil(t, member)
}

func TestTransactionCommit(t *testing.T) {
	store := setupTestStore(t)
	txn := store.Transaction()
	require.NoError(t, store.SetMember(&models.Member{Identity: "alice"}, txn))
	require.NoError(t, txn.Commit())

	member, err := store.GetMember("alice", nil)
	require.NoError(t, err)
	require.NotNil(t, member)
}

func TestCommitTimestamp(t *testing.T) {
	store := setupTestStore(t)
	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(0), ts)
	require.NoError(t, store.SetCommitTimestamp(1234, nil))
	require.NoError(t, store.SetCommitTimestamp(5678, nil))
	ts, err = store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(5678), ts)
}

func TestGovernanceState(t *testing.T) {
	store := setupTestStore(t)

	state, err := store.GetGovernanceState(nil)
	require.NoError(t, err)
	assert.Nil(t, state)

	state = models.NewGovernanceState()
	state.Admin = "admin"
	state.TreasuryIdentity = "treasury"
	state.Balance = math.MaxUint64
	require.NoError(t, store.SetGovernanceState(state, nil))

	state.EmergencyActive = true
	state.NextProposalID = 7
	require.NoError(t, store.SetGovernanceState(state, nil))

	got, err := store.GetGovernanceState(nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "admin", got.Admin)
	assert.Equal(t, types.Uint64(math.MaxUint64), got.Balance)
	assert.True(t, got.EmergencyActive)
	assert.Equal(t, uint64(7), got.NextProposalID)

	var count int64
	require.NoError(t, store.DB().Model(&models.GovernanceState{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGovernanceParams(t *testing.T) {
	store := setupTestStore(t)

	params, err := store.GetGovernanceParams(nil)
	require.NoError(t, err)
	assert.Nil(t, params)

	params = models.NewGovernanceParams()
	params.ProposalFee = 100_000
	params.QuorumThreshold = 2000
	require.NoError(t, store.SetGovernanceParams(params, nil))

	// Replacing the record clears fields that are not set
	replacement := &models.GovernanceParams{QuorumThreshold: 3000}
	require.NoError(t, store.SetGovernanceParams(replacement, nil))

	got, err := store.GetGovernanceParams(nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, types.Uint64(0), got.ProposalFee)
	assert.Equal(t, uint32(3000), got.QuorumThreshold)
}

func TestMembers(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.SetMember(&models.Member{
		Identity:         "bob",
		VotingPower:      10,
		TotalContributed: 10,
		JoinedAt:         5,
	}, nil))
	alice := &models.Member{
		Identity:         "alice",
		VotingPower:      20,
		TotalContributed: 20,
		JoinedAt:         3,
	}
	require.NoError(t, store.SetMember(alice, nil))
	require.NotZero(t, alice.ID)

	alice.VotingPower = 15
	alice.LastWithdrawal = 9
	require.NoError(t, store.SetMember(alice, nil))

	got, err := store.GetMember("alice", nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, types.Uint64(15), got.VotingPower)
	assert.Equal(t, uint64(9), got.LastWithdrawal)

	members, err := store.GetMembers(nil)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "alice", members[0].Identity)
	assert.Equal(t, "bob", members[1].Identity)

	// A second record for the same identity is rejected
	require.Error(t, store.SetMember(&models.Member{Identity: "bob"}, nil))
}

func TestProposalsAndVotes(t *testing.T) {
	store := setupTestStore(t)

	for id := uint64(1); id <= 3; id++ {
		require.NoError(t, store.SetProposal(&models.Proposal{
			ID:          id,
			Proposer:    "alice",
			Title:       "title",
			Description: "description",
			Amount:      1000,
			Target:      "target",
			Status:      0,
		}, nil))
	}
	finalizedAt := uint64(50)
	require.NoError(t, store.SetProposal(&models.Proposal{
		ID:          2,
		Proposer:    "alice",
		Title:       "title",
		Description: "description",
		Amount:      1000,
		Target:      "target",
		Status:      1,
		FinalizedAt: &finalizedAt,
	}, nil))

	proposal, err := store.GetProposal(2, nil)
	require.NoError(t, err)
	require.NotNil(t, proposal)
	assert.Equal(t, uint8(1), proposal.Status)
	require.NotNil(t, proposal.FinalizedAt)
	assert.Equal(t, uint64(50), *proposal.FinalizedAt)

	missing, err := store.GetProposal(99, nil)
	require.NoError(t, err)
	assert.Nil(t, missing)

	all, err := store.GetProposals(nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	active := uint8(0)
	filtered, err := store.GetProposals(&active, nil)
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	assert.Equal(t, uint64(1), filtered[0].ID)
	assert.Equal(t, uint64(3), filtered[1].ID)

	require.NoError(t, store.AddVote(&models.Vote{
		ProposalID: 1,
		Voter:      "alice",
		Amount:     10,
		Support:    true,
	}, nil))
	require.NoError(t, store.AddVote(&models.Vote{
		ProposalID: 1,
		Voter:      "bob",
		Amount:     5,
	}, nil))
	require.Error(t, store.AddVote(&models.Vote{
		ProposalID: 1,
		Voter:      "alice",
		Amount:     1,
	}, nil))

	vote, err := store.GetVote(1, "alice", nil)
	require.NoError(t, err)
	require.NotNil(t, vote)
	assert.True(t, vote.Support)
	vote, err = store.GetVote(2, "alice", nil)
	require.NoError(t, err)
	assert.Nil(t, vote)

	votes, err := store.GetVotes(1, nil)
	require.NoError(t, err)
	require.Len(t, votes, 2)
	assert.Equal(t, "alice", votes[0].Voter)
	assert.Equal(t, "bob", votes[1].Voter)
}

func TestDelegations(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.SetDelegation(&models.Delegation{
		Delegator: "alice",
		Delegate:  "carol",
		Amount:    30,
		Expiry:    100,
	}, nil))
	bob := &models.Delegation{
		Delegator: "bob",
		Delegate:  "carol",
		Amount:    20,
		Expiry:    200,
	}
	require.NoError(t, store.SetDelegation(bob, nil))
	bob.LockedUntil = 150
	require.NoError(t, store.SetDelegation(bob, nil))

	got, err := store.GetDelegation("bob", nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint64(150), got.LockedUntil)

	received, err := store.GetDelegationsByDelegate("carol", nil)
	require.NoError(t, err)
	require.Len(t, received, 2)

	require.NoError(t, store.DeleteDelegation("alice", nil))
	got, err = store.GetDelegation("alice", nil)
	require.NoError(t, err)
	assert.Nil(t, got)
	received, err = store.GetDelegationsByDelegate("carol", nil)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, "bob", received[0].Delegator)
}

func TestReturnPoolsAndClaims(t *testing.T) {
	store := setupTestStore(t)

	pool, err := store.GetReturnPool(1, nil)
	require.NoError(t, err)
	assert.Nil(t, pool)

	require.NoError(t, store.SetReturnPool(&models.ReturnPool{
		ProposalID:  1,
		TotalAmount: 1_000_000,
		TotalWeight: 600,
		WindowStart: 10,
		WindowEnd:   20,
	}, nil))
	require.NoError(t, store.SetReturnPool(&models.ReturnPool{
		ProposalID:        1,
		TotalAmount:       1_000_000,
		DistributedAmount: 500_000,
		TotalWeight:       600,
		WindowStart:       10,
		WindowEnd:         20,
	}, nil))
	pool, err = store.GetReturnPool(1, nil)
	require.NoError(t, err)
	require.NotNil(t, pool)
	assert.Equal(t, types.Uint64(500_000), pool.DistributedAmount)

	for _, member := range []string{"bob", "alice"} {
		require.NoError(t, store.AddMemberClaim(&models.MemberClaim{
			PoolID:  1,
			Member:  member,
			Amount:  100,
			Claimed: true,
		}, nil))
	}
	require.Error(t, store.AddMemberClaim(&models.MemberClaim{
		PoolID: 1,
		Member: "bob",
	}, nil))

	claim, err := store.GetMemberClaim(1, "alice", nil)
	require.NoError(t, err)
	require.NotNil(t, claim)
	assert.True(t, claim.Claimed)

	claims, err := store.GetMemberClaims(1, nil)
	require.NoError(t, err)
	require.Len(t, claims, 2)
	assert.Equal(t, "bob", claims[0].Member)
	assert.Equal(t, "alice", claims[1].Member)
}

func TestEmergencyAdmins(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.AddEmergencyAdmin(&models.EmergencyAdmin{Identity: "ops"}, nil))
	require.NoError(t, store.AddEmergencyAdmin(&models.EmergencyAdmin{Identity: "ops"}, nil))
	require.NoError(t, store.AddEmergencyAdmin(&models.EmergencyAdmin{Identity: "admin"}, nil))

	admins, err := store.GetEmergencyAdmins(nil)
	require.NoError(t, err)
	require.Len(t, admins, 2)

	admin, err := store.GetEmergencyAdmin("ops", nil)
	require.NoError(t, err)
	require.NotNil(t, admin)

	require.NoError(t, store.DeleteEmergencyAdmin("ops", nil))
	admin, err = store.GetEmergencyAdmin("ops", nil)
	require.NoError(t, err)
	assert.Nil(t, admin)
}

func TestOptions(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := &Store{busyTimeout: DefaultBusyTimeout}
	for _, opt := range []OptionFunc{
		WithDataDir("/tmp/test"),
		WithLogger(logger),
		WithMaxConnections(10),
		WithBusyTimeout(0),
	} {
		opt(s)
	}
	assert.Equal(t, "/tmp/test", s.dataDir)
	assert.Same(t, logger, s.logger)
	assert.Equal(t, 10, s.maxConnections)
	// A zero timeout keeps the default
	assert.Equal(t, DefaultBusyTimeout, s.busyTimeout)
	WithBusyTimeout(time.Second)(s)
	WithDataDir(t.TempDir())(s)
	dsn, err := s.dsn()
	require.NoError(t, err)
	assert.Contains(t, dsn, "busy_timeout(1000)")
}

func TestCloseTwice(t *testing.T) {
	store, err := New(WithDataDir(t.TempDir()), WithMaxConnections(2))
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}

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

package governance_test

import (
	"testing"

	"github.com/blinklabs-io/guild/governance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The emergency flag blocks mutations until an emergency admin clears it
func TestEmergencyState(t *testing.T) {
	env := newTestEnv(t)
	env.contribute(t, "alice", 2_000_000, 1)
	env.deposit(t, 10_000_000, 1)
	_, err := env.engine.SetEmergencyState(env.ctx, op("alice", 2), true)
	require.ErrorIs(t, err, governance.ErrNotAuthorized)
	// The primary admin is not an emergency admin
	_, err = env.engine.SetEmergencyState(env.ctx, op(testAdmin, 2), true)
	require.ErrorIs(t, err, governance.ErrNotAuthorized)
	active, err := env.engine.SetEmergencyState(env.ctx, op(testGuardian, 3), true)
	require.NoError(t, err)
	assert.True(t, active)
	assert.True(t, env.treasury(t).EmergencyActive)

	_, err = env.engine.CreateProposal(env.ctx, op("alice", 4), governance.ProposalRequest{
		Title:       "Seed fund",
		Description: "Invest in the seed round",
		Amount:      2_000_000,
		Target:      testRecipient,
	})
	require.ErrorIs(t, err, governance.ErrEmergencyActive)
	require.ErrorIs(t, env.engine.Contribute(env.ctx, op("alice", 4), 1), governance.ErrEmergencyActive)
	require.ErrorIs(t, env.engine.Deposit(env.ctx, op(testInvestor, 4), 1), governance.ErrEmergencyActive)
	require.ErrorIs(
		t,
		env.engine.UpdateParameters(env.ctx, op(testAdmin, 4), testParams()),
		governance.ErrEmergencyActive,
	)
	// Reads keep working
	_, err = env.engine.Member(env.ctx, "alice", 4)
	require.NoError(t, err)

	active, err = env.engine.SetEmergencyState(env.ctx, op(testGuardian, 5), false)
	require.NoError(t, err)
	assert.False(t, active)
	env.createProposal(t, "alice", 2_000_000, false, 6)
}

func TestEmergencyAdmins(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.engine.AddEmergencyAdmin(env.ctx, op(testGuardian, 1), "alice")
	require.ErrorIs(t, err, governance.ErrNotAuthorized)
	_, err = env.engine.AddEmergencyAdmin(env.ctx, op(testAdmin, 1), testTreasury)
	require.ErrorIs(t, err, governance.ErrInvalidParameter)
	_, err = env.engine.AddEmergencyAdmin(env.ctx, op(testAdmin, 1), "")
	require.ErrorIs(t, err, governance.ErrInvalidParameter)
	added, err := env.engine.AddEmergencyAdmin(env.ctx, op(testAdmin, 1), "alice")
	require.NoError(t, err)
	assert.True(t, added)
	added, err = env.engine.AddEmergencyAdmin(env.ctx, op(testAdmin, 2), "alice")
	require.NoError(t, err)
	assert.False(t, added)

	_, err = env.engine.SetEmergencyState(env.ctx, op("alice", 3), true)
	require.NoError(t, err)
	// Emergency control keeps working during an emergency
	require.NoError(t, env.engine.RemoveEmergencyAdmin(env.ctx, op(testAdmin, 4), testGuardian))
	require.ErrorIs(
		t,
		env.engine.RemoveEmergencyAdmin(env.ctx, op(testAdmin, 4), testGuardian),
		governance.ErrInvalidParameter,
	)
	require.ErrorIs(
		t,
		env.engine.RemoveEmergencyAdmin(env.ctx, op("alice", 4), "alice"),
		governance.ErrNotAuthorized,
	)
	admins, err := env.engine.EmergencyAdmins(env.ctx)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "alice", admins[0].Identity)
	assert.Equal(t, uint64(1), admins[0].AddedAt)
	_, err = env.engine.SetEmergencyState(env.ctx, op(testGuardian, 5), false)
	require.ErrorIs(t, err, governance.ErrNotAuthorized)
}

func TestEmergencyWithdraw(t *testing.T) {
	env := newTestEnv(t)
	env.deposit(t, 4_000_000, 1)
	require.ErrorIs(
		t,
		env.engine.EmergencyWithdraw(env.ctx, op(testAdmin, 2), "vault", 1_000_000),
		governance.ErrNotEmergency,
	)
	_, err := env.engine.SetEmergencyState(env.ctx, op(testGuardian, 3), true)
	require.NoError(t, err)
	require.ErrorIs(
		t,
		env.engine.EmergencyWithdraw(env.ctx, op(testGuardian, 4), "vault", 1_000_000),
		governance.ErrNotAuthorized,
	)
	require.ErrorIs(
		t,
		env.engine.EmergencyWithdraw(env.ctx, op(testAdmin, 4), testTreasury, 1_000_000),
		governance.ErrInvalidParameter,
	)
	require.ErrorIs(
		t,
		env.engine.EmergencyWithdraw(env.ctx, op(testAdmin, 4), "vault", 4_000_001),
		governance.ErrInsufficientFunds,
	)
	require.NoError(t, env.engine.EmergencyWithdraw(env.ctx, op(testAdmin, 4), "vault", 4_000_000))
	assert.Zero(t, env.treasury(t).Balance)
	assert.Equal(t, uint64(4_000_000), env.ledger.Balance("vault"))
}

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

package bank_test

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/blinklabs-io/guild/bank"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransfer(t *testing.T) {
	ledger := bank.NewLedger(nil, map[string]uint64{"alice": 100})
	ctx := context.Background()

	require.NoError(t, ledger.Transfer(ctx, 40, "alice", "treasury"))
	assert.Equal(t, uint64(60), ledger.Balance("alice"))
	assert.Equal(t, uint64(40), ledger.Balance("treasury"))

	err := ledger.Transfer(ctx, 61, "alice", "treasury")
	require.ErrorIs(t, err, bank.ErrInsufficientBalance)
	assert.Equal(t, uint64(60), ledger.Balance("alice"))

	require.ErrorIs(t, ledger.Transfer(ctx, 1, "", "bob"), bank.ErrInvalidIdentity)

	// Self transfers and zero amounts move nothing
	require.NoError(t, ledger.Transfer(ctx, 60, "alice", "alice"))
	require.NoError(t, ledger.Transfer(ctx, 0, "bob", "alice"))
	assert.Equal(t, map[string]uint64{"alice": 60, "treasury": 40}, ledger.Balances())
}

func TestTransferCanceledContext(t *testing.T) {
	ledger := bank.NewLedger(nil, map[string]uint64{"alice": 100})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, ledger.Transfer(ctx, 1, "alice", "bob"), context.Canceled)
	assert.Equal(t, uint64(100), ledger.Balance("alice"))
}

func TestMintOverflow(t *testing.T) {
	ledger := bank.NewLedger(nil, nil)
	require.NoError(t, ledger.Mint("alice", math.MaxUint64))
	require.ErrorIs(t, ledger.Mint("alice", 1), bank.ErrBalanceOverflow)
	require.NoError(t, ledger.Mint("bob", 1))
	require.ErrorIs(
		t,
		ledger.Transfer(context.Background(), 1, "bob", "alice"),
		bank.ErrBalanceOverflow,
	)
	assert.Equal(t, uint64(1), ledger.Balance("bob"))
}

func TestConcurrentTransfers(t *testing.T) {
	ledger := bank.NewLedger(nil, map[string]uint64{"alice": 1000, "bob": 1000})
	var wg sync.WaitGroup
	for range 100 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = ledger.Transfer(context.Background(), 3, "alice", "bob")
		}()
		go func() {
			defer wg.Done()
			_ = ledger.Transfer(context.Background(), 2, "bob", "alice")
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(2000), ledger.Balance("alice")+ledger.Balance("bob"))
	assert.Equal(t, uint64(900), ledger.Balance("alice"))
}

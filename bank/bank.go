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

package bank

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"math"
	"sync"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidIdentity     = errors.New("invalid identity")
	ErrBalanceOverflow     = errors.New("balance overflow")
)

// Transferer moves native currency between identities. A failed transfer
// must not move any funds.
type Transferer interface {
	Transfer(ctx context.Context, amount uint64, from string, to string) error
}

// Ledger is an in-process Transferer holding balances in memory. It stands in
// for the host runtime's native currency.
type Ledger struct {
	logger   *slog.Logger
	balances map[string]uint64
	mu       sync.RWMutex
}

// NewLedger creates a Ledger seeded with the given balances
func NewLedger(logger *slog.Logger, genesis map[string]uint64) *Ledger {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	balances := make(map[string]uint64, len(genesis))
	maps.Copy(balances, genesis)
	return &Ledger{
		logger:   logger,
		balances: balances,
	}
}

// Balance returns the balance held by identity
func (l *Ledger) Balance(identity string) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[identity]
}

// Balances returns a copy of all non-zero balances
func (l *Ledger) Balances() map[string]uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ret := make(map[string]uint64, len(l.balances))
	for identity, balance := range l.balances {
		if balance > 0 {
			ret[identity] = balance
		}
	}
	return ret
}

// Mint credits identity with new funds
func (l *Ledger) Mint(identity string, amount uint64) error {
	if identity == "" {
		return ErrInvalidIdentity
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[identity] > math.MaxUint64-amount {
		return ErrBalanceOverflow
	}
	l.balances[identity] += amount
	return nil
}

// Transfer moves amount from one identity to another
func (l *Ledger) Transfer(
	ctx context.Context,
	amount uint64,
	from string,
	to string,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if from == "" || to == "" {
		return ErrInvalidIdentity
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[from] < amount {
		return fmt.Errorf(
			"%w: %s has %d, needs %d",
			ErrInsufficientBalance,
			from,
			l.balances[from],
			amount,
		)
	}
	if from == to || amount == 0 {
		return nil
	}
	if l.balances[to] > math.MaxUint64-amount {
		return ErrBalanceOverflow
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	l.logger.Debug(
		"transfer",
		"component", "bank",
		"from", from,
		"to", to,
		"amount", amount,
	)
	return nil
}

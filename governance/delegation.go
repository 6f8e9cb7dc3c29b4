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

package governance

import (
	"context"
	"fmt"

	"github.com/blinklabs-io/guild/database/models"
	"github.com/blinklabs-io/guild/database/types"
)

// Delegation is a read-only view of a delegation
type Delegation struct {
	Delegator     string `json:"delegator"`
	Delegate      string `json:"delegate"`
	Amount        uint64 `json:"amount"`
	Expiry        uint64 `json:"expiry"`
	CreatedHeight uint64 `json:"createdHeight"`
	LockedUntil   uint64 `json:"lockedUntil"`
	Active        bool   `json:"active"`
}

func delegationView(d *models.Delegation, height uint64) *Delegation {
	return &Delegation{
		Delegator:     d.Delegator,
		Delegate:      d.Delegate,
		Amount:        uint64(d.Amount),
		Expiry:        d.Expiry,
		CreatedHeight: d.CreatedHeight,
		LockedUntil:   d.LockedUntil,
		Active:        active(d, height),
	}
}

// active reports whether the delegate may use the delegated power
func active(d *models.Delegation, height uint64) bool {
	return height <= d.Expiry
}

// settleable reports whether an expired delegation may be returned to its
// delegator. Power backing a vote stays delegated until the vote's period
// ends.
func settleable(d *models.Delegation, height uint64) bool {
	return height > d.Expiry && height >= d.LockedUntil
}

// settle restores expired delegations made or received by identity
func (c *opContext) settle(identity string) error {
	own, err := c.meta().GetDelegation(identity, c.mtxn())
	if err != nil {
		return fmt.Errorf("load delegation: %w", err)
	}
	if own != nil && settleable(own, c.op.Height) {
		if err := c.release(own, "settle_delegation"); err != nil {
			return err
		}
	}
	received, err := c.meta().GetDelegationsByDelegate(identity, c.mtxn())
	if err != nil {
		return fmt.Errorf("load received delegations: %w", err)
	}
	for i := range received {
		if settleable(&received[i], c.op.Height) {
			if err := c.release(&received[i], "settle_delegation"); err != nil {
				return err
			}
		}
	}
	return nil
}

// release returns the delegated amount to the delegator and removes the
// delegation
func (c *opContext) release(d *models.Delegation, operation string) error {
	delegator, err := c.member(d.Delegator)
	if err != nil {
		return err
	}
	if delegator == nil {
		return fmt.Errorf("delegator %s: %w", d.Delegator, ErrNotFound)
	}
	power, err := checkedAdd(uint64(delegator.VotingPower), uint64(d.Amount))
	if err != nil {
		return err
	}
	delegator.VotingPower = types.Uint64(power)
	if err := c.saveMember(delegator); err != nil {
		return err
	}
	if err := c.meta().DeleteDelegation(d.Delegator, c.mtxn()); err != nil {
		return fmt.Errorf("delete delegation: %w", err)
	}
	c.engine.logger.Debug(
		"released delegation",
		"component", "governance",
		"delegator", d.Delegator,
		"delegate", d.Delegate,
		"amount", uint64(d.Amount),
		"operation", operation,
	)
	return nil
}

// activeReceived returns the unexpired delegations received by identity and
// their total amount
func (c *opContext) activeReceived(
	identity string,
	height uint64,
) ([]models.Delegation, uint64, error) {
	received, err := c.meta().GetDelegationsByDelegate(identity, c.mtxn())
	if err != nil {
		return nil, 0, fmt.Errorf("load received delegations: %w", err)
	}
	var ret []models.Delegation
	var total uint64
	for _, d := range received {
		if !active(&d, height) {
			continue
		}
		if total, err = checkedAdd(total, uint64(d.Amount)); err != nil {
			return nil, 0, err
		}
		ret = append(ret, d)
	}
	return ret, total, nil
}

// Delegate moves amount of the caller's voting power to delegateTo until
// expiry. An existing delegation is refunded before the new one is created.
func (e *Engine) Delegate(
	ctx context.Context,
	op Op,
	delegateTo string,
	amount uint64,
	expiry uint64,
) error {
	return e.mutate(ctx, "delegate", op, 0, func(c *opContext) error {
		member, err := c.member(op.Caller)
		if err != nil {
			return err
		}
		if member == nil {
			return ErrNotAuthorized
		}
		if delegateTo == "" || delegateTo == op.Caller {
			return ErrInvalidDelegate
		}
		delegate, err := c.member(delegateTo)
		if err != nil {
			return err
		}
		if delegate == nil {
			return ErrInvalidDelegate
		}
		if amount == 0 {
			return ErrInvalidAmount
		}
		if expiry <= op.Height {
			return fmt.Errorf("%w: expiry must be after the current height", ErrInvalidParameter)
		}
		if err := c.settle(op.Caller); err != nil {
			return err
		}
		if member, err = c.member(op.Caller); err != nil {
			return err
		}
		existing, err := c.meta().GetDelegation(op.Caller, c.mtxn())
		if err != nil {
			return fmt.Errorf("load delegation: %w", err)
		}
		if existing != nil && existing.LockedUntil > op.Height {
			return ErrTimelockActive
		}
		// Power already cast in an open vote cannot be voted again by a
		// delegate
		if op.Height < member.VoteLockUntil {
			return ErrTimelockActive
		}
		power := uint64(member.VotingPower)
		if existing != nil {
			if power, err = checkedAdd(power, uint64(existing.Amount)); err != nil {
				return err
			}
		}
		if power, err = checkedSub(power, amount); err != nil {
			return err
		}
		member.VotingPower = types.Uint64(power)
		if err := c.saveMember(member); err != nil {
			return err
		}
		d := existing
		if d == nil {
			d = &models.Delegation{Delegator: op.Caller}
		}
		d.Delegate = delegateTo
		d.Amount = types.Uint64(amount)
		d.Expiry = expiry
		d.CreatedHeight = op.Height
		d.LockedUntil = 0
		if err := c.meta().SetDelegation(d, c.mtxn()); err != nil {
			return fmt.Errorf("save delegation: %w", err)
		}
		c.journal("delegate", delegateTo, amount, EventTypeDelegation)
		return nil
	})
}

// RevokeDelegation returns the caller's unexpired delegation
func (e *Engine) RevokeDelegation(ctx context.Context, op Op) error {
	return e.mutate(ctx, "revoke_delegation", op, 0, func(c *opContext) error {
		if err := c.settle(op.Caller); err != nil {
			return err
		}
		existing, err := c.meta().GetDelegation(op.Caller, c.mtxn())
		if err != nil {
			return fmt.Errorf("load delegation: %w", err)
		}
		if existing == nil || !active(existing, op.Height) {
			return ErrNoDelegate
		}
		if existing.LockedUntil > op.Height {
			return ErrTimelockActive
		}
		if err := c.release(existing, "revoke_delegation"); err != nil {
			return err
		}
		c.journal("revoke_delegation", existing.Delegate, uint64(existing.Amount), EventTypeDelegation)
		return nil
	})
}

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

// Member is the settled view of a member at a given height
type Member struct {
	Identity         string      `json:"identity"`
	VotingPower      uint64      `json:"votingPower"`
	DelegatedOut     uint64      `json:"delegatedOut"`
	DelegatedIn      uint64      `json:"delegatedIn"`
	EffectivePower   uint64      `json:"effectivePower"`
	TotalContributed uint64      `json:"totalContributed"`
	JoinedAt         uint64      `json:"joinedAt"`
	LastWithdrawal   uint64      `json:"lastWithdrawal"`
	VoteLockUntil    uint64      `json:"voteLockUntil"`
	Delegation       *Delegation `json:"delegation,omitempty"`
}

// Contribute transfers funds from the caller into the treasury and grants
// the same amount of voting power. The caller is registered as a member on
// the first contribution.
func (e *Engine) Contribute(ctx context.Context, op Op, amount uint64) error {
	return e.mutate(ctx, "contribute", op, 0, func(c *opContext) error {
		if op.Caller == "" {
			return ErrNotAuthorized
		}
		if op.Caller == c.state.TreasuryIdentity {
			return fmt.Errorf("%w: treasury cannot become a member", ErrInvalidParameter)
		}
		if amount == 0 {
			return ErrInvalidAmount
		}
		if err := c.settle(op.Caller); err != nil {
			return err
		}
		member, err := c.member(op.Caller)
		if err != nil {
			return err
		}
		if member == nil {
			member = &models.Member{
				Identity: op.Caller,
				JoinedAt: op.Height,
			}
		}
		power, err := checkedAdd(uint64(member.VotingPower), amount)
		if err != nil {
			return err
		}
		contributed, err := checkedAdd(uint64(member.TotalContributed), amount)
		if err != nil {
			return err
		}
		balance, err := checkedAdd(uint64(c.state.Balance), amount)
		if err != nil {
			return err
		}
		totalPower, err := checkedAdd(uint64(c.state.TotalVotingPower), amount)
		if err != nil {
			return err
		}
		member.VotingPower = types.Uint64(power)
		member.TotalContributed = types.Uint64(contributed)
		if err := c.saveMember(member); err != nil {
			return err
		}
		c.state.Balance = types.Uint64(balance)
		c.state.TotalVotingPower = types.Uint64(totalPower)
		c.markDirty()
		c.journal("contribute", op.Caller, amount, EventTypeMember)
		return c.transfer(amount, op.Caller, c.state.TreasuryIdentity)
	})
}

// WithdrawContribution returns funds to the caller and removes the same
// amount of voting power. Power used in a vote stays locked until the end
// of that vote's voting period.
func (e *Engine) WithdrawContribution(ctx context.Context, op Op, amount uint64) error {
	return e.mutate(ctx, "withdraw_contribution", op, 0, func(c *opContext) error {
		member, err := c.member(op.Caller)
		if err != nil {
			return err
		}
		if member == nil {
			return ErrNotAuthorized
		}
		if amount == 0 {
			return ErrInvalidAmount
		}
		if err := c.settle(op.Caller); err != nil {
			return err
		}
		// Settlement may have restored delegated power
		if member, err = c.member(op.Caller); err != nil {
			return err
		}
		if op.Height < member.VoteLockUntil {
			return ErrTimelockActive
		}
		power, err := checkedSub(uint64(member.VotingPower), amount)
		if err != nil {
			return err
		}
		if amount > c.available() {
			return ErrInsufficientFunds
		}
		totalPower, err := checkedSub(uint64(c.state.TotalVotingPower), amount)
		if err != nil {
			return err
		}
		member.VotingPower = types.Uint64(power)
		member.LastWithdrawal = op.Height
		if err := c.saveMember(member); err != nil {
			return err
		}
		c.state.Balance -= types.Uint64(amount)
		c.state.TotalVotingPower = types.Uint64(totalPower)
		c.markDirty()
		c.journal("withdraw_contribution", op.Caller, amount, EventTypeMember)
		return c.transfer(amount, c.state.TreasuryIdentity, op.Caller)
	})
}

// memberView computes the settled view of a member at height without
// writing anything
func (c *opContext) memberView(m *models.Member, height uint64) (*Member, error) {
	ret := &Member{
		Identity:         m.Identity,
		VotingPower:      uint64(m.VotingPower),
		TotalContributed: uint64(m.TotalContributed),
		JoinedAt:         m.JoinedAt,
		LastWithdrawal:   m.LastWithdrawal,
		VoteLockUntil:    m.VoteLockUntil,
	}
	own, err := c.meta().GetDelegation(m.Identity, c.mtxn())
	if err != nil {
		return nil, fmt.Errorf("load delegation: %w", err)
	}
	if own != nil {
		if settleable(own, height) {
			if ret.VotingPower, err = checkedAdd(ret.VotingPower, uint64(own.Amount)); err != nil {
				return nil, err
			}
		} else {
			ret.DelegatedOut = uint64(own.Amount)
			ret.Delegation = delegationView(own, height)
		}
	}
	_, received, err := c.activeReceived(m.Identity, height)
	if err != nil {
		return nil, err
	}
	ret.DelegatedIn = received
	if ret.EffectivePower, err = checkedAdd(ret.VotingPower, received); err != nil {
		return nil, err
	}
	return ret, nil
}

// Member returns the settled view of a member at height
func (e *Engine) Member(ctx context.Context, identity string, height uint64) (*Member, error) {
	var ret *Member
	err := e.view(ctx, "member", func(c *opContext) error {
		member, err := c.member(identity)
		if err != nil {
			return err
		}
		if member == nil {
			return fmt.Errorf("member %s: %w", identity, ErrNotFound)
		}
		ret, err = c.memberView(member, height)
		return err
	})
	return ret, err
}

// Members returns the settled views of all members ordered by join height
func (e *Engine) Members(ctx context.Context, height uint64) ([]Member, error) {
	var ret []Member
	err := e.view(ctx, "members", func(c *opContext) error {
		members, err := c.meta().GetMembers(c.mtxn())
		if err != nil {
			return fmt.Errorf("load members: %w", err)
		}
		ret = make([]Member, 0, len(members))
		for i := range members {
			view, err := c.memberView(&members[i], height)
			if err != nil {
				return err
			}
			ret = append(ret, *view)
		}
		return nil
	})
	return ret, err
}

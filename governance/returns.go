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
	"math/bits"

	"github.com/blinklabs-io/guild/database/models"
	"github.com/blinklabs-io/guild/database/types"
)

// ReturnPool is a read-only view of a return pool and its claims
type ReturnPool struct {
	ProposalID        uint64  `json:"proposalId"`
	TotalAmount       uint64  `json:"totalAmount"`
	DistributedAmount uint64  `json:"distributedAmount"`
	TotalWeight       uint64  `json:"totalWeight"`
	WindowStart       uint64  `json:"windowStart"`
	WindowEnd         uint64  `json:"windowEnd"`
	CreatedHeight     uint64  `json:"createdHeight"`
	ClosedAt          *uint64 `json:"closedAt,omitempty"`
	Claims            []Claim `json:"claims"`
}

// Claim is a member's claim against a return pool
type Claim struct {
	Member    string `json:"member"`
	Amount    uint64 `json:"amount"`
	ClaimedAt uint64 `json:"claimedAt"`
}

// memberShare computes floor(total * weight / totalWeight) in 128-bit
// arithmetic
func memberShare(total, weight, totalWeight uint64) uint64 {
	if totalWeight == 0 || weight == 0 {
		return 0
	}
	if weight >= totalWeight {
		return total
	}
	hi, lo := bits.Mul64(total, weight)
	quo, _ := bits.Div64(hi, lo, totalWeight)
	return quo
}

// shareOf returns the share of member in pool. The weight of a member is
// the amount of their yes vote on the originating proposal.
func (c *opContext) shareOf(pool *models.ReturnPool, member string) (uint64, error) {
	vote, err := c.meta().GetVote(pool.ProposalID, member, c.mtxn())
	if err != nil {
		return 0, fmt.Errorf("load vote: %w", err)
	}
	if vote == nil || !vote.Support {
		return 0, nil
	}
	return memberShare(
		uint64(pool.TotalAmount),
		uint64(vote.Amount),
		uint64(pool.TotalWeight),
	), nil
}

func (c *opContext) returnPool(id uint64) (*models.ReturnPool, error) {
	pool, err := c.meta().GetReturnPool(id, c.mtxn())
	if err != nil {
		return nil, fmt.Errorf("load return pool: %w", err)
	}
	return pool, nil
}

// CreateReturnPool reserves total of the treasury balance for the yes
// voters of an executed proposal. Only the admin may call it.
func (e *Engine) CreateReturnPool(
	ctx context.Context,
	op Op,
	id uint64,
	total uint64,
) error {
	return e.mutate(ctx, "create_return_pool", op, 0, func(c *opContext) error {
		if !c.isAdmin() {
			return ErrNotAuthorized
		}
		proposal, err := c.proposal(id)
		if err != nil {
			return err
		}
		if ProposalStatus(proposal.Status) != ProposalStatusExecuted {
			return ErrProposalNotActive
		}
		if total == 0 {
			return ErrInvalidAmount
		}
		existing, err := c.returnPool(id)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: return pool %d already exists", ErrInvalidParameter, id)
		}
		if c.available() < total {
			return ErrInsufficientFunds
		}
		votes, err := c.meta().GetVotes(id, c.mtxn())
		if err != nil {
			return fmt.Errorf("load votes: %w", err)
		}
		var weight uint64
		for _, vote := range votes {
			if !vote.Support {
				continue
			}
			if weight, err = checkedAdd(weight, uint64(vote.Amount)); err != nil {
				return err
			}
		}
		windowEnd, err := checkedAdd(op.Height, c.params.TimelockPeriod)
		if err != nil {
			return err
		}
		if err := c.meta().SetReturnPool(
			&models.ReturnPool{
				ProposalID:  id,
				TotalAmount: types.Uint64(total),
				TotalWeight: types.Uint64(weight),
				WindowStart: op.Height,
				WindowEnd:   windowEnd,
				CreatedHeight: op.Height,
			},
			c.mtxn(),
		); err != nil {
			return fmt.Errorf("save return pool: %w", err)
		}
		c.state.Reserved += types.Uint64(total)
		c.markDirty()
		c.journal("create_return_pool", proposalSubject(id), total, EventTypeReturnPool)
		return nil
	})
}

// CalculateMemberShare returns the amount member may claim from the return
// pool of a proposal. It is zero when there is no pool or the member did
// not vote yes.
func (e *Engine) CalculateMemberShare(
	ctx context.Context,
	member string,
	id uint64,
) (uint64, error) {
	var ret uint64
	err := e.view(ctx, "calculate_member_share", func(c *opContext) error {
		pool, err := c.returnPool(id)
		if err != nil || pool == nil {
			return err
		}
		ret, err = c.shareOf(pool, member)
		return err
	})
	return ret, err
}

// ClaimReturns pays the caller's share of a return pool. It returns the
// amount paid.
func (e *Engine) ClaimReturns(ctx context.Context, op Op, id uint64) (uint64, error) {
	var share uint64
	err := e.mutate(ctx, "claim_returns", op, 0, func(c *opContext) error {
		pool, err := c.returnPool(id)
		if err != nil {
			return err
		}
		if pool == nil {
			return ErrNoReturns
		}
		member, err := c.member(op.Caller)
		if err != nil {
			return err
		}
		if member == nil {
			return ErrNotAuthorized
		}
		if pool.ClosedAt != nil || op.Height < pool.WindowStart || op.Height > pool.WindowEnd {
			return ErrProposalExpired
		}
		if share, err = c.shareOf(pool, op.Caller); err != nil {
			return err
		}
		if share == 0 {
			return ErrInvalidAmount
		}
		claim, err := c.meta().GetMemberClaim(id, op.Caller, c.mtxn())
		if err != nil {
			return fmt.Errorf("load claim: %w", err)
		}
		if claim != nil {
			return ErrAlreadyClaimed
		}
		distributed, err := checkedAdd(uint64(pool.DistributedAmount), share)
		if err != nil || distributed > uint64(pool.TotalAmount) {
			return ErrInsufficientFunds
		}
		if err := c.meta().AddMemberClaim(
			&models.MemberClaim{
				PoolID:    id,
				Member:    op.Caller,
				Amount:    types.Uint64(share),
				Claimed:   true,
				ClaimedAt: op.Height,
			},
			c.mtxn(),
		); err != nil {
			return fmt.Errorf("save claim: %w", err)
		}
		pool.DistributedAmount = types.Uint64(distributed)
		if err := c.meta().SetReturnPool(pool, c.mtxn()); err != nil {
			return fmt.Errorf("save return pool: %w", err)
		}
		c.state.Reserved -= types.Uint64(share)
		c.state.Balance -= types.Uint64(share)
		c.markDirty()
		c.journal("claim_returns", proposalSubject(id), share, EventTypeReturnPool)
		return c.transfer(share, c.state.TreasuryIdentity, op.Caller)
	})
	if err != nil {
		return 0, err
	}
	return share, nil
}

// CloseReturnPool releases the unclaimed remainder of a pool back to the
// available treasury balance after its claim window has ended. Only the
// admin may call it.
func (e *Engine) CloseReturnPool(ctx context.Context, op Op, id uint64) error {
	return e.mutate(ctx, "close_return_pool", op, 0, func(c *opContext) error {
		if !c.isAdmin() {
			return ErrNotAuthorized
		}
		pool, err := c.returnPool(id)
		if err != nil {
			return err
		}
		if pool == nil {
			return ErrNoReturns
		}
		if pool.ClosedAt != nil {
			return fmt.Errorf("%w: return pool %d already closed", ErrInvalidParameter, id)
		}
		if op.Height <= pool.WindowEnd {
			return ErrTimelockActive
		}
		remaining := uint64(pool.TotalAmount) - uint64(pool.DistributedAmount)
		closedAt := op.Height
		pool.ClosedAt = &closedAt
		if err := c.meta().SetReturnPool(pool, c.mtxn()); err != nil {
			return fmt.Errorf("save return pool: %w", err)
		}
		c.state.Reserved -= types.Uint64(remaining)
		c.markDirty()
		c.journal("close_return_pool", proposalSubject(id), remaining, EventTypeReturnPool)
		return nil
	})
}

// ReturnPool returns a pool with its claims in the order they were made
func (e *Engine) ReturnPool(ctx context.Context, id uint64) (*ReturnPool, error) {
	var ret *ReturnPool
	err := e.view(ctx, "return_pool", func(c *opContext) error {
		pool, err := c.returnPool(id)
		if err != nil {
			return err
		}
		if pool == nil {
			return fmt.Errorf("return pool %d: %w", id, ErrNotFound)
		}
		claims, err := c.meta().GetMemberClaims(id, c.mtxn())
		if err != nil {
			return fmt.Errorf("load claims: %w", err)
		}
		ret = &ReturnPool{
			ProposalID:        pool.ProposalID,
			TotalAmount:       uint64(pool.TotalAmount),
			DistributedAmount: uint64(pool.DistributedAmount),
			TotalWeight:       uint64(pool.TotalWeight),
			WindowStart:       pool.WindowStart,
			WindowEnd:         pool.WindowEnd,
			CreatedHeight:     pool.CreatedHeight,
			ClosedAt:          pool.ClosedAt,
			Claims:            make([]Claim, 0, len(claims)),
		}
		for _, claim := range claims {
			ret.Claims = append(ret.Claims, Claim{
				Member:    claim.Member,
				Amount:    uint64(claim.Amount),
				ClaimedAt: claim.ClaimedAt,
			})
		}
		return nil
	})
	return ret, err
}

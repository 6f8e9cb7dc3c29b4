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
	"strconv"

	"github.com/blinklabs-io/guild/database/models"
	"github.com/blinklabs-io/guild/database/types"
)

// ProposalRequest holds the caller-supplied fields of a new proposal
type ProposalRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Amount        uint64 `json:"amount"`
	Target        string `json:"target"`
	SuperMajority bool   `json:"superMajority"`
}

// Proposal is a read-only view of a proposal
type Proposal struct {
	ID            uint64         `json:"id"`
	Proposer      string         `json:"proposer"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Amount        uint64         `json:"amount"`
	Target        string         `json:"target"`
	Start         uint64         `json:"start"`
	End           uint64         `json:"end"`
	YesVotes      uint64         `json:"yesVotes"`
	NoVotes       uint64         `json:"noVotes"`
	PowerSnapshot uint64         `json:"powerSnapshot"`
	Status        ProposalStatus `json:"status"`
	SuperMajority bool           `json:"superMajority"`
	QuorumReached bool           `json:"quorumReached"`
	Executed      bool           `json:"executed"`
	CreatedHeight uint64         `json:"createdHeight"`
	FinalizedAt   *uint64        `json:"finalizedAt,omitempty"`
	ExecutedAt    *uint64        `json:"executedAt,omitempty"`
}

func proposalView(p *models.Proposal) Proposal {
	return Proposal{
		ID:            p.ID,
		Proposer:      p.Proposer,
		Title:         p.Title,
		Description:   p.Description,
		Amount:        uint64(p.Amount),
		Target:        p.Target,
		Start:         p.Start,
		End:           p.End,
		YesVotes:      uint64(p.YesVotes),
		NoVotes:       uint64(p.NoVotes),
		PowerSnapshot: uint64(p.PowerSnapshot),
		Status:        ProposalStatus(p.Status),
		SuperMajority: p.SuperMajority,
		QuorumReached: p.QuorumReached,
		Executed:      p.Executed,
		CreatedHeight: p.CreatedHeight,
		FinalizedAt:   p.FinalizedAt,
		ExecutedAt:    p.ExecutedAt,
	}
}

func proposalSubject(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// CreateProposal stores a new funding proposal and collects the proposal
// fee from the caller. It returns the new proposal ID.
//
// The fee is credited to the treasury balance: a treasury holding 10M ends at
// 10.1M after a 0.1M fee, not 9.9M as in accountings that treat the fee as a
// treasury expense.
func (e *Engine) CreateProposal(
	ctx context.Context,
	op Op,
	req ProposalRequest,
) (uint64, error) {
	var id uint64
	err := e.mutate(ctx, "create_proposal", op, 0, func(c *opContext) error {
		if req.Title == "" || req.Description == "" {
			return fmt.Errorf("%w: title and description are required", ErrInvalidParameter)
		}
		if req.Target == "" || req.Target == c.state.TreasuryIdentity {
			return fmt.Errorf("%w: invalid target %q", ErrInvalidParameter, req.Target)
		}
		member, err := c.member(op.Caller)
		if err != nil {
			return err
		}
		if member == nil {
			return ErrNotAuthorized
		}
		if req.Amount < uint64(c.params.MinProposalAmount) ||
			req.Amount > uint64(c.params.MaxProposalAmount) {
			return ErrInvalidAmount
		}
		if c.available() < req.Amount {
			return ErrInsufficientFunds
		}
		// Keeps the balance in step with the ledger transfer below
		fee := uint64(c.params.ProposalFee)
		balance, err := checkedAdd(uint64(c.state.Balance), fee)
		if err != nil {
			return err
		}
		start, err := checkedAdd(op.Height, c.params.VotingDelay)
		if err != nil {
			return err
		}
		end, err := checkedAdd(start, c.params.VotingPeriod)
		if err != nil {
			return err
		}
		id = c.state.NextProposalID
		proposal := &models.Proposal{
			ID:            id,
			Proposer:      op.Caller,
			Title:         req.Title,
			Description:   req.Description,
			Amount:        types.Uint64(req.Amount),
			Target:        req.Target,
			Start:         start,
			End:           end,
			PowerSnapshot: c.state.TotalVotingPower,
			Status:        uint8(ProposalStatusActive),
			SuperMajority: req.SuperMajority,
			CreatedHeight: op.Height,
		}
		if err := c.saveProposal(proposal); err != nil {
			return err
		}
		c.state.NextProposalID++
		c.state.Balance = types.Uint64(balance)
		c.markDirty()
		c.journal("create_proposal", proposalSubject(id), req.Amount, EventTypeProposal)
		return c.transfer(fee, op.Caller, c.state.TreasuryIdentity)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ExecuteProposal pays out a passed proposal once its timelock has elapsed.
// Only the admin may call it.
func (e *Engine) ExecuteProposal(ctx context.Context, op Op, id uint64) error {
	return e.mutate(ctx, "execute_proposal", op, 0, func(c *opContext) error {
		if !c.isAdmin() {
			return ErrNotAuthorized
		}
		proposal, err := c.proposal(id)
		if err != nil {
			return err
		}
		status := ProposalStatus(proposal.Status)
		if status == ProposalStatusRejected && !proposal.QuorumReached {
			return ErrQuorumNotReached
		}
		if status != ProposalStatusPassed {
			return ErrProposalNotActive
		}
		unlock, err := checkedAdd(proposal.End, c.params.TimelockPeriod)
		if err != nil || op.Height < unlock {
			return ErrTimelockActive
		}
		amount := uint64(proposal.Amount)
		if c.available() < amount {
			return ErrInsufficientFunds
		}
		executedAt := op.Height
		proposal.Status = uint8(ProposalStatusExecuted)
		proposal.Executed = true
		proposal.ExecutedAt = &executedAt
		if err := c.saveProposal(proposal); err != nil {
			return err
		}
		c.state.Balance -= types.Uint64(amount)
		c.markDirty()
		c.journal("execute_proposal", proposalSubject(id), amount, EventTypeProposal)
		return c.transfer(amount, c.state.TreasuryIdentity, proposal.Target)
	})
}

// Proposal returns a proposal by ID
func (e *Engine) Proposal(ctx context.Context, id uint64) (*Proposal, error) {
	var ret *Proposal
	err := e.view(ctx, "proposal", func(c *opContext) error {
		proposal, err := c.proposal(id)
		if err != nil {
			return err
		}
		tmp := proposalView(proposal)
		ret = &tmp
		return nil
	})
	return ret, err
}

// Proposals returns proposals ordered by ID, optionally filtered by status
func (e *Engine) Proposals(ctx context.Context, status *ProposalStatus) ([]Proposal, error) {
	var ret []Proposal
	err := e.view(ctx, "proposals", func(c *opContext) error {
		var filter *uint8
		if status != nil {
			tmp := uint8(*status)
			filter = &tmp
		}
		proposals, err := c.meta().GetProposals(filter, c.mtxn())
		if err != nil {
			return fmt.Errorf("load proposals: %w", err)
		}
		ret = make([]Proposal, 0, len(proposals))
		for i := range proposals {
			ret = append(ret, proposalView(&proposals[i]))
		}
		return nil
	})
	return ret, err
}

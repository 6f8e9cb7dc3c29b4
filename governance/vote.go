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

// Vote is a read-only view of a recorded vote
type Vote struct {
	ProposalID      uint64 `json:"proposalId"`
	Voter           string `json:"voter"`
	Amount          uint64 `json:"amount"`
	DelegatedAmount uint64 `json:"delegatedAmount"`
	Support         bool   `json:"support"`
	Height          uint64 `json:"height"`
}

func voteView(v *models.Vote) Vote {
	return Vote{
		ProposalID:      v.ProposalID,
		Voter:           v.Voter,
		Amount:          uint64(v.Amount),
		DelegatedAmount: uint64(v.DelegatedAmount),
		Support:         v.Support,
		Height:          v.AddedHeight,
	}
}

// Vote casts amount of the caller's effective voting power on a proposal.
// Own power is used before delegated power.
func (e *Engine) Vote(
	ctx context.Context,
	op Op,
	id uint64,
	support bool,
	amount uint64,
) error {
	return e.mutate(ctx, "vote", op, 0, func(c *opContext) error {
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
		proposal, err := c.proposal(id)
		if err != nil {
			return err
		}
		if ProposalStatus(proposal.Status) != ProposalStatusActive ||
			op.Height < proposal.Start {
			return ErrProposalNotActive
		}
		if op.Height >= proposal.End {
			return ErrProposalExpired
		}
		existing, err := c.meta().GetVote(id, op.Caller, c.mtxn())
		if err != nil {
			return fmt.Errorf("load vote: %w", err)
		}
		if existing != nil {
			return ErrAlreadyVoted
		}
		if err := c.settle(op.Caller); err != nil {
			return err
		}
		if member, err = c.member(op.Caller); err != nil {
			return err
		}
		received, receivedTotal, err := c.activeReceived(op.Caller, op.Height)
		if err != nil {
			return err
		}
		own := uint64(member.VotingPower)
		effective, err := checkedAdd(own, receivedTotal)
		if err != nil {
			return err
		}
		if amount > effective {
			return ErrInsufficientFunds
		}
		counted, err := checkedAdd(uint64(proposal.YesVotes), uint64(proposal.NoVotes))
		if err != nil {
			return err
		}
		if counted, err = checkedAdd(counted, amount); err != nil ||
			counted > uint64(proposal.PowerSnapshot) {
			return ErrInsufficientFunds
		}
		delegated := uint64(0)
		if amount > own {
			delegated = amount - own
			for i := range received {
				if received[i].LockedUntil >= proposal.End {
					continue
				}
				received[i].LockedUntil = proposal.End
				if err := c.meta().SetDelegation(&received[i], c.mtxn()); err != nil {
					return fmt.Errorf("save delegation: %w", err)
				}
			}
		}
		if member.VoteLockUntil < proposal.End {
			member.VoteLockUntil = proposal.End
			if err := c.saveMember(member); err != nil {
				return err
			}
		}
		if support {
			proposal.YesVotes += types.Uint64(amount)
		} else {
			proposal.NoVotes += types.Uint64(amount)
		}
		if err := c.saveProposal(proposal); err != nil {
			return err
		}
		if err := c.meta().AddVote(
			&models.Vote{
				ProposalID:      id,
				Voter:           op.Caller,
				Amount:          types.Uint64(amount),
				DelegatedAmount: types.Uint64(delegated),
				Support:         support,
				AddedHeight:     op.Height,
			},
			c.mtxn(),
		); err != nil {
			return fmt.Errorf("save vote: %w", err)
		}
		c.journal("vote", proposalSubject(id), amount, EventTypeVote)
		return nil
	})
}

// Votes returns the votes cast on a proposal in the order they were recorded
func (e *Engine) Votes(ctx context.Context, id uint64) ([]Vote, error) {
	var ret []Vote
	err := e.view(ctx, "votes", func(c *opContext) error {
		if _, err := c.proposal(id); err != nil {
			return err
		}
		votes, err := c.meta().GetVotes(id, c.mtxn())
		if err != nil {
			return fmt.Errorf("load votes: %w", err)
		}
		ret = make([]Vote, 0, len(votes))
		for i := range votes {
			ret = append(ret, voteView(&votes[i]))
		}
		return nil
	})
	return ret, err
}

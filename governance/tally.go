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
)

// Tally is the outcome of counting the votes on a proposal
type Tally struct {
	ProposalID      uint64         `json:"proposalId"`
	YesVotes        uint64         `json:"yesVotes"`
	NoVotes         uint64         `json:"noVotes"`
	PowerSnapshot   uint64         `json:"powerSnapshot"`
	QuorumReached   bool           `json:"quorumReached"`
	MajorityReached bool           `json:"majorityReached"`
	Status          ProposalStatus `json:"status"`
}

// geqProduct reports whether a*b >= c*d without overflow
func geqProduct(a, b, c, d uint64) bool {
	hi1, lo1 := bits.Mul64(a, b)
	hi2, lo2 := bits.Mul64(c, d)
	return hi1 > hi2 || (hi1 == hi2 && lo1 >= lo2)
}

// Vote totals are bounded by the power snapshot, so yes+no cannot overflow

func quorumReached(yes, no, snapshot uint64, threshold uint32) bool {
	return geqProduct(yes+no, basisPoints, snapshot, uint64(threshold))
}

func majorityReached(yes, no uint64, superMajority bool, threshold uint32) bool {
	if !superMajority {
		return yes > no
	}
	if yes == 0 {
		return false
	}
	return geqProduct(yes, basisPoints, yes+no, uint64(threshold))
}

func computeTally(p *models.Proposal, params *models.GovernanceParams) Tally {
	yes := uint64(p.YesVotes)
	no := uint64(p.NoVotes)
	snapshot := uint64(p.PowerSnapshot)
	ret := Tally{
		ProposalID:    p.ID,
		YesVotes:      yes,
		NoVotes:       no,
		PowerSnapshot: snapshot,
		QuorumReached: quorumReached(yes, no, snapshot, params.QuorumThreshold),
		MajorityReached: majorityReached(
			yes,
			no,
			p.SuperMajority,
			params.SuperMajorityThreshold,
		),
	}
	if ret.QuorumReached && ret.MajorityReached {
		ret.Status = ProposalStatusPassed
	} else {
		ret.Status = ProposalStatusRejected
	}
	return ret
}

// FinalizeProposal counts the votes on a proposal whose voting period has
// ended and commits the result
func (e *Engine) FinalizeProposal(ctx context.Context, op Op, id uint64) (*Tally, error) {
	var ret *Tally
	err := e.mutate(ctx, "finalize_proposal", op, 0, func(c *opContext) error {
		proposal, err := c.proposal(id)
		if err != nil {
			return err
		}
		if ProposalStatus(proposal.Status) != ProposalStatusActive {
			return ErrProposalNotActive
		}
		if op.Height < proposal.End {
			return fmt.Errorf("%w: voting period ends at %d", ErrProposalNotActive, proposal.End)
		}
		tally := computeTally(proposal, c.params)
		finalizedAt := op.Height
		proposal.Status = uint8(tally.Status)
		proposal.QuorumReached = tally.QuorumReached
		proposal.FinalizedAt = &finalizedAt
		if err := c.saveProposal(proposal); err != nil {
			return err
		}
		c.journal("finalize_proposal", proposalSubject(id), 0, EventTypeProposal)
		ret = &tally
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// Tally previews the outcome of a proposal against the current parameters.
// Status is the stored status.
func (e *Engine) Tally(ctx context.Context, id uint64) (*Tally, error) {
	var ret *Tally
	err := e.view(ctx, "tally", func(c *opContext) error {
		proposal, err := c.proposal(id)
		if err != nil {
			return err
		}
		tally := computeTally(proposal, c.params)
		tally.Status = ProposalStatus(proposal.Status)
		ret = &tally
		return nil
	})
	return ret, err
}

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

const basisPoints = 10000

// Params is the governance parameter record. It is only ever replaced as a
// whole.
type Params struct {
	ProposalFee            uint64 `json:"proposalFee"            yaml:"proposalFee"`
	MinProposalAmount      uint64 `json:"minProposalAmount"      yaml:"minProposalAmount"`
	MaxProposalAmount      uint64 `json:"maxProposalAmount"      yaml:"maxProposalAmount"`
	VotingDelay            uint64 `json:"votingDelay"            yaml:"votingDelay"`
	VotingPeriod           uint64 `json:"votingPeriod"           yaml:"votingPeriod"`
	TimelockPeriod         uint64 `json:"timelockPeriod"         yaml:"timelockPeriod"`
	QuorumThreshold        uint32 `json:"quorumThreshold"        yaml:"quorumThreshold"`
	SuperMajorityThreshold uint32 `json:"superMajorityThreshold" yaml:"superMajorityThreshold"`
}

// DefaultParams returns the parameters used when the genesis configuration
// does not provide any
func DefaultParams() Params {
	return Params{
		ProposalFee:            100_000,
		MinProposalAmount:      1_000_000,
		MaxProposalAmount:      1_000_000_000,
		VotingDelay:            10,
		VotingPeriod:           1_000,
		TimelockPeriod:         500,
		QuorumThreshold:        2_000,
		SuperMajorityThreshold: 6_667,
	}
}

// Validate range-checks every field
func (p Params) Validate() error {
	if p.MinProposalAmount == 0 {
		return fmt.Errorf("%w: minimum proposal amount must be positive", ErrInvalidParameter)
	}
	if p.MinProposalAmount > p.MaxProposalAmount {
		return fmt.Errorf("%w: minimum proposal amount exceeds maximum", ErrInvalidParameter)
	}
	if p.VotingPeriod == 0 {
		return fmt.Errorf("%w: voting period must be positive", ErrInvalidParameter)
	}
	if p.TimelockPeriod == 0 {
		return fmt.Errorf("%w: timelock period must be positive", ErrInvalidParameter)
	}
	if p.QuorumThreshold == 0 || p.QuorumThreshold > basisPoints {
		return fmt.Errorf("%w: quorum threshold out of range", ErrInvalidParameter)
	}
	if p.SuperMajorityThreshold == 0 || p.SuperMajorityThreshold > basisPoints {
		return fmt.Errorf("%w: super-majority threshold out of range", ErrInvalidParameter)
	}
	// Proposal windows must be representable at any height
	if _, err := checkedAdd(p.VotingDelay, p.VotingPeriod); err != nil {
		return fmt.Errorf("%w: voting window overflows", ErrInvalidParameter)
	}
	return nil
}

func paramsFromModel(m *models.GovernanceParams) Params {
	return Params{
		ProposalFee:            uint64(m.ProposalFee),
		MinProposalAmount:      uint64(m.MinProposalAmount),
		MaxProposalAmount:      uint64(m.MaxProposalAmount),
		VotingDelay:            m.VotingDelay,
		VotingPeriod:           m.VotingPeriod,
		TimelockPeriod:         m.TimelockPeriod,
		QuorumThreshold:        m.QuorumThreshold,
		SuperMajorityThreshold: m.SuperMajorityThreshold,
	}
}

func (p Params) toModel(height uint64) *models.GovernanceParams {
	ret := models.NewGovernanceParams()
	ret.ProposalFee = types.Uint64(p.ProposalFee)
	ret.MinProposalAmount = types.Uint64(p.MinProposalAmount)
	ret.MaxProposalAmount = types.Uint64(p.MaxProposalAmount)
	ret.VotingDelay = p.VotingDelay
	ret.VotingPeriod = p.VotingPeriod
	ret.TimelockPeriod = p.TimelockPeriod
	ret.QuorumThreshold = p.QuorumThreshold
	ret.SuperMajorityThreshold = p.SuperMajorityThreshold
	ret.UpdatedHeight = height
	return ret
}

// Genesis describes the initial engine state
type Genesis struct {
	Admin            string   `json:"admin"            yaml:"admin"`
	TreasuryIdentity string   `json:"treasuryIdentity" yaml:"treasuryIdentity"`
	Params           Params   `json:"params"           yaml:"params"`
	EmergencyAdmins  []string `json:"emergencyAdmins"  yaml:"emergencyAdmins"`
	Height           uint64   `json:"height"           yaml:"height"`
}

func (g Genesis) validate() error {
	if g.Admin == "" || g.TreasuryIdentity == "" {
		return fmt.Errorf("%w: admin and treasury identity are required", ErrInvalidParameter)
	}
	if g.Admin == g.TreasuryIdentity {
		return fmt.Errorf("%w: admin must differ from the treasury identity", ErrInvalidParameter)
	}
	for _, admin := range g.EmergencyAdmins {
		if admin == "" || admin == g.TreasuryIdentity {
			return fmt.Errorf("%w: invalid emergency admin %q", ErrInvalidParameter, admin)
		}
	}
	return g.Params.Validate()
}

// Bootstrap writes the genesis state. It returns false without changing
// anything when the engine has already been bootstrapped.
func (e *Engine) Bootstrap(ctx context.Context, genesis Genesis) (bool, error) {
	created := false
	op := Op{Caller: genesis.Admin, Height: genesis.Height}
	err := e.mutate(ctx, "bootstrap", op, opSkipLoad, func(c *opContext) error {
		existing, err := c.meta().GetGovernanceState(c.mtxn())
		if err != nil {
			return fmt.Errorf("load governance state: %w", err)
		}
		if existing != nil {
			c.state = existing
			return nil
		}
		if err := genesis.validate(); err != nil {
			return err
		}
		state := models.NewGovernanceState()
		state.Admin = genesis.Admin
		state.TreasuryIdentity = genesis.TreasuryIdentity
		state.GenesisHeight = genesis.Height
		c.state = state
		c.markDirty()
		c.params = genesis.Params.toModel(genesis.Height)
		if err := c.meta().SetGovernanceParams(c.params, c.mtxn()); err != nil {
			return fmt.Errorf("save governance parameters: %w", err)
		}
		for _, admin := range genesis.EmergencyAdmins {
			if err := c.meta().AddEmergencyAdmin(
				&models.EmergencyAdmin{Identity: admin, AddedAt: genesis.Height},
				c.mtxn(),
			); err != nil {
				return fmt.Errorf("save emergency admin: %w", err)
			}
		}
		c.journal("bootstrap", genesis.TreasuryIdentity, 0, EventTypeTreasury)
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if created {
		e.logger.Info(
			"bootstrapped governance state",
			"component", "governance",
			"admin", genesis.Admin,
			"treasury", genesis.TreasuryIdentity,
			"height", genesis.Height,
		)
	}
	return created, nil
}

// UpdateParameters replaces the parameter record. Only the admin may call
// it, and an invalid field leaves the stored record untouched.
func (e *Engine) UpdateParameters(ctx context.Context, op Op, params Params) error {
	return e.mutate(ctx, "update_parameters", op, 0, func(c *opContext) error {
		if !c.isAdmin() {
			return ErrNotAuthorized
		}
		if err := params.Validate(); err != nil {
			return err
		}
		c.params = params.toModel(op.Height)
		if err := c.meta().SetGovernanceParams(c.params, c.mtxn()); err != nil {
			return fmt.Errorf("save governance parameters: %w", err)
		}
		c.journal("update_parameters", "", 0, EventTypeTreasury)
		return nil
	})
}

// Deposit moves funds from the caller into the treasury without granting
// voting power
func (e *Engine) Deposit(ctx context.Context, op Op, amount uint64) error {
	return e.mutate(ctx, "deposit", op, 0, func(c *opContext) error {
		if op.Caller == "" {
			return ErrNotAuthorized
		}
		if op.Caller == c.state.TreasuryIdentity {
			return fmt.Errorf("%w: treasury cannot deposit to itself", ErrInvalidParameter)
		}
		if amount == 0 {
			return ErrInvalidAmount
		}
		balance, err := checkedAdd(uint64(c.state.Balance), amount)
		if err != nil {
			return err
		}
		c.state.Balance = types.Uint64(balance)
		c.markDirty()
		c.journal("deposit", c.state.TreasuryIdentity, amount, EventTypeTreasury)
		return c.transfer(amount, op.Caller, c.state.TreasuryIdentity)
	})
}

// Treasury is a read-only view of the treasury
type Treasury struct {
	Admin            string `json:"admin"`
	Identity         string `json:"identity"`
	Balance          uint64 `json:"balance"`
	Reserved         uint64 `json:"reserved"`
	Available        uint64 `json:"available"`
	TotalVotingPower uint64 `json:"totalVotingPower"`
	NextProposalID   uint64 `json:"nextProposalId"`
	EmergencyActive  bool   `json:"emergencyActive"`
	GenesisHeight    uint64 `json:"genesisHeight"`
}

// Treasury returns the treasury balances and flags
func (e *Engine) Treasury(ctx context.Context) (*Treasury, error) {
	var ret *Treasury
	err := e.view(ctx, "treasury", func(c *opContext) error {
		ret = &Treasury{
			Admin:            c.state.Admin,
			Identity:         c.state.TreasuryIdentity,
			Balance:          uint64(c.state.Balance),
			Reserved:         uint64(c.state.Reserved),
			Available:        c.available(),
			TotalVotingPower: uint64(c.state.TotalVotingPower),
			NextProposalID:   c.state.NextProposalID,
			EmergencyActive:  c.state.EmergencyActive,
			GenesisHeight:    c.state.GenesisHeight,
		}
		return nil
	})
	return ret, err
}

// Parameters returns the current parameter record
func (e *Engine) Parameters(ctx context.Context) (*Params, error) {
	var ret *Params
	err := e.view(ctx, "parameters", func(c *opContext) error {
		tmp := paramsFromModel(c.params)
		ret = &tmp
		return nil
	})
	return ret, err
}

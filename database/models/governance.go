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

package models

import "github.com/blinklabs-io/guild/database/types"

const (
	governanceStateRowId  = 1
	governanceParamsRowId = 1
)

// GovernanceState is the singleton record holding the treasury and the
// protocol-wide flags
type GovernanceState struct {
	ID               uint         `gorm:"primarykey"`
	Admin            string       `gorm:"size:128;not null"`
	TreasuryIdentity string       `gorm:"size:128;not null"`
	Balance          types.Uint64 `gorm:"not null"`
	Reserved         types.Uint64 `gorm:"not null"` // Committed to open return pools
	TotalVotingPower types.Uint64 `gorm:"not null"`
	NextProposalID   uint64       `gorm:"not null"`
	EmergencyActive  bool
	GenesisHeight    uint64
}

// TableName returns the table name
func (GovernanceState) TableName() string {
	return "governance_state"
}

// NewGovernanceState returns the state record with its fixed row ID
func NewGovernanceState() *GovernanceState {
	return &GovernanceState{ID: governanceStateRowId, NextProposalID: 1}
}

// GovernanceParams is the singleton record holding the mutable governance
// parameters. It is always replaced as a whole.
type GovernanceParams struct {
	ID                     uint         `gorm:"primarykey"`
	ProposalFee            types.Uint64 `gorm:"not null"`
	MinProposalAmount      types.Uint64 `gorm:"not null"`
	MaxProposalAmount      types.Uint64 `gorm:"not null"`
	VotingDelay            uint64       `gorm:"not null"`
	VotingPeriod           uint64       `gorm:"not null"`
	TimelockPeriod         uint64       `gorm:"not null"`
	QuorumThreshold        uint32       `gorm:"not null"` // basis points
	SuperMajorityThreshold uint32       `gorm:"not null"` // basis points
	UpdatedHeight          uint64
}

// TableName returns the table name
func (GovernanceParams) TableName() string {
	return "governance_params"
}

// NewGovernanceParams returns an empty params record with its fixed row ID
func NewGovernanceParams() *GovernanceParams {
	return &GovernanceParams{ID: governanceParamsRowId}
}

// EmergencyAdmin is a member of the emergency admin set
type EmergencyAdmin struct {
	ID       uint   `gorm:"primarykey"`
	Identity string `gorm:"uniqueIndex;size:128;not null"`
	AddedAt  uint64
}

// TableName returns the table name
func (EmergencyAdmin) TableName() string {
	return "emergency_admin"
}

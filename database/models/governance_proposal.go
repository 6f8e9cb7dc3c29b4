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

// Proposal represents a funding proposal.
// Proposals have a lifecycle: active -> (passed | rejected) -> executed.
type Proposal struct {
	ID            uint64       `gorm:"primarykey;autoIncrement:false"`
	Proposer      string       `gorm:"index;size:128;not null"`
	Title         string       `gorm:"not null"`
	Description   string       `gorm:"not null"`
	Amount        types.Uint64 `gorm:"not null"`
	Target        string       `gorm:"size:128;not null"`
	Start         uint64       `gorm:"not null"`
	End           uint64       `gorm:"index;not null"`
	YesVotes      types.Uint64 `gorm:"not null"`
	NoVotes       types.Uint64 `gorm:"not null"`
	PowerSnapshot types.Uint64 `gorm:"not null"` // Total voting power at creation
	Status        uint8        `gorm:"index;not null"`
	SuperMajority bool
	QuorumReached bool
	Executed      bool
	CreatedHeight uint64  `gorm:"not null"`
	FinalizedAt   *uint64 // Height when the tally was committed
	ExecutedAt    *uint64
}

// TableName returns the table name
func (Proposal) TableName() string {
	return "proposal"
}

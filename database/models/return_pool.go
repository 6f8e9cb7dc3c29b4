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

// ReturnPool holds investment returns opened for an executed proposal. The
// pool ID is the proposal ID.
type ReturnPool struct {
	ProposalID        uint64       `gorm:"primarykey;autoIncrement:false"`
	TotalAmount       types.Uint64 `gorm:"not null"`
	DistributedAmount types.Uint64 `gorm:"not null"`
	TotalWeight       types.Uint64 `gorm:"not null"` // Sum of yes votes on the proposal
	WindowStart       uint64       `gorm:"not null"`
	WindowEnd         uint64       `gorm:"not null"`
	CreatedHeight     uint64       `gorm:"not null"`
	ClosedAt          *uint64      // Set when the unclaimed remainder is released
}

// TableName returns the table name
func (ReturnPool) TableName() string {
	return "return_pool"
}

// MemberClaim records a member's claim against a return pool
type MemberClaim struct {
	ID        uint         `gorm:"primarykey"`
	PoolID    uint64       `gorm:"uniqueIndex:idx_claim_unique,priority:1;not null"`
	Member    string       `gorm:"uniqueIndex:idx_claim_unique,priority:2;size:128;not null"`
	Amount    types.Uint64 `gorm:"not null"`
	Claimed   bool
	ClaimedAt uint64 `gorm:"not null"`
}

// TableName returns the table name
func (MemberClaim) TableName() string {
	return "member_claim"
}

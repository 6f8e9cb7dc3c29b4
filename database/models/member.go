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

// Member tracks the voting power and contribution history of a single
// identity. VotingPower is net of the member's own outstanding delegation.
type Member struct {
	ID               uint         `gorm:"primarykey"`
	Identity         string       `gorm:"uniqueIndex;size:128;not null"`
	VotingPower      types.Uint64 `gorm:"not null"`
	TotalContributed types.Uint64 `gorm:"not null"`
	JoinedAt         uint64       `gorm:"index;not null"`
	LastWithdrawal   uint64
	VoteLockUntil    uint64 // Latest voting end height among proposals voted on
}

// TableName returns the table name
func (Member) TableName() string {
	return "member"
}

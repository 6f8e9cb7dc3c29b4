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

// Delegation is the single delegation slot of a delegator. The record is
// removed when the delegation is revoked or settled after expiry.
type Delegation struct {
	ID            uint         `gorm:"primarykey"`
	Delegator     string       `gorm:"uniqueIndex;size:128;not null"`
	Delegate      string       `gorm:"index;size:128;not null"`
	Amount        types.Uint64 `gorm:"not null"`
	Expiry        uint64       `gorm:"index;not null"`
	CreatedHeight uint64       `gorm:"not null"`
	LockedUntil   uint64       // Set when the delegate votes with the delegated power
}

// TableName returns the table name
func (Delegation) TableName() string {
	return "delegation"
}

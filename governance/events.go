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

import "github.com/blinklabs-io/guild/event"

const (
	EventTypeMember     event.EventType = "governance.member"
	EventTypeDelegation event.EventType = "governance.delegation"
	EventTypeProposal   event.EventType = "governance.proposal"
	EventTypeVote       event.EventType = "governance.vote"
	EventTypeTreasury   event.EventType = "governance.treasury"
	EventTypeReturnPool event.EventType = "governance.return_pool"
	EventTypeEmergency  event.EventType = "governance.emergency"
)

// EventTypes lists every event type published by the engine
var EventTypes = []event.EventType{
	EventTypeMember,
	EventTypeDelegation,
	EventTypeProposal,
	EventTypeVote,
	EventTypeTreasury,
	EventTypeReturnPool,
	EventTypeEmergency,
}

// GovernanceEvent is published after a mutating operation commits. It
// carries the same fields as the journal entry for the operation.
type GovernanceEvent struct {
	Operation string `json:"operation"`
	Caller    string `json:"caller"`
	Height    uint64 `json:"height"`
	Subject   string `json:"subject,omitempty"`
	Amount    uint64 `json:"amount"`
}

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

package api

import "github.com/blinklabs-io/guild/governance"

// HealthResponse is returned by GET /health
type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

// HeightResponse is returned by GET /api/v1/height
type HeightResponse struct {
	Height uint64 `json:"height"`
}

// AmountRequest is the body of contribution, withdrawal and deposit requests
type AmountRequest struct {
	Amount uint64 `json:"amount"`
}

// DelegateRequest is the body of POST /api/v1/delegations
type DelegateRequest struct {
	Delegate string `json:"delegate"`
	Amount   uint64 `json:"amount"`
	Expiry   uint64 `json:"expiry"`
}

// CreateProposalResponse is returned by POST /api/v1/proposals
type CreateProposalResponse struct {
	ID uint64 `json:"id"`
}

// VoteRequest is the body of POST /api/v1/proposals/{id}/votes
type VoteRequest struct {
	Support bool   `json:"support"`
	Amount  uint64 `json:"amount"`
}

// ShareResponse is returned by share and claim requests
type ShareResponse struct {
	ProposalID uint64 `json:"proposalId"`
	Member     string `json:"member"`
	Amount     uint64 `json:"amount"`
}

// EmergencyAdminRequest is the body of POST /api/v1/emergency/admins
type EmergencyAdminRequest struct {
	Identity string `json:"identity"`
}

// EmergencyAdminResponse reports whether the admin set changed
type EmergencyAdminResponse struct {
	Identity string `json:"identity"`
	Added    bool   `json:"added"`
}

// EmergencyStateRequest is the body of PUT /api/v1/emergency/state
type EmergencyStateRequest struct {
	Active bool `json:"active"`
}

// EmergencyStateResponse reports the emergency flag after a change
type EmergencyStateResponse struct {
	Active bool `json:"active"`
}

// EmergencyWithdrawRequest is the body of POST /api/v1/emergency/withdrawals
type EmergencyWithdrawRequest struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// JournalEntry is a committed operation from the journal
type JournalEntry struct {
	Seq       uint64 `json:"seq"`
	Height    uint64 `json:"height"`
	Caller    string `json:"caller"`
	Operation string `json:"operation"`
	Subject   string `json:"subject,omitempty"`
	Amount    uint64 `json:"amount"`
}

// ProposalRequest is the body of POST /api/v1/proposals
type ProposalRequest = governance.ProposalRequest

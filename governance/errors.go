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
	"errors"
	"math"
)

// Error kinds returned by governance operations. Callers match them with
// errors.Is; storage and transfer failures wrap the underlying error instead.
var (
	ErrNotAuthorized     = errors.New("not authorized")
	ErrAlreadyVoted      = errors.New("already voted")
	ErrProposalExpired   = errors.New("proposal expired")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrProposalNotActive = errors.New("proposal not active")
	ErrQuorumNotReached  = errors.New("quorum not reached")
	ErrNoDelegate        = errors.New("no delegate")
	ErrInvalidDelegate   = errors.New("invalid delegate")
	ErrEmergencyActive   = errors.New("emergency active")
	ErrNotEmergency      = errors.New("not in emergency")
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrNoReturns         = errors.New("no returns")
	ErrAlreadyClaimed    = errors.New("already claimed")
	ErrTimelockActive    = errors.New("timelock active")
	ErrNotFound          = errors.New("not found")

	// ErrTransferFailed wraps an error from the native transfer primitive
	ErrTransferFailed = errors.New("transfer failed")
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrNotAuthorized, "NotAuthorized"},
	{ErrAlreadyVoted, "AlreadyVoted"},
	{ErrProposalExpired, "ProposalExpired"},
	{ErrInsufficientFunds, "InsufficientFunds"},
	{ErrInvalidAmount, "InvalidAmount"},
	{ErrProposalNotActive, "ProposalNotActive"},
	{ErrQuorumNotReached, "QuorumNotReached"},
	{ErrNoDelegate, "NoDelegate"},
	{ErrInvalidDelegate, "InvalidDelegate"},
	{ErrEmergencyActive, "EmergencyActive"},
	{ErrNotEmergency, "NotEmergency"},
	{ErrInvalidParameter, "InvalidParameter"},
	{ErrNoReturns, "NoReturns"},
	{ErrAlreadyClaimed, "AlreadyClaimed"},
	{ErrTimelockActive, "TimelockActive"},
	{ErrNotFound, "NotFound"},
	{ErrTransferFailed, "TransferFailed"},
}

// ErrorKind returns the stable name of the error kind wrapped by err, or
// "Internal" for errors outside the governance set
func ErrorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "Internal"
}

func checkedAdd(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrInvalidAmount
	}
	return a + b, nil
}

func checkedSub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrInsufficientFunds
	}
	return a - b, nil
}

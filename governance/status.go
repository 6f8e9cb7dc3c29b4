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
	"fmt"
	"strings"
)

// ProposalStatus is the lifecycle state of a proposal
type ProposalStatus uint8

const (
	ProposalStatusActive ProposalStatus = iota
	ProposalStatusPassed
	ProposalStatusRejected
	ProposalStatusExecuted
)

func (s ProposalStatus) String() string {
	switch s {
	case ProposalStatusActive:
		return "Active"
	case ProposalStatusPassed:
		return "Passed"
	case ProposalStatusRejected:
		return "Rejected"
	case ProposalStatusExecuted:
		return "Executed"
	default:
		return fmt.Sprintf("ProposalStatus(%d)", uint8(s))
	}
}

func (s ProposalStatus) MarshalText() ([]byte, error) {
	if s > ProposalStatusExecuted {
		return nil, fmt.Errorf("unknown proposal status: %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *ProposalStatus) UnmarshalText(data []byte) error {
	tmp, err := ParseProposalStatus(string(data))
	if err != nil {
		return err
	}
	*s = tmp
	return nil
}

// ParseProposalStatus parses a status name, ignoring case
func ParseProposalStatus(name string) (ProposalStatus, error) {
	switch strings.ToLower(name) {
	case "active":
		return ProposalStatusActive, nil
	case "passed":
		return ProposalStatusPassed, nil
	case "rejected":
		return ProposalStatusRejected, nil
	case "executed":
		return ProposalStatusExecuted, nil
	}
	return 0, fmt.Errorf("%w: unknown proposal status %q", ErrInvalidParameter, name)
}

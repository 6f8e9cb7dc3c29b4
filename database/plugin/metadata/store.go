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

package metadata

import (
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/guild/database/models"
	"github.com/blinklabs-io/guild/database/plugin/metadata/sqlite"
	"github.com/blinklabs-io/guild/database/types"
	"gorm.io/gorm"
)

const DefaultPluginName = "sqlite"

type MetadataStore interface {
	// Database
	Close() error
	DB() *gorm.DB
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error
	Transaction() types.Txn

	// Treasury and parameters
	GetGovernanceState(types.Txn) (*models.GovernanceState, error)
	SetGovernanceState(*models.GovernanceState, types.Txn) error
	GetGovernanceParams(types.Txn) (*models.GovernanceParams, error)
	SetGovernanceParams(*models.GovernanceParams, types.Txn) error

	// Membership
	GetMember(
		string, // identity
		types.Txn,
	) (*models.Member, error)
	GetMembers(types.Txn) ([]models.Member, error)
	SetMember(*models.Member, types.Txn) error

	// Delegation
	GetDelegation(
		string, // delegator
		types.Txn,
	) (*models.Delegation, error)
	GetDelegationsByDelegate(
		string, // delegate
		types.Txn,
	) ([]models.Delegation, error)
	SetDelegation(*models.Delegation, types.Txn) error
	DeleteDelegation(
		string, // delegator
		types.Txn,
	) error

	// Proposals
	GetProposal(
		uint64, // proposal ID
		types.Txn,
	) (*models.Proposal, error)
	GetProposals(
		*uint8, // status filter
		types.Txn,
	) ([]models.Proposal, error)
	SetProposal(*models.Proposal, types.Txn) error
	GetVote(
		uint64, // proposal ID
		string, // voter
		types.Txn,
	) (*models.Vote, error)
	GetVotes(
		uint64, // proposal ID
		types.Txn,
	) ([]models.Vote, error)
	AddVote(*models.Vote, types.Txn) error

	// Return pools
	GetReturnPool(
		uint64, // proposal ID
		types.Txn,
	) (*models.ReturnPool, error)
	SetReturnPool(*models.ReturnPool, types.Txn) error
	GetMemberClaim(
		uint64, // pool ID
		string, // member
		types.Txn,
	) (*models.MemberClaim, error)
	GetMemberClaims(
		uint64, // pool ID
		types.Txn,
	) ([]models.MemberClaim, error)
	AddMemberClaim(*models.MemberClaim, types.Txn) error

	// Emergency control
	GetEmergencyAdmin(
		string, // identity
		types.Txn,
	) (*models.EmergencyAdmin, error)
	GetEmergencyAdmins(types.Txn) ([]models.EmergencyAdmin, error)
	AddEmergencyAdmin(*models.EmergencyAdmin, types.Txn) error
	DeleteEmergencyAdmin(
		string, // identity
		types.Txn,
	) error
}

// New returns the metadata store selected by name
func New(
	pluginName string,
	dataDir string,
	logger *slog.Logger,
) (MetadataStore, error) {
	switch pluginName {
	case "", DefaultPluginName:
		return sqlite.New(
			sqlite.WithDataDir(dataDir),
			sqlite.WithLogger(logger),
		)
	default:
		return nil, fmt.Errorf("unknown metadata plugin: %s", pluginName)
	}
}

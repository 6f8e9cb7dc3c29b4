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

package sqlite

import (
	"errors"

	"github.com/blinklabs-io/guild/database/models"
	"github.com/blinklabs-io/guild/database/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetReturnPool retrieves the return pool for a proposal, or nil if none
func (d *Store) GetReturnPool(
	proposalID uint64,
	txn types.Txn,
) (*models.ReturnPool, error) {
	var pool models.ReturnPool
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Where("proposal_id = ?", proposalID).First(&pool); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &pool, nil
}

// SetReturnPool creates or updates a return pool
func (d *Store) SetReturnPool(
	pool *models.ReturnPool,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "proposal_id"}},
		UpdateAll: true,
	}).Create(pool)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// GetMemberClaim retrieves a member's claim against a pool, or nil if none
func (d *Store) GetMemberClaim(
	poolID uint64,
	member string,
	txn types.Txn,
) (*models.MemberClaim, error) {
	var claim models.MemberClaim
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Where(
		"pool_id = ? AND member = ?",
		poolID,
		member,
	).First(&claim); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &claim, nil
}

// GetMemberClaims returns all claims against a pool in claim order
func (d *Store) GetMemberClaims(
	poolID uint64,
	txn types.Txn,
) ([]models.MemberClaim, error) {
	var claims []models.MemberClaim
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Where("pool_id = ?", poolID).
		Order("id").
		Find(&claims); result.Error != nil {
		return nil, result.Error
	}
	return claims, nil
}

// AddMemberClaim records a claim. A duplicate (pool, member) pair fails.
func (d *Store) AddMemberClaim(
	claim *models.MemberClaim,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(claim); result.Error != nil {
		return result.Error
	}
	return nil
}

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
)

// GetMember retrieves a member by identity. Returns nil if the identity is
// not a member.
func (d *Store) GetMember(
	identity string,
	txn types.Txn,
) (*models.Member, error) {
	var member models.Member
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Where("identity = ?", identity).First(&member); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &member, nil
}

// GetMembers returns all members ordered by join height
func (d *Store) GetMembers(
	txn types.Txn,
) ([]models.Member, error) {
	var members []models.Member
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Order("joined_at, id").Find(&members); result.Error != nil {
		return nil, result.Error
	}
	return members, nil
}

// SetMember creates or updates a member record
func (d *Store) SetMember(
	member *models.Member,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Save(member); result.Error != nil {
		return result.Error
	}
	return nil
}

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

// GetDelegation retrieves the delegation made by delegator, or nil if none
func (d *Store) GetDelegation(
	delegator string,
	txn types.Txn,
) (*models.Delegation, error) {
	var delegation models.Delegation
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Where("delegator = ?", delegator).First(&delegation); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &delegation, nil
}

// GetDelegationsByDelegate returns all delegations received by delegate,
// including expired ones that have not been settled yet
func (d *Store) GetDelegationsByDelegate(
	delegate string,
	txn types.Txn,
) ([]models.Delegation, error) {
	var delegations []models.Delegation
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Where("delegate = ?", delegate).
		Order("id").
		Find(&delegations); result.Error != nil {
		return nil, result.Error
	}
	return delegations, nil
}

// SetDelegation creates or updates a delegation
func (d *Store) SetDelegation(
	delegation *models.Delegation,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Save(delegation); result.Error != nil {
		return result.Error
	}
	return nil
}

// DeleteDelegation removes the delegation made by delegator
func (d *Store) DeleteDelegation(
	delegator string,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Where("delegator = ?", delegator).
		Delete(&models.Delegation{}); result.Error != nil {
		return result.Error
	}
	return nil
}

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

// GetEmergencyAdmin returns the emergency admin record for identity, or nil
func (d *Store) GetEmergencyAdmin(
	identity string,
	txn types.Txn,
) (*models.EmergencyAdmin, error) {
	var admin models.EmergencyAdmin
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Where("identity = ?", identity).First(&admin); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &admin, nil
}

// GetEmergencyAdmins returns the emergency admin set
func (d *Store) GetEmergencyAdmins(
	txn types.Txn,
) ([]models.EmergencyAdmin, error) {
	var admins []models.EmergencyAdmin
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Order("id").Find(&admins); result.Error != nil {
		return nil, result.Error
	}
	return admins, nil
}

// AddEmergencyAdmin adds identity to the emergency admin set. Adding an
// existing admin is a no-op.
func (d *Store) AddEmergencyAdmin(
	admin *models.EmergencyAdmin,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identity"}},
		DoNothing: true,
	}).Create(admin)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// DeleteEmergencyAdmin removes identity from the emergency admin set
func (d *Store) DeleteEmergencyAdmin(
	identity string,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Where("identity = ?", identity).
		Delete(&models.EmergencyAdmin{}); result.Error != nil {
		return result.Error
	}
	return nil
}

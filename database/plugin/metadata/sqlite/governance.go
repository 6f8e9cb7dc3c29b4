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

// GetGovernanceState returns the singleton governance state record, or nil if
// the store has not been bootstrapped
func (d *Store) GetGovernanceState(
	txn types.Txn,
) (*models.GovernanceState, error) {
	var state models.GovernanceState
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.First(&state); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &state, nil
}

// SetGovernanceState creates or replaces the governance state record
func (d *Store) SetGovernanceState(
	state *models.GovernanceState,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if state.ID == 0 {
		state.ID = models.NewGovernanceState().ID
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(state)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// GetGovernanceParams returns the current governance parameters, or nil if
// none have been stored
func (d *Store) GetGovernanceParams(
	txn types.Txn,
) (*models.GovernanceParams, error) {
	var params models.GovernanceParams
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.First(&params); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &params, nil
}

// SetGovernanceParams replaces the governance parameters as a whole
func (d *Store) SetGovernanceParams(
	params *models.GovernanceParams,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if params.ID == 0 {
		params.ID = models.NewGovernanceParams().ID
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(params)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

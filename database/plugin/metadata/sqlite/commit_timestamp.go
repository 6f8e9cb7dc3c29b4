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

	"github.com/blinklabs-io/guild/database/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const syncStateRowID = 1

// syncState is a single-row table recording the commit timestamp of the
// last read-write transaction, compared against the journal store on open
type syncState struct {
	ID              uint `gorm:"primarykey"`
	CommitTimestamp int64
}

func (syncState) TableName() string {
	return "sync_state"
}

func (s *Store) GetCommitTimestamp() (int64, error) {
	var state syncState
	if err := s.DB().Take(&state, syncStateRowID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return state.CommitTimestamp, nil
}

func (s *Store) SetCommitTimestamp(timestamp int64, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"commit_timestamp"}),
	}).Create(&syncState{
		ID:              syncStateRowID,
		CommitTimestamp: timestamp,
	}).Error
}

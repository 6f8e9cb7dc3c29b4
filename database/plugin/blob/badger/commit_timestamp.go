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

package badger

import (
	"github.com/blinklabs-io/guild/database/types"
)

// GetCommitTimestamp returns the timestamp written by the last committed
// read-write transaction
func (s *Store) GetCommitTimestamp() (int64, error) {
	jt, err := s.txn(s.NewTransaction(false), false)
	if err != nil {
		return 0, err
	}
	defer jt.Rollback() //nolint:errcheck
	val, err := s.get(jt, []byte(commitTimestampKey))
	if err != nil {
		return 0, err
	}
	ts, err := decodeUint64("commit timestamp", val)
	if err != nil {
		return 0, err
	}
	return int64(ts), nil //nolint:gosec
}

func (s *Store) SetCommitTimestamp(timestamp int64, txn types.Txn) error {
	jt, err := s.txn(txn, true)
	if err != nil {
		return err
	}
	return jt.tx.Set(
		[]byte(commitTimestampKey),
		encodeUint64(uint64(timestamp)), //nolint:gosec
	)
}

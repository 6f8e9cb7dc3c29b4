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
	"encoding/binary"
	"fmt"
)

const (
	journalKeyPrefix   = "j"
	journalHeadKey     = "journal_head"
	commitTimestampKey = "metadata_commit_timestamp"
	seqSize            = 8
)

// journalKey builds the key for a journal entry. The sequence number is big
// endian so that key order is commit order
func journalKey(seq uint64) []byte {
	key := make([]byte, len(journalKeyPrefix)+seqSize)
	copy(key, journalKeyPrefix)
	binary.BigEndian.PutUint64(key[len(journalKeyPrefix):], seq)
	return key
}

func journalSeq(key []byte) (uint64, bool) {
	if len(key) != len(journalKeyPrefix)+seqSize {
		return 0, false
	}
	return binary.BigEndian.Uint64(key[len(journalKeyPrefix):]), true
}

func encodeUint64(v uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, v)
}

func decodeUint64(name string, val []byte) (uint64, error) {
	if len(val) != seqSize {
		return 0, fmt.Errorf("invalid %s value: %x", name, val)
	}
	return binary.BigEndian.Uint64(val), nil
}

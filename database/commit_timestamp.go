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

package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/blinklabs-io/guild/database/types"
)

// CommitTimestampError reports that the metadata store and the journal store
// were last written by different transactions
type CommitTimestampError struct {
	MetadataTimestamp int64
	BlobTimestamp     int64
}

func (e CommitTimestampError) Error() string {
	return fmt.Sprintf(
		"commit timestamp mismatch: metadata at %s, journal at %s",
		formatCommitTimestamp(e.MetadataTimestamp),
		formatCommitTimestamp(e.BlobTimestamp),
	)
}

// JournalAhead reports whether the journal holds a commit the metadata store
// is missing
func (e CommitTimestampError) JournalAhead() bool {
	return e.BlobTimestamp > e.MetadataTimestamp
}

func formatCommitTimestamp(ts int64) string {
	if ts <= 0 {
		return "never"
	}
	return time.UnixMilli(ts).UTC().Format(time.RFC3339Nano)
}

// checkCommitTimestamp compares the timestamps both stores recorded for
// their last commit. A fresh metadata store passes.
func (d *Database) checkCommitTimestamp() error {
	metadataTs, err := d.Metadata().GetCommitTimestamp()
	if err != nil {
		return fmt.Errorf("read metadata commit timestamp: %w", err)
	}
	if metadataTs <= 0 {
		return nil
	}
	blobTs, err := d.Blob().GetCommitTimestamp()
	if err != nil && !errors.Is(err, types.ErrBlobKeyNotFound) {
		return fmt.Errorf("read journal commit timestamp: %w", err)
	}
	if blobTs != metadataTs {
		return CommitTimestampError{
			MetadataTimestamp: metadataTs,
			BlobTimestamp:     blobTs,
		}
	}
	return nil
}

func (d *Database) updateCommitTimestamp(txn *Txn, timestamp int64) error {
	if err := d.Metadata().SetCommitTimestamp(timestamp, txn.Metadata()); err != nil {
		return err
	}
	return d.Blob().SetCommitTimestamp(timestamp, txn.Blob())
}

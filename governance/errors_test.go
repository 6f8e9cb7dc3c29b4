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

package governance

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "NotAuthorized", ErrorKind(ErrNotAuthorized))
	assert.Equal(t, "AlreadyClaimed", ErrorKind(fmt.Errorf("claim: %w", ErrAlreadyClaimed)))
	assert.Equal(
		t,
		"TransferFailed",
		ErrorKind(fmt.Errorf("%w: %w", ErrTransferFailed, errors.New("offline"))),
	)
	assert.Equal(t, "Internal", ErrorKind(errors.New("disk full")))
	// Every kind has a distinct name
	seen := map[string]bool{}
	for _, k := range errorKinds {
		assert.False(t, seen[k.kind], k.kind)
		seen[k.kind] = true
	}
}

func TestCheckedArithmetic(t *testing.T) {
	sum, err := checkedAdd(1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), sum)
	_, err = checkedAdd(math.MaxUint64, 1)
	require.ErrorIs(t, err, ErrInvalidAmount)

	diff, err := checkedSub(5, 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), diff)
	_, err = checkedSub(5, 6)
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

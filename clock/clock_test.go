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

package clock_test

import (
	"context"
	"testing"
	"time"

	"github.com/blinklabs-io/guild/clock"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var testGenesis = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestHeightConversion(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(testGenesis)
	hc := clock.New(clock.Config{
		Clock:    fakeClock,
		Genesis:  testGenesis,
		Interval: 10 * time.Second,
	})
	assert.Equal(t, uint64(0), hc.CurrentHeight())
	fakeClock.Advance(25 * time.Second)
	assert.Equal(t, uint64(2), hc.CurrentHeight())
	assert.Equal(t, testGenesis.Add(20*time.Second), hc.HeightToTime(2))

	_, err := hc.TimeToHeight(testGenesis.Add(-time.Second))
	require.ErrorIs(t, err, clock.ErrBeforeGenesis)
	height, err := hc.TimeToHeight(testGenesis.Add(100 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, uint64(10), height)
}

func TestHeightBeforeGenesis(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(testGenesis.Add(-time.Hour))
	hc := clock.New(clock.Config{Clock: fakeClock, Genesis: testGenesis})
	assert.Equal(t, uint64(0), hc.CurrentHeight())
}

func TestDefaultGenesis(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(testGenesis)
	hc := clock.New(clock.Config{Clock: fakeClock})
	fakeClock.Advance(3 * clock.DefaultHeightInterval)
	assert.Equal(t, uint64(3), hc.CurrentHeight())
}

func TestHeightTicks(t *testing.T) {
	defer goleak.VerifyNone(t)
	fakeClock := clockwork.NewFakeClockAt(testGenesis)
	hc := clock.New(clock.Config{
		Clock:    fakeClock,
		Genesis:  testGenesis,
		Interval: time.Second,
	})
	ticks := hc.Subscribe()
	hc.Start(context.Background())
	defer hc.Stop()

	for want := uint64(1); want <= 3; want++ {
		require.NoError(t, fakeClock.BlockUntilContext(context.Background(), 1))
		fakeClock.Advance(time.Second)
		select {
		case tick := <-ticks:
			assert.Equal(t, want, tick.Height)
			assert.Equal(t, testGenesis.Add(time.Duration(want)*time.Second), tick.HeightStart)
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for height %d", want)
		}
	}
}

func TestStopClosesSubscribers(t *testing.T) {
	defer goleak.VerifyNone(t)
	hc := clock.New(clock.Config{Clock: clockwork.NewFakeClock()})
	ticks := hc.Subscribe()
	hc.Start(context.Background())
	hc.Stop()
	hc.Stop()
	_, ok := <-ticks
	assert.False(t, ok)
}

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

package clock

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const DefaultHeightInterval = time.Second

var ErrBeforeGenesis = errors.New("time is before genesis")

// HeightTick is sent to subscribers each time the height advances
type HeightTick struct {
	Height      uint64
	HeightStart time.Time
}

// Config holds the settings for a HeightClock
type Config struct {
	Logger *slog.Logger
	// Clock is the time source. Tests inject a clockwork.FakeClock
	Clock clockwork.Clock
	// Genesis is the start of height 0
	Genesis time.Time
	// Interval is the duration of a single height
	Interval time.Duration
}

// HeightClock maps wall time onto the monotonic height counter used by the
// governance engine
type HeightClock struct {
	config      Config
	subscribers []chan HeightTick
	mu          sync.Mutex
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	running     bool
}

// New creates a HeightClock. A zero Genesis starts height 0 at the current
// time.
func New(cfg Config) *HeightClock {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultHeightInterval
	}
	if cfg.Genesis.IsZero() {
		cfg.Genesis = cfg.Clock.Now()
	}
	return &HeightClock{config: cfg}
}

// CurrentHeight returns the height for the current time. Heights never go
// below zero, even if the clock is behind genesis.
func (c *HeightClock) CurrentHeight() uint64 {
	height, err := c.TimeToHeight(c.config.Clock.Now())
	if err != nil {
		return 0
	}
	return height
}

// TimeToHeight returns the height containing t
func (c *HeightClock) TimeToHeight(t time.Time) (uint64, error) {
	if t.Before(c.config.Genesis) {
		return 0, ErrBeforeGenesis
	}
	return uint64(t.Sub(c.config.Genesis) / c.config.Interval), nil //nolint:gosec
}

// HeightToTime returns the start time of height
func (c *HeightClock) HeightToTime(height uint64) time.Time {
	return c.config.Genesis.Add(time.Duration(height) * c.config.Interval) //nolint:gosec
}

// Start begins emitting a HeightTick at each height boundary
func (c *HeightClock) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.running = true
	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.run(ctx)
}

// Stop halts the tick loop and closes all subscriber channels
func (c *HeightClock) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.cancel()
	c.mu.Unlock()
	c.wg.Wait()
	c.mu.Lock()
	for _, ch := range c.subscribers {
		close(ch)
	}
	c.subscribers = nil
	c.mu.Unlock()
}

// Subscribe returns a channel receiving height ticks. A subscriber that falls
// behind only sees the latest tick.
func (c *HeightClock) Subscribe() <-chan HeightTick {
	ch := make(chan HeightTick, 1)
	c.mu.Lock()
	c.subscribers = append(c.subscribers, ch)
	c.mu.Unlock()
	return ch
}

func (c *HeightClock) run(ctx context.Context) {
	defer c.wg.Done()
	for {
		next := c.CurrentHeight() + 1
		nextStart := c.HeightToTime(next)
		timer := c.config.Clock.NewTimer(nextStart.Sub(c.config.Clock.Now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.Chan():
		}
		tick := HeightTick{
			Height:      c.CurrentHeight(),
			HeightStart: c.HeightToTime(c.CurrentHeight()),
		}
		c.config.Logger.Debug(
			"height advanced",
			"component", "clock",
			"height", tick.Height,
		)
		c.notify(tick)
	}
}

func (c *HeightClock) notify(tick HeightTick) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.subscribers {
		// Drop the stale tick so the newest one always fits
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- tick:
		default:
		}
	}
}

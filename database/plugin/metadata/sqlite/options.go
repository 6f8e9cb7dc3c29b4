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
	"log/slog"
	"time"
)

const DefaultBusyTimeout = 5 * time.Second

type OptionFunc func(*Store)

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) OptionFunc {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithDataDir places metadata.sqlite under dataDir. An empty value keeps the
// database in memory
func WithDataDir(dataDir string) OptionFunc {
	return func(s *Store) {
		s.dataDir = dataDir
	}
}

// WithMaxConnections caps the number of open connections
func WithMaxConnections(maxConnections int) OptionFunc {
	return func(s *Store) {
		s.maxConnections = maxConnections
	}
}

// WithBusyTimeout sets how long a writer waits on a locked database file
func WithBusyTimeout(timeout time.Duration) OptionFunc {
	return func(s *Store) {
		if timeout > 0 {
			s.busyTimeout = timeout
		}
	}
}

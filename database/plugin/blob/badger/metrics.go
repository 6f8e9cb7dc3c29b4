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

import "github.com/prometheus/client_golang/prometheus"

const metricNamePrefix = "guild_journal_"

type storeMetrics struct {
	appended prometheus.Counter
}

func (s *Store) registerMetrics() *storeMetrics {
	m := &storeMetrics{
		appended: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricNamePrefix + "entries_appended_total",
			Help: "Journal entries written by committed transactions",
		}),
	}
	head := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricNamePrefix + "head_seq",
			Help: "Sequence number of the last journal entry",
		},
		func() float64 {
			txn := s.NewTransaction(false)
			defer txn.Rollback() //nolint:errcheck
			head, err := s.JournalHead(txn)
			if err != nil {
				return 0
			}
			return float64(head)
		},
	)
	size := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricNamePrefix + "size_bytes",
			Help: "On-disk size of the journal store (LSM tree plus value log)",
		},
		func() float64 {
			lsm, vlog := s.db.Size()
			return float64(lsm + vlog)
		},
	)
	s.promRegistry.MustRegister(m.appended, head, size)
	return m
}

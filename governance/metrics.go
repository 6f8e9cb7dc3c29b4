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
	"time"

	"github.com/blinklabs-io/guild/database/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type engineMetrics struct {
	operations       *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	treasuryBalance  prometheus.Gauge
	treasuryReserved prometheus.Gauge
	totalVotingPower prometheus.Gauge
	emergencyActive  prometheus.Gauge
}

func newEngineMetrics(promRegistry prometheus.Registerer) *engineMetrics {
	promautoFactory := promauto.With(promRegistry)
	return &engineMetrics{
		operations: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guild_governance_operations_total",
				Help: "total governance operations by operation and result",
			},
			[]string{"operation", "result"},
		),
		duration: promautoFactory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "guild_governance_operation_duration_seconds",
				Help:    "duration of governance operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		treasuryBalance: promautoFactory.NewGauge(prometheus.GaugeOpts{
			Name: "guild_treasury_balance",
			Help: "treasury balance in native units",
		}),
		treasuryReserved: promautoFactory.NewGauge(prometheus.GaugeOpts{
			Name: "guild_treasury_reserved",
			Help: "treasury balance reserved for return pools",
		}),
		totalVotingPower: promautoFactory.NewGauge(prometheus.GaugeOpts{
			Name: "guild_total_voting_power",
			Help: "total voting power of all members",
		}),
		emergencyActive: promautoFactory.NewGauge(prometheus.GaugeOpts{
			Name: "guild_emergency_active",
			Help: "1 while the emergency flag is set",
		}),
	}
}

func (m *engineMetrics) observe(operation string, err error, elapsed time.Duration) {
	result := "ok"
	if err != nil {
		result = ErrorKind(err)
	}
	m.operations.WithLabelValues(operation, result).Inc()
	m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *engineMetrics) updateState(state *models.GovernanceState) {
	m.treasuryBalance.Set(float64(state.Balance))
	m.treasuryReserved.Set(float64(state.Reserved))
	m.totalVotingPower.Set(float64(state.TotalVotingPower))
	if state.EmergencyActive {
		m.emergencyActive.Set(1)
	} else {
		m.emergencyActive.Set(0)
	}
}

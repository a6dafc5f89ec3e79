// Copyright 2024 The FSXVol Authors
// This file is part of FSXVol.
//
// FSXVol is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// FSXVol is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with FSXVol. If not, see <http://www.gnu.org/licenses/>.

package volume

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the set of counters and histograms a Volume exports:
// reconfiguration counts by opcode, slots moved per reconfiguration, bytes
// migrated, and op latency. Callers register it once against their own
// registry (or prometheus.DefaultRegisterer) and pass it to NewVolume.
type Metrics struct {
	Reconfigurations *prometheus.CounterVec
	SlotsMoved       prometheus.Histogram
	BytesMigrated    prometheus.Counter
	OpLatency        *prometheus.HistogramVec
}

// NewMetrics builds a Metrics set and registers it against reg. Passing a
// fresh prometheus.NewRegistry() keeps tests hermetic; passing
// prometheus.DefaultRegisterer wires it into a process-wide /metrics
// endpoint the way erigon exposes its own metrics registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Reconfigurations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fsxvol",
			Name:      "reconfigurations_total",
			Help:      "Count of completed reconfiguration operations, by opcode.",
		}, []string{"opcode"}),
		SlotsMoved: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fsxvol",
			Name:      "reconfiguration_slots_moved",
			Help:      "Number of table slots whose owning brick changed in a single reconfiguration.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		BytesMigrated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fsxvol",
			Name:      "migration_bytes_total",
			Help:      "Total bytes copied by the extent migration engine.",
		}),
		OpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fsxvol",
			Name:      "op_duration_seconds",
			Help:      "Volume-op latency, by opcode.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"opcode"}),
	}
	if reg != nil {
		reg.MustRegister(m.Reconfigurations, m.SlotsMoved, m.BytesMigrated, m.OpLatency)
	}
	return m
}

// nopMetrics is used when a caller builds a Volume without supplying
// Metrics, so op implementations never need a nil check.
func nopMetrics() *Metrics {
	return NewMetrics(nil)
}

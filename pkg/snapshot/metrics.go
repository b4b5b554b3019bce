// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

package snapshot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess = "success"
	outcomeError   = "error"
)

var (
	// Snapshot orchestration metrics
	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "presnap_run_duration_seconds",
			Help:    "Time taken by a complete snapshot orchestration run",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	runTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presnap_runs_total",
			Help: "Total number of snapshot orchestration runs",
		},
		[]string{"outcome"}, // success or error
	)

	mountPointsQuiesced = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "presnap_mount_points_quiesced",
			Help: "Number of mount points quiesced in the last run",
		},
	)

	restoreFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "presnap_restore_failures_total",
			Help: "Total number of mount-point restorations that failed",
		},
	)
)

func observeRun(outcome string, res *Result) {
	runDuration.Observe(res.Duration.Seconds())
	runTotal.WithLabelValues(outcome).Inc()
	mountPointsQuiesced.Set(float64(res.MountPoints))
	if res.RestoreFailures > 0 {
		restoreFailures.Add(float64(res.RestoreFailures))
	}
}

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

package collector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	collectDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storage_facts_collect_duration_seconds",
			Help:    "Time taken to collect a complete facts snapshot",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	collectTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_facts_collect_total",
			Help: "Total number of snapshot collection runs",
		},
		[]string{"status"}, // complete, partial or failed
	)

	fetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storage_facts_fetch_duration_seconds",
			Help:    "Time taken to fetch one category",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
		[]string{"category"},
	)

	fetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_facts_fetch_total",
			Help: "Total number of category fetches by outcome",
		},
		[]string{"category", "status"},
	)

	failedCategories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storage_facts_failed_categories",
			Help: "Number of failed categories in the last collected snapshot",
		},
	)
)

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

// Package collector aggregates per-category fact payloads into a Snapshot.
//
// # Overview
//
// A Collector walks the requested categories, calls the injected Fetcher once
// per category and records the outcome. A failing, panicking or slow source
// becomes a failed record; it never aborts the other categories.
//
// # Fetcher
//
// The Fetcher interface is the only way facts reach the collector:
//
//	type Fetcher interface {
//	    Fetch(ctx context.Context, d registry.Descriptor) (any, error)
//	}
//
// FetcherFunc adapts a plain function. Concrete fetchers live in pkg/source.
//
// # Usage
//
//	c := collector.New(source.NewDirFetcher("./payloads"),
//	    collector.WithConcurrency(8),
//	    collector.WithTarget("vsp-810045"),
//	)
//	snap, err := c.CollectAll(ctx)
//
// Collect returns an error only for invalid input (unknown or duplicated
// categories). Records are always in the order requested, regardless of the
// order in which fetches complete.
//
// # Concurrency
//
// Fetches run on a bounded errgroup (WithConcurrency) and may be paced by a
// token bucket (WithRateLimit). Each fetch is bounded by WithFetchTimeout.
//
// # Metrics
//
// Prometheus metrics are registered with the default registry:
//   - storage_facts_collect_duration_seconds
//   - storage_facts_collect_total{status}
//   - storage_facts_fetch_duration_seconds{category}
//   - storage_facts_fetch_total{category,status}
//   - storage_facts_failed_categories
package collector

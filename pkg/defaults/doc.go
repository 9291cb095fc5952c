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

// Package defaults provides centralized configuration constants for storage-facts.
//
// This package defines timeout values, concurrency limits, and other
// configuration defaults used across the codebase. Centralizing these values
// ensures consistency and makes tuning easier.
//
// # Categories
//
//   - Collection: per-fetch timeout, fetch concurrency and rate
//   - Server timeouts: For HTTP server configuration
//   - HTTP client timeouts: For outbound HTTP requests (HTTP fetcher, URL readers)
//   - ConfigMap timeouts: For Kubernetes ConfigMap snapshot storage
//   - Store: For the SQLite snapshot history
//
// # Usage
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.FetchTimeout)
//	defer cancel()
//
// # Guidelines
//
//   - A single fetch must never be allowed to stall a collection run:
//     FetchTimeout is always shorter than CollectTimeout.
//   - Arrays throttle their management APIs; keep FetchRateLimit and
//     CollectConcurrency modest.
package defaults

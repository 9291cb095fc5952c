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

package defaults

import "time"

// Collection settings for a snapshot run.
const (
	// FetchTimeout bounds a single category fetch. Fetchers should respect
	// parent context deadlines when shorter.
	FetchTimeout = 2 * time.Minute

	// CollectConcurrency is the default number of categories fetched in parallel.
	CollectConcurrency = 4

	// FetchRateLimit is the default number of fetches started per second.
	// Zero disables rate limiting.
	FetchRateLimit = 5

	// FetchRateBurst is the burst size for the fetch rate limiter.
	FetchRateBurst = 5

	// CollectTimeout bounds a complete collection run started from the CLI.
	CollectTimeout = 30 * time.Minute
)

// Server timeouts for HTTP server configuration.
const (
	// ServerReadTimeout is the maximum duration for reading request headers.
	ServerReadTimeout = 10 * time.Second

	// ServerReadHeaderTimeout prevents slow header attacks.
	ServerReadHeaderTimeout = 5 * time.Second

	// ServerWriteTimeout is the maximum duration for writing a response.
	ServerWriteTimeout = 30 * time.Second

	// ServerIdleTimeout is the maximum duration to wait for the next request.
	ServerIdleTimeout = 120 * time.Second

	// ServerShutdownTimeout is the maximum duration for graceful shutdown.
	ServerShutdownTimeout = 30 * time.Second

	// HandlerTimeout bounds store lookups and diff computation in API handlers.
	HandlerTimeout = 30 * time.Second
)

// HTTP client timeouts for outbound requests.
const (
	// HTTPClientTimeout is the default total timeout for HTTP requests.
	HTTPClientTimeout = 30 * time.Second

	// HTTPConnectTimeout is the timeout for establishing connections.
	HTTPConnectTimeout = 5 * time.Second

	// HTTPTLSHandshakeTimeout is the timeout for TLS handshake.
	HTTPTLSHandshakeTimeout = 5 * time.Second

	// HTTPResponseHeaderTimeout is the timeout for reading response headers.
	// Fact endpoints on large arrays can take a while to start responding.
	HTTPResponseHeaderTimeout = 60 * time.Second

	// HTTPIdleConnTimeout is the timeout for idle connections in the pool.
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPKeepAlive is the keep-alive duration for connections.
	HTTPKeepAlive = 30 * time.Second

	// HTTPExpectContinueTimeout is the timeout for Expect: 100-continue.
	HTTPExpectContinueTimeout = 1 * time.Second
)

// ConfigMap timeouts for Kubernetes ConfigMap operations.
const (
	// ConfigMapWriteTimeout is the timeout for writing to ConfigMaps.
	ConfigMapWriteTimeout = 30 * time.Second

	// ConfigMapReadTimeout is the timeout for reading from ConfigMaps.
	ConfigMapReadTimeout = 15 * time.Second
)

// Store settings for the snapshot history database.
const (
	// StoreBusyTimeout is the SQLite busy_timeout applied to history stores.
	StoreBusyTimeout = 10 * time.Second

	// StoreListLimit is the default number of snapshots returned by a listing.
	StoreListLimit = 50
)

// OCI timeouts for registry operations.
const (
	// OCIPushTimeout bounds publishing a snapshot artifact.
	OCIPushTimeout = 2 * time.Minute
)

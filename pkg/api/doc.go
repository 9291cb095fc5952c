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

// Package api implements sfd, the read-only HTTP API over the snapshot
// history store.
//
// Endpoints:
//
//	GET /v1/categories                                    registered categories
//	GET /v1/snapshots?target=&limit=                      stored snapshots, newest first
//	GET /v1/snapshots/{id}                                snapshot document
//	GET /v1/snapshots/{id}/summary                        per-category status and counts
//	GET /v1/snapshots/{id}/categories/{category}          items, optionally filtered by key and value or pattern
//	GET /v1/snapshots/{id}/categories/{category}/count    item count
//	GET /v1/snapshots/{id}/categories/{category}/table    flattened table, JSON or format=csv
//	GET /v1/diff?old=&new=&identity=&drift=               drift report between two snapshots
//
// {id} is a run ID, "latest" or "previous". Both accept target= to scope
// the reference to one array.
//
// Configuration comes from the environment: SFD_STORE (database path),
// SFD_REGISTRY (optional YAML registry), LOG_LEVEL, and the server settings
// ADDRESS, PORT, RATE_LIMIT, RATE_LIMIT_BURST and SHUTDOWN_TIMEOUT_SECONDS.
package api

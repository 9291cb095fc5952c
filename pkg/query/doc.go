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

// Package query answers read-only questions about a Snapshot.
//
//   - List: categories a registry can collect
//   - Summarize: status and item count per category, with totals
//   - Extract and Count: the items of one category
//   - Filter: items whose value at a dotted key path matches, ignoring case
//   - Validate and Inspect: structural findings for a persisted snapshot
//
// Extract, Count and Filter report UNKNOWN_CATEGORY when the category is
// absent and CATEGORY_UNAVAILABLE, carrying the stored fetch error, when the
// category failed during collection.
//
// Key paths descend into nested maps and index lists with numeric segments:
//
//	items, err := query.Filter(snap, "storage_ports", "port_info.0.mode", "fc")
package query

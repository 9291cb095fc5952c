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

// Package facts defines the document model for storage fact snapshots.
//
// A Snapshot is an ordered set of category Records. Each record is either ok,
// holding a list of Items, or failed, holding the fetch error message. Items
// are nested Maps of Values; a Value is a Scalar, a List or a Map.
//
// Numbers are kept as their exact decimal text so that a snapshot written by
// Store and read back by Load is identical to the original.
//
// Persisted form (JSON or YAML):
//
//	{
//	  "ldevs": [{"ldev_id": 1, "name": "db01"}],
//	  "journals": {"error": "timeout"}
//	}
//
// Load validates the shape and reports MALFORMED_SNAPSHOT errors. The legacy
// {"data": X} envelope and null category values are accepted and normalized.
package facts

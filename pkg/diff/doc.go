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

// Package diff compares two fact snapshots and reports configuration drift.
//
// Items are matched across snapshots by identity: the first identity key
// present on the item ("ldev_id=12"), or a content hash when no key applies.
// For each category the report lists added, removed and changed items.
// Changed items carry the dotted paths of the fields that differ.
//
// Categories that failed on either side are reported as unavailable and are
// not compared. Categories present on one side only are reported as
// missing_old or missing_new.
//
// When several items on one side share an identity, the last one is compared
// and a Collision is recorded.
//
//	rep := diff.Diff(older, newer, diff.WithRegistry(registry.Default()))
//	if rep.HasDrift() {
//	    for _, c := range rep.Drifted() { ... }
//	}
package diff

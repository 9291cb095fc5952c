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

// Package header provides the common header for report documents.
//
// Summaries, diff reports, extracts and validation results all start with
// the same Kubernetes-style header so downstream tooling can tell them apart:
//
//	{
//	  "kind": "DiffReport",
//	  "apiVersion": "facts.storage.nvidia.com/v1alpha1",
//	  "metadata": {
//	    "timestamp": "2025-12-30T10:30:00Z",
//	    "version": "v1.0.0"
//	  }
//	}
//
// Snapshot documents themselves carry no header: their top-level keys are
// exactly the category names so files stay compatible with existing
// tooling that reads the aggregated facts directly.
//
// # Usage
//
// Report types embed Header inline and stamp it when they are built:
//
//	type Summary struct {
//	    header.Header `json:",inline" yaml:",inline"`
//	    ...
//	}
//
//	sum.Init(header.KindSummary, version)
//	sum.Metadata[header.MetadataSource] = path
package header

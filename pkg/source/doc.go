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

// Package source provides the Fetcher implementations sfctl collects with.
//
// A fetcher returns the raw payload of one category and nothing else.
// Normalization, failure isolation and ordering belong to the collector.
//
//   - DirFetcher reads <dir>/<category>.json (or .yaml/.yml), the layout
//     produced by exporting fact module results to disk.
//   - HTTPFetcher requests a URL rendered from a template per category.
//   - CommandFetcher runs an external command per category and decodes
//     its stdout.
//
// Open picks one from a location string:
//
//	f, err := source.Open("exec:ansible-playbook facts.yml -e module={{.Source}}")
//	c := collector.New(f)
package source

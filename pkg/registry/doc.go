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

// Package registry holds the static catalog of fact categories.
//
// Each Descriptor maps a category name to the source that returns its
// payload, an optional sub-selector for sources shared by several
// categories, and an optional identity override used when diffing.
//
// Default returns the catalog for a VSP One Block array:
//
//	reg := registry.Default()
//	for _, name := range reg.List() {
//	    d, _ := reg.Lookup(name)
//	    fmt.Println(name, d.Source)
//	}
//
// Registries are immutable after construction and safe for concurrent use.
// A custom catalog can be built with New or loaded from YAML with FromFile.
package registry

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

// Package flatten turns nested category items into flat rows and tables for
// CSV and plain-text export.
//
// Each row maps a dotted key path to the text of a scalar leaf:
//
//	{"port_id": "CL1-A", "wwn": {"a": 1}, "hosts": ["h1", "h2"]}
//
// becomes, with the default ListIndex policy,
//
//	port_id=CL1-A  wwn.a=1  hosts.0=h1  hosts.1=h2
//
// With ListJSON the list stays in one column: hosts=["h1","h2"].
//
// Dots and backslashes inside a map key are escaped with a backslash, so
// {"a.b": 1} flattens to a\.b=1 while {"a": {"b": 1}} flattens to a.b=1.
//
// A Table uses the sorted union of all row keys as its columns; cells a row
// does not have hold the configured Missing marker.
package flatten

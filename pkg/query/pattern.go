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

package query

import "strings"

// MatchPattern reports whether s matches a wildcard pattern:
//   - "prefix*" matches values starting with "prefix"
//   - "*suffix" matches values ending with "suffix"
//   - "*contains*" matches values containing "contains"
//   - "exact" matches the value exactly
//
// Multiple wildcards are allowed, e.g. "a*b*c" matches "aXbYc".
func MatchPattern(s, pattern string) bool {
	if !strings.Contains(pattern, "*") {
		return s == pattern
	}

	segments := strings.Split(pattern, "*")

	pos := 0
	for i, segment := range segments {
		if segment == "" {
			continue
		}

		// first segment anchors at the start
		if i == 0 {
			if !strings.HasPrefix(s, segment) {
				return false
			}
			pos = len(segment)
			continue
		}

		// last segment anchors at the end
		if i == len(segments)-1 {
			return len(s)-pos >= len(segment) && strings.HasSuffix(s[pos:], segment)
		}

		idx := strings.Index(s[pos:], segment)
		if idx == -1 {
			return false
		}
		pos += idx + len(segment)
	}

	return true
}

// MatchAny reports whether s matches at least one pattern.
func MatchAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if MatchPattern(s, p) {
			return true
		}
	}
	return false
}

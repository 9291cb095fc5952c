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

package header

import (
	"testing"
	"time"
)

func TestKind_IsValid(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{KindSummary, true},
		{KindDiffReport, true},
		{KindValidationResult, true},
		{KindHistory, true},
		{Kind("Recipe"), false},
		{Kind(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := tt.kind.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHeader_Init(t *testing.T) {
	var h Header
	h.Init(KindSummary, "1.0.0")

	if h.GetKind() != KindSummary {
		t.Errorf("Kind = %s, want %s", h.GetKind(), KindSummary)
	}
	if h.APIVersion != APIVersion {
		t.Errorf("APIVersion = %s, want %s", h.APIVersion, APIVersion)
	}
	if _, err := time.Parse(time.RFC3339, h.Metadata[MetadataTimestamp]); err != nil {
		t.Errorf("timestamp not RFC3339: %v", err)
	}
	if h.GetMetadata()[MetadataVersion] != "1.0.0" {
		t.Errorf("version = %q, want 1.0.0", h.GetMetadata()[MetadataVersion])
	}

	var noVersion Header
	noVersion.Init(KindSummary, "")
	if _, ok := noVersion.Metadata[MetadataVersion]; ok {
		t.Error("version key should be omitted when empty")
	}
}

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

package registry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/NVIDIA/storage-facts/pkg/errors"
)

func TestDefault(t *testing.T) {
	reg := Default()
	names := reg.List()

	require.Len(t, names, 30)
	assert.Equal(t, "audit_log_transfer_dest", names[0])
	assert.Equal(t, "user_groups", names[len(names)-1])

	// List is deterministic
	assert.Equal(t, names, reg.List())

	for _, name := range names {
		d, ok := reg.Lookup(name)
		require.True(t, ok, name)
		assert.True(t, strings.HasPrefix(d.Source, modulePrefix), name)
	}
}

func TestDefault_SharedMonitorSource(t *testing.T) {
	reg := Default()

	hw, ok := reg.Lookup("hardware_installed")
	require.True(t, ok)
	cb, ok := reg.Lookup("channel_boards")
	require.True(t, ok)

	assert.Equal(t, hw.Source, cb.Source)
	assert.Equal(t, "hardware_installed", hw.Spec["query"])
	assert.Equal(t, "false", hw.Spec["include_component_option"])
	assert.Equal(t, "channel_boards", cb.Spec["query"])
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		in      []Descriptor
		wantErr bool
	}{
		{
			name: "valid",
			in: []Descriptor{
				{Category: "a", Source: "src.a"},
				{Category: "b", Source: "src.b"},
			},
		},
		{
			name:    "empty name",
			in:      []Descriptor{{Category: " ", Source: "src"}},
			wantErr: true,
		},
		{
			name:    "empty source",
			in:      []Descriptor{{Category: "a"}},
			wantErr: true,
		},
		{
			name: "duplicate",
			in: []Descriptor{
				{Category: "a", Source: "src.a"},
				{Category: "a", Source: "src.b"},
			},
			wantErr: true,
		},
		{
			name: "empty registry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := New(tt.in...)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidRequest))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.in), reg.Len())
		})
	}
}

func TestLookup_ReturnsCopy(t *testing.T) {
	reg := MustNew(Descriptor{
		Category:     "a",
		Source:       "src",
		Spec:         map[string]string{"query": "x"},
		IdentityKeys: []string{"id"},
	})

	d, _ := reg.Lookup("a")
	d.Spec["query"] = "mutated"
	d.IdentityKeys[0] = "mutated"

	again, _ := reg.Lookup("a")
	assert.Equal(t, "x", again.Spec["query"])
	assert.Equal(t, []string{"id"}, reg.IdentityKeys("a"))
}

func TestResolve(t *testing.T) {
	reg := MustNew(
		Descriptor{Category: "a", Source: "src.a"},
		Descriptor{Category: "b", Source: "src.b"},
		Descriptor{Category: "c", Source: "src.c"},
	)

	t.Run("empty selects all", func(t *testing.T) {
		ds, err := reg.Resolve(nil)
		require.NoError(t, err)
		require.Len(t, ds, 3)
		assert.Equal(t, "a", ds[0].Category)
	})

	t.Run("keeps caller order", func(t *testing.T) {
		ds, err := reg.Resolve([]string{"c", "a"})
		require.NoError(t, err)
		require.Len(t, ds, 2)
		assert.Equal(t, "c", ds[0].Category)
		assert.Equal(t, "a", ds[1].Category)
	})

	t.Run("unknown", func(t *testing.T) {
		err := reg.Validate([]string{"a", "nope"})
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnknownCategory))
	})

	t.Run("duplicate", func(t *testing.T) {
		err := reg.Validate([]string{"a", "a"})
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidRequest))
	})
}

func TestLoad(t *testing.T) {
	in := `categories:
  - category: ldevs
    source: hitachivantara.vspone_block.vsp.hv_ldev_facts
    identityKeys: [ldev_id]
  - category: channel_boards
    source: hitachivantara.vspone_block.vsp.hv_storage_system_monitor_facts
    spec:
      query: channel_boards
`
	reg, err := Load(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"ldevs", "channel_boards"}, reg.List())
	assert.Equal(t, []string{"ldev_id"}, reg.IdentityKeys("ldevs"))

	d, ok := reg.Lookup("channel_boards")
	require.True(t, ok)
	assert.Equal(t, "channel_boards", d.Spec["query"])
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", "categories: []\n"},
		{"unknown field", "categories:\n  - category: a\n    source: b\n    bogus: 1\n"},
		{"duplicate", "categories:\n  - {category: a, source: b}\n  - {category: a, source: c}\n"},
		{"not yaml", "categories: ["},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.in))
			assert.Error(t, err)
		})
	}
}

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

package diff

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/storage-facts/pkg/facts"
	"github.com/NVIDIA/storage-facts/pkg/header"
	"github.com/NVIDIA/storage-facts/pkg/registry"
)

func parse(t *testing.T, doc string) *facts.Snapshot {
	t.Helper()
	s, err := facts.Parse([]byte(doc), nil)
	require.NoError(t, err)
	return s
}

const (
	snapA = `{"ldevs": [{"id": "1", "status": "Defined"}, {"id": "2", "status": "Blocked"}]}`
	snapB = `{"ldevs": [{"id": "1", "status": "Blocked"}, {"id": "3", "status": "Defined"}]}`
)

func TestDiff_LdevScenario(t *testing.T) {
	rep := Diff(parse(t, snapA), parse(t, snapB))

	assert.Equal(t, header.KindDiffReport, rep.Kind)
	cd, ok := rep.Category("ldevs")
	require.True(t, ok)
	assert.Equal(t, StatusCompared, cd.Status)

	require.Len(t, cd.Removed, 1)
	assert.Equal(t, "id=2", cd.Removed[0].Identity)
	assert.True(t, facts.Equal(facts.MustValue(map[string]any{"id": "2", "status": "Blocked"}), cd.Removed[0].Item))

	require.Len(t, cd.Added, 1)
	assert.Equal(t, "id=3", cd.Added[0].Identity)

	require.Len(t, cd.Changed, 1)
	ch := cd.Changed[0]
	assert.Equal(t, "id=1", ch.Identity)
	assert.Equal(t, []string{"status"}, ch.Fields)
	assert.Equal(t, "Defined", ch.Old["status"].String())
	assert.Equal(t, "Blocked", ch.New["status"].String())

	assert.True(t, rep.HasDrift())
	assert.Equal(t, Counts{Categories: 1, Drifted: 1, Added: 1, Removed: 1, Changed: 1}, rep.Totals)
}

func TestDiff_SelfIsEmpty(t *testing.T) {
	docs := []string{
		snapA,
		`{}`,
		`{"ldevs": [{"no_key": [1, 2]}, {"no_key": [3]}], "journals": {"error": "x"}}`,
	}
	for _, doc := range docs {
		s := parse(t, doc)
		rep := Diff(s, s)
		assert.False(t, rep.HasDrift(), doc)
		assert.Zero(t, rep.Totals.Added+rep.Totals.Removed+rep.Totals.Changed, doc)
	}
}

func TestDiff_CategoryStatuses(t *testing.T) {
	older := parse(t, `{"ldevs": [], "journals": {"error": "timeout"}, "clpr": [], "users": []}`)
	newer := parse(t, `{"ldevs": {"error": "refused"}, "journals": [], "users": [], "snapshots": []}`)

	rep := Diff(older, newer)

	names := make([]string, 0, len(rep.Categories))
	for _, c := range rep.Categories {
		names = append(names, c.Category)
	}
	assert.Equal(t, []string{"ldevs", "journals", "clpr", "users", "snapshots"}, names)

	ldevs, _ := rep.Category("ldevs")
	assert.Equal(t, StatusUnavailable, ldevs.Status)
	assert.Equal(t, "refused", ldevs.NewError)
	assert.Empty(t, ldevs.OldError)

	journals, _ := rep.Category("journals")
	assert.Equal(t, StatusUnavailable, journals.Status)
	assert.Equal(t, "timeout", journals.OldError)

	clpr, _ := rep.Category("clpr")
	assert.Equal(t, StatusMissingNew, clpr.Status)

	snaps, _ := rep.Category("snapshots")
	assert.Equal(t, StatusMissingOld, snaps.Status)

	users, _ := rep.Category("users")
	assert.Equal(t, StatusCompared, users.Status)
	assert.False(t, users.HasDrift())

	assert.Equal(t, 2, rep.Totals.Unavailable)
	assert.Equal(t, 2, rep.Totals.Missing)
	assert.Equal(t, 2, rep.Totals.Drifted)
	assert.Len(t, rep.Drifted(), 2)
}

func TestDiff_Collisions(t *testing.T) {
	older := parse(t, `{"ldevs": [{"id": 1, "v": "a"}, {"id": 1, "v": "b"}]}`)
	newer := parse(t, `{"ldevs": [{"id": 1, "v": "b"}]}`)

	rep := Diff(older, newer)
	cd, _ := rep.Category("ldevs")

	// last seen wins, so the compared old item equals the new one
	assert.Empty(t, cd.Changed)
	require.Len(t, cd.Collisions, 1)
	assert.Equal(t, Collision{Side: SideOld, Identity: "id=1", Count: 2}, cd.Collisions[0])
	assert.Equal(t, 1, rep.Totals.Collisions)
}

func TestDiff_ContentIdentityStableUnderReordering(t *testing.T) {
	older := parse(t, `{"snmp_settings": [{"community": "public", "version": "v2c"}]}`)
	newer := parse(t, `{"snmp_settings": [{"version": "v2c", "community": "public"}]}`)

	rep := Diff(older, newer)
	assert.False(t, rep.HasDrift())

	// content identity means a change shows as remove plus add
	changed := parse(t, `{"snmp_settings": [{"community": "private", "version": "v2c"}]}`)
	cd, _ := Diff(older, changed).Category("snmp_settings")
	assert.Len(t, cd.Added, 1)
	assert.Len(t, cd.Removed, 1)
	assert.True(t, IsContentIdentity(cd.Added[0].Identity))
}

func TestDiff_IdentityOptions(t *testing.T) {
	older := parse(t, `{"host_groups": [{"port_id": "CL1-A", "host_group_id": 1, "name": "a"}, {"port_id": "CL2-A", "host_group_id": 1, "name": "b"}]}`)
	newer := parse(t, `{"host_groups": [{"port_id": "CL1-A", "host_group_id": 1, "name": "a"}, {"port_id": "CL2-A", "host_group_id": 1, "name": "c"}]}`)

	t.Run("default keys use port_id", func(t *testing.T) {
		cd, _ := Diff(older, newer).Category("host_groups")
		require.Len(t, cd.Changed, 1)
		assert.Equal(t, "port_id=CL2-A", cd.Changed[0].Identity)
	})

	t.Run("explicit keys", func(t *testing.T) {
		cd, _ := Diff(older, newer, WithIdentityKeys("name")).Category("host_groups")
		assert.Len(t, cd.Added, 1)
		assert.Len(t, cd.Removed, 1)
		assert.Empty(t, cd.Changed)
	})

	t.Run("registry composite override", func(t *testing.T) {
		cd, _ := Diff(older, newer, WithRegistry(registry.Default())).Category("host_groups")
		require.Len(t, cd.Changed, 1)
		assert.Equal(t, "port_id=CL2-A+host_group_id=1", cd.Changed[0].Identity)
	})
}

func TestIdentity(t *testing.T) {
	item := func(m map[string]any) facts.Item {
		return facts.MustValue(m).(facts.Map)
	}

	tests := []struct {
		name string
		item facts.Item
		keys []string
		want string
	}{
		{"first present key", item(map[string]any{"name": "x", "ldev_id": 7}), DefaultIdentityKeys, "ldev_id=7"},
		{"null skipped", item(map[string]any{"id": nil, "name": "x"}), DefaultIdentityKeys, "name=x"},
		{"non scalar skipped", item(map[string]any{"id": []any{1}, "wwn": "50060e80"}), DefaultIdentityKeys, "wwn=50060e80"},
		{"composite", item(map[string]any{"a": 1, "b": "x"}), []string{"a+b"}, "a=1+b=x"},
		{"composite partial", item(map[string]any{"a": 1, "name": "n"}), []string{"a+b", "name"}, "name=n"},
		{"number canonical", item(map[string]any{"ldev_id": json.Number("7.0")}), DefaultIdentityKeys, "ldev_id=7"},
		{"separator quoted", item(map[string]any{"a": "1+b=2"}), []string{"a"}, `a="1+b=2"`},
		{"empty quoted", item(map[string]any{"name": ""}), []string{"name"}, `name=""`},
		{"bool", item(map[string]any{"wwn": true}), []string{"wwn"}, "wwn=true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Identity(tt.item, tt.keys))
		})
	}

	h := Identity(item(map[string]any{"x": 1}), DefaultIdentityKeys)
	assert.True(t, IsContentIdentity(h))
	assert.Len(t, h, len("sha256:")+64)
}

func TestIdentity_ValueCannotMimicComposite(t *testing.T) {
	single := facts.MustValue(map[string]any{"a": "1+b=2"}).(facts.Map)
	composite := facts.MustValue(map[string]any{"a": 1, "b": 2}).(facts.Map)
	assert.NotEqual(t, Identity(single, []string{"a"}), Identity(composite, []string{"a+b"}))
}

func TestDiff_NumberFormattingIsNotDrift(t *testing.T) {
	tests := []struct {
		name  string
		older string
		newer string
	}{
		{"keyless items", `{"pools": [{"size": 1}]}`, `{"pools": [{"size": 1.0}]}`},
		{"keyless nested", `{"pools": [{"cap": {"total": 1.50}}]}`, `{"pools": [{"cap": {"total": 1.5}}]}`},
		{"exponent", `{"pools": [{"size": 1000}]}`, `{"pools": [{"size": 1e3}]}`},
		{"numeric key", `{"ldevs": [{"ldev_id": 1, "status": "NML"}]}`, `{"ldevs": [{"ldev_id": 1.0, "status": "NML"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := Diff(parse(t, tt.older), parse(t, tt.newer))
			assert.False(t, rep.HasDrift())
			assert.Zero(t, rep.Totals.Added+rep.Totals.Removed+rep.Totals.Changed)
		})
	}
}

func TestChangedFields(t *testing.T) {
	a := facts.MustValue(map[string]any{"id": 1, "pool": map[string]any{"id": 0, "name": "p"}, "tags": []any{"x"}, "gone": 1})
	b := facts.MustValue(map[string]any{"id": 1, "pool": map[string]any{"id": 1, "name": "p"}, "tags": []any{"y"}, "new": 1})
	assert.Equal(t, []string{"gone", "new", "pool.id", "tags"}, changedFields(a, b, ""))
}

func TestReport_WriteText(t *testing.T) {
	older := parse(t, `{"ldevs": [{"id": "1", "status": "Defined"}, {"id": "2", "status": "Blocked"}], "journals": {"error": "timeout"}}`)
	newer := parse(t, `{"ldevs": [{"id": "1", "status": "Blocked"}, {"id": "3", "status": "Defined"}], "journals": []}`)

	var buf strings.Builder
	require.NoError(t, Diff(older, newer).WriteText(&buf))
	out := buf.String()

	assert.Contains(t, out, "old: timeout")
	assert.Contains(t, out, "  + id=3\n")
	assert.Contains(t, out, "  - id=2\n")
	assert.Contains(t, out, "  ~ id=1 (status)\n")
	assert.Contains(t, out, "1 of 2 categories drifted: 1 added, 1 removed, 1 changed, 1 unavailable")
}

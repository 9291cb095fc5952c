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
	"slices"
	"sort"

	"github.com/NVIDIA/storage-facts/pkg/facts"
	"github.com/NVIDIA/storage-facts/pkg/header"
	"github.com/NVIDIA/storage-facts/pkg/registry"
)

// Status describes how a category was compared.
type Status string

const (
	// StatusCompared means both sides were collected and compared item by item.
	StatusCompared Status = "compared"
	// StatusUnavailable means at least one side failed during collection.
	StatusUnavailable Status = "unavailable"
	// StatusMissingOld means the category exists only in the new snapshot.
	StatusMissingOld Status = "missing_old"
	// StatusMissingNew means the category exists only in the old snapshot.
	StatusMissingNew Status = "missing_new"
)

// Side names one of the two compared snapshots.
type Side string

const (
	SideOld Side = "old"
	SideNew Side = "new"
)

// Entry is an added or removed item.
type Entry struct {
	Identity string     `json:"identity" yaml:"identity"`
	Item     facts.Item `json:"item" yaml:"item"`
}

// Change is an item present on both sides with different content.
type Change struct {
	Identity string     `json:"identity" yaml:"identity"`
	Fields   []string   `json:"fields" yaml:"fields"`
	Old      facts.Item `json:"old" yaml:"old"`
	New      facts.Item `json:"new" yaml:"new"`
}

// Collision records an identity shared by several items on one side.
// The last item seen with that identity is the one compared.
type Collision struct {
	Side     Side   `json:"side" yaml:"side"`
	Identity string `json:"identity" yaml:"identity"`
	Count    int    `json:"count" yaml:"count"`
}

// CategoryDiff is the comparison result for one category.
type CategoryDiff struct {
	Category   string      `json:"category" yaml:"category"`
	Status     Status      `json:"status" yaml:"status"`
	OldError   string      `json:"oldError,omitempty" yaml:"oldError,omitempty"`
	NewError   string      `json:"newError,omitempty" yaml:"newError,omitempty"`
	Added      []Entry     `json:"added,omitempty" yaml:"added,omitempty"`
	Removed    []Entry     `json:"removed,omitempty" yaml:"removed,omitempty"`
	Changed    []Change    `json:"changed,omitempty" yaml:"changed,omitempty"`
	Collisions []Collision `json:"collisions,omitempty" yaml:"collisions,omitempty"`
}

// HasDrift reports whether the category differs between the snapshots.
// A category present on one side only counts as drift; an unavailable
// category does not, since nothing could be compared.
func (c CategoryDiff) HasDrift() bool {
	switch c.Status {
	case StatusMissingOld, StatusMissingNew:
		return true
	case StatusCompared:
		return len(c.Added)+len(c.Removed)+len(c.Changed) > 0
	default:
		return false
	}
}

// Counts totals a report.
type Counts struct {
	Categories  int `json:"categories" yaml:"categories"`
	Drifted     int `json:"drifted" yaml:"drifted"`
	Added       int `json:"added" yaml:"added"`
	Removed     int `json:"removed" yaml:"removed"`
	Changed     int `json:"changed" yaml:"changed"`
	Unavailable int `json:"unavailable" yaml:"unavailable"`
	Missing     int `json:"missing" yaml:"missing"`
	Collisions  int `json:"collisions" yaml:"collisions"`
}

// Report is the comparison of two snapshots.
type Report struct {
	header.Header `json:",inline" yaml:",inline"`

	OldRunID   string         `json:"oldRunId,omitempty" yaml:"oldRunId,omitempty"`
	NewRunID   string         `json:"newRunId,omitempty" yaml:"newRunId,omitempty"`
	Categories []CategoryDiff `json:"categories" yaml:"categories"`
	Totals     Counts         `json:"totals" yaml:"totals"`
}

// HasDrift reports whether any category drifted.
func (r *Report) HasDrift() bool {
	return r.Totals.Drifted > 0
}

// Category returns the result for one category.
func (r *Report) Category(name string) (CategoryDiff, bool) {
	for _, c := range r.Categories {
		if c.Category == name {
			return c, true
		}
	}
	return CategoryDiff{}, false
}

// Drifted returns only the categories that drifted.
func (r *Report) Drifted() []CategoryDiff {
	var out []CategoryDiff
	for _, c := range r.Categories {
		if c.HasDrift() {
			out = append(out, c)
		}
	}
	return out
}

type options struct {
	keys     []string
	registry *registry.Registry
}

// Option configures Diff.
type Option func(*options)

// WithIdentityKeys replaces the default identity priority.
func WithIdentityKeys(keys ...string) Option {
	return func(o *options) {
		if len(keys) > 0 {
			o.keys = slices.Clone(keys)
		}
	}
}

// WithRegistry enables per-category identity overrides from reg. Override
// keys are tried before the general priority.
func WithRegistry(reg *registry.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// Diff compares two snapshots category by category. Categories are reported
// in old order followed by categories only present in new. Diff never fails.
func Diff(older, newer *facts.Snapshot, opts ...Option) *Report {
	o := &options{keys: DefaultIdentityKeys}
	for _, opt := range opts {
		opt(o)
	}

	rep := &Report{Categories: make([]CategoryDiff, 0, older.Len()+newer.Len())}
	rep.Init(header.KindDiffReport, "")
	if md, ok := older.Metadata(); ok {
		rep.OldRunID = md.RunID
	}
	if md, ok := newer.Metadata(); ok {
		rep.NewRunID = md.RunID
	}

	names := older.Categories()
	for _, n := range newer.Categories() {
		if !older.Has(n) {
			names = append(names, n)
		}
	}

	for _, name := range names {
		oldRec, inOld := older.Record(name)
		newRec, inNew := newer.Record(name)
		cd := compareCategory(name, oldRec, inOld, newRec, inNew, o.identityKeys(name))
		rep.Categories = append(rep.Categories, cd)
		rep.Totals.add(cd)
	}
	return rep
}

func (o *options) identityKeys(category string) []string {
	if o.registry == nil {
		return o.keys
	}
	override := o.registry.IdentityKeys(category)
	if len(override) == 0 {
		return o.keys
	}
	return append(override, o.keys...)
}

func (c *Counts) add(cd CategoryDiff) {
	c.Categories++
	if cd.HasDrift() {
		c.Drifted++
	}
	c.Added += len(cd.Added)
	c.Removed += len(cd.Removed)
	c.Changed += len(cd.Changed)
	c.Collisions += len(cd.Collisions)
	switch cd.Status {
	case StatusUnavailable:
		c.Unavailable++
	case StatusMissingOld, StatusMissingNew:
		c.Missing++
	}
}

func compareCategory(name string, oldRec facts.Record, inOld bool, newRec facts.Record, inNew bool, keys []string) CategoryDiff {
	cd := CategoryDiff{Category: name}

	switch {
	case !inOld:
		cd.Status = StatusMissingOld
		return cd
	case !inNew:
		cd.Status = StatusMissingNew
		return cd
	case oldRec.IsFailed() || newRec.IsFailed():
		cd.Status = StatusUnavailable
		cd.OldError = oldRec.Error
		cd.NewError = newRec.Error
		return cd
	}

	cd.Status = StatusCompared
	oldIdx := index(oldRec.Items, keys, SideOld, &cd.Collisions)
	newIdx := index(newRec.Items, keys, SideNew, &cd.Collisions)

	for _, id := range newIdx.order {
		n := newIdx.items[id]
		o, ok := oldIdx.items[id]
		if !ok {
			cd.Added = append(cd.Added, Entry{Identity: id, Item: n})
			continue
		}
		if !facts.Equal(o, n) {
			cd.Changed = append(cd.Changed, Change{
				Identity: id,
				Fields:   changedFields(o, n, ""),
				Old:      o,
				New:      n,
			})
		}
	}
	for _, id := range oldIdx.order {
		if _, ok := newIdx.items[id]; !ok {
			cd.Removed = append(cd.Removed, Entry{Identity: id, Item: oldIdx.items[id]})
		}
	}
	return cd
}

type itemIndex struct {
	items map[string]facts.Item
	order []string
}

// index maps identity to item. When identities repeat the last item wins
// and a collision is recorded.
func index(items []facts.Item, keys []string, side Side, collisions *[]Collision) itemIndex {
	idx := itemIndex{items: make(map[string]facts.Item, len(items))}
	counts := make(map[string]int, len(items))
	for _, it := range items {
		id := Identity(it, keys)
		if counts[id] == 0 {
			idx.order = append(idx.order, id)
		}
		counts[id]++
		idx.items[id] = it
	}
	for _, id := range idx.order {
		if counts[id] > 1 {
			*collisions = append(*collisions, Collision{Side: side, Identity: id, Count: counts[id]})
		}
	}
	return idx
}

// changedFields lists the dotted paths whose values differ. Maps are walked
// recursively; lists and scalars are compared whole.
func changedFields(a, b facts.Value, prefix string) []string {
	om, oldIsMap := a.(facts.Map)
	nm, newIsMap := b.(facts.Map)
	if !oldIsMap || !newIsMap {
		if facts.Equal(a, b) {
			return nil
		}
		return []string{prefix}
	}

	keys := make(map[string]struct{}, len(om)+len(nm))
	for k := range om {
		keys[k] = struct{}{}
	}
	for k := range nm {
		keys[k] = struct{}{}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	var out []string
	for _, k := range sorted {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		ov, inOld := om[k]
		nv, inNew := nm[k]
		if !inOld || !inNew {
			out = append(out, path)
			continue
		}
		out = append(out, changedFields(ov, nv, path)...)
	}
	return out
}

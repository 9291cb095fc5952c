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

package facts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"gopkg.in/yaml.v3"
)

// Status is the outcome of fetching one category.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Record is the result for one category: either a list of items or the
// error recorded when the fetch failed.
type Record struct {
	Category string
	Status   Status
	Items    []Item
	Error    string
}

// OK returns an ok record holding items.
func OK(category string, items []Item) Record {
	if items == nil {
		items = []Item{}
	}
	return Record{Category: category, Status: StatusOK, Items: items}
}

// Failed returns a failed record holding the fetch error message.
func Failed(category, message string) Record {
	return Record{Category: category, Status: StatusFailed, Error: message}
}

// IsFailed reports whether the category fetch failed.
func (r Record) IsFailed() bool {
	return r.Status == StatusFailed
}

// Value returns the persisted form of the record: the item list or an
// {"error": message} mapping.
func (r Record) Value() Value {
	if r.IsFailed() {
		return Map{"error": String(r.Error)}
	}
	list := make(List, len(r.Items))
	for i, it := range r.Items {
		list[i] = it
	}
	return list
}

// Metadata describes one collection run. It is not part of the category
// document and is persisted next to it.
type Metadata struct {
	RunID      string         `json:"runId" yaml:"runId"`
	CapturedAt time.Time      `json:"capturedAt" yaml:"capturedAt"`
	Target     string         `json:"target,omitempty" yaml:"target,omitempty"`
	Version    string         `json:"version,omitempty" yaml:"version,omitempty"`
	Counts     map[string]int `json:"counts,omitempty" yaml:"counts,omitempty"`
	Failed     []string       `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// Snapshot is the ordered aggregate of category records from one run.
// It is immutable once built.
type Snapshot struct {
	records []Record
	index   map[string]int
	meta    *Metadata
}

// NewSnapshot builds a snapshot from records in order. Category names must
// be unique and non-empty.
func NewSnapshot(records ...Record) (*Snapshot, error) {
	s := &Snapshot{
		records: make([]Record, 0, len(records)),
		index:   make(map[string]int, len(records)),
	}
	for _, r := range records {
		if r.Category == "" {
			return nil, fmt.Errorf("record has empty category name")
		}
		if _, dup := s.index[r.Category]; dup {
			return nil, fmt.Errorf("category %q appears more than once", r.Category)
		}
		if r.Status != StatusFailed {
			r.Status = StatusOK
			if r.Items == nil {
				r.Items = []Item{}
			}
		} else {
			r.Items = nil
		}
		s.index[r.Category] = len(s.records)
		s.records = append(s.records, r)
	}
	return s, nil
}

// WithMetadata returns a copy of the snapshot carrying md.
func (s *Snapshot) WithMetadata(md Metadata) *Snapshot {
	md.Counts = maps.Clone(md.Counts)
	return &Snapshot{records: s.records, index: s.index, meta: &md}
}

// Metadata returns a copy of the run metadata, if any.
func (s *Snapshot) Metadata() (Metadata, bool) {
	if s.meta == nil {
		return Metadata{}, false
	}
	md := *s.meta
	md.Counts = maps.Clone(md.Counts)
	return md, true
}

// Len returns the number of categories.
func (s *Snapshot) Len() int {
	return len(s.records)
}

// Categories returns the category names in document order.
func (s *Snapshot) Categories() []string {
	names := make([]string, len(s.records))
	for i, r := range s.records {
		names[i] = r.Category
	}
	return names
}

// Records returns the records in document order.
func (s *Snapshot) Records() []Record {
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Record returns the record for category.
func (s *Snapshot) Record(category string) (Record, bool) {
	i, ok := s.index[category]
	if !ok {
		return Record{}, false
	}
	return s.records[i], true
}

// Has reports whether the snapshot contains category.
func (s *Snapshot) Has(category string) bool {
	_, ok := s.index[category]
	return ok
}

// Counts returns the item count of every ok category.
func (s *Snapshot) Counts() map[string]int {
	out := make(map[string]int, len(s.records))
	for _, r := range s.records {
		if !r.IsFailed() {
			out[r.Category] = len(r.Items)
		}
	}
	return out
}

// FailedCategories returns the names of failed categories in order.
func (s *Snapshot) FailedCategories() []string {
	var out []string
	for _, r := range s.records {
		if r.IsFailed() {
			out = append(out, r.Category)
		}
	}
	return out
}

// Equal reports whether both snapshots hold the same categories in the same
// order with deeply equal records. Metadata is ignored.
func (s *Snapshot) Equal(o *Snapshot) bool {
	if s == nil || o == nil {
		return s == o
	}
	if len(s.records) != len(o.records) {
		return false
	}
	for i, r := range s.records {
		q := o.records[i]
		if r.Category != q.Category || r.Status != q.Status {
			return false
		}
		if !Equal(r.Value(), q.Value()) {
			return false
		}
	}
	return true
}

// MarshalJSON writes one object whose keys are the categories in order.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range s.records {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(r.Category)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.Value())
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", r.Category, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML writes one mapping whose keys are the categories in order.
func (s *Snapshot) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, r := range s.records {
		var val yaml.Node
		if err := val.Encode(r.Value()); err != nil {
			return nil, fmt.Errorf("category %q: %w", r.Category, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: r.Category},
			&val)
	}
	return node, nil
}

// UnmarshalJSON decodes a persisted snapshot without a category catalog check.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	parsed, err := parseJSON(data, nil)
	if err != nil {
		return err
	}
	*s = *parsed
	return nil
}

// UnmarshalYAML decodes a persisted snapshot without a category catalog check.
func (s *Snapshot) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := parseYAMLNode(node, nil)
	if err != nil {
		return err
	}
	*s = *parsed
	return nil
}

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

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	apperrors "github.com/NVIDIA/storage-facts/pkg/errors"
	"github.com/NVIDIA/storage-facts/pkg/facts"
	"github.com/NVIDIA/storage-facts/pkg/header"
	"github.com/NVIDIA/storage-facts/pkg/registry"
)

// CategoryEntry is one row of the category listing.
type CategoryEntry struct {
	Name   string            `json:"name" yaml:"name"`
	Source string            `json:"source" yaml:"source"`
	Spec   map[string]string `json:"spec,omitempty" yaml:"spec,omitempty"`
}

// CategoryList lists the categories a registry can collect.
type CategoryList struct {
	header.Header `json:",inline" yaml:",inline"`

	Categories []CategoryEntry `json:"categories" yaml:"categories"`
}

// List returns the registry categories in declaration order.
func List(reg *registry.Registry) *CategoryList {
	out := &CategoryList{Categories: make([]CategoryEntry, 0, reg.Len())}
	out.Init(header.KindCategoryList, "")
	for _, d := range reg.Descriptors() {
		out.Categories = append(out.Categories, CategoryEntry{
			Name:   d.Category,
			Source: d.Source,
			Spec:   d.Spec,
		})
	}
	return out
}

// CategorySummary is the status of one category in a snapshot.
type CategorySummary struct {
	Category  string       `json:"category" yaml:"category"`
	Status    facts.Status `json:"status" yaml:"status"`
	ItemCount int          `json:"itemCount" yaml:"itemCount"`
	Error     string       `json:"error,omitempty" yaml:"error,omitempty"`
}

// Totals aggregates a summary.
type Totals struct {
	Categories int `json:"categories" yaml:"categories"`
	OK         int `json:"ok" yaml:"ok"`
	Failed     int `json:"failed" yaml:"failed"`
	Items      int `json:"items" yaml:"items"`
}

// Summary reports the status and size of every category in a snapshot.
type Summary struct {
	header.Header `json:",inline" yaml:",inline"`

	Categories []CategorySummary `json:"categories" yaml:"categories"`
	Totals     Totals            `json:"totals" yaml:"totals"`
}

// Summarize builds the summary of snap in document order. Failed categories
// carry their error and a zero count.
func Summarize(snap *facts.Snapshot) *Summary {
	out := &Summary{Categories: make([]CategorySummary, 0, snap.Len())}
	out.Init(header.KindSummary, "")
	if md, ok := snap.Metadata(); ok {
		out.Metadata[header.MetadataSource] = md.RunID
	}

	for _, r := range snap.Records() {
		cs := CategorySummary{Category: r.Category, Status: r.Status}
		if r.IsFailed() {
			cs.Error = r.Error
			out.Totals.Failed++
		} else {
			cs.ItemCount = len(r.Items)
			out.Totals.OK++
			out.Totals.Items += cs.ItemCount
		}
		out.Categories = append(out.Categories, cs)
	}
	out.Totals.Categories = len(out.Categories)
	return out
}

// Extraction is the report form of an extract or filter result.
type Extraction struct {
	header.Header `json:",inline" yaml:",inline"`

	Snapshot string       `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`
	Category string       `json:"category" yaml:"category"`
	Filter   string       `json:"filter,omitempty" yaml:"filter,omitempty"`
	Count    int          `json:"count" yaml:"count"`
	Items    []facts.Item `json:"items" yaml:"items"`
}

// NewExtraction wraps items taken from category of snap. filter describes
// the selection, empty for a plain extract.
func NewExtraction(snap *facts.Snapshot, category, filter string, items []facts.Item) *Extraction {
	out := &Extraction{
		Category: category,
		Filter:   filter,
		Count:    len(items),
		Items:    items,
	}
	out.Init(header.KindExtract, "")
	if md, ok := snap.Metadata(); ok {
		out.Snapshot = md.RunID
	}
	if out.Items == nil {
		out.Items = []facts.Item{}
	}
	return out
}

// Extract returns the items of category.
func Extract(snap *facts.Snapshot, category string) ([]facts.Item, error) {
	r, err := record(snap, category)
	if err != nil {
		return nil, err
	}
	return r.Items, nil
}

// Count returns the number of items in category.
func Count(snap *facts.Snapshot, category string) (int, error) {
	r, err := record(snap, category)
	if err != nil {
		return 0, err
	}
	return len(r.Items), nil
}

// Filter returns the items of category whose scalar value at the dotted
// key path equals value, ignoring case. Items missing the path or holding a
// list or map there are excluded. An empty result is not an error.
func Filter(snap *facts.Snapshot, category, key, value string) ([]facts.Item, error) {
	fold := cases.Fold()
	want := fold.String(value)
	return filter(snap, category, key, func(got string) bool {
		return fold.String(got) == want
	})
}

// FilterPattern is Filter with '*' wildcards in pattern, matched after case
// folding. "CL1-*" matches every port on cluster 1.
func FilterPattern(snap *facts.Snapshot, category, key, pattern string) ([]facts.Item, error) {
	fold := cases.Fold()
	want := fold.String(pattern)
	return filter(snap, category, key, func(got string) bool {
		return MatchPattern(fold.String(got), want)
	})
}

func filter(snap *facts.Snapshot, category, key string, match func(string) bool) ([]facts.Item, error) {
	path, err := splitPath(key)
	if err != nil {
		return nil, err
	}
	r, err := record(snap, category)
	if err != nil {
		return nil, err
	}

	out := make([]facts.Item, 0)
	for _, item := range r.Items {
		v, ok := facts.LookupPath(item, path)
		if !ok {
			continue
		}
		s, ok := v.(facts.Scalar)
		if !ok {
			continue
		}
		if match(s.String()) {
			out = append(out, item)
		}
	}
	return out, nil
}

func splitPath(key string) ([]string, error) {
	if strings.TrimSpace(key) == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "filter key path is empty")
	}
	path := strings.Split(key, ".")
	for _, seg := range path {
		if seg == "" {
			return nil, apperrors.New(apperrors.ErrCodeInvalidRequest,
				fmt.Sprintf("filter key path %q has an empty segment", key))
		}
	}
	return path, nil
}

func record(snap *facts.Snapshot, category string) (facts.Record, error) {
	r, ok := snap.Record(category)
	if !ok {
		return facts.Record{}, registry.UnknownCategoryError(category, snap.Categories())
	}
	if r.IsFailed() {
		return facts.Record{}, apperrors.NewWithContext(apperrors.ErrCodeCategoryUnavailable,
			fmt.Sprintf("category %q was not collected: %s", category, r.Error),
			map[string]any{
				"category": category,
				"error":    r.Error,
			})
	}
	return r, nil
}

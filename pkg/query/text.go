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
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/NVIDIA/storage-facts/pkg/facts"
	"github.com/NVIDIA/storage-facts/pkg/header"
)

// CountResult is the report form of a category count.
type CountResult struct {
	header.Header `json:",inline" yaml:",inline"`

	Snapshot string `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`
	Category string `json:"category" yaml:"category"`
	Count    int    `json:"count" yaml:"count"`
}

// NewCountResult wraps the count n of category in snap.
func NewCountResult(snap *facts.Snapshot, category string, n int) *CountResult {
	out := &CountResult{Category: category, Count: n}
	out.Init(header.KindExtract, "")
	if md, ok := snap.Metadata(); ok {
		out.Snapshot = md.RunID
	}
	return out
}

// WriteText writes the bare count.
func (c *CountResult) WriteText(w io.Writer) error {
	_, err := fmt.Fprintln(w, c.Count)
	return err
}

// WriteText renders one line per category.
func (l *CategoryList) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tSOURCE\tSPEC")
	for _, c := range l.Categories {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, c.Source, formatSpec(c.Spec))
	}
	return tw.Flush()
}

// WriteText renders the per-category status followed by the totals.
func (s *Summary) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tSTATUS\tITEMS\tERROR")
	for _, c := range s.Categories {
		items := fmt.Sprint(c.ItemCount)
		if c.Status == facts.StatusFailed {
			items = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Category, c.Status, items, c.Error)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d categories: %d ok, %d failed, %d items\n",
		s.Totals.Categories, s.Totals.OK, s.Totals.Failed, s.Totals.Items)
	return err
}

func formatSpec(spec map[string]string) string {
	if len(spec) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(spec))
	for k := range spec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + spec[k]
	}
	return strings.Join(parts, ",")
}

// WriteText renders the verdict followed by each finding.
func (r *ValidationReport) WriteText(w io.Writer) error {
	verdict := "valid"
	if !r.Valid {
		verdict = "invalid"
	}
	if _, err := fmt.Fprintf(w, "snapshot is %s (%d categories, %d errors, %d warnings)\n",
		verdict, r.Categories, len(r.Errors), len(r.Warnings)); err != nil {
		return err
	}
	for _, f := range r.Errors {
		fmt.Fprintf(w, "  error: %s\n", f)
	}
	for _, f := range r.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", f)
	}
	return nil
}

// String renders the finding with its category, if any.
func (f Finding) String() string {
	if f.Category == "" {
		return f.Message
	}
	return f.Category + ": " + f.Message
}

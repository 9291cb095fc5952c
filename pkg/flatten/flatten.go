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

package flatten

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/NVIDIA/storage-facts/pkg/facts"
	"github.com/NVIDIA/storage-facts/pkg/query"
)

// ListPolicy controls how lists are flattened.
type ListPolicy string

const (
	// ListIndex expands list elements into parent.0, parent.1 ... columns.
	ListIndex ListPolicy = "index"
	// ListJSON keeps a list in one column holding its canonical JSON.
	ListJSON ListPolicy = "json"
)

// ParseListPolicy parses a policy name. The empty string selects ListIndex.
func ParseListPolicy(s string) (ListPolicy, error) {
	switch ListPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case ListIndex, "":
		return ListIndex, nil
	case ListJSON:
		return ListJSON, nil
	default:
		return "", fmt.Errorf("unknown list policy %q (want %s or %s)", s, ListIndex, ListJSON)
	}
}

// Options configures flattening and table layout.
type Options struct {
	// Lists selects the list policy. Defaults to ListIndex.
	Lists ListPolicy
	// Missing is written for cells absent from a row.
	Missing string
	// Columns keeps only columns matching one of these wildcard patterns.
	Columns []string
}

// Row maps dotted key paths to scalar text.
type Row map[string]string

// Flatten converts items into rows.
func Flatten(items []facts.Item, opts Options) []Row {
	rows := make([]Row, len(items))
	for i, it := range items {
		rows[i] = FlattenItem(it, opts)
	}
	return rows
}

// FlattenItem converts one item into a row. Null becomes an empty cell, and
// an empty map or list becomes an empty cell at its own path so that the
// column is kept.
func FlattenItem(item facts.Item, opts Options) Row {
	row := make(Row)
	flattenValue(row, item, "", opts.Lists)
	return row
}

func flattenValue(out Row, v facts.Value, prefix string, policy ListPolicy) {
	switch node := v.(type) {
	case facts.Map:
		if len(node) == 0 {
			if prefix != "" {
				out[prefix] = ""
			}
			return
		}
		keys := make([]string, 0, len(node))
		for k := range node {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flattenValue(out, node[k], joinKey(prefix, escapeKey(k)), policy)
		}
	case facts.List:
		if len(node) == 0 {
			out[prefix] = ""
			return
		}
		if policy == ListJSON {
			out[prefix] = facts.Canonical(node)
			return
		}
		for i, child := range node {
			flattenValue(out, child, joinKey(prefix, strconv.Itoa(i)), policy)
		}
	case facts.Scalar:
		if node.Kind() == facts.KindNull {
			out[prefix] = ""
			return
		}
		out[prefix] = node.String()
	}
}

var keyEscaper = strings.NewReplacer(`\`, `\\`, ".", `\.`)

// escapeKey escapes backslashes and dots in a map key so that a key
// containing a literal dot cannot collide with a nested path.
func escapeKey(k string) string {
	return keyEscaper.Replace(k)
}

func joinKey(prefix, suffix string) string {
	if prefix == "" {
		return suffix
	}
	return prefix + "." + suffix
}

// Table is a rectangular rendering of rows.
type Table struct {
	Columns []string   `json:"columns" yaml:"columns"`
	Rows    [][]string `json:"rows" yaml:"rows"`
}

// NewTable lays rows out under the sorted union of their keys. Cells missing
// from a row hold opts.Missing.
func NewTable(rows []Row, opts Options) *Table {
	set := make(map[string]struct{})
	for _, r := range rows {
		for k := range r {
			if len(opts.Columns) > 0 && !query.MatchAny(k, opts.Columns) {
				continue
			}
			set[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(set))
	for k := range set {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	t := &Table{Columns: cols, Rows: make([][]string, len(rows))}
	for i, r := range rows {
		cells := make([]string, len(cols))
		for j, c := range cols {
			v, ok := r[c]
			if !ok {
				v = opts.Missing
			}
			cells[j] = v
		}
		t.Rows[i] = cells
	}
	return t
}

// Export flattens items and lays them out as a table.
func Export(items []facts.Item, opts Options) *Table {
	return NewTable(Flatten(items, opts), opts)
}

// WriteCSV writes the header row followed by every row.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("failed to write csv rows: %w", err)
	}
	return nil
}

// WriteText writes an aligned plain-text table.
func (t *Table) WriteText(w io.Writer) error {
	if len(t.Columns) == 0 {
		_, err := fmt.Fprintln(w, "<empty>")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Columns, "\t"))
	seps := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		seps[i] = strings.Repeat("-", len(c))
	}
	fmt.Fprintln(tw, strings.Join(seps, "\t"))
	for _, r := range t.Rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}

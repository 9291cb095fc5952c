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

package store

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/NVIDIA/storage-facts/pkg/header"
)

// History is the report form of a snapshot listing.
type History struct {
	header.Header `json:",inline" yaml:",inline"`

	Store     string  `json:"store" yaml:"store"`
	Snapshots []Entry `json:"snapshots" yaml:"snapshots"`
}

// NewHistory wraps entries read from the store at path.
func NewHistory(path string, entries []Entry) *History {
	h := &History{Store: path, Snapshots: entries}
	h.Init(header.KindHistory, "")
	if h.Snapshots == nil {
		h.Snapshots = []Entry{}
	}
	return h
}

// WriteText renders one line per snapshot, newest first.
func (h *History) WriteText(w io.Writer) error {
	if len(h.Snapshots) == 0 {
		_, err := fmt.Fprintln(w, "<empty>")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	cols := []string{"ID", "CAPTURED", "TARGET", "VERSION", "CATEGORIES", "FAILED"}
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
	for _, e := range h.Snapshots {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			e.ID, e.CapturedAt.Format(time.RFC3339), dash(e.Target), dash(e.Version), e.Categories, e.Failed)
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

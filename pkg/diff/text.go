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
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// WriteText renders a per-category overview followed by the identities that
// were added, removed or changed.
func (r *Report) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tSTATUS\tADDED\tREMOVED\tCHANGED\tNOTE")
	for _, c := range r.Categories {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
			c.Category, c.Status, len(c.Added), len(c.Removed), len(c.Changed), note(c))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, c := range r.Categories {
		if len(c.Added)+len(c.Removed)+len(c.Changed) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n", c.Category)
		for _, e := range c.Added {
			fmt.Fprintf(w, "  + %s\n", e.Identity)
		}
		for _, e := range c.Removed {
			fmt.Fprintf(w, "  - %s\n", e.Identity)
		}
		for _, ch := range c.Changed {
			fmt.Fprintf(w, "  ~ %s (%s)\n", ch.Identity, strings.Join(ch.Fields, ", "))
		}
	}

	_, err := fmt.Fprintf(w, "\n%d of %d categories drifted: %d added, %d removed, %d changed, %d unavailable\n",
		r.Totals.Drifted, r.Totals.Categories, r.Totals.Added, r.Totals.Removed, r.Totals.Changed, r.Totals.Unavailable)
	return err
}

func note(c CategoryDiff) string {
	var parts []string
	if c.OldError != "" {
		parts = append(parts, "old: "+c.OldError)
	}
	if c.NewError != "" {
		parts = append(parts, "new: "+c.NewError)
	}
	if len(c.Collisions) > 0 {
		parts = append(parts, fmt.Sprintf("%d identity collisions", len(c.Collisions)))
	}
	return strings.Join(parts, "; ")
}

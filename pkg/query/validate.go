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
	"errors"
	"fmt"

	apperrors "github.com/NVIDIA/storage-facts/pkg/errors"
	"github.com/NVIDIA/storage-facts/pkg/facts"
	"github.com/NVIDIA/storage-facts/pkg/header"
	"github.com/NVIDIA/storage-facts/pkg/registry"
)

// Finding is one validation error or warning.
type Finding struct {
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	Message  string `json:"message" yaml:"message"`
}

// ValidationReport describes the structural health of a persisted snapshot.
type ValidationReport struct {
	header.Header `json:",inline" yaml:",inline"`

	Valid      bool      `json:"valid" yaml:"valid"`
	Categories int       `json:"categories" yaml:"categories"`
	Errors     []Finding `json:"errors,omitempty" yaml:"errors,omitempty"`
	Warnings   []Finding `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Validate parses data and reports structural errors and warnings. The
// parsed snapshot is returned when the document is valid.
func Validate(data []byte, reg *registry.Registry) (*ValidationReport, *facts.Snapshot) {
	snap, err := facts.Parse(data, reg)
	if err != nil {
		rep := &ValidationReport{}
		rep.Init(header.KindValidationResult, "")
		f := Finding{Message: err.Error()}
		var se *apperrors.StructuredError
		if errors.As(err, &se) {
			if c, ok := se.Context["category"].(string); ok {
				f.Category = c
			}
		}
		rep.Errors = append(rep.Errors, f)
		return rep, nil
	}
	return Inspect(snap, reg), snap
}

// Inspect reports warnings for an already loaded snapshot: failed
// categories, empty categories and registered categories that are absent.
func Inspect(snap *facts.Snapshot, reg *registry.Registry) *ValidationReport {
	rep := &ValidationReport{Valid: true, Categories: snap.Len()}
	rep.Init(header.KindValidationResult, "")

	if snap.Len() == 0 {
		rep.Warnings = append(rep.Warnings, Finding{Message: "snapshot has no categories"})
	}

	for _, r := range snap.Records() {
		switch {
		case r.IsFailed():
			rep.Warnings = append(rep.Warnings, Finding{
				Category: r.Category,
				Message:  fmt.Sprintf("category failed: %s", r.Error),
			})
		case len(r.Items) == 0:
			rep.Warnings = append(rep.Warnings, Finding{
				Category: r.Category,
				Message:  "category has no items",
			})
		}
	}

	if reg != nil {
		for _, name := range reg.List() {
			if !snap.Has(name) {
				rep.Warnings = append(rep.Warnings, Finding{
					Category: name,
					Message:  "registered category is missing",
				})
			}
		}
	}
	return rep
}

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
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/NVIDIA/storage-facts/pkg/errors"
)

// modulePrefix is the collection namespace of the array's fact modules.
const modulePrefix = "hitachivantara.vspone_block.vsp."

// Descriptor describes how one category is fetched and how its items are
// identified when two snapshots are compared.
type Descriptor struct {
	// Category is the unique category name used as the snapshot key.
	Category string `json:"category" yaml:"category"`

	// Source identifies the fact source (module) that returns the category payload.
	Source string `json:"source" yaml:"source"`

	// Spec is an optional sub-selector passed to the source, for sources that
	// serve several categories.
	Spec map[string]string `json:"spec,omitempty" yaml:"spec,omitempty"`

	// IdentityKeys overrides the default identity priority for diffing.
	// An entry may combine fields with "+" (e.g. "port_id+host_group_id").
	IdentityKeys []string `json:"identityKeys,omitempty" yaml:"identityKeys,omitempty"`
}

// Registry is an immutable, declaration-ordered set of category descriptors.
type Registry struct {
	descriptors []Descriptor
	index       map[string]int
}

// New creates a Registry from descriptors in declaration order.
// Empty names, empty sources and duplicate categories are rejected.
func New(descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{
		descriptors: make([]Descriptor, 0, len(descriptors)),
		index:       make(map[string]int, len(descriptors)),
	}
	for i, d := range descriptors {
		d.Category = strings.TrimSpace(d.Category)
		if d.Category == "" {
			return nil, apperrors.New(apperrors.ErrCodeInvalidRequest,
				fmt.Sprintf("descriptor %d: category name is required", i))
		}
		if strings.TrimSpace(d.Source) == "" {
			return nil, apperrors.New(apperrors.ErrCodeInvalidRequest,
				fmt.Sprintf("category %q: source is required", d.Category))
		}
		if _, dup := r.index[d.Category]; dup {
			return nil, apperrors.New(apperrors.ErrCodeInvalidRequest,
				fmt.Sprintf("category %q registered twice", d.Category))
		}
		r.index[d.Category] = len(r.descriptors)
		r.descriptors = append(r.descriptors, clone(d))
	}
	return r, nil
}

// MustNew is like New but panics on error. Intended for static tables.
func MustNew(descriptors ...Descriptor) *Registry {
	r, err := New(descriptors...)
	if err != nil {
		panic(err)
	}
	return r
}

// List returns the category names in declaration order.
func (r *Registry) List() []string {
	names := make([]string, len(r.descriptors))
	for i, d := range r.descriptors {
		names[i] = d.Category
	}
	return names
}

// Descriptors returns copies of all descriptors in declaration order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, len(r.descriptors))
	for i, d := range r.descriptors {
		out[i] = clone(d)
	}
	return out
}

// Len returns the number of registered categories.
func (r *Registry) Len() int {
	return len(r.descriptors)
}

// Lookup returns the descriptor registered for category.
func (r *Registry) Lookup(category string) (Descriptor, bool) {
	i, ok := r.index[category]
	if !ok {
		return Descriptor{}, false
	}
	return clone(r.descriptors[i]), true
}

// Has reports whether category is registered.
func (r *Registry) Has(category string) bool {
	_, ok := r.index[category]
	return ok
}

// IdentityKeys returns the identity override for category, or nil.
func (r *Registry) IdentityKeys(category string) []string {
	i, ok := r.index[category]
	if !ok {
		return nil
	}
	return slices.Clone(r.descriptors[i].IdentityKeys)
}

// Resolve validates a caller-supplied category selection and returns the
// matching descriptors in the order given. An empty selection resolves to
// every registered category.
func (r *Registry) Resolve(categories []string) ([]Descriptor, error) {
	if len(categories) == 0 {
		return r.Descriptors(), nil
	}

	seen := make(map[string]bool, len(categories))
	out := make([]Descriptor, 0, len(categories))
	for _, name := range categories {
		d, ok := r.Lookup(name)
		if !ok {
			return nil, UnknownCategoryError(name, r.List())
		}
		if seen[name] {
			return nil, apperrors.New(apperrors.ErrCodeInvalidRequest,
				fmt.Sprintf("category %q selected more than once", name))
		}
		seen[name] = true
		out = append(out, d)
	}
	return out, nil
}

// Validate reports the first unknown or duplicated name in categories.
func (r *Registry) Validate(categories []string) error {
	_, err := r.Resolve(categories)
	return err
}

// UnknownCategoryError builds the error returned when a caller names a
// category that is not available.
func UnknownCategoryError(name string, available []string) error {
	return apperrors.NewWithContext(apperrors.ErrCodeUnknownCategory,
		fmt.Sprintf("category %q not found", name),
		map[string]any{
			"category":  name,
			"available": available,
		})
}

// file is the YAML layout accepted by Load.
type file struct {
	Categories []Descriptor `yaml:"categories"`
}

// Load reads a registry definition in YAML:
//
//	categories:
//	  - category: ldevs
//	    source: hitachivantara.vspone_block.vsp.hv_ldev_facts
//	    identityKeys: [ldev_id]
func Load(r io.Reader) (*Registry, error) {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "failed to decode registry", err)
	}
	if len(f.Categories) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "registry defines no categories")
	}
	return New(f.Categories...)
}

// FromFile loads a registry definition from a YAML file.
func FromFile(path string) (*Registry, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry file: %w", err)
	}
	defer fh.Close()
	return Load(fh)
}

func clone(d Descriptor) Descriptor {
	d.Spec = maps.Clone(d.Spec)
	d.IdentityKeys = slices.Clone(d.IdentityKeys)
	return d
}

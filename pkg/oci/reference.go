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

package oci

import (
	"fmt"
	"strings"

	"github.com/distribution/reference"

	apperrors "github.com/NVIDIA/storage-facts/pkg/errors"
)

// URIScheme marks a registry destination.
const URIScheme = "oci://"

// DefaultTag is applied when a registry reference carries no tag.
const DefaultTag = "latest"

// Reference is a parsed publish destination.
type Reference struct {
	// IsOCI is true for registry references and false for a local layout.
	IsOCI bool
	// Registry is the registry host, e.g. "ghcr.io" or "localhost:5000".
	Registry string
	// Repository is the repository path, e.g. "acme/vsp-facts".
	Repository string
	// Tag is empty when the reference had none.
	Tag string
	// LocalPath is the OCI image layout directory when IsOCI is false.
	LocalPath string
}

// IsOCIURI reports whether target names a registry.
func IsOCIURI(target string) bool {
	return strings.HasPrefix(target, URIScheme)
}

// ParseOutputTarget parses "oci://registry/repository[:tag]" or a local
// directory path.
func ParseOutputTarget(target string) (*Reference, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "publish target is empty")
	}
	if !IsOCIURI(target) {
		return &Reference{LocalPath: target}, nil
	}

	named, err := reference.ParseNormalizedNamed(strings.TrimPrefix(target, URIScheme))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "invalid OCI reference", err)
	}
	if _, ok := named.(reference.Digested); ok {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("OCI reference %s must use a tag, not a digest", target))
	}

	ref := &Reference{
		IsOCI:      true,
		Registry:   reference.Domain(named),
		Repository: reference.Path(named),
	}
	if tagged, ok := named.(reference.Tagged); ok {
		ref.Tag = tagged.Tag()
	}
	return ref, nil
}

// String renders the reference the way ParseOutputTarget accepts it.
func (r *Reference) String() string {
	if !r.IsOCI {
		return r.LocalPath
	}
	return URIScheme + r.ImageReference()
}

// ImageReference returns registry/repository[:tag] without the scheme.
func (r *Reference) ImageReference() string {
	if !r.IsOCI {
		return ""
	}
	if r.Tag == "" {
		return fmt.Sprintf("%s/%s", r.Registry, r.Repository)
	}
	return fmt.Sprintf("%s/%s:%s", r.Registry, r.Repository, r.Tag)
}

// WithTag returns a copy carrying tag.
func (r *Reference) WithTag(tag string) *Reference {
	out := *r
	out.Tag = tag
	return &out
}

// TagOrDefault returns the tag, or DefaultTag when unset.
func (r *Reference) TagOrDefault() string {
	if r.Tag == "" {
		return DefaultTag
	}
	return r.Tag
}

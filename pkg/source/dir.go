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

package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	apperrors "github.com/NVIDIA/storage-facts/pkg/errors"
	"github.com/NVIDIA/storage-facts/pkg/facts"
	"github.com/NVIDIA/storage-facts/pkg/registry"
)

var payloadExtensions = []string{".json", ".yaml", ".yml"}

// DirFetcher reads one payload file per category from a directory.
type DirFetcher struct {
	dir string
}

// NewDirFetcher returns a fetcher over dir. The directory must exist.
func NewDirFetcher(dir string, _ ...Option) (*DirFetcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeNotFound,
			fmt.Sprintf("source directory %s", dir), err)
	}
	if !info.IsDir() {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("source %s is not a directory", dir))
	}
	return &DirFetcher{dir: dir}, nil
}

// Fetch loads <dir>/<category>.<ext>, trying json, yaml and yml in order.
func (f *DirFetcher) Fetch(ctx context.Context, d registry.Descriptor) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, ext := range payloadExtensions {
		path := filepath.Join(f.dir, d.Category+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		v, err := facts.DecodePayload(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return v, nil
	}
	return nil, fmt.Errorf("no payload for %s in %s", d.Category, f.dir)
}

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

package serializer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	apperrors "github.com/NVIDIA/storage-facts/pkg/errors"
	"github.com/NVIDIA/storage-facts/pkg/facts"
	"github.com/NVIDIA/storage-facts/pkg/k8s/client"
	"github.com/NVIDIA/storage-facts/pkg/registry"
)

// StdinURI reads the document from standard input.
const StdinURI = "-"

type readConfig struct {
	kubeconfig string
	kube       client.Interface
	http       *HTTPReader
	stdin      io.Reader
}

// ReadOption configures document reads.
type ReadOption func(*readConfig)

// WithKubeconfig sets the kubeconfig used for cm:// sources.
func WithKubeconfig(path string) ReadOption {
	return func(c *readConfig) {
		c.kubeconfig = path
	}
}

// WithKubeClient sets the Kubernetes client used for cm:// sources.
func WithKubeClient(k client.Interface) ReadOption {
	return func(c *readConfig) {
		c.kube = k
	}
}

// WithHTTPReader sets the reader used for http(s):// sources.
func WithHTTPReader(r *HTTPReader) ReadOption {
	return func(c *readConfig) {
		c.http = r
	}
}

// WithStdin replaces standard input for the "-" source.
func WithStdin(r io.Reader) ReadOption {
	return func(c *readConfig) {
		c.stdin = r
	}
}

// ReadSnapshot loads a snapshot from a local path, "-" (stdin), an
// http(s):// URL or a cm://namespace/name ConfigMap. Snapshots read from a
// ConfigMap carry the run metadata stored next to them.
func ReadSnapshot(ctx context.Context, uri string, reg *registry.Registry, opts ...ReadOption) (*facts.Snapshot, error) {
	cfg := newReadConfig(opts)

	if IsConfigMapURI(uri) {
		namespace, name, err := ParseConfigMapURI(uri)
		if err != nil {
			return nil, err
		}
		kc, err := kubeClient(cfg.kube, cfg.kubeconfig)
		if err != nil {
			return nil, err
		}
		content, err := ReadConfigMap(ctx, kc, namespace, name)
		if err != nil {
			return nil, err
		}
		snap, err := facts.Parse(content.Data, reg)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", uri, err)
		}
		if content.Metadata != nil {
			snap = snap.WithMetadata(*content.Metadata)
		}
		return snap, nil
	}

	data, err := read(ctx, uri, cfg)
	if err != nil {
		return nil, err
	}
	snap, err := facts.Parse(data, reg)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", uri, err)
	}
	slog.Debug("loaded snapshot", "source", uri, "categories", snap.Len())
	return snap, nil
}

// ReadBytes returns the raw document at uri. ConfigMap sources return the
// stored snapshot or report document.
func ReadBytes(ctx context.Context, uri string, opts ...ReadOption) ([]byte, error) {
	cfg := newReadConfig(opts)
	if IsConfigMapURI(uri) {
		namespace, name, err := ParseConfigMapURI(uri)
		if err != nil {
			return nil, err
		}
		kc, err := kubeClient(cfg.kube, cfg.kubeconfig)
		if err != nil {
			return nil, err
		}
		content, err := ReadConfigMap(ctx, kc, namespace, name)
		if err != nil {
			return nil, err
		}
		return content.Data, nil
	}
	return read(ctx, uri, cfg)
}

func newReadConfig(opts []ReadOption) *readConfig {
	cfg := &readConfig{stdin: os.Stdin}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func read(ctx context.Context, uri string, cfg *readConfig) ([]byte, error) {
	switch {
	case uri == "":
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "source is empty")
	case uri == StdinURI:
		data, err := io.ReadAll(cfg.stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		hr := cfg.http
		if hr == nil {
			hr = NewHTTPReader()
		}
		return hr.Read(ctx, uri)
	default:
		data, err := os.ReadFile(uri)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeNotFound,
				fmt.Sprintf("failed to read %s", uri), err)
		}
		return data, nil
	}
}

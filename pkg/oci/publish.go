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
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/file"
	ocilayout "oras.land/oras-go/v2/content/oci"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"

	"github.com/NVIDIA/storage-facts/pkg/defaults"
	apperrors "github.com/NVIDIA/storage-facts/pkg/errors"
	"github.com/NVIDIA/storage-facts/pkg/facts"
)

const (
	// ArtifactType identifies storage facts artifacts.
	ArtifactType = "application/vnd.nvidia.storage-facts.artifact"

	SnapshotMediaTypeJSON = "application/vnd.nvidia.storage-facts.snapshot.v1+json"
	SnapshotMediaTypeYAML = "application/vnd.nvidia.storage-facts.snapshot.v1+yaml"

	// Manifest annotations derived from snapshot metadata.
	AnnotationRunID  = "com.nvidia.storage-facts.run-id"
	AnnotationTarget = "com.nvidia.storage-facts.target"
)

// Result describes a published artifact.
type Result struct {
	Digest    string `json:"digest" yaml:"digest"`
	Reference string `json:"reference" yaml:"reference"`
	Files     int    `json:"files" yaml:"files"`
}

type config struct {
	plainHTTP   bool
	insecureTLS bool
	annotations map[string]string
	created     time.Time
}

// Option configures a publish.
type Option func(*config)

// WithPlainHTTP talks to the registry over HTTP.
func WithPlainHTTP(v bool) Option {
	return func(c *config) {
		c.plainHTTP = v
	}
}

// WithInsecureTLS skips registry certificate verification.
func WithInsecureTLS(v bool) Option {
	return func(c *config) {
		c.insecureTLS = v
	}
}

// WithAnnotation adds a manifest annotation.
func WithAnnotation(key, value string) Option {
	return func(c *config) {
		if value == "" {
			return
		}
		if c.annotations == nil {
			c.annotations = make(map[string]string)
		}
		c.annotations[key] = value
	}
}

// WithCreated fixes the manifest creation time. Equal inputs then produce
// equal manifest digests.
func WithCreated(t time.Time) Option {
	return func(c *config) {
		c.created = t
	}
}

// PublishSnapshot writes snap in enc to a temporary file and publishes it to
// ref. Metadata, when present, becomes manifest annotations and fixes the
// creation time.
func PublishSnapshot(ctx context.Context, ref *Reference, snap *facts.Snapshot, enc facts.Encoding, opts ...Option) (*Result, error) {
	if snap == nil {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "snapshot is nil")
	}

	name := "snapshot"
	if md, ok := snap.Metadata(); ok {
		if md.RunID != "" {
			name = "snapshot-" + md.RunID
		}
		opts = append([]Option{
			WithAnnotation(AnnotationRunID, md.RunID),
			WithAnnotation(AnnotationTarget, md.Target),
			WithAnnotation(ociv1.AnnotationVersion, md.Version),
			WithCreated(md.CapturedAt),
		}, opts...)
	}
	if enc == "" {
		enc = facts.EncodingJSON
	}

	dir, err := os.MkdirTemp("", "sf-publish-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, name+"."+string(enc))
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := facts.Store(f, snap, enc); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}

	if ref.IsOCI {
		return Publish(ctx, ref, []string{path}, opts...)
	}
	return Package(ctx, ref.LocalPath, ref.TagOrDefault(), []string{path}, opts...)
}

// Publish pushes files as one artifact to the registry named by ref.
func Publish(ctx context.Context, ref *Reference, files []string, opts ...Option) (*Result, error) {
	if ref == nil || !ref.IsOCI {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "OCI registry reference is required")
	}
	cfg := newConfig(opts)
	tagged := ref.WithTag(ref.TagOrDefault())

	repo, err := remote.NewRepository(fmt.Sprintf("%s/%s", tagged.Registry, tagged.Repository))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "failed to initialize remote repository", err)
	}
	repo.PlainHTTP = cfg.plainHTTP
	repo.Client = authClient(cfg.plainHTTP, cfg.insecureTLS)

	pushCtx, cancel := context.WithTimeout(ctx, defaults.OCIPushTimeout)
	defer cancel()

	slog.Info("publishing OCI artifact", "reference", tagged.ImageReference(), "files", len(files))
	res, err := PublishTo(pushCtx, repo, tagged.Tag, files, opts...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeUnavailable,
			fmt.Sprintf("failed to push %s", tagged.ImageReference()), err)
	}
	res.Reference = tagged.ImageReference()
	slog.Info("OCI artifact published", "reference", res.Reference, "digest", res.Digest)
	return res, nil
}

// Package writes files as one artifact into the OCI image layout at dir.
func Package(ctx context.Context, dir, tag string, files []string, opts ...Option) (*Result, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve layout directory: %w", err)
	}
	layout, err := ocilayout.New(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open OCI layout %s: %w", abs, err)
	}

	res, err := PublishTo(ctx, layout, tag, files, opts...)
	if err != nil {
		return nil, err
	}
	res.Reference = abs + ":" + tag
	slog.Info("OCI artifact packaged", "layout", abs, "tag", tag, "digest", res.Digest)
	return res, nil
}

// PublishTo packs files into a manifest and copies it to dst under tag.
func PublishTo(ctx context.Context, dst oras.Target, tag string, files []string, opts ...Option) (*Result, error) {
	if tag == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "tag is required to publish")
	}
	if len(files) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "nothing to publish")
	}
	cfg := newConfig(opts)

	work, err := os.MkdirTemp("", "sf-oras-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(work)

	fs, err := file.New(work)
	if err != nil {
		return nil, fmt.Errorf("failed to create file store: %w", err)
	}
	defer func() { _ = fs.Close() }()

	layers := make([]ociv1.Descriptor, 0, len(files))
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", f, err)
		}
		name := filepath.Base(abs)
		if seen[name] {
			return nil, apperrors.New(apperrors.ErrCodeInvalidRequest,
				fmt.Sprintf("duplicate file name %s", name))
		}
		seen[name] = true

		desc, err := fs.Add(ctx, name, MediaTypeFor(name), abs)
		if err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", f, err)
		}
		layers = append(layers, desc)
	}

	annotations := make(map[string]string, len(cfg.annotations)+1)
	for k, v := range cfg.annotations {
		annotations[k] = v
	}
	if !cfg.created.IsZero() {
		annotations[ociv1.AnnotationCreated] = cfg.created.UTC().Format(time.RFC3339)
	}

	manifest, err := oras.PackManifest(ctx, fs, oras.PackManifestVersion1_1, ArtifactType,
		oras.PackManifestOptions{
			Layers:              layers,
			ManifestAnnotations: annotations,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to pack manifest: %w", err)
	}
	if err := fs.Tag(ctx, manifest, tag); err != nil {
		return nil, fmt.Errorf("failed to tag manifest: %w", err)
	}

	desc, err := oras.Copy(ctx, fs, tag, dst, tag, oras.DefaultCopyOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to copy artifact: %w", err)
	}
	return &Result{Digest: desc.Digest.String(), Reference: tag, Files: len(layers)}, nil
}

// MediaTypeFor picks the layer media type from a file name.
func MediaTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return SnapshotMediaTypeJSON
	case ".yaml", ".yml":
		return SnapshotMediaTypeYAML
	default:
		return "application/octet-stream"
	}
}

func newConfig(opts []Option) *config {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func authClient(plainHTTP, insecureTLS bool) *auth.Client {
	credStore, err := credentials.NewStoreFromDocker(credentials.StoreOptions{})
	if err != nil {
		slog.Debug("docker credentials unavailable", "error", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !plainHTTP && insecureTLS {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{} //nolint:gosec // operator opt-in
		}
		transport.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec // operator opt-in
	}

	client := &auth.Client{
		Client: &http.Client{Transport: transport},
		Cache:  auth.NewCache(),
	}
	if credStore != nil {
		client.Credential = credentials.Credential(credStore)
	}
	return client
}

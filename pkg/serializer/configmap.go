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
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	accorev1 "k8s.io/client-go/applyconfigurations/core/v1"

	"github.com/NVIDIA/storage-facts/pkg/defaults"
	apperrors "github.com/NVIDIA/storage-facts/pkg/errors"
	"github.com/NVIDIA/storage-facts/pkg/facts"
	"github.com/NVIDIA/storage-facts/pkg/header"
	"github.com/NVIDIA/storage-facts/pkg/k8s/client"
)

// ConfigMapURIScheme prefixes ConfigMap destinations: cm://namespace/name.
const ConfigMapURIScheme = "cm://"

// ConfigMap data keys.
const (
	ConfigMapKeyFormat    = "format"
	ConfigMapKeyTimestamp = "timestamp"
	ConfigMapKeyMetadata  = "metadata.json"

	configMapSnapshotPrefix = "snapshot."
	configMapReportPrefix   = "report."
	configMapFieldManager   = "sfctl"
	configMapAppName        = "storage-facts"
	configMapSnapshotKind   = "Snapshot"
)

// ConfigMapOption configures a ConfigMapWriter.
type ConfigMapOption func(*ConfigMapWriter)

// WithConfigMapClient sets the Kubernetes client used for writes.
func WithConfigMapClient(c client.Interface) ConfigMapOption {
	return func(w *ConfigMapWriter) {
		w.client = c
	}
}

// WithConfigMapKubeconfig sets the kubeconfig used to build a client.
func WithConfigMapKubeconfig(path string) ConfigMapOption {
	return func(w *ConfigMapWriter) {
		w.kubeconfig = path
	}
}

// ConfigMapWriter writes serialized data to a Kubernetes ConfigMap.
// The ConfigMap is created if it does not exist and updated otherwise.
type ConfigMapWriter struct {
	namespace  string
	name       string
	format     Format
	kubeconfig string
	client     client.Interface
}

// NewConfigMapWriter creates a ConfigMapWriter for namespace/name.
func NewConfigMapWriter(namespace, name string, format Format, opts ...ConfigMapOption) *ConfigMapWriter {
	if format.IsUnknown() {
		slog.Warn("unknown format, defaulting to JSON", "format", format)
		format = FormatJSON
	}
	w := &ConfigMapWriter{
		namespace: namespace,
		name:      name,
		format:    format,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Serialize writes v to the ConfigMap. The ConfigMap holds:
//   - snapshot.{json|yaml} for snapshots, report.{json|yaml|txt|csv} otherwise
//   - metadata.json with the run metadata of a snapshot, when present
//   - format and timestamp
func (w *ConfigMapWriter) Serialize(ctx context.Context, v any) error {
	writeCtx, cancel := context.WithTimeout(ctx, defaults.ConfigMapWriteTimeout)
	defer cancel()

	kc, err := kubeClient(w.client, w.kubeconfig)
	if err != nil {
		return err
	}

	content, err := Marshal(w.format, v)
	if err != nil {
		return fmt.Errorf("failed to serialize for ConfigMap: %w", err)
	}

	kind, version, timestamp := describe(v)
	prefix := configMapReportPrefix
	if kind == configMapSnapshotKind {
		prefix = configMapSnapshotPrefix
	}

	data := map[string]string{
		prefix + extension(w.format): string(content),
		ConfigMapKeyFormat:           string(w.format),
		ConfigMapKeyTimestamp:        timestamp,
	}
	if snap, ok := v.(*facts.Snapshot); ok {
		if md, ok := snap.Metadata(); ok {
			mdJSON, err := json.Marshal(md)
			if err != nil {
				return fmt.Errorf("failed to serialize snapshot metadata: %w", err)
			}
			data[ConfigMapKeyMetadata] = string(mdJSON)
		}
	}

	cm := accorev1.ConfigMap(w.name, w.namespace).
		WithLabels(map[string]string{
			"app.kubernetes.io/name":      configMapAppName,
			"app.kubernetes.io/component": labelValue(strings.ToLower(kind)),
			"app.kubernetes.io/version":   labelValue(version),
		}).
		WithData(data)

	slog.Info("applying ConfigMap",
		"namespace", w.namespace,
		"name", w.name,
		"kind", kind,
		"format", w.format)

	// Server-side apply creates or updates atomically.
	_, err = kc.CoreV1().ConfigMaps(w.namespace).Apply(writeCtx, cm, metav1.ApplyOptions{
		FieldManager: configMapFieldManager,
		Force:        true,
	})
	if err != nil {
		return fmt.Errorf("failed to apply ConfigMap %s/%s: %w", w.namespace, w.name, err)
	}
	return nil
}

// Close is a no-op; it satisfies Closer.
func (w *ConfigMapWriter) Close() error {
	return nil
}

// describe extracts kind, version and timestamp labels from v.
func describe(v any) (kind, version, timestamp string) {
	kind, version = "report", "unknown"
	timestamp = time.Now().UTC().Format(time.RFC3339)

	switch t := v.(type) {
	case *facts.Snapshot:
		kind = configMapSnapshotKind
		if md, ok := t.Metadata(); ok {
			if md.Version != "" {
				version = md.Version
			}
			if !md.CapturedAt.IsZero() {
				timestamp = md.CapturedAt.UTC().Format(time.RFC3339)
			}
		}
	case interface {
		GetKind() header.Kind
		GetMetadata() map[string]string
	}:
		if k := t.GetKind(); k != "" {
			kind = k.String()
		}
		md := t.GetMetadata()
		if v, ok := md[header.MetadataVersion]; ok && v != "" {
			version = v
		}
		if ts, ok := md[header.MetadataTimestamp]; ok && ts != "" {
			timestamp = ts
		}
	}
	return kind, version, timestamp
}

// labelValue coerces s into a valid label value.
func labelValue(s string) string {
	b := []byte(s)
	for i, c := range b {
		isAlnum := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
		if !isAlnum && c != '-' && c != '_' && c != '.' {
			b[i] = '-'
		}
	}
	if len(b) > 63 {
		b = b[:63]
	}
	return strings.Trim(string(b), "-_.")
}

func extension(f Format) string {
	if f == FormatTable {
		return "txt"
	}
	return string(f)
}

// ConfigMapContent is a document read back from a ConfigMap.
type ConfigMapContent struct {
	Data     []byte
	Format   Format
	Metadata *facts.Metadata
}

// ReadConfigMap reads the snapshot (or report) stored in namespace/name.
func ReadConfigMap(ctx context.Context, c client.Interface, namespace, name string) (*ConfigMapContent, error) {
	readCtx, cancel := context.WithTimeout(ctx, defaults.ConfigMapReadTimeout)
	defer cancel()

	cm, err := c.CoreV1().ConfigMaps(namespace).Get(readCtx, name, metav1.GetOptions{})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeNotFound,
			fmt.Sprintf("failed to get ConfigMap %s/%s", namespace, name), err)
	}

	format := FormatYAML
	if f, ok := cm.Data[ConfigMapKeyFormat]; ok && Format(f).IsStructured() {
		format = Format(f)
	}

	content, ok := cm.Data[configMapSnapshotPrefix+string(format)]
	if !ok {
		content, format, ok = firstDocument(cm.Data)
	}
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeNotFound,
			fmt.Sprintf("ConfigMap %s/%s holds no snapshot data", namespace, name))
	}

	out := &ConfigMapContent{Data: []byte(content), Format: format}
	if raw, ok := cm.Data[ConfigMapKeyMetadata]; ok {
		var md facts.Metadata
		if err := json.Unmarshal([]byte(raw), &md); err != nil {
			slog.Warn("ignoring unreadable snapshot metadata",
				"namespace", namespace, "name", name, "error", err)
		} else {
			out.Metadata = &md
		}
	}
	return out, nil
}

func firstDocument(data map[string]string) (string, Format, bool) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, prefix := range []string{configMapSnapshotPrefix, configMapReportPrefix} {
			if ext, ok := strings.CutPrefix(k, prefix); ok && Format(ext).IsStructured() {
				return data[k], Format(ext), true
			}
		}
	}
	return "", "", false
}

// IsConfigMapURI reports whether uri uses the cm:// scheme.
func IsConfigMapURI(uri string) bool {
	return strings.HasPrefix(uri, ConfigMapURIScheme)
}

// ParseConfigMapURI parses cm://namespace/name.
func ParseConfigMapURI(uri string) (namespace, name string, err error) {
	if !IsConfigMapURI(uri) {
		return "", "", apperrors.New(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid ConfigMap URI: must start with %s", ConfigMapURIScheme))
	}

	parts := strings.SplitN(strings.TrimPrefix(uri, ConfigMapURIScheme), "/", 2)
	if len(parts) != 2 {
		return "", "", apperrors.New(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid ConfigMap URI format: expected %snamespace/name, got %s", ConfigMapURIScheme, uri))
	}

	namespace = strings.TrimSpace(parts[0])
	name = strings.TrimSpace(parts[1])
	if namespace == "" {
		return "", "", apperrors.New(apperrors.ErrCodeInvalidRequest, "invalid ConfigMap URI: namespace cannot be empty")
	}
	if name == "" {
		return "", "", apperrors.New(apperrors.ErrCodeInvalidRequest, "invalid ConfigMap URI: name cannot be empty")
	}
	return namespace, name, nil
}

func kubeClient(c client.Interface, kubeconfig string) (client.Interface, error) {
	if c != nil {
		return c, nil
	}
	var err error
	if kubeconfig != "" {
		c, _, err = client.GetKubeClientWithConfig(kubeconfig)
	} else {
		c, _, err = client.GetKubeClient()
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeUnavailable, "failed to get kubernetes client", err)
	}
	return c, nil
}

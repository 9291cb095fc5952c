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
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"k8s.io/client-go/kubernetes/fake"

	apperrors "github.com/NVIDIA/storage-facts/pkg/errors"
	"github.com/NVIDIA/storage-facts/pkg/facts"
	"github.com/NVIDIA/storage-facts/pkg/registry"
)

const readerSnapshot = `{
  "ldevs": [{"ldev_id": 1, "name": "db01"}],
  "journals": {"error": "timeout"}
}`

func TestReadSnapshot_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json")
	if err := os.WriteFile(path, []byte(readerSnapshot), 0o600); err != nil {
		t.Fatal(err)
	}

	snap, err := ReadSnapshot(context.Background(), path, registry.Default())
	if err != nil {
		t.Fatalf("ReadSnapshot failed: %v", err)
	}
	if got := snap.Categories(); len(got) != 2 || got[0] != "ldevs" || got[1] != "journals" {
		t.Errorf("unexpected categories %v", got)
	}
	rec, _ := snap.Record("journals")
	if !rec.IsFailed() || rec.Error != "timeout" {
		t.Errorf("unexpected journals record %+v", rec)
	}
}

func TestReadSnapshot_Stdin(t *testing.T) {
	snap, err := ReadSnapshot(context.Background(), StdinURI, nil,
		WithStdin(strings.NewReader("ldevs:\n  - ldev_id: 7\n")))
	if err != nil {
		t.Fatalf("ReadSnapshot failed: %v", err)
	}
	rec, ok := snap.Record("ldevs")
	if !ok || len(rec.Items) != 1 {
		t.Errorf("unexpected record %+v", rec)
	}
}

func TestReadSnapshot_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(readerSnapshot))
	}))
	defer srv.Close()

	snap, err := ReadSnapshot(context.Background(), srv.URL, nil, WithHTTPReader(NewHTTPReader()))
	if err != nil {
		t.Fatalf("ReadSnapshot failed: %v", err)
	}
	if snap.Len() != 2 {
		t.Errorf("expected 2 categories, got %d", snap.Len())
	}
}

func TestReadSnapshot_ConfigMap(t *testing.T) {
	ctx := context.Background()
	kc := fake.NewClientset()

	src, err := facts.Parse([]byte(readerSnapshot), nil)
	if err != nil {
		t.Fatal(err)
	}
	src = src.WithMetadata(facts.Metadata{RunID: "run-cm"})
	if err := NewConfigMapWriter("ns", "snap", FormatYAML, WithConfigMapClient(kc)).Serialize(ctx, src); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	snap, err := ReadSnapshot(ctx, "cm://ns/snap", registry.Default(), WithKubeClient(kc))
	if err != nil {
		t.Fatalf("ReadSnapshot failed: %v", err)
	}
	if !src.Equal(snap) {
		t.Error("snapshot changed through ConfigMap")
	}
	md, ok := snap.Metadata()
	if !ok || md.RunID != "run-cm" {
		t.Errorf("metadata not attached: %+v", md)
	}

	data, err := ReadBytes(ctx, "cm://ns/snap", WithKubeClient(kc))
	if err != nil {
		t.Fatalf("ReadBytes failed: %v", err)
	}
	if !strings.Contains(string(data), "ldevs") {
		t.Errorf("unexpected bytes %s", data)
	}
}

func TestReadSnapshot_Errors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	unknown := filepath.Join(dir, "unknown.json")
	if err := os.WriteFile(unknown, []byte(`{"not_a_category": []}`), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		uri  string
		code apperrors.ErrorCode
	}{
		{name: "empty", uri: "", code: apperrors.ErrCodeInvalidRequest},
		{name: "missing file", uri: filepath.Join(dir, "missing.json"), code: apperrors.ErrCodeNotFound},
		{name: "unknown category", uri: unknown, code: apperrors.ErrCodeMalformedSnapshot},
		{name: "bad configmap uri", uri: "cm://broken", code: apperrors.ErrCodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSnapshot(ctx, tt.uri, registry.Default())
			if !apperrors.IsCode(err, tt.code) {
				t.Errorf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

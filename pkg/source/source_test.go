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
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/storage-facts/pkg/collector"
	apperrors "github.com/NVIDIA/storage-facts/pkg/errors"
	"github.com/NVIDIA/storage-facts/pkg/facts"
	"github.com/NVIDIA/storage-facts/pkg/registry"
)

var (
	ldevs = registry.Descriptor{Category: "ldevs", Source: "hv_ldev_facts"}
	hw    = registry.Descriptor{
		Category: "hardware_installed",
		Source:   "hv_storage_system_monitor_facts",
		Spec:     map[string]string{"query": "hardware_installed"},
	}
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestDirFetcher(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ldevs.json", `{"data": [{"ldev_id": 1}, {"ldev_id": 2}], "changed": false}`)
	writeFile(t, dir, "hardware_installed.yaml", "- component: fan\n  status: normal\n")

	f, err := NewDirFetcher(dir)
	require.NoError(t, err)

	got, err := f.Fetch(context.Background(), ldevs)
	require.NoError(t, err)
	items, err := facts.Normalize(got)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	got, err = f.Fetch(context.Background(), hw)
	require.NoError(t, err)
	items, err = facts.Normalize(got)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "fan", items[0]["component"].String())

	_, err = f.Fetch(context.Background(), registry.Descriptor{Category: "journals"})
	assert.Error(t, err)
}

func TestDirFetcher_Invalid(t *testing.T) {
	_, err := NewDirFetcher(filepath.Join(t.TempDir(), "missing"))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))

	dir := t.TempDir()
	writeFile(t, dir, "file", "x")
	_, err = NewDirFetcher(filepath.Join(dir, "file"))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidRequest))

	writeFile(t, dir, "ldevs.json", `{"broken"`)
	f, err := NewDirFetcher(dir)
	require.NoError(t, err)
	_, err = f.Fetch(context.Background(), ldevs)
	assert.Error(t, err)
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Array") != "vsp-1" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		switch r.URL.Path {
		case "/facts/hv_ldev_facts":
			_, _ = w.Write([]byte(`[{"ldev_id": 10}]`))
		case "/facts/hv_storage_system_monitor_facts":
			if r.URL.Query().Get("query") != "hardware_installed" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte(`{"data": {"model": "VSP"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	f, err := NewHTTPFetcher(srv.URL+"/facts/{{.Source}}", WithHeader("X-Array", "vsp-1"))
	require.NoError(t, err)

	got, err := f.Fetch(context.Background(), ldevs)
	require.NoError(t, err)
	items, err := facts.Normalize(got)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	got, err = f.Fetch(context.Background(), hw)
	require.NoError(t, err)
	items, err = facts.Normalize(got)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "VSP", items[0]["model"].String())

	_, err = f.Fetch(context.Background(), registry.Descriptor{Category: "x", Source: "unknown"})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}

func TestHTTPFetcher_URL(t *testing.T) {
	f, err := NewHTTPFetcher("https://array.example/api/{{.Category}}?query={{index .Spec \"query\"}}")
	require.NoError(t, err)

	u, err := f.URL(hw)
	require.NoError(t, err)
	assert.Equal(t, "https://array.example/api/hardware_installed?query=hardware_installed", u)

	u, err = f.URL(ldevs)
	require.NoError(t, err)
	assert.Equal(t, "https://array.example/api/ldevs?query=", u)

	_, err = NewHTTPFetcher("https://array.example/{{.Category")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidRequest))
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestCommandFetcher(t *testing.T) {
	requireShell(t)

	f, err := NewCommandFetcher([]string{"sh", "-c", `printf '[{"category": "%s", "source": "{{.Source}}"}]' "$SF_CATEGORY"`})
	require.NoError(t, err)

	got, err := f.Fetch(context.Background(), ldevs)
	require.NoError(t, err)
	items, err := facts.Normalize(got)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "ldevs", items[0]["category"].String())
	assert.Equal(t, "hv_ldev_facts", items[0]["source"].String())
}

func TestCommandFetcher_Failure(t *testing.T) {
	requireShell(t)

	f, err := NewCommandFetcher([]string{"sh", "-c", "echo array unreachable >&2; exit 3"})
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), ldevs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "array unreachable")
}

func TestCommandFetcher_Env(t *testing.T) {
	requireShell(t)

	f, err := NewCommandFetcher([]string{"sh", "-c", `printf '{"target": "%s"}' "$SF_TARGET"`}, WithEnv("SF_TARGET=vsp-1"))
	require.NoError(t, err)

	got, err := f.Fetch(context.Background(), ldevs)
	require.NoError(t, err)
	items, err := facts.Normalize(got)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "vsp-1", items[0]["target"].String())
}

func TestNewCommandFetcher_Invalid(t *testing.T) {
	_, err := NewCommandFetcher(nil)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidRequest))

	_, err = NewCommandFetcher([]string{"definitely-not-a-command-sf"})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	f, err := Open(dir)
	require.NoError(t, err)
	assert.IsType(t, &DirFetcher{}, f)

	f, err = Open(DirPrefix + dir)
	require.NoError(t, err)
	assert.IsType(t, &DirFetcher{}, f)

	f, err = Open("https://array.example/{{.Category}}")
	require.NoError(t, err)
	assert.IsType(t, &HTTPFetcher{}, f)

	if _, lookErr := exec.LookPath("sh"); lookErr == nil {
		f, err = Open("exec:sh -c true")
		require.NoError(t, err)
		assert.IsType(t, &CommandFetcher{}, f)
	}

	_, err = Open("  ")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidRequest))
}

func TestCollectFromDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ldevs.json", `[{"ldev_id": 1}]`)

	f, err := NewDirFetcher(dir)
	require.NoError(t, err)

	snap, err := collector.New(f).Collect(context.Background(), []string{"ldevs", "journals"})
	require.NoError(t, err)

	rec, ok := snap.Record("ldevs")
	require.True(t, ok)
	assert.False(t, rec.IsFailed())
	rec, ok = snap.Record("journals")
	require.True(t, ok)
	assert.True(t, rec.IsFailed())
	assert.True(t, strings.Contains(rec.Error, "no payload"))
}

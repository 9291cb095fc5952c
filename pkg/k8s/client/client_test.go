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

package client

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func resetClient() {
	clientOnce = sync.Once{}
	cachedClient = nil
	cachedConfig = nil
	clientErr = nil
}

func TestResolveKubeconfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	t.Setenv("KUBECONFIG", "")
	if got := ResolveKubeconfig("/explicit"); got != "/explicit" {
		t.Errorf("explicit path ignored: %q", got)
	}
	if got := ResolveKubeconfig(""); got != "" {
		t.Errorf("expected in-cluster (empty), got %q", got)
	}

	t.Setenv("KUBECONFIG", "/from/env")
	if got := ResolveKubeconfig(""); got != "/from/env" {
		t.Errorf("env path ignored: %q", got)
	}
}

func TestResolveKubeconfig_HomeConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("KUBECONFIG", "")

	path := filepath.Join(home, ".kube", "config")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("apiVersion: v1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := ResolveKubeconfig(""); got != path {
		t.Errorf("expected %s, got %q", path, got)
	}
}

func TestBuildKubeClient_InvalidPaths(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		env  string
	}{
		{name: "explicit missing path", arg: "/nonexistent/path/to/kubeconfig"},
		{name: "env missing path", env: "/nonexistent/env/kubeconfig"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("KUBECONFIG", tt.env)

			_, _, err := BuildKubeClient(tt.arg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), "failed to build kube config") {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestBuildKubeClient_InvalidContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kubeconfig")
	if err := os.WriteFile(path, []byte("invalid yaml content"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, _, err := BuildKubeClient(path); err == nil {
		t.Error("expected error for invalid kubeconfig")
	}
}

func TestGetKubeClientWithConfig_Error(t *testing.T) {
	c, cfg, err := GetKubeClientWithConfig("/nonexistent/kubeconfig")
	if err == nil {
		t.Fatal("expected error")
	}
	if c != nil || cfg != nil {
		t.Error("expected nil client and config on error")
	}
}

func TestGetKubeClient_Singleton(t *testing.T) {
	resetClient()
	defer resetClient()

	t.Setenv("KUBECONFIG", "/nonexistent/kubeconfig")

	c1, cfg1, err1 := GetKubeClient()
	c2, cfg2, err2 := GetKubeClient()

	//nolint:errorlint // pointer equality is the point
	if err1 != err2 {
		t.Errorf("expected same error instance: %v vs %v", err1, err2)
	}
	if c1 != c2 || cfg1 != cfg2 {
		t.Error("expected same client and config")
	}
	if err1 != nil && c1 != nil {
		t.Error("expected nil interface on error")
	}
}

func TestGetKubeClient_Concurrent(t *testing.T) {
	resetClient()
	defer resetClient()

	const n = 10
	results := make(chan bool, n)
	for i := 0; i < n; i++ {
		go func() {
			_, _, err := GetKubeClient()
			results <- err == nil
		}()
	}

	first := <-results
	for i := 1; i < n; i++ {
		if got := <-results; got != first {
			t.Fatal("GetKubeClient returned inconsistent results")
		}
	}
}

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

package api

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/NVIDIA/storage-facts/pkg/logging"
	"github.com/NVIDIA/storage-facts/pkg/registry"
	"github.com/NVIDIA/storage-facts/pkg/server"
	"github.com/NVIDIA/storage-facts/pkg/store"
)

const (
	name           = "sfd"
	versionDefault = "dev"

	envStore    = "SFD_STORE"
	envRegistry = "SFD_REGISTRY"
)

var (
	// overridden during build with ldflags to reflect actual version info
	// e.g., -X "github.com/NVIDIA/storage-facts/pkg/api.version=1.0.0"
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Serve opens the history store named by SFD_STORE and serves the API
// until SIGINT or SIGTERM.
func Serve() error {
	ctx := context.Background()

	logging.SetDefaultStructuredLogger(name, version)
	slog.Info("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
	)

	reg, err := loadRegistry(os.Getenv(envRegistry))
	if err != nil {
		return err
	}

	path := os.Getenv(envStore)
	if path == "" {
		path = store.DefaultPath
	}
	st, err := store.Open(path, store.WithRegistry(reg))
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer st.Close()
	slog.Info("snapshot store opened", "path", st.Path())

	s := server.New(
		server.WithName(name),
		server.WithVersion(version),
		server.WithHandler(NewHandler(st, reg).Routes()),
		server.WithReadinessCheck(st.Ping),
	)

	if err := s.Run(ctx); err != nil {
		slog.Error("server exited with error", "error", err)
		return err
	}
	return nil
}

func loadRegistry(path string) (*registry.Registry, error) {
	if path == "" {
		return registry.Default(), nil
	}
	reg, err := registry.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry %s: %w", path, err)
	}
	slog.Info("registry loaded", "path", path, "categories", reg.Len())
	return reg, nil
}

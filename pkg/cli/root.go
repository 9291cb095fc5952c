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

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/storage-facts/pkg/facts"
	"github.com/NVIDIA/storage-facts/pkg/logging"
	"github.com/NVIDIA/storage-facts/pkg/registry"
	"github.com/NVIDIA/storage-facts/pkg/serializer"
	"github.com/NVIDIA/storage-facts/pkg/store"
)

const (
	name           = "sfctl"
	versionDefault = "dev"

	// storeRefPrefix marks a snapshot argument as a history store reference,
	// for example store:latest or store:<run-id>.
	storeRefPrefix = "store:"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage: `Output destination: file path, ConfigMap URI (cm://namespace/name), or empty for stdout.
	The format follows the file extension unless --format is set.`,
		Sources: cli.EnvVars("SFCTL_OUTPUT"),
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Usage:   fmt.Sprintf("Output format (supported values: %s)", strings.Join(serializer.SupportedFormats(), ", ")),
		Sources: cli.EnvVars("SFCTL_FORMAT"),
	}
}

func kubeconfigFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "kubeconfig",
		Aliases: []string{"k"},
		Usage:   "Path to kubeconfig for cm:// sources and destinations (default: $KUBECONFIG, ~/.kube/config, in-cluster)",
		Sources: cli.EnvVars("SFCTL_KUBECONFIG"),
	}
}

func registryFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "registry",
		Usage:   "YAML file replacing the built-in category registry",
		Sources: cli.EnvVars("SFCTL_REGISTRY"),
	}
}

func storeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "store",
		Usage:   "Path to the snapshot history database",
		Value:   store.DefaultPath,
		Sources: cli.EnvVars("SFCTL_STORE"),
	}
}

func targetFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "target",
		Usage:   "Identity of the storage array the snapshot belongs to",
		Sources: cli.EnvVars("SFCTL_TARGET"),
	}
}

// snapshotFlag returns a flag naming a snapshot document.
func snapshotFlag(flagName, alias, usage string) *cli.StringFlag {
	f := &cli.StringFlag{
		Name:     flagName,
		Required: true,
		Usage: usage + `
	Supports: file paths, "-" for stdin, HTTP/HTTPS URLs, ConfigMap URIs (cm://namespace/name),
	or history store references (store:latest, store:previous, store:<run-id>).`,
	}
	if alias != "" {
		f.Aliases = []string{alias}
	}
	return f
}

// Execute runs the CLI and exits non-zero on error. It is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cli.Command {
	return &cli.Command{
		Name:                  name,
		Usage:                 "Collect, query and compare storage array configuration facts",
		Version:               fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		EnableShellCompletion: true,
		Description: `sfctl gathers per-category facts from a storage array into one snapshot document,
answers questions about a snapshot, and reports configuration drift between two snapshots.

Snapshots can be kept in a local history database (--store) and published as OCI artifacts.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars(logging.EnvVarLogLevel),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Shorthand for --log-level=debug",
				Sources: cli.EnvVars("SFCTL_DEBUG"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level := cmd.String("log-level")
			if cmd.Bool("debug") {
				level = "debug"
			}
			logging.SetDefaultStructuredLoggerWithLevel(name, version, level)
			slog.Debug("starting",
				"name", name,
				"version", version,
				"commit", commit,
				"date", date)
			return ctx, nil
		},
		Commands: []*cli.Command{
			collectCmd(),
			listCmd(),
			summaryCmd(),
			extractCmd(),
			countCmd(),
			filterCmd(),
			exportCmd(),
			diffCmd(),
			validateCmd(),
			historyCmd(),
			publishCmd(),
		},
	}
}

// parseOutputFormat returns the --format value, or the format implied by the
// --output extension when --format is empty. fallback applies when neither
// is set.
func parseOutputFormat(cmd *cli.Command, fallback serializer.Format) (serializer.Format, error) {
	if f := cmd.String("format"); f != "" {
		format := serializer.Format(strings.ToLower(f))
		if format.IsUnknown() {
			return "", fmt.Errorf("unknown output format: %q (supported values: %s)",
				f, strings.Join(serializer.SupportedFormats(), ", "))
		}
		return format, nil
	}
	if out := cmd.String("output"); out != "" && !serializer.IsConfigMapURI(out) {
		return serializer.FormatFromPath(out), nil
	}
	return fallback, nil
}

// writeOutput serializes v to --output in the selected format.
func writeOutput(ctx context.Context, cmd *cli.Command, v any, fallback serializer.Format) error {
	format, err := parseOutputFormat(cmd, fallback)
	if err != nil {
		return err
	}

	ser, err := serializer.NewFileWriterOrStdout(format, cmd.String("output"))
	if err != nil {
		return err
	}
	defer func() {
		if closer, ok := ser.(serializer.Closer); ok {
			if err := closer.Close(); err != nil {
				slog.Warn("failed to close serializer", "error", err)
			}
		}
	}()

	if err := ser.Serialize(ctx, v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// loadRegistry returns the --registry override or the built-in registry.
func loadRegistry(cmd *cli.Command) (*registry.Registry, error) {
	path := cmd.String("registry")
	if path == "" {
		return registry.Default(), nil
	}
	reg, err := registry.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry %s: %w", path, err)
	}
	slog.Debug("registry loaded", "path", path, "categories", reg.Len())
	return reg, nil
}

// loadSnapshot reads the snapshot named by uri. References with the store:
// prefix are resolved against --store, scoped by --target when set.
func loadSnapshot(ctx context.Context, cmd *cli.Command, uri string, reg *registry.Registry) (*facts.Snapshot, error) {
	if ref, ok := strings.CutPrefix(uri, storeRefPrefix); ok {
		st, err := openStore(cmd, reg)
		if err != nil {
			return nil, err
		}
		defer st.Close()

		snap, err := st.Resolve(ctx, ref, cmd.String("target"))
		if err != nil {
			return nil, fmt.Errorf("failed to load snapshot %s: %w", uri, err)
		}
		return snap, nil
	}

	snap, err := serializer.ReadSnapshot(ctx, uri, reg, serializer.WithKubeconfig(cmd.String("kubeconfig")))
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot from %q: %w", uri, err)
	}
	return snap, nil
}

func openStore(cmd *cli.Command, reg *registry.Registry) (*store.Store, error) {
	path := cmd.String("store")
	if path == "" {
		path = store.DefaultPath
	}
	st, err := store.Open(path, store.WithRegistry(reg), store.WithMkdirAll())
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store %s: %w", path, err)
	}
	return st, nil
}

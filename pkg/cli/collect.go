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
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/storage-facts/pkg/collector"
	"github.com/NVIDIA/storage-facts/pkg/defaults"
	"github.com/NVIDIA/storage-facts/pkg/serializer"
	"github.com/NVIDIA/storage-facts/pkg/source"
)

func collectCmd() *cli.Command {
	return &cli.Command{
		Name:                  "collect",
		EnableShellCompletion: true,
		Usage:                 "Collect facts from every category source into one snapshot",
		Description: `Fetch each registered category and merge the results into one snapshot document.

A category whose source fails is recorded with its error and never stops the
others; the snapshot always holds every requested category.

# Sources

  --source ./facts                  directory with one <category>.json|.yaml payload per category
  --source https://host/{{.Category}}  HTTP(S) endpoint; the URL is a template over
                                    .Category, .Source and .Spec, and spec entries are added as query parameters
  --source "exec:gather {{.Source}}"  external command writing the payload to stdout;
                                    SF_CATEGORY and SF_SOURCE are set in its environment

# Examples

Collect from a directory of module outputs:
  sfctl collect --source ./facts --target vsp-5500-1 -o snapshot.json

Collect two categories over HTTP and keep the snapshot in the history store:
  sfctl collect --source "https://gateway/facts/{{.Source}}" \
    --category ldevs --category storage_ports --save

Write the snapshot to a ConfigMap:
  sfctl collect --source ./facts -o cm://storage/vsp-facts`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "source",
				Aliases:  []string{"s"},
				Required: true,
				Usage:    `Where category payloads come from: a directory, an http(s) URL template, or "exec:<command template>"`,
				Sources:  cli.EnvVars("SFCTL_SOURCE"),
			},
			&cli.StringSliceFlag{
				Name:    "category",
				Aliases: []string{"c"},
				Usage:   "Category to collect (repeatable; default: every registered category)",
			},
			&cli.StringSliceFlag{
				Name:  "header",
				Usage: "HTTP header for http(s) sources (format: Key=Value, repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "env",
				Usage: "Environment entry for exec: sources (format: KEY=VALUE, repeatable)",
			},
			&cli.BoolFlag{
				Name:  "insecure-tls",
				Usage: "Skip TLS verification for https sources",
			},
			&cli.IntFlag{
				Name:    "concurrency",
				Usage:   "Maximum number of categories fetched in parallel",
				Value:   defaults.CollectConcurrency,
				Sources: cli.EnvVars("SFCTL_CONCURRENCY"),
			},
			&cli.FloatFlag{
				Name:  "rate-limit",
				Usage: "Fetches started per second (0 disables pacing)",
				Value: defaults.FetchRateLimit,
			},
			&cli.IntFlag{
				Name:  "rate-burst",
				Usage: "Burst size of the fetch rate limiter",
				Value: defaults.FetchRateBurst,
			},
			&cli.DurationFlag{
				Name:  "fetch-timeout",
				Usage: "Timeout for a single category fetch",
				Value: defaults.FetchTimeout,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Timeout for the whole collection run",
				Value: defaults.CollectTimeout,
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Save the snapshot to the history store (--store)",
			},
			&cli.BoolFlag{
				Name:  "fail-on-error",
				Usage: "Exit with non-zero status if any category failed",
			},
			targetFlag(),
			registryFlag(),
			storeFlag(),
			outputFlag(),
			formatFlag(),
			kubeconfigFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			reg, err := loadRegistry(cmd)
			if err != nil {
				return err
			}

			srcOpts, err := sourceOptions(cmd)
			if err != nil {
				return err
			}
			fetcher, err := source.Open(cmd.String("source"), srcOpts...)
			if err != nil {
				return fmt.Errorf("invalid --source: %w", err)
			}

			c := collector.New(fetcher,
				collector.WithRegistry(reg),
				collector.WithConcurrency(int(cmd.Int("concurrency"))),
				collector.WithRateLimit(cmd.Float("rate-limit"), int(cmd.Int("rate-burst"))),
				collector.WithFetchTimeout(cmd.Duration("fetch-timeout")),
				collector.WithTarget(cmd.String("target")),
				collector.WithVersion(version),
			)

			runCtx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
			defer cancel()

			categories := cmd.StringSlice("category")
			if len(categories) == 0 {
				categories = reg.List()
			}
			slog.Info("collecting facts", "source", cmd.String("source"), "categories", len(categories))

			snap, err := c.Collect(runCtx, categories)
			if err != nil {
				return fmt.Errorf("collection failed: %w", err)
			}

			if cmd.Bool("save") {
				st, err := openStore(cmd, reg)
				if err != nil {
					return err
				}
				entry, err := st.Save(ctx, snap)
				if cerr := st.Close(); cerr != nil {
					slog.Warn("failed to close snapshot store", "error", cerr)
				}
				if err != nil {
					return fmt.Errorf("failed to save snapshot: %w", err)
				}
				slog.Info("snapshot saved", "id", entry.ID, "store", cmd.String("store"))
			}

			if err := writeOutput(ctx, cmd, snap, serializer.FormatJSON); err != nil {
				return err
			}

			failed := snap.FailedCategories()
			if len(failed) > 0 {
				slog.Warn("some categories failed", "failed", failed)
				if cmd.Bool("fail-on-error") {
					return fmt.Errorf("%d of %d categories failed: %s",
						len(failed), snap.Len(), strings.Join(failed, ", "))
				}
			}
			return nil
		},
	}
}

func sourceOptions(cmd *cli.Command) ([]source.Option, error) {
	headers, err := parseKeyValues(cmd.StringSlice("header"))
	if err != nil {
		return nil, fmt.Errorf("invalid --header: %w", err)
	}
	env, err := parseKeyValues(cmd.StringSlice("env"))
	if err != nil {
		return nil, fmt.Errorf("invalid --env: %w", err)
	}

	opts := []source.Option{source.WithInsecureSkipVerify(cmd.Bool("insecure-tls"))}
	for _, k := range sortedKeys(headers) {
		opts = append(opts, source.WithHeader(k, headers[k]))
	}
	for _, k := range sortedKeys(env) {
		opts = append(opts, source.WithEnv(k+"="+env[k]))
	}
	return opts, nil
}

// parseKeyValues parses key=value entries. Keys must be non-empty; values
// may be empty.
func parseKeyValues(entries []string) (map[string]string, error) {
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		k, v, ok := strings.Cut(e, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", e)
		}
		out[k] = v
	}
	return out, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

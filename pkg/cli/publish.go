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
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/storage-facts/pkg/facts"
	"github.com/NVIDIA/storage-facts/pkg/oci"
)

func publishCmd() *cli.Command {
	return &cli.Command{
		Name:                  "publish",
		EnableShellCompletion: true,
		Usage:                 "Publish a snapshot as an OCI artifact",
		Description: `Package a snapshot document as a single-layer OCI artifact and push it to a
registry, or write it to a local OCI image layout directory.

Run ID, target and tool version become manifest annotations and the capture
time becomes the creation time, so publishing the same snapshot twice yields
the same digest. Registry credentials are read from the Docker config.

# Examples

Push the latest stored snapshot:
  sfctl publish -f store:latest --to oci://registry.example.com/storage/vsp-facts:2026-10-16

Write to a local layout directory:
  sfctl publish -f snapshot.json --to ./artifacts --encoding yaml`,
		Flags: []cli.Flag{
			snapshotFlag("snapshot", "f", "Snapshot to publish."),
			&cli.StringFlag{
				Name:     "to",
				Required: true,
				Usage:    "Destination: oci://registry/repository[:tag] or a local OCI layout directory",
				Sources:  cli.EnvVars("SFCTL_PUBLISH_TO"),
			},
			&cli.StringFlag{
				Name:  "tag",
				Usage: "Tag overriding the one in --to (default: latest)",
			},
			&cli.StringFlag{
				Name:  "encoding",
				Usage: "Encoding of the published document (json or yaml)",
				Value: string(facts.EncodingJSON),
			},
			&cli.StringSliceFlag{
				Name:  "annotation",
				Usage: "Extra manifest annotation (format: key=value, repeatable)",
			},
			&cli.BoolFlag{
				Name:  "plain-http",
				Usage: "Use HTTP instead of HTTPS for the registry",
			},
			&cli.BoolFlag{
				Name:  "insecure-tls",
				Usage: "Skip TLS verification for the registry",
			},
			registryFlag(),
			storeFlag(),
			targetFlag(),
			kubeconfigFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			enc := facts.Encoding(strings.ToLower(cmd.String("encoding")))
			if enc != facts.EncodingJSON && enc != facts.EncodingYAML {
				return fmt.Errorf("invalid --encoding %q (must be json or yaml)", cmd.String("encoding"))
			}

			ref, err := oci.ParseOutputTarget(cmd.String("to"))
			if err != nil {
				return fmt.Errorf("invalid --to: %w", err)
			}
			if tag := cmd.String("tag"); tag != "" {
				ref = ref.WithTag(tag)
			}

			annotations, err := parseKeyValues(cmd.StringSlice("annotation"))
			if err != nil {
				return fmt.Errorf("invalid --annotation: %w", err)
			}

			snap, err := readSnapshotFlag(ctx, cmd, "snapshot")
			if err != nil {
				return err
			}

			opts := []oci.Option{
				oci.WithPlainHTTP(cmd.Bool("plain-http")),
				oci.WithInsecureTLS(cmd.Bool("insecure-tls")),
			}
			for _, k := range sortedKeys(annotations) {
				opts = append(opts, oci.WithAnnotation(k, annotations[k]))
			}

			res, err := oci.PublishSnapshot(ctx, ref, snap, enc, opts...)
			if err != nil {
				return fmt.Errorf("failed to publish snapshot: %w", err)
			}

			slog.Info("snapshot published",
				"reference", res.Reference,
				"digest", res.Digest)
			fmt.Fprintf(cmd.Root().Writer, "%s@%s\n", res.Reference, res.Digest)
			return nil
		},
	}
}

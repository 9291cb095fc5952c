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

	"github.com/NVIDIA/storage-facts/pkg/header"
	"github.com/NVIDIA/storage-facts/pkg/query"
	"github.com/NVIDIA/storage-facts/pkg/serializer"
)

func validateCmd() *cli.Command {
	return &cli.Command{
		Name:                  "validate",
		EnableShellCompletion: true,
		Usage:                 "Check that a snapshot document is well formed",
		Description: `Parse a snapshot and report structural errors (not an object, duplicate keys,
unknown categories, malformed category values) and warnings (failed categories,
empty categories, registered categories that are missing).

# Examples

  sfctl validate -f snapshot.json
  sfctl validate -f cm://storage/vsp-facts --fail-on-warning`,
		Flags: []cli.Flag{
			snapshotFlag("snapshot", "f", "Snapshot document to validate."),
			&cli.BoolFlag{
				Name:  "fail-on-warning",
				Usage: "Exit with non-zero status on warnings as well as errors",
			},
			registryFlag(),
			kubeconfigFlag(),
			outputFlag(),
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			reg, err := loadRegistry(cmd)
			if err != nil {
				return err
			}

			uri := strings.TrimSpace(cmd.String("snapshot"))
			if strings.HasPrefix(uri, storeRefPrefix) {
				return fmt.Errorf("validate reads documents, not history store references: %s", uri)
			}
			slog.Info("validating snapshot", "uri", uri)

			data, err := serializer.ReadBytes(ctx, uri, serializer.WithKubeconfig(cmd.String("kubeconfig")))
			if err != nil {
				return fmt.Errorf("failed to read snapshot from %q: %w", uri, err)
			}

			rep, _ := query.Validate(data, reg)
			rep.Metadata[header.MetadataSource] = uri

			if err := writeOutput(ctx, cmd, rep, serializer.FormatTable); err != nil {
				return err
			}

			if !rep.Valid {
				return fmt.Errorf("snapshot %s is invalid: %d error(s)", uri, len(rep.Errors))
			}
			if cmd.Bool("fail-on-warning") && len(rep.Warnings) > 0 {
				return fmt.Errorf("snapshot %s has %d warning(s)", uri, len(rep.Warnings))
			}
			return nil
		},
	}
}

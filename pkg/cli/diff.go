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

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/storage-facts/pkg/diff"
	"github.com/NVIDIA/storage-facts/pkg/serializer"
)

func diffCmd() *cli.Command {
	return &cli.Command{
		Name:                  "diff",
		EnableShellCompletion: true,
		Usage:                 "Report configuration drift between two snapshots",
		Description: `Compare two snapshots category by category. Items are matched by identity:
the first scalar field present from the category's identity keys, then
--identity-key values (default: id, ldev_id, ldevId, resource_id, port_id,
portId, pool_id, poolId, serial_number, serialNumber, wwn, name), falling back
to a content hash. Categories that failed on either side are reported as
unavailable rather than as drift.

# Examples

Compare two files:
  sfctl diff --old facts-old.json --new facts-new.json

Compare the two most recent snapshots of an array in the history store:
  sfctl diff --old store:previous --new store:latest --target vsp-5500-1

Fail a pipeline on drift:
  sfctl diff --old baseline.json --new store:latest --fail-on-drift`,
		Flags: []cli.Flag{
			snapshotFlag("old", "", "Older snapshot."),
			snapshotFlag("new", "", "Newer snapshot."),
			&cli.StringSliceFlag{
				Name:  "identity-key",
				Usage: "Identity field priority replacing the default list (repeatable; fields may be joined with '+')",
			},
			&cli.BoolFlag{
				Name:  "drift-only",
				Usage: "Only report categories that drifted",
			},
			&cli.BoolFlag{
				Name:  "fail-on-drift",
				Usage: "Exit with non-zero status if any category drifted",
			},
			registryFlag(),
			storeFlag(),
			targetFlag(),
			kubeconfigFlag(),
			outputFlag(),
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			reg, err := loadRegistry(cmd)
			if err != nil {
				return err
			}
			older, err := loadSnapshot(ctx, cmd, cmd.String("old"), reg)
			if err != nil {
				return err
			}
			newer, err := loadSnapshot(ctx, cmd, cmd.String("new"), reg)
			if err != nil {
				return err
			}

			rep := diff.Diff(older, newer,
				diff.WithRegistry(reg),
				diff.WithIdentityKeys(cmd.StringSlice("identity-key")...),
			)
			rep.Metadata["old"] = cmd.String("old")
			rep.Metadata["new"] = cmd.String("new")

			slog.Info("diff complete",
				"categories", rep.Totals.Categories,
				"drifted", rep.Totals.Drifted,
				"unavailable", rep.Totals.Unavailable,
				"collisions", rep.Totals.Collisions)

			drifted := rep.HasDrift()
			if cmd.Bool("drift-only") {
				rep.Categories = rep.Drifted()
				if rep.Categories == nil {
					rep.Categories = []diff.CategoryDiff{}
				}
			}

			if err := writeOutput(ctx, cmd, rep, serializer.FormatYAML); err != nil {
				return err
			}
			if drifted && cmd.Bool("fail-on-drift") {
				return fmt.Errorf("drift detected in %d categories", rep.Totals.Drifted)
			}
			return nil
		},
	}
}

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

	"github.com/NVIDIA/storage-facts/pkg/defaults"
	"github.com/NVIDIA/storage-facts/pkg/serializer"
	"github.com/NVIDIA/storage-facts/pkg/store"
)

func historyCmd() *cli.Command {
	return &cli.Command{
		Name:                  "history",
		EnableShellCompletion: true,
		Usage:                 "Manage the snapshot history store",
		Description: `Snapshots saved with 'sfctl collect --save' or 'sfctl history add' are kept in a
SQLite database (--store) and can be referenced elsewhere as store:latest,
store:previous or store:<run-id>.`,
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List stored snapshots, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of snapshots to list",
						Value: defaults.StoreListLimit,
					},
					storeFlag(),
					targetFlag(),
					outputFlag(),
					formatFlag(),
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					st, err := openStore(cmd, nil)
					if err != nil {
						return err
					}
					defer st.Close()

					entries, err := st.List(ctx, store.ListOptions{
						Target: cmd.String("target"),
						Limit:  int(cmd.Int("limit")),
					})
					if err != nil {
						return err
					}
					return writeOutput(ctx, cmd, store.NewHistory(st.Path(), entries), serializer.FormatTable)
				},
			},
			{
				Name:  "add",
				Usage: "Save an existing snapshot document to the store",
				Flags: []cli.Flag{
					snapshotFlag("snapshot", "f", "Snapshot document to save."),
					registryFlag(),
					storeFlag(),
					targetFlag(),
					kubeconfigFlag(),
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					snap, err := readSnapshotFlag(ctx, cmd, "snapshot")
					if err != nil {
						return err
					}
					if target := cmd.String("target"); target != "" {
						md, _ := snap.Metadata()
						if md.Target == "" {
							md.Target = target
							snap = snap.WithMetadata(md)
						}
					}

					reg, err := loadRegistry(cmd)
					if err != nil {
						return err
					}
					st, err := openStore(cmd, reg)
					if err != nil {
						return err
					}
					defer st.Close()

					entry, err := st.Save(ctx, snap)
					if err != nil {
						return fmt.Errorf("failed to save snapshot: %w", err)
					}
					slog.Info("snapshot saved", "id", entry.ID, "store", st.Path())
					fmt.Fprintln(cmd.Root().Writer, entry.ID)
					return nil
				},
			},
			{
				Name:      "show",
				Usage:     "Write a stored snapshot document",
				ArgsUsage: "<run-id|latest|previous>",
				Flags:     []cli.Flag{storeFlag(), targetFlag(), outputFlag(), formatFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					ref := cmd.Args().First()
					if ref == "" {
						ref = store.RefLatest
					}
					st, err := openStore(cmd, nil)
					if err != nil {
						return err
					}
					defer st.Close()

					snap, err := st.Resolve(ctx, ref, cmd.String("target"))
					if err != nil {
						return err
					}
					return writeOutput(ctx, cmd, snap, serializer.FormatJSON)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a stored snapshot",
				ArgsUsage: "<run-id>",
				Flags:     []cli.Flag{storeFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id := cmd.Args().First()
					if id == "" {
						return fmt.Errorf("a run id is required")
					}
					st, err := openStore(cmd, nil)
					if err != nil {
						return err
					}
					defer st.Close()

					if err := st.Delete(ctx, id); err != nil {
						return err
					}
					slog.Info("snapshot deleted", "id", id)
					return nil
				},
			},
			{
				Name:  "prune",
				Usage: "Keep only the newest snapshots of each target",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "keep",
						Usage:    "Number of snapshots to keep per target",
						Required: true,
					},
					storeFlag(),
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					st, err := openStore(cmd, nil)
					if err != nil {
						return err
					}
					defer st.Close()

					n, err := st.Prune(ctx, int(cmd.Int("keep")))
					if err != nil {
						return err
					}
					slog.Info("snapshots pruned", "deleted", n)
					fmt.Fprintf(cmd.Root().Writer, "deleted %d snapshot(s)\n", n)
					return nil
				},
			},
		},
	}
}

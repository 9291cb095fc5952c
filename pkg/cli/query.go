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
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/storage-facts/pkg/facts"
	"github.com/NVIDIA/storage-facts/pkg/flatten"
	"github.com/NVIDIA/storage-facts/pkg/header"
	"github.com/NVIDIA/storage-facts/pkg/query"
	"github.com/NVIDIA/storage-facts/pkg/serializer"
)

// snapshotInputFlags are shared by every command that reads a snapshot.
func snapshotInputFlags() []cli.Flag {
	return []cli.Flag{
		snapshotFlag("snapshot", "f", "Snapshot to read."),
		registryFlag(),
		storeFlag(),
		targetFlag(),
		kubeconfigFlag(),
		outputFlag(),
		formatFlag(),
	}
}

func categoryFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "category",
		Aliases:  []string{"c"},
		Required: true,
		Usage:    "Category name (see 'sfctl list')",
	}
}

func listCmd() *cli.Command {
	return &cli.Command{
		Name:                  "list",
		EnableShellCompletion: true,
		Usage:                 "List the categories that can be collected",
		Flags:                 []cli.Flag{registryFlag(), outputFlag(), formatFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			reg, err := loadRegistry(cmd)
			if err != nil {
				return err
			}
			return writeOutput(ctx, cmd, query.List(reg), serializer.FormatTable)
		},
	}
}

func summaryCmd() *cli.Command {
	return &cli.Command{
		Name:                  "summary",
		EnableShellCompletion: true,
		Usage:                 "Show the status and item count of every category in a snapshot",
		Description: `Failed categories are listed with their error and no count.

# Examples

  sfctl summary -f snapshot.json
  sfctl summary -f store:latest --format json`,
		Flags: snapshotInputFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			snap, err := readSnapshotFlag(ctx, cmd, "snapshot")
			if err != nil {
				return err
			}
			sum := query.Summarize(snap)
			sum.Metadata[header.MetadataVersion] = version
			return writeOutput(ctx, cmd, sum, serializer.FormatTable)
		},
	}
}

func extractCmd() *cli.Command {
	return &cli.Command{
		Name:                  "extract",
		EnableShellCompletion: true,
		Usage:                 "Print the items of one category",
		Description: `Extracting a category whose collection failed is an error that carries the
recorded failure.

# Examples

  sfctl extract -f snapshot.json -c ldevs
  sfctl extract -f store:latest -c storage_ports --format table`,
		Flags: append(snapshotInputFlags(), categoryFlag(), listPolicyFlag()),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			snap, err := readSnapshotFlag(ctx, cmd, "snapshot")
			if err != nil {
				return err
			}
			category := cmd.String("category")
			items, err := query.Extract(snap, category)
			if err != nil {
				return err
			}
			return writeItems(ctx, cmd, snap, category, "", items)
		},
	}
}

func countCmd() *cli.Command {
	return &cli.Command{
		Name:                  "count",
		EnableShellCompletion: true,
		Usage:                 "Print the number of items in one category",
		Flags:                 append(snapshotInputFlags(), categoryFlag()),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			snap, err := readSnapshotFlag(ctx, cmd, "snapshot")
			if err != nil {
				return err
			}
			category := cmd.String("category")
			n, err := query.Count(snap, category)
			if err != nil {
				return err
			}
			return writeOutput(ctx, cmd, query.NewCountResult(snap, category, n), serializer.FormatTable)
		},
	}
}

func filterCmd() *cli.Command {
	return &cli.Command{
		Name:                  "filter",
		EnableShellCompletion: true,
		Usage:                 "Print the items of a category whose field matches a value",
		Description: `The key is a dotted path into each item ("pool.name", "paths.0.port_id").
Matching ignores case. Items missing the key, or holding a list or map there,
are skipped. --pattern accepts '*' wildcards instead of an exact value.

# Examples

  sfctl filter -f snapshot.json -c ldevs --key status --value normal
  sfctl filter -f snapshot.json -c storage_ports --key port_id --pattern 'CL1-*'`,
		Flags: append(snapshotInputFlags(), categoryFlag(), listPolicyFlag(),
			&cli.StringFlag{
				Name:     "key",
				Aliases:  []string{"K"},
				Required: true,
				Usage:    "Dotted key path to compare",
			},
			&cli.StringFlag{
				Name:    "value",
				Aliases: []string{"V"},
				Usage:   "Value to match, ignoring case",
			},
			&cli.StringFlag{
				Name:  "pattern",
				Usage: "Wildcard pattern to match instead of --value",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.IsSet("value") == cmd.IsSet("pattern") {
				return fmt.Errorf("exactly one of --value or --pattern is required")
			}
			snap, err := readSnapshotFlag(ctx, cmd, "snapshot")
			if err != nil {
				return err
			}

			category, key := cmd.String("category"), cmd.String("key")
			var (
				items []facts.Item
				desc  string
			)
			if cmd.IsSet("pattern") {
				items, err = query.FilterPattern(snap, category, key, cmd.String("pattern"))
				desc = key + "~" + cmd.String("pattern")
			} else {
				items, err = query.Filter(snap, category, key, cmd.String("value"))
				desc = key + "=" + cmd.String("value")
			}
			if err != nil {
				return err
			}
			return writeItems(ctx, cmd, snap, category, desc, items)
		},
	}
}

func exportCmd() *cli.Command {
	return &cli.Command{
		Name:                  "export",
		EnableShellCompletion: true,
		Usage:                 "Flatten a category into a table",
		Description: `Every item becomes one row whose columns are dotted key paths. The column set
is the sorted union of all rows; missing cells hold --missing.

# Examples

  sfctl export -f snapshot.json -c ldevs -o ldevs.csv
  sfctl export -f snapshot.json -c storage_ports --columns 'port_id' --columns 'port_*' --format table`,
		Flags: append(snapshotInputFlags(), categoryFlag(), listPolicyFlag(),
			&cli.StringFlag{
				Name:  "missing",
				Usage: "Cell value for keys absent from an item",
			},
			&cli.StringSliceFlag{
				Name:  "columns",
				Usage: "Keep only columns matching these wildcard patterns (repeatable)",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts, err := flattenOptions(cmd)
			if err != nil {
				return err
			}
			snap, err := readSnapshotFlag(ctx, cmd, "snapshot")
			if err != nil {
				return err
			}
			items, err := query.Extract(snap, cmd.String("category"))
			if err != nil {
				return err
			}
			return writeOutput(ctx, cmd, flatten.Export(items, opts), serializer.FormatCSV)
		},
	}
}

func listPolicyFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "lists",
		Usage: fmt.Sprintf("How table output flattens lists (%s or %s)", flatten.ListIndex, flatten.ListJSON),
		Value: string(flatten.ListIndex),
	}
}

func flattenOptions(cmd *cli.Command) (flatten.Options, error) {
	policy, err := flatten.ParseListPolicy(cmd.String("lists"))
	if err != nil {
		return flatten.Options{}, err
	}
	return flatten.Options{
		Lists:   policy,
		Missing: cmd.String("missing"),
		Columns: cmd.StringSlice("columns"),
	}, nil
}

// writeItems writes an extraction report for structured formats and a
// flattened table for table and csv.
func writeItems(ctx context.Context, cmd *cli.Command, snap *facts.Snapshot, category, filter string, items []facts.Item) error {
	format, err := parseOutputFormat(cmd, serializer.FormatJSON)
	if err != nil {
		return err
	}
	if format.IsStructured() {
		return writeOutput(ctx, cmd, query.NewExtraction(snap, category, filter, items), format)
	}
	opts, err := flattenOptions(cmd)
	if err != nil {
		return err
	}
	return writeOutput(ctx, cmd, flatten.Export(items, opts), format)
}

func readSnapshotFlag(ctx context.Context, cmd *cli.Command, flagName string) (*facts.Snapshot, error) {
	reg, err := loadRegistry(cmd)
	if err != nil {
		return nil, err
	}
	uri := strings.TrimSpace(cmd.String(flagName))
	return loadSnapshot(ctx, cmd, uri, reg)
}

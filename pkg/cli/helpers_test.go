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
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/storage-facts/pkg/serializer"
)

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		fallback   serializer.Format
		wantFormat serializer.Format
		wantErr    bool
	}{
		{
			name:       "explicit yaml",
			args:       []string{"test", "--format", "yaml"},
			fallback:   serializer.FormatJSON,
			wantFormat: serializer.FormatYAML,
		},
		{
			name:       "explicit format is case-insensitive",
			args:       []string{"test", "--format", "CSV"},
			fallback:   serializer.FormatJSON,
			wantFormat: serializer.FormatCSV,
		},
		{
			name:     "invalid format",
			args:     []string{"test", "--format", "xml"},
			fallback: serializer.FormatJSON,
			wantErr:  true,
		},
		{
			name:       "format from output extension",
			args:       []string{"test", "--output", "out.yml"},
			fallback:   serializer.FormatJSON,
			wantFormat: serializer.FormatYAML,
		},
		{
			name:       "explicit format wins over extension",
			args:       []string{"test", "--output", "out.yml", "--format", "json"},
			fallback:   serializer.FormatTable,
			wantFormat: serializer.FormatJSON,
		},
		{
			name:       "configmap output uses fallback",
			args:       []string{"test", "--output", "cm://ns/name"},
			fallback:   serializer.FormatYAML,
			wantFormat: serializer.FormatYAML,
		},
		{
			name:       "nothing set uses fallback",
			args:       []string{"test"},
			fallback:   serializer.FormatTable,
			wantFormat: serializer.FormatTable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cli.Command{
				Flags: []cli.Flag{outputFlag(), formatFlag()},
				Action: func(_ context.Context, c *cli.Command) error {
					got, err := parseOutputFormat(c, tt.fallback)
					if (err != nil) != tt.wantErr {
						t.Errorf("parseOutputFormat() error = %v, wantErr %v", err, tt.wantErr)
						return nil
					}
					if !tt.wantErr && got != tt.wantFormat {
						t.Errorf("parseOutputFormat() = %v, want %v", got, tt.wantFormat)
					}
					return nil
				},
			}
			if err := cmd.Run(context.Background(), tt.args); err != nil {
				t.Fatalf("failed to run command: %v", err)
			}
		})
	}
}

func TestParseKeyValues(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    map[string]string
		wantErr bool
	}{
		{"empty", nil, map[string]string{}, false},
		{"pairs", []string{"a=1", "b=x=y"}, map[string]string{"a": "1", "b": "x=y"}, false},
		{"empty value", []string{"a="}, map[string]string{"a": ""}, false},
		{"trimmed key", []string{" a =1"}, map[string]string{"a": "1"}, false},
		{"missing separator", []string{"a"}, nil, true},
		{"empty key", []string{"=1"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseKeyValues(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseKeyValues() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseKeyValues() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("parseKeyValues()[%q] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	want := []string{
		"collect", "list", "summary", "extract", "count", "filter",
		"export", "diff", "validate", "history", "publish",
	}
	for _, name := range want {
		if root.Command(name) == nil {
			t.Errorf("missing command %q", name)
		}
	}
	history := root.Command("history")
	for _, name := range []string{"list", "add", "show", "delete", "prune"} {
		if history.Command(name) == nil {
			t.Errorf("missing history subcommand %q", name)
		}
	}
}

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

package serializer

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/storage-facts/pkg/facts"
	"github.com/NVIDIA/storage-facts/pkg/flatten"
)

type testReport struct {
	Name  string         `json:"name" yaml:"name"`
	Count int            `json:"count" yaml:"count"`
	Tags  map[string]int `json:"tags,omitempty" yaml:"tags,omitempty"`
}

func testSnapshot(t *testing.T) *facts.Snapshot {
	t.Helper()
	items, err := facts.Normalize([]any{map[string]any{"ldev_id": 1, "name": "db01"}})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	snap, err := facts.NewSnapshot(facts.OK("ldevs", items), facts.Failed("journals", "timeout"))
	if err != nil {
		t.Fatalf("NewSnapshot failed: %v", err)
	}
	return snap
}

func TestWriter_SerializeJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatJSON, &buf)

	if err := w.Serialize(context.Background(), testReport{Name: "a", Count: 2}); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	var got testReport
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Name != "a" || got.Count != 2 {
		t.Errorf("unexpected data: %+v", got)
	}
}

func TestWriter_SerializeYAML(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatYAML, &buf)

	if err := w.Serialize(context.Background(), testReport{Name: "a", Count: 2}); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	var got testReport
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if got.Name != "a" || got.Count != 2 {
		t.Errorf("unexpected data: %+v", got)
	}
}

func TestWriter_SnapshotRoundTrip(t *testing.T) {
	snap := testSnapshot(t)

	for _, f := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewWriter(f, &buf).Serialize(context.Background(), snap); err != nil {
				t.Fatalf("Serialize failed: %v", err)
			}
			back, err := facts.Parse(buf.Bytes(), nil)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if !snap.Equal(back) {
				t.Errorf("round trip mismatch:\n%s", buf.String())
			}
		})
	}
}

func TestWriter_SerializeTable(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatTable, &buf)

	if err := w.Serialize(context.Background(), testReport{Name: "a", Count: 2, Tags: map[string]int{"x": 1}}); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"FIELD", "VALUE", "count", "name", "tags.x"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestWriter_SerializeTable_Tabular(t *testing.T) {
	tbl := flatten.NewTable([]flatten.Row{{"port_id": "CL1-A"}}, flatten.Options{})

	var buf bytes.Buffer
	if err := NewWriter(FormatTable, &buf).Serialize(context.Background(), tbl); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if strings.Contains(buf.String(), "FIELD") {
		t.Errorf("expected table rendering, got:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "CL1-A") {
		t.Errorf("missing cell:\n%s", buf.String())
	}
}

func TestWriter_SerializeTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriter(FormatTable, &buf).Serialize(context.Background(), map[string]any{}); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if buf.String() != "<empty>\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestWriter_SerializeCSV(t *testing.T) {
	tbl := flatten.NewTable([]flatten.Row{{"a": "1", "b": "2"}}, flatten.Options{})

	var buf bytes.Buffer
	if err := NewWriter(FormatCSV, &buf).Serialize(context.Background(), tbl); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if buf.String() != "a,b\n1,2\n" {
		t.Errorf("got %q", buf.String())
	}

	if err := NewWriter(FormatCSV, &buf).Serialize(context.Background(), testReport{}); err == nil {
		t.Error("expected error for non tabular csv")
	}
}

func TestNewWriter_UnknownFormatDefaultsToJSON(t *testing.T) {
	w := NewWriter(Format("xml"), nil)
	if w.format != FormatJSON {
		t.Errorf("expected JSON, got %s", w.format)
	}
}

func TestNewFileWriterOrStdout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	s, err := NewFileWriterOrStdout(FormatJSON, path)
	if err != nil {
		t.Fatalf("NewFileWriterOrStdout failed: %v", err)
	}
	if err := s.Serialize(context.Background(), testReport{Name: "file"}); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if c, ok := s.(Closer); ok {
		if err := c.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		// second close is a no-op
		if err := c.Close(); err != nil {
			t.Fatalf("second Close failed: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(data), `"file"`) {
		t.Errorf("unexpected file content: %s", data)
	}

	s, err = NewFileWriterOrStdout(FormatJSON, "  ")
	if err != nil {
		t.Fatalf("stdout writer failed: %v", err)
	}
	if _, ok := s.(*Writer); !ok {
		t.Errorf("expected *Writer, got %T", s)
	}

	s, err = NewFileWriterOrStdout(FormatJSON, "cm://ns/name")
	if err != nil {
		t.Fatalf("configmap writer failed: %v", err)
	}
	if _, ok := s.(*ConfigMapWriter); !ok {
		t.Errorf("expected *ConfigMapWriter, got %T", s)
	}

	if _, err := NewFileWriterOrStdout(FormatJSON, "cm://bad"); err == nil {
		t.Error("expected error for malformed ConfigMap URI")
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"a.json":       FormatJSON,
		"a.YAML":       FormatYAML,
		"a.yml":        FormatYAML,
		"a.csv":        FormatCSV,
		"a.txt":        FormatTable,
		"a.table":      FormatTable,
		"no-extension": FormatJSON,
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %s, want %s", path, got, want)
		}
	}
}

func TestSupportedFormats(t *testing.T) {
	for _, f := range SupportedFormats() {
		if Format(f).IsUnknown() {
			t.Errorf("format %s reported unknown", f)
		}
	}
	if !FormatJSON.IsStructured() || FormatCSV.IsStructured() {
		t.Error("unexpected IsStructured result")
	}
}

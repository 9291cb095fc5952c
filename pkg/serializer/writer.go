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
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/storage-facts/pkg/facts"
	"github.com/NVIDIA/storage-facts/pkg/flatten"
)

const defaultValueKey = "value"

// Writer serializes values to an io.Writer.
// Close must be called to release file handles when using NewFileWriterOrStdout.
type Writer struct {
	format Format
	output io.Writer
	closer io.Closer
}

// NewWriter creates a Writer for output. A nil output means stdout and an
// unknown format falls back to JSON.
func NewWriter(format Format, output io.Writer) *Writer {
	if output == nil {
		output = os.Stdout
	}
	if format.IsUnknown() {
		slog.Warn("unknown format, defaulting to JSON", "format", format)
		format = FormatJSON
	}
	return &Writer{
		format: format,
		output: output,
	}
}

// NewStdoutWriter creates a Writer that outputs to stdout.
func NewStdoutWriter(format Format) *Writer {
	return NewWriter(format, os.Stdout)
}

// NewFileWriterOrStdout creates a Serializer for path. An empty path writes to
// stdout and a cm://namespace/name URI writes to a ConfigMap.
func NewFileWriterOrStdout(format Format, path string) (Serializer, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return NewStdoutWriter(format), nil
	}

	if IsConfigMapURI(trimmed) {
		namespace, name, err := ParseConfigMapURI(trimmed)
		if err != nil {
			return nil, err
		}
		return NewConfigMapWriter(namespace, name, format), nil
	}

	file, err := os.Create(trimmed)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file %s: %w", trimmed, err)
	}

	w := NewWriter(format, file)
	w.closer = file
	return w, nil
}

// Close releases the underlying file, if any. Safe to call more than once.
func (w *Writer) Close() error {
	if w.closer != nil {
		err := w.closer.Close()
		w.closer = nil
		return err
	}
	return nil
}

// Serialize writes v in the configured format.
func (w *Writer) Serialize(_ context.Context, v any) error {
	content, err := Marshal(w.format, v)
	if err != nil {
		return err
	}
	if _, err := w.output.Write(content); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// Marshal renders v in format.
func Marshal(format Format, v any) ([]byte, error) {
	switch format {
	case FormatJSON:
		return marshalJSON(v)
	case FormatYAML:
		return marshalYAML(v)
	case FormatTable:
		return marshalTable(v)
	case FormatCSV:
		return marshalCSV(v)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to serialize to JSON: %w", err)
	}
	return buf.Bytes(), nil
}

func marshalYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to serialize to YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to serialize to YAML: %w", err)
	}
	return buf.Bytes(), nil
}

func marshalCSV(v any) ([]byte, error) {
	t, ok := v.(CSVTable)
	if !ok {
		return nil, fmt.Errorf("csv output is not supported for %T", v)
	}
	var buf bytes.Buffer
	if err := t.WriteCSV(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// marshalTable renders tabular values directly and any other value as
// sorted FIELD/VALUE pairs of its flattened JSON form.
func marshalTable(v any) ([]byte, error) {
	var buf bytes.Buffer
	if t, ok := v.(TextTable); ok {
		if err := t.WriteText(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	flat, err := flattenAny(v)
	if err != nil {
		return nil, err
	}
	if len(flat) == 0 {
		return []byte("<empty>\n"), nil
	}

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tVALUE")
	fmt.Fprintln(tw, "-----\t-----")
	for _, key := range keys {
		fmt.Fprintf(tw, "%s\t%s\n", key, flat[key])
	}
	if err := tw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush table: %w", err)
	}
	return buf.Bytes(), nil
}

func flattenAny(v any) (flatten.Row, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to flatten value: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to flatten value: %w", err)
	}
	val, err := facts.ToValue(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to flatten value: %w", err)
	}

	switch node := val.(type) {
	case facts.Map:
		return flatten.FlattenItem(node, flatten.Options{}), nil
	case facts.List:
		if len(node) == 0 {
			return flatten.Row{}, nil
		}
		return flatten.FlattenItem(facts.Map{defaultValueKey: node}, flatten.Options{}), nil
	default:
		if node.Kind() == facts.KindNull {
			return flatten.Row{}, nil
		}
		return flatten.Row{defaultValueKey: node.String()}, nil
	}
}

// WriteToFile writes data to path with 0644 permissions.
func WriteToFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	return nil
}

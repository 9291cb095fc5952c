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
	"context"
	"io"
	"log/slog"
	"strings"
)

// Serializer writes a value to some destination.
//
// The context parameter bounds implementations that perform remote I/O
// (e.g. ConfigMap writes).
type Serializer interface {
	Serialize(ctx context.Context, v any) error
}

// Closer is an optional interface that Serializers implement when they hold
// resources such as file handles.
type Closer interface {
	Close() error
}

// TextTable is implemented by values with their own plain-text rendering.
type TextTable interface {
	WriteText(w io.Writer) error
}

// CSVTable is implemented by values that can be written as CSV.
type CSVTable interface {
	WriteCSV(w io.Writer) error
}

// Format represents the output format type.
type Format string

const (
	// FormatJSON outputs data in JSON format
	FormatJSON Format = "json"
	// FormatYAML outputs data in YAML format
	FormatYAML Format = "yaml"
	// FormatTable outputs data as an aligned plain-text table
	FormatTable Format = "table"
	// FormatCSV outputs tabular data as CSV
	FormatCSV Format = "csv"
)

// IsUnknown reports whether f is not a supported format.
func (f Format) IsUnknown() bool {
	switch f {
	case FormatJSON, FormatYAML, FormatTable, FormatCSV:
		return false
	default:
		return true
	}
}

// IsStructured reports whether f can be read back.
func (f Format) IsStructured() bool {
	return f == FormatJSON || f == FormatYAML
}

// SupportedFormats returns every output format name.
func SupportedFormats() []string {
	return []string{
		string(FormatJSON),
		string(FormatYAML),
		string(FormatTable),
		string(FormatCSV),
	}
}

// FormatFromPath determines the format from a file extension:
//   - .json → FormatJSON
//   - .yaml, .yml → FormatYAML
//   - .csv → FormatCSV
//   - .table, .txt → FormatTable
//
// Unknown extensions default to JSON. Matching is case-insensitive.
func FormatFromPath(path string) Format {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".json"):
		return FormatJSON
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		return FormatYAML
	case strings.HasSuffix(lower, ".csv"):
		return FormatCSV
	case strings.HasSuffix(lower, ".table"), strings.HasSuffix(lower, ".txt"):
		return FormatTable
	default:
		slog.Debug("unknown file extension, defaulting to JSON", "path", path)
		return FormatJSON
	}
}

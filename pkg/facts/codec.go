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

package facts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	apperrors "github.com/NVIDIA/storage-facts/pkg/errors"
	"github.com/NVIDIA/storage-facts/pkg/registry"
)

// Encoding selects the persisted text form of a snapshot.
type Encoding string

const (
	EncodingJSON Encoding = "json"
	EncodingYAML Encoding = "yaml"
)

// Store writes s in the given encoding. JSON output is indented.
func Store(w io.Writer, s *Snapshot, enc Encoding) error {
	switch enc {
	case EncodingYAML:
		ye := yaml.NewEncoder(w)
		ye.SetIndent(2)
		if err := ye.Encode(s); err != nil {
			return fmt.Errorf("failed to encode snapshot: %w", err)
		}
		return ye.Close()
	case EncodingJSON, "":
		je := json.NewEncoder(w)
		je.SetIndent("", "  ")
		if err := je.Encode(s); err != nil {
			return fmt.Errorf("failed to encode snapshot: %w", err)
		}
		return nil
	default:
		return apperrors.New(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("unsupported snapshot encoding %q", enc))
	}
}

// Load reads a persisted snapshot, detecting JSON or YAML from the content.
// When reg is not nil every category must be registered in it.
func Load(r io.Reader, reg *registry.Registry) (*Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return Parse(data, reg)
}

// LoadFile reads a persisted snapshot from path.
func LoadFile(path string, reg *registry.Registry) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeNotFound,
			fmt.Sprintf("failed to read snapshot %s", path), err)
	}
	return Parse(data, reg)
}

// Parse decodes a persisted snapshot. Content starting with '{' is read as
// JSON, anything else as YAML.
func Parse(data []byte, reg *registry.Registry) (*Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return parseJSON(trimmed, reg)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(trimmed, &doc); err != nil {
		return nil, malformed("snapshot is neither JSON nor YAML", err)
	}
	return parseYAMLNode(&doc, reg)
}

func parseJSON(data []byte, reg *registry.Registry) (*Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, malformed("snapshot is not valid JSON", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, malformed("top level of snapshot must be an object", nil)
	}

	var records []Record
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, malformed("snapshot is not valid JSON", err)
		}
		category, ok := tok.(string)
		if !ok {
			return nil, malformed("snapshot key is not a string", nil)
		}
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return nil, malformedCategory(category, "value is not valid JSON", err)
		}
		v, err := ToValue(raw)
		if err != nil {
			return nil, malformedCategory(category, "value cannot be represented", err)
		}
		rec, err := decodeRecord(category, v, seen, reg)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if _, err := dec.Token(); err != nil {
		return nil, malformed("snapshot is not valid JSON", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, malformed("unexpected content after snapshot object", err)
	}
	return NewSnapshot(records...)
}

func parseYAMLNode(node *yaml.Node, reg *registry.Registry) (*Snapshot, error) {
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil, malformed("snapshot document is empty", nil)
		}
		node = node.Content[0]
	}
	node = resolveAlias(node)
	if node.Kind != yaml.MappingNode {
		return nil, malformed("top level of snapshot must be a mapping", nil)
	}

	records := make([]Record, 0, len(node.Content)/2)
	seen := make(map[string]bool)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k := resolveAlias(node.Content[i])
		if k.Kind != yaml.ScalarNode {
			return nil, malformed(fmt.Sprintf("line %d: snapshot key is not a scalar", k.Line), nil)
		}
		v, err := FromYAMLNode(node.Content[i+1])
		if err != nil {
			return nil, malformedCategory(k.Value, "value cannot be represented", err)
		}
		rec, err := decodeRecord(k.Value, v, seen, reg)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return NewSnapshot(records...)
}

// decodeRecord validates one persisted category value.
func decodeRecord(category string, v Value, seen map[string]bool, reg *registry.Registry) (Record, error) {
	if category == "" {
		return Record{}, malformed("snapshot contains an empty category name", nil)
	}
	if seen[category] {
		return Record{}, malformedCategory(category, "category appears more than once", nil)
	}
	seen[category] = true
	if reg != nil && !reg.Has(category) {
		return Record{}, malformedCategory(category, "category is not registered", nil)
	}

	switch node := v.(type) {
	case List:
		return OK(category, NormalizeValue(node)), nil
	case Map:
		if msg, ok := node["error"]; ok {
			s, isScalar := msg.(Scalar)
			if !isScalar || s.Kind() != KindString {
				return Record{}, malformedCategory(category, "error must be a string", nil)
			}
			return Failed(category, s.String()), nil
		}
		if inner, ok := node[envelopeKey]; ok {
			return OK(category, NormalizeValue(inner)), nil
		}
		return Record{}, malformedCategory(category, "object value must hold error or data", nil)
	case Scalar:
		if node.Kind() == KindNull {
			return OK(category, nil), nil
		}
		return Record{}, malformedCategory(category, "value must be a list or an object", nil)
	default:
		return Record{}, malformedCategory(category, "unsupported value", nil)
	}
}

// FromYAMLNode converts a decoded YAML node into a Value. Integer and float
// scalars keep their literal text when it is a valid JSON number.
func FromYAMLNode(node *yaml.Node) (Value, error) {
	node = resolveAlias(node)
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return Null(), nil
		}
		return FromYAMLNode(node.Content[0])
	case yaml.SequenceNode:
		out := make(List, len(node.Content))
		for i, c := range node.Content {
			v, err := FromYAMLNode(c)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	case yaml.MappingNode:
		out := make(Map, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			k := resolveAlias(node.Content[i])
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping key is not a scalar", k.Line)
			}
			if k.Tag == "!!merge" {
				return nil, fmt.Errorf("line %d: merge keys are not supported", k.Line)
			}
			if _, dup := out[k.Value]; dup {
				return nil, fmt.Errorf("line %d: duplicate key %q", k.Line, k.Value)
			}
			v, err := FromYAMLNode(node.Content[i+1])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k.Value, err)
			}
			out[k.Value] = v
		}
		return out, nil
	case yaml.ScalarNode:
		return yamlScalar(node)
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node", node.Line)
	}
}

func yamlScalar(node *yaml.Node) (Value, error) {
	switch node.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!bool":
		b, err := strconv.ParseBool(node.Value)
		if err != nil {
			var v bool
			if derr := node.Decode(&v); derr != nil {
				return nil, derr
			}
			b = v
		}
		return Bool(b), nil
	case "!!int", "!!float":
		if isJSONNumber(node.Value) {
			return Scalar{kind: KindNumber, s: node.Value}, nil
		}
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, err
		}
		return ToValue(v)
	default:
		return String(node.Value), nil
	}
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func malformed(msg string, cause error) error {
	if cause != nil {
		return apperrors.Wrap(apperrors.ErrCodeMalformedSnapshot, msg, cause)
	}
	return apperrors.New(apperrors.ErrCodeMalformedSnapshot, msg)
}

func malformedCategory(category, msg string, cause error) error {
	return apperrors.WrapWithContext(apperrors.ErrCodeMalformedSnapshot,
		fmt.Sprintf("category %q: %s", category, msg), cause,
		map[string]any{"category": category})
}

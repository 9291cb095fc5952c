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
	"fmt"

	"gopkg.in/yaml.v3"
)

// envelopeKey is the key the array's fact modules wrap their payload in.
const envelopeKey = "data"

// wrapKey is the field non-mapping list elements are stored under.
const wrapKey = "value"

// resultKeys are the fields a module result may carry next to the payload.
var resultKeys = map[string]bool{
	envelopeKey:     true,
	"changed":       true,
	"failed":        true,
	"msg":           true,
	"comment":       true,
	"warnings":      true,
	"invocation":    true,
	"ansible_facts": true,
}

// Normalize converts a fetched payload into the item list of an ok record.
//
// A module result envelope ({"data": X, ...}) is unwrapped to X. A list is
// used as-is, null becomes an empty list and any other payload becomes a
// one-element list. List elements that are not mappings are wrapped as
// {"value": v}.
func Normalize(payload any) ([]Item, error) {
	v, err := ToValue(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to convert payload: %w", err)
	}
	return NormalizeValue(v), nil
}

// NormalizeValue is Normalize for an already converted value.
func NormalizeValue(v Value) []Item {
	if inner, ok := unwrapEnvelope(v); ok {
		v = inner
	}

	switch node := v.(type) {
	case List:
		items := make([]Item, len(node))
		for i, e := range node {
			items[i] = asItem(e)
		}
		return items
	case Scalar:
		if node.Kind() == KindNull {
			return []Item{}
		}
		return []Item{asItem(node)}
	case Map:
		return []Item{node}
	default:
		return []Item{}
	}
}

func unwrapEnvelope(v Value) (Value, bool) {
	m, ok := v.(Map)
	if !ok {
		return nil, false
	}
	inner, ok := m[envelopeKey]
	if !ok {
		return nil, false
	}
	for k := range m {
		if !resultKeys[k] {
			return nil, false
		}
	}
	return inner, true
}

func asItem(v Value) Item {
	if m, ok := v.(Map); ok {
		if m == nil {
			return Item{}
		}
		return m
	}
	return Item{wrapKey: v}
}

// DecodePayload parses raw fetch output. Output starting with '{' or '['
// is read as JSON with numbers kept exact, anything else as YAML. Empty
// output decodes to null.
func DecodePayload(data []byte) (Value, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Null(), nil
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		v, err := decodeJSONValue(trimmed)
		if err != nil {
			return nil, fmt.Errorf("failed to decode JSON payload: %w", err)
		}
		return v, nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode YAML payload: %w", err)
	}
	return FromYAMLNode(&doc)
}

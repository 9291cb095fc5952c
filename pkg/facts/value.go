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
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind identifies the shape of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a node of a fact document: a Scalar, a List or a Map.
type Value interface {
	isValue()
	Kind() Kind
	// Any returns the plain Go form: nil, bool, json.Number, string,
	// []any or map[string]any.
	Any() any
	String() string

	json.Marshaler
	yaml.Marshaler
}

// Scalar holds null, a bool, a number kept as its exact decimal text, or a string.
type Scalar struct {
	kind Kind
	b    bool
	s    string
}

// List is an ordered sequence of values.
type List []Value

// Map is an unordered set of named values.
type Map map[string]Value

// Item is one record within a category. Every item is a mapping.
type Item = Map

func (Scalar) isValue() {}
func (List) isValue()   {}
func (Map) isValue()    {}

// Null returns the null scalar.
func Null() Scalar { return Scalar{kind: KindNull} }

// Bool returns a boolean scalar.
func Bool(v bool) Scalar { return Scalar{kind: KindBool, b: v} }

// String returns a string scalar.
func String(v string) Scalar { return Scalar{kind: KindString, s: v} }

// Int returns a number scalar.
func Int(v int64) Scalar { return Scalar{kind: KindNumber, s: strconv.FormatInt(v, 10)} }

// Number returns a number scalar from its decimal text.
func Number(text string) (Scalar, error) {
	if !isJSONNumber(text) {
		return Scalar{}, fmt.Errorf("invalid number %q", text)
	}
	return Scalar{kind: KindNumber, s: text}, nil
}

// Kind returns the scalar kind.
func (s Scalar) Kind() Kind { return s.kind }

// Any returns nil, bool, json.Number or string.
func (s Scalar) Any() any {
	switch s.kind {
	case KindBool:
		return s.b
	case KindNumber:
		return json.Number(s.s)
	case KindString:
		return s.s
	default:
		return nil
	}
}

// String returns the textual form used for matching and flat exports.
func (s Scalar) String() string {
	switch s.kind {
	case KindBool:
		return strconv.FormatBool(s.b)
	case KindNumber, KindString:
		return s.s
	default:
		return "null"
	}
}

// MarshalJSON emits the bare scalar.
func (s Scalar) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case KindBool:
		return []byte(strconv.FormatBool(s.b)), nil
	case KindNumber:
		return []byte(s.s), nil
	case KindString:
		return json.Marshal(s.s)
	default:
		return []byte("null"), nil
	}
}

// MarshalYAML emits the bare scalar; numbers keep their exact text.
func (s Scalar) MarshalYAML() (any, error) {
	switch s.kind {
	case KindBool:
		return s.b, nil
	case KindNumber:
		tag := "!!int"
		if strings.ContainsAny(s.s, ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: s.s}, nil
	case KindString:
		return s.s, nil
	default:
		return nil, nil
	}
}

// Kind returns KindList.
func (l List) Kind() Kind { return KindList }

// Any returns the list as []any.
func (l List) Any() any {
	out := make([]any, len(l))
	for i, v := range l {
		out[i] = v.Any()
	}
	return out
}

// String returns the canonical JSON encoding.
func (l List) String() string { return Canonical(l) }

// MarshalJSON emits a JSON array; a nil list is emitted as [].
func (l List) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Value(l))
}

// MarshalYAML emits a sequence.
func (l List) MarshalYAML() (any, error) {
	if l == nil {
		return []Value{}, nil
	}
	return []Value(l), nil
}

// Kind returns KindMap.
func (m Map) Kind() Kind { return KindMap }

// Any returns the map as map[string]any.
func (m Map) Any() any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v.Any()
	}
	return out
}

// String returns the canonical JSON encoding.
func (m Map) String() string { return Canonical(m) }

// MarshalJSON emits a JSON object with sorted keys.
func (m Map) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]Value(m))
}

// MarshalYAML emits a mapping with sorted keys.
func (m Map) MarshalYAML() (any, error) {
	if m == nil {
		return map[string]Value{}, nil
	}
	return map[string]Value(m), nil
}

// Get returns the value stored under key.
func (m Map) Get(key string) (Value, bool) {
	v, ok := m[key]
	return v, ok
}

// ToValue converts a JSON-compatible Go value into a Value.
// Numbers of any Go numeric type become number scalars. Types outside the
// JSON model are round-tripped through encoding/json.
func ToValue(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case json.Number:
		return Number(val.String())
	case int:
		return Int(int64(val)), nil
	case int8:
		return Int(int64(val)), nil
	case int16:
		return Int(int64(val)), nil
	case int32:
		return Int(int64(val)), nil
	case int64:
		return Int(val), nil
	case uint:
		return Scalar{kind: KindNumber, s: strconv.FormatUint(uint64(val), 10)}, nil
	case uint8:
		return Int(int64(val)), nil
	case uint16:
		return Int(int64(val)), nil
	case uint32:
		return Int(int64(val)), nil
	case uint64:
		return Scalar{kind: KindNumber, s: strconv.FormatUint(val, 10)}, nil
	case float32:
		return floatValue(float64(val))
	case float64:
		return floatValue(val)
	case []any:
		out := make(List, len(val))
		for i, e := range val {
			ev, err := ToValue(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = ev
		}
		return out, nil
	case map[string]any:
		out := make(Map, len(val))
		for k, e := range val {
			ev, err := ToValue(e)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = ev
		}
		return out, nil
	case map[any]any:
		out := make(Map, len(val))
		for k, e := range val {
			ev, err := ToValue(e)
			if err != nil {
				return nil, fmt.Errorf("%v: %w", k, err)
			}
			out[fmt.Sprint(k)] = ev
		}
		return out, nil
	default:
		return viaJSON(v)
	}
}

// MustValue is like ToValue but panics on error. Intended for tests and literals.
func MustValue(v any) Value {
	out, err := ToValue(v)
	if err != nil {
		panic(err)
	}
	return out
}

func floatValue(f float64) (Value, error) {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !isJSONNumber(s) {
		return nil, fmt.Errorf("number %v has no JSON representation", f)
	}
	return Scalar{kind: KindNumber, s: s}, nil
}

func viaJSON(v any) (Value, error) {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return Null(), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("unsupported value of type %T: %w", v, err)
	}
	return decodeJSONValue(data)
}

func decodeJSONValue(data []byte) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return ToValue(raw)
}

func isJSONNumber(s string) bool {
	return s != "" && json.Valid([]byte(s)) && (s[0] == '-' || (s[0] >= '0' && s[0] <= '9'))
}

// Equal reports deep equality. Map keys are order-insensitive, lists are
// order-sensitive and numbers compare by exact decimal value.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Scalar:
		bv := b.(Scalar)
		switch av.kind {
		case KindBool:
			return av.b == bv.b
		case KindString:
			return av.s == bv.s
		case KindNumber:
			return numbersEqual(av.s, bv.s)
		default:
			return true
		}
	case List:
		bv := b.(List)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Map:
		bv := b.(Map)
		if len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, ok := bv[k]
			if !ok || !Equal(v, w) {
				return false
			}
		}
		return true
	}
	return false
}

func numbersEqual(a, b string) bool {
	if a == b {
		return true
	}
	ra, okA := new(big.Rat).SetString(a)
	rb, okB := new(big.Rat).SetString(b)
	return okA && okB && ra.Cmp(rb) == 0
}

// Canonical returns the key-sorted compact JSON encoding of v. Numbers are
// written in their shortest exact decimal form ("1.0" and "1" both encode
// as 1), so values that are Equal always share one canonical encoding.
func Canonical(v Value) string {
	var b strings.Builder
	writeCanonical(&b, v)
	return b.String()
}

func writeCanonical(b *strings.Builder, v Value) {
	switch node := v.(type) {
	case Scalar:
		if node.kind == KindNumber {
			b.WriteString(CanonicalNumber(node.s))
			return
		}
		data, _ := node.MarshalJSON()
		b.Write(data)
	case List:
		b.WriteByte('[')
		for i, e := range node {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, e)
		}
		b.WriteByte(']')
	case Map:
		keys := make([]string, 0, len(node))
		for k := range node {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			key, _ := json.Marshal(k)
			b.Write(key)
			b.WriteByte(':')
			writeCanonical(b, node[k])
		}
		b.WriteByte('}')
	default:
		b.WriteString("null")
	}
}

// CanonicalNumber rewrites JSON number text as its shortest exact decimal:
// no exponent, no trailing fractional zeros, no negative zero. Text that is
// not a number is returned unchanged.
func CanonicalNumber(text string) string {
	r, ok := new(big.Rat).SetString(text)
	if !ok {
		return text
	}
	if r.IsInt() {
		return r.Num().String()
	}
	// A decimal literal has a denominator of 2^a * 5^b and needs max(a, b)
	// fractional digits.
	d := new(big.Int).Set(r.Denom())
	two, five := big.NewInt(2), big.NewInt(5)
	rem := new(big.Int)
	digits := func(p *big.Int) int {
		n := 0
		for {
			q, m := new(big.Int).QuoRem(d, p, rem)
			if m.Sign() != 0 {
				return n
			}
			d = q
			n++
		}
	}
	prec := max(digits(two), digits(five))
	return strings.TrimRight(r.FloatString(prec), "0")
}

// Lookup resolves a dotted path. Map segments select keys and numeric
// segments index lists. It reports false when any segment is missing.
func Lookup(v Value, path string) (Value, bool) {
	if path == "" {
		return nil, false
	}
	return LookupPath(v, strings.Split(path, "."))
}

// LookupPath resolves pre-split path segments.
func LookupPath(v Value, segments []string) (Value, bool) {
	cur := v
	for _, seg := range segments {
		switch node := cur.(type) {
		case Map:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case List:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, cur != nil
}

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

package diff

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/NVIDIA/storage-facts/pkg/facts"
)

// DefaultIdentityKeys is the field priority used to match items across
// snapshots when no override applies.
var DefaultIdentityKeys = []string{
	"id",
	"ldev_id",
	"ldevId",
	"resource_id",
	"port_id",
	"portId",
	"pool_id",
	"poolId",
	"serial_number",
	"serialNumber",
	"wwn",
	"name",
}

// hashPrefix marks identities derived from the item content.
const hashPrefix = "sha256:"

// compositeSep joins the fields of a composite identity key.
const compositeSep = "+"

// Identity derives the identity of item from the first key in keys whose
// fields are all present as non-null scalars. A key may combine fields with
// "+". The result is rendered as "field=value"; composite keys render as
// "a=1+b=2". Numbers render in canonical form and strings that are empty or
// contain a separator are quoted, so distinct keys never render alike.
// Items without any key fall back to "sha256:<hex>" of their canonical
// encoding, so reordered map keys and reformatted numbers yield the same
// identity.
func Identity(item facts.Item, keys []string) string {
	for _, key := range keys {
		if id, ok := keyIdentity(item, key); ok {
			return id
		}
	}
	sum := sha256.Sum256([]byte(facts.Canonical(item)))
	return hashPrefix + hex.EncodeToString(sum[:])
}

func keyIdentity(item facts.Item, key string) (string, bool) {
	fields := strings.Split(key, compositeSep)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			return "", false
		}
		v, ok := item[f]
		if !ok {
			return "", false
		}
		s, ok := v.(facts.Scalar)
		if !ok || s.Kind() == facts.KindNull {
			return "", false
		}
		parts = append(parts, f+"="+identityValue(s))
	}
	return strings.Join(parts, compositeSep), len(parts) > 0
}

func identityValue(s facts.Scalar) string {
	switch s.Kind() {
	case facts.KindNumber:
		return facts.CanonicalNumber(s.String())
	case facts.KindString:
		text := s.String()
		if text == "" || strings.ContainsAny(text, compositeSep+`="\`) {
			return strconv.Quote(text)
		}
		return text
	default:
		return s.String()
	}
}

// IsContentIdentity reports whether id was derived from item content
// rather than from a key field.
func IsContentIdentity(id string) bool {
	return strings.HasPrefix(id, hashPrefix)
}

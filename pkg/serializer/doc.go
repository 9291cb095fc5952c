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

// Package serializer moves snapshots and reports in and out of the process.
//
// Output goes through a Serializer. Writer renders JSON, YAML, a text
// table or CSV to stdout or a file. ConfigMapWriter stores the rendered
// document in a Kubernetes ConfigMap with server-side apply. Pick one with
// NewFileWriterOrStdout:
//
//	s, err := serializer.NewFileWriterOrStdout(serializer.FormatYAML, "cm://storage/facts")
//	if err != nil {
//	    return err
//	}
//	if c, ok := s.(serializer.Closer); ok {
//	    defer c.Close()
//	}
//	return s.Serialize(ctx, snap)
//
// Input goes through ReadSnapshot and ReadBytes, which accept a file path,
// "-" for stdin, an http(s) URL read with HTTPReader, or a
// cm://namespace/name ConfigMap location.
//
// Table and CSV output use the TextTable and CSVTable interfaces when the
// value implements them. Any other value renders as FIELD/VALUE pairs of its
// flattened JSON form. CSV requires a CSVTable.
package serializer

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

// Package oci publishes snapshot documents as OCI artifacts.
//
// A published artifact is an OCI 1.1 manifest with artifact type
// ArtifactType and one layer per file. Snapshot layers carry
// SnapshotMediaTypeJSON or SnapshotMediaTypeYAML and the file name as
// their title annotation. Snapshot metadata (run ID, target, capture time)
// is copied into manifest annotations.
//
// The destination is either a registry reference or a local OCI image
// layout directory:
//
//	ref, err := oci.ParseOutputTarget("oci://ghcr.io/acme/vsp-facts:2026-03-01")
//	if err != nil {
//	    return err
//	}
//	res, err := oci.PublishSnapshot(ctx, ref, snap, facts.EncodingJSON)
//
// Registry credentials come from the Docker configuration
// (~/.docker/config.json) through the ORAS credentials package. Use
// WithPlainHTTP for local development registries.
package oci

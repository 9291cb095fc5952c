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

// Package cli implements sfctl, the storage facts command line.
//
// # Commands
//
// collect - Gather every category into one snapshot:
//
//	sfctl collect --source ./facts --target vsp-5500-1 -o snapshot.json --save
//
// Each category is fetched independently; a failing source is recorded in
// the snapshot as {"error": "..."} and never aborts the run.
//
// list, summary, extract, count, filter - Inspect a snapshot:
//
//	sfctl list
//	sfctl summary -f snapshot.json
//	sfctl extract -f snapshot.json -c ldevs
//	sfctl count -f snapshot.json -c ldevs
//	sfctl filter -f snapshot.json -c ldevs --key status --value normal
//
// export - Flatten a category into CSV or an aligned table:
//
//	sfctl export -f snapshot.json -c storage_ports -o ports.csv
//
// diff - Report drift between two snapshots:
//
//	sfctl diff --old store:previous --new store:latest --fail-on-drift
//
// validate - Check a snapshot document:
//
//	sfctl validate -f cm://storage/vsp-facts
//
// history - Manage the SQLite snapshot history (list, add, show, delete, prune).
//
// publish - Push a snapshot as an OCI artifact:
//
//	sfctl publish -f store:latest --to oci://registry.example.com/storage/vsp-facts:latest
//
// # Snapshot References
//
// Commands reading a snapshot accept a file path, "-" for stdin, an HTTP(S)
// URL, a ConfigMap URI (cm://namespace/name) or a history store reference
// (store:latest, store:previous, store:<run-id>).
//
// # Output
//
//	--output, -o   file path, ConfigMap URI, or stdout when empty
//	--format, -t   json, yaml, table or csv; defaults follow the --output
//	               extension, then the command's natural format
//
// # Environment Variables
//
//	LOG_LEVEL        logging verbosity (debug, info, warn, error)
//	SFCTL_STORE      history database path
//	SFCTL_SOURCE     collect source
//	SFCTL_TARGET     storage array identity
//	SFCTL_REGISTRY   category registry override
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/NVIDIA/storage-facts/pkg/cli.version=1.0.0'"
package cli

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

// Package store keeps the history of collected snapshots in SQLite.
//
// Each saved snapshot is one row holding its persisted document and its
// metadata. Entries are ordered by capture time, which is what "latest"
// and "previous" refer to when a command or the HTTP API resolves a
// snapshot reference:
//
//	st, err := store.Open("history.db")
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	entry, err := st.Save(ctx, snap)
//	prev, err := st.Resolve(ctx, store.RefPrevious, entry.Target)
//
// The driver is modernc.org/sqlite, so no cgo toolchain is needed.
// Use ":memory:" for a throwaway store in tests.
package store

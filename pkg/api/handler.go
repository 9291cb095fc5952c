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

package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/NVIDIA/storage-facts/pkg/defaults"
	"github.com/NVIDIA/storage-facts/pkg/diff"
	apperrors "github.com/NVIDIA/storage-facts/pkg/errors"
	"github.com/NVIDIA/storage-facts/pkg/facts"
	"github.com/NVIDIA/storage-facts/pkg/flatten"
	"github.com/NVIDIA/storage-facts/pkg/query"
	"github.com/NVIDIA/storage-facts/pkg/registry"
	"github.com/NVIDIA/storage-facts/pkg/serializer"
	"github.com/NVIDIA/storage-facts/pkg/server"
	"github.com/NVIDIA/storage-facts/pkg/store"
)

// SnapshotStore is the part of the history store the API reads from.
type SnapshotStore interface {
	Resolve(ctx context.Context, ref, target string) (*facts.Snapshot, error)
	List(ctx context.Context, opts store.ListOptions) ([]store.Entry, error)
	Ping(ctx context.Context) error
}

// Handler serves read-only queries over stored snapshots.
type Handler struct {
	store    SnapshotStore
	registry *registry.Registry
}

// NewHandler returns a handler over st. A nil reg selects registry.Default.
func NewHandler(st SnapshotStore, reg *registry.Registry) *Handler {
	if reg == nil {
		reg = registry.Default()
	}
	return &Handler{store: st, registry: reg}
}

// Routes returns the API routes keyed by mux pattern.
func (h *Handler) Routes() map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		"GET /v1/categories":                                 h.handleCategories,
		"GET /v1/snapshots":                                  h.handleSnapshots,
		"GET /v1/snapshots/{id}":                             h.handleSnapshot,
		"GET /v1/snapshots/{id}/summary":                     h.handleSummary,
		"GET /v1/snapshots/{id}/categories/{category}":       h.handleCategory,
		"GET /v1/snapshots/{id}/categories/{category}/count": h.handleCount,
		"GET /v1/snapshots/{id}/categories/{category}/table": h.handleTable,
		"GET /v1/diff":                                       h.handleDiff,
	}
}

// SnapshotList is the body of the snapshot listing.
type SnapshotList struct {
	Snapshots []store.Entry `json:"snapshots"`
}

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	serializer.RespondJSON(w, http.StatusOK, query.List(h.registry))
}

func (h *Handler) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaults.HandlerTimeout)
	defer cancel()

	opts := store.ListOptions{Target: r.URL.Query().Get("target")}
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			server.WriteError(w, r, http.StatusBadRequest, apperrors.ErrCodeInvalidRequest,
				"limit must be a positive integer", false, map[string]any{"limit": l})
			return
		}
		opts.Limit = n
	}

	entries, err := h.store.List(ctx, opts)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "failed to list snapshots", nil)
		return
	}
	serializer.RespondJSON(w, http.StatusOK, SnapshotList{Snapshots: entries})
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.resolve(w, r, r.PathValue("id"))
	if !ok {
		return
	}
	serializer.RespondJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.resolve(w, r, r.PathValue("id"))
	if !ok {
		return
	}
	serializer.RespondJSON(w, http.StatusOK, query.Summarize(snap))
}

// handleCategory extracts a category. With key set, items are filtered on
// value (exact, case-insensitive) or pattern ('*' wildcards).
func (h *Handler) handleCategory(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.resolve(w, r, r.PathValue("id"))
	if !ok {
		return
	}
	category := r.PathValue("category")

	items, err := selectItems(snap, category, r)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "failed to extract category", map[string]any{"category": category})
		return
	}
	serializer.RespondJSON(w, http.StatusOK, query.NewExtraction(snap, category, describeFilter(r), items))
}

func (h *Handler) handleCount(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.resolve(w, r, r.PathValue("id"))
	if !ok {
		return
	}
	category := r.PathValue("category")

	n, err := query.Count(snap, category)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "failed to count category", map[string]any{"category": category})
		return
	}
	serializer.RespondJSON(w, http.StatusOK, query.NewCountResult(snap, category, n))
}

// handleTable flattens a category. format=csv returns text/csv, anything
// else the JSON table.
func (h *Handler) handleTable(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.resolve(w, r, r.PathValue("id"))
	if !ok {
		return
	}
	category := r.PathValue("category")
	q := r.URL.Query()

	policy, err := flatten.ParseListPolicy(q.Get("lists"))
	if err != nil {
		server.WriteError(w, r, http.StatusBadRequest, apperrors.ErrCodeInvalidRequest,
			err.Error(), false, map[string]any{"lists": q.Get("lists")})
		return
	}

	items, err := selectItems(snap, category, r)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "failed to export category", map[string]any{"category": category})
		return
	}

	opts := flatten.Options{Lists: policy, Missing: q.Get("missing")}
	if cols := q.Get("columns"); cols != "" {
		opts.Columns = strings.Split(cols, ",")
	}
	table := flatten.Export(items, opts)

	if strings.EqualFold(q.Get("format"), "csv") {
		w.Header().Set("Content-Type", "text/csv")
		w.WriteHeader(http.StatusOK)
		if err := table.WriteCSV(w); err != nil {
			slog.Warn("csv write failed", "error", err, "requestID", server.RequestID(r.Context()))
		}
		return
	}
	serializer.RespondJSON(w, http.StatusOK, table)
}

// handleDiff compares two stored snapshots. old defaults to the previous
// snapshot and new to the latest one, both scoped by the optional target.
func (h *Handler) handleDiff(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	oldRef := q.Get("old")
	if oldRef == "" {
		oldRef = store.RefPrevious
	}
	newRef := q.Get("new")
	if newRef == "" {
		newRef = store.RefLatest
	}

	older, ok := h.resolve(w, r, oldRef)
	if !ok {
		return
	}
	newer, ok := h.resolve(w, r, newRef)
	if !ok {
		return
	}

	opts := []diff.Option{diff.WithRegistry(h.registry)}
	if keys := q.Get("identity"); keys != "" {
		opts = append(opts, diff.WithIdentityKeys(strings.Split(keys, ",")...))
	}
	rep := diff.Diff(older, newer, opts...)

	if q.Get("drift") == "true" {
		rep.Categories = rep.Drifted()
		if rep.Categories == nil {
			rep.Categories = []diff.CategoryDiff{}
		}
	}
	serializer.RespondJSON(w, http.StatusOK, rep)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request, ref string) (*facts.Snapshot, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), defaults.HandlerTimeout)
	defer cancel()

	snap, err := h.store.Resolve(ctx, ref, r.URL.Query().Get("target"))
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "failed to load snapshot", map[string]any{"snapshot": ref})
		return nil, false
	}
	return snap, true
}

func selectItems(snap *facts.Snapshot, category string, r *http.Request) ([]facts.Item, error) {
	q := r.URL.Query()
	key := q.Get("key")
	switch {
	case key == "" && (q.Has("value") || q.Has("pattern")):
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "value and pattern require key")
	case key == "":
		return query.Extract(snap, category)
	case q.Has("pattern"):
		return query.FilterPattern(snap, category, key, q.Get("pattern"))
	default:
		return query.Filter(snap, category, key, q.Get("value"))
	}
}

func describeFilter(r *http.Request) string {
	q := r.URL.Query()
	switch {
	case q.Get("key") == "":
		return ""
	case q.Has("pattern"):
		return q.Get("key") + "~" + q.Get("pattern")
	default:
		return q.Get("key") + "=" + q.Get("value")
	}
}

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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/storage-facts/pkg/facts"
	"github.com/NVIDIA/storage-facts/pkg/registry"
	"github.com/NVIDIA/storage-facts/pkg/server"
	"github.com/NVIDIA/storage-facts/pkg/store"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func snapshot(t *testing.T, id string, at time.Time, ldevs []any, ports []any) *facts.Snapshot {
	t.Helper()
	ldevItems, err := facts.Normalize(ldevs)
	require.NoError(t, err)
	portItems, err := facts.Normalize(ports)
	require.NoError(t, err)
	snap, err := facts.NewSnapshot(
		facts.OK("ldevs", ldevItems),
		facts.OK("storage_ports", portItems),
		facts.Failed("journals", "timeout"),
	)
	require.NoError(t, err)
	return snap.WithMetadata(facts.Metadata{RunID: id, CapturedAt: at, Target: "vsp-1"})
}

func newTestAPI(t *testing.T) http.Handler {
	t.Helper()
	st, err := store.Open(store.Memory, store.WithRegistry(registry.Default()))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	_, err = st.Save(ctx, snapshot(t, "run-1", base,
		[]any{
			map[string]any{"ldev_id": 1, "name": "db01", "status": "NML"},
			map[string]any{"ldev_id": 2, "name": "db02", "status": "NML"},
		},
		[]any{
			map[string]any{"port_id": "CL1-A", "type": "FIBRE"},
			map[string]any{"port_id": "CL2-A", "type": "ISCSI"},
		}))
	require.NoError(t, err)
	_, err = st.Save(ctx, snapshot(t, "run-2", base.Add(time.Hour),
		[]any{
			map[string]any{"ldev_id": 1, "name": "db01", "status": "BLK"},
			map[string]any{"ldev_id": 3, "name": "db03", "status": "NML"},
		},
		[]any{
			map[string]any{"port_id": "CL1-A", "type": "FIBRE"},
			map[string]any{"port_id": "CL2-A", "type": "ISCSI"},
		}))
	require.NoError(t, err)

	s := server.New(server.WithHandler(NewHandler(st, nil).Routes()))
	return s.Handler()
}

func get(t *testing.T, h http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestCategories(t *testing.T) {
	h := newTestAPI(t)

	rec := get(t, h, "/v1/categories")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	cats, ok := body["categories"].([]any)
	require.True(t, ok)
	assert.Len(t, cats, registry.Default().Len())
	assert.Equal(t, "CategoryList", body["kind"])
}

func TestSnapshots(t *testing.T) {
	h := newTestAPI(t)

	rec := get(t, h, "/v1/snapshots")
	require.Equal(t, http.StatusOK, rec.Code)
	var list SnapshotList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Snapshots, 2)
	assert.Equal(t, "run-2", list.Snapshots[0].ID)

	rec = get(t, h, "/v1/snapshots?limit=1")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Snapshots, 1)

	rec = get(t, h, "/v1/snapshots?limit=zero")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, h, "/v1/snapshots?target=other")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Empty(t, list.Snapshots)
}

func TestSnapshotDocument(t *testing.T) {
	h := newTestAPI(t)

	rec := get(t, h, "/v1/snapshots/run-1")
	require.Equal(t, http.StatusOK, rec.Code)

	snap, err := facts.Parse(rec.Body.Bytes(), registry.Default())
	require.NoError(t, err)
	assert.Equal(t, []string{"ldevs", "storage_ports", "journals"}, snap.Categories())

	rec = get(t, h, "/v1/snapshots/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSummary(t *testing.T) {
	h := newTestAPI(t)

	rec := get(t, h, "/v1/snapshots/latest/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	totals := body["totals"].(map[string]any)
	assert.EqualValues(t, 3, totals["categories"])
	assert.EqualValues(t, 2, totals["ok"])
	assert.EqualValues(t, 1, totals["failed"])
	assert.EqualValues(t, 4, totals["items"])
}

func TestCategoryExtractAndFilter(t *testing.T) {
	h := newTestAPI(t)

	tests := []struct {
		name      string
		url       string
		wantCode  int
		wantCount int
	}{
		{"extract", "/v1/snapshots/run-1/categories/ldevs", http.StatusOK, 2},
		{"filter value", "/v1/snapshots/run-1/categories/storage_ports?key=type&value=fibre", http.StatusOK, 1},
		{"filter pattern", "/v1/snapshots/run-1/categories/storage_ports?key=port_id&pattern=CL*-A", http.StatusOK, 2},
		{"filter no match", "/v1/snapshots/run-1/categories/ldevs?key=name&value=nope", http.StatusOK, 0},
		{"value without key", "/v1/snapshots/run-1/categories/ldevs?value=x", http.StatusBadRequest, 0},
		{"unknown category", "/v1/snapshots/run-1/categories/bogus", http.StatusNotFound, 0},
		{"failed category", "/v1/snapshots/run-1/categories/journals", http.StatusConflict, 0},
		{"unknown snapshot", "/v1/snapshots/run-9/categories/ldevs", http.StatusNotFound, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, tt.url)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode != http.StatusOK {
				return
			}
			body := decode(t, rec)
			assert.EqualValues(t, tt.wantCount, body["count"])
			assert.Len(t, body["items"], tt.wantCount)
			assert.Equal(t, "run-1", body["snapshot"])
		})
	}
}

func TestCategoryUnavailableCarriesError(t *testing.T) {
	h := newTestAPI(t)

	rec := get(t, h, "/v1/snapshots/run-1/categories/journals")
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp server.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "CATEGORY_UNAVAILABLE", resp.Code)
	assert.Equal(t, "timeout", resp.Details["error"])
	assert.Equal(t, "journals", resp.Details["category"])
}

func TestCount(t *testing.T) {
	h := newTestAPI(t)

	rec := get(t, h, "/v1/snapshots/previous/categories/ldevs/count")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "run-1", body["snapshot"])
	assert.Equal(t, "ldevs", body["category"])
	assert.EqualValues(t, 2, body["count"])
}

func TestTable(t *testing.T) {
	h := newTestAPI(t)

	rec := get(t, h, "/v1/snapshots/run-1/categories/storage_ports/table?format=csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, "port_id,type\nCL1-A,FIBRE\nCL2-A,ISCSI\n", rec.Body.String())

	rec = get(t, h, "/v1/snapshots/run-1/categories/ldevs/table?columns=ldev_id")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, []any{"ldev_id"}, body["columns"])

	rec = get(t, h, "/v1/snapshots/run-1/categories/ldevs/table?lists=bogus")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDiff(t *testing.T) {
	h := newTestAPI(t)

	rec := get(t, h, "/v1/diff?old=run-1&new=run-2")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, "run-1", body["oldRunId"])
	assert.Equal(t, "run-2", body["newRunId"])
	totals := body["totals"].(map[string]any)
	assert.EqualValues(t, 1, totals["added"])
	assert.EqualValues(t, 1, totals["removed"])
	assert.EqualValues(t, 1, totals["changed"])
	assert.EqualValues(t, 1, totals["unavailable"])

	// defaults compare previous against latest
	rec = get(t, h, "/v1/diff")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "run-1", decode(t, rec)["oldRunId"])

	rec = get(t, h, "/v1/diff?old=run-1&new=run-2&drift=true")
	require.Equal(t, http.StatusOK, rec.Code)
	cats := decode(t, rec)["categories"].([]any)
	require.Len(t, cats, 1)
	assert.Equal(t, "ldevs", cats[0].(map[string]any)["category"])

	rec = get(t, h, "/v1/diff?old=run-1&new=missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDiff_SelfIsEmpty(t *testing.T) {
	h := newTestAPI(t)

	rec := get(t, h, "/v1/diff?old=run-2&new=run-2")
	require.Equal(t, http.StatusOK, rec.Code)
	totals := decode(t, rec)["totals"].(map[string]any)
	assert.EqualValues(t, 0, totals["drifted"])
	assert.EqualValues(t, 0, totals["added"])
	assert.EqualValues(t, 0, totals["changed"])
}

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

package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/NVIDIA/storage-facts/pkg/defaults"
	apperrors "github.com/NVIDIA/storage-facts/pkg/errors"
	"github.com/NVIDIA/storage-facts/pkg/facts"
	"github.com/NVIDIA/storage-facts/pkg/registry"
)

// Memory is the path of a private in-memory store.
const Memory = ":memory:"

// DefaultPath is the history database used when none is configured.
const DefaultPath = "storage-facts.db"

// Snapshot references accepted by Resolve in place of a run ID.
const (
	RefLatest   = "latest"
	RefPrevious = "previous"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id          TEXT PRIMARY KEY,
	captured_at INTEGER NOT NULL,
	target      TEXT NOT NULL DEFAULT '',
	version     TEXT NOT NULL DEFAULT '',
	categories  INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	metadata    TEXT NOT NULL,
	document    BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS snapshots_target_time ON snapshots(target, captured_at);
`

// Entry describes one stored snapshot without its document.
type Entry struct {
	ID         string    `json:"id" yaml:"id"`
	CapturedAt time.Time `json:"capturedAt" yaml:"capturedAt"`
	Target     string    `json:"target,omitempty" yaml:"target,omitempty"`
	Version    string    `json:"version,omitempty" yaml:"version,omitempty"`
	Categories int       `json:"categories" yaml:"categories"`
	Failed     int       `json:"failed" yaml:"failed"`
}

// Store is a SQLite backed snapshot history. It is safe for concurrent use.
type Store struct {
	db       *sql.DB
	registry *registry.Registry
	path     string
}

type config struct {
	registry    *registry.Registry
	busyTimeout time.Duration
	mkdirAll    bool
}

// Option configures Open.
type Option func(*config)

// WithRegistry validates categories of loaded snapshots against r.
func WithRegistry(r *registry.Registry) Option {
	return func(c *config) {
		c.registry = r
	}
}

// WithBusyTimeout overrides defaults.StoreBusyTimeout.
func WithBusyTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.busyTimeout = d
		}
	}
}

// WithMkdirAll creates the parent directory of the database file.
func WithMkdirAll() Option {
	return func(c *config) {
		c.mkdirAll = true
	}
}

// Open opens or creates the history database at path.
func Open(path string, opts ...Option) (*Store, error) {
	cfg := config{busyTimeout: defaults.StoreBusyTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	path = strings.TrimSpace(path)
	if path == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "store path is empty")
	}
	if cfg.mkdirAll && path != Memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(path, cfg.busyTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", path, err)
	}
	if path == Memory {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize store %s: %w", path, err)
	}

	slog.Debug("snapshot store opened", "path", path)
	return &Store{db: db, registry: cfg.registry, path: path}, nil
}

func dsn(path string, busy time.Duration) string {
	pragmas := []string{
		fmt.Sprintf("busy_timeout(%d)", busy.Milliseconds()),
		"foreign_keys(ON)",
		"synchronous(NORMAL)",
	}
	if path != Memory {
		pragmas = append(pragmas, "journal_mode(WAL)")
	}
	var b strings.Builder
	b.WriteString("file:")
	b.WriteString(path)
	for i, p := range pragmas {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString("_pragma=")
		b.WriteString(p)
	}
	return b.String()
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Save stores snap. A snapshot without metadata gets a new run ID and the
// current time. Saving a run ID twice is an INVALID_REQUEST error.
func (s *Store) Save(ctx context.Context, snap *facts.Snapshot) (Entry, error) {
	if snap == nil {
		return Entry{}, apperrors.New(apperrors.ErrCodeInvalidRequest, "snapshot is nil")
	}

	md, ok := snap.Metadata()
	if !ok || md.RunID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return Entry{}, fmt.Errorf("failed to generate run id: %w", err)
		}
		md.RunID = id.String()
	}
	if md.CapturedAt.IsZero() {
		md.CapturedAt = time.Now().UTC()
	}
	if md.Counts == nil {
		md.Counts = snap.Counts()
	}
	if md.Failed == nil {
		md.Failed = snap.FailedCategories()
	}

	var doc bytes.Buffer
	if err := facts.Store(&doc, snap, facts.EncodingJSON); err != nil {
		return Entry{}, err
	}
	mdJSON, err := json.Marshal(md)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to encode metadata: %w", err)
	}

	entry := Entry{
		ID:         md.RunID,
		CapturedAt: md.CapturedAt.UTC(),
		Target:     md.Target,
		Version:    md.Version,
		Categories: snap.Len(),
		Failed:     len(snap.FailedCategories()),
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, captured_at, target, version, categories, failed, metadata, document)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT(id) DO NOTHING`,
		entry.ID, entry.CapturedAt.UnixNano(), entry.Target, entry.Version,
		entry.Categories, entry.Failed, string(mdJSON), doc.Bytes())
	if err != nil {
		return Entry{}, fmt.Errorf("failed to save snapshot %s: %w", entry.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Entry{}, apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("snapshot %s is already stored", entry.ID),
			map[string]any{"id": entry.ID})
	}

	slog.Info("snapshot saved",
		"id", entry.ID,
		"target", entry.Target,
		"categories", entry.Categories,
		"failed", entry.Failed)
	return entry, nil
}

// Get loads the snapshot stored under id with its metadata attached.
func (s *Store) Get(ctx context.Context, id string) (*facts.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `SELECT metadata, document FROM snapshots WHERE id = ?`, id)
	return s.scanSnapshot(row, id)
}

// Latest returns the most recently captured snapshot for target. An empty
// target matches every target.
func (s *Store) Latest(ctx context.Context, target string) (*facts.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT metadata, document FROM snapshots
		 WHERE (? = '' OR target = ?)
		 ORDER BY captured_at DESC, rowid DESC LIMIT 1`, target, target)
	return s.scanSnapshot(row, RefLatest)
}

// Previous returns the snapshot captured for the same target immediately
// before the one stored under id.
func (s *Store) Previous(ctx context.Context, id string) (*facts.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT p.metadata, p.document FROM snapshots p
		 JOIN snapshots c ON c.id = ?
		 WHERE p.target = c.target
		   AND (p.captured_at < c.captured_at OR (p.captured_at = c.captured_at AND p.rowid < c.rowid))
		 ORDER BY p.captured_at DESC, p.rowid DESC LIMIT 1`, id)
	return s.scanSnapshot(row, RefPrevious+" of "+id)
}

// Resolve maps a reference to a stored snapshot. The reference is a run ID,
// RefLatest, or RefPrevious (the snapshot before the latest one).
func (s *Store) Resolve(ctx context.Context, ref, target string) (*facts.Snapshot, error) {
	switch strings.TrimSpace(ref) {
	case "":
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "snapshot reference is empty")
	case RefLatest:
		return s.Latest(ctx, target)
	case RefPrevious:
		latest, err := s.Latest(ctx, target)
		if err != nil {
			return nil, err
		}
		md, _ := latest.Metadata()
		return s.Previous(ctx, md.RunID)
	default:
		return s.Get(ctx, ref)
	}
}

// ListOptions filters List.
type ListOptions struct {
	Target string
	Limit  int
}

// List returns entries newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaults.StoreListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, captured_at, target, version, categories, failed FROM snapshots
		 WHERE (? = '' OR target = ?)
		 ORDER BY captured_at DESC, rowid DESC LIMIT ?`, opts.Target, opts.Target, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			e  Entry
			ts int64
		)
		if err := rows.Scan(&e.ID, &ts, &e.Target, &e.Version, &e.Categories, &e.Failed); err != nil {
			return nil, fmt.Errorf("failed to read snapshot entry: %w", err)
		}
		e.CapturedAt = time.Unix(0, ts).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return entries, nil
}

// Delete removes the snapshot stored under id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(id)
	}
	return nil
}

// Prune keeps the newest keep snapshots per target and deletes the rest.
// It returns the number of deleted snapshots.
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 1 {
		return 0, apperrors.New(apperrors.ErrCodeInvalidRequest, "prune must keep at least one snapshot")
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY target ORDER BY captured_at DESC, rowid DESC) AS n
				FROM snapshots
			) WHERE n > ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	slog.Info("snapshot history pruned", "deleted", n, "keep", keep)
	return int(n), nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) scanSnapshot(row *sql.Row, ref string) (*facts.Snapshot, error) {
	var (
		mdJSON string
		doc    []byte
	)
	if err := row.Scan(&mdJSON, &doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(ref)
		}
		return nil, fmt.Errorf("failed to read snapshot %s: %w", ref, err)
	}

	snap, err := facts.Parse(doc, s.registry)
	if err != nil {
		return nil, fmt.Errorf("stored snapshot %s: %w", ref, err)
	}
	var md facts.Metadata
	if err := json.Unmarshal([]byte(mdJSON), &md); err != nil {
		return nil, fmt.Errorf("stored snapshot %s has unreadable metadata: %w", ref, err)
	}
	return snap.WithMetadata(md), nil
}

func notFound(ref string) error {
	return apperrors.NewWithContext(apperrors.ErrCodeNotFound,
		fmt.Sprintf("snapshot %s not found", ref),
		map[string]any{"ref": ref})
}

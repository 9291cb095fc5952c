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

package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/NVIDIA/storage-facts/pkg/defaults"
	apperrors "github.com/NVIDIA/storage-facts/pkg/errors"
	"github.com/NVIDIA/storage-facts/pkg/facts"
	"github.com/NVIDIA/storage-facts/pkg/registry"
)

// Fetcher returns the raw payload for one category.
// The payload must be JSON-compatible.
type Fetcher interface {
	Fetch(ctx context.Context, d registry.Descriptor) (any, error)
}

// FetcherFunc adapts an ordinary function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, d registry.Descriptor) (any, error)

// Fetch calls f(ctx, d).
func (f FetcherFunc) Fetch(ctx context.Context, d registry.Descriptor) (any, error) {
	return f(ctx, d)
}

// Collector assembles snapshots from a Fetcher.
type Collector struct {
	fetcher     Fetcher
	registry    *registry.Registry
	concurrency int
	limiter     *rate.Limiter
	timeout     time.Duration
	target      string
	version     string
}

// Option configures a Collector.
type Option func(*Collector)

// WithRegistry sets the category catalog. Defaults to registry.Default().
func WithRegistry(r *registry.Registry) Option {
	return func(c *Collector) {
		if r != nil {
			c.registry = r
		}
	}
}

// WithConcurrency bounds the number of fetches in flight.
func WithConcurrency(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithRateLimit paces fetch starts with a token bucket. A limit of zero
// disables pacing.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Collector) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithFetchTimeout bounds each fetch. Zero or negative disables the bound.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Collector) {
		c.timeout = d
	}
}

// WithTarget records the identity of the collected system in the metadata.
func WithTarget(target string) Option {
	return func(c *Collector) {
		c.target = target
	}
}

// WithVersion records the tool version in the metadata.
func WithVersion(v string) Option {
	return func(c *Collector) {
		c.version = v
	}
}

// New creates a Collector using fetcher.
func New(fetcher Fetcher, opts ...Option) *Collector {
	c := &Collector{
		fetcher:     fetcher,
		registry:    registry.Default(),
		concurrency: defaults.CollectConcurrency,
		timeout:     defaults.FetchTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the category catalog used by the collector.
func (c *Collector) Registry() *registry.Registry {
	return c.registry
}

// CollectAll collects every registered category in declaration order.
func (c *Collector) CollectAll(ctx context.Context) (*facts.Snapshot, error) {
	return c.Collect(ctx, c.registry.List())
}

// Collect fetches the named categories and returns a snapshot holding
// exactly those categories in the given order. Unknown or duplicated names
// are rejected before anything is fetched; source failures are recorded as
// failed categories.
func (c *Collector) Collect(ctx context.Context, categories []string) (*facts.Snapshot, error) {
	if c.fetcher == nil {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "collector has no fetcher")
	}

	descriptors := make([]registry.Descriptor, 0, len(categories))
	if len(categories) > 0 {
		ds, err := c.registry.Resolve(categories)
		if err != nil {
			return nil, err
		}
		descriptors = ds
	}

	start := time.Now()
	slog.Debug("starting facts collection",
		slog.Int("categories", len(descriptors)),
		slog.Int("concurrency", c.concurrency),
		slog.String("target", c.target))

	records := make([]facts.Record, len(descriptors))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, d := range descriptors {
		g.Go(func() error {
			records[i] = c.fetch(ctx, d)
			return nil
		})
	}
	// goroutines never return an error
	_ = g.Wait()

	snap, err := facts.NewSnapshot(records...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to assemble snapshot", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to generate run id", err)
	}

	failed := snap.FailedCategories()
	snap = snap.WithMetadata(facts.Metadata{
		RunID:      id.String(),
		CapturedAt: start.UTC(),
		Target:     c.target,
		Version:    c.version,
		Counts:     snap.Counts(),
		Failed:     failed,
	})

	elapsed := time.Since(start)
	collectDuration.Observe(elapsed.Seconds())
	collectTotal.WithLabelValues(runStatus(len(failed), snap.Len())).Inc()
	failedCategories.Set(float64(len(failed)))

	slog.Info("facts collection complete",
		slog.String("run_id", id.String()),
		slog.Int("categories", snap.Len()),
		slog.Int("failed", len(failed)),
		slog.Duration("duration", elapsed))

	return snap, nil
}

type fetchResult struct {
	payload any
	err     error
}

// fetch runs one category fetch and converts every failure mode into a
// failed record.
func (c *Collector) fetch(ctx context.Context, d registry.Descriptor) facts.Record {
	start := time.Now()
	rec := c.fetchRecord(ctx, d)

	status := string(rec.Status)
	fetchDuration.WithLabelValues(d.Category).Observe(time.Since(start).Seconds())
	fetchTotal.WithLabelValues(d.Category, status).Inc()

	if rec.IsFailed() {
		slog.Warn("category fetch failed",
			slog.String("category", d.Category),
			slog.String("code", string(apperrors.ErrCodeSourceFetch)),
			slog.String("error", rec.Error))
	} else {
		slog.Debug("category fetched",
			slog.String("category", d.Category),
			slog.Int("items", len(rec.Items)),
			slog.Duration("duration", time.Since(start)))
	}
	return rec
}

func (c *Collector) fetchRecord(ctx context.Context, d registry.Descriptor) facts.Record {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return facts.Failed(d.Category, fmt.Sprintf("rate limiter: %v", err))
		}
	}

	fctx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	done := make(chan fetchResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fetchResult{err: fmt.Errorf("source panicked: %v", r)}
			}
		}()
		payload, err := c.fetcher.Fetch(fctx, d)
		done <- fetchResult{payload: payload, err: err}
	}()

	var res fetchResult
	select {
	case res = <-done:
	case <-fctx.Done():
		res = fetchResult{err: fctx.Err()}
	}

	if res.err != nil {
		return facts.Failed(d.Category, c.describe(res.err))
	}

	items, err := facts.Normalize(res.payload)
	if err != nil {
		return facts.Failed(d.Category, err.Error())
	}
	return facts.OK(d.Category, items)
}

func (c *Collector) describe(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		if c.timeout > 0 {
			return fmt.Sprintf("timeout after %s", c.timeout)
		}
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return err.Error()
	}
}

func runStatus(failed, total int) string {
	switch {
	case failed == 0:
		return "complete"
	case failed == total:
		return "failed"
	default:
		return "partial"
	}
}

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

package source

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/NVIDIA/storage-facts/pkg/collector"
	apperrors "github.com/NVIDIA/storage-facts/pkg/errors"
	"github.com/NVIDIA/storage-facts/pkg/registry"
)

const (
	// CommandPrefix selects CommandFetcher in Open.
	CommandPrefix = "exec:"
	// DirPrefix optionally marks a directory location in Open.
	DirPrefix = "dir:"
)

// Open returns the fetcher for location. http(s) URLs become an HTTPFetcher
// (the URL is a template), "exec:" locations a CommandFetcher, anything else
// a DirFetcher.
func Open(location string, opts ...Option) (collector.Fetcher, error) {
	loc := strings.TrimSpace(location)
	switch {
	case loc == "":
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "source location is empty")
	case strings.HasPrefix(loc, "http://"), strings.HasPrefix(loc, "https://"):
		return NewHTTPFetcher(loc, opts...)
	case strings.HasPrefix(loc, CommandPrefix):
		return NewCommandFetcher(strings.Fields(strings.TrimPrefix(loc, CommandPrefix)), opts...)
	default:
		return NewDirFetcher(strings.TrimPrefix(loc, DirPrefix), opts...)
	}
}

type config struct {
	headers  map[string]string
	insecure bool
	env      []string
}

// Option configures fetchers built by this package.
type Option func(*config)

// WithHeader adds a request header to HTTP fetches.
func WithHeader(key, value string) Option {
	return func(c *config) {
		if c.headers == nil {
			c.headers = make(map[string]string)
		}
		c.headers[key] = value
	}
}

// WithInsecureSkipVerify disables TLS verification for HTTP fetches.
func WithInsecureSkipVerify(skip bool) Option {
	return func(c *config) {
		c.insecure = skip
	}
}

// WithEnv appends KEY=VALUE entries to the environment of command fetches.
func WithEnv(env ...string) Option {
	return func(c *config) {
		c.env = append(c.env, env...)
	}
}

func newConfig(opts []Option) *config {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// templateData is what URL and argument templates are rendered with.
type templateData struct {
	Category string
	Source   string
	Spec     map[string]string
}

func dataFor(d registry.Descriptor) templateData {
	spec := d.Spec
	if spec == nil {
		spec = map[string]string{}
	}
	return templateData{Category: d.Category, Source: d.Source, Spec: spec}
}

func parseTemplate(name, text string) (*template.Template, error) {
	t, err := template.New(name).Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid template %q", text), err)
	}
	return t, nil
}

func render(t *template.Template, d registry.Descriptor) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, dataFor(d)); err != nil {
		return "", fmt.Errorf("failed to render %s for %s: %w", t.Name(), d.Category, err)
	}
	return buf.String(), nil
}

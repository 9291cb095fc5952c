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
	"context"
	"fmt"
	"net/url"
	"sort"
	"text/template"

	"github.com/NVIDIA/storage-facts/pkg/facts"
	"github.com/NVIDIA/storage-facts/pkg/registry"
	"github.com/NVIDIA/storage-facts/pkg/serializer"
)

// HTTPFetcher GETs a per-category URL. The URL is a text/template over
// Category, Source and Spec. Spec entries not referenced by the template
// are appended as query parameters.
type HTTPFetcher struct {
	tmpl   *template.Template
	raw    string
	reader *serializer.HTTPReader
}

// NewHTTPFetcher parses urlTemplate and prepares the shared HTTP client.
func NewHTTPFetcher(urlTemplate string, opts ...Option) (*HTTPFetcher, error) {
	t, err := parseTemplate("url", urlTemplate)
	if err != nil {
		return nil, err
	}
	cfg := newConfig(opts)

	readerOpts := []serializer.HTTPReaderOption{serializer.WithInsecureSkipVerify(cfg.insecure)}
	keys := make([]string, 0, len(cfg.headers))
	for k := range cfg.headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		readerOpts = append(readerOpts, serializer.WithHeader(k, cfg.headers[k]))
	}

	return &HTTPFetcher{
		tmpl:   t,
		raw:    urlTemplate,
		reader: serializer.NewHTTPReader(readerOpts...),
	}, nil
}

// URL renders the request URL for d.
func (f *HTTPFetcher) URL(d registry.Descriptor) (string, error) {
	rendered, err := render(f.tmpl, d)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(rendered)
	if err != nil {
		return "", fmt.Errorf("invalid url %q for %s: %w", rendered, d.Category, err)
	}
	if len(d.Spec) > 0 {
		q := u.Query()
		for k, v := range d.Spec {
			if !q.Has(k) {
				q.Set(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Fetch requests the category URL and decodes the JSON or YAML body.
func (f *HTTPFetcher) Fetch(ctx context.Context, d registry.Descriptor) (any, error) {
	target, err := f.URL(d)
	if err != nil {
		return nil, err
	}
	body, err := f.reader.Read(ctx, target)
	if err != nil {
		return nil, err
	}
	v, err := facts.DecodePayload(body)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", target, err)
	}
	return v, nil
}

func (f *HTTPFetcher) String() string {
	return f.raw
}

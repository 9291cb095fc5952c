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

package serializer

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/NVIDIA/storage-facts/pkg/defaults"
	apperrors "github.com/NVIDIA/storage-facts/pkg/errors"
)

// RespondJSON writes a JSON response with the given status code and data.
// The body is encoded before headers are written so a failed encoding never
// produces a partial response.
func RespondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")

	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(data); err != nil {
		slog.Error("json encoding failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(statusCode)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("response write failed", "error", err)
	}
}

// HTTPReaderUserAgent is sent with every request.
const HTTPReaderUserAgent = "storage-facts/1.0"

// HTTPReaderMaxBodyBytes caps the size of a fetched document.
const HTTPReaderMaxBodyBytes = 256 << 20

// HTTPReaderOption configures an HTTPReader.
type HTTPReaderOption func(*HTTPReader)

// HTTPReader fetches documents over HTTP(S).
type HTTPReader struct {
	userAgent string
	headers   http.Header
	client    *http.Client
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) HTTPReaderOption {
	return func(r *HTTPReader) {
		r.userAgent = userAgent
	}
}

// WithHeader adds a header sent with every request, e.g. an Authorization token.
func WithHeader(key, value string) HTTPReaderOption {
	return func(r *HTTPReader) {
		r.headers.Add(key, value)
	}
}

// WithTotalTimeout bounds each request end to end.
func WithTotalTimeout(timeout time.Duration) HTTPReaderOption {
	return func(r *HTTPReader) {
		if timeout > 0 {
			r.client.Timeout = timeout
		}
	}
}

// WithInsecureSkipVerify disables TLS certificate verification. Arrays with
// self-signed management certificates need it.
func WithInsecureSkipVerify(skip bool) HTTPReaderOption {
	return func(r *HTTPReader) {
		if tr, ok := r.client.Transport.(*http.Transport); ok {
			tr.TLSClientConfig.InsecureSkipVerify = skip //nolint:gosec // operator opt-in
		}
	}
}

// WithClient replaces the HTTP client. Transport options are ignored for
// clients whose transport is not an *http.Transport.
func WithClient(client *http.Client) HTTPReaderOption {
	return func(r *HTTPReader) {
		if client != nil {
			r.client = client
		}
	}
}

// NewHTTPReader creates an HTTPReader with the defaults timeouts.
func NewHTTPReader(options ...HTTPReaderOption) *HTTPReader {
	r := &HTTPReader{
		userAgent: HTTPReaderUserAgent,
		headers:   make(http.Header),
		client: &http.Client{
			Timeout:   defaults.HTTPClientTimeout,
			Transport: newDefaultHTTPTransport(),
		},
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func newDefaultHTTPTransport() *http.Transport {
	return &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,

		DialContext: (&net.Dialer{
			Timeout:   defaults.HTTPConnectTimeout,
			KeepAlive: defaults.HTTPKeepAlive,
		}).DialContext,
		TLSHandshakeTimeout:   defaults.HTTPTLSHandshakeTimeout,
		ResponseHeaderTimeout: defaults.HTTPResponseHeaderTimeout,
		ExpectContinueTimeout: defaults.HTTPExpectContinueTimeout,
		IdleConnTimeout:       defaults.HTTPIdleConnTimeout,
		ForceAttemptHTTP2:     true,

		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
}

// Read fetches url and returns the response body. Non-200 responses are
// errors; 404 maps to NOT_FOUND and 429/5xx to SERVICE_UNAVAILABLE.
func (r *HTTPReader) Read(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "url is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for url %s: %w", url, err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9")
	for k, vs := range r.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed for url %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		code := apperrors.ErrCodeInternal
		switch {
		case resp.StatusCode == http.StatusNotFound:
			code = apperrors.ErrCodeNotFound
		case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
			code = apperrors.ErrCodeUnavailable
		}
		return nil, apperrors.NewWithContext(code,
			fmt.Sprintf("failed to fetch %s: status %s", url, resp.Status),
			map[string]any{"status": resp.StatusCode})
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, HTTPReaderMaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", url, err)
	}
	if len(data) > HTTPReaderMaxBodyBytes {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("response from %s exceeds %d bytes", url, HTTPReaderMaxBodyBytes))
	}
	return data, nil
}

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

// Package server provides the HTTP server used by sfd.
//
// Handlers are registered by http.ServeMux pattern and run behind a fixed
// middleware chain: Prometheus request metrics, API version negotiation via
// the Accept header, X-Request-Id propagation, panic recovery, a token
// bucket rate limiter (golang.org/x/time/rate) and debug request logging.
//
// The server always exposes:
//
//	GET /health   liveness, always 200 while the process serves
//	GET /ready    readiness, 503 until started or while a readiness check fails
//	GET /metrics  Prometheus exposition
//
// Errors are written as ErrorResponse JSON; HTTPStatusFromCode maps
// pkg/errors codes to status codes.
//
// Usage:
//
//	s := server.New(
//	    server.WithName("sfd"),
//	    server.WithVersion(version),
//	    server.WithHandler(map[string]http.HandlerFunc{
//	        "GET /v1/snapshots": h.listSnapshots,
//	    }),
//	)
//	if err := s.Run(ctx); err != nil {
//	    return err
//	}
//
// NewConfig reads ADDRESS, PORT, RATE_LIMIT, RATE_LIMIT_BURST and
// SHUTDOWN_TIMEOUT_SECONDS from the environment.
package server

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

package server

import (
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/NVIDIA/storage-facts/pkg/defaults"
)

// Config holds server settings.
type Config struct {
	// Server identity
	Name    string
	Version string

	// Handlers maps mux patterns (for example "GET /v1/snapshots/{id}") to
	// handlers. They run behind the middleware chain.
	Handlers map[string]http.HandlerFunc

	Address string
	Port    int

	RateLimit      rate.Limit // requests per second
	RateLimitBurst int

	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

// NewConfig returns defaults overridden by the environment:
//
//	ADDRESS                    listen address (default: all interfaces)
//	PORT                       listen port
//	RATE_LIMIT                 requests per second across all clients
//	RATE_LIMIT_BURST           limiter burst size
//	SHUTDOWN_TIMEOUT_SECONDS   graceful shutdown deadline
//
// Unparsable or non-positive values keep the default.
func NewConfig() *Config {
	return parseConfig()
}

func parseConfig() *Config {
	cfg := &Config{
		Name:              "server",
		Version:           "undefined",
		Address:           os.Getenv("ADDRESS"),
		Port:              envInt("PORT", 8080),
		RateLimit:         rate.Limit(envInt("RATE_LIMIT", 100)),
		RateLimitBurst:    envInt("RATE_LIMIT_BURST", 200),
		ReadTimeout:       defaults.ServerReadTimeout,
		ReadHeaderTimeout: defaults.ServerReadHeaderTimeout,
		WriteTimeout:      defaults.ServerWriteTimeout,
		IdleTimeout:       defaults.ServerIdleTimeout,
		// Match the pod termination grace period when running in Kubernetes.
		ShutdownTimeout: time.Duration(envInt("SHUTDOWN_TIMEOUT_SECONDS",
			int(defaults.ServerShutdownTimeout/time.Second))) * time.Second,
	}
	return cfg
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("ignoring invalid environment value", "key", key, "value", v)
		return fallback
	}
	return n
}

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
	"testing"
	"time"

	"github.com/NVIDIA/storage-facts/pkg/defaults"
)

func TestNewConfig_Defaults(t *testing.T) {
	for _, k := range []string{"ADDRESS", "PORT", "RATE_LIMIT", "RATE_LIMIT_BURST", "SHUTDOWN_TIMEOUT_SECONDS"} {
		t.Setenv(k, "")
	}

	cfg := NewConfig()
	if cfg.Address != "" {
		t.Errorf("Address = %q, want empty", cfg.Address)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.RateLimit != 100 || cfg.RateLimitBurst != 200 {
		t.Errorf("rate limit = %v/%d", cfg.RateLimit, cfg.RateLimitBurst)
	}
	if cfg.ShutdownTimeout != defaults.ServerShutdownTimeout {
		t.Errorf("ShutdownTimeout = %v", cfg.ShutdownTimeout)
	}
	if cfg.ReadHeaderTimeout != defaults.ServerReadHeaderTimeout {
		t.Errorf("ReadHeaderTimeout = %v", cfg.ReadHeaderTimeout)
	}
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	tests := []struct {
		name         string
		port         string
		shutdown     string
		wantPort     int
		wantShutdown time.Duration
	}{
		{"valid", "9090", "45", 9090, 45 * time.Second},
		{"invalid port", "abc", "", 8080, defaults.ServerShutdownTimeout},
		{"zero shutdown ignored", "", "0", 8080, defaults.ServerShutdownTimeout},
		{"negative shutdown ignored", "", "-3", 8080, defaults.ServerShutdownTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PORT", tt.port)
			t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", tt.shutdown)

			cfg := NewConfig()
			if cfg.Port != tt.wantPort {
				t.Errorf("Port = %d, want %d", cfg.Port, tt.wantPort)
			}
			if cfg.ShutdownTimeout != tt.wantShutdown {
				t.Errorf("ShutdownTimeout = %v, want %v", cfg.ShutdownTimeout, tt.wantShutdown)
			}
		})
	}
}

func TestNewConfig_RateLimitEnv(t *testing.T) {
	t.Setenv("ADDRESS", "127.0.0.1")
	t.Setenv("RATE_LIMIT", "5")
	t.Setenv("RATE_LIMIT_BURST", "nope")

	cfg := NewConfig()
	if cfg.Address != "127.0.0.1" {
		t.Errorf("Address = %q", cfg.Address)
	}
	if cfg.RateLimit != 5 {
		t.Errorf("RateLimit = %v, want 5", cfg.RateLimit)
	}
	if cfg.RateLimitBurst != 200 {
		t.Errorf("RateLimitBurst = %d, want default 200", cfg.RateLimitBurst)
	}
}

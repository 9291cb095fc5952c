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

package defaults

import (
	"testing"
	"time"
)

func TestTimeoutConstants(t *testing.T) {
	tests := []struct {
		name     string
		timeout  time.Duration
		minValue time.Duration
		maxValue time.Duration
	}{
		// Collection
		{"FetchTimeout", FetchTimeout, 10 * time.Second, 10 * time.Minute},
		{"CollectTimeout", CollectTimeout, 5 * time.Minute, time.Hour},

		// Server timeouts
		{"ServerReadTimeout", ServerReadTimeout, 5 * time.Second, 30 * time.Second},
		{"ServerWriteTimeout", ServerWriteTimeout, 15 * time.Second, 60 * time.Second},
		{"ServerIdleTimeout", ServerIdleTimeout, 30 * time.Second, 300 * time.Second},
		{"ServerShutdownTimeout", ServerShutdownTimeout, 10 * time.Second, 60 * time.Second},
		{"HandlerTimeout", HandlerTimeout, 5 * time.Second, 60 * time.Second},

		// HTTP client timeouts
		{"HTTPClientTimeout", HTTPClientTimeout, 10 * time.Second, 60 * time.Second},
		{"HTTPConnectTimeout", HTTPConnectTimeout, 1 * time.Second, 15 * time.Second},

		// ConfigMap and store
		{"ConfigMapWriteTimeout", ConfigMapWriteTimeout, 10 * time.Second, 60 * time.Second},
		{"ConfigMapReadTimeout", ConfigMapReadTimeout, 5 * time.Second, 60 * time.Second},
		{"StoreBusyTimeout", StoreBusyTimeout, time.Second, 60 * time.Second},
		{"OCIPushTimeout", OCIPushTimeout, 30 * time.Second, 10 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.timeout < tt.minValue {
				t.Errorf("%s (%v) is below minimum expected value (%v)", tt.name, tt.timeout, tt.minValue)
			}
			if tt.timeout > tt.maxValue {
				t.Errorf("%s (%v) is above maximum expected value (%v)", tt.name, tt.timeout, tt.maxValue)
			}
		})
	}
}

func TestTimeoutRelationships(t *testing.T) {
	if FetchTimeout >= CollectTimeout {
		t.Errorf("FetchTimeout (%v) should be less than CollectTimeout (%v)",
			FetchTimeout, CollectTimeout)
	}

	if ServerReadHeaderTimeout >= ServerReadTimeout {
		t.Errorf("ServerReadHeaderTimeout (%v) should be less than ServerReadTimeout (%v)",
			ServerReadHeaderTimeout, ServerReadTimeout)
	}

	if HandlerTimeout > ServerWriteTimeout {
		t.Errorf("HandlerTimeout (%v) should not exceed ServerWriteTimeout (%v)",
			HandlerTimeout, ServerWriteTimeout)
	}
}

func TestCollectionLimits(t *testing.T) {
	if CollectConcurrency < 1 {
		t.Errorf("CollectConcurrency = %d, want >= 1", CollectConcurrency)
	}
	if FetchRateLimit > 0 && FetchRateBurst < 1 {
		t.Errorf("FetchRateBurst = %d, want >= 1 when rate limiting is enabled", FetchRateBurst)
	}
	if StoreListLimit < 1 {
		t.Errorf("StoreListLimit = %d, want >= 1", StoreListLimit)
	}
}

// Copyright 2026 The PetHub Local Contributors.
// SPDX-License-Identifier: Apache-2.0
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

package detection

import (
	"time"

	"github.com/pethublocal/go-mrf24j/internal/syncutil"
)

// cacheEntry holds a cached probe result.
type cacheEntry struct {
	timestamp time.Time
	device    DeviceInfo
}

// detectionCache provides thread-safe caching of probe results, keyed by port.
type detectionCache struct {
	entries map[string]cacheEntry
	mu      syncutil.RWMutex
}

// global cache instance.
var cache = &detectionCache{
	entries: make(map[string]cacheEntry),
}

// getCached returns the cached result for path if present and not expired
func getCached(path string, ttl time.Duration) (DeviceInfo, bool) {
	cache.mu.RLock()
	defer cache.mu.RUnlock()

	entry, exists := cache.entries[path]
	if !exists || time.Since(entry.timestamp) > ttl {
		return DeviceInfo{}, false
	}
	return entry.device, true
}

func setCached(device DeviceInfo) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.entries[device.Path] = cacheEntry{device: device, timestamp: time.Now()}
}

func clearCache() {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.entries = make(map[string]cacheEntry)
}

// clearCacheFor drops a stale entry once its port stops answering.
func clearCacheFor(path string) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	delete(cache.entries, path)
}

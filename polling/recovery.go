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

package polling

import (
	"context"
	"fmt"
	"time"

	"github.com/pethublocal/go-mrf24j/internal/syncutil"
)

// Restarter brings the radio back to a configured state. *mrf24j.Radio
// satisfies it through Start.
type Restarter interface {
	Start() error
}

// Recoverer handles radio recovery after a fatal error
type Recoverer interface {
	// AttemptRecovery returns nil once the radio is usable again.
	AttemptRecovery(ctx context.Context) error
}

// DefaultRecoverer restarts the radio (hardware reset, initialize and
// configuration) up to maxAttempts times with a fixed backoff.
type DefaultRecoverer struct {
	radio       Restarter
	backoff     time.Duration
	maxAttempts int
	mu          syncutil.Mutex
}

// NewDefaultRecoverer creates a recoverer. Non-positive values select the
// defaults.
func NewDefaultRecoverer(radio Restarter, backoff time.Duration, maxAttempts int) *DefaultRecoverer {
	d := DefaultRecoveryConfig()
	if maxAttempts <= 0 {
		maxAttempts = d.MaxAttempts
	}
	if backoff <= 0 {
		backoff = d.Backoff
	}
	return &DefaultRecoverer{
		radio:       radio,
		backoff:     backoff,
		maxAttempts: maxAttempts,
	}
}

// AttemptRecovery restarts the radio until it succeeds, the attempts run
// out, or ctx is done.
func (r *DefaultRecoverer) AttemptRecovery(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var lastErr error
	for attempt := range r.maxAttempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.backoff):
			}
		}
		err := r.radio.Start()
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("radio recovery failed after %d attempts: %w", r.maxAttempts, lastErr)
}

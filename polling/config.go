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

import "time"

// RecoveryConfig configures restarting the radio after a fatal bus or
// hardware error.
type RecoveryConfig struct {
	// Enabled turns recovery on. When off, a fatal error stops the session.
	Enabled bool
	// MaxAttempts is the number of restarts tried before giving up. Default: 3
	MaxAttempts int
	// Backoff is the delay between attempts
	Backoff time.Duration
}

// DefaultRecoveryConfig returns sensible defaults for recovery
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		Enabled:     true,
		MaxAttempts: 3,
		Backoff:     500 * time.Millisecond,
	}
}

// Config holds session timing
type Config struct {
	// PumpInterval is how often the event pump checks the sticky counters.
	PumpInterval time.Duration
	// PollInterval is how often INTSTAT is read when the transport has no
	// interrupt line.
	PollInterval time.Duration
	// InterruptTimeout bounds each wait on the interrupt line. INTSTAT is
	// read on timeout too, since a missed edge leaves the line asserted until
	// the register is read.
	InterruptTimeout time.Duration
	Recovery         RecoveryConfig
}

// DefaultConfig returns the default session configuration
func DefaultConfig() *Config {
	return &Config{
		PumpInterval:     5 * time.Millisecond,
		PollInterval:     10 * time.Millisecond,
		InterruptTimeout: 250 * time.Millisecond,
		Recovery:         DefaultRecoveryConfig(),
	}
}

func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.PumpInterval <= 0 {
		out.PumpInterval = d.PumpInterval
	}
	if out.PollInterval <= 0 {
		out.PollInterval = d.PollInterval
	}
	if out.InterruptTimeout <= 0 {
		out.InterruptTimeout = d.InterruptTimeout
	}
	if out.Recovery.MaxAttempts <= 0 {
		out.Recovery.MaxAttempts = d.Recovery.MaxAttempts
	}
	if out.Recovery.Backoff < 0 {
		out.Recovery.Backoff = 0
	}
	return &out
}

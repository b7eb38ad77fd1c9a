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

package mrf24j

import "time"

// Settle and poll defaults for bring-up. The reset delay matches the
// reference board; the poll bounds are generous compared to the datasheet.
const (
	// DefaultResetDelay is held on each side of the reset pulse.
	DefaultResetDelay = 300 * time.Millisecond
	// DefaultSoftResetAttempts bounds the wait for SOFTRST to self-clear.
	DefaultSoftResetAttempts = 100
	// DefaultRFReadyAttempts bounds the wait for RFSTATE to reach RX.
	DefaultRFReadyAttempts = 100
	// DefaultPollInterval separates register polls.
	DefaultPollInterval = time.Millisecond
	// rfResetSettle is the delay after toggling RFCTL during a channel change.
	rfResetSettle = 200 * time.Microsecond
)

// PollConfig bounds a register busy-wait.
type PollConfig struct {
	// MaxAttempts is the number of reads before giving up (minimum 1)
	MaxAttempts int
	// Interval is the delay between reads
	Interval time.Duration
}

// DefaultPollConfig returns the default bound for bring-up polls.
func DefaultPollConfig() PollConfig {
	return PollConfig{
		MaxAttempts: DefaultSoftResetAttempts,
		Interval:    DefaultPollInterval,
	}
}

// sleeper is replaced in tests.
var sleeper = time.Sleep

// pollUntil reads a register until done reports true or the bound is exhausted.
// Exhaustion returns an ErrHardwareFault carrying the last value read.
func pollUntil(op string, cfg PollConfig, read func() (byte, error), done func(byte) bool) error {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var last byte
	for attempt := range attempts {
		v, err := read()
		if err != nil {
			return err
		}
		if done(v) {
			if attempt > 0 {
				Debugf("%s: ready after %d polls", op, attempt+1)
			}
			return nil
		}
		last = v
		if attempt < attempts-1 && cfg.Interval > 0 {
			sleeper(cfg.Interval)
		}
	}

	Debugf("%s: gave up after %d polls, last=0x%02X", op, attempts, last)
	return NewHardwareFaultError(op, attempts, last)
}

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

// Package simradio connects the register simulator to the driver for tests
// outside the root package.
package simradio

import (
	"testing"
	"time"

	mrf24j "github.com/pethublocal/go-mrf24j"
	simtest "github.com/pethublocal/go-mrf24j/internal/testing"
)

// Transport adapts VirtualMRF24J40 to mrf24j.Transport.
type Transport struct {
	*simtest.VirtualMRF24J40
}

// Type implements mrf24j.Transport
func (Transport) Type() mrf24j.TransportType {
	return mrf24j.TransportMock
}

// LocalAddress is the extended address started radios use.
var LocalAddress = mrf24j.ExtendedAddress{0x80, 0x1F, 0x12, 0xFF, 0xFE, 0xE8, 0x8D, 0xD9}

// Start returns a started radio backed by a fresh simulator. Reset delays and
// poll intervals are zero.
func Start(t testing.TB, opts ...mrf24j.Option) (*mrf24j.Radio, *simtest.VirtualMRF24J40) {
	t.Helper()
	sim := simtest.NewVirtualMRF24J40()
	base := []mrf24j.Option{
		mrf24j.WithExtendedAddress(LocalAddress),
		mrf24j.WithResetDelay(0),
		mrf24j.WithPollConfig(mrf24j.PollConfig{MaxAttempts: 5, Interval: time.Duration(0)}),
	}
	radio, err := mrf24j.Open(Transport{sim}, append(base, opts...)...)
	if err != nil {
		t.Fatalf("open radio: %v", err)
	}
	if err := radio.Start(); err != nil {
		t.Fatalf("start radio: %v", err)
	}
	sim.ClearAccesses()
	return radio, sim
}

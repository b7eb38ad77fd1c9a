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

import (
	"testing"

	"github.com/stretchr/testify/require"

	simtest "github.com/pethublocal/go-mrf24j/internal/testing"
)

// simTransport adapts the register simulator to Transport.
type simTransport struct {
	*simtest.VirtualMRF24J40
}

func (simTransport) Type() TransportType { return TransportMock }

var testLocalAddr = ExtendedAddress{0x80, 0x1F, 0x12, 0xFF, 0xFE, 0xE8, 0x8D, 0xD9}

var testDeviceAddr = ExtendedAddress{0x52, 0xE2, 0x6A, 0xFE, 0xFF, 0x12, 0x1F, 0x80}

func fastPolls(attempts int) Option {
	return WithPollConfig(PollConfig{MaxAttempts: attempts})
}

func newTestRadio(t *testing.T, opts ...Option) (*Radio, *simtest.VirtualMRF24J40) {
	t.Helper()
	sim := simtest.NewVirtualMRF24J40()
	base := []Option{WithExtendedAddress(testLocalAddr), WithResetDelay(0), fastPolls(5)}
	r, err := Open(simTransport{sim}, append(base, opts...)...)
	require.NoError(t, err)
	return r, sim
}

func startTestRadio(t *testing.T, opts ...Option) (*Radio, *simtest.VirtualMRF24J40) {
	t.Helper()
	r, sim := newTestRadio(t, opts...)
	require.NoError(t, r.Start())
	sim.ClearAccesses()
	return r, sim
}

// deviceFrame builds the MAC bytes of a data frame from testDeviceAddr to
// testLocalAddr with PAN compression.
func deviceFrame(seq byte, payload ...byte) []byte {
	fc := NewFrameControl(FrameTypeData).
		WithPANCompression(true).
		WithDstMode(AddrExtended).
		WithSrcMode(AddrExtended)
	f := Frame{
		Control:  fc,
		Sequence: seq,
		PAN:      DefaultPAN,
		Dst:      testLocalAddr,
		Src:      testDeviceAddr,
		Payload:  payload,
	}
	b, err := f.Encode()
	if err != nil {
		panic(err)
	}
	return b
}

// receive injects a frame and runs the top half.
func receive(t *testing.T, r *Radio, sim *simtest.VirtualMRF24J40, mac []byte) RxRecord {
	t.Helper()
	sim.InjectFrame(mac, 0xFF, 0x40)
	status, err := r.HandleInterrupt()
	require.NoError(t, err)
	require.True(t, status.RX())
	return r.RxInfo()
}

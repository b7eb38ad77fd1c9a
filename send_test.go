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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_HeaderLengthGrid(t *testing.T) {
	t.Parallel()

	modes := []AddressMode{AddrNone, AddrShort, AddrExtended}
	sizes := map[AddressMode]int{AddrNone: 0, AddrShort: 2, AddrExtended: 8}

	r, sim := startTestRadio(t)
	for _, dst := range modes {
		for _, src := range modes {
			fc := NewFrameControl(FrameTypeData).WithDstMode(dst).WithSrcMode(src)
			require.NoError(t, r.Send(Frame{Control: fc, Payload: []byte{0x01, 0x02}}))

			sent := sim.Transmitted()
			last := sent[len(sent)-1]
			want := 5 + sizes[dst] + sizes[src]
			assert.Equal(t, want, last.HeaderLength, "dst=%d src=%d", dst, src)
			assert.Len(t, last.Frame, want+2)
		}
	}

	reserved := NewFrameControl(FrameTypeData).WithDstMode(AddrReserved)
	require.ErrorIs(t, r.Send(Frame{Control: reserved}), ErrInvalidAddressMode)
}

func TestSend_RoundTripThroughReceivePath(t *testing.T) {
	t.Parallel()

	r, sim := startTestRadio(t)
	receive(t, r, sim, deviceFrame(0x30, 0x13, 0x05))

	reply := Frame{
		Control: NewFrameControl(FrameTypeData).
			WithAckRequest(true).
			WithPANCompression(true).
			WithDstMode(AddrExtended).
			WithSrcMode(AddrExtended),
		Payload: []byte{0x14, 0x00, 0x05, 0x00},
	}
	seq := r.TxSequence()
	require.NoError(t, r.Send(reply))

	sent := sim.Transmitted()
	require.Len(t, sent, 1)
	assert.False(t, sent[0].AckRequest, "device replies only trigger")

	// Loop the transmitted bytes back through the RX FIFO.
	rec := receive(t, r, sim, sent[0].Frame)
	require.False(t, rec.Malformed)
	got := rec.Frame
	assert.Equal(t, reply.Control, got.Control)
	assert.Equal(t, seq, got.Sequence)
	assert.Equal(t, DefaultPAN, got.PAN)
	assert.Equal(t, testDeviceAddr, got.DstAddress(), "destination is the last source")
	assert.Equal(t, testLocalAddr, got.SrcAddress())
	assert.Equal(t, reply.Payload, got.Payload)
}

func TestSend_SequenceWraps(t *testing.T) {
	t.Parallel()

	r, sim := startTestRadio(t)
	f := Frame{Control: NewFrameControl(FrameTypeData)}
	for range 256 {
		require.NoError(t, r.Send(f))
	}
	require.NoError(t, r.Send(f))

	sent := sim.Transmitted()
	require.Len(t, sent, 257)
	assert.Equal(t, byte(0xFF), sent[255].Frame[2])
	assert.Equal(t, byte(0x00), sent[256].Frame[2])
}

func TestSend_ShortSourceUsesShortAddress(t *testing.T) {
	t.Parallel()

	r, sim := startTestRadio(t)
	require.NoError(t, r.SetShortAddress(0xCAFE))

	fc := NewFrameControl(FrameTypeData).WithSrcMode(AddrShort)
	require.NoError(t, r.Send(Frame{Control: fc}))

	sent := sim.Transmitted()
	require.Len(t, sent, 1)
	assert.Equal(t, []byte{0xFE, 0xCA}, sent[0].Frame[5:7])
}

func TestSend_PayloadLimits(t *testing.T) {
	t.Parallel()

	r, sim := startTestRadio(t)
	ext := NewFrameControl(FrameTypeData).WithDstMode(AddrExtended).WithSrcMode(AddrExtended)

	require.ErrorIs(t, r.Send(Frame{Control: ext, Payload: make([]byte, 105)}), ErrPayloadTooLarge)
	require.ErrorIs(t, r.Send(Frame{Control: NewFrameControl(FrameTypeData), Payload: make([]byte, 117)}),
		ErrPayloadTooLarge)
	assert.Empty(t, sim.Transmitted())

	require.NoError(t, r.Send(Frame{Control: ext, Payload: make([]byte, 104)}))
	require.NoError(t, r.Send(Frame{Control: NewFrameControl(FrameTypeData), Payload: make([]byte, 116)}))
}

func TestSendShort(t *testing.T) {
	t.Parallel()

	r, sim := startTestRadio(t)
	require.NoError(t, r.SetShortAddress(0x0001))

	require.NoError(t, r.SendShort(0x4202, []byte("hi")))

	sent := sim.Transmitted()
	require.Len(t, sent, 1)
	assert.True(t, sent[0].AckRequest)
	assert.Equal(t, 9, sent[0].HeaderLength)
	assert.Equal(t, []byte{0x61, 0x88, 0x00, 0x21, 0x34, 0x02, 0x42, 0x01, 0x00, 'h', 'i'}, sent[0].Frame)
}

func TestSend_ExplicitDestinationOverridesLastSource(t *testing.T) {
	t.Parallel()

	r, sim := startTestRadio(t)
	receive(t, r, sim, deviceFrame(0x30, 0x13, 0x05))

	other := ExtendedAddress{0x0A, 0x0A, 0x0A, 0x0A, 0x0A, 0x0A, 0x0A, 0x0A}
	fc := NewFrameControl(FrameTypeData).
		WithPANCompression(true).
		WithDstMode(AddrExtended).
		WithSrcMode(AddrExtended)
	require.NoError(t, r.Send(Frame{Control: fc, Dst: other, Payload: []byte{0x01}}))

	sent := sim.Transmitted()
	require.Len(t, sent, 1)
	assert.Equal(t, other[:], sent[0].Frame[5:13])
}

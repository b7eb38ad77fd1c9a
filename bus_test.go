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
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wireRecorder captures raw transactions and answers reads with a fixed byte.
type wireRecorder struct {
	err    error
	writes [][]byte
	answer byte
}

func (w *wireRecorder) Tx(wb, rb []byte) error {
	if w.err != nil {
		return w.err
	}
	w.writes = append(w.writes, append([]byte(nil), wb...))
	if rb != nil {
		rb[len(rb)-1] = w.answer
	}
	return nil
}

func (*wireRecorder) Close() error        { return nil }
func (*wireRecorder) Type() TransportType { return TransportMock }

// fixedAnswer returns the same byte for every read and keeps nothing.
type fixedAnswer byte

func (f fixedAnswer) Tx(_, rb []byte) error {
	if rb != nil {
		rb[len(rb)-1] = byte(f)
	}
	return nil
}

func (fixedAnswer) Close() error        { return nil }
func (fixedAnswer) Type() TransportType { return TransportMock }

func TestRegisterBus_WireFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		run  func(b *RegisterBus) error
		name string
		want []byte
	}{
		{
			name: "short read",
			run:  func(b *RegisterBus) error { _, err := b.ReadShort(RegINTSTAT); return err },
			want: []byte{0x62, 0x00},
		},
		{
			name: "short write",
			run:  func(b *RegisterBus) error { return b.WriteShort(RegSOFTRST, 0x07) },
			want: []byte{0x55, 0x07},
		},
		{
			name: "short address above 6 bits is masked",
			run:  func(b *RegisterBus) error { return b.WriteShort(0x7F, 0x01) },
			want: []byte{0x7F, 0x01},
		},
		{
			name: "long read",
			run:  func(b *RegisterBus) error { _, err := b.ReadLong(RegRFSTATE); return err },
			want: []byte{0xC1, 0xE0, 0x00},
		},
		{
			name: "long write",
			run:  func(b *RegisterBus) error { return b.WriteLong(RegRXFIFO+1, 0xAA) },
			want: []byte{0xE0, 0x30, 0xAA},
		},
		{
			name: "long write at zero",
			run:  func(b *RegisterBus) error { return b.WriteLong(RegTXNFIFO, 0x0D) },
			want: []byte{0x80, 0x10, 0x0D},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := &wireRecorder{}
			require.NoError(t, tt.run(NewRegisterBus(rec)))
			require.Len(t, rec.writes, 1)
			assert.Equal(t, tt.want, rec.writes[0])
		})
	}
}

func TestRegisterBus_ReadReturnsLastByte(t *testing.T) {
	t.Parallel()

	rec := &wireRecorder{answer: 0xA5}
	b := NewRegisterBus(rec)

	v, err := b.ReadShort(RegTXSTAT)
	require.NoError(t, err)
	assert.Equal(t, byte(0xA5), v)

	v, err = b.ReadLong(RegRXFIFO)
	require.NoError(t, err)
	assert.Equal(t, byte(0xA5), v)
}

func TestRegisterBus_RejectsLongAddressOutOfRange(t *testing.T) {
	t.Parallel()

	rec := &wireRecorder{}
	b := NewRegisterBus(rec)

	_, err := b.ReadLong(0x400)
	require.ErrorIs(t, err, ErrInvalidParameter)
	require.ErrorIs(t, b.WriteLong(0xFFFF, 0), ErrInvalidParameter)
	assert.Empty(t, rec.writes)
}

func TestRegisterBus_FaultIsFatal(t *testing.T) {
	t.Parallel()

	b := NewRegisterBus(&wireRecorder{err: syscall.EIO})

	_, err := b.ReadShort(RegINTSTAT)
	require.ErrorIs(t, err, ErrBusFault)
	require.ErrorIs(t, err, syscall.EIO)
	assert.True(t, IsFatal(err))
	assert.False(t, IsRetryable(err))

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "ReadShort", te.Op)
	assert.Equal(t, string(TransportMock), te.Port)
}

func TestRegisterBus_TraceRecordsTransactions(t *testing.T) {
	t.Parallel()

	b := NewRegisterBus(&wireRecorder{answer: 0x08})
	b.SetTracing(true)
	require.NoError(t, b.WriteShort(RegINTCON, 0xF6))
	_, err := b.ReadShort(RegINTSTAT)
	require.NoError(t, err)

	assert.Equal(t, 2, b.Trace().Len())
	wrapped := b.Trace().WrapError(errors.New("boom"))
	te := GetTrace(wrapped)
	require.NotNil(t, te)
	assert.Equal(t, []byte{RegINTCON, 0xF6}, te.Trace[0].Data)
	assert.Equal(t, TraceRX, te.Trace[1].Direction)
}

func TestRegisterBus_NoTraceOutsideTracing(t *testing.T) {
	t.Parallel()

	b := NewRegisterBus(&wireRecorder{answer: 0x08})
	_, err := b.ReadShort(RegINTSTAT)
	require.NoError(t, err)
	require.NoError(t, b.WriteLong(0x200, 0x01))
	assert.Zero(t, b.Trace().Len())

	quiet := NewRegisterBus(fixedAnswer(0x08))
	allocs := testing.AllocsPerRun(100, func() {
		_, _ = quiet.ReadShort(RegINTSTAT)
		_, _ = quiet.ReadLong(0x300)
	})
	assert.Zero(t, allocs)
}

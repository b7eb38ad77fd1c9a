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
	"fmt"
	"io"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsFatal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "bus fault", err: NewBusFaultError("ReadShort", "spi0", errors.New("x")), want: true},
		{name: "hardware fault", err: NewHardwareFaultError("rf ready", 3, 0x00), want: true},
		{name: "wrapped hardware fault", err: fmt.Errorf("start: %w", ErrHardwareFault), want: true},
		{name: "transport closed", err: ErrTransportClosed, want: true},
		{name: "eof", err: io.EOF, want: true},
		{name: "device gone", err: fmt.Errorf("tx: %w", syscall.ENODEV), want: true},
		{name: "other errno", err: syscall.EAGAIN, want: false},
		{name: "invalid channel", err: ErrInvalidChannel, want: false},
		{name: "transient transport error", err: NewTransportError("tx", "", errors.New("x"), ErrorTypeTransient), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsFatal(tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(ErrBusFault))
	assert.True(t, IsRetryable(NewTransportError("tx", "p", errors.New("x"), ErrorTypeTransient)))
	assert.False(t, IsRetryable(NewTransportError("tx", "p", errors.New("x"), ErrorTypeTimeout)))
	assert.True(t, IsRetryable(fmt.Errorf("outer: %w",
		NewTransportError("tx", "p", errors.New("x"), ErrorTypeTransient))))
}

func TestTransportError_Format(t *testing.T) {
	t.Parallel()

	withPort := NewTransportError("WriteLong", "/dev/spidev0.0", errors.New("boom"), ErrorTypePermanent)
	assert.Equal(t, "WriteLong /dev/spidev0.0: boom", withPort.Error())

	noPort := NewTransportError("reset", "", errors.New("boom"), ErrorTypePermanent)
	assert.Equal(t, "reset: boom", noPort.Error())

	hw := NewHardwareFaultError("soft reset", 100, 0x07)
	assert.Equal(t, ErrorTypeTimeout, hw.Type)
	assert.Contains(t, hw.Error(), "soft reset: radio hardware fault: no ready state after 100 polls (last 0x07)")
}

func TestTraceBuffer_Window(t *testing.T) {
	t.Parallel()

	tb := NewTraceBuffer("spi", "spi0", 3)
	for i := range 5 {
		tb.RecordTX([]byte{byte(i)}, "")
	}
	assert.Equal(t, 3, tb.Len())

	te := GetTrace(tb.WrapError(errors.New("fail")))
	require.NotNil(t, te)
	assert.Equal(t, []byte{2}, te.Trace[0].Data)
	assert.Equal(t, []byte{4}, te.Trace[2].Data)

	tb.Clear()
	assert.Zero(t, tb.Len())
	assert.NoError(t, tb.WrapError(nil))
}

func TestTraceableError_FormatTrace(t *testing.T) {
	t.Parallel()

	tb := NewTraceBuffer("spi", "spi0", 0)
	tb.RecordTX([]byte{0x2A, 0x07}, "short")
	tb.RecordRX([]byte{0x2A, 0x07}, "short")
	err := tb.WrapError(ErrHardwareFault)

	require.ErrorIs(t, err, ErrHardwareFault)
	assert.True(t, HasTrace(err))
	out := GetTrace(err).FormatTrace()
	assert.Contains(t, out, "[spi:spi0] Wire trace (2 entries)")
	assert.Contains(t, out, "> 2A 07 (short)")
	assert.Contains(t, out, "< 2A 07 (short)")

	empty := &TraceableError{Err: errors.New("x"), Transport: "spi", Port: "p"}
	assert.Equal(t, "[spi:p] (no trace data)", empty.FormatTrace())
	assert.False(t, HasTrace(errors.New("plain")))
	assert.Nil(t, GetTrace(errors.New("plain")))
}

func TestFormatHexBytes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "(empty)", formatHexBytes(nil))
	assert.Equal(t, "01 AB", formatHexBytes([]byte{0x01, 0xAB}))
	long := formatHexBytes(make([]byte, 40))
	assert.True(t, strings.HasSuffix(long, "... (40 bytes total)"))
}

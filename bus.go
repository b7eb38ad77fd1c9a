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

import "fmt"

const (
	shortAddrMask = 0x7E
	dirWrite      = 0x01
	longFlag      = 0x80
	longWriteBit  = 0x10
	maxLongAddr   = 0x3FF

	traceDepth = 32
)

// RegisterBus performs single-register transactions in the short and long
// address spaces of the radio.
//
// RegisterBus does no locking of its own. Transactions from the interrupt path
// and the main path must be serialized by the caller; Radio does this with its
// interrupt mask.
type RegisterBus struct {
	transport Transport
	trace     *TraceBuffer
	port      string
	wbuf      [3]byte
	rbuf      [3]byte
	tracing   bool
}

// NewRegisterBus wraps a transport
func NewRegisterBus(t Transport) *RegisterBus {
	port := transportPort(t)
	return &RegisterBus{
		transport: t,
		port:      port,
		trace:     NewTraceBuffer(string(t.Type()), port, traceDepth),
	}
}

// ReadShort reads a register in the short address space.
func (b *RegisterBus) ReadShort(addr byte) (byte, error) {
	b.wbuf[0] = (addr << 1) & shortAddrMask
	b.wbuf[1] = 0
	if err := b.transport.Tx(b.wbuf[:2], b.rbuf[:2]); err != nil {
		return 0, NewBusFaultError("ReadShort", b.port, err)
	}
	if b.traceEnabled() {
		b.trace.RecordRX([]byte{addr, b.rbuf[1]}, "short")
	}
	return b.rbuf[1], nil
}

// WriteShort writes a register in the short address space.
func (b *RegisterBus) WriteShort(addr, value byte) error {
	b.wbuf[0] = (addr<<1)&shortAddrMask | dirWrite
	b.wbuf[1] = value
	if err := b.transport.Tx(b.wbuf[:2], nil); err != nil {
		return NewBusFaultError("WriteShort", b.port, err)
	}
	if b.traceEnabled() {
		b.trace.RecordTX([]byte{addr, value}, "short")
	}
	return nil
}

// ReadLong reads a register in the long address space.
func (b *RegisterBus) ReadLong(addr uint16) (byte, error) {
	if err := checkLongAddr(addr); err != nil {
		return 0, err
	}
	b.wbuf[0] = longFlag | byte(addr>>3)
	b.wbuf[1] = byte(addr << 5)
	b.wbuf[2] = 0
	if err := b.transport.Tx(b.wbuf[:3], b.rbuf[:3]); err != nil {
		return 0, NewBusFaultError("ReadLong", b.port, err)
	}
	if b.traceEnabled() {
		b.trace.RecordRX([]byte{byte(addr >> 8), byte(addr), b.rbuf[2]}, "long")
	}
	return b.rbuf[2], nil
}

// WriteLong writes a register in the long address space.
func (b *RegisterBus) WriteLong(addr uint16, value byte) error {
	if err := checkLongAddr(addr); err != nil {
		return err
	}
	b.wbuf[0] = longFlag | byte(addr>>3)
	b.wbuf[1] = byte(addr<<5) | longWriteBit
	b.wbuf[2] = value
	if err := b.transport.Tx(b.wbuf[:3], nil); err != nil {
		return NewBusFaultError("WriteLong", b.port, err)
	}
	if b.traceEnabled() {
		b.trace.RecordTX([]byte{byte(addr >> 8), byte(addr), value}, "long")
	}
	return nil
}

// SetTracing turns transaction recording on or off. Recording is also on
// while debug output is enabled. The receive and transmit paths run with it
// off so they do not allocate per transaction.
func (b *RegisterBus) SetTracing(on bool) {
	b.tracing = on
}

func (b *RegisterBus) traceEnabled() bool {
	return b.tracing || DebugEnabled()
}

// Trace returns the bus trace buffer.
func (b *RegisterBus) Trace() *TraceBuffer {
	return b.trace
}

func checkLongAddr(addr uint16) error {
	if addr > maxLongAddr {
		return fmt.Errorf("%w: long address 0x%03X", ErrInvalidParameter, addr)
	}
	return nil
}

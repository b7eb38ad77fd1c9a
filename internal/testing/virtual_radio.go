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

// Package testing provides a register-level MRF24J40 simulator.
//
// VirtualMRF24J40 decodes SPI transactions exactly as the chip does: a short
// access is [addr<<1 | write][data], a long access is
// [0x80 | addr>>3][addr<<5 | write<<4][data]. Registers are plain memory
// except for the few with side effects the driver relies on:
//   - SOFTRST self-clears after a configurable number of reads
//   - RFSTATE reports receive state unless the radio is told it never gets there
//   - INTSTAT is cleared on read
//   - writing the TXNCON trigger bit captures the TX FIFO and raises TXNIF
//   - InjectFrame loads the RX FIFO and raises RXIF
package testing

import (
	"errors"
	"fmt"
	"time"

	"github.com/pethublocal/go-mrf24j/internal/syncutil"
)

// Register addresses the simulator gives side effects to. They mirror the
// driver's register map.
const (
	regRXFLUSH = 0x0D
	regTXNCON  = 0x1B
	regTXSTAT  = 0x24
	regSOFTRST = 0x2A
	regINTSTAT = 0x31
	regRFSTATE = 0x20F
	regRXFIFO  = 0x300

	intTXN    = 0x01
	intRX     = 0x08
	txnTrig   = 0x01
	rxReady   = 0xA0
	longFlag  = 0x80
	writeFlag = 0x01
	longWrite = 0x10

	shortSpace = 64
	longSpace  = 1024
)

// ErrBusDisconnected is returned by Tx once a bus fault has been injected.
var ErrBusDisconnected = errors.New("simulated bus disconnected")

// Access is one decoded register transaction.
type Access struct {
	Addr  uint16
	Value byte
	Long  bool
	Write bool
}

func (a Access) String() string {
	space, dir := "short", "R"
	if a.Long {
		space = "long"
	}
	if a.Write {
		dir = "W"
	}
	return fmt.Sprintf("%s %s 0x%03X=0x%02X", dir, space, a.Addr, a.Value)
}

// TxFrame is a frame captured from the TX normal FIFO when the trigger bit was set.
type TxFrame struct {
	// Frame holds the MAC bytes: FCF, sequence, PAN, addresses, payload.
	Frame        []byte
	HeaderLength int
	AckRequest   bool
}

// VirtualMRF24J40 is a register-level model of the radio.
type VirtualMRF24J40 struct {
	busErr      error
	irq         chan struct{}
	accesses    []Access
	transmitted []TxFrame
	resetEdges  []bool
	short       [shortSpace]byte
	long        [longSpace]byte
	mu          syncutil.Mutex

	softResetReads int
	softResetLeft  int
	txStatus       byte
	neverReady     bool
	closed         bool
	softResets     int
	flushes        int
}

// NewVirtualMRF24J40 returns a simulator whose soft reset clears on the
// first poll and which reports receive-ready state.
func NewVirtualMRF24J40() *VirtualMRF24J40 {
	return &VirtualMRF24J40{
		irq:            make(chan struct{}, 1),
		softResetReads: 1,
	}
}

// SetSoftResetReads sets which SOFTRST read after a soft reset first returns
// the bits cleared. A negative value keeps them set forever.
func (v *VirtualMRF24J40) SetSoftResetReads(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.softResetReads = n
}

// SetNeverReady makes RFSTATE never report receive state.
func (v *VirtualMRF24J40) SetNeverReady(never bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.neverReady = never
}

// SetTxStatus sets the TXSTAT value reported after each transmission.
func (v *VirtualMRF24J40) SetTxStatus(status byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.txStatus = status
}

// InjectBusError makes every following transaction fail with err.
// A nil error restores the bus.
func (v *VirtualMRF24J40) InjectBusError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.busErr = err
}

// Tx decodes and applies one SPI transaction.
func (v *VirtualMRF24J40) Tx(w, r []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrBusDisconnected
	}
	if v.busErr != nil {
		return v.busErr
	}
	if r != nil && len(r) != len(w) {
		return fmt.Errorf("read buffer %d bytes, write buffer %d bytes", len(r), len(w))
	}

	var acc Access
	switch {
	case len(w) == 3 && w[0]&longFlag != 0:
		acc.Long = true
		acc.Addr = uint16(w[0]&^longFlag)<<3 | uint16(w[1]>>5)
		acc.Write = w[1]&longWrite != 0
		acc.Value = w[2]
	case len(w) == 2 && w[0]&longFlag == 0:
		acc.Addr = uint16(w[0]>>1) & (shortSpace - 1)
		acc.Write = w[0]&writeFlag != 0
		acc.Value = w[1]
	default:
		return fmt.Errorf("malformed transaction % X", w)
	}

	if acc.Write {
		v.write(acc)
	} else {
		acc.Value = v.read(acc)
		if r != nil {
			r[len(r)-1] = acc.Value
		}
	}
	v.accesses = append(v.accesses, acc)
	return nil
}

func (v *VirtualMRF24J40) read(acc Access) byte {
	if acc.Long {
		if acc.Addr == regRFSTATE {
			if v.neverReady {
				return 0x00
			}
			return rxReady
		}
		return v.long[acc.Addr]
	}

	value := v.short[acc.Addr]
	switch acc.Addr {
	case regINTSTAT:
		v.short[regINTSTAT] = 0
	case regSOFTRST:
		if value != 0 && v.softResetLeft >= 0 {
			if v.softResetLeft == 0 {
				v.short[regSOFTRST] = 0
				value = 0
			} else {
				v.softResetLeft--
			}
		}
	}
	return value
}

func (v *VirtualMRF24J40) write(acc Access) {
	if acc.Long {
		v.long[acc.Addr] = acc.Value
		return
	}

	switch acc.Addr {
	case regSOFTRST:
		v.softResets++
		v.softResetLeft = v.softResetReads
		if v.softResetLeft > 0 {
			v.softResetLeft--
		}
	case regRXFLUSH:
		v.flushes++
	case regTXNCON:
		if acc.Value&txnTrig != 0 {
			v.captureTx(acc.Value)
			return
		}
	}
	v.short[acc.Addr] = acc.Value
}

func (v *VirtualMRF24J40) captureTx(txncon byte) {
	hdr := int(v.long[0])
	n := int(v.long[1])
	v.transmitted = append(v.transmitted, TxFrame{
		Frame:        append([]byte(nil), v.long[2:2+n]...),
		HeaderLength: hdr,
		AckRequest:   txncon&0x04 != 0,
	})
	v.short[regTXSTAT] = v.txStatus
	v.short[regINTSTAT] |= intTXN
	v.raise()
}

// raise signals the interrupt line; caller holds mu.
func (v *VirtualMRF24J40) raise() {
	select {
	case v.irq <- struct{}{}:
	default:
	}
}

// InjectFrame places a received frame in the RX FIFO: the length prefix,
// the MAC bytes, then LQI and RSSI. Include two trailing bytes in mac to model
// the FCS the hardware counts in the length.
func (v *VirtualMRF24J40) InjectFrame(mac []byte, lqi, rssi byte) {
	v.mu.Lock()
	defer v.mu.Unlock()

	base := regRXFIFO
	v.long[base] = byte(len(mac))
	copy(v.long[base+1:], mac)
	v.long[base+1+len(mac)] = lqi
	v.long[base+2+len(mac)] = rssi
	v.short[regINTSTAT] |= intRX
	v.raise()
}

// InjectRawFIFO overwrites RX FIFO bytes starting at the length prefix and
// raises RXIF, for malformed-frame tests.
func (v *VirtualMRF24J40) InjectRawFIFO(data []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	copy(v.long[regRXFIFO:], data)
	v.short[regINTSTAT] |= intRX
	v.raise()
}

// RaiseInterrupt sets INTSTAT bits and signals the interrupt line.
func (v *VirtualMRF24J40) RaiseInterrupt(bits byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.short[regINTSTAT] |= bits
	v.raise()
}

// WaitForInterrupt blocks until the interrupt line fires or timeout elapses.
// A negative timeout waits forever.
func (v *VirtualMRF24J40) WaitForInterrupt(timeout time.Duration) bool {
	if timeout < 0 {
		<-v.irq
		return true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-v.irq:
		return true
	case <-timer.C:
		return false
	}
}

// SetReset records a reset line level.
func (v *VirtualMRF24J40) SetReset(high bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.busErr != nil {
		return v.busErr
	}
	v.resetEdges = append(v.resetEdges, high)
	return nil
}

// Close marks the bus closed
func (v *VirtualMRF24J40) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	return nil
}

// PortName identifies the simulator in errors
func (*VirtualMRF24J40) PortName() string {
	return "virtual"
}

// Short returns a short register value without side effects.
func (v *VirtualMRF24J40) Short(addr byte) byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.short[addr&(shortSpace-1)]
}

// Long returns a long register value without side effects.
func (v *VirtualMRF24J40) Long(addr uint16) byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.long[addr&(longSpace-1)]
}

// SetShort presets a short register without side effects.
func (v *VirtualMRF24J40) SetShort(addr, value byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.short[addr&(shortSpace-1)] = value
}

// Accesses returns a copy of the transaction log
func (v *VirtualMRF24J40) Accesses() []Access {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Access(nil), v.accesses...)
}

// ClearAccesses empties the transaction log
func (v *VirtualMRF24J40) ClearAccesses() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.accesses = v.accesses[:0]
}

// Transmitted returns the frames captured so far
func (v *VirtualMRF24J40) Transmitted() []TxFrame {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]TxFrame(nil), v.transmitted...)
}

// ResetEdges returns the reset line levels driven so far
func (v *VirtualMRF24J40) ResetEdges() []bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]bool(nil), v.resetEdges...)
}

// SoftResets returns how many times SOFTRST was written
func (v *VirtualMRF24J40) SoftResets() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.softResets
}

// Flushes returns how many times RXFLUSH was written
func (v *VirtualMRF24J40) Flushes() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.flushes
}

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

	"github.com/pethublocal/go-mrf24j/internal/frame"
)

// InterruptStatus is the INTSTAT value read by HandleInterrupt
type InterruptStatus byte

// RX reports a received frame
func (s InterruptStatus) RX() bool { return byte(s)&intRX != 0 }

// TX reports a completed transmission on the normal FIFO
func (s InterruptStatus) TX() bool { return byte(s)&intTXN != 0 }

// RxRecord is the most recently received frame. Only the latest frame is
// kept; a frame that arrives while the previous one is unread replaces it.
type RxRecord struct {
	Frame Frame
	// Malformed is set when the addressing modes or the length prefix cannot
	// describe a valid frame. Only Control and FrameLength are meaningful then.
	Malformed bool
	// Overwritten counts RX events that were replaced before being handled.
	Overwritten uint32

	buf [frame.MaxPHYLength]byte
}

// Clone returns a copy whose payload does not alias the radio's buffer.
func (rec *RxRecord) Clone() RxRecord {
	out := RxRecord{
		Frame:       rec.Frame.Clone(),
		Malformed:   rec.Malformed,
		Overwritten: rec.Overwritten,
	}
	return out
}

// TxCompletion is the status of the latest transmission attempt.
type TxCompletion struct {
	Success     bool
	Retries     uint8
	ChannelBusy bool
}

func (c TxCompletion) String() string {
	if c.Success {
		return fmt.Sprintf("ok (retries=%d)", c.Retries)
	}
	return fmt.Sprintf("failed (retries=%d channel_busy=%t)", c.Retries, c.ChannelBusy)
}

// HandleInterrupt is the top half. It reads INTSTAT, copies a received frame
// out of the RX FIFO and captures TX status, then bumps the sticky event
// counters consumed by CheckFlags. It never calls handlers.
func (r *Radio) HandleInterrupt() (InterruptStatus, error) {
	r.mask.Lock()
	defer r.mask.Unlock()

	v, err := r.bus.ReadShort(RegINTSTAT)
	if err != nil {
		return 0, err
	}
	status := InterruptStatus(v)

	if status.RX() {
		if err := r.readRxFIFOLocked(); err != nil {
			return status, err
		}
		r.rxEvents.Add(1)
	}
	if status.TX() {
		stat, err := r.bus.ReadShort(RegTXSTAT)
		if err != nil {
			return status, err
		}
		r.tx = TxCompletion{
			Success:     stat&txStatFailed == 0,
			Retries:     stat >> txStatRetries,
			ChannelBusy: stat&txStatCCAFail != 0,
		}
		r.txEvents.Add(1)
	}
	return status, nil
}

// readRxFIFOLocked copies the RX FIFO into the single RX record with the
// receiver disabled, re-enabling it on every path.
func (r *Radio) readRxFIFOLocked() (err error) {
	if err := r.bus.WriteShort(RegBBREG1, rxDecodeInvert); err != nil {
		return err
	}
	defer func() {
		if enErr := r.bus.WriteShort(RegBBREG1, 0x00); enErr != nil {
			err = errors.Join(err, enErr)
		}
	}()

	read := func(off int) (byte, error) {
		return r.bus.ReadLong(RegRXFIFO + uint16(off))
	}

	rec := &r.rx
	rec.Malformed = false
	rec.Frame = Frame{}

	length, err := read(frame.RxFrameLengthOffset)
	if err != nil {
		return err
	}
	lo, err := read(frame.RxFrameOffset)
	if err != nil {
		return err
	}
	hi, err := read(frame.RxFrameOffset + 1)
	if err != nil {
		return err
	}
	f := &rec.Frame
	f.FrameLength = int(length)
	f.Control = FrameControl(uint16(hi)<<8 | uint16(lo))

	hdr, hdrErr := f.Control.HeaderLength()
	if hdrErr != nil {
		Debugf("rx dropped: %v", hdrErr)
		rec.Malformed = true
		return nil
	}
	n, lenErr := frame.PayloadLength(f.FrameLength, hdr)
	if lenErr != nil {
		Debugf("rx dropped: length %d with %d byte header", f.FrameLength, hdr)
		rec.Malformed = true
		return nil
	}
	f.HeaderLength = hdr

	// Sequence, PAN, addresses and payload are contiguous after the FCF.
	body := rec.buf[:hdr-2+n]
	for i := range body {
		if body[i], err = read(frame.RxFrameOffset + 2 + i); err != nil {
			return err
		}
	}
	f.Sequence = body[0]
	f.PAN = uint16(body[1]) | uint16(body[2])<<8
	dstLen, _ := f.Control.DstMode().Length()
	addrs := body[3 : hdr-2]
	copy(f.Dst[:], addrs[:dstLen])
	copy(f.Src[:], addrs[dstLen:])
	f.Payload = body[hdr-2:]

	if f.LQI, err = read(frame.RxFrameOffset + f.FrameLength); err != nil {
		return err
	}
	if f.RSSI, err = read(frame.RxFrameOffset + f.FrameLength + 1); err != nil {
		return err
	}
	return nil
}

// RxInfo returns a copy of the latest RX record.
func (r *Radio) RxInfo() RxRecord {
	r.mask.Lock()
	defer r.mask.Unlock()
	return r.rx.Clone()
}

// TxInfo returns the latest TX completion.
func (r *Radio) TxInfo() TxCompletion {
	r.mask.Lock()
	defer r.mask.Unlock()
	return r.tx
}

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
	"fmt"

	"github.com/pethublocal/go-mrf24j/internal/frame"
)

// shortDataFCF is a data frame with ack request, PAN compression and 16-bit
// source and destination addressing.
var shortDataFCF = NewFrameControl(FrameTypeData).
	WithAckRequest(true).
	WithPANCompression(true).
	WithDstMode(AddrShort).
	WithSrcMode(AddrShort)

// Send loads f into the TX normal FIFO and triggers transmission.
//
// Send builds a reply: the control field, destination and payload come from
// f, while the sequence number is the radio's own wrapping counter, the PAN
// id is read from the radio, and the source is the local extended address
// (mode 3) or short address (mode 2). A zero f.Dst is replaced by the source
// of the last received frame. The whole FIFO load runs under the interrupt
// mask.
//
// Completion is reported through the TX event, not by Send.
func (r *Radio) Send(f Frame) error {
	hdr, err := f.Control.HeaderLength()
	if err != nil {
		return err
	}
	if !frame.FitsTx(hdr, len(f.Payload)) {
		return fmt.Errorf("%w: %d bytes with %d byte header", ErrPayloadTooLarge, len(f.Payload), hdr)
	}

	r.mask.Lock()
	defer r.mask.Unlock()
	if !r.ready {
		return ErrNotInitialized
	}

	pan, err := r.readPairLocked(RegPANIDL, RegPANIDH)
	if err != nil {
		return err
	}

	dstLen, _ := f.Control.DstMode().Length()
	buf := make([]byte, 0, frame.TxFrameOffset+hdr+len(f.Payload))
	buf = append(buf, byte(hdr), byte(hdr+len(f.Payload)))
	buf = append(buf, byte(f.Control), byte(f.Control>>8), r.txSeq)
	buf = append(buf, byte(pan), byte(pan>>8))
	dst := f.Dst
	if dst == ([8]byte{}) {
		dst = r.rx.Frame.Src
	}
	buf = append(buf, dst[:dstLen]...)
	switch f.Control.SrcMode() {
	case AddrExtended:
		buf = append(buf, r.extAddr[:]...)
	case AddrShort:
		short, err := r.readPairLocked(RegSADRL, RegSADRH)
		if err != nil {
			return err
		}
		buf = append(buf, byte(short), byte(short>>8))
	}
	buf = append(buf, f.Payload...)

	if err := r.loadTxFIFOLocked(buf); err != nil {
		return err
	}
	if err := r.bus.WriteShort(RegTXNCON, txnTrig); err != nil {
		return err
	}
	Debugf("tx seq=%d %s len=%d", r.txSeq, f.Control, len(f.Payload))
	r.txSeq++
	return nil
}

// SendShort sends a data frame to a 16-bit address with an acknowledgement
// request. It is a diagnostic path and is not used by the device protocol.
func (r *Radio) SendShort(dst uint16, data []byte) error {
	hdr, _ := shortDataFCF.HeaderLength()
	if !frame.FitsTx(hdr, len(data)) {
		return fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(data))
	}

	r.mask.Lock()
	defer r.mask.Unlock()
	if !r.ready {
		return ErrNotInitialized
	}

	pan, err := r.readPairLocked(RegPANIDL, RegPANIDH)
	if err != nil {
		return err
	}
	src, err := r.readPairLocked(RegSADRL, RegSADRH)
	if err != nil {
		return err
	}

	buf := make([]byte, 0, frame.TxFrameOffset+hdr+len(data))
	buf = append(buf, byte(hdr), byte(hdr+len(data)))
	buf = append(buf, byte(shortDataFCF), byte(shortDataFCF>>8), r.txSeq)
	buf = append(buf, byte(pan), byte(pan>>8), byte(dst), byte(dst>>8), byte(src), byte(src>>8))
	buf = append(buf, data...)

	if err := r.loadTxFIFOLocked(buf); err != nil {
		return err
	}
	if err := r.bus.WriteShort(RegTXNCON, txnAckReq|txnTrig); err != nil {
		return err
	}
	r.txSeq++
	return nil
}

func (r *Radio) loadTxFIFOLocked(buf []byte) error {
	for i, v := range buf {
		if err := r.bus.WriteLong(RegTXNFIFO+uint16(i), v); err != nil {
			return err
		}
	}
	return nil
}

// TxSequence returns the sequence number the next frame will carry
func (r *Radio) TxSequence() byte {
	r.mask.Lock()
	defer r.mask.Unlock()
	return r.txSeq
}

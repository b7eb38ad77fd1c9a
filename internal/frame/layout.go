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

// Package frame holds the byte layout arithmetic of an 802.15.4 MAC frame as it
// sits in the MRF24J40 FIFOs.
package frame

import "errors"

// Address mode field values
const (
	ModeNone     = 0 // no address present
	ModeReserved = 1 // never produced, rejected on receive
	ModeShort    = 2 // 16-bit short address
	ModeExtended = 3 // 8-byte extended address
)

// Frame size limits
const (
	FixedHeaderLength = 5   // FCF(2) + sequence(1) + PAN id(2)
	MaxPHYLength      = 127 // aMaxPHYPacketSize
	FCSLength         = 2   // appended by the TX MAC
	MaxPayloadLength  = 116 // largest payload the frame record carries
	ShortAddrLength   = 2
	ExtAddrLength     = 8
	MaxHeaderLength   = FixedHeaderLength + 2*ExtAddrLength
)

// FIFO offsets, relative to the FIFO base address
const (
	// TX normal FIFO: [header length][frame length][frame...]
	TxHeaderLengthOffset = 0
	TxFrameLengthOffset  = 1
	TxFrameOffset        = 2

	// RX FIFO: [frame length][frame...][LQI][RSSI]
	RxFrameLengthOffset = 0
	RxFrameOffset       = 1
)

// ErrReservedMode is returned for the reserved addressing mode value 1.
var ErrReservedMode = errors.New("reserved addressing mode")

// ErrBadLength is returned when a length prefix cannot describe a valid frame.
var ErrBadLength = errors.New("invalid frame length")

var addrLengths = [4]int{0, 0, ShortAddrLength, ExtAddrLength}

// AddressLength maps an addressing mode to the number of address bytes on air.
func AddressLength(mode uint8) (int, error) {
	mode &= 0x03
	if mode == ModeReserved {
		return 0, ErrReservedMode
	}
	return addrLengths[mode], nil
}

// HeaderLength returns 5 + len(dst) + len(src) for the given modes.
func HeaderLength(dstMode, srcMode uint8) (int, error) {
	dst, err := AddressLength(dstMode)
	if err != nil {
		return 0, err
	}
	src, err := AddressLength(srcMode)
	if err != nil {
		return 0, err
	}
	return FixedHeaderLength + dst + src, nil
}

// PayloadLength validates a received length prefix against the header length
// and returns the number of payload bytes that follow the header.
func PayloadLength(frameLength, headerLength int) (int, error) {
	if frameLength > MaxPHYLength || frameLength < headerLength {
		return 0, ErrBadLength
	}
	n := frameLength - headerLength
	if n > MaxPayloadLength {
		return 0, ErrBadLength
	}
	return n, nil
}

// FitsTx reports whether a frame with the given header and payload lengths can
// be transmitted, FCS included.
func FitsTx(headerLength, payloadLength int) bool {
	if payloadLength < 0 || payloadLength > MaxPayloadLength {
		return false
	}
	return headerLength+payloadLength+FCSLength <= MaxPHYLength
}

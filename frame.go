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
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/pethublocal/go-mrf24j/internal/frame"
)

// FrameType is the 3-bit 802.15.4 frame type.
type FrameType uint8

// Frame types used by this network.
const (
	FrameTypeBeacon     FrameType = 0
	FrameTypeData       FrameType = 1
	FrameTypeAck        FrameType = 2
	FrameTypeMACCommand FrameType = 3
)

// AddressMode is the 2-bit addressing mode of a destination or source field.
type AddressMode uint8

// Addressing modes. AddrReserved is never produced and is rejected on receive.
const (
	AddrNone     AddressMode = frame.ModeNone
	AddrReserved AddressMode = frame.ModeReserved
	AddrShort    AddressMode = frame.ModeShort
	AddrExtended AddressMode = frame.ModeExtended
)

// Length returns the on-air size of an address in this mode.
func (m AddressMode) Length() (int, error) {
	n, err := frame.AddressLength(uint8(m))
	if err != nil {
		return 0, fmt.Errorf("%w: %d", ErrInvalidAddressMode, m)
	}
	return n, nil
}

// Frame control field layout.
const (
	fcTypeShift    = 0
	fcTypeMask     = 0x7
	fcSecurity     = 3
	fcFramePending = 4
	fcAckRequest   = 5
	fcPANCompress  = 6
	fcReserved     = 7
	fcSeqSuppress  = 8
	fcIEPresent    = 9
	fcDstModeShift = 10
	fcVersionShift = 12
	fcSrcModeShift = 14
	fcTwoBitMask   = 0x3
)

// FrameControl is the 16-bit frame control field, little endian on air.
type FrameControl uint16

// NewFrameControl returns a control field of the given type with every flag clear.
func NewFrameControl(t FrameType) FrameControl {
	return FrameControl(0).WithType(t)
}

func (fc FrameControl) bit(n uint) bool {
	return fc&(1<<n) != 0
}

func (fc FrameControl) withBit(n uint, on bool) FrameControl {
	if on {
		return fc | 1<<n
	}
	return fc &^ (1 << n)
}

func (fc FrameControl) field(shift uint, mask uint16) uint8 {
	return uint8((uint16(fc) >> shift) & mask)
}

func (fc FrameControl) withField(shift uint, mask uint16, v uint8) FrameControl {
	cleared := uint16(fc) &^ (mask << shift)
	return FrameControl(cleared | (uint16(v)&mask)<<shift)
}

// Type returns the frame type.
func (fc FrameControl) Type() FrameType { return FrameType(fc.field(fcTypeShift, fcTypeMask)) }

// SecurityEnabled reports the security-enabled bit.
func (fc FrameControl) SecurityEnabled() bool { return fc.bit(fcSecurity) }

// FramePending reports the frame-pending bit.
func (fc FrameControl) FramePending() bool { return fc.bit(fcFramePending) }

// AckRequest reports the ack-request bit.
func (fc FrameControl) AckRequest() bool { return fc.bit(fcAckRequest) }

// PANCompression reports the PAN-ID compression bit.
func (fc FrameControl) PANCompression() bool { return fc.bit(fcPANCompress) }

// Reserved reports the reserved bit.
func (fc FrameControl) Reserved() bool { return fc.bit(fcReserved) }

// SequenceSuppressed reports the sequence-number suppression bit.
func (fc FrameControl) SequenceSuppressed() bool { return fc.bit(fcSeqSuppress) }

// IEPresent reports the information-elements-present bit.
func (fc FrameControl) IEPresent() bool { return fc.bit(fcIEPresent) }

// DstMode returns the destination addressing mode.
func (fc FrameControl) DstMode() AddressMode {
	return AddressMode(fc.field(fcDstModeShift, fcTwoBitMask))
}

// Version returns the frame version.
func (fc FrameControl) Version() uint8 { return fc.field(fcVersionShift, fcTwoBitMask) }

// SrcMode returns the source addressing mode.
func (fc FrameControl) SrcMode() AddressMode {
	return AddressMode(fc.field(fcSrcModeShift, fcTwoBitMask))
}

// WithType sets the frame type.
func (fc FrameControl) WithType(t FrameType) FrameControl {
	return fc.withField(fcTypeShift, fcTypeMask, uint8(t))
}

// WithSecurity sets the security-enabled bit.
func (fc FrameControl) WithSecurity(on bool) FrameControl { return fc.withBit(fcSecurity, on) }

// WithFramePending sets the frame-pending bit.
func (fc FrameControl) WithFramePending(on bool) FrameControl { return fc.withBit(fcFramePending, on) }

// WithAckRequest sets the ack-request bit.
func (fc FrameControl) WithAckRequest(on bool) FrameControl { return fc.withBit(fcAckRequest, on) }

// WithPANCompression sets the PAN-ID compression bit.
func (fc FrameControl) WithPANCompression(on bool) FrameControl {
	return fc.withBit(fcPANCompress, on)
}

// WithSequenceSuppressed sets the sequence-number suppression bit.
func (fc FrameControl) WithSequenceSuppressed(on bool) FrameControl {
	return fc.withBit(fcSeqSuppress, on)
}

// WithIEPresent sets the information-elements-present bit.
func (fc FrameControl) WithIEPresent(on bool) FrameControl { return fc.withBit(fcIEPresent, on) }

// WithDstMode sets the destination addressing mode.
func (fc FrameControl) WithDstMode(m AddressMode) FrameControl {
	return fc.withField(fcDstModeShift, fcTwoBitMask, uint8(m))
}

// WithVersion sets the frame version.
func (fc FrameControl) WithVersion(v uint8) FrameControl {
	return fc.withField(fcVersionShift, fcTwoBitMask, v)
}

// WithSrcMode sets the source addressing mode.
func (fc FrameControl) WithSrcMode(m AddressMode) FrameControl {
	return fc.withField(fcSrcModeShift, fcTwoBitMask, uint8(m))
}

// HeaderLength returns 5 plus the destination and source address lengths.
func (fc FrameControl) HeaderLength() (int, error) {
	n, err := frame.HeaderLength(uint8(fc.DstMode()), uint8(fc.SrcMode()))
	if err != nil {
		return 0, fmt.Errorf("%w: dst=%d src=%d", ErrInvalidAddressMode, fc.DstMode(), fc.SrcMode())
	}
	return n, nil
}

func (fc FrameControl) String() string {
	return fmt.Sprintf("FCF(0x%04X type=%d ack=%t panc=%t dam=%d sam=%d)",
		uint16(fc), fc.Type(), fc.AckRequest(), fc.PANCompression(), fc.DstMode(), fc.SrcMode())
}

// ExtendedAddress is an opaque 8-byte device identity, kept in on-air byte order.
type ExtendedAddress [frame.ExtAddrLength]byte

// String formats the address as contiguous uppercase hex, the identity form
// used in topics and the device whitelist.
func (a ExtendedAddress) String() string {
	return strings.ToUpper(hex.EncodeToString(a[:]))
}

// IsZero reports whether every byte is zero.
func (a ExtendedAddress) IsZero() bool {
	return a == ExtendedAddress{}
}

// ParseExtendedAddress accepts 16 hex digits, optionally separated by colons
// ("80:1F:12:FF:FE:E8:8D:D9" or "52E26AFEFF121F80").
func ParseExtendedAddress(s string) (ExtendedAddress, error) {
	var a ExtendedAddress
	digits := strings.ReplaceAll(strings.TrimSpace(s), ":", "")
	if len(digits) != 2*len(a) {
		return a, fmt.Errorf("%w: extended address %q must be %d bytes", ErrInvalidParameter, s, len(a))
	}
	if _, err := hex.Decode(a[:], []byte(digits)); err != nil {
		return a, fmt.Errorf("%w: extended address %q: %w", ErrInvalidParameter, s, err)
	}
	return a, nil
}

// Frame is a logical 802.15.4 frame, used for both received and transmitted
// frames. Addresses are stored in 8-byte slots; only the first N bytes for the
// frame's addressing mode are meaningful.
type Frame struct {
	Control  FrameControl
	Sequence byte
	PAN      uint16
	Dst      [frame.ExtAddrLength]byte
	Src      [frame.ExtAddrLength]byte
	Payload  []byte

	// FrameLength is the FIFO length prefix. Receive only.
	FrameLength int
	// HeaderLength is 5 plus the address lengths.
	HeaderLength int
	// LQI and RSSI are appended by hardware. Receive only.
	LQI  byte
	RSSI byte
}

// SrcAddress returns the source as an identity. Short sources occupy the
// first two bytes.
func (f *Frame) SrcAddress() ExtendedAddress {
	return ExtendedAddress(f.Src)
}

// DstAddress returns the destination slot as an identity.
func (f *Frame) DstAddress() ExtendedAddress {
	return ExtendedAddress(f.Dst)
}

// Clone returns a deep copy.
func (f Frame) Clone() Frame {
	if f.Payload != nil {
		f.Payload = append([]byte(nil), f.Payload...)
	}
	return f
}

// Encode returns the MAC frame as it is laid out in the TX FIFO after the two
// length bytes: FCF, sequence, PAN, destination, source, payload.
func (f *Frame) Encode() ([]byte, error) {
	hdr, err := f.Control.HeaderLength()
	if err != nil {
		return nil, err
	}
	if len(f.Payload) > frame.MaxPayloadLength || !frame.FitsTx(hdr, len(f.Payload)) {
		return nil, fmt.Errorf("%w: %d bytes with %d byte header", ErrPayloadTooLarge, len(f.Payload), hdr)
	}

	out := make([]byte, 0, hdr+len(f.Payload))
	out = append(out, byte(f.Control), byte(f.Control>>8), f.Sequence, byte(f.PAN), byte(f.PAN>>8))
	dstLen, _ := f.Control.DstMode().Length()
	srcLen, _ := f.Control.SrcMode().Length()
	out = append(out, f.Dst[:dstLen]...)
	out = append(out, f.Src[:srcLen]...)
	out = append(out, f.Payload...)
	return out, nil
}

// DecodeFrame parses MAC bytes in the layout produced by Encode. Trailing
// bytes after the header are the payload.
func DecodeFrame(b []byte) (Frame, error) {
	var f Frame
	if len(b) < frame.FixedHeaderLength {
		return f, fmt.Errorf("%w: %d byte frame", frame.ErrBadLength, len(b))
	}
	f.Control = FrameControl(uint16(b[0]) | uint16(b[1])<<8)
	hdr, err := f.Control.HeaderLength()
	if err != nil {
		return f, err
	}
	if len(b) < hdr {
		return f, fmt.Errorf("%w: %d bytes, header needs %d", frame.ErrBadLength, len(b), hdr)
	}
	f.Sequence = b[2]
	f.PAN = uint16(b[3]) | uint16(b[4])<<8
	dstLen, _ := f.Control.DstMode().Length()
	off := frame.FixedHeaderLength
	copy(f.Dst[:], b[off:off+dstLen])
	off += dstLen
	copy(f.Src[:], b[off:hdr])
	f.HeaderLength = hdr
	f.FrameLength = len(b)
	f.Payload = append([]byte(nil), b[hdr:]...)
	return f, nil
}

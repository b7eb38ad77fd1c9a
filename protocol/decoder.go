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

package protocol

import (
	mrf24j "github.com/pethublocal/go-mrf24j"
	"github.com/pethublocal/go-mrf24j/internal/syncutil"
)

// Forward is a payload to hand to the publish sink
type Forward struct {
	Payload  []byte
	Identity mrf24j.ExtendedAddress
	// Unknown marks payloads the decoder did not recognize or could not parse.
	Unknown bool
}

// Result is the outcome of decoding one received frame. Reply and Forward
// are independent; either or both may be nil.
type Result struct {
	Reply   *mrf24j.Frame
	Forward *Forward
	Kind    MessageKind
	// Malformed is set for empty payloads, payloads too short for their
	// code, and frames the radio could not parse.
	Malformed bool
	// Known reports whether the source is in the device table.
	Known bool
}

// Reply frame controls. Everything except the beacon ack addresses the
// device directly with PAN compression.
var (
	beaconAckControl = mrf24j.NewFrameControl(mrf24j.FrameTypeBeacon).
				WithSrcMode(mrf24j.AddrExtended)

	associationControl = mrf24j.NewFrameControl(mrf24j.FrameTypeMACCommand).
				WithDstMode(mrf24j.AddrExtended).
				WithSrcMode(mrf24j.AddrExtended).
				WithPANCompression(true).
				WithAckRequest(true)

	dataControl = mrf24j.NewFrameControl(mrf24j.FrameTypeData).
			WithDstMode(mrf24j.AddrExtended).
			WithSrcMode(mrf24j.AddrExtended).
			WithPANCompression(true)

	dataAckReqControl = dataControl.WithAckRequest(true)
)

// Decoder runs the device protocol state machine against a DeviceTable.
//
// The local sequence is one wrapping counter shared by every device and
// every reply that carries it; it starts at 0 and is never reset.
type Decoder struct {
	table    *DeviceTable
	mu       syncutil.Mutex
	localSeq byte
}

// NewDecoder returns a decoder over table
func NewDecoder(table *DeviceTable) *Decoder {
	return &Decoder{table: table}
}

// Table returns the device table
func (d *Decoder) Table() *DeviceTable {
	return d.table
}

// LocalSequence returns the value the next sequenced reply will carry
func (d *Decoder) LocalSequence() byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.localSeq
}

// DecodeRecord decodes the radio's RX record. Malformed records are dropped.
func (d *Decoder) DecodeRecord(rec mrf24j.RxRecord) Result {
	if rec.Malformed {
		return Result{Kind: KindUnknown, Malformed: true}
	}
	return d.Decode(rec.Frame.SrcAddress(), rec.Frame.Payload)
}

// Decode applies one received payload from src to the table and returns the
// reply to send and the payload to forward.
func (d *Decoder) Decode(src mrf24j.ExtendedAddress, payload []byte) Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	dev, known := d.table.Lookup(src)
	res := Result{Known: known}

	if len(payload) == 0 {
		res.Kind = KindEmpty
		res.Malformed = true
		return res
	}

	// The stored flag is read before any mutation in this step.
	kind := classify(payload[0], dev.Online)
	if n, ok := minLength[kind]; ok && len(payload) < n {
		mrf24j.Debugf("protocol: %s from %s needs %d bytes, got %d", kind, src, n, len(payload))
		res.Kind = KindUnknown
		res.Malformed = true
		res.Forward = forward(src, payload, true)
		return res
	}
	res.Kind = kind

	p := payload
	switch kind {
	case KindBeacon:
		d.table.SetOnline(src, false)
		body := append(beaconAckPrefix[:], beaconKind(p), 0x00)
		res.Reply = reply(beaconAckControl, src, body)

	case KindAssociation:
		d.table.SetOnline(src, false)
		res.Reply = reply(associationControl, src, append([]byte(nil), associationResponse[:]...))

	case KindStart:
		d.table.SetOnline(src, true)
		d.table.SetSequence(src, p[1])
		res.Reply = reply(dataAckReqControl, src, []byte{replyStartAck, d.nextLocalSeq(), p[1], 0x00})

	case KindOnlineBeacon:
		d.table.SetOnline(src, true)
		code := continuation(p, replyMoreData, replyAck)
		res.Reply = reply(dataControl, src, []byte{code, d.nextLocalSeq(), dev.Sequence})

	case KindData:
		d.table.SetOnline(src, true)
		d.table.SetSequence(src, p[1])
		code := continuation(p, replyMoreData, replyDataAck)
		res.Reply = reply(dataControl, src, []byte{code, d.nextLocalSeq(), p[1], 0x00})
		res.Forward = forward(src, payload, false)

	case KindDataAck:
		d.table.SetOnline(src, true)
		code := continuation(p, replyMoreData, replyAck)
		res.Reply = reply(dataControl, src, []byte{code, d.nextLocalSeq(), dev.Sequence, 0x00})
		res.Forward = forward(src, payload, false)

	case KindResync:
		d.table.SetSequence(src, p[1])

	default:
		res.Forward = forward(src, payload, true)
	}
	return res
}

func (d *Decoder) nextLocalSeq() byte {
	v := d.localSeq
	d.localSeq++
	return v
}

func reply(fc mrf24j.FrameControl, dst mrf24j.ExtendedAddress, payload []byte) *mrf24j.Frame {
	return &mrf24j.Frame{Control: fc, Dst: dst, Payload: payload}
}

func forward(src mrf24j.ExtendedAddress, payload []byte, unknown bool) *Forward {
	return &Forward{
		Identity: src,
		Payload:  append([]byte(nil), payload...),
		Unknown:  unknown,
	}
}

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

// Package hub connects the radio's event pump to the device protocol and to
// the outside world. It implements mrf24j.EventHandler: every received frame
// is decoded, its reply (if any) is sent back through the radio, and its
// forward (if any) is published.
package hub

import (
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	mrf24j "github.com/pethublocal/go-mrf24j"
	"github.com/pethublocal/go-mrf24j/protocol"
)

// Sender transmits reply frames. *mrf24j.Radio satisfies it.
type Sender interface {
	Send(f mrf24j.Frame) error
}

// Stats are cumulative counters since the hub was created.
type Stats struct {
	Received      uint64
	Overwritten   uint64
	Malformed     uint64
	Unknown       uint64
	Forwarded     uint64
	PublishErrors uint64
	Replies       uint64
	SendErrors    uint64
	TxSuccess     uint64
	TxFailures    uint64
}

// Option configures a Hub.
type Option func(*Hub)

// WithTelemetry sets the telemetry recorder.
func WithTelemetry(t Telemetry) Option {
	return func(h *Hub) {
		if t != nil {
			h.telemetry = t
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithForwardAll publishes every decodable payload, including beacons and
// handshake frames the protocol would not forward on its own.
func WithForwardAll(enabled bool) Option {
	return func(h *Hub) {
		h.forwardAll = enabled
	}
}

// WithClock overrides the time source used for telemetry timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) {
		if now != nil {
			h.now = now
		}
	}
}

// Hub is the RX/TX handler pair run by the event pump.
type Hub struct {
	sender    Sender
	decoder   *protocol.Decoder
	sink      Sink
	telemetry Telemetry
	logger    *slog.Logger
	now       func() time.Time

	forwardAll bool

	received      atomic.Uint64
	overwritten   atomic.Uint64
	malformed     atomic.Uint64
	unknown       atomic.Uint64
	forwarded     atomic.Uint64
	publishErrors atomic.Uint64
	replies       atomic.Uint64
	sendErrors    atomic.Uint64
	txSuccess     atomic.Uint64
	txFailures    atomic.Uint64
}

// New returns a hub that decodes with decoder, publishes to sink and sends
// replies through sender. A nil sink drops forwards.
func New(sender Sender, decoder *protocol.Decoder, sink Sink, opts ...Option) *Hub {
	h := &Hub{
		sender:    sender,
		decoder:   decoder,
		sink:      sink,
		telemetry: NopTelemetry{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// OnReceive decodes the record, sends the reply, then publishes the forward.
// Devices wait only briefly for a reply, so a slow broker must not delay it.
func (h *Hub) OnReceive(rx mrf24j.RxRecord) {
	h.received.Add(1)
	h.overwritten.Add(uint64(rx.Overwritten))
	if rx.Overwritten > 0 {
		h.logger.Warn("frames overwritten before handling", "count", rx.Overwritten)
	}

	res := h.decoder.DecodeRecord(rx)
	src := rx.Frame.SrcAddress()
	ident := Identity(src)
	log := h.logger.With("src", ident, "kind", res.Kind.String())

	if res.Malformed {
		h.malformed.Add(1)
		log.Debug("malformed frame", "length", rx.Frame.FrameLength)
	}
	if !res.Known {
		h.unknown.Add(1)
	}

	fwd := res.Forward
	if fwd == nil && h.forwardAll && !rx.Malformed && len(rx.Frame.Payload) > 0 {
		fwd = &protocol.Forward{Identity: src, Payload: rx.Frame.Payload}
	}

	ev := ReceiveEvent{
		Time:        h.now(),
		Identity:    ident,
		Kind:        res.Kind,
		LQI:         rx.Frame.LQI,
		RSSI:        rx.Frame.RSSI,
		Overwritten: rx.Overwritten,
		Known:       res.Known,
		Malformed:   res.Malformed,
	}

	if res.Reply != nil {
		if err := h.sender.Send(*res.Reply); err != nil {
			h.sendErrors.Add(1)
			log.Error("reply send failed", "error", err)
		} else {
			h.replies.Add(1)
			ev.Replied = true
			log.Debug("reply queued", "payload", HexPayload(res.Reply.Payload))
		}
	}

	if fwd != nil && h.sink != nil {
		if err := h.sink.Publish(Identity(fwd.Identity), fwd.Payload); err != nil {
			h.publishErrors.Add(1)
			log.Error("publish failed", "error", err)
		} else {
			h.forwarded.Add(1)
			ev.Forwarded = true
			log.Debug("forwarded", "payload", HexPayload(fwd.Payload), "unknown", fwd.Unknown)
		}
	}

	h.telemetry.RecordReceive(ev)
}

// OnTransmitComplete logs failed transmissions. Failed frames are not
// retried; the device repeats its request.
func (h *Hub) OnTransmitComplete(tx mrf24j.TxCompletion) {
	if tx.Success {
		h.txSuccess.Add(1)
	} else {
		h.txFailures.Add(1)
		h.logger.Warn("transmit failed",
			"retries", tx.Retries,
			"channel_busy", tx.ChannelBusy,
		)
	}
	h.telemetry.RecordTransmit(tx)
}

// Stats returns a snapshot of the counters.
func (h *Hub) Stats() Stats {
	return Stats{
		Received:      h.received.Load(),
		Overwritten:   h.overwritten.Load(),
		Malformed:     h.malformed.Load(),
		Unknown:       h.unknown.Load(),
		Forwarded:     h.forwarded.Load(),
		PublishErrors: h.publishErrors.Load(),
		Replies:       h.replies.Load(),
		SendErrors:    h.sendErrors.Load(),
		TxSuccess:     h.txSuccess.Load(),
		TxFailures:    h.txFailures.Load(),
	}
}

var _ mrf24j.EventHandler = (*Hub)(nil)

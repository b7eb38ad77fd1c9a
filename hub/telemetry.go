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

package hub

import (
	"time"

	mrf24j "github.com/pethublocal/go-mrf24j"
	"github.com/pethublocal/go-mrf24j/protocol"
)

// ReceiveEvent describes one handled RX record.
type ReceiveEvent struct {
	Time        time.Time
	Identity    string
	Kind        protocol.MessageKind
	LQI         byte
	RSSI        byte
	Overwritten uint32
	Known       bool
	Malformed   bool
	Replied     bool
	Forwarded   bool
}

// Telemetry records link quality and transmit outcomes.
type Telemetry interface {
	RecordReceive(ev ReceiveEvent)
	RecordTransmit(tx mrf24j.TxCompletion)
}

// NopTelemetry discards everything.
type NopTelemetry struct{}

// RecordReceive implements Telemetry
func (NopTelemetry) RecordReceive(ReceiveEvent) {}

// RecordTransmit implements Telemetry
func (NopTelemetry) RecordTransmit(mrf24j.TxCompletion) {}

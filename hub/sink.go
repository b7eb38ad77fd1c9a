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
	"encoding/hex"
	"errors"
	"strings"

	mrf24j "github.com/pethublocal/go-mrf24j"
)

// Sink receives payloads forwarded from devices. Identity is the sender's
// extended address as contiguous uppercase hex; payload is the raw frame
// payload. Delivery is fire-and-forget from the hub's point of view.
type Sink interface {
	Publish(identity string, payload []byte) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(identity string, payload []byte) error

// Publish implements Sink
func (f SinkFunc) Publish(identity string, payload []byte) error {
	return f(identity, payload)
}

// MultiSink publishes to every sink in order. A failing sink does not stop
// the others; all failures are joined.
type MultiSink []Sink

// Publish implements Sink
func (m MultiSink) Publish(identity string, payload []byte) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Publish(identity, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// HexPayload renders a payload the way the device topics carry it:
// contiguous uppercase hex, two digits per byte.
func HexPayload(payload []byte) string {
	return strings.ToUpper(hex.EncodeToString(payload))
}

// Identity renders an extended address as a sink identity.
func Identity(addr mrf24j.ExtendedAddress) string {
	return addr.String()
}

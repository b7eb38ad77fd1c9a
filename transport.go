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

import "time"

// Transport is the physical bus to the MRF24J40.
// The only backend shipped is SPI (transport/spi); tests use a register simulator.
type Transport interface {
	// Tx performs exactly one chip-select framed transaction. r may be nil
	// for writes; otherwise it has the same length as w.
	Tx(w, r []byte) error

	// Close releases the bus
	Close() error

	// Type returns the transport type
	Type() TransportType
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportSPI represents SPI bus transport.
	TransportSPI TransportType = "spi"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)

// ResetController is implemented by transports that drive the RESET line.
type ResetController interface {
	// SetReset drives the reset line; false holds the radio in reset.
	SetReset(high bool) error
}

// InterruptSource is implemented by transports wired to the INT line.
type InterruptSource interface {
	// WaitForInterrupt blocks until the INT line fires or timeout elapses.
	// A negative timeout waits forever.
	WaitForInterrupt(timeout time.Duration) bool
}

// portNamer is implemented by transports that can name their port for errors.
type portNamer interface {
	PortName() string
}

func transportPort(t Transport) string {
	if n, ok := t.(portNamer); ok {
		return n.PortName()
	}
	return string(t.Type())
}

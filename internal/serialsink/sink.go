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

// Package serialsink mirrors forwarded device payloads to a serial console,
// one "<IDENTITY> <HEX>" line per payload.
package serialsink

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"

	"github.com/pethublocal/go-mrf24j/hub"
	"github.com/pethublocal/go-mrf24j/internal/config"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("serial sink closed")

// Sink writes payload lines to a port.
type Sink struct {
	port io.WriteCloser
	name string
	mu   sync.Mutex
	done bool
}

// Open opens the configured serial port at 8N1.
func Open(cfg config.SerialConfig) (*Sink, error) {
	port, err := serial.Open(cfg.Port, &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Port, err)
	}
	return New(port, cfg.Port), nil
}

// New wraps an already open writer.
func New(w io.WriteCloser, name string) *Sink {
	return &Sink{port: w, name: name}
}

// Publish implements hub.Sink
func (s *Sink) Publish(identity string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return ErrClosed
	}
	if _, err := fmt.Fprintf(s.port, "%s %s\r\n", identity, hub.HexPayload(payload)); err != nil {
		return fmt.Errorf("serial sink %s: %w", s.name, err)
	}
	return nil
}

// Close closes the port.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return nil
	}
	s.done = true
	return s.port.Close()
}

// ListPorts returns the serial ports present on the system.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("listing serial ports: %w", err)
	}
	return ports, nil
}

var _ hub.Sink = (*Sink)(nil)

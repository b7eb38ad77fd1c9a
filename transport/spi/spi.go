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

// Package spi provides the SPI transport for the MRF24J40, with optional
// RESET and INT lines on GPIO pins, using periph.io.
package spi

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	mrf24j "github.com/pethublocal/go-mrf24j"
)

const (
	// The MRF24J40 accepts up to 10 MHz; 1 MHz is comfortable on jumper wires.
	defaultFreq = 1 * physic.MegaHertz
	mode        = spi.Mode0
	bitsPerWord = 8
)

// ErrPinNotFound is returned when a configured GPIO name is not registered.
var ErrPinNotFound = errors.New("gpio pin not found")

// Config names the SPI port and GPIO pins. Empty pin names leave the line
// unwired: without RESET only the soft reset is used, and without INT the
// caller polls INTSTAT.
type Config struct {
	// Port is a spireg name such as "/dev/spidev0.0" or "SPI0.0". Empty
	// selects the first registered port.
	Port         string
	ResetPin     string
	InterruptPin string
	Frequency    physic.Frequency
}

// Transport implements mrf24j.Transport over SPI
type Transport struct {
	port     spi.PortCloser
	conn     spi.Conn
	reset    gpio.PinOut
	irq      gpio.PinIn
	portName string
	closed   atomic.Bool
}

// New initializes the periph host, opens the SPI port and claims the pins.
func New(cfg Config) (*Transport, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	return open(cfg, spireg.Open)
}

// open claims the pins, then the port. The pins are released again if the
// port cannot be opened or connected.
func open(cfg Config, openPort func(name string) (spi.PortCloser, error)) (*Transport, error) {
	reset, irq, err := openPins(cfg)
	if err != nil {
		return nil, err
	}

	port, err := openPort(cfg.Port)
	if err != nil {
		return nil, errors.Join(
			fmt.Errorf("failed to open SPI port %s: %w", cfg.Port, err),
			releasePins(irq))
	}

	freq := cfg.Frequency
	if freq <= 0 {
		freq = defaultFreq
	}
	conn, err := port.Connect(freq, mode, bitsPerWord)
	if err != nil {
		return nil, errors.Join(
			fmt.Errorf("failed to connect SPI: %w", err),
			port.Close(),
			releasePins(irq))
	}

	name := cfg.Port
	if name == "" {
		name = port.String()
	}
	return newTransport(port, conn, reset, irq, name), nil
}

func newTransport(port spi.PortCloser, conn spi.Conn, reset gpio.PinOut, irq gpio.PinIn, name string) *Transport {
	return &Transport{
		port:     port,
		conn:     conn,
		reset:    reset,
		irq:      irq,
		portName: name,
	}
}

// openPins looks up and configures the reset and interrupt pins. RESET is
// driven high (running); INT is an input armed for falling edges, the
// radio's default interrupt polarity.
func openPins(cfg Config) (gpio.PinOut, gpio.PinIn, error) {
	var reset gpio.PinOut
	if cfg.ResetPin != "" {
		p := gpioreg.ByName(cfg.ResetPin)
		if p == nil {
			return nil, nil, fmt.Errorf("%w: reset %s", ErrPinNotFound, cfg.ResetPin)
		}
		if err := p.Out(gpio.High); err != nil {
			return nil, nil, fmt.Errorf("failed to drive reset pin %s: %w", cfg.ResetPin, err)
		}
		reset = p
	}

	var irq gpio.PinIn
	if cfg.InterruptPin != "" {
		p := gpioreg.ByName(cfg.InterruptPin)
		if p == nil {
			return nil, nil, fmt.Errorf("%w: interrupt %s", ErrPinNotFound, cfg.InterruptPin)
		}
		if err := p.In(gpio.PullUp, gpio.FallingEdge); err != nil {
			return nil, nil, errors.Join(
				fmt.Errorf("failed to arm interrupt pin %s: %w", cfg.InterruptPin, err),
				releasePins(p))
		}
		irq = p
	}
	return reset, irq, nil
}

// releasePins disarms edge detection on INT and wakes any pending wait.
// RESET is left driven so the radio keeps running.
func releasePins(irq gpio.PinIn) error {
	if irq == nil {
		return nil
	}
	return errors.Join(irq.In(gpio.PullNoChange, gpio.NoEdge), irq.Halt())
}

// Tx performs one chip-select framed transaction. periph requires the read
// buffer to match the write length, so writes get a scratch buffer.
func (t *Transport) Tx(w, r []byte) error {
	if t.closed.Load() {
		return mrf24j.ErrTransportClosed
	}
	if r == nil {
		var scratch [3]byte
		if len(w) <= len(scratch) {
			r = scratch[:len(w)]
		} else {
			r = make([]byte, len(w))
		}
	}
	if err := t.conn.Tx(w, r); err != nil {
		return fmt.Errorf("SPI transaction failed: %w", err)
	}
	return nil
}

// SetReset drives the RESET line. It is a no-op when the line is unwired.
func (t *Transport) SetReset(high bool) error {
	if t.reset == nil {
		return nil
	}
	if err := t.reset.Out(gpio.Level(high)); err != nil {
		return fmt.Errorf("failed to drive reset pin: %w", err)
	}
	return nil
}

// WaitForInterrupt waits for a falling edge on INT. Without an INT line it
// sleeps for timeout (forever is not honoured) and reports false.
func (t *Transport) WaitForInterrupt(timeout time.Duration) bool {
	if t.irq == nil {
		if timeout > 0 {
			time.Sleep(timeout)
		}
		return false
	}
	return t.irq.WaitForEdge(timeout)
}

// HasInterruptLine reports whether an INT pin is configured.
func (t *Transport) HasInterruptLine() bool {
	return t.irq != nil
}

// Close releases the pins and the port
func (t *Transport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	var errs []error
	errs = append(errs, releasePins(t.irq))
	if t.port != nil {
		errs = append(errs, t.port.Close())
	}
	return errors.Join(errs...)
}

// Type implements mrf24j.Transport
func (*Transport) Type() mrf24j.TransportType {
	return mrf24j.TransportSPI
}

// PortName returns the SPI port name used in errors
func (t *Transport) PortName() string {
	return t.portName
}

var (
	_ mrf24j.Transport       = (*Transport)(nil)
	_ mrf24j.ResetController = (*Transport)(nil)
	_ mrf24j.InterruptSource = (*Transport)(nil)
)

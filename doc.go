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

// Package mrf24j drives a Microchip MRF24J40 IEEE 802.15.4 transceiver over
// SPI.
//
// The driver is split the way the chip's interrupt line suggests. The top
// half, HandleInterrupt, runs on an interrupt goroutine and copies the
// received frame or the transmit status into single-slot records. The bottom
// half, CheckFlags, runs wherever the caller polls it and dispatches to an
// EventHandler. A mutex stands in for masking interrupts, so multi-register
// sequences such as the RX FIFO read and Send are never interleaved.
//
// Basic usage:
//
//	t, err := spi.New(spi.Config{Port: "/dev/spidev0.0", ResetPin: "GPIO25", InterruptPin: "GPIO24"})
//	if err != nil {
//		return err
//	}
//	radio, err := mrf24j.Open(t, mrf24j.WithConfig(cfg))
//	if err != nil {
//		return err
//	}
//	if err := radio.Start(); err != nil {
//		return err
//	}
package mrf24j

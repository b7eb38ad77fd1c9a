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

// Short address space (6-bit register numbers, 8-bit on the wire)
const (
	RegRXMCR   byte = 0x00
	RegPANIDL  byte = 0x01
	RegPANIDH  byte = 0x02
	RegSADRL   byte = 0x03
	RegSADRH   byte = 0x04
	RegEADR0   byte = 0x05 // EADR0..EADR7 are consecutive
	RegRXFLUSH byte = 0x0D
	RegORDER   byte = 0x10
	RegTXMCR   byte = 0x11
	RegPACON2  byte = 0x18
	RegTXNCON  byte = 0x1B
	RegTXSTAT  byte = 0x24
	RegSOFTRST byte = 0x2A
	RegTXSTBL  byte = 0x2E
	RegINTSTAT byte = 0x31
	RegINTCON  byte = 0x32
	RegRFCTL   byte = 0x36
	RegBBREG1  byte = 0x39
	RegBBREG2  byte = 0x3A
	RegBBREG6  byte = 0x3E
	RegCCAEDTH byte = 0x3F
)

// Long address space (10-bit register numbers)
const (
	RegTXNFIFO  uint16 = 0x000
	RegRFCON0   uint16 = 0x200
	RegRFCON1   uint16 = 0x201
	RegRFCON2   uint16 = 0x202
	RegRFCON3   uint16 = 0x203
	RegRFCON6   uint16 = 0x206
	RegRFCON7   uint16 = 0x207
	RegRFCON8   uint16 = 0x208
	RegRFSTATE  uint16 = 0x20F
	RegSLPCON1  uint16 = 0x220
	RegTESTMODE uint16 = 0x22F
	RegRXFIFO   uint16 = 0x300
)

// Register bits
const (
	// TXNCON
	txnTrig   byte = 1 << 0
	txnAckReq byte = 1 << 2

	// TXSTAT
	txStatFailed  byte = 1 << 0
	txStatCCAFail byte = 1 << 5
	txStatRetries      = 6

	// INTSTAT
	intRX  byte = 1 << 3
	intTXN byte = 1 << 0

	// RXMCR
	rxmcrPromiscuous byte = 1 << 0
	rxmcrPANCoord    byte = 1 << 3

	// TXMCR
	txmcrSlotted byte = 1 << 5

	// SOFTRST: RSTPWR | RSTBB | RSTMAC
	softResetBits byte = 0x07

	// RFSTATE: receive state
	rfStateRXMask byte = 0xA0

	// RFCTL
	rfctlReset byte = 0x04

	// BBREG1 RXDECINV
	rxDecodeInvert byte = 0x04

	// RXFLUSH
	rxFlushBit byte = 0x01
)

// Vendor calibration values written by Initialize.
const (
	pllEnable        byte = 0x80 // RFCON2 PLLEN
	txPower0dBm      byte = 0x00 // RFCON3
	rfcon6Init       byte = 0x90 // TXFIL | 20MRECVR
	rfcon7SlowClock  byte = 0x80 // SLPCLKSEL 100 kHz internal oscillator
	rfcon8VCO        byte = 0x10 // RFVCO
	slpcon1Init      byte = 0x21 // CLKOUTEN | SLPCLKDIV
	ccaModeED        byte = 0x80 // BBREG2 energy detect
	rssiAppend       byte = 0x40 // BBREG6 RSSI appended to RXFIFO
	ccaEDThreshold   byte = 0x60
	pacon2FIFOEnable byte = 0x98 // FIFOEN | TXONTS
	txstblInit       byte = 0x95 // RFSTBL
	rfOptimize       byte = 0x03 // RFCON0 RFOPT
	vcoOptimize      byte = 0x02 // RFCON1 VCOOPT

	// INTCON: enable TX normal FIFO and RX FIFO interrupts, everything else masked
	intconTXNandRX byte = 0xF6

	paLNAEnable  byte = 0x07
	paLNADisable byte = 0x00

	// ORDER with beacon and superframe order both 0xF (non-beacon network)
	orderNonBeacon byte = 0xFF

	// TXMCR defaults: CSMABF=4, MACMINBE=3
	txmcrDefault byte = 0x1C

	capabilityCoordinator byte = 1 << 3
)

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
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pethublocal/go-mrf24j/internal/syncutil"
)

// Network defaults for the SurePet deployment.
const (
	// DefaultPAN is the PAN id used by SurePet hubs.
	DefaultPAN uint16 = 0x3421
	// DefaultChannel is the channel selected at the end of Initialize.
	DefaultChannel = 15
	// DisabledShortAddress leaves the short address and PAN inert.
	DisabledShortAddress uint16 = 0xFFFF

	// MinChannel and MaxChannel bound the 2.4 GHz channel page.
	MinChannel = 11
	MaxChannel = 26
)

// Config is fixed after Start. The zero ExtendedAddress means "read it from
// the radio".
type Config struct {
	ExtendedAddress ExtendedAddress
	PAN             uint16
	ShortAddress    uint16
	Channel         int
	ResetDelay      time.Duration
	SoftResetPoll   PollConfig
	RFReadyPoll     PollConfig
	PANCoordinator  bool
	Coordinator     bool
	Promiscuous     bool
	PALNA           bool
}

// DefaultConfig returns the hub configuration of the reference deployment.
func DefaultConfig() *Config {
	return &Config{
		PAN:            DefaultPAN,
		ShortAddress:   DisabledShortAddress,
		Channel:        DefaultChannel,
		ResetDelay:     DefaultResetDelay,
		SoftResetPoll:  DefaultPollConfig(),
		RFReadyPoll:    PollConfig{MaxAttempts: DefaultRFReadyAttempts, Interval: DefaultPollInterval},
		PANCoordinator: true,
	}
}

// Option configures a Radio
type Option func(*Radio) error

// WithConfig replaces the radio configuration
func WithConfig(cfg *Config) Option {
	return func(r *Radio) error {
		if cfg == nil {
			return fmt.Errorf("%w: nil config", ErrInvalidParameter)
		}
		if err := validateChannel(cfg.Channel); err != nil {
			return err
		}
		r.config = *cfg
		return nil
	}
}

// WithExtendedAddress sets the local extended address
func WithExtendedAddress(addr ExtendedAddress) Option {
	return func(r *Radio) error {
		r.config.ExtendedAddress = addr
		return nil
	}
}

// WithPollConfig sets the bound used for both bring-up polls
func WithPollConfig(cfg PollConfig) Option {
	return func(r *Radio) error {
		if cfg.MaxAttempts < 1 {
			return fmt.Errorf("%w: poll attempts must be positive", ErrInvalidParameter)
		}
		r.config.SoftResetPoll = cfg
		r.config.RFReadyPoll = cfg
		return nil
	}
}

// WithResetDelay sets the settle delay held on each side of the reset pulse
func WithResetDelay(d time.Duration) Option {
	return func(r *Radio) error {
		r.config.ResetDelay = d
		return nil
	}
}

// Radio drives one MRF24J40.
//
// Thread Safety: every public method is safe for concurrent use. The radio's
// interrupt mask is a mutex; HandleInterrupt runs its register sequence under
// it, and so does every main-path operation, so a multi-transaction sequence
// is never torn by the other context. Event handlers are called by CheckFlags
// with the mask released.
type Radio struct {
	transport Transport
	bus       *RegisterBus
	rx        RxRecord
	config    Config
	tx        TxCompletion
	extAddr   ExtendedAddress
	rxEvents  atomic.Uint32
	txEvents  atomic.Uint32
	mask      syncutil.Mutex
	channel   int
	txSeq     byte
	rxmcr     byte
	txmcr     byte
	capInfo   byte
	ready     bool
}

// Open wraps a transport. It does not touch the hardware; call Start, or Reset
// and Initialize, before use.
func Open(transport Transport, opts ...Option) (*Radio, error) {
	if transport == nil {
		return nil, fmt.Errorf("%w: nil transport", ErrInvalidParameter)
	}
	r := &Radio{
		transport: transport,
		bus:       NewRegisterBus(transport),
		config:    *DefaultConfig(),
		txmcr:     txmcrDefault,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.extAddr = r.config.ExtendedAddress
	return r, nil
}

// Transport returns the underlying transport
func (r *Radio) Transport() Transport {
	return r.transport
}

// Config returns a copy of the radio configuration
func (r *Radio) Config() Config {
	return r.config
}

// Close releases the transport
func (r *Radio) Close() error {
	r.mask.Lock()
	defer r.mask.Unlock()
	r.ready = false
	if err := r.transport.Close(); err != nil {
		return fmt.Errorf("failed to close transport: %w", err)
	}
	return nil
}

// Start resets and initializes the radio, then applies the configured
// PAN, addressing and mode flags, leaving the receiver enabled with an empty FIFO.
func (r *Radio) Start() error {
	if err := r.Reset(); err != nil {
		return err
	}
	if err := r.Initialize(); err != nil {
		return err
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"pan controller", func() error { return r.SetPANController(r.config.PANCoordinator) }},
		{"coordinator", func() error { r.SetCoordinator(r.config.Coordinator); return nil }},
		{"pan", func() error { return r.SetPAN(r.config.PAN) }},
		{"short address", func() error { return r.SetShortAddress(r.config.ShortAddress) }},
		{"promiscuous", func() error { return r.SetPromiscuous(r.config.Promiscuous) }},
		{"pa/lna", func() error { return r.SetPALNA(r.config.PALNA) }},
		{"rx flush", r.RxFlush},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return fmt.Errorf("start: %s: %w", step.name, err)
		}
	}
	Debugf("radio started: ext=%s pan=0x%04X channel=%d", r.extAddr, r.config.PAN, r.channel)
	return nil
}

// Reset pulses the reset line low then high, waiting ResetDelay after each
// edge. Transports without a reset line skip the pulse.
func (r *Radio) Reset() error {
	rc, ok := r.transport.(ResetController)
	if !ok {
		Debugln("transport has no reset line, skipping hardware reset")
		return nil
	}

	r.mask.Lock()
	defer r.mask.Unlock()
	r.ready = false

	if err := rc.SetReset(false); err != nil {
		return NewTransportError("reset", transportPort(r.transport), err, ErrorTypePermanent)
	}
	sleeper(r.config.ResetDelay)
	if err := rc.SetReset(true); err != nil {
		return NewTransportError("reset", transportPort(r.transport), err, ErrorTypePermanent)
	}
	sleeper(r.config.ResetDelay)
	return nil
}

// Initialize runs the soft reset, addressing defaults and vendor calibration
// sequence. Both busy-waits are bounded by the configured PollConfig; running
// out of attempts returns an error wrapping ErrHardwareFault with a wire trace.
func (r *Radio) Initialize() error {
	r.mask.Lock()
	defer r.mask.Unlock()

	r.bus.Trace().Clear()
	r.bus.SetTracing(true)
	defer r.bus.SetTracing(false)
	if err := r.initializeLocked(); err != nil {
		r.ready = false
		return r.bus.Trace().WrapError(fmt.Errorf("initialize: %w", err))
	}
	r.ready = true
	return nil
}

func (r *Radio) initializeLocked() error {
	b := r.bus

	// An unset address is taken from whatever EADR holds before the MAC reset.
	if r.extAddr.IsZero() {
		addr, err := r.readExtendedAddressLocked()
		if err != nil {
			return err
		}
		r.extAddr = addr
	}

	if err := b.WriteShort(RegSOFTRST, softResetBits); err != nil {
		return err
	}
	err := pollUntil("soft reset", r.config.SoftResetPoll,
		func() (byte, error) { return b.ReadShort(RegSOFTRST) },
		func(v byte) bool { return v&softResetBits == 0 })
	if err != nil {
		return err
	}

	shortWrites := []struct {
		addr, value byte
	}{
		{RegRXFLUSH, rxFlushBit},
		{RegSADRL, 0xFF},
		{RegSADRH, 0xFF},
		{RegPANIDL, 0xFF},
		{RegPANIDH, 0xFF},
	}
	for _, w := range shortWrites {
		if err := b.WriteShort(w.addr, w.value); err != nil {
			return err
		}
	}
	if err := r.writeExtendedAddressLocked(r.extAddr); err != nil {
		return err
	}

	calibration := []struct {
		long  bool
		addr  uint16
		value byte
	}{
		{true, RegRFCON2, pllEnable},
		{true, RegRFCON3, txPower0dBm},
		{true, RegRFCON6, rfcon6Init},
		{true, RegRFCON7, rfcon7SlowClock},
		{true, RegRFCON8, rfcon8VCO},
		{true, RegSLPCON1, slpcon1Init},
		{false, uint16(RegBBREG2), ccaModeED},
		{false, uint16(RegBBREG6), rssiAppend},
		{false, uint16(RegCCAEDTH), ccaEDThreshold},
		{false, uint16(RegPACON2), pacon2FIFOEnable},
		{false, uint16(RegTXSTBL), txstblInit},
	}
	for _, c := range calibration {
		var err error
		if c.long {
			err = b.WriteLong(c.addr, c.value)
		} else {
			err = b.WriteShort(byte(c.addr), c.value)
		}
		if err != nil {
			return err
		}
	}

	err = pollUntil("rf ready", r.config.RFReadyPoll,
		func() (byte, error) { return b.ReadLong(RegRFSTATE) },
		func(v byte) bool { return v&rfStateRXMask == rfStateRXMask })
	if err != nil {
		return err
	}

	if err := b.WriteShort(RegINTCON, intconTXNandRX); err != nil {
		return err
	}
	if err := b.WriteLong(RegRFCON0, rfOptimize); err != nil {
		return err
	}
	if err := b.WriteLong(RegRFCON1, vcoOptimize); err != nil {
		return err
	}

	channel := r.config.Channel
	if channel == 0 {
		channel = DefaultChannel
	}
	return r.setChannelLocked(channel)
}

func (r *Radio) readExtendedAddressLocked() (ExtendedAddress, error) {
	var addr ExtendedAddress
	for i := range addr {
		v, err := r.bus.ReadShort(RegEADR0 + byte(i))
		if err != nil {
			return addr, err
		}
		addr[i] = v
	}
	return addr, nil
}

func (r *Radio) writeExtendedAddressLocked(addr ExtendedAddress) error {
	for i, v := range addr {
		if err := r.bus.WriteShort(RegEADR0+byte(i), v); err != nil {
			return err
		}
	}
	return nil
}

func validateChannel(ch int) error {
	if ch == 0 {
		return nil
	}
	if ch < MinChannel || ch > MaxChannel {
		return fmt.Errorf("%w: %d not in %d..%d", ErrInvalidChannel, ch, MinChannel, MaxChannel)
	}
	return nil
}

// SetChannel selects an 802.15.4 channel in 11..26 and restarts the RF state
// machine. Channels outside that range are rejected.
func (r *Radio) SetChannel(ch int) error {
	if ch < MinChannel || ch > MaxChannel {
		return fmt.Errorf("%w: %d not in %d..%d", ErrInvalidChannel, ch, MinChannel, MaxChannel)
	}
	r.mask.Lock()
	defer r.mask.Unlock()
	return r.setChannelLocked(ch)
}

func (r *Radio) setChannelLocked(ch int) error {
	if err := r.bus.WriteLong(RegRFCON0, byte(ch-MinChannel)<<4|rfOptimize); err != nil {
		return err
	}
	if err := r.bus.WriteShort(RegRFCTL, rfctlReset); err != nil {
		return err
	}
	if err := r.bus.WriteShort(RegRFCTL, 0x00); err != nil {
		return err
	}
	sleeper(rfResetSettle)
	r.channel = ch
	return nil
}

// Channel returns the channel last selected
func (r *Radio) Channel() int {
	r.mask.Lock()
	defer r.mask.Unlock()
	return r.channel
}

// SetPAN programs the PAN id
func (r *Radio) SetPAN(pan uint16) error {
	r.mask.Lock()
	defer r.mask.Unlock()
	return r.writePairLocked(RegPANIDL, RegPANIDH, pan)
}

// PAN reads the PAN id from the radio
func (r *Radio) PAN() (uint16, error) {
	r.mask.Lock()
	defer r.mask.Unlock()
	return r.readPairLocked(RegPANIDL, RegPANIDH)
}

// SetShortAddress programs the 16-bit short address
func (r *Radio) SetShortAddress(addr uint16) error {
	r.mask.Lock()
	defer r.mask.Unlock()
	return r.writePairLocked(RegSADRL, RegSADRH, addr)
}

// ShortAddress reads the 16-bit short address from the radio
func (r *Radio) ShortAddress() (uint16, error) {
	r.mask.Lock()
	defer r.mask.Unlock()
	return r.readPairLocked(RegSADRL, RegSADRH)
}

func (r *Radio) writePairLocked(lo, hi byte, v uint16) error {
	if err := r.bus.WriteShort(lo, byte(v)); err != nil {
		return err
	}
	return r.bus.WriteShort(hi, byte(v>>8))
}

func (r *Radio) readPairLocked(lo, hi byte) (uint16, error) {
	l, err := r.bus.ReadShort(lo)
	if err != nil {
		return 0, err
	}
	h, err := r.bus.ReadShort(hi)
	if err != nil {
		return 0, err
	}
	return uint16(h)<<8 | uint16(l), nil
}

// SetPromiscuous toggles reception of frames regardless of address or CRC.
func (r *Radio) SetPromiscuous(enabled bool) error {
	r.mask.Lock()
	defer r.mask.Unlock()
	r.rxmcr = setBits(r.rxmcr, rxmcrPromiscuous, enabled)
	return r.bus.WriteShort(RegRXMCR, r.rxmcr)
}

// SetPANController configures a non-beacon PAN coordinator. Enabling it also
// selects unslotted CSMA-CA and beacon/superframe order 0xF/0xF; the three
// settings are always written together.
func (r *Radio) SetPANController(enabled bool) error {
	r.mask.Lock()
	defer r.mask.Unlock()

	r.rxmcr = setBits(r.rxmcr, rxmcrPANCoord, enabled)
	if err := r.bus.WriteShort(RegRXMCR, r.rxmcr); err != nil {
		return err
	}
	r.txmcr = setBits(r.txmcr, txmcrSlotted, !enabled)
	if err := r.bus.WriteShort(RegTXMCR, r.txmcr); err != nil {
		return err
	}
	return r.bus.WriteShort(RegORDER, orderNonBeacon)
}

// SetCoordinator sets the coordinator bit of the capability information
// advertised by this node.
func (r *Radio) SetCoordinator(enabled bool) {
	r.mask.Lock()
	defer r.mask.Unlock()
	r.capInfo = setBits(r.capInfo, capabilityCoordinator, enabled)
}

// Capability returns the capability information byte
func (r *Radio) Capability() byte {
	r.mask.Lock()
	defer r.mask.Unlock()
	return r.capInfo
}

// SetPALNA enables the external PA/LNA of MRF24J40MB/MC modules.
func (r *Radio) SetPALNA(enabled bool) error {
	v := paLNADisable
	if enabled {
		v = paLNAEnable
	}
	r.mask.Lock()
	defer r.mask.Unlock()
	return r.bus.WriteLong(RegTESTMODE, v)
}

// RxEnable re-enables the receiver
func (r *Radio) RxEnable() error {
	r.mask.Lock()
	defer r.mask.Unlock()
	return r.bus.WriteShort(RegBBREG1, 0x00)
}

// RxDisable stops the receiver from decoding new frames
func (r *Radio) RxDisable() error {
	r.mask.Lock()
	defer r.mask.Unlock()
	return r.bus.WriteShort(RegBBREG1, rxDecodeInvert)
}

// RxFlush discards the contents of the RX FIFO
func (r *Radio) RxFlush() error {
	r.mask.Lock()
	defer r.mask.Unlock()
	return r.bus.WriteShort(RegRXFLUSH, rxFlushBit)
}

// ExtendedAddress returns the local extended address, reading it from the
// radio if none was configured and Initialize has not run.
func (r *Radio) ExtendedAddress() (ExtendedAddress, error) {
	r.mask.Lock()
	defer r.mask.Unlock()
	if r.extAddr.IsZero() {
		addr, err := r.readExtendedAddressLocked()
		if err != nil {
			return addr, err
		}
		r.extAddr = addr
	}
	return r.extAddr, nil
}

// Status is a register snapshot for diagnostics
type Status struct {
	ExtendedAddress ExtendedAddress
	PAN             uint16
	ShortAddress    uint16
	Channel         int
	RFState         byte
	Ready           bool
}

// Status reads the addressing registers and RF state
func (r *Radio) Status() (Status, error) {
	r.mask.Lock()
	defer r.mask.Unlock()

	st := Status{ExtendedAddress: r.extAddr, Channel: r.channel, Ready: r.ready}
	var err error
	if st.PAN, err = r.readPairLocked(RegPANIDL, RegPANIDH); err != nil {
		return st, err
	}
	if st.ShortAddress, err = r.readPairLocked(RegSADRL, RegSADRH); err != nil {
		return st, err
	}
	if st.RFState, err = r.bus.ReadLong(RegRFSTATE); err != nil {
		return st, err
	}
	return st, nil
}

func setBits(reg, bits byte, on bool) byte {
	if on {
		return reg | bits
	}
	return reg &^ bits
}

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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	simtest "github.com/pethublocal/go-mrf24j/internal/testing"
)

func countReads(accesses []simtest.Access, long bool, addr uint16) int {
	n := 0
	for _, a := range accesses {
		if !a.Write && a.Long == long && a.Addr == addr {
			n++
		}
	}
	return n
}

func shortWrites(accesses []simtest.Access, addr byte) []byte {
	var out []byte
	for _, a := range accesses {
		if a.Write && !a.Long && a.Addr == uint16(addr) {
			out = append(out, a.Value)
		}
	}
	return out
}

func TestRadio_StartProgramsRadio(t *testing.T) {
	t.Parallel()

	r, sim := newTestRadio(t)
	require.NoError(t, r.Start())

	assert.Equal(t, []bool{false, true}, sim.ResetEdges())
	assert.Equal(t, 1, sim.SoftResets())
	assert.GreaterOrEqual(t, sim.Flushes(), 2)

	for i, b := range testLocalAddr {
		assert.Equal(t, b, sim.Short(RegEADR0+byte(i)), "EADR%d", i)
	}
	assert.Equal(t, byte(0xF6), sim.Short(RegINTCON))
	assert.Equal(t, byte(0x43), sim.Long(RegRFCON0), "channel 15")
	assert.Equal(t, byte(0x02), sim.Long(RegRFCON1))
	assert.Equal(t, byte(0x80), sim.Long(RegRFCON2))
	assert.Equal(t, byte(0x98), sim.Short(RegPACON2))
	assert.Equal(t, byte(0x21), sim.Short(RegPANIDL))
	assert.Equal(t, byte(0x34), sim.Short(RegPANIDH))
	assert.Equal(t, byte(0xFF), sim.Short(RegSADRL))
	assert.Equal(t, rxmcrPANCoord, sim.Short(RegRXMCR))
	assert.Equal(t, txmcrDefault, sim.Short(RegTXMCR))
	assert.Equal(t, orderNonBeacon, sim.Short(RegORDER))
	assert.Equal(t, paLNADisable, sim.Long(RegTESTMODE))

	st, err := r.Status()
	require.NoError(t, err)
	assert.True(t, st.Ready)
	assert.Equal(t, DefaultPAN, st.PAN)
	assert.Equal(t, 15, st.Channel)
	assert.Equal(t, testLocalAddr, st.ExtendedAddress)
}

func TestRadio_InitializeBoundedPolls(t *testing.T) {
	t.Parallel()

	tests := []struct {
		setup    func(sim *simtest.VirtualMRF24J40)
		name     string
		pollAddr uint16
		long     bool
	}{
		{
			name:     "soft reset never clears",
			setup:    func(sim *simtest.VirtualMRF24J40) { sim.SetSoftResetReads(-1) },
			pollAddr: uint16(RegSOFTRST),
		},
		{
			name:     "rf never ready",
			setup:    func(sim *simtest.VirtualMRF24J40) { sim.SetNeverReady(true) },
			pollAddr: RegRFSTATE,
			long:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, sim := newTestRadio(t, fastPolls(7))
			tt.setup(sim)

			err := r.Initialize()
			require.ErrorIs(t, err, ErrHardwareFault)
			assert.True(t, IsFatal(err))
			assert.True(t, HasTrace(err))
			assert.Contains(t, err.Error(), "7 polls")
			assert.Equal(t, 7, countReads(sim.Accesses(), tt.long, tt.pollAddr))

			require.ErrorIs(t, r.Send(Frame{}), ErrNotInitialized)
		})
	}
}

func TestRadio_InitializeWaitsForSoftReset(t *testing.T) {
	t.Parallel()

	r, sim := newTestRadio(t)
	sim.SetSoftResetReads(3)

	require.NoError(t, r.Initialize())
	assert.Equal(t, 3, countReads(sim.Accesses(), false, uint16(RegSOFTRST)))
}

func TestRadio_ReadsExtendedAddressWhenUnset(t *testing.T) {
	t.Parallel()

	r, sim := newTestRadio(t, WithExtendedAddress(ExtendedAddress{}))
	for i, b := range testDeviceAddr {
		sim.SetShort(RegEADR0+byte(i), b)
	}

	require.NoError(t, r.Start())
	addr, err := r.ExtendedAddress()
	require.NoError(t, err)
	assert.Equal(t, testDeviceAddr, addr)
	assert.Equal(t, testDeviceAddr[7], sim.Short(RegEADR0+7))
}

func TestRadio_SetChannel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		channel int
		rfcon0  byte
		wantErr bool
	}{
		{name: "lowest", channel: 11, rfcon0: 0x03},
		{name: "middle", channel: 20, rfcon0: 0x93},
		{name: "highest", channel: 26, rfcon0: 0xF3},
		{name: "below range", channel: 10, wantErr: true},
		{name: "above range", channel: 27, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, sim := startTestRadio(t)

			err := r.SetChannel(tt.channel)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidChannel)
				assert.Empty(t, sim.Accesses(), "rejected channel must not touch the bus")
				assert.Equal(t, DefaultChannel, r.Channel())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.rfcon0, sim.Long(RegRFCON0))
			assert.Equal(t, []byte{rfctlReset, 0x00}, shortWrites(sim.Accesses(), RegRFCTL))
			assert.Equal(t, tt.channel, r.Channel())
		})
	}
}

func TestRadio_AddressAccessors(t *testing.T) {
	t.Parallel()

	r, _ := startTestRadio(t)

	require.NoError(t, r.SetPAN(0xBEEF))
	pan, err := r.PAN()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBEEF), pan)

	require.NoError(t, r.SetShortAddress(0x1234))
	short, err := r.ShortAddress()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), short)
}

func TestRadio_ModeFlags(t *testing.T) {
	t.Parallel()

	r, sim := startTestRadio(t)

	require.NoError(t, r.SetPromiscuous(true))
	assert.Equal(t, rxmcrPANCoord|rxmcrPromiscuous, sim.Short(RegRXMCR))

	require.NoError(t, r.SetPANController(false))
	assert.Equal(t, rxmcrPromiscuous, sim.Short(RegRXMCR))
	assert.Equal(t, txmcrDefault|txmcrSlotted, sim.Short(RegTXMCR))
	assert.Equal(t, orderNonBeacon, sim.Short(RegORDER))

	require.NoError(t, r.SetPANController(true))
	assert.Equal(t, txmcrDefault, sim.Short(RegTXMCR))

	require.NoError(t, r.SetPALNA(true))
	assert.Equal(t, paLNAEnable, sim.Long(RegTESTMODE))

	r.SetCoordinator(true)
	assert.Equal(t, capabilityCoordinator, r.Capability())
	r.SetCoordinator(false)
	assert.Zero(t, r.Capability())

	require.NoError(t, r.RxDisable())
	assert.Equal(t, rxDecodeInvert, sim.Short(RegBBREG1))
	require.NoError(t, r.RxEnable())
	assert.Zero(t, sim.Short(RegBBREG1))

	flushes := sim.Flushes()
	require.NoError(t, r.RxFlush())
	assert.Equal(t, flushes+1, sim.Flushes())
}

func TestRadio_ResetWithoutResetLine(t *testing.T) {
	t.Parallel()

	rec := &wireRecorder{}
	r, err := Open(rec)
	require.NoError(t, err)

	require.NoError(t, r.Reset())
	assert.Empty(t, rec.writes)
}

func TestOpen_Validation(t *testing.T) {
	t.Parallel()

	_, err := Open(nil)
	require.ErrorIs(t, err, ErrInvalidParameter)

	cfg := DefaultConfig()
	cfg.Channel = 30
	_, err = Open(&wireRecorder{}, WithConfig(cfg))
	require.ErrorIs(t, err, ErrInvalidChannel)

	_, err = Open(&wireRecorder{}, WithPollConfig(PollConfig{}))
	require.ErrorIs(t, err, ErrInvalidParameter)

	_, err = Open(&wireRecorder{}, WithConfig(nil))
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestRadio_CloseFailsLaterOps(t *testing.T) {
	t.Parallel()

	r, _ := startTestRadio(t)
	require.NoError(t, r.Close())

	_, err := r.PAN()
	require.ErrorIs(t, err, ErrBusFault)
	require.ErrorIs(t, err, simtest.ErrBusDisconnected)
	require.ErrorIs(t, r.Send(Frame{}), ErrNotInitialized)
}

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

package protocol

import (
	"errors"
	"fmt"

	mrf24j "github.com/pethublocal/go-mrf24j"
	"github.com/pethublocal/go-mrf24j/internal/syncutil"
)

// ErrDuplicateDevice is returned when the whitelist names an identity twice.
var ErrDuplicateDevice = errors.New("duplicate device identity")

// DeviceSpec is one whitelist entry
type DeviceSpec struct {
	Name     string
	Identity mrf24j.ExtendedAddress
}

// Device is the protocol state of one whitelisted device
type Device struct {
	Name     string
	Identity mrf24j.ExtendedAddress
	Sequence byte
	Online   bool
}

// DeviceTable is the fixed device directory. Records are created once from the
// whitelist and never added or removed; only Online and Sequence change.
// Identities outside the whitelist have no record and every mutation of
// them is a no-op.
type DeviceTable struct {
	index   map[mrf24j.ExtendedAddress]int
	devices []Device
	mu      syncutil.RWMutex
}

// NewDeviceTable builds the table from the whitelist. Every device starts
// offline with sequence 0.
func NewDeviceTable(specs []DeviceSpec) (*DeviceTable, error) {
	t := &DeviceTable{
		index:   make(map[mrf24j.ExtendedAddress]int, len(specs)),
		devices: make([]Device, 0, len(specs)),
	}
	for _, s := range specs {
		if _, dup := t.index[s.Identity]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDevice, s.Identity)
		}
		t.index[s.Identity] = len(t.devices)
		t.devices = append(t.devices, Device{Name: s.Name, Identity: s.Identity})
	}
	return t, nil
}

// Len returns the number of records
func (t *DeviceTable) Len() int {
	return len(t.devices)
}

// Lookup returns a copy of the record for id.
func (t *DeviceTable) Lookup(id mrf24j.ExtendedAddress) (Device, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i, ok := t.index[id]
	if !ok {
		return Device{}, false
	}
	return t.devices[i], true
}

// Online reports the stored online flag. Unknown identities are offline.
func (t *DeviceTable) Online(id mrf24j.ExtendedAddress) bool {
	d, _ := t.Lookup(id)
	return d.Online
}

// Sequence returns the stored sequence. Unknown identities report 0.
func (t *DeviceTable) Sequence(id mrf24j.ExtendedAddress) byte {
	d, _ := t.Lookup(id)
	return d.Sequence
}

// SetOnline stores the online flag and reports whether id has a record.
func (t *DeviceTable) SetOnline(id mrf24j.ExtendedAddress, online bool) bool {
	return t.update(id, func(d *Device) { d.Online = online })
}

// SetSequence stores the sequence and reports whether id has a record.
func (t *DeviceTable) SetSequence(id mrf24j.ExtendedAddress, seq byte) bool {
	return t.update(id, func(d *Device) { d.Sequence = seq })
}

func (t *DeviceTable) update(id mrf24j.ExtendedAddress, fn func(*Device)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, ok := t.index[id]
	if !ok {
		return false
	}
	fn(&t.devices[i])
	return true
}

// Snapshot returns a copy of every record in whitelist order
func (t *DeviceTable) Snapshot() []Device {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Device(nil), t.devices...)
}

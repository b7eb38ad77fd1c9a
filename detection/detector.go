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

// Package detection finds MRF24J40 radios on the host's SPI ports.
package detection

import (
	"context"
	"errors"
	"fmt"
	"time"

	mrf24j "github.com/pethublocal/go-mrf24j"
)

// Mode represents the level of invasiveness for device detection
type Mode int

const (
	// Passive mode only lists SPI ports without any communication
	Passive Mode = iota
	// Safe mode writes and reads back a scratch register, then restores it
	Safe
)

// Confidence represents the confidence level of device detection
type Confidence int

const (
	// Low confidence - the port exists but was not probed
	Low Confidence = iota
	// High confidence - a register round-trip succeeded
	High
)

// DeviceInfo represents a detected radio
type DeviceInfo struct {
	// SPI port name (e.g., "/dev/spidev0.0", "SPI0.0")
	Path       string
	Confidence Confidence
}

// String returns a human-readable representation of the device
func (d DeviceInfo) String() string {
	confidence := "unknown"
	switch d.Confidence {
	case Low:
		confidence = "low"
	case High:
		confidence = "high"
	}
	return fmt.Sprintf("spi device at %s (confidence: %s)", d.Path, confidence)
}

// Options configures the detection behavior
type Options struct {
	// Ports to probe; empty probes every candidate from Candidates
	Paths []string
	// Device paths to explicitly ignore (e.g., ["/dev/spidev0.1"])
	IgnorePaths []string
	// Maximum time to wait for detection
	Timeout  time.Duration
	CacheTTL time.Duration
	Mode     Mode
	// Enable result caching
	EnableCache bool
}

// DefaultOptions returns sensible default detection options
func DefaultOptions() Options {
	return Options{
		Mode:        Safe,
		Timeout:     5 * time.Second,
		EnableCache: true,
		CacheTTL:    30 * time.Second,
	}
}

// Opener opens a transport on a port for probing.
type Opener func(path string) (mrf24j.Transport, error)

// Errors
var (
	// ErrNoDevicesFound indicates no radios were detected
	ErrNoDevicesFound = errors.New("no MRF24J40 devices found")
	// ErrDetectionTimeout indicates detection timed out
	ErrDetectionTimeout = errors.New("detection timeout")
	// ErrNoResponse is returned by Probe when the scratch register does not
	// read back what was written.
	ErrNoResponse = errors.New("register readback mismatch")
)

// probePatterns are written to PANIDL in turn. A floating or shorted MISO
// line reads back all zeros or all ones and fails one of them.
var probePatterns = [...]byte{0x5A, 0xA5}

// Probe checks for an MRF24J40 on t by round-tripping PANIDL. The original
// value is restored whether or not the probe succeeds.
func Probe(t mrf24j.Transport) (err error) {
	bus := mrf24j.NewRegisterBus(t)
	orig, err := bus.ReadShort(mrf24j.RegPANIDL)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := bus.WriteShort(mrf24j.RegPANIDL, orig); rerr != nil && err == nil {
			err = rerr
		}
	}()

	for _, want := range probePatterns {
		if err := bus.WriteShort(mrf24j.RegPANIDL, want); err != nil {
			return err
		}
		got, err := bus.ReadShort(mrf24j.RegPANIDL)
		if err != nil {
			return err
		}
		if got != want {
			return fmt.Errorf("%w: wrote 0x%02X, read 0x%02X", ErrNoResponse, want, got)
		}
	}
	return nil
}

// Detect probes each candidate port in turn. Ports that fail to open or do
// not answer the probe are skipped; an error is returned only when nothing
// was found.
func Detect(ctx context.Context, opts *Options, open Opener) ([]DeviceInfo, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	paths := opts.Paths
	if len(paths) == 0 {
		paths = Candidates()
	}

	var (
		devices []DeviceInfo
		errs    []error
	)
	for _, path := range paths {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return devices, ErrDetectionTimeout
		default:
		}

		if IsPathIgnored(path, opts.IgnorePaths) {
			continue
		}
		device, err := detectOne(path, opts, open)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		devices = append(devices, device)
	}

	if len(devices) > 0 {
		return devices, nil
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrNoDevicesFound, errors.Join(errs...))
	}
	return nil, ErrNoDevicesFound
}

func detectOne(path string, opts *Options, open Opener) (DeviceInfo, error) {
	device := DeviceInfo{Path: path, Confidence: Low}
	if opts.Mode == Passive {
		return device, nil
	}

	if opts.EnableCache {
		if cached, found := getCached(path, opts.CacheTTL); found {
			return cached, nil
		}
	}

	t, err := open(path)
	if err != nil {
		return DeviceInfo{}, fmt.Errorf("%s: %w", path, err)
	}
	err = Probe(t)
	if cerr := t.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		clearCacheFor(path)
		return DeviceInfo{}, fmt.Errorf("%s: %w", path, err)
	}

	device.Confidence = High
	if opts.EnableCache {
		setCached(device)
	}
	return device, nil
}

// ClearDetectionCache removes all cached detection results
func ClearDetectionCache() {
	clearCache()
}

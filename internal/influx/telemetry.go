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

// Package influx records radio link quality and transmit outcomes to
// InfluxDB v2. Writes are non-blocking and batched by the client library.
package influx

import (
	"context"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	mrf24j "github.com/pethublocal/go-mrf24j"
	"github.com/pethublocal/go-mrf24j/hub"
	"github.com/pethublocal/go-mrf24j/internal/config"
)

const (
	defaultConnectTimeout = 10 * time.Second

	millisecondsPerSecond = 1000

	measurementReceive  = "radio_rx"
	measurementTransmit = "radio_tx"
)

// Telemetry implements hub.Telemetry on top of a non-blocking write API.
type Telemetry struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	now      func() time.Time

	mu      sync.RWMutex
	onError func(err error)
	closed  bool
}

// Connect creates the client, pings the server and starts the write API.
func Connect(cfg config.InfluxDBConfig) (*Telemetry, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = 10
	}

	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(uint(batchSize)).
			SetFlushInterval(uint(flushInterval)*millisecondsPerSecond),
	)

	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
	defer cancel()

	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	t := newTelemetry(client.WriteAPI(cfg.Org, cfg.Bucket))
	t.client = client
	return t, nil
}

func newTelemetry(w api.WriteAPI) *Telemetry {
	t := &Telemetry{writeAPI: w, now: time.Now}
	go t.handleWriteErrors(w.Errors())
	return t
}

func (t *Telemetry) handleWriteErrors(errs <-chan error) {
	for err := range errs {
		t.mu.RLock()
		cb := t.onError
		t.mu.RUnlock()
		if cb != nil {
			cb(err)
		}
	}
}

// SetOnError sets a callback for asynchronous write failures.
func (t *Telemetry) SetOnError(cb func(err error)) {
	t.mu.Lock()
	t.onError = cb
	t.mu.Unlock()
}

func (t *Telemetry) write(p *write.Point) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return
	}
	t.writeAPI.WritePoint(p)
}

// RecordReceive writes one radio_rx point tagged by device and message kind.
func (t *Telemetry) RecordReceive(ev hub.ReceiveEvent) {
	ts := ev.Time
	if ts.IsZero() {
		ts = t.now()
	}
	t.write(write.NewPoint(
		measurementReceive,
		map[string]string{
			"device": ev.Identity,
			"kind":   ev.Kind.String(),
			"known":  fmt.Sprint(ev.Known),
		},
		map[string]interface{}{
			"lqi":         int64(ev.LQI),
			"rssi":        int64(ev.RSSI),
			"overwritten": int64(ev.Overwritten),
			"malformed":   ev.Malformed,
			"replied":     ev.Replied,
			"forwarded":   ev.Forwarded,
		},
		ts,
	))
}

// RecordTransmit writes one radio_tx point.
func (t *Telemetry) RecordTransmit(tx mrf24j.TxCompletion) {
	t.write(write.NewPoint(
		measurementTransmit,
		nil,
		map[string]interface{}{
			"success":      tx.Success,
			"retries":      int64(tx.Retries),
			"channel_busy": tx.ChannelBusy,
		},
		t.now(),
	))
}

// Flush blocks until buffered points are written.
func (t *Telemetry) Flush() {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.closed {
		t.writeAPI.Flush()
	}
}

// Close flushes pending points and closes the client.
func (t *Telemetry) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	t.writeAPI.Flush()
	if t.client != nil {
		t.client.Close()
	}
	return nil
}

var _ hub.Telemetry = (*Telemetry)(nil)

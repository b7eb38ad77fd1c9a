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

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	mrf24j "github.com/pethublocal/go-mrf24j"
	"github.com/pethublocal/go-mrf24j/hub"
	"github.com/pethublocal/go-mrf24j/internal/config"
	"github.com/pethublocal/go-mrf24j/internal/influx"
	"github.com/pethublocal/go-mrf24j/internal/logging"
	"github.com/pethublocal/go-mrf24j/internal/mqtt"
	"github.com/pethublocal/go-mrf24j/internal/serialsink"
	"github.com/pethublocal/go-mrf24j/polling"
	"github.com/pethublocal/go-mrf24j/protocol"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the hub until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			log := logging.New(cfg.Logging, version)
			defer setupDebug(cfg.Logging, log)()
			return runHub(cmd.Context(), cfg, log)
		},
	}
}

// runHub connects the outputs, starts the radio and services it until ctx
// is cancelled.
func runHub(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	sinks, telemetry, closeOutputs, err := openOutputs(cfg, log)
	if err != nil {
		return err
	}
	defer closeOutputs()

	radio, err := openRadio(cfg)
	if err != nil {
		return err
	}
	d, err := newDaemon(cfg, log, radio, sinks, telemetry)
	if err != nil {
		_ = radio.Close()
		return err
	}
	defer d.close()
	return d.run(ctx)
}

// openOutputs connects MQTT and, when enabled, the serial console and
// InfluxDB. An unreachable InfluxDB is logged and skipped; the other outputs
// are required.
func openOutputs(cfg *config.Config, log *logging.Logger) (hub.MultiSink, hub.Telemetry, func(), error) {
	var (
		sinks   hub.MultiSink
		closers []func() error
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn("close failed", "error", err)
			}
		}
	}

	mq, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect mqtt: %w", err)
	}
	mq.SetLogger(log.Component("mqtt"))
	closers = append(closers, mq.Close)
	sinks = append(sinks, mq.Sink())

	if cfg.Serial.Enabled {
		s, err := serialsink.Open(cfg.Serial)
		if err != nil {
			closeAll()
			return nil, nil, nil, err
		}
		closers = append(closers, s.Close)
		sinks = append(sinks, s)
	}

	var telemetry hub.Telemetry = hub.NopTelemetry{}
	t, err := influx.Connect(cfg.InfluxDB)
	switch {
	case errors.Is(err, influx.ErrDisabled):
	case err != nil:
		log.Warn("influxdb unavailable, telemetry disabled", "error", err)
	default:
		ilog := log.Component("influxdb")
		t.SetOnError(func(err error) {
			ilog.Warn("write failed", "error", err)
		})
		closers = append(closers, t.Close)
		telemetry = t
	}

	return sinks, telemetry, closeAll, nil
}

type daemon struct {
	radio   *mrf24j.Radio
	hub     *hub.Hub
	session *polling.Session
	log     *logging.Logger
}

// newDaemon builds the device table, decoder, hub and session around a
// started radio.
func newDaemon(cfg *config.Config, log *logging.Logger, radio *mrf24j.Radio, sink hub.Sink, telemetry hub.Telemetry) (*daemon, error) {
	specs, err := cfg.DeviceSpecs()
	if err != nil {
		return nil, err
	}
	table, err := protocol.NewDeviceTable(specs)
	if err != nil {
		return nil, fmt.Errorf("device table: %w", err)
	}

	h := hub.New(radio, protocol.NewDecoder(table), sink,
		hub.WithTelemetry(telemetry),
		hub.WithLogger(log.Component("hub").Logger),
		hub.WithForwardAll(cfg.MQTT.ForwardAll),
	)

	session := polling.NewSession(radio, h, &polling.Config{
		PumpInterval: cfg.Polling.PumpInterval,
		PollInterval: cfg.Polling.PollInterval,
		Recovery:     polling.DefaultRecoveryConfig(),
	})
	plog := log.Component("polling")
	session.SetOnError(func(err error) {
		plog.Warn("interrupt service failed", "error", err, "fatal", mrf24j.IsFatal(err))
	})

	return &daemon{radio: radio, hub: h, session: session, log: log}, nil
}

func (d *daemon) run(ctx context.Context) error {
	st, err := d.radio.Status()
	if err != nil {
		return fmt.Errorf("read radio status: %w", err)
	}
	d.log.Info("hub running",
		"hwmac", st.ExtendedAddress.String(),
		"pan", fmt.Sprintf("0x%04X", st.PAN),
		"channel", st.Channel,
	)

	err = d.session.Run(ctx)

	stats := d.hub.Stats()
	d.log.Info("hub stopped",
		"received", stats.Received,
		"replies", stats.Replies,
		"forwarded", stats.Forwarded,
		"session_state", d.session.State().String(),
	)
	if err != nil {
		return fmt.Errorf("radio session: %w", err)
	}
	return ctx.Err()
}

func (d *daemon) close() {
	if err := d.session.Close(); err != nil {
		d.log.Warn("failed to close session", "error", err)
	}
	if err := d.radio.Close(); err != nil {
		d.log.Warn("failed to close radio", "error", err)
	}
}

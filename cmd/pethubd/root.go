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
	"fmt"

	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/physic"

	mrf24j "github.com/pethublocal/go-mrf24j"
	"github.com/pethublocal/go-mrf24j/internal/config"
	"github.com/pethublocal/go-mrf24j/internal/logging"
	"github.com/pethublocal/go-mrf24j/transport/spi"
)

type rootOptions struct {
	configPath string
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "pethubd",
		Short: "PetHub Local radio hub",
		Long: `pethubd drives an MRF24J40 802.15.4 radio on SPI and speaks the SurePet
device protocol to whitelisted feeders and pet doors.

Handshakes are answered on air; device messages are published to MQTT as
uppercase hex under <topic_prefix>/<identity>.

Configuration is read from --config, or from built-in defaults when no file
is given. PETHUB_* environment variables override either.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to YAML config file")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable register-level driver debug output")

	root.AddCommand(
		newRunCmd(opts),
		newInfoCmd(opts),
		newSendCmd(opts),
		newPortsCmd(),
		newDetectCmd(),
	)
	return root
}

// load reads the configuration and applies the debug settings.
func (o *rootOptions) load() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath == "" {
		cfg, err = config.FromEnv()
	} else {
		cfg, err = config.Load(o.configPath)
	}
	if err != nil {
		return nil, err
	}
	if o.debug {
		cfg.Logging.Debug = true
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// setupDebug enables driver debug output and the session log. The returned
// func closes the session log.
func setupDebug(cfg config.LoggingConfig, log *logging.Logger) func() {
	mrf24j.SetDebugEnabled(cfg.Debug)
	if cfg.SessionDir == "" {
		return func() {}
	}
	path, err := mrf24j.InitSessionLog(cfg.SessionDir)
	if err != nil {
		log.Warn("session log disabled", "error", err)
		return func() {}
	}
	log.Info("writing session log", "path", path)
	return func() {
		if err := mrf24j.CloseSessionLog(); err != nil {
			log.Warn("failed to close session log", "error", err)
		}
	}
}

func spiConfig(rc config.RadioConfig) spi.Config {
	return spi.Config{
		Port:         rc.SPIPort,
		ResetPin:     rc.ResetPin,
		InterruptPin: rc.InterruptPin,
		Frequency:    physic.Frequency(rc.SPIFrequency) * physic.Hertz,
	}
}

// openRadio opens the SPI transport and starts the radio on it.
func openRadio(cfg *config.Config) (*mrf24j.Radio, error) {
	t, err := spi.New(spiConfig(cfg.Radio))
	if err != nil {
		return nil, fmt.Errorf("open transport: %w", err)
	}
	radio, err := startRadio(cfg, t)
	if err != nil {
		_ = t.Close()
		return nil, err
	}
	return radio, nil
}

func startRadio(cfg *config.Config, t mrf24j.Transport) (*mrf24j.Radio, error) {
	opts, err := cfg.RadioOptions()
	if err != nil {
		return nil, err
	}
	radio, err := mrf24j.Open(t, opts...)
	if err != nil {
		return nil, fmt.Errorf("open radio: %w", err)
	}
	if err := radio.Start(); err != nil {
		return nil, fmt.Errorf("start radio: %w", err)
	}
	return radio, nil
}

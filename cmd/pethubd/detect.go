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
	"periph.io/x/host/v3"

	mrf24j "github.com/pethublocal/go-mrf24j"
	"github.com/pethublocal/go-mrf24j/detection"
	"github.com/pethublocal/go-mrf24j/transport/spi"
)

func newDetectCmd() *cobra.Command {
	opts := detection.DefaultOptions()
	var passive bool

	cmd := &cobra.Command{
		Use:   "detect [PORT...]",
		Short: "Probe SPI ports for an MRF24J40",
		Long: `detect writes and reads back a scratch register on each SPI port, restoring
it afterwards. With no arguments every spidev node and periph SPI port is
tried. --passive only lists the ports.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := host.Init(); err != nil {
				return fmt.Errorf("failed to initialize periph host: %w", err)
			}
			opts.Paths = args
			opts.EnableCache = false
			if passive {
				opts.Mode = detection.Passive
			}

			devices, err := detection.Detect(cmd.Context(), &opts, openSPI)
			if err != nil {
				return err
			}
			for _, d := range devices {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), d.String())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&passive, "passive", false, "List ports without probing")
	cmd.Flags().StringSliceVar(&opts.IgnorePaths, "ignore", nil, "Ports to skip")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", opts.Timeout, "Overall detection timeout")
	return cmd
}

func openSPI(path string) (mrf24j.Transport, error) {
	t, err := spi.New(spi.Config{Port: path})
	if err != nil {
		return nil, err
	}
	return t, nil
}

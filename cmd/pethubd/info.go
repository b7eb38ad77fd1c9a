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
	"io"

	"github.com/spf13/cobra"

	mrf24j "github.com/pethublocal/go-mrf24j"
	"github.com/pethublocal/go-mrf24j/internal/config"
	"github.com/pethublocal/go-mrf24j/internal/serialsink"
)

func newInfoCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Start the radio and print its addressing and the device whitelist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			mrf24j.SetDebugEnabled(cfg.Logging.Debug)

			radio, err := openRadio(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = radio.Close() }()
			return printInfo(cmd.OutOrStdout(), radio, cfg)
		},
	}
}

func printInfo(w io.Writer, radio *mrf24j.Radio, cfg *config.Config) error {
	st, err := radio.Status()
	if err != nil {
		return fmt.Errorf("read radio status: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Transport:      %s\n", radio.Transport().Type())
	_, _ = fmt.Fprintf(w, "HW MAC:         %s\n", st.ExtendedAddress)
	_, _ = fmt.Fprintf(w, "PAN ID:         0x%04X\n", st.PAN)
	_, _ = fmt.Fprintf(w, "Short address:  0x%04X\n", st.ShortAddress)
	_, _ = fmt.Fprintf(w, "Channel:        %d\n", st.Channel)
	_, _ = fmt.Fprintf(w, "RF state:       0x%02X\n", st.RFState)
	_, _ = fmt.Fprintf(w, "Devices:\n")
	for _, d := range cfg.Devices {
		_, _ = fmt.Fprintf(w, "  %-16s %s\n", d.Identity, d.Name)
	}
	return nil
}

func newPortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports usable by the serial console output",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ports, err := serialsink.ListPorts()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No serial ports found")
				return nil
			}
			for _, p := range ports {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}

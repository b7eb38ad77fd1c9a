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
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	mrf24j "github.com/pethublocal/go-mrf24j"
	"github.com/pethublocal/go-mrf24j/polling"
)

var errTxFailed = errors.New("transmission failed")

type sendOptions struct {
	dst     string
	timeout time.Duration
}

func newSendCmd(root *rootOptions) *cobra.Command {
	opts := &sendOptions{}
	cmd := &cobra.Command{
		Use:   "send HEX",
		Short: "Send a data frame to a short address and report the TX status",
		Long: `send transmits one acknowledged data frame with a short destination
address. It is a link test; the device protocol never uses short addressing.

  pethubd send --dst 0xFFFF 0102A0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dst, payload, err := parseSendArgs(opts.dst, args[0])
			if err != nil {
				return err
			}
			cfg, err := root.load()
			if err != nil {
				return err
			}
			mrf24j.SetDebugEnabled(cfg.Logging.Debug)

			radio, err := openRadio(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = radio.Close() }()

			tx, err := sendAndWait(cmd.Context(), radio, dst, payload, opts.timeout)
			if err != nil {
				return err
			}
			if err := printTx(cmd.OutOrStdout(), tx); err != nil {
				return err
			}
			if !tx.Success {
				return errTxFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.dst, "dst", "0xFFFF", "Destination short address")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 2*time.Second, "How long to wait for the TX status")
	return cmd
}

func parseSendArgs(dst, payload string) (uint16, []byte, error) {
	addr, err := strconv.ParseUint(dst, 0, 16)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid destination %q: %w", dst, err)
	}
	data, err := hex.DecodeString(strings.ReplaceAll(payload, " ", ""))
	if err != nil {
		return 0, nil, fmt.Errorf("invalid payload: %w", err)
	}
	if len(data) == 0 {
		return 0, nil, fmt.Errorf("%w: empty payload", mrf24j.ErrInvalidParameter)
	}
	return uint16(addr), data, nil
}

// sendAndWait sends one frame and runs a session until the TX completion is
// delivered or timeout elapses.
func sendAndWait(ctx context.Context, radio *mrf24j.Radio, dst uint16, payload []byte,
	timeout time.Duration,
) (mrf24j.TxCompletion, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan mrf24j.TxCompletion, 1)
	session := polling.NewSession(radio, mrf24j.EventHandlerFuncs{
		TransmitComplete: func(tx mrf24j.TxCompletion) {
			select {
			case done <- tx:
			default:
			}
		},
	}, nil)
	if err := session.Start(ctx); err != nil {
		return mrf24j.TxCompletion{}, err
	}
	defer func() { _ = session.Close() }()

	if err := radio.SendShort(dst, payload); err != nil {
		return mrf24j.TxCompletion{}, fmt.Errorf("send: %w", err)
	}

	select {
	case tx := <-done:
		return tx, nil
	case <-ctx.Done():
		return mrf24j.TxCompletion{}, fmt.Errorf("waiting for TX status: %w", ctx.Err())
	}
}

func printTx(w io.Writer, tx mrf24j.TxCompletion) error {
	_, err := fmt.Fprintln(w, tx.String())
	return err
}

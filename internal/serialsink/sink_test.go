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

package serialsink

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pethublocal/go-mrf24j/internal/config"
)

type bufferPort struct {
	bytes.Buffer
	writeErr error
	closed   int
}

func (b *bufferPort) Write(p []byte) (int, error) {
	if b.writeErr != nil {
		return 0, b.writeErr
	}
	return b.Buffer.Write(p)
}

func (b *bufferPort) Close() error {
	b.closed++
	return nil
}

func TestPublish_WritesLine(t *testing.T) {
	t.Parallel()

	port := &bufferPort{}
	s := New(port, "/dev/ttyTEST")

	require.NoError(t, s.Publish("52E26AFEFF121F80", []byte{0x01, 0x05, 0x01}))
	require.NoError(t, s.Publish("162E02C0F9D5B370", nil))

	assert.Equal(t, "52E26AFEFF121F80 010501\r\n162E02C0F9D5B370 \r\n", port.String())
}

func TestPublish_WrapsWriteError(t *testing.T) {
	t.Parallel()

	errUnplugged := errors.New("unplugged")
	s := New(&bufferPort{writeErr: errUnplugged}, "/dev/ttyTEST")

	err := s.Publish("ID", []byte{1})
	require.ErrorIs(t, err, errUnplugged)
	assert.Contains(t, err.Error(), "/dev/ttyTEST")
}

func TestClose(t *testing.T) {
	t.Parallel()

	port := &bufferPort{}
	s := New(port, "p")

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, port.closed)
	assert.ErrorIs(t, s.Publish("ID", nil), ErrClosed)
}

func TestOpen_MissingPort(t *testing.T) {
	t.Parallel()

	_, err := Open(config.SerialConfig{Port: "/dev/does-not-exist-pethub", BaudRate: 115200})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open serial port")
}

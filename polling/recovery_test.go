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

package polling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pethublocal/go-mrf24j/internal/testing/simradio"
)

type scriptedRestarter struct {
	errs  []error
	calls int
}

func (r *scriptedRestarter) Start() error {
	r.calls++
	if len(r.errs) == 0 {
		return nil
	}
	err := r.errs[0]
	r.errs = r.errs[1:]
	return err
}

func TestNewDefaultRecoverer(t *testing.T) {
	t.Parallel()

	t.Run("WithDefaults", func(t *testing.T) {
		t.Parallel()
		r := NewDefaultRecoverer(&scriptedRestarter{}, 0, 0)
		assert.Equal(t, 3, r.maxAttempts)
		assert.Equal(t, 500*time.Millisecond, r.backoff)
	})

	t.Run("WithCustomValues", func(t *testing.T) {
		t.Parallel()
		r := NewDefaultRecoverer(&scriptedRestarter{}, 100*time.Millisecond, 5)
		assert.Equal(t, 5, r.maxAttempts)
		assert.Equal(t, 100*time.Millisecond, r.backoff)
	})
}

func TestDefaultRecoverer_SucceedsAfterRetry(t *testing.T) {
	t.Parallel()

	radio := &scriptedRestarter{errs: []error{errors.New("no ready state")}}
	r := NewDefaultRecoverer(radio, time.Millisecond, 3)

	require.NoError(t, r.AttemptRecovery(context.Background()))
	assert.Equal(t, 2, radio.calls)
}

func TestDefaultRecoverer_GivesUp(t *testing.T) {
	t.Parallel()

	errStuck := errors.New("soft reset stuck")
	radio := &scriptedRestarter{errs: []error{errStuck, errStuck, errStuck}}
	r := NewDefaultRecoverer(radio, time.Millisecond, 2)

	err := r.AttemptRecovery(context.Background())
	require.ErrorIs(t, err, errStuck)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, 2, radio.calls)
}

func TestDefaultRecoverer_ContextCancelled(t *testing.T) {
	t.Parallel()

	radio := &scriptedRestarter{errs: []error{errors.New("fail"), errors.New("fail")}}
	r := NewDefaultRecoverer(radio, time.Hour, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, r.AttemptRecovery(ctx), context.Canceled)
	assert.Equal(t, 1, radio.calls)
}

func TestDefaultRecoverer_RestartsSimulatedRadio(t *testing.T) {
	t.Parallel()

	radio, sim := simradio.Start(t)
	before := sim.SoftResets()

	r := NewDefaultRecoverer(radio, time.Millisecond, 1)
	require.NoError(t, r.AttemptRecovery(context.Background()))
	assert.Equal(t, before+1, sim.SoftResets())
}

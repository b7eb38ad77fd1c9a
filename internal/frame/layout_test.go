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

package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderLength_AllModePairs(t *testing.T) {
	t.Parallel()

	lengths := map[uint8]int{ModeNone: 0, ModeShort: 2, ModeExtended: 8}
	for dst, dl := range lengths {
		for src, sl := range lengths {
			got, err := HeaderLength(dst, src)
			require.NoError(t, err)
			assert.Equal(t, 5+dl+sl, got, "dst=%d src=%d", dst, src)
		}
	}
}

func TestHeaderLength_ReservedModeRejected(t *testing.T) {
	t.Parallel()

	for _, other := range []uint8{ModeNone, ModeShort, ModeExtended} {
		_, err := HeaderLength(ModeReserved, other)
		require.ErrorIs(t, err, ErrReservedMode)
		_, err = HeaderLength(other, ModeReserved)
		require.ErrorIs(t, err, ErrReservedMode)
	}
}

func TestPayloadLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		frame   int
		header  int
		want    int
		wantErr bool
	}{
		{name: "header only", frame: 21, header: 21, want: 0},
		{name: "small payload", frame: 24, header: 21, want: 3},
		{name: "shorter than header", frame: 4, header: 5, wantErr: true},
		{name: "over phy size", frame: 128, header: 5, wantErr: true},
		{name: "payload over record size", frame: 127, header: 5, wantErr: true},
		{name: "largest record payload", frame: 121, header: 5, want: 116},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := PayloadLength(tt.frame, tt.header)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrBadLength)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFitsTx(t *testing.T) {
	t.Parallel()

	assert.True(t, FitsTx(21, 104))
	assert.False(t, FitsTx(21, 105))
	assert.True(t, FitsTx(5, 116))
	assert.False(t, FitsTx(5, 117))
	assert.False(t, FitsTx(5, -1))
}

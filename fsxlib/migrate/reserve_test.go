// Copyright 2024 The FSXVol Authors
// This file is part of FSXVol.
//
// FSXVol is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// FSXVol is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with FSXVol. If not, see <http://www.gnu.org/licenses/>.

package migrate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSpaceReserverDebitsAndRejectsOverdraw(t *testing.T) {
	r := NewSpaceReserver(map[uint64]uint64{1: 100})

	require.NoError(t, r.Reserve(1, 60))
	require.EqualValues(t, 40, r.Available(1))

	err := r.Reserve(1, 50)
	require.Error(t, err)
	require.EqualValues(t, 40, r.Available(1), "a failed reservation must not debit the budget")
}

func TestSpaceReserverRejectsUnknownBrick(t *testing.T) {
	r := NewSpaceReserver(map[uint64]uint64{1: 100})
	err := r.Reserve(2, 1)
	require.Error(t, err)
}

func TestSpaceReserverReleaseCreditsBack(t *testing.T) {
	r := NewSpaceReserver(map[uint64]uint64{1: 100})
	require.NoError(t, r.Reserve(1, 60))
	r.Release(1, 20)
	require.EqualValues(t, 60, r.Available(1))
}

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

package dst

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitTwoEqualBricksIsPerfectlyBalanced(t *testing.T) {
	vec := twoEqualBricks()
	d := NewDcx(nil)
	tab, err := d.InitV(vec, NewSystemTable(vec, Calibrate32(2, 1024, vec.CapAt)), 2, 10)
	require.NoError(t, err)

	res, err := d.Split(vec, tab, 1)
	require.NoError(t, err)
	require.Len(t, res.Tab, 2048)
	require.EqualValues(t, 11, d.NumsBits)
	require.Equal(t, []uint32{1024, 1024}, d.Weights)
	require.True(t, res.Changed.IsEmpty(), "a perfectly divisible stretch relocates nothing")

	counts := countByBucket(vec, res.Tab)
	require.EqualValues(t, 1024, counts[0])
	require.EqualValues(t, 1024, counts[1])
}

func TestSplitThreeBricksRebalancesRemainder(t *testing.T) {
	vec, d, tab := threeEqualBrickTable(t)
	require.Equal(t, []uint32{342, 341, 341}, d.Weights)

	res, err := d.Split(vec, tab, 1)
	require.NoError(t, err)
	require.Len(t, res.Tab, 2048)
	require.EqualValues(t, 11, d.NumsBits)
	require.Equal(t, []uint32{683, 683, 682}, d.Weights)
	require.EqualValues(t, 1, res.Changed.GetCardinality())

	counts := countByBucket(vec, res.Tab)
	require.EqualValues(t, 683, counts[0])
	require.EqualValues(t, 683, counts[1])
	require.EqualValues(t, 682, counts[2])
}

func TestSplitRejectsOverflowingShift(t *testing.T) {
	vec := twoEqualBricks()
	d := NewDcx(nil)
	_, err := d.InitV(vec, NewSystemTable(vec, Calibrate32(2, 1024, vec.CapAt)), 2, 10)
	require.NoError(t, err)
	d.NumsBits = MaxShift

	_, err = d.Split(vec, make([]uint32, 1), 1)
	require.Error(t, err)
}

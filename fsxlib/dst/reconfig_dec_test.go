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

	"github.com/distvol/fsxvol-lib/bucket"
)

func threeEqualBrickTable(t *testing.T) (*bucket.MemVector, *Dcx, []uint32) {
	vec := twoEqualBricks()
	d := NewDcx(nil)
	tab, err := d.InitV(vec, NewSystemTable(vec, Calibrate32(2, 1024, vec.CapAt)), 2, 10)
	require.NoError(t, err)

	vec.Insert(2, &bucket.Brick{ID: 2, Cap: 1})
	res, err := d.Inc(vec, tab, 2, true)
	require.NoError(t, err)
	return vec, d, res.Tab
}

func TestDecRemovesMiddleBrickBackToTwo(t *testing.T) {
	vec, d, tab := threeEqualBrickTable(t)

	CreateFibers(vec, 3, tab, d.Weights) // Inc released its fibers
	victimFiber := vec.FiberAt(1)
	vec.Remove(1) // drops id=1; id=2 shifts down to position 1

	res, err := d.Dec(vec, tab, 1, victimFiber, true)
	require.NoError(t, err)
	require.Equal(t, 2, d.Numb)
	require.Equal(t, []uint32{512, 512}, d.Weights)
	require.EqualValues(t, 341, res.Changed.GetCardinality())

	counts := countByBucket(vec, res.Tab)
	require.Zero(t, counts[1], "no slot should still reference the removed brick")
	require.EqualValues(t, 512, counts[0])
	require.EqualValues(t, 512, counts[2])
}

func TestDecRejectsSingleBucket(t *testing.T) {
	single := bucket.NewMemVector(&bucket.Brick{ID: 0, Cap: 1})
	d := NewDcx(nil)
	Debug = true
	defer func() { Debug = false }()
	tab, err := d.InitV(single, nil, 1, 10)
	require.NoError(t, err)

	_, err = d.Dec(single, tab, 0, nil, true)
	require.Error(t, err)
}

func TestCheckSpaceRejectsUndersizedRemainder(t *testing.T) {
	vec := bucket.NewMemVector(
		&bucket.Brick{ID: 0, Cap: 10},
		&bucket.Brick{ID: 1, Cap: 10},
	)
	err := CheckSpace(vec, 1, 15)
	require.Error(t, err)
}

func TestCheckSpaceAcceptsWhenRemainingCapacitySuffices(t *testing.T) {
	vec := bucket.NewMemVector(
		&bucket.Brick{ID: 0, Cap: 100},
		&bucket.Brick{ID: 1, Cap: 100},
	)
	require.NoError(t, CheckSpace(vec, 2, 150))
}

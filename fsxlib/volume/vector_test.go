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

package volume

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVectorViewReflectsActiveBricksOnly(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Brick{ID: 10, Cap: 100, Occupied: 10}))
	require.NoError(t, r.Register(&Brick{ID: 20, Cap: 200, Occupied: 20}))
	require.NoError(t, r.Register(&Brick{ID: 30, Cap: 300, Occupied: 30}))
	r.Activate(0, 10)
	r.Activate(1, 20)

	vv := newVectorView(r)
	require.Equal(t, 2, vv.NumBuckets())
	require.EqualValues(t, 100, vv.CapAt(0))
	require.EqualValues(t, 200, vv.CapAt(1))
	require.EqualValues(t, 10, vv.Idx2ID(0))
	require.EqualValues(t, 20, vv.Idx2ID(1))
	require.Equal(t, 0, vv.ID2Idx(10))
	require.Equal(t, 1, vv.ID2Idx(20))
	require.Equal(t, -1, vv.ID2Idx(30), "an unregistered-as-active brick has no position")
	require.EqualValues(t, 30, vv.SpaceOccupied())
}

func TestVectorViewSetFiberAtPersistsOnBrick(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Brick{ID: 1, Cap: 1}))
	r.Activate(0, 1)

	vv := newVectorView(r)
	vv.SetFiberAt(0, []uint32{7, 8, 9})
	require.Equal(t, []uint32{7, 8, 9}, vv.FiberAt(0))

	b, _ := r.Get(1)
	require.Equal(t, []uint32{7, 8, 9}, b.fiber)
}

func TestVectorViewFiberOfRejectsForeignBucket(t *testing.T) {
	r := NewRegistry()
	vv := newVectorView(r)
	require.Nil(t, vv.FiberOf(nil))
}

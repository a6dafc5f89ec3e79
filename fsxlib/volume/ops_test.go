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
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestVolume(t *testing.T) *Volume {
	dir := t.TempDir()
	return NewVolume(Config{
		LockPath:   filepath.Join(dir, ".fsxvol.lock"),
		StripeSize: 4096,
		NumsBits:   10,
	})
}

func TestAddBrickBuildsFirstTableThenGrowsToTwo(t *testing.T) {
	v := newTestVolume(t)

	require.NoError(t, v.RegisterBrick(&Brick{ID: 0, Cap: 1}))
	require.NoError(t, v.AddBrick(0, 0, false))
	require.Equal(t, 1, v.dcx.Numb)
	require.True(t, v.state.Balanced)

	require.NoError(t, v.RegisterBrick(&Brick{ID: 1, Cap: 1}))
	require.NoError(t, v.AddBrick(1, 1, false))
	require.Equal(t, []uint32{512, 512}, v.dcx.Weights)
	require.EqualValues(t, 1, v.state.CurrentTable[512], "slot 512, the first of the upper half, belongs to the second brick")
}

func TestAddThirdBrickThenRemoveMiddleBrick(t *testing.T) {
	v := newTestVolume(t)
	require.NoError(t, v.RegisterBrick(&Brick{ID: 0, Cap: 1}))
	require.NoError(t, v.AddBrick(0, 0, false))
	require.NoError(t, v.RegisterBrick(&Brick{ID: 1, Cap: 1}))
	require.NoError(t, v.AddBrick(1, 1, false))

	require.NoError(t, v.RegisterBrick(&Brick{ID: 2, Cap: 1}))
	require.NoError(t, v.AddBrick(2, 2, false))
	require.Equal(t, []uint32{342, 341, 341}, v.dcx.Weights)

	require.NoError(t, v.RemoveBrick(1))
	require.Equal(t, []uint32{512, 512}, v.dcx.Weights)
	require.Equal(t, 2, v.reg.NumActive())
	for _, id := range v.state.CurrentTable {
		require.NotEqualValues(t, 1, id, "no slot should still reference the removed brick")
	}
}

func TestScaleVolumeDoublesResolution(t *testing.T) {
	v := newTestVolume(t)
	require.NoError(t, v.RegisterBrick(&Brick{ID: 0, Cap: 1}))
	require.NoError(t, v.AddBrick(0, 0, false))
	require.NoError(t, v.RegisterBrick(&Brick{ID: 1, Cap: 1}))
	require.NoError(t, v.AddBrick(1, 1, false))

	require.NoError(t, v.ScaleVolume(1))
	require.EqualValues(t, 11, v.dcx.NumsBits)
	require.Len(t, v.state.CurrentTable, 2048)
	require.Equal(t, []uint32{1024, 1024}, v.dcx.Weights)
}

func TestAddProxyBrickMarksItProxy(t *testing.T) {
	v := newTestVolume(t)
	require.NoError(t, v.RegisterBrick(&Brick{ID: 0, Cap: 1}))
	require.NoError(t, v.AddBrick(0, 0, false))
	require.NoError(t, v.RegisterBrick(&Brick{ID: 1, Cap: 1}))
	require.NoError(t, v.AddBrick(1, 1, true))

	b, ok := v.reg.Get(1)
	require.True(t, ok)
	require.True(t, b.Proxy)
}

func TestResizeBrickRejectsShrinkBelowOccupiedShare(t *testing.T) {
	v := newTestVolume(t)
	require.NoError(t, v.RegisterBrick(&Brick{ID: 0, Cap: 100, Occupied: 80}))
	require.NoError(t, v.AddBrick(0, 0, false))
	require.NoError(t, v.RegisterBrick(&Brick{ID: 1, Cap: 100, Occupied: 80}))
	require.NoError(t, v.AddBrick(1, 1, false))

	err := v.ResizeBrick(0, 1)
	require.Error(t, err)

	b, _ := v.reg.Get(0)
	require.EqualValues(t, 100, b.Cap, "a rejected resize must not change capacity")
}

func TestResizeBrickAcceptsShrinkWithRoomToSpare(t *testing.T) {
	v := newTestVolume(t)
	require.NoError(t, v.RegisterBrick(&Brick{ID: 0, Cap: 100, Occupied: 1}))
	require.NoError(t, v.AddBrick(0, 0, false))
	require.NoError(t, v.RegisterBrick(&Brick{ID: 1, Cap: 100, Occupied: 1}))
	require.NoError(t, v.AddBrick(1, 1, false))

	require.NoError(t, v.ResizeBrick(0, 10))
	b, _ := v.reg.Get(0)
	require.EqualValues(t, 10, b.Cap)
}

func TestSetFileImmobileRefusesMigration(t *testing.T) {
	v := newTestVolume(t)
	require.NoError(t, v.RegisterBrick(&Brick{ID: 0, Cap: 1}))
	require.NoError(t, v.AddBrick(0, 0, false))
	require.NoError(t, v.SetFileImmobile(7))

	_, _, err := v.MigrateFile(context.Background(), 7, func(uint64) uint64 { return 0 }, nil)
	require.Error(t, err)

	require.NoError(t, v.ClrFileImmobile(7))
	_, _, err = v.MigrateFile(context.Background(), 7, func(uint64) uint64 { return 0 }, nil)
	require.NoError(t, err, "an empty file's migration is a no-op, not an error")
}

func TestBalanceVolumeResumesIncompleteRemoval(t *testing.T) {
	v := newTestVolume(t)
	require.NoError(t, v.RegisterBrick(&Brick{ID: 0, Cap: 1}))
	require.NoError(t, v.AddBrick(0, 0, false))
	require.NoError(t, v.RegisterBrick(&Brick{ID: 1, Cap: 1}))
	require.NoError(t, v.AddBrick(1, 1, false))

	// Simulate a crash between the removal taking effect and the flag
	// being durably cleared: the brick is already gone from the active
	// set, but IncompleteRemoval is still set on reload.
	v.reg.Deactivate(v.reg.PositionOf(1))
	v.state.IncompleteRemoval = true
	v.state.Victim = 1
	v.state.Balanced = false

	require.NoError(t, v.BalanceVolume())
	require.False(t, v.state.IncompleteRemoval)
	require.True(t, v.state.Balanced)
}

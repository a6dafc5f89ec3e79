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
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// twoBoundaryLocator resolves offsets below 10 to head, offsets in
// [10,30) to mid and offsets at or past 30 to tail; it models a
// file whose stripes were reassigned to two different destination bricks
// by a table reconfiguration.
func twoBoundaryLocator(head, mid, tail uint64) Locator {
	return func(off uint64) uint64 {
		switch {
		case off < 10:
			return head
		case off < 30:
			return mid
		default:
			return tail
		}
	}
}

func TestMigrateFileWalksBackThroughMultipleBoundaries(t *testing.T) {
	tree := NewItemTree()
	item := tree.Insert(Extent{Offset: 0, Size: 40, Brick: 0})

	reserve := NewSpaceReserver(map[uint64]uint64{1: 1 << 20, 2: 1 << 20})
	eng := NewEngine(tree, 10, reserve, nil)

	doneOff, blocksMigrated, err := eng.MigrateFile(context.Background(), item, twoBoundaryLocator(0, 1, 2), nil)
	require.NoError(t, err)
	require.EqualValues(t, 0, doneOff)
	require.EqualValues(t, 2, blocksMigrated)

	var got []Extent
	tree.Ascend(func(i *Item) bool {
		got = append(got, i.Extent)
		return true
	})
	require.Equal(t, []Extent{
		{Offset: 0, Size: 10, Brick: 0},
		{Offset: 10, Size: 20, Brick: 1},
		{Offset: 30, Size: 10, Brick: 2},
	}, got)
}

func TestMigrateFileSkipsAlreadyResidentSingleItem(t *testing.T) {
	tree := NewItemTree()
	item := tree.Insert(Extent{Offset: 0, Size: 40, Brick: 5})

	eng := NewEngine(tree, 10, nil, nil)
	doneOff, blocksMigrated, err := eng.MigrateFile(context.Background(), item, uniformLocator(5), nil)
	require.NoError(t, err)
	require.EqualValues(t, 0, doneOff)
	require.EqualValues(t, 0, blocksMigrated)
	require.Equal(t, 1, tree.Len())
}

func TestMigrateFileFailsWhenDestinationBrickHasNoSpace(t *testing.T) {
	tree := NewItemTree()
	item := tree.Insert(Extent{Offset: 0, Size: 40, Brick: 0})

	reserve := NewSpaceReserver(map[uint64]uint64{1: 0})
	eng := NewEngine(tree, 10, reserve, nil)

	_, _, err := eng.MigrateFile(context.Background(), item, uniformLocator(1), nil)
	require.Error(t, err)
}

func TestMigrateFileMergesWithResidentRightNeighbor(t *testing.T) {
	tree := NewItemTree()
	item := tree.Insert(Extent{Offset: 0, Size: 40, Brick: 0})
	tree.Insert(Extent{Offset: 40, Size: 10, Brick: 1})

	reserve := NewSpaceReserver(map[uint64]uint64{1: 1 << 20})
	eng := NewEngine(tree, 10, reserve, nil)

	doneOff, blocksMigrated, err := eng.MigrateFile(context.Background(), item, uniformLocator(1), nil)
	require.NoError(t, err)
	require.EqualValues(t, 0, doneOff)
	require.EqualValues(t, 1, blocksMigrated)

	require.Equal(t, 1, tree.Len())
	merged, ok := tree.ItemContaining(0)
	require.True(t, ok)
	require.Equal(t, Extent{Offset: 0, Size: 50, Brick: 1}, merged.Extent)
}

func TestMigrateFileWithNoSplitPinsPages(t *testing.T) {
	tree := NewItemTree()
	item := tree.Insert(Extent{Offset: 0, Size: 1000, Brick: 0})

	reserve := NewSpaceReserver(map[uint64]uint64{1: 1 << 20})
	eng := NewEngine(tree, 10, reserve, nil)
	eng.NoSplit = true

	var pinned []uint64
	eng.ReadPage = func(_ context.Context, idx uint64) ([]byte, error) {
		pinned = append(pinned, idx)
		return make([]byte, eng.PageSize), nil
	}

	doneOff, blocksMigrated, err := eng.MigrateFile(context.Background(), item, uniformLocator(1), nil)
	require.NoError(t, err)
	require.EqualValues(t, 0, doneOff)
	require.EqualValues(t, 1, blocksMigrated)
	require.Len(t, pinned, 1)
	require.EqualValues(t, 1<<20-eng.PageSize, reserve.Available(1))
}

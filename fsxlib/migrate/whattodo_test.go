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

// uniformLocator always resolves to the same brick, for items that never
// cross a stripe boundary's destination.
func uniformLocator(brick uint64) Locator {
	return func(uint64) uint64 { return brick }
}

// steppedLocator resolves to before below boundary and after at or past
// it, simulating an item whose stripes straddle a brick reassignment.
func steppedLocator(boundary, before, after uint64) Locator {
	return func(off uint64) uint64 {
		if off < boundary {
			return before
		}
		return after
	}
}

func TestWhatToDoSkipsResidentItem(t *testing.T) {
	item := &Item{Extent{Offset: 0, Size: 30, Brick: 0}}
	ctx := NewContext(item)
	WhatToDo(ctx, uniformLocator(0), 10, nil)

	require.Equal(t, SkipExtent, ctx.Act)
	require.True(t, ctx.Stop)
	require.EqualValues(t, 0, ctx.StopOff)
}

func TestWhatToDoMigratesWholeItem(t *testing.T) {
	item := &Item{Extent{Offset: 0, Size: 30, Brick: 0}}
	ctx := NewContext(item)
	WhatToDo(ctx, uniformLocator(1), 10, nil)

	require.Equal(t, MigrateExtent, ctx.Act)
	require.True(t, ctx.MigrateWholeItem)
	require.EqualValues(t, 1, ctx.NewLoc)
	require.EqualValues(t, 0, ctx.StopOff)
}

func TestWhatToDoMigratesTailAcrossBoundary(t *testing.T) {
	item := &Item{Extent{Offset: 0, Size: 30, Brick: 0}}
	ctx := NewContext(item)
	// Everything at or past offset 20 now belongs on brick 1.
	WhatToDo(ctx, steppedLocator(20, 0, 1), 10, nil)

	require.Equal(t, MigrateExtent, ctx.Act)
	require.False(t, ctx.MigrateWholeItem)
	require.EqualValues(t, 1, ctx.NewLoc)
	require.EqualValues(t, 20, ctx.StopOff)
	require.EqualValues(t, 20, ctx.UnitSplitPos)
}

func TestWhatToDoSplitsAlreadyResidentTail(t *testing.T) {
	item := &Item{Extent{Offset: 0, Size: 30, Brick: 1}}
	ctx := NewContext(item)
	// Offsets past 20 already resolve to the item's own brick (1); only
	// the head still needs deciding.
	WhatToDo(ctx, steppedLocator(20, 0, 1), 10, nil)

	require.Equal(t, SplitExtent, ctx.Act)
	require.EqualValues(t, 20, ctx.StopOff)
	require.EqualValues(t, 20, ctx.UnitSplitPos)
}

func TestWhatToDoHonorsExplicitDestination(t *testing.T) {
	item := &Item{Extent{Offset: 0, Size: 30, Brick: 0}}
	ctx := NewContext(item)
	dst := uint64(2)
	// Locator is never consulted for the destination when dstID is set,
	// only for finding the boundary; make it agree everywhere so the
	// whole item is seen as homogeneous.
	WhatToDo(ctx, uniformLocator(2), 10, &dst)

	require.Equal(t, MigrateExtent, ctx.Act)
	require.True(t, ctx.MigrateWholeItem)
	require.EqualValues(t, 2, ctx.NewLoc)
}

func TestWhatToDoNoSplitSkipsResidentItem(t *testing.T) {
	item := &Item{Extent{Offset: 0, Size: 1000, Brick: 0}}
	ctx := NewContext(item)
	WhatToDoNoSplit(ctx, uniformLocator(0), 4096*8192, nil)

	require.Equal(t, SkipExtent, ctx.Act)
	require.True(t, ctx.Stop)
}

func TestWhatToDoNoSplitMigratesWholeSmallItem(t *testing.T) {
	item := &Item{Extent{Offset: 0, Size: 1000, Brick: 0}}
	ctx := NewContext(item)
	WhatToDoNoSplit(ctx, uniformLocator(1), 4096*8192, nil)

	require.Equal(t, MigrateExtent, ctx.Act)
	require.True(t, ctx.MigrateWholeItem)
	require.EqualValues(t, 0, ctx.StopOff)
}

func TestWhatToDoNoSplitMigratesTailOfOversizedItem(t *testing.T) {
	granularity := uint64(10)
	item := &Item{Extent{Offset: 0, Size: 100, Brick: 0}}
	ctx := NewContext(item)
	WhatToDoNoSplit(ctx, uniformLocator(1), granularity, nil)

	require.Equal(t, MigrateExtent, ctx.Act)
	require.False(t, ctx.MigrateWholeItem)
	require.EqualValues(t, 90, ctx.StopOff)
	require.EqualValues(t, 90, ctx.UnitSplitPos)
}

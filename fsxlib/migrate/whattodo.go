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

// Locator maps a byte offset within a file to the brick id that offset's
// stripe currently hashes to. A caller can build one over a distribution
// table by deriving a key from the file and off/stripeSize and passing it
// to dst.Lookup, then mapping the result to a brick id. WhatToDo and
// WhatToDoNoSplit never touch the table or the hash directly; they only
// need "where does this offset belong".
type Locator func(offset uint64) uint64

// WhatToDoNoSplit is the fast-path decision procedure used when the table
// reconfiguration guarantees every offset within an item maps to the same
// destination brick (migrate_whole_item-eligible moves, or moves where the
// caller supplies dstID directly rather than deriving it per offset). It
// never produces SplitExtent.
func WhatToDoNoSplit(ctx *Context, locate Locator, granularityBytes uint64, dstID *uint64) {
	item := ctx.Item
	newLoc := resolveDst(locate, item.Offset, dstID)
	ctx.NewLoc = newLoc

	switch {
	case item.Brick == newLoc:
		ctx.StopOff = item.Offset
		ctx.Stop = true
		ctx.Act = SkipExtent
	case item.Size <= granularityBytes:
		ctx.StopOff = item.Offset
		ctx.MigrateWholeItem = true
		ctx.Act = MigrateExtent
	default:
		ctx.StopOff = item.End() - granularityBytes
		ctx.UnitSplitPos = ctx.StopOff - item.Offset
		ctx.MigrateWholeItem = false
		ctx.Act = MigrateExtent
	}
}

// WhatToDo is the general decision procedure, used when a single item can
// straddle a stripe boundary and therefore cover more than one destination
// brick. It scans backward from the item's last stripe-aligned offset,
// stripeSize bytes at a time, looking for the point where Locator's answer
// changes; everything from there to the end of the item shares one
// destination and can move (or be left alone) as a unit, while everything
// before it is handed back to the caller as a still-undecided remainder
// via SplitExtent.
func WhatToDo(ctx *Context, locate Locator, stripeSize uint64, dstID *uint64) {
	item := ctx.Item

	off1 := alignDown(item.Offset, stripeSize)
	off2 := alignDown(item.End()-1, stripeSize)

	newLoc := resolveDst(locate, off2, dstID)
	ctx.NewLoc = newLoc

	splitOff := uint64(0)
	foundBoundary := false
	for off1 < off2 {
		off2 -= stripeSize
		if locate(off2) != newLoc {
			splitOff = off2 + stripeSize
			foundBoundary = true
			break
		}
	}

	if !foundBoundary {
		// The whole item maps to a single brick.
		ctx.StopOff = item.Offset
		if newLoc == item.Brick {
			ctx.Stop = true
			ctx.Act = SkipExtent
			return
		}
		ctx.MigrateWholeItem = true
		ctx.Act = MigrateExtent
		return
	}

	ctx.StopOff = splitOff
	if splitOff <= item.Offset {
		// The boundary falls exactly on the item's first byte: nothing
		// to split off, the item's tail (everything from splitOff on)
		// is the whole item.
		ctx.MigrateWholeItem = newLoc != item.Brick
		if !ctx.MigrateWholeItem {
			ctx.Stop = true
			ctx.Act = SkipExtent
			return
		}
		ctx.Act = MigrateExtent
		return
	}

	ctx.UnitSplitPos = splitOff - item.Offset
	if newLoc != item.Brick {
		ctx.MigrateWholeItem = false
		ctx.Act = MigrateExtent
		return
	}
	ctx.Act = SplitExtent
}

func resolveDst(locate Locator, offset uint64, dstID *uint64) uint64 {
	if dstID != nil {
		return *dstID
	}
	return locate(offset)
}

func alignDown(off, stripeSize uint64) uint64 {
	return off - off%stripeSize
}

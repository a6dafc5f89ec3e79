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

	"github.com/distvol/fsxvol-lib/xerrors"
	"github.com/distvol/fsxvol-lib/xlog"
)

// Engine drives a single file's items through the migration state machine:
// decide, then act, until the whole file (or as much of it as the caller
// asked for) either already sits where it belongs or has been moved there.
// It is the Go analogue of reiser4_migrate_extent plus the primitives it
// dispatches to.
type Engine struct {
	Tree        *ItemTree
	StripeSize  uint64
	PageSize    uint64
	Granularity int // pages, MIGRATION_GRANULARITY
	NoSplit     bool
	Reserve     *SpaceReserver
	Concurrency int
	ReadPage    PageReader
	log         *xlog.Logger
}

// NewEngine builds an Engine over tree. log may be nil, in which case
// logging is a no-op.
func NewEngine(tree *ItemTree, stripeSize uint64, reserve *SpaceReserver, log *xlog.Logger) *Engine {
	if log == nil {
		log = xlog.Nop()
	}
	return &Engine{
		Tree:        tree,
		StripeSize:  stripeSize,
		PageSize:    DefaultPageSize,
		Granularity: MigrationGranularityPages,
		Reserve:     reserve,
		Concurrency: 1,
		log:         log,
	}
}

// MigrateFile walks backward from start, the item covering the highest
// offset still in scope, migrating or splitting items until it reaches one
// that already sits on the right brick (or the file's first item). It
// returns the lowest offset reached (a valid done_off restart point if the
// caller has a deadline and needs to resume later) and the number of pages
// actually copied.
func (e *Engine) MigrateFile(goctx context.Context, start *Item, locate Locator, dstID *uint64) (doneOff uint64, blocksMigrated uint64, err error) {
	mc := NewContext(start)
	granularityBytes := uint64(e.Granularity) * e.PageSize

	for !mc.Stop {
		if e.NoSplit {
			WhatToDoNoSplit(mc, locate, granularityBytes, dstID)
		} else {
			WhatToDo(mc, locate, e.StripeSize, dstID)
		}

		switch mc.Act {
		case SkipExtent:
			doneOff = mc.StopOff
			e.log.Debugw("migration reached a resident item, stopping", "offset", mc.Item.Offset)
			e.Tree.MergeWithRight(mc.Item)
			return doneOff, blocksMigrated, nil

		case SplitExtent:
			e.log.Debugw("splitting item", "offset", mc.Item.Offset, "split_pos", mc.UnitSplitPos)
			if err := e.splitItem(mc); err != nil {
				return doneOff, blocksMigrated, err
			}

		case MigrateExtent:
			migrated, err := e.migrateBlocks(goctx, mc)
			if err != nil {
				return doneOff, blocksMigrated, err
			}
			blocksMigrated += migrated
			doneOff = mc.DoneOff

			if mc.MigrateWholeItem {
				mc.Stop = true
				break
			}
			next, ok := e.Tree.ItemContaining(mc.DoneOff - 1)
			if !ok {
				// The item was removed underneath the walk (e.g. by a
				// truncate): stop cleanly, keeping the progress made so far.
				e.log.Debugw("no item covers offset after migrating its successor, stopping", "offset", mc.DoneOff-1)
				return doneOff, blocksMigrated, nil
			}
			mc.Item = next
			mc.Act = InvalidAction

		default:
			return doneOff, blocksMigrated, xerrors.Wrapf(xerrors.ErrInternalInvariant,
				"migration decided an invalid action %v", mc.Act)
		}
	}
	return doneOff, blocksMigrated, nil
}

// splitItem carves mc.Item into two tree items at mc.UnitSplitPos, leaving
// mc.Item pointing at the leading (still-undecided) half so the next loop
// iteration re-runs WhatToDo on it; the trailing half is already known to
// need no further attention and is left untouched in the tree.
func (e *Engine) splitItem(mc *Context) error {
	item := mc.Item
	pos := mc.UnitSplitPos
	if pos == 0 || pos >= item.Size {
		return xerrors.Wrapf(xerrors.ErrInvalidArgument,
			"split position %d out of item bounds [0,%d)", pos, item.Size)
	}
	left := Extent{Offset: item.Offset, Size: pos, Brick: item.Brick}
	right := Extent{Offset: item.Offset + pos, Size: item.Size - pos, Brick: item.Brick}

	e.Tree.Delete(item)
	e.Tree.Insert(right)
	mc.Item = e.Tree.Insert(left)
	mc.Act = InvalidAction
	return nil
}

// migrateBlocks reserves space on the destination brick, pins and reads
// the pages in scope, and repoints them at the destination by rewriting
// the tree: either the whole item moves, or the item is cut into a
// still-resident head and a migrated tail, the portable equivalent of
// do_migrate_extent's whole-item rewrite and cut_off_tail/insert paths.
func (e *Engine) migrateBlocks(goctx context.Context, mc *Context) (uint64, error) {
	item := mc.Item

	var rangeStart uint64
	if mc.MigrateWholeItem {
		rangeStart = item.Offset
	} else {
		rangeStart = mc.StopOff
	}
	rangeEnd := item.End()
	if rangeEnd <= rangeStart {
		return 0, xerrors.Wrapf(xerrors.ErrInternalInvariant,
			"migration range is empty: [%d,%d)", rangeStart, rangeEnd)
	}
	nrBytes := rangeEnd - rangeStart
	nrPages := (nrBytes + e.PageSize - 1) / e.PageSize

	if e.Reserve != nil {
		if err := e.Reserve.Reserve(mc.NewLoc, nrPages*e.PageSize); err != nil {
			return 0, err
		}
	}

	if e.ReadPage != nil {
		firstPage := rangeStart / e.PageSize
		indices := make([]uint64, nrPages)
		for i := range indices {
			indices[i] = firstPage + uint64(i)
		}
		if _, err := PinPages(goctx, e.Concurrency, indices, e.ReadPage); err != nil {
			if e.Reserve != nil {
				e.Reserve.Release(mc.NewLoc, nrPages*e.PageSize)
			}
			return 0, err
		}
	}

	e.Tree.Delete(item)
	if mc.MigrateWholeItem {
		moved := e.Tree.Insert(Extent{Offset: item.Offset, Size: item.Size, Brick: mc.NewLoc})
		// The whole item now sits under a new key ordering (its brick
		// changed); try coalescing it with both neighbors the way
		// reiser4_migrate_extent does after a whole-item rewrite.
		e.Tree.MergeNeighbors(moved)
	} else {
		e.Tree.Insert(Extent{Offset: item.Offset, Size: rangeStart - item.Offset, Brick: item.Brick})
		tail := e.Tree.Insert(Extent{Offset: rangeStart, Size: rangeEnd - rangeStart, Brick: mc.NewLoc})
		// Only the right neighbor can already be on the destination
		// brick (migration walks back-to-front), mirroring the single
		// try_merge_with_right_item call after the cut_off_tail/insert
		// path.
		e.Tree.MergeWithRight(tail)
	}

	mc.DoneOff = rangeStart
	e.log.Infow("migrated extent range", "offset", rangeStart, "bytes", nrBytes, "dst", mc.NewLoc)
	return nrPages, nil
}

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

// Package migrate walks a file's extent items and moves the ones that no
// longer belong on their current brick, after a table reconfiguration, to
// wherever they belong now. In no-split mode each iteration moves at most
// MIGRATION_GRANULARITY worth of data from the tail of an item; in split
// mode an item is split where its destination changes and each iteration
// migrates one such run, whatever its size.
package migrate

import "github.com/google/btree"

// DefaultPageSize is the unit extent offsets and sizes are expressed in
// multiples of; it stands in for the page-cache granularity the original
// kernel implementation migrates at.
const DefaultPageSize = 4096

// MigrationGranularityPages bounds how many pages move in a single
// MIGRATE_EXTENT primitive in no-split mode (Engine.NoSplit), the direct
// analogue of MIGRATION_GRANULARITY; split mode does not use it.
const MigrationGranularityPages = 8192

// Extent is one contiguous run of a file's data, all currently owned by the
// same brick. It is the Go analogue of a reiser4 extent item: a byte range
// plus the id of the brick holding it.
type Extent struct {
	Offset uint64
	Size   uint64
	Brick  uint64
}

// End returns the offset one past the last byte of the extent.
func (e Extent) End() uint64 { return e.Offset + e.Size }

// Item is the B-tree node wrapping an Extent, ordered by Offset. It plays
// the role the original's coord_t/item pair plays: a located, addressable
// position in the file's item stream.
type Item struct {
	Extent
}

// Less implements btree.Item.
func (a *Item) Less(than btree.Item) bool {
	return a.Offset < than.(*Item).Offset
}

// ItemTree is an ordered index of a single file's extent items, keyed by
// starting offset. google/btree stands in for the out-of-scope tree/node
// plugin collaborator: real deployments keep extents in the volume's
// on-disk B-tree, but the migration decision procedure only ever needs
// ordered lookup and cut/insert, which is exactly what ItemTree exposes.
type ItemTree struct {
	t *btree.BTree
}

// NewItemTree returns an empty tree.
func NewItemTree() *ItemTree {
	return &ItemTree{t: btree.New(32)}
}

// Insert adds (or replaces, by offset) an extent.
func (it *ItemTree) Insert(e Extent) *Item {
	item := &Item{e}
	it.t.ReplaceOrInsert(item)
	return item
}

// Delete removes item from the tree.
func (it *ItemTree) Delete(item *Item) {
	it.t.Delete(item)
}

// ItemContaining returns the item whose range covers offset, if any.
func (it *ItemTree) ItemContaining(offset uint64) (*Item, bool) {
	var found *Item
	it.t.DescendLessOrEqual(&Item{Extent{Offset: offset}}, func(i btree.Item) bool {
		candidate := i.(*Item)
		if offset < candidate.End() {
			found = candidate
		}
		return false
	})
	if found == nil {
		return nil, false
	}
	return found, true
}

// Ascend walks every item in offset order, stopping early if fn returns
// false.
func (it *ItemTree) Ascend(fn func(*Item) bool) {
	it.t.Ascend(func(i btree.Item) bool { return fn(i.(*Item)) })
}

// Last returns the item with the greatest offset, the starting point for a
// backward migration walk over a whole file (reiser4_migrate_extent always
// starts from a file's last item).
func (it *ItemTree) Last() (*Item, bool) {
	i := it.t.Max()
	if i == nil {
		return nil, false
	}
	return i.(*Item), true
}

// Len returns the number of items currently in the tree.
func (it *ItemTree) Len() int { return it.t.Len() }

// Next returns the item immediately to the right of item (the smallest
// offset strictly greater than item's), if any.
func (it *ItemTree) Next(item *Item) (*Item, bool) {
	var found *Item
	it.t.AscendGreaterOrEqual(item, func(i btree.Item) bool {
		cand := i.(*Item)
		if cand.Offset > item.Offset {
			found = cand
			return false
		}
		return true
	})
	if found == nil {
		return nil, false
	}
	return found, true
}

// Prev returns the item immediately to the left of item (the greatest
// offset strictly less than item's), if any.
func (it *ItemTree) Prev(item *Item) (*Item, bool) {
	var found *Item
	it.t.DescendLessOrEqual(item, func(i btree.Item) bool {
		cand := i.(*Item)
		if cand.Offset < item.Offset {
			found = cand
			return false
		}
		return true
	})
	if found == nil {
		return nil, false
	}
	return found, true
}

// MergeWithRight coalesces item with its right neighbor when they are
// adjacent (neighbor.Offset == item.End()) and share the same Brick,
// replacing both tree entries with a single wider extent. It returns the
// resulting item, or item unchanged if no merge applied. The Go analogue
// of try_merge_with_right_item.
func (it *ItemTree) MergeWithRight(item *Item) *Item {
	next, ok := it.Next(item)
	if !ok || next.Offset != item.End() || next.Brick != item.Brick {
		return item
	}
	merged := Extent{Offset: item.Offset, Size: item.Size + next.Size, Brick: item.Brick}
	it.Delete(item)
	it.Delete(next)
	return it.Insert(merged)
}

// MergeWithLeft coalesces item with its left neighbor when they are
// adjacent (item.Offset == neighbor.End()) and share the same Brick. The
// Go analogue of try_merge_with_left_item.
func (it *ItemTree) MergeWithLeft(item *Item) *Item {
	prev, ok := it.Prev(item)
	if !ok || prev.End() != item.Offset || prev.Brick != item.Brick {
		return item
	}
	merged := Extent{Offset: prev.Offset, Size: prev.Size + item.Size, Brick: item.Brick}
	it.Delete(item)
	it.Delete(prev)
	return it.Insert(merged)
}

// MergeNeighbors tries a right-merge then a left-merge against item,
// mirroring reiser4_migrate_extent's try_merge_with_right_item followed by
// try_merge_with_left_item after a whole item has been rewritten onto its
// new brick.
func (it *ItemTree) MergeNeighbors(item *Item) *Item {
	item = it.MergeWithRight(item)
	item = it.MergeWithLeft(item)
	return item
}

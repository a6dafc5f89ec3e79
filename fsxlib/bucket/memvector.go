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

package bucket

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Brick is the concrete bucket record MemVector hands back through Bucket.
type Brick struct {
	ID     uint64
	Cap    uint64
	fiber  []uint32
}

// MemVector is a slice-backed Vector, the default collaborator for tests and
// for standalone use of the distribution core outside of a full volume.
//
// It keeps CapAt results in an LRU (capCache) so repeated lookups during
// calibration skip the brick slice. Package volume's vector reads brick
// capacities directly and has no such cache.
type MemVector struct {
	bricks   []*Brick
	capCache *lru.Cache[int, uint64]
}

// NewMemVector builds a vector from the given bricks, in position order.
func NewMemVector(bricks ...*Brick) *MemVector {
	cache, _ := lru.New[int, uint64](256)
	return &MemVector{bricks: bricks, capCache: cache}
}

func (v *MemVector) NumBuckets() int { return len(v.bricks) }

func (v *MemVector) CapAt(i int) uint64 {
	if c, ok := v.capCache.Get(i); ok {
		return c
	}
	c := v.bricks[i].Cap
	v.capCache.Add(i, c)
	return c
}

func (v *MemVector) Idx2ID(i int) uint64 { return v.bricks[i].ID }

func (v *MemVector) ID2Idx(id uint64) int {
	for i, b := range v.bricks {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func (v *MemVector) FiberAt(i int) []uint32 { return v.bricks[i].fiber }

func (v *MemVector) SetFiberAt(i int, fib []uint32) {
	v.bricks[i].fiber = fib
	v.capCache.Remove(i)
}

func (v *MemVector) FiberOf(b Bucket) []uint32 {
	br, ok := b.(*Brick)
	if !ok {
		return nil
	}
	return br.fiber
}

// SpaceOccupied reports the sum of the bricks' capacities: MemVector bricks
// do not track occupancy, so every brick counts as full.
func (v *MemVector) SpaceOccupied() uint64 {
	var total uint64
	for _, b := range v.bricks {
		total += b.Cap
	}
	return total
}

// Insert adds b at position pos, shifting the tail right. Used by callers
// preparing the "new" vector for dst.Inc ahead of calling it.
func (v *MemVector) Insert(pos int, b *Brick) {
	v.bricks = append(v.bricks, nil)
	copy(v.bricks[pos+1:], v.bricks[pos:])
	v.bricks[pos] = b
	v.capCache.Purge()
}

// Remove deletes the bucket at position pos and returns it. Used by callers
// preparing the surviving vector ahead of calling dst.Dec.
func (v *MemVector) Remove(pos int) *Brick {
	b := v.bricks[pos]
	v.bricks = append(v.bricks[:pos], v.bricks[pos+1:]...)
	v.capCache.Purge()
	return b
}

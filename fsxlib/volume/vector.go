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

import "github.com/distvol/fsxvol-lib/bucket"

// vectorView adapts a Registry's active bricks to bucket.Vector, the
// collaborator package dst consumes. It is the volume layer's concrete
// bucket_ops implementation, taking the place MemVector plays in tests.
type vectorView struct {
	reg *Registry
}

func newVectorView(reg *Registry) *vectorView { return &vectorView{reg: reg} }

func (v *vectorView) NumBuckets() int { return v.reg.NumActive() }

func (v *vectorView) CapAt(i int) uint64 { return v.reg.ActiveAt(i).Cap }

func (v *vectorView) Idx2ID(i int) uint64 { return v.reg.ActiveAt(i).ID }

func (v *vectorView) ID2Idx(id uint64) int { return v.reg.PositionOf(id) }

func (v *vectorView) FiberAt(i int) []uint32 { return v.reg.ActiveAt(i).fiber }

func (v *vectorView) SetFiberAt(i int, fib []uint32) { v.reg.ActiveAt(i).fiber = fib }

func (v *vectorView) FiberOf(b bucket.Bucket) []uint32 {
	br, ok := b.(*Brick)
	if !ok {
		return nil
	}
	return br.fiber
}

// SpaceOccupied sums actual occupied bytes, not raw capacity: this is the
// quantity check_space-style pre-flight checks need, since a brick can be
// far from full even at a large advertised capacity.
func (v *vectorView) SpaceOccupied() uint64 {
	var total uint64
	for i := 0; i < v.reg.NumActive(); i++ {
		total += v.reg.ActiveAt(i).Occupied
	}
	return total
}

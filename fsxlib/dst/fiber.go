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

import "github.com/distvol/fsxvol-lib/bucket"

// CreateFibers rebuilds the fiber of every bucket in [0, numb) from tab,
// sized exactly to weights. It is the Go analogue of create_fibers +
// init_fibers_by_tab: fibers are allocated to their final length up front
// and populated by a single left-to-right walk of tab, so
// len(fiber[i]) == weights[i] holds the moment the walk completes.
func CreateFibers(vec bucket.Vector, numb int, tab []uint32, weights []uint32) {
	fibs := make([][]uint32, numb)
	pos := make([]uint32, numb)
	for i := 0; i < numb; i++ {
		fibs[i] = make([]uint32, weights[i])
	}
	for slot, id := range tab {
		i := vec.ID2Idx(uint64(id))
		fibs[i][pos[i]] = uint32(slot)
		pos[i]++
	}
	for i := 0; i < numb; i++ {
		vec.SetFiberAt(i, fibs[i])
	}
}

// ReleaseFibers frees the fiber slot of every bucket in [0, numb); fibers
// are transient reconfiguration scaffolding, never persisted.
func ReleaseFibers(vec bucket.Vector, numb int) {
	for i := 0; i < numb; i++ {
		vec.SetFiberAt(i, nil)
	}
}

// ReplaceFibers releases the old fibers (sized oldNumb) and builds fresh
// ones (sized newNumb) from tab and the newly calibrated weights.
func ReplaceFibers(vec bucket.Vector, oldNumb, newNumb int, tab []uint32, newWeights []uint32) {
	ReleaseFibers(vec, oldNumb)
	CreateFibers(vec, newNumb, tab, newWeights)
}

// NewSystemTable assembles a system table of size sum(weights) from
// scratch, assigning each bucket a contiguous run of slots in index order.
// It gives a multi-bucket vector a starting table that can be passed to
// InitV as its tab argument; InitV does not call it.
func NewSystemTable(vec bucket.Vector, weights []uint32) []uint32 {
	var nums uint32
	for _, w := range weights {
		nums += w
	}
	tab := make([]uint32, nums)
	k := 0
	for i, w := range weights {
		id := uint32(vec.Idx2ID(i))
		for j := uint32(0); j < w; j++ {
			tab[k] = id
			k++
		}
	}
	return tab
}

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

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/distvol/fsxvol-lib/bucket"
	"github.com/distvol/fsxvol-lib/xerrors"
)

// CheckSpace verifies that, after a remove/shrink settles to numb buckets
// sharing occ bytes of occupied space, every remaining bucket's capacity
// still covers its calibrated share. Callers run this before committing to
// Dec, since Dec itself has no way to back out of a partially rebalanced
// table once it returns.
func CheckSpace(vec bucket.Vector, numb int, occ uint64) error {
	required := Calibrate64(numb, occ, vec.CapAt)
	for i := 0; i < numb; i++ {
		if vec.CapAt(i) < required[i] {
			return xerrors.Wrapf(xerrors.ErrNoSpace,
				"brick %d capacity %d below required %d", i, vec.CapAt(i), required[i])
		}
	}
	return nil
}

// Dec reconfigures the table for a brick being removed at targetPos.
// victimFiber is the fiber of the departing brick (fiber.FiberOf), used as
// the source of segments to redistribute when removing is true; when
// removing is false, targetPos names a brick shrinking in place (e.g. a
// resize) and its own fiber tail is the source instead.
func (d *Dcx) Dec(vec bucket.Vector, tab []uint32, targetPos int, victimFiber []uint32, removing bool) (*Reconfigured, error) {
	if err := debugAssertf(d.Numb > 1, "dec requires more than one bucket, have %d", d.Numb); err != nil {
		return nil, err
	}

	newNumb := d.Numb
	if removing {
		newNumb--
	}
	nums := uint64(1) << d.NumsBits

	work := append([]uint32(nil), tab...)
	newWeights := Calibrate32(newNumb, uint32(nums), vec.CapAt)
	changed := roaring.New()

	if err := balanceDec(work, d.Weights, newWeights, targetPos, vec, victimFiber, removing, changed); err != nil {
		return nil, err
	}
	ReleaseFibers(vec, newNumb)

	d.Weights = newWeights
	d.Numb = newNumb
	return &Reconfigured{Tab: work, Changed: changed}, nil
}

// balanceDec is the Go analogue of balance_dec: it redistributes the
// shortage (how much every remaining bucket's weight just grew by) out of
// a single source fiber, either the departing bucket's own fiber or the
// shrinking target's own tail.
func balanceDec(tab []uint32, oldWeights, newWeights []uint32, targetPos int, vec bucket.Vector, victimFiber []uint32, removing bool, changed *roaring.Bitmap) error {
	newNumb := len(newWeights)
	if err := debugAssertf(targetPos >= 0 && targetPos <= newNumb, "dec target_pos %d out of range", targetPos); err != nil {
		return err
	}

	sho := make([]uint32, newNumb)
	for i := 0; i < targetPos; i++ {
		sho[i] = newWeights[i] - oldWeights[i]
	}
	for i := targetPos; i < newNumb; i++ {
		if removing {
			sho[i] = newWeights[i] - oldWeights[i+1]
		} else {
			sho[i] = newWeights[i] - oldWeights[i]
		}
	}

	var source []uint32
	var off uint32
	if removing {
		source = victimFiber
		off = 0
	} else {
		source = vec.FiberAt(targetPos)
		off = oldWeights[targetPos] - newWeights[targetPos]
	}

	for i := 0; i < targetPos; i++ {
		id := uint32(vec.Idx2ID(i))
		for j := uint32(0); j < sho[i]; j++ {
			slot := source[off]
			tab[slot] = id
			changed.Add(slot)
			off++
		}
	}
	for i := targetPos; i < newNumb; i++ {
		id := uint32(vec.Idx2ID(i))
		for j := uint32(0); j < sho[i]; j++ {
			slot := source[off]
			tab[slot] = id
			changed.Add(slot)
			off++
		}
	}
	return nil
}

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

// Inc reconfigures the table for a brick being inserted at targetPos. When
// isNewBucket is true, targetPos names a slot in vec that did not exist
// before this call (numb grows by one); when false, it names an existing
// bucket whose capacity just grew in place (e.g. a resize), and numb is
// unchanged. It returns a freshly built table; tab itself is never mutated.
func (d *Dcx) Inc(vec bucket.Vector, tab []uint32, targetPos int, isNewBucket bool) (*Reconfigured, error) {
	newNumb := d.Numb
	if isNewBucket {
		if d.Numb == MaxBuckets {
			return nil, xerrors.Wrapf(xerrors.ErrInvalidArgument, "bucket count already at MAX_BUCKETS")
		}
		newNumb++
	}
	nums := uint64(1) << d.NumsBits
	if uint64(newNumb) > nums {
		return nil, xerrors.Wrapf(xerrors.ErrInvalidArgument,
			"cannot add bucket: current table resolution (%d slots) exhausted", nums)
	}

	work := append([]uint32(nil), tab...)
	newWeights := Calibrate32(newNumb, uint32(nums), vec.CapAt)
	changed := roaring.New()

	// Build the working fibers from tab and the old weights, indexed by
	// position in vec; a new bucket at targetPos owns no slot yet.
	fibWeights := d.Weights
	if isNewBucket {
		fibWeights = make([]uint32, 0, newNumb)
		fibWeights = append(fibWeights, d.Weights[:targetPos]...)
		fibWeights = append(fibWeights, 0)
		fibWeights = append(fibWeights, d.Weights[targetPos:]...)
	}
	CreateFibers(vec, newNumb, tab, fibWeights)

	if err := balanceInc(work, d.Weights, newWeights, targetPos, vec, isNewBucket, changed); err != nil {
		return nil, err
	}
	ReleaseFibers(vec, newNumb)

	d.Weights = newWeights
	d.Numb = newNumb
	return &Reconfigured{Tab: work, Changed: changed}, nil
}

// balanceInc is the Go analogue of balance_inc: it steals trailing fiber
// segments from every bucket other than targetPos and hands them to
// targetPos, exactly as many as each bucket's weight just shrank by.
func balanceInc(tab []uint32, oldWeights, newWeights []uint32, targetPos int, vec bucket.Vector, isNew bool, changed *roaring.Bitmap) error {
	newNumb := len(newWeights)
	if err := debugAssertf(targetPos >= 0 && targetPos < newNumb, "inc target_pos %d out of range", targetPos); err != nil {
		return err
	}

	exc := make([]uint32, newNumb)
	for i := 0; i < targetPos; i++ {
		exc[i] = oldWeights[i] - newWeights[i]
	}
	for i := targetPos + 1; i < newNumb; i++ {
		if isNew {
			exc[i] = oldWeights[i-1] - newWeights[i]
		} else {
			exc[i] = oldWeights[i] - newWeights[i]
		}
	}

	targetID := uint32(vec.Idx2ID(targetPos))

	// steal segments of all fibers to the left of target_pos
	for i := 0; i < targetPos; i++ {
		fib := vec.FiberAt(i)
		for j := uint32(0); j < exc[i]; j++ {
			slot := fib[newWeights[i]+j]
			tab[slot] = targetID
			changed.Add(slot)
		}
	}
	// steal segments of all fibers to the right of target_pos
	for i := targetPos + 1; i < newNumb; i++ {
		fib := vec.FiberAt(i)
		for j := uint32(0); j < exc[i]; j++ {
			slot := fib[newWeights[i]+j]
			tab[slot] = targetID
			changed.Add(slot)
		}
	}
	return nil
}

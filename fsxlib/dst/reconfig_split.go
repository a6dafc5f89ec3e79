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

// Split doubles (or more generally, multiplies by 1<<factBits) the table's
// resolution in place, stretching every existing slot into factor copies
// and then rebalancing the stretched, necessarily-uneven result against
// the freshly calibrated weights at the new resolution. It is the only
// reconfiguration operator that changes NumsBits rather than Numb.
func (d *Dcx) Split(vec bucket.Vector, tab []uint32, factBits uint) (*Reconfigured, error) {
	if d.NumsBits+factBits > MaxShift {
		return nil, xerrors.Wrapf(xerrors.ErrInvalidArgument,
			"nums_bits %d + fact_bits %d exceeds MAX_SHIFT", d.NumsBits, factBits)
	}
	newNumsBits := d.NumsBits + factBits
	newNums := uint32(1) << newNumsBits
	newWeights := Calibrate32(d.Numb, newNums, vec.CapAt)

	work, changed, err := balanceSplit(vec, tab, d.Numb, d.NumsBits, d.Weights, newWeights, factBits)
	if err != nil {
		return nil, err
	}
	d.Weights = newWeights
	d.NumsBits = newNumsBits
	return &Reconfigured{Tab: work, Changed: changed}, nil
}

// balanceSplit is the Go analogue of balance_spl. nums % numb buckets end
// up with one extra stretched slot relative to their new calibrated share
// (the "excess" buckets, always the leading numExc buckets by the same
// remainder-assignment rule calibrate uses); the remaining numSho buckets
// are short by the complementary amount. Segments move straight from the
// excess buckets' fibers to the shortage buckets, with no third party
// bucket involved. Only those relocated segments are reported as changed:
// every other stretched slot inherits its parent slot's brick and needs no
// migration.
func balanceSplit(vec bucket.Vector, tab []uint32, numb int, numsBits uint, oldWeights, newWeights []uint32, factBits uint) ([]uint32, *roaring.Bitmap, error) {
	nums := uint32(1) << numsBits
	factor := uint32(1) << factBits
	changed := roaring.New()

	numExc := int(nums) % numb
	numSho := numb - numExc

	stretched := make([]uint32, uint64(len(tab))*uint64(factor))
	for i, id := range tab {
		base := uint32(i) * factor
		for j := uint32(0); j < factor; j++ {
			stretched[base+j] = id
		}
	}

	if numExc == 0 {
		ReleaseFibers(vec, numb)
		return stretched, changed, nil
	}

	// exc holds the leading numExc buckets (the ones calibrate's remainder
	// rule over-granted relative to their doubled old share); sho holds
	// the trailing numSho buckets, addressed here relative to their own
	// base (numExc+i), which is where the segments they're short of
	// actually land.
	exc := make([]uint32, numExc)
	sho := make([]uint32, numSho)
	for i := 0; i < numExc; i++ {
		exc[i] = factor*oldWeights[i] - newWeights[i]
	}
	for i := 0; i < numSho; i++ {
		sho[i] = newWeights[numExc+i] - factor*oldWeights[numExc+i]
	}

	stretchedOld := make([]uint32, numb)
	for i := range stretchedOld {
		stretchedOld[i] = oldWeights[i] * factor
	}
	ReplaceFibers(vec, numb, numb, stretched, stretchedOld)

	var numReloc uint32
	for i := 0; i < numExc; i++ {
		numReloc += exc[i]
	}
	reloc := make([]uint32, 0, numReloc)
	for i := 0; i < numExc; i++ {
		fib := vec.FiberAt(i)
		for j := uint32(0); j < exc[i]; j++ {
			reloc = append(reloc, fib[newWeights[i]+j])
		}
	}

	k := 0
	for i := 0; i < numSho; i++ {
		id := uint32(vec.Idx2ID(numExc + i))
		for j := uint32(0); j < sho[i]; j++ {
			slot := reloc[k]
			stretched[slot] = id
			changed.Add(slot)
			k++
		}
	}

	ReleaseFibers(vec, numb)
	return stretched, changed, nil
}

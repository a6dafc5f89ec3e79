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

import "github.com/distvol/fsxvol-lib/xmath"

// calibrate distributes a budget val across num buckets, proportional to
// capAt(i), writing the result into out (which must have length num).
//
// Do not reorder the remainder loop at the end of this function: which
// index absorbs the rounding remainder is format-critical. A table built
// with a different remainder order is byte-incompatible with one built by
// this implementation, even though both satisfy sum(out) == val.
func calibrate(num int, val uint64, capAt func(i int) uint64, out []uint64) {
	var sumCap uint64
	for i := 0; i < num; i++ {
		sumCap += capAt(i)
	}
	var sumScaled uint64
	for i := 0; i < num; i++ {
		q, _ := xmath.SafeMul(val, capAt(i))
		r := q / sumCap
		out[i] = r
		sumScaled += r
	}
	rest := val - sumScaled
	for i := uint64(0); i < rest; i++ {
		out[i] += 1
	}
}

// Calibrate32 distributes val (typically nums, the table size) across num
// buckets as per-bucket weights. The result sums to val exactly.
func Calibrate32(num int, val uint32, capAt func(i int) uint64) []uint32 {
	wide := make([]uint64, num)
	calibrate(num, uint64(val), capAt, wide)
	out := make([]uint32, num)
	for i, w := range wide {
		out[i] = uint32(w)
	}
	return out
}

// Calibrate64 distributes val (typically occupied space) across num
// buckets; used by the pre-flight space check ahead of remove/resize ops,
// where the budget and the per-bucket shares can both exceed 32 bits.
func Calibrate64(num int, val uint64, capAt func(i int) uint64) []uint64 {
	out := make([]uint64, num)
	calibrate(num, val, capAt, out)
	return out
}

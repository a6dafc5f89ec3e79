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

// Package xmath holds small arithmetic helpers: overflow-checked
// multiplication, which the calibrator uses for a budget times a per-bucket
// capacity, and ceiling division.
package xmath

import "math/bits"

// SafeMul returns x*y and reports whether the product overflowed 64 bits.
func SafeMul(x, y uint64) (uint64, bool) {
	hi, lo := bits.Mul64(x, y)
	return lo, hi != 0
}

// SafeAdd returns x+y and reports whether the sum overflowed 64 bits.
func SafeAdd(x, y uint64) (uint64, bool) {
	sum, carryOut := bits.Add64(x, y, 0)
	return sum, carryOut != 0
}

// AbsoluteDifference returns |x-y| without relying on signed arithmetic.
func AbsoluteDifference(x, y uint64) uint64 {
	if x > y {
		return x - y
	}
	return y - x
}

// CeilDiv returns ceil(x/y), or 0 if y is 0.
func CeilDiv(x, y int) int {
	if y == 0 {
		return 0
	}
	return (x + y - 1) / y
}

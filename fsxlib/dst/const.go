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

// Package dst implements FSX32: a weighted, balanced, fiber-striped
// distribution table over a 32-bit hash space. It maps hash slots to bricks
// by capacity and supports insert/remove/resize/split with minimal data
// movement.
//
// The package is synchronous and non-suspending: every exported function is
// pure in-memory array manipulation. Callers (package volume) are
// responsible for serializing access via a busy flag and for publishing a
// freshly built table with a single atomic pointer swap.
package dst

const (
	// MaxShift bounds nums_bits: nums = 1<<nums_bits must fit a uint32
	// slot count while leaving headroom for Split to grow it further.
	MaxShift = 31
	// MaxBuckets is the hard ceiling on the number of live bricks.
	MaxBuckets = 1 << MaxShift
	// MinNumsBits is the smallest resolution a table may be initialized
	// at; tables below this would leave too few slots per brick to
	// calibrate meaningfully.
	MinNumsBits = 10
)

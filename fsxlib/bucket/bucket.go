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

// Package bucket defines the external bucket-vector collaborator the
// distribution core consumes (spec §6's "Bucket-vector interface"). The
// core never depends on a concrete brick type: it dispatches through this
// interface, the Go equivalent of the C callback vector (bucket_ops).
package bucket

// Bucket is an opaque handle to a single brick. The distribution core never
// inspects a Bucket's fields; it only ever passes one back to Vector.
type Bucket any

// Vector is the ordered sequence of bricks participating in a volume. It is
// implemented by the volume layer (package volume) and consumed by package
// dst; the in-memory MemVector in this package exists for tests and for
// standalone use of the distribution core.
type Vector interface {
	// NumBuckets returns the number of live buckets in the vector.
	NumBuckets() int

	// CapAt returns the capacity (in abstract space units) of the bucket
	// at position i.
	CapAt(i int) uint64

	// Idx2ID translates a position in the vector to the opaque 64-bit
	// brick identifier stored in the system table.
	Idx2ID(i int) uint64

	// ID2Idx is the inverse of Idx2ID.
	ID2Idx(id uint64) int

	// FiberAt returns the fiber (ascending slot indices) currently
	// associated with the bucket at position i. The returned slice is
	// owned by the vector until SetFiberAt or ReleaseFibers clears it.
	FiberAt(i int) []uint32

	// SetFiberAt installs fib as the fiber for position i.
	SetFiberAt(i int, fib []uint32)

	// FiberOf returns the fiber belonging to a bucket that may not be a
	// member of the current vector (e.g. a bucket mid-removal).
	FiberOf(b Bucket) []uint32

	// SpaceOccupied returns the total space occupied across all buckets,
	// used by pre-flight space checks ahead of remove/resize operations.
	SpaceOccupied() uint64
}

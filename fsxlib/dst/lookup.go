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

import "github.com/spaolacci/murmur3"

// Lookup returns the brick id currently owning key, given a table built at
// resolution numsBits. It is a pure read: constant-time, no locking beyond
// whatever snapshot discipline the caller applies to tab itself (a single
// atomic pointer read is enough, since tab is never mutated in place).
func Lookup(tab []uint32, numsBits uint, key []byte, seed uint32) uint32 {
	h := murmur3.Sum32WithSeed(key, seed)
	return tab[h>>(32-numsBits)]
}

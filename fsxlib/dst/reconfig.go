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

import "github.com/RoaringBitmap/roaring/v2"

// Reconfigured is the result of Inc, Dec or Split: the freshly built table
// plus the exact set of slots it rewrote relative to the table it started
// from. Changed is tracked incrementally as each operator touches a slot,
// not recovered afterwards by diffing the whole table against its
// predecessor, so callers that only need to know what moved (e.g. to queue
// extent migrations for just those slots) never pay for a second full scan.
type Reconfigured struct {
	Tab     []uint32
	Changed *roaring.Bitmap
}

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

package migrate

import (
	"sync"

	"github.com/distvol/fsxvol-lib/xerrors"
)

// SpaceReserver tracks, per brick, how many bytes are still available for
// incoming migrations. Engine calls Reserve before copying a single run of
// blocks so a migration that discovers mid-flight there isn't room on the
// destination brick fails cleanly instead of wedging the file half-moved,
// the Go analogue of the reservation reiser4 takes out before
// write_extent_item.
type SpaceReserver struct {
	mu        sync.Mutex
	available map[uint64]uint64
}

// NewSpaceReserver seeds a reserver with the free space currently reported
// for each brick id.
func NewSpaceReserver(available map[uint64]uint64) *SpaceReserver {
	r := &SpaceReserver{available: make(map[uint64]uint64, len(available))}
	for id, bytes := range available {
		r.available[id] = bytes
	}
	return r
}

// Reserve debits bytes from brick's budget, failing with ErrNoSpace and
// leaving the budget untouched if there isn't enough left.
func (r *SpaceReserver) Reserve(brick uint64, bytes uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	have, ok := r.available[brick]
	if !ok || have < bytes {
		return xerrors.Wrapf(xerrors.ErrNoSpace, "brick %d: need %d bytes, have %d", brick, bytes, have)
	}
	r.available[brick] = have - bytes
	return nil
}

// Release credits bytes back to brick's budget. The engine uses it to hand
// back an iteration's reservation when pinning that iteration's pages fails.
func (r *SpaceReserver) Release(brick uint64, bytes uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.available[brick] += bytes
}

// Available reports brick's current budget, mainly for tests.
func (r *SpaceReserver) Available(brick uint64) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.available[brick]
}

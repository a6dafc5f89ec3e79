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

package volume

import (
	"github.com/tidwall/btree"

	"github.com/distvol/fsxvol-lib/xerrors"
)

// Brick is the concrete, volume-owned record for one underlying device.
// It plays the role bucket.Brick plays for the in-memory test vector, with
// the fields the volume layer itself needs: a path for re-registration
// across mounts, the proxy flag ADD_PROXY sets, and a live fiber slot for
// whichever position it currently occupies in the distribution table.
type Brick struct {
	ID       uint64
	Path     string
	Cap      uint64
	Occupied uint64
	Proxy    bool
	Immobile bool

	fiber []uint32
}

func brickLess(a, b *Brick) bool { return a.ID < b.ID }

// Registry is the set of bricks ever REGISTER_BRICKed with this volume,
// ordered by id. It backs PRINT_VOLUME's id-ordered listing and
// find-by-id lookups independent of the bricks' current table position;
// tidwall/btree stands in for the "bucket info tree" §9's design notes
// describe as part of the volume's global current context.
type Registry struct {
	t *btree.BTreeG[*Brick]
	// order is the position-ordered list of currently *active* bricks
	// (i.e. the ones participating in the distribution table), the
	// sequence dst.Dcx's bucket.Vector indexes into. A registered brick
	// that has not yet been ADD_BRICKed has no entry here.
	order []uint64
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{t: btree.NewBTreeG(brickLess)}
}

// Register adds a brick to the registry without placing it in the active
// table order; it becomes addressable by PrintBrick/ResizeBrick but plays
// no part in lookups until AddBrick (or AddProxy) activates it.
func (r *Registry) Register(b *Brick) error {
	if _, ok := r.t.Get(&Brick{ID: b.ID}); ok {
		return xerrors.Wrapf(xerrors.ErrInvalidArgument, "brick %d already registered", b.ID)
	}
	r.t.Set(b)
	return nil
}

// Unregister removes a brick entirely; it must not be active.
func (r *Registry) Unregister(id uint64) error {
	for _, active := range r.order {
		if active == id {
			return xerrors.Wrapf(xerrors.ErrBusy, "brick %d is active, remove it before unregistering", id)
		}
	}
	_, ok := r.t.Delete(&Brick{ID: id})
	if !ok {
		return xerrors.Wrapf(xerrors.ErrInvalidArgument, "brick %d not registered", id)
	}
	return nil
}

// Get returns the brick with the given id, if registered.
func (r *Registry) Get(id uint64) (*Brick, bool) {
	return r.t.Get(&Brick{ID: id})
}

// Ascend walks every registered brick in id order, stopping early if fn
// returns false. Used by PRINT_VOLUME.
func (r *Registry) Ascend(fn func(*Brick) bool) {
	r.t.Scan(func(b *Brick) bool { return fn(b) })
}

// Activate appends id to the active, position-ordered set at the given
// position, shifting the tail right.
func (r *Registry) Activate(pos int, id uint64) {
	r.order = append(r.order, 0)
	copy(r.order[pos+1:], r.order[pos:])
	r.order[pos] = id
}

// Deactivate removes the brick at pos from the active set, without
// unregistering it.
func (r *Registry) Deactivate(pos int) uint64 {
	id := r.order[pos]
	r.order = append(r.order[:pos], r.order[pos+1:]...)
	return id
}

// NumActive returns the number of bricks currently participating in the
// distribution table.
func (r *Registry) NumActive() int { return len(r.order) }

// ActiveAt returns the brick active at position i.
func (r *Registry) ActiveAt(i int) *Brick {
	b, _ := r.Get(r.order[i])
	return b
}

// PositionOf returns the active position of id, or -1 if it isn't active.
func (r *Registry) PositionOf(id uint64) int {
	for i, active := range r.order {
		if active == id {
			return i
		}
	}
	return -1
}

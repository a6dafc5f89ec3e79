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
	"encoding/json"
	"os"

	"github.com/distvol/fsxvol-lib/xerrors"
)

// Snapshot is the JSON-serializable form of everything a fresh fsxvolctl
// invocation needs to pick a volume back up where the previous invocation
// left it: the registry (including inactive, merely-registered bricks),
// the active order, each active brick's fiber, the distribution context's
// weights, and the persisted reconfiguration state. That state includes
// the system table itself (CurrentTable, and PreviousTable while a
// reconfiguration is in flight), so the table travels in the snapshot too.
type Snapshot struct {
	Bricks      []Brick  `json:"bricks"`
	ActiveOrder []uint64 `json:"active_order"`
	Fibers      map[uint64][]uint32 `json:"fibers"`

	Numb     int      `json:"numb"`
	NumsBits uint     `json:"nums_bits"`
	Weights  []uint32 `json:"weights"`

	State State `json:"state"`
}

// Snapshot captures v's full bookkeeping state for serialization.
func (v *Volume) Snapshot() Snapshot {
	snap := Snapshot{
		ActiveOrder: append([]uint64(nil), v.reg.order...),
		Fibers:      make(map[uint64][]uint32, len(v.reg.order)),
		Numb:        v.dcx.Numb,
		NumsBits:    v.dcx.NumsBits,
		Weights:     append([]uint32(nil), v.dcx.Weights...),
		State:       v.state,
	}
	v.reg.Ascend(func(b *Brick) bool {
		snap.Bricks = append(snap.Bricks, *b)
		return true
	})
	for _, id := range v.reg.order {
		b, _ := v.reg.Get(id)
		if len(b.fiber) > 0 {
			snap.Fibers[id] = append([]uint32(nil), b.fiber...)
		}
	}
	return snap
}

// Restore replaces v's registry, active order, dcx weights and persisted
// state with snap's contents. v must be freshly constructed (NewVolume)
// with no bricks registered yet.
func (v *Volume) Restore(snap Snapshot) error {
	for i := range snap.Bricks {
		b := snap.Bricks[i]
		if err := v.reg.Register(&b); err != nil {
			return xerrors.Wrap(err, "restoring registered bricks")
		}
	}
	for _, id := range snap.ActiveOrder {
		pos := len(v.reg.order)
		v.reg.Activate(pos, id)
		if fib, ok := snap.Fibers[id]; ok {
			b, _ := v.reg.Get(id)
			b.fiber = fib
		}
	}
	v.dcx.Numb = snap.Numb
	v.dcx.NumsBits = snap.NumsBits
	v.dcx.Weights = snap.Weights
	v.state = snap.State
	return nil
}

// WriteSnapshot marshals v's bookkeeping state to path as JSON.
func WriteSnapshot(path string, v *Volume) error {
	data, err := json.MarshalIndent(v.Snapshot(), "", "  ")
	if err != nil {
		return xerrors.Wrap(err, "marshaling volume snapshot")
	}
	return xerrors.Wrap(os.WriteFile(path, data, 0o644), "writing volume snapshot")
}

// ReadSnapshot unmarshals a snapshot previously written by WriteSnapshot. A
// missing file is reported via os.IsNotExist on the returned error, letting
// callers distinguish "no snapshot yet" from a corrupt one.
func ReadSnapshot(path string) (Snapshot, error) {
	var snap Snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		return snap, err
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, xerrors.Wrap(err, "parsing volume snapshot")
	}
	return snap, nil
}

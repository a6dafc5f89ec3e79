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
	"context"
	"time"

	"github.com/distvol/fsxvol-lib/dst"
	"github.com/distvol/fsxvol-lib/migrate"
	"github.com/distvol/fsxvol-lib/xerrors"
)

// RegisterBrick adds a brick to the registry without activating it in the
// distribution table. Off-line: no busy flag, no transaction.
func (v *Volume) RegisterBrick(b *Brick) error {
	return v.reg.Register(b)
}

// UnregisterBrick removes a brick from the registry. Off-line.
func (v *Volume) UnregisterBrick(id uint64) error {
	return v.reg.Unregister(id)
}

// VolumeHeader reports the volume's coarse shape: active brick count and
// current table resolution. Off-line (readable before a table even
// exists).
type VolumeHeader struct {
	NumBricks int
	NumsBits  uint
	Balanced  bool
}

func (v *Volume) VolumeHeader() VolumeHeader {
	return VolumeHeader{
		NumBricks: v.reg.NumActive(),
		NumsBits:  v.dcx.NumsBits,
		Balanced:  v.state.Balanced,
	}
}

// BrickHeader reports one registered brick's static facts.
func (v *Volume) BrickHeader(id uint64) (*Brick, error) {
	b, ok := v.reg.Get(id)
	if !ok {
		return nil, xerrors.Wrapf(xerrors.ErrInvalidArgument, "brick %d not registered", id)
	}
	return b, nil
}

// PrintVolume walks every registered brick in id order, the PRINT_VOLUME
// opcode.
func (v *Volume) PrintVolume(fn func(*Brick) bool) {
	v.reg.Ascend(fn)
}

// PrintBrick is BrickHeader under another name, kept distinct because the
// opcode surface names them separately (spec §6).
func (v *Volume) PrintBrick(id uint64) (*Brick, error) {
	return v.BrickHeader(id)
}

// ResizeBrick pre-flight checks that shrinking a brick's advertised
// capacity still leaves enough room for its currently-assigned share, then
// applies it. It does not itself move any data: a shrink that still fits
// changes CapAt for the next reconfiguration to calibrate against.
func (v *Volume) ResizeBrick(id uint64, newCap uint64) error {
	return v.withBusy(func() error {
		b, ok := v.reg.Get(id)
		if !ok {
			return xerrors.Wrapf(xerrors.ErrInvalidArgument, "brick %d not registered", id)
		}
		if newCap < b.Cap {
			oldCap := b.Cap
			b.Cap = newCap
			if err := dst.CheckSpace(v.vec, v.reg.NumActive(), v.vec.SpaceOccupied()); err != nil {
				b.Cap = oldCap
				return err
			}
			v.metrics.Reconfigurations.WithLabelValues("RESIZE_BRICK").Inc()
			return nil
		}
		b.Cap = newCap
		v.metrics.Reconfigurations.WithLabelValues("RESIZE_BRICK").Inc()
		return nil
	})
}

// AddBrick activates a newly (or previously) registered brick at
// targetPos, growing the distribution table by one bucket via dst.Inc.
// proxy marks it write-absorbing per the supplemented ADD_PROXY feature,
// which defers its data placement to a background flush whose policy is
// out of scope; it is still wired into the table immediately so lookups
// are always well-defined.
func (v *Volume) AddBrick(id uint64, targetPos int, proxy bool) error {
	return v.withBusy(func() error {
		b, ok := v.reg.Get(id)
		if !ok {
			return xerrors.Wrapf(xerrors.ErrInvalidArgument, "brick %d not registered", id)
		}
		b.Proxy = proxy

		v.state.BeginReconfigure()
		v.reg.Activate(targetPos, id)

		// The very first brick has no existing table to extend: build one
		// from scratch via InitV rather than Inc, which assumes a prior
		// balanced table of the old bucket count.
		if v.dcx.Numb == 0 {
			tab, err := v.dcx.InitV(v.vec, nil, 1, v.dcx.NumsBits)
			if err != nil {
				v.reg.Deactivate(targetPos)
				v.state.RollbackReconfigure()
				return err
			}
			v.state.CommitReconfigure(tab)
			v.metrics.Reconfigurations.WithLabelValues(addOpcodeLabel(proxy)).Inc()
			return nil
		}

		res, err := v.dcx.Inc(v.vec, v.state.PreviousTable, targetPos, true)
		if err != nil {
			v.reg.Deactivate(targetPos)
			v.state.RollbackReconfigure()
			return err
		}
		v.state.CommitReconfigure(res.Tab)
		v.metrics.Reconfigurations.WithLabelValues(addOpcodeLabel(proxy)).Inc()
		v.metrics.SlotsMoved.Observe(float64(res.Changed.GetCardinality()))
		return nil
	})
}

func addOpcodeLabel(proxy bool) string {
	if proxy {
		return "ADD_PROXY"
	}
	return "ADD_BRICK"
}

// RemoveBrick evicts the brick at targetPos from the distribution table
// via dst.Dec, pre-flight checking that the survivors have room for its
// share first (check_space). If the op fails after the table has been
// rebuilt but before the caller durably commits, State.IncompleteRemoval
// and State.Victim let a subsequent BalanceVolume finish the job.
func (v *Volume) RemoveBrick(targetPos int) error {
	return v.withBusy(func() error {
		victim := v.reg.ActiveAt(targetPos)
		occupied := v.vec.SpaceOccupied()
		// Fibers do not outlive a reconfiguration; rebuild them from the
		// current table so the victim's fiber is available to Dec.
		dst.CreateFibers(v.vec, v.reg.NumActive(), v.state.CurrentTable, v.dcx.Weights)
		victimFiber := v.vec.FiberAt(targetPos)

		v.state.BeginReconfigure()
		v.reg.Deactivate(targetPos)

		// Check with the victim already out of the active set, so CapAt
		// over [0,survivors) addresses exactly the surviving bricks.
		if err := dst.CheckSpace(v.vec, v.reg.NumActive(), occupied); err != nil {
			v.reg.Activate(targetPos, victim.ID)
			v.state.RollbackReconfigure()
			return err
		}

		v.state.IncompleteRemoval = true
		v.state.Victim = victim.ID

		res, err := v.dcx.Dec(v.vec, v.state.PreviousTable, targetPos, victimFiber, true)
		if err != nil {
			v.reg.Activate(targetPos, victim.ID)
			v.state.RollbackReconfigure()
			v.state.IncompleteRemoval = false
			return err
		}
		v.state.CommitReconfigure(res.Tab)
		v.state.IncompleteRemoval = false
		v.metrics.Reconfigurations.WithLabelValues("REMOVE_BRICK").Inc()
		v.metrics.SlotsMoved.Observe(float64(res.Changed.GetCardinality()))
		return nil
	})
}

// ScaleVolume doubles (or multiplies by 1<<factBits) the table's
// resolution via dst.Split, the SCALE_VOLUME opcode.
func (v *Volume) ScaleVolume(factBits uint) error {
	return v.withBusy(func() error {
		v.state.BeginReconfigure()
		res, err := v.dcx.Split(v.vec, v.state.PreviousTable, factBits)
		if err != nil {
			v.state.RollbackReconfigure()
			return err
		}
		v.state.CommitReconfigure(res.Tab)
		v.metrics.Reconfigurations.WithLabelValues("SCALE_VOLUME").Inc()
		v.metrics.SlotsMoved.Observe(float64(res.Changed.GetCardinality()))
		return nil
	})
}

// BalanceVolume finishes a REMOVE_BRICK that crashed mid-flight: if
// State.IncompleteRemoval is set, it re-applies the removal against the
// persisted victim id before clearing both the incomplete-removal and
// unbalanced flags. If nothing is pending, it is a no-op that simply marks
// the volume balanced, matching spec §7's "a partial failure ... leaves the
// volume marked unbalanced so that a subsequent BALANCE_VOLUME resumes."
func (v *Volume) BalanceVolume() error {
	return v.withBusy(func() error {
		if v.state.IncompleteRemoval {
			pos := v.reg.PositionOf(v.state.Victim)
			if pos < 0 {
				// Already fully evicted from the active set; only the
				// flag itself didn't get cleared before the crash.
				v.state.IncompleteRemoval = false
				v.state.Balanced = true
				return nil
			}
			dst.CreateFibers(v.vec, v.reg.NumActive(), v.state.CurrentTable, v.dcx.Weights)
			victimFiber := v.vec.FiberAt(pos)
			v.reg.Deactivate(pos)
			res, err := v.dcx.Dec(v.vec, v.state.CurrentTable, pos, victimFiber, true)
			if err != nil {
				v.reg.Activate(pos, v.state.Victim)
				return err
			}
			v.state.CurrentTable = res.Tab
			v.state.IncompleteRemoval = false
		}
		v.state.Balanced = true
		v.metrics.Reconfigurations.WithLabelValues("BALANCE_VOLUME").Inc()
		return nil
	})
}

// SetFileImmobile marks a file's migration record immobile: MigrateFile
// refuses it until ClrFileImmobile.
func (v *Volume) SetFileImmobile(fileID uint64) error {
	return v.withBusy(func() error {
		v.immobile(fileID, true)
		return nil
	})
}

// ClrFileImmobile clears the immobile flag set by SetFileImmobile.
func (v *Volume) ClrFileImmobile(fileID uint64) error {
	return v.withBusy(func() error {
		v.immobile(fileID, false)
		return nil
	})
}

// MigrateFile walks fileID's extent tree, migrating whatever no longer
// belongs on its current brick towards dstID (or, if dstID is nil, towards
// whichever brick locate returns for each offset). It refuses files
// marked immobile with ErrNotPermitted, the supplemented file-immobile
// feature.
func (v *Volume) MigrateFile(ctx context.Context, fileID uint64, locate migrate.Locator, dstID *uint64) (doneOff uint64, blocksMigrated uint64, err error) {
	err = v.withBusy(func() error {
		if v.immobileFiles[fileID] {
			return xerrors.Wrapf(xerrors.ErrNotPermitted, "file %d is marked immobile", fileID)
		}
		tree := v.fileTree(fileID)
		start, ok := tree.Last()
		if !ok {
			// Nothing migrated for an empty file.
			return nil
		}
		eng := migrate.NewEngine(tree, v.stripeSize, v.reserve, v.log)
		start_ := time.Now()
		doneOff, blocksMigrated, err = eng.MigrateFile(ctx, start, locate, dstID)
		v.metrics.OpLatency.WithLabelValues("MIGRATE_FILE").Observe(time.Since(start_).Seconds())
		if err == nil {
			v.metrics.BytesMigrated.Add(float64(blocksMigrated) * float64(eng.PageSize))
		}
		return err
	})
	return doneOff, blocksMigrated, err
}

func (v *Volume) fileTree(fileID uint64) *migrate.ItemTree {
	tree, ok := v.files[fileID]
	if !ok {
		tree = migrate.NewItemTree()
		v.files[fileID] = tree
	}
	return tree
}

func (v *Volume) immobile(fileID uint64, set bool) {
	if v.immobileFiles == nil {
		v.immobileFiles = make(map[uint64]bool)
	}
	v.immobileFiles[fileID] = set
}

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

import (
	"fmt"

	"github.com/distvol/fsxvol-lib/bucket"
	"github.com/distvol/fsxvol-lib/xerrors"
	"github.com/distvol/fsxvol-lib/xlog"
)

// Debug enables the debug-only invariant assertions the original C source
// gated behind ON_DEBUG/assert. It is off by default; tests turn it on.
var Debug = false

// Dcx is the distribution context: it owns numb, nums_bits and the weight
// vector across the lifetime of a mounted volume, and is mutated only by
// the single exclusive reconfiguration path (package volume serializes
// that with its busy flag). Transient scratch (new weights, excess/
// shortage vectors, the working table clone) lives on the stack of the
// reconfiguration call, not on Dcx, since Go's GC makes manual scratch
// ownership unnecessary — only the clone-mutate-swap discipline spec §5
// actually requires is preserved.
type Dcx struct {
	Numb     int
	NumsBits uint
	Weights  []uint32

	log *xlog.Logger
}

// NewDcx returns an uninitialized distribution context bound to log.
func NewDcx(log *xlog.Logger) *Dcx {
	if log == nil {
		log = xlog.Nop()
	}
	return &Dcx{log: log}
}

// InitR initializes a distribution context for regular file operations: a
// fresh, zeroed table at the given resolution. Every entry is brick id 0
// until the caller performs an initial InitV or an Inc.
func InitR(numsBits uint) ([]uint32, error) {
	if numsBits < MinNumsBits {
		return nil, xerrors.Wrapf(xerrors.ErrInvalidArgument,
			"nums_bits %d below minimum %d", numsBits, MinNumsBits)
	}
	if numsBits > MaxShift {
		return nil, xerrors.Wrapf(xerrors.ErrInvalidArgument,
			"nums_bits %d exceeds MAX_SHIFT", numsBits)
	}
	return make([]uint32, uint64(1)<<numsBits), nil
}

// InitV initializes the distribution context for volume operations: it
// calibrates the weight vector against the current bucket vector and, if
// tab is empty, materializes the first table from scratch (requiring numb
// == 1, since only a single-bucket volume can start without a prior
// balanced table to build fibers from).
func (d *Dcx) InitV(vec bucket.Vector, tab []uint32, numb int, numsBits uint) ([]uint32, error) {
	if numb == 0 {
		return nil, xerrors.Wrapf(xerrors.ErrInvalidArgument, "numb must be > 0")
	}
	if numsBits >= MaxShift {
		return nil, xerrors.Wrapf(xerrors.ErrInvalidArgument, "nums_bits %d too large", numsBits)
	}
	nums := uint64(1) << numsBits
	if uint64(numb) >= nums {
		return nil, xerrors.Wrapf(xerrors.ErrInvalidArgument,
			"numb %d must be smaller than nums %d", numb, nums)
	}

	d.Numb = numb
	d.Weights = Calibrate32(numb, uint32(nums), vec.CapAt)

	if len(tab) == 0 {
		if numb != 1 {
			return nil, xerrors.Wrapf(xerrors.ErrInvalidArgument,
				"empty table only valid for a single-bucket volume, got numb=%d", numb)
		}
		var err error
		tab, err = InitR(numsBits)
		if err != nil {
			return nil, err
		}
		id := uint32(vec.Idx2ID(0))
		for i := range tab {
			tab[i] = id
		}
	}
	d.NumsBits = numsBits
	CreateFibers(vec, numb, tab, d.Weights)

	if Debug {
		for i := 0; i < numb; i++ {
			if got := len(vec.FiberAt(i)); got != int(d.Weights[i]) {
				return nil, xerrors.Wrapf(xerrors.ErrInternalInvariant,
					"fiber %d has length %d, want weight %d", i, got, d.Weights[i])
			}
		}
	}
	return tab, nil
}

// DoneV releases the weight vector. Fibers are released by their own
// ReleaseFibers call at the end of whichever reconfiguration used them.
func (d *Dcx) DoneV() {
	d.Weights = nil
	d.Numb = 0
}

func debugAssertf(cond bool, format string, args ...any) error {
	if Debug && !cond {
		return xerrors.Wrapf(xerrors.ErrInternalInvariant, format, args...)
	}
	return nil
}

func (d *Dcx) String() string {
	return fmt.Sprintf("dcx{numb=%d nums_bits=%d}", d.Numb, d.NumsBits)
}

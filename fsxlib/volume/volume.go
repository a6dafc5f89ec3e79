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
	"sync"

	"github.com/gofrs/flock"

	"github.com/distvol/fsxvol-lib/dst"
	"github.com/distvol/fsxvol-lib/migrate"
	"github.com/distvol/fsxvol-lib/xerrors"
	"github.com/distvol/fsxvol-lib/xlog"
)

// Volume is the process-wide handle §9's design notes describe as "current
// context": the mounted distribution core, the brick registry, persisted
// reconfiguration state, and the exclusive busy flag every mutating op
// must hold. One Volume is built per mounted volume and threaded
// explicitly into every op, never reached through a package global.
type Volume struct {
	mu sync.Mutex

	dcx *dst.Dcx
	reg *Registry
	vec *vectorView

	state State

	lock     *flock.Flock
	lockPath string

	metrics *Metrics
	log     *xlog.Logger

	stripeSize    uint64
	files         map[uint64]*migrate.ItemTree
	immobileFiles map[uint64]bool
	reserve       *migrate.SpaceReserver
}

// Config bundles the knobs NewVolume needs beyond what gets discovered by
// registering bricks.
type Config struct {
	LockPath    string
	StripeSize  uint64
	NumsBits    uint
	Log         *xlog.Logger
	Metrics     *Metrics
}

// NewVolume builds an unmounted, empty volume: no bricks registered, no
// table built. Callers register and add bricks; the first AddBrick builds
// the first table through InitV.
func NewVolume(cfg Config) *Volume {
	log := cfg.Log
	if log == nil {
		log = xlog.Nop()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = nopMetrics()
	}
	reg := NewRegistry()
	v := &Volume{
		dcx:        dst.NewDcx(log),
		reg:        reg,
		vec:        newVectorView(reg),
		lock:       flock.New(cfg.LockPath),
		lockPath:   cfg.LockPath,
		metrics:    metrics,
		log:        log,
		stripeSize:    cfg.StripeSize,
		files:         make(map[uint64]*migrate.ItemTree),
		immobileFiles: make(map[uint64]bool),
		reserve:       migrate.NewSpaceReserver(nil),
	}
	v.dcx.NumsBits = cfg.NumsBits
	return v
}

// withBusy acquires the volume's busy flag (an advisory lock on its
// .fsxvol.lock sidecar, so the exclusion holds across process boundaries
// too, not only goroutines of one fsxvolctl invocation), runs fn, and
// releases the flag on every exit path.
func (v *Volume) withBusy(fn func() error) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	locked, err := v.lock.TryLock()
	if err != nil {
		return xerrors.Wrap(err, "acquiring volume busy flag")
	}
	if !locked {
		return xerrors.Wrapf(xerrors.ErrBusy, "volume %s is busy", v.lockPath)
	}
	defer v.lock.Unlock()

	return fn()
}

// requireBalanced refuses ops that need a consistent table while a prior
// reconfiguration left the volume unbalanced, per §7's "busy (... or
// unbalanced when op requires balanced)" error kind.
func (v *Volume) requireBalanced() error {
	if !v.state.Balanced {
		return xerrors.Wrapf(xerrors.ErrBusy, "volume is unbalanced, run BALANCE_VOLUME first")
	}
	return nil
}

// State returns a copy of the volume's persisted state, for callers that
// need to write it out to stable storage.
func (v *Volume) State() State { return v.state }

// Registry exposes the brick registry for read-only inspection (PRINT_*
// ops and tests).
func (v *Volume) Registry() *Registry { return v.reg }

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

package main

import (
	"os"

	"github.com/distvol/fsxvol-lib/volume"
	"github.com/distvol/fsxvol-lib/xlog"

	"github.com/distvol/fsxvol/internal/config"
)

// snapshotPath is where a volume's bookkeeping (registry, active order,
// fibers, dcx weights, persisted state) lives between fsxvolctl
// invocations, alongside its busy-flag lock file.
func snapshotPath(cfg config.VolumeConfig) string {
	return cfg.LockPath + ".snapshot.json"
}

// openVolume builds a *volume.Volume from the loaded config. Each CLI
// invocation is a fresh process: if a snapshot from a prior invocation
// exists, the volume's bookkeeping is restored from it; otherwise every
// configured brick is freshly registered, unactivated, as the starting
// point for the volume's first AddBrick. The busy-flag lock file is what
// keeps concurrent invocations against the same on-disk volume from
// racing each other regardless of which path is taken.
func openVolume(e *cliEnv) (*volume.Volume, config.VolumeConfig, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, cfg, err
	}

	level := "info"
	if *e.verbose {
		level = "debug"
	}
	log, err := xlog.New(level)
	if err != nil {
		return nil, cfg, err
	}

	v := volume.NewVolume(volume.Config{
		LockPath:   cfg.LockPath,
		StripeSize: cfg.StripeSize,
		NumsBits:   cfg.NumsBits,
		Log:        log,
	})

	snap, err := volume.ReadSnapshot(snapshotPath(cfg))
	switch {
	case err == nil:
		if err := v.Restore(snap); err != nil {
			return nil, cfg, err
		}
	case os.IsNotExist(err):
		for _, b := range cfg.Bricks {
			if err := v.RegisterBrick(&volume.Brick{ID: b.ID, Path: b.Path, Cap: b.Cap}); err != nil {
				return nil, cfg, err
			}
		}
	default:
		return nil, cfg, err
	}
	return v, cfg, nil
}

// saveVolume persists v's bookkeeping so the next fsxvolctl invocation
// against the same volume picks up where this one left off. Called after
// every mutating subcommand succeeds.
func saveVolume(cfg config.VolumeConfig, v *volume.Volume) error {
	return volume.WriteSnapshot(snapshotPath(cfg), v)
}

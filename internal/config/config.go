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

// Package config loads fsxvolctl's volume configuration: the brick set a
// fresh volume is built from, plus the table and migration parameters
// spec.md §6 calls "Environment / persisted state".
package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/distvol/fsxvol-lib/xerrors"
)

// BrickConfig describes one brick as read from the volume config file,
// before it is registered against a running Volume.
type BrickConfig struct {
	ID   uint64 `toml:"id"`
	Path string `toml:"path"`
	Cap  uint64 `toml:"cap"`
}

// VolumeConfig is the on-disk shape of a volume's static configuration:
// the brick set plus the table/migration parameters a fresh volume is
// bootstrapped with. Once fsxvolctl has saved a volume snapshot, the brick
// set and nums_bits come from that snapshot and later changes flow through
// the opcode surface (ResizeBrick, AddBrick, ScaleVolume); lock_path and
// stripe_size are still read from this file on every invocation.
type VolumeConfig struct {
	LockPath                  string        `toml:"lock_path"`
	NumsBits                  uint          `toml:"nums_bits"`
	StripeSize                uint64        `toml:"stripe_size"`
	MigrationGranularityPages uint64        `toml:"migration_granularity_pages"`
	Bricks                    []BrickConfig `toml:"bricks"`
}

// DefaultVolumeConfig mirrors the constants fsxlib/migrate ships for a
// volume with no config file at all.
func DefaultVolumeConfig() VolumeConfig {
	return VolumeConfig{
		LockPath:                  ".fsxvol.lock",
		NumsBits:                  10,
		StripeSize:                4096,
		MigrationGranularityPages: 8192,
	}
}

// Load reads and unmarshals a TOML volume config file at path. A missing
// file is not an error: callers get DefaultVolumeConfig back, the same
// posture erigon's flag-driven config takes for an absent config file.
func Load(path string) (VolumeConfig, error) {
	cfg := DefaultVolumeConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, xerrors.Wrapf(err, "reading volume config %q", path)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, xerrors.Wrapf(err, "parsing volume config %q", path)
	}
	return cfg, validate(cfg)
}

func validate(cfg VolumeConfig) error {
	if cfg.NumsBits == 0 {
		return xerrors.Wrapf(xerrors.ErrInvalidArgument, "nums_bits must be > 0")
	}
	if cfg.StripeSize == 0 {
		return xerrors.Wrapf(xerrors.ErrInvalidArgument, "stripe_size must be > 0")
	}
	seen := make(map[uint64]bool, len(cfg.Bricks))
	for _, b := range cfg.Bricks {
		if seen[b.ID] {
			return xerrors.Wrapf(xerrors.ErrInvalidArgument, "duplicate brick id %d in config", b.ID)
		}
		seen[b.ID] = true
		if b.Cap == 0 {
			return xerrors.Wrapf(xerrors.ErrInvalidArgument, "brick %d has zero capacity", b.ID)
		}
	}
	return nil
}

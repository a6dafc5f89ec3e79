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

	"github.com/distvol/fsxvol-lib/migrate"
	"github.com/distvol/fsxvol-lib/xerrors"
)

// Args bundles every opcode's possible arguments; callers set only the
// fields their opcode needs. This is the single entry point's argument
// struct, the Go analogue of the ioctl's tagged-union request payload.
type Args struct {
	BrickID   uint64
	Brick     *Brick
	TargetPos int
	NewCap    uint64
	FactBits  uint
	FileID    uint64
	DstID     *uint64
	Locate    migrate.Locator
}

// Result bundles every opcode's possible outputs.
type Result struct {
	Brick          *Brick
	VolumeHeader   VolumeHeader
	DoneOffset     uint64
	BlocksMigrated uint64
}

// DispatchOffline handles the opcodes that run without a transaction or
// the busy flag: REGISTER_BRICK, UNREGISTER_BRICK, VOLUME_HEADER,
// BRICK_HEADER. Calling it with any other opcode is ErrNotSupported.
func (v *Volume) DispatchOffline(op Opcode, args Args) (Result, error) {
	switch op {
	case RegisterBrick:
		return Result{}, v.RegisterBrick(args.Brick)
	case UnregisterBrick:
		return Result{}, v.UnregisterBrick(args.BrickID)
	case VolumeHeader:
		return Result{VolumeHeader: v.VolumeHeader()}, nil
	case BrickHeader:
		b, err := v.BrickHeader(args.BrickID)
		return Result{Brick: b}, err
	default:
		return Result{}, xerrors.Wrapf(xerrors.ErrNotSupported, "opcode %s is not an off-line opcode", op)
	}
}

// DispatchOnline handles every busy-flag-guarded opcode, directory-level
// and file-level alike. Calling it with an off-line opcode is
// ErrNotSupported; use DispatchOffline for those instead.
func (v *Volume) DispatchOnline(ctx context.Context, op Opcode, args Args) (Result, error) {
	switch op {
	case PrintVolume:
		return Result{VolumeHeader: v.VolumeHeader()}, nil
	case PrintBrick:
		b, err := v.PrintBrick(args.BrickID)
		return Result{Brick: b}, err
	case ResizeBrick:
		return Result{}, v.ResizeBrick(args.BrickID, args.NewCap)
	case AddBrick:
		return Result{}, v.AddBrick(args.BrickID, args.TargetPos, false)
	case AddProxy:
		return Result{}, v.AddBrick(args.BrickID, args.TargetPos, true)
	case RemoveBrick:
		return Result{}, v.RemoveBrick(args.TargetPos)
	case ScaleVolume:
		return Result{}, v.ScaleVolume(args.FactBits)
	case BalanceVolume:
		return Result{}, v.BalanceVolume()
	case MigrateFile:
		if err := v.requireBalanced(); err != nil {
			return Result{}, err
		}
		done, blocks, err := v.MigrateFile(ctx, args.FileID, args.Locate, args.DstID)
		return Result{DoneOffset: done, BlocksMigrated: blocks}, err
	case SetFileImmobile:
		return Result{}, v.SetFileImmobile(args.FileID)
	case ClrFileImmobile:
		return Result{}, v.ClrFileImmobile(args.FileID)
	default:
		return Result{}, xerrors.Wrapf(xerrors.ErrNotSupported, "opcode %s is not an on-line opcode", op)
	}
}

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
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/distvol/fsxvol-lib/volume"
)

func newRegisterBrickCmd(e *cliEnv) *cobra.Command {
	var id, brickCap uint64
	var path string
	cmd := &cobra.Command{
		Use:   "register-brick",
		Short: "Register a brick without activating it (off-line)",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, cfg, err := openVolume(e)
			if err != nil {
				return err
			}
			if _, err := v.DispatchOffline(volume.RegisterBrick, volume.Args{
				Brick: &volume.Brick{ID: id, Path: path, Cap: brickCap},
			}); err != nil {
				return err
			}
			return saveVolume(cfg, v)
		},
	}
	cmd.Flags().Uint64Var(&id, "id", 0, "brick id")
	cmd.Flags().StringVar(&path, "path", "", "brick device path")
	cmd.Flags().Uint64Var(&brickCap, "cap", 0, "brick capacity")
	return cmd
}

func newUnregisterBrickCmd(e *cliEnv) *cobra.Command {
	var id uint64
	cmd := &cobra.Command{
		Use:   "unregister-brick",
		Short: "Unregister a previously registered, inactive brick (off-line)",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, cfg, err := openVolume(e)
			if err != nil {
				return err
			}
			if _, err := v.DispatchOffline(volume.UnregisterBrick, volume.Args{BrickID: id}); err != nil {
				return err
			}
			return saveVolume(cfg, v)
		},
	}
	cmd.Flags().Uint64Var(&id, "id", 0, "brick id")
	return cmd
}

func newVolumeHeaderCmd(e *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "volume-header",
		Short: "Print the volume's coarse shape",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, _, err := openVolume(e)
			if err != nil {
				return err
			}
			res, err := v.DispatchOffline(volume.VolumeHeader, volume.Args{})
			if err != nil {
				return err
			}
			h := res.VolumeHeader
			fmt.Fprintf(cmd.OutOrStdout(), "bricks=%d nums_bits=%d balanced=%v\n", h.NumBricks, h.NumsBits, h.Balanced)
			return nil
		},
	}
}

func newBrickHeaderCmd(e *cliEnv) *cobra.Command {
	var id uint64
	cmd := &cobra.Command{
		Use:   "brick-header",
		Short: "Print one brick's static facts",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, _, err := openVolume(e)
			if err != nil {
				return err
			}
			res, err := v.DispatchOffline(volume.BrickHeader, volume.Args{BrickID: id})
			if err != nil {
				return err
			}
			b := res.Brick
			fmt.Fprintf(cmd.OutOrStdout(), "id=%d path=%s cap=%d occupied=%d proxy=%v\n",
				b.ID, b.Path, b.Cap, b.Occupied, b.Proxy)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&id, "id", 0, "brick id")
	return cmd
}

func newPrintVolumeCmd(e *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "print-volume",
		Short: "List every registered brick",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, _, err := openVolume(e)
			if err != nil {
				return err
			}
			v.PrintVolume(func(b *volume.Brick) bool {
				fmt.Fprintf(cmd.OutOrStdout(), "id=%d path=%s cap=%d active_pos=%d\n",
					b.ID, b.Path, b.Cap, v.Registry().PositionOf(b.ID))
				return true
			})
			return nil
		},
	}
}

func newResizeBrickCmd(e *cliEnv) *cobra.Command {
	var id, newCap uint64
	cmd := &cobra.Command{
		Use:   "resize-brick",
		Short: "Change a brick's advertised capacity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOnlineOp(e, volume.ResizeBrick, volume.Args{BrickID: id, NewCap: newCap})
		},
	}
	cmd.Flags().Uint64Var(&id, "id", 0, "brick id")
	cmd.Flags().Uint64Var(&newCap, "cap", 0, "new capacity")
	return cmd
}

func newAddBrickCmd(e *cliEnv) *cobra.Command {
	var id uint64
	var pos int
	cmd := &cobra.Command{
		Use:   "add-brick",
		Short: "Activate a registered brick in the distribution table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOnlineOp(e, volume.AddBrick, volume.Args{BrickID: id, TargetPos: pos})
		},
	}
	cmd.Flags().Uint64Var(&id, "id", 0, "brick id")
	cmd.Flags().IntVar(&pos, "pos", 0, "target position")
	return cmd
}

func newRemoveBrickCmd(e *cliEnv) *cobra.Command {
	var pos int
	cmd := &cobra.Command{
		Use:   "remove-brick",
		Short: "Evict the brick at a position from the distribution table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOnlineOp(e, volume.RemoveBrick, volume.Args{TargetPos: pos})
		},
	}
	cmd.Flags().IntVar(&pos, "pos", 0, "position to remove")
	return cmd
}

func newScaleVolumeCmd(e *cliEnv) *cobra.Command {
	var factBits uint
	cmd := &cobra.Command{
		Use:   "scale-volume",
		Short: "Multiply the table's resolution by 1<<fact-bits",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOnlineOp(e, volume.ScaleVolume, volume.Args{FactBits: factBits})
		},
	}
	cmd.Flags().UintVar(&factBits, "fact-bits", 1, "log2 scale factor")
	return cmd
}

func newBalanceVolumeCmd(e *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "balance-volume",
		Short: "Finish any incomplete removal and mark the volume balanced",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOnlineOp(e, volume.BalanceVolume, volume.Args{})
		},
	}
}

func newSetFileImmobileCmd(e *cliEnv) *cobra.Command {
	var fileID uint64
	cmd := &cobra.Command{
		Use:   "set-file-immobile",
		Short: "Refuse further migration for a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOnlineOp(e, volume.SetFileImmobile, volume.Args{FileID: fileID})
		},
	}
	cmd.Flags().Uint64Var(&fileID, "file", 0, "file id")
	return cmd
}

func newClrFileImmobileCmd(e *cliEnv) *cobra.Command {
	var fileID uint64
	cmd := &cobra.Command{
		Use:   "clr-file-immobile",
		Short: "Clear a file's immobile flag",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOnlineOp(e, volume.ClrFileImmobile, volume.Args{FileID: fileID})
		},
	}
	cmd.Flags().Uint64Var(&fileID, "file", 0, "file id")
	return cmd
}

func newMigrateFileCmd(e *cliEnv) *cobra.Command {
	var fileID uint64
	var dstBrick uint64
	var useDst bool
	cmd := &cobra.Command{
		Use:   "migrate-file",
		Short: "Migrate a file's extents towards their correct bricks",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, cfg, err := openVolume(e)
			if err != nil {
				return err
			}
			var dstID *uint64
			if useDst {
				dstID = &dstBrick
			}
			res, err := v.DispatchOnline(cmd.Context(), volume.MigrateFile, volume.Args{
				FileID: fileID,
				DstID:  dstID,
				Locate: func(offset uint64) uint64 {
					return v.Registry().ActiveAt(int(offset % uint64(v.Registry().NumActive()))).ID
				},
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "done_offset=%d blocks_migrated=%d\n", res.DoneOffset, res.BlocksMigrated)
			return saveVolume(cfg, v)
		},
	}
	cmd.Flags().Uint64Var(&fileID, "file", 0, "file id")
	cmd.Flags().Uint64Var(&dstBrick, "dst", 0, "destination brick id, used with --use-dst")
	cmd.Flags().BoolVar(&useDst, "use-dst", false, "pin migration to --dst instead of the default placement, which sends byte offset o to the active brick at position o mod the active brick count (the distribution table is not consulted)")
	return cmd
}

// withOnlineOp runs a busy-flag-guarded opcode through DispatchOnline and
// persists the resulting volume state on success. It has no use for
// Result's payload: every online opcode this helper serves reports success
// purely through its exit code.
func withOnlineOp(e *cliEnv, op volume.Opcode, args volume.Args) error {
	v, cfg, err := openVolume(e)
	if err != nil {
		return err
	}
	if _, err := v.DispatchOnline(context.Background(), op, args); err != nil {
		return err
	}
	return saveVolume(cfg, v)
}

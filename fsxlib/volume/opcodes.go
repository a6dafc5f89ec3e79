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

// Package volume is the single entry point that dispatches volume-op
// opcodes onto the distribution core and migration engine, owns the
// busy flag and the brick registry, and persists the reconfiguration
// state a crash needs to resume from.
package volume

// Opcode names one of the volume-op surface's operations.
type Opcode int

const (
	// Off-line opcodes: no transaction, no busy flag, safe before the
	// volume's tables have even been built.
	RegisterBrick Opcode = iota
	UnregisterBrick
	VolumeHeader
	BrickHeader

	// On-line, directory-level opcodes. PRINT_VOLUME and PRINT_BRICK only
	// read and do not take the busy flag; the rest are busy-flag-guarded.
	PrintVolume
	PrintBrick
	ResizeBrick
	AddBrick
	AddProxy
	RemoveBrick
	ScaleVolume
	BalanceVolume

	// On-line, file-level opcodes: busy-flag-guarded.
	MigrateFile
	SetFileImmobile
	ClrFileImmobile
)

func (o Opcode) String() string {
	switch o {
	case RegisterBrick:
		return "REGISTER_BRICK"
	case UnregisterBrick:
		return "UNREGISTER_BRICK"
	case VolumeHeader:
		return "VOLUME_HEADER"
	case BrickHeader:
		return "BRICK_HEADER"
	case PrintVolume:
		return "PRINT_VOLUME"
	case PrintBrick:
		return "PRINT_BRICK"
	case ResizeBrick:
		return "RESIZE_BRICK"
	case AddBrick:
		return "ADD_BRICK"
	case AddProxy:
		return "ADD_PROXY"
	case RemoveBrick:
		return "REMOVE_BRICK"
	case ScaleVolume:
		return "SCALE_VOLUME"
	case BalanceVolume:
		return "BALANCE_VOLUME"
	case MigrateFile:
		return "MIGRATE_FILE"
	case SetFileImmobile:
		return "SET_FILE_IMMOBILE"
	case ClrFileImmobile:
		return "CLR_FILE_IMMOBILE"
	default:
		return "UNKNOWN_OPCODE"
	}
}

// IsOffline reports whether op runs outside the busy flag / transaction,
// the reiser4_offline_op split.
func (o Opcode) IsOffline() bool {
	switch o {
	case RegisterBrick, UnregisterBrick, VolumeHeader, BrickHeader:
		return true
	default:
		return false
	}
}

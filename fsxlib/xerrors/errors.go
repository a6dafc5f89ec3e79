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

// Package xerrors declares the abstract error kinds shared by the
// distribution core, the migration engine and the volume-op surface, and
// small helpers for wrapping them across subsystem boundaries without
// losing the sentinel identity (callers still match with errors.Is).
package xerrors

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

var (
	// ErrNoMemory mirrors -ENOMEM: an allocation of scratch state failed.
	ErrNoMemory = stderrors.New("fsxvol: no memory")
	// ErrNoSpace mirrors -ENOSPC: a pre-flight or per-iteration space
	// reservation could not be satisfied.
	ErrNoSpace = stderrors.New("fsxvol: no space")
	// ErrInvalidArgument mirrors -EINVAL: bad nums_bits, numb, target
	// position, or an empty lookup key.
	ErrInvalidArgument = stderrors.New("fsxvol: invalid argument")
	// ErrBusy mirrors -EBUSY: the volume busy flag is held, or the volume
	// is unbalanced and the operation requires a balanced volume.
	ErrBusy = stderrors.New("fsxvol: volume busy")
	// ErrNotPermitted mirrors -EPERM.
	ErrNotPermitted = stderrors.New("fsxvol: not permitted")
	// ErrNotSupported mirrors -ENOTTY: unknown opcode.
	ErrNotSupported = stderrors.New("fsxvol: not supported")
	// ErrTreeNotFound mirrors the "item killed by concurrent truncate"
	// condition: non-fatal to the migration loop, fatal to the current item.
	ErrTreeNotFound = stderrors.New("fsxvol: item not found")
	// ErrIO mirrors -EIO: page read or journal commit failure.
	ErrIO = stderrors.New("fsxvol: io error")
	// ErrInternalInvariant marks a debug-only assertion failure.
	ErrInternalInvariant = stderrors.New("fsxvol: internal invariant violated")
)

// Wrap attaches msg and a stack trace to err while preserving errors.Is
// matching against the sentinel kinds above.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, msg)
}

// Wrapf is Wrap with Printf-style formatting.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, format, args...)
}

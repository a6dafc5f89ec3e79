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
	stderrors "errors"

	"github.com/distvol/fsxvol-lib/xerrors"
)

// Negative-errno-style exit codes, the boundary spec.md §7 draws between
// the abstract error kinds fsxlib works with and the ioctl/CLI surface
// callers expect. This mapping happens only here: every other package
// propagates the xerrors sentinels unchanged.
const (
	exitOK            = 0
	exitGeneric       = 1
	exitNoMemory      = 12 // ENOMEM
	exitIO            = 5  // EIO
	exitNoSpace       = 28 // ENOSPC
	exitBusy          = 16 // EBUSY
	exitInvalidArg    = 22 // EINVAL
	exitNotPermitted  = 1  // EPERM
	exitNotSupported  = 25 // ENOTTY
	exitInternalFault = 14 // EFAULT
)

func errnoOf(err error) int {
	switch {
	case err == nil:
		return exitOK
	case stderrors.Is(err, xerrors.ErrNoMemory):
		return exitNoMemory
	case stderrors.Is(err, xerrors.ErrNoSpace):
		return exitNoSpace
	case stderrors.Is(err, xerrors.ErrBusy):
		return exitBusy
	case stderrors.Is(err, xerrors.ErrInvalidArgument):
		return exitInvalidArg
	case stderrors.Is(err, xerrors.ErrNotPermitted):
		return exitNotPermitted
	case stderrors.Is(err, xerrors.ErrNotSupported):
		return exitNotSupported
	case stderrors.Is(err, xerrors.ErrIO):
		return exitIO
	case stderrors.Is(err, xerrors.ErrInternalInvariant):
		return exitInternalFault
	default:
		return exitGeneric
	}
}

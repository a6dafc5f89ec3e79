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

package migrate

// Action names the migration primitive the decision procedure selected for
// the current item, one of the three reiser4_migrate_extent dispatches.
type Action int

const (
	// InvalidAction marks a freshly constructed Context that WhatToDo or
	// WhatToDoNoSplit has not yet decided.
	InvalidAction Action = iota
	// SkipExtent means the item's data already sits on the brick it
	// should, nothing to do.
	SkipExtent
	// SplitExtent means the item straddles a brick boundary partway
	// through and has to be carved in two before either half can be
	// decided on its own.
	SplitExtent
	// MigrateExtent means some or all of the item's bytes belong on a
	// different brick and must be copied and repointed there.
	MigrateExtent
)

func (a Action) String() string {
	switch a {
	case SkipExtent:
		return "skip"
	case SplitExtent:
		return "split"
	case MigrateExtent:
		return "migrate"
	default:
		return "invalid"
	}
}

// Context tracks one item's progress through the migration state machine,
// the Go analogue of extent_migrate_context. A single Context is reused
// across iterations of Engine.MigrateFile, mutated in place by WhatToDo /
// WhatToDoNoSplit and then consumed by the engine's split/migrate handlers.
type Context struct {
	// Item is the extent currently under consideration. The engine
	// replaces it with the remaining, not-yet-migrated item after each
	// MIGRATE_EXTENT primitive.
	Item *Item

	// Act is the primitive the last WhatToDo* call selected.
	Act Action

	// NewLoc is the brick the current item (or its tail, in the partial
	// case) should end up on.
	NewLoc uint64

	// StopOff is the offset WhatToDo* decided this iteration's work
	// stops at; it becomes DoneOff once the primitive completes.
	StopOff uint64

	// DoneOff is the low-water mark of everything migrated so far,
	// fed back as the restart point (done_off) if the caller has to
	// resume later.
	DoneOff uint64

	// UnitSplitPos is the byte offset, relative to Item.Offset, that
	// SplitExtent or a partial MigrateExtent should cut at.
	UnitSplitPos uint64

	// MigrateWholeItem is true when the whole of Item (not just its
	// tail) needs to move, letting the engine skip straight to stopping
	// after this primitive instead of looking up a successor item.
	MigrateWholeItem bool

	// Stop is set once the walk has nothing left to do: either the
	// file's start has been reached or the last item decided SkipExtent.
	Stop bool

	// BlocksMigrated accumulates the page count actually copied, for
	// progress reporting and tests.
	BlocksMigrated uint64
}

// NewContext starts a migration walk at item, working backwards from its
// tail the way reiser4_migrate_extent does: files are migrated from their
// last item towards their first so that done_off always denotes a valid
// restart point covering everything after it.
func NewContext(item *Item) *Context {
	return &Context{Item: item}
}

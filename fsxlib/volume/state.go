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

// State is the portion of a volume's condition that must survive a
// remount: which table is current, whether a reconfiguration left things
// unbalanced, and whether a brick removal needs to be resumed. It mirrors
// the "Environment / persisted state" surface: the current table, the
// previous table while a reconfiguration is in flight, the
// balanced/unbalanced flag, and the incomplete-removal marker plus victim.
type State struct {
	CurrentTable  []uint32
	PreviousTable []uint32

	Balanced bool

	// IncompleteRemoval and Victim together record a REMOVE_BRICK that
	// crashed mid-flight: BalanceVolume replays the removal against Victim
	// before clearing this flag, the supplemented recovery path
	// reiser4_balance_volume implements.
	IncompleteRemoval bool
	Victim            uint64
}

// BeginReconfigure snapshots the current table as the rollback point and
// marks the volume unbalanced; callers call RollbackReconfigure on error
// and CommitReconfigure with the new table on success.
func (s *State) BeginReconfigure() {
	s.PreviousTable = s.CurrentTable
	s.Balanced = false
}

// CommitReconfigure installs newTable as current and marks the volume
// balanced again, discarding the rollback snapshot.
func (s *State) CommitReconfigure(newTable []uint32) {
	s.CurrentTable = newTable
	s.PreviousTable = nil
	s.Balanced = true
}

// RollbackReconfigure restores CurrentTable from the snapshot taken by
// BeginReconfigure, for the caller-retains-old-table-until-new-one-built
// propagation rule.
func (s *State) RollbackReconfigure() {
	if s.PreviousTable != nil {
		s.CurrentTable = s.PreviousTable
		s.PreviousTable = nil
	}
}

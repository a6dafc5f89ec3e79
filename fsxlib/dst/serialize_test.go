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

package dst

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	vec := twoEqualBricks()
	weights := Calibrate32(2, 1024, vec.CapAt)
	tab := NewSystemTable(vec, weights)

	buf := make([]byte, len(tab)*4)
	Pack(tab, 0, uint64(len(tab)), buf)

	got := make([]uint32, len(tab))
	Unpack(got, buf, 0, uint64(len(tab)))
	require.Equal(t, tab, got)
}

func TestPackUnpackPartialWindow(t *testing.T) {
	tab := []uint32{10, 20, 30, 40, 50}
	buf := make([]byte, 3*4)
	Pack(tab, 1, 3, buf)

	got := make([]uint32, 5)
	Unpack(got, buf, 1, 3)
	require.EqualValues(t, []uint32{0, 20, 30, 40, 0}, got)
}

func TestDumpCopiesWindow(t *testing.T) {
	tab := []uint32{1, 2, 3, 4, 5}
	dst := make([]uint32, 2)
	Dump(tab, 2, dst)
	require.Equal(t, []uint32{3, 4}, dst)
}

func TestFileBackedTablePublishAndLoad(t *testing.T) {
	vec := twoEqualBricks()
	weights := Calibrate32(2, 1024, vec.CapAt)
	tab := NewSystemTable(vec, weights)

	path := filepath.Join(t.TempDir(), "systable.bin")
	ft, err := OpenFileBackedTable(path, uint64(len(tab)))
	require.NoError(t, err)
	defer ft.Close()

	require.NoError(t, ft.Publish(tab))
	require.Equal(t, tab, ft.Load())

	require.EqualValues(t, tab[0], ft.Slot(0))
	ft.SetSlot(0, 99)
	require.EqualValues(t, 99, ft.Slot(0))
}

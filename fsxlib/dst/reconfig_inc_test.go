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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/distvol/fsxvol-lib/bucket"
)

func countByBucket(vec *bucket.MemVector, tab []uint32) map[uint64]int {
	counts := make(map[uint64]int)
	for _, id := range tab {
		counts[uint64(id)]++
	}
	return counts
}

func TestIncAddsThirdEqualBrick(t *testing.T) {
	vec := twoEqualBricks()
	d := NewDcx(nil)
	tab, err := d.InitV(vec, NewSystemTable(vec, Calibrate32(2, 1024, vec.CapAt)), 2, 10)
	require.NoError(t, err)

	vec.Insert(2, &bucket.Brick{ID: 2, Cap: 1})
	res, err := d.Inc(vec, tab, 2, true)
	require.NoError(t, err)
	require.Len(t, res.Tab, 1024)
	require.Equal(t, 3, d.Numb)
	require.False(t, res.Changed.IsEmpty())

	counts := countByBucket(vec, res.Tab)
	require.EqualValues(t, d.Weights[0], counts[0])
	require.EqualValues(t, d.Weights[1], counts[1])
	require.EqualValues(t, d.Weights[2], counts[2])

	var sum int
	for _, c := range counts {
		sum += c
	}
	require.Equal(t, 1024, sum)
	require.EqualValues(t, d.Weights[2], res.Changed.GetCardinality())
}

func TestIncRejectsWhenResolutionExhausted(t *testing.T) {
	vec := twoEqualBricks()
	d := NewDcx(nil)
	_, err := d.InitV(vec, NewSystemTable(vec, Calibrate32(2, 1024, vec.CapAt)), 2, 10)
	require.NoError(t, err)
	d.Numb = MaxBuckets

	_, err = d.Inc(vec, make([]uint32, 1024), 0, true)
	require.Error(t, err)
}

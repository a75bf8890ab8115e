/*
 * queue_test.go, part of confscan.
 *
 * Copyright 2012 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package confscan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueueOrder(t *testing.T) {
	structs := []*Structure{
		ch2fcl(t, 0, -39.5, false, false),
		ch2fcl(t, 1, -40.0, false, false),
		ch2fcl(t, 2, -39.7, false, false),
		ch2fcl(t, 3, -40.0, false, false),
		nil,
	}
	q := NewQueue(structs, 0)
	require.Equal(t, 4, q.Len())
	var order []int
	for _, i := range q.Candidates() {
		order = append(order, q.At(i).Index())
	}
	require.Equal(t, []int{1, 3, 2, 0}, order, "ties keep the input order")
	_, ok := q.Baseline()
	require.False(t, ok)
	require.Empty(t, q.Seeds())

	q = NewQueue(structs, 2)
	require.Equal(t, 2, q.Len())
	require.Equal(t, 2, q.Skipped())
	require.Equal(t, 2, q.At(0).Index())
	require.Equal(t, 0, NewQueue(structs, 10).Len())
}

func TestQueueSeeds(t *testing.T) {
	q := NewQueue([]*Structure{ch2fcl(t, 0, -40, false, false)}, 0)
	q.Seed([]*Structure{ch2fcl(t, 7, -39, false, false), ch2fcl(t, 8, -41, false, false)})
	require.Equal(t, 1, q.Len())
	require.Equal(t, []int{0}, q.Candidates())
	require.Equal(t, []int{1, 2}, q.Seeds())
	require.True(t, q.IsSeed(2))
	require.False(t, q.IsSeed(0))
	low, ok := q.Baseline()
	require.True(t, ok)
	require.Equal(t, -41.0, low)
	require.Equal(t, 8, q.At(2).Index())
}

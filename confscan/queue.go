/*
 * queue.go, part of confscan.
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
	"math"
	"sort"
)

//Queue holds all the structures of a run. Structures are addressed by their
//position in the queue, which never changes once the queue is built: candidates
//first, in ascending energy, then the seeds, if any.
type Queue struct {
	all     []*Structure
	ncand   int
	skipped int
}

//NewQueue returns a queue with structs sorted by ascending energy (ties keep
//the input order), without the skip lowest-energy ones.
func NewQueue(structs []*Structure, skip int) *Queue {
	sorted := make([]*Structure, 0, len(structs))
	for _, v := range structs {
		if v != nil {
			sorted = append(sorted, v)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].energy < sorted[j].energy
	})
	if skip > len(sorted) {
		skip = len(sorted)
	}
	if skip < 0 {
		skip = 0
	}
	Q := &Queue{all: sorted[skip:], skipped: skip}
	Q.ncand = len(Q.all)
	return Q
}

//Seed adds structures accepted in a previous run. Seeds are never candidates:
//they are part of the accepted set of every pass from the start.
func (Q *Queue) Seed(prev []*Structure) {
	for _, v := range prev {
		if v != nil {
			Q.all = append(Q.all, v)
		}
	}
}

//Len returns the number of candidates.
func (Q *Queue) Len() int {
	return Q.ncand
}

//Skipped returns how many low-energy structures were dropped.
func (Q *Queue) Skipped() int {
	return Q.skipped
}

//At returns the structure with index i.
func (Q *Queue) At(i int) *Structure {
	return Q.all[i]
}

//Candidates returns the indexes of all candidates, in energy order.
func (Q *Queue) Candidates() []int {
	ret := make([]int, Q.ncand)
	for i := range ret {
		ret[i] = i
	}
	return ret
}

//Seeds returns the indexes of the seeds.
func (Q *Queue) Seeds() []int {
	ret := make([]int, 0, len(Q.all)-Q.ncand)
	for i := Q.ncand; i < len(Q.all); i++ {
		ret = append(ret, i)
	}
	return ret
}

//IsSeed returns true if i is the index of a seed.
func (Q *Queue) IsSeed(i int) bool {
	return i >= Q.ncand
}

//Baseline returns the lowest seed energy, or false if there are no seeds.
func (Q *Queue) Baseline() (float64, bool) {
	if len(Q.all) == Q.ncand {
		return 0, false
	}
	low := math.Inf(1)
	for _, v := range Q.all[Q.ncand:] {
		low = math.Min(low, v.energy)
	}
	return low, true
}

/*
 * hbond.go, part of confscan.
 *
 * Copyright 2024 Raul Mera <rmera{at}usachDOTcl>
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

package rmsd

import (
	"math"

	chem "github.com/rmera/confscan"
)

//H...acceptor distance window, in A
const (
	hbondMin = 1.5
	hbondMax = 2.6
)

var hbondElements = map[string]bool{"N": true, "O": true, "F": true}

//HBond is a hydrogen bond, given as the indexes of the hydrogen and the acceptor.
type HBond struct {
	H, Acceptor int
}

//HBonds returns the hydrogen bonds of c: pairs of a hydrogen covalently bound
//to N, O or F and an N, O or F acceptor other than its donor, at a distance
//between 1.5 and 2.6 A.
func HBonds(c Conformer) ([]HBond, error) {
	pairs, err := chem.BondPairs(c.Coords, c.Top)
	if err != nil {
		return nil, Error{err.Error(), []string{"chem.BondPairs", "HBonds"}, false}
	}
	donor := make(map[int]int) //hydrogen -> donor atom
	for _, p := range pairs {
		si, sj := c.Top.Atom(p.I).Symbol, c.Top.Atom(p.J).Symbol
		if si == "H" && hbondElements[sj] {
			donor[p.I] = p.J
		} else if sj == "H" && hbondElements[si] {
			donor[p.J] = p.I
		}
	}
	var ret []HBond
	for h, d := range donor {
		for a := 0; a < c.Top.Len(); a++ {
			if a == d || !hbondElements[c.Top.Atom(a).Symbol] {
				continue
			}
			dist := c.Coords.Distance(h, a)
			if dist >= hbondMin && dist <= hbondMax {
				ret = append(ret, HBond{H: h, Acceptor: a})
			}
		}
	}
	return ret, nil
}

//HBondTopologyDifference returns the number of hydrogen bonds present in only one
//of ref and target. The atoms of target are first relabeled with rule (so the atom
//rule[i] of target is compared with the atom i of ref); a nil rule keeps the labels.
//If the hydrogen bonds can't be obtained, math.MaxInt32 is returned, so the structures
//never look alike.
func (D *Driver) HBondTopologyDifference(ref, target Conformer, rule []int) int {
	if err := check(ref, target); err != nil {
		return math.MaxInt32
	}
	rhb, err := HBonds(ref)
	if err != nil {
		return math.MaxInt32
	}
	thb, err := HBonds(target)
	if err != nil {
		return math.MaxInt32
	}
	inv := make([]int, target.Top.Len())
	for i := range inv {
		inv[i] = i
	}
	if rule != nil {
		if err := validRule(ref.Top, target.Top, rule); err != nil {
			return math.MaxInt32
		}
		for i, v := range rule {
			inv[v] = i
		}
	}
	set := make(map[HBond]bool, len(rhb))
	for _, v := range rhb {
		set[v] = true
	}
	diff := 0
	for _, v := range thb {
		v = HBond{H: inv[v.H], Acceptor: inv[v.Acceptor]}
		if set[v] {
			delete(set, v)
			continue
		}
		diff++
	}
	return diff + len(set)
}

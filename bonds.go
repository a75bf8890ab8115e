/*
 * bonds.go, part of confscan.
 *
 * Copyright 2021 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
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

package chem

import (
	"fmt"
	"sort"

	v3 "github.com/rmera/confscan/v3"
)

//constants from DOI:10.1186/1758-2946-3-33
const (
	tooclose = 0.63
	bondtol  = 0.45
)

type Bond struct {
	Index int
	At1   *Atom
	At2   *Atom
	Dist  float64
	Order float64 //Order 0 means undetermined
}

//Cross returns the atom at the other side of the bond from origin.
func (B *Bond) Cross(origin *Atom) *Atom {
	if origin.Index == B.At1.Index {
		return B.At2
	}
	if origin.Index == B.At2.Index {
		return B.At1
	}
	panic("Trying to cross a bond: The origin atom given is not present in the bond!") //I think this got to be a programming error, so a panic is warranted.
}

//BondPair is a bond given as the indexes of both atoms, with I < J.
type BondPair struct {
	I, J int
	Dist float64
}

//BondPairs returns the bonds in the structure with coordinates coord and topology mol,
//based on a simple distance criterium, similar to that described in DOI:10.1186/1758-2946-3-33.
//Atoms with more bonds than allowed for their element keep only the shortest ones.
//Neither mol nor coord are modified, so it can be called concurrently on a shared topology.
func BondPairs(coord *v3.Matrix, mol Atomer) ([]BondPair, error) {
	tot := mol.Len()
	if coord.NVecs() != tot {
		return nil, CError{fmt.Sprintf("%d atoms but %d coordinates", tot, coord.NVecs()), []string{"BondPairs"}}
	}
	perAtom := make([][]int, tot) //indexes in pairs
	pairs := make([]BondPair, 0, tot)
	for i := 0; i < tot; i++ {
		cov1 := symbolCovrad[mol.Atom(i).Symbol]
		if cov1 == 0 {
			return nil, CError{fmt.Sprintf("Couldn't find the covalent radii  for %s %d", mol.Atom(i).Symbol, i), []string{"BondPairs"}}
		}
		for j := i + 1; j < tot; j++ {
			cov2 := symbolCovrad[mol.Atom(j).Symbol]
			if cov2 == 0 {
				return nil, CError{fmt.Sprintf("Couldn't find the covalent radii  for %s %d", mol.Atom(j).Symbol, j), []string{"BondPairs"}}
			}
			d := coord.Distance(i, j)
			if d < cov1+cov2+bondtol && d > tooclose {
				perAtom[i] = append(perAtom[i], len(pairs))
				perAtom[j] = append(perAtom[j], len(pairs))
				pairs = append(pairs, BondPair{I: i, J: j, Dist: d})
			}
		}
	}
	//Now we check that no atom has too many bonds.
	removed := make([]bool, len(pairs))
	for i := 0; i < tot; i++ {
		max := symbolMaxBonds[mol.Atom(i).Symbol]
		if max == 0 { //means there is not a specified number of bonds for this atom.
			continue
		}
		alive := make([]int, 0, len(perAtom[i]))
		for _, p := range perAtom[i] {
			if !removed[p] {
				alive = append(alive, p)
			}
		}
		sort.Slice(alive, func(a, b int) bool { return pairs[alive[a]].Dist < pairs[alive[b]].Dist })
		for k := max; k < len(alive); k++ {
			removed[alive[k]] = true //we remove the longest bonds
		}
	}
	ret := pairs[:0]
	for k, v := range pairs {
		if !removed[k] {
			ret = append(ret, v)
		}
	}
	return ret, nil
}

//AssignBonds assigns bonds to the atoms of mol, using BondPairs. Existing bonds are replaced.
func AssignBonds(coord *v3.Matrix, mol *Topology) error {
	mol.FillIndexes()
	pairs, err := BondPairs(coord, mol)
	if err != nil {
		return errDecorate(err, "AssignBonds")
	}
	for _, at := range mol.Atoms {
		at.Bonds = nil
	}
	for k, p := range pairs {
		at1, at2 := mol.Atom(p.I), mol.Atom(p.J)
		b := &Bond{Index: k, Dist: p.Dist, At1: at1, At2: at2}
		at1.Bonds = append(at1.Bonds, b)
		at2.Bonds = append(at2.Bonds, b)
	}
	return nil
}

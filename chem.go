/*
 * chem.go, part of confscan.
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

package chem

import (
	"fmt"

	v3 "github.com/rmera/confscan/v3"
)

//Atom contains the information read for an atom except for the coordinates,
//which live in a v3.Matrix.
type Atom struct {
	Name   string
	ID     int //1-based, as read from the file.
	Index  int //0-based position in the topology. Filled by FillIndexes.
	Symbol string
	Mass   float64
	Charge float64
	Bonds  []*Bond //filled by AssignBonds
}

//Heavy returns true if the atom is not a hydrogen.
func (A *Atom) Heavy() bool {
	return A.Symbol != "H" && A.Symbol != "D"
}

/*****Topology type***/

//Topology contains information about a molecule which is not expected to change in time (i.e. everything except for coordinates)
type Topology struct {
	Atoms  []*Atom
	charge int
	multi  int
}

//NewTopology returns a topology with the given atoms (if any), charge
//and multiplicity.
func NewTopology(charge, multi int, ats ...[]*Atom) *Topology {
	top := new(Topology)
	if len(ats) > 0 && ats[0] != nil {
		top.Atoms = ats[0]
	} else {
		top.Atoms = make([]*Atom, 0, 10)
	}
	top.charge = charge
	top.multi = multi
	return top
}

//Charge gets the total charge of the topology
func (T *Topology) Charge() int {
	return T.charge
}

//Multi returns the multiplicity of the topology
func (T *Topology) Multi() int {
	return T.multi
}

//SetCharge sets the total charge of the topology to i
func (T *Topology) SetCharge(i int) {
	T.charge = i
}

//SetMulti sets the multiplicity of the topology to i
func (T *Topology) SetMulti(i int) {
	T.multi = i
}

//FillIndexes sets the Index field of each atom to its position
//in the topology.
func (T *Topology) FillIndexes() {
	for i, v := range T.Atoms {
		v.Index = i
	}
}

//FillMasses tries to assign a mass to every atom lacking one, based on
//its symbol. Returns an error naming the first atom for which that was not possible.
func (T *Topology) FillMasses() error {
	for i, v := range T.Atoms {
		if v.Mass != 0 {
			continue
		}
		m, ok := symbolMass[v.Symbol]
		if !ok {
			return CError{fmt.Sprintf("Unknown mass for atom %d (%s)", i, v.Symbol), []string{"FillMasses"}}
		}
		v.Mass = m
	}
	return nil
}

//Atom returns the Atom corresponding to the index i
//of the Atom slice in the Topology. Panics if
//out of range.
func (T *Topology) Atom(i int) *Atom {
	if i >= T.Len() {
		panic("Topology: Requested Atom out of bounds")
	}
	return T.Atoms[i]
}

//Len returns the number of atoms in the topology.
func (T *Topology) Len() int {
	return len(T.Atoms)
}

//Masses returns a slice with the masses of all atoms, or an error
//if not all of them are known.
func (T *Topology) Masses() ([]float64, error) {
	mass := make([]float64, T.Len())
	for i := 0; i < T.Len(); i++ {
		thisatom := T.Atom(i)
		if thisatom.Mass == 0 {
			return nil, CError{fmt.Sprintf("Not all the masses have been obtained: %d %v", i, thisatom.Symbol), []string{"Masses"}}
		}
		mass[i] = thisatom.Mass
	}
	return mass, nil
}

//HeavyIndexes returns the indexes of all non-hydrogen atoms in mol.
func HeavyIndexes(mol Atomer) []int {
	ret := make([]int, 0, mol.Len())
	for i := 0; i < mol.Len(); i++ {
		if mol.Atom(i).Heavy() {
			ret = append(ret, i)
		}
	}
	return ret
}

//SameComposition returns true if both topologies have the same element
//symbols in the same order.
func SameComposition(a, b Atomer) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		if a.Atom(i).Symbol != b.Atom(i).Symbol {
			return false
		}
	}
	return true
}

/**Type Molecule**/

//Molecule contains the topology and the coordinates of one or more
//states of a molecule (i.e. an ensemble of conformers). Energies and names
//are per-state, read from XYZ comment lines.
type Molecule struct {
	*Topology
	Coords   []*v3.Matrix
	Energies []float64
	Names    []string
}

//AddFrame appends a set of coordinates, with its energy, to the molecule.
func (M *Molecule) AddFrame(newframe *v3.Matrix, energy float64) {
	if newframe == nil {
		panic("Attempted to add nil frame")
	}
	if M.Len() != newframe.NVecs() {
		panic(fmt.Sprintf("Wrong number of coordinates (%d)", newframe.NVecs()))
	}
	M.Coords = append(M.Coords, newframe)
	M.Energies = append(M.Energies, energy)
}

//LenFrames returns the number of frames in the molecule
func (M *Molecule) LenFrames() int {
	return len(M.Coords)
}

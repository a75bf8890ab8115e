/*
 * structure.go, part of confscan.
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

	chem "github.com/rmera/confscan"
	"github.com/rmera/confscan/fingerprint"
	"github.com/rmera/confscan/rmsd"
	v3 "github.com/rmera/confscan/v3"
)

//atoms closer than this (A) make a structure invalid.
const minDistance = 0.5

//Structure is one candidate conformer. It is built once by NewStructure and
//never modified afterwards, so it can be read from several goroutines.
type Structure struct {
	name   string
	index  int
	energy float64 //Hartree
	top    *chem.Topology
	coords *v3.Matrix
	rot    [3]float64
	fp     *fingerprint.Image
	valid  bool
}

//NewStructure builds a structure, computing its rotational constants and, if gen
//is not nil, its fingerprint. Structures that fail the sanity checks (unknown
//masses, non-finite coordinates, overlapping atoms) are returned, but flagged
//as not valid. An error is returned only if top and coords don't match.
func NewStructure(name string, index int, energy float64, top *chem.Topology, coords *v3.Matrix, gen *fingerprint.Generator) (*Structure, error) {
	if top == nil || coords == nil || top.Len() == 0 || top.Len() != coords.NVecs() {
		return nil, inputError(nil, "structure %d (%s) has mismatched atoms and coordinates", index, name)
	}
	s := &Structure{name: name, index: index, energy: energy, top: top, coords: coords, valid: true}
	if math.IsNaN(energy) || math.IsInf(energy, 0) || coords.HasNaN() || overlapping(coords) {
		s.valid = false
		return s, nil
	}
	mass, err := top.Masses()
	if err != nil {
		if err = top.FillMasses(); err != nil {
			s.valid = false
			return s, nil
		}
		mass, _ = top.Masses()
	}
	if s.rot, err = chem.RotationalConstants(coords, mass); err != nil {
		s.valid = false
		return s, nil
	}
	if gen != nil {
		if s.fp, err = gen.Image(coords); err != nil {
			s.valid = false
		}
	}
	return s, nil
}

func overlapping(coords *v3.Matrix) bool {
	n := coords.NVecs()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if coords.Distance(i, j) < minDistance {
				return true
			}
		}
	}
	return false
}

//Name returns the comment line the structure was read with.
func (S *Structure) Name() string { return S.name }

//Index returns the position of the structure in the input.
func (S *Structure) Index() int { return S.index }

//Energy returns the energy, in Hartree.
func (S *Structure) Energy() float64 { return S.energy }

func (S *Structure) Topology() *chem.Topology { return S.top }

func (S *Structure) Coords() *v3.Matrix { return S.coords }

func (S *Structure) Len() int { return S.top.Len() }

//RotationalConstants returns A, B and C in MHz.
func (S *Structure) RotationalConstants() [3]float64 { return S.rot }

//Fingerprint returns the persistence image of the structure, or nil.
func (S *Structure) Fingerprint() *fingerprint.Image { return S.fp }

//Valid returns false if the structure failed the sanity checks.
func (S *Structure) Valid() bool { return S.valid }

//conformer returns a view of S for the rmsd package. The geometry is
//copied, so the comparator never shares buffers with other goroutines.
func (S *Structure) conformer() rmsd.Conformer {
	c := v3.Zeros(S.coords.NVecs())
	c.Copy(S.coords)
	return rmsd.Conformer{Top: S.top, Coords: c}
}

/*
 * helpers_test.go, part of confscan.
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
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	chem "github.com/rmera/confscan"
	"github.com/rmera/confscan/fingerprint"
	v3 "github.com/rmera/confscan/v3"
)

//ch2fcl returns CH2FCl, with the hydrogens exchanged if swapH is set,
//rotated 90 degrees around x and translated if moved is set.
func ch2fcl(t *testing.T, index int, energy float64, swapH, moved bool) *Structure {
	return ch2fclStretched(t, index, energy, swapH, moved, 1.77)
}

func ch2fclStretched(t *testing.T, index int, energy float64, swapH, moved bool, ccl float64) *Structure {
	h, f, cl := 1.09/math.Sqrt(3), 1.35/math.Sqrt(3), ccl/math.Sqrt(3)
	h1 := []float64{h, h, h}
	h2 := []float64{-h, -h, h}
	if swapH {
		h1, h2 = h2, h1
	}
	data := []float64{0, 0, 0}
	data = append(data, h1...)
	data = append(data, h2...)
	data = append(data, -f, f, -f, cl, -cl, -cl)
	if moved {
		for i := 0; i < len(data); i += 3 {
			x, y, z := data[i], data[i+1], data[i+2]
			data[i], data[i+1], data[i+2] = x+5, -z, y-1
		}
	}
	coords, err := v3.NewMatrix(data)
	require.NoError(t, err)
	ats := make([]*chem.Atom, 0, 5)
	for i, s := range []string{"C", "H", "H", "F", "Cl"} {
		ats = append(ats, &chem.Atom{Name: s, ID: i + 1, Index: i, Symbol: s})
	}
	top := chem.NewTopology(0, 1, ats)
	require.NoError(t, top.FillMasses())
	gen, err := fingerprint.New(fingerprint.DefaultParams())
	require.NoError(t, err)
	s, err := NewStructure("test", index, energy, top, coords, gen)
	require.NoError(t, err)
	require.True(t, s.Valid())
	return s
}

//identical returns n copies of the same geometry with increasing energies.
func identical(t *testing.T, n int) []*Structure {
	ret := make([]*Structure, n)
	for i := range ret {
		ret[i] = ch2fcl(t, i, -40+float64(i)*1e-5, false, i%2 == 1)
	}
	return ret
}

//clones returns n copies of exactly the same coordinates, so the pre-filter
//differences are all zero.
func clones(t *testing.T, n int) []*Structure {
	ret := make([]*Structure, n)
	for i := range ret {
		ret[i] = ch2fcl(t, i, -40+float64(i)*1e-5, false, false)
	}
	return ret
}

//script is a scripted comparator. Results are looked up by the input indexes
//of the (reference, target) pair; pairs not listed are far apart.
type script struct {
	align   map[[2]int]float64
	reorder map[[2]int]float64
	rule    Rule //returned by every successful search

	aligns   int64
	searches int64
	probes   int64
}

const far = 5.0

func (S *script) factory() ComparatorFactory {
	return func(int) Comparator { return scriptComparator{S} }
}

type scriptComparator struct {
	s *script
}

func key(ref, target *Structure) [2]int {
	return [2]int{ref.Index(), target.Index()}
}

func (C scriptComparator) Align(ref, target *Structure) (float64, error) {
	atomic.AddInt64(&C.s.aligns, 1)
	if v, ok := C.s.align[key(ref, target)]; ok {
		return v, nil
	}
	return far, nil
}

func (C scriptComparator) AlignWithReorder(ref, target *Structure) (float64, Rule, error) {
	atomic.AddInt64(&C.s.searches, 1)
	if v, ok := C.s.reorder[key(ref, target)]; ok {
		return v, C.s.rule, nil
	}
	return far, nil, nil
}

func (C scriptComparator) RMSDForRule(ref, target *Structure, rule Rule) (float64, error) {
	atomic.AddInt64(&C.s.probes, 1)
	if v, ok := C.s.reorder[key(ref, target)]; ok && rule.Equal(C.s.rule) {
		return v, nil
	}
	return far, nil
}

func (C scriptComparator) HBondTopologyDifference(ref, target *Structure, rule Rule) int {
	return 0
}

/*
 * chem_test.go, part of confscan.
 *
 * Copyright 2013 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
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
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	v3 "github.com/rmera/confscan/v3"
)

//a tetrahedral CH2FCl
func testMolecule(Te *testing.T) (*v3.Matrix, *Topology) {
	h, f, cl := 1.09/math.Sqrt(3), 1.35/math.Sqrt(3), 1.77/math.Sqrt(3)
	coords, err := v3.NewMatrix([]float64{
		0, 0, 0,
		h, h, h,
		-h, -h, h,
		-f, f, -f,
		cl, -cl, -cl,
	})
	if err != nil {
		Te.Fatal(err)
	}
	ats := make([]*Atom, 0, 5)
	for i, s := range []string{"C", "H", "H", "F", "Cl"} {
		ats = append(ats, &Atom{Name: s, ID: i + 1, Symbol: s})
	}
	top := NewTopology(0, 1, ats)
	if err = top.FillMasses(); err != nil {
		Te.Fatal(err)
	}
	top.FillIndexes()
	return coords, top
}

//rotates 90 degrees around z and translates by (1,2,3)
func rotated(A *v3.Matrix) *v3.Matrix {
	ret := v3.Zeros(A.NVecs())
	for i := 0; i < A.NVecs(); i++ {
		ret.Set(i, 0, -A.At(i, 1)+1)
		ret.Set(i, 1, A.At(i, 0)+2)
		ret.Set(i, 2, A.At(i, 2)+3)
	}
	return ret
}

func TestXYZIO(Te *testing.T) {
	coords, top := testMolecule(Te)
	dir := Te.TempDir()
	for _, name := range []string{"ens.xyz", "ens.xyz.zst"} {
		name = filepath.Join(dir, name)
		W, err := XYZFileCreate(name)
		if err != nil {
			Te.Fatal(err)
		}
		if err = W.WNext(coords, top, "-40.5"); err != nil {
			Te.Fatal(err)
		}
		if err = W.WNext(rotated(coords), top, "energy: -40.25 gnorm: 0.0001"); err != nil {
			Te.Fatal(err)
		}
		if err = W.Close(); err != nil {
			Te.Fatal(err)
		}
		mol, err := XYZFileRead(name)
		if err != nil {
			Te.Fatal(err)
		}
		if mol.LenFrames() != 2 || mol.Len() != 5 {
			Te.Fatalf("%s: expected 2 frames of 5 atoms, got %d of %d", name, mol.LenFrames(), mol.Len())
		}
		if mol.Energies[0] != -40.5 || mol.Energies[1] != -40.25 {
			Te.Errorf("%s: wrong energies %v", name, mol.Energies)
		}
		if mol.Atom(4).Symbol != "Cl" || mol.Atom(4).Mass == 0 {
			Te.Errorf("%s: wrong last atom %v", name, mol.Atom(4))
		}
		if r, _ := RMSD(mol.Coords[0], coords); r > 1e-5 {
			Te.Errorf("%s: coordinates changed on IO, RMSD %f", name, r)
		}
	}
}

func TestXYZTruncatedStream(Te *testing.T) {
	coords, top := testMolecule(Te)
	dir := Te.TempDir()
	name := filepath.Join(dir, "full.xyz.zst")
	W, err := XYZFileCreate(name)
	if err != nil {
		Te.Fatal(err)
	}
	for i := 0; i < 400; i++ {
		if err = W.WNext(coords, top, fmt.Sprintf("%.6f frame %d", -40-float64(i)*1e-4, i)); err != nil {
			Te.Fatal(err)
		}
	}
	if err = W.Close(); err != nil {
		Te.Fatal(err)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		Te.Fatal(err)
	}
	cut := filepath.Join(dir, "cut.xyz.zst")
	if err = os.WriteFile(cut, data[:len(data)/2], 0o644); err != nil {
		Te.Fatal(err)
	}
	X, err := XYZFileOpen(cut)
	if err != nil {
		return //rejected up front, which is fine too
	}
	defer X.Close()
	for n := 0; ; n++ {
		_, err := X.Next()
		if err == io.EOF {
			Te.Fatalf("Truncated stream read as a clean end after %d of 400 frames", n)
		}
		if err != nil {
			break
		}
	}
	if _, err := XYZFileRead(cut); err == nil {
		Te.Error("XYZFileRead accepted a truncated stream")
	}
}

func TestXYZBadInput(Te *testing.T) {
	coords, top := testMolecule(Te)
	top.Atoms = top.Atoms[:4]
	if _, err := XYZStringWrite(coords, top, ""); err == nil {
		Te.Error("mismatched topology and coordinates should not be written")
	}
	if _, err := XYZFileRead(filepath.Join(Te.TempDir(), "none.xyz")); err == nil {
		Te.Error("reading a missing file should fail")
	}
}

func TestSuper(Te *testing.T) {
	coords, _ := testMolecule(Te)
	moved := rotated(coords)
	if r, _ := RMSD(moved, coords); r < 1 {
		Te.Errorf("moved structure too close to the original: %f", r)
	}
	r, err := SuperRMSD(moved, coords)
	if err != nil {
		Te.Fatal(err)
	}
	if r > 1e-6 {
		Te.Errorf("RMSD after superposition should be 0, got %f", r)
	}
	sup, err := Super(moved, coords, []int{0, 1, 2, 3}, []int{0, 1, 2, 3})
	if err != nil {
		Te.Fatal(err)
	}
	if r, _ := RMSD(sup, coords); r > 1e-6 {
		Te.Errorf("partial superposition failed, RMSD %f", r)
	}
}

func TestRotationalConstants(Te *testing.T) {
	coords, top := testMolecule(Te)
	mass, err := top.Masses()
	if err != nil {
		Te.Fatal(err)
	}
	c1, err := RotationalConstants(coords, mass)
	if err != nil {
		Te.Fatal(err)
	}
	c2, err := RotationalConstants(rotated(coords), mass)
	if err != nil {
		Te.Fatal(err)
	}
	if c1[0] < c1[1] || c1[1] < c1[2] || c1[2] <= 0 {
		Te.Errorf("constants should be positive and sorted: %v", c1)
	}
	for i := range c1 {
		if math.Abs(c1[i]-c2[i]) > 1e-6*c1[i] {
			Te.Errorf("rotational constants changed on rigid motion: %v %v", c1, c2)
		}
	}
}

func TestBondPairs(Te *testing.T) {
	coords, top := testMolecule(Te)
	pairs, err := BondPairs(coords, top)
	if err != nil {
		Te.Fatal(err)
	}
	if len(pairs) != 4 {
		Te.Fatalf("expected 4 bonds, got %v", pairs)
	}
	for _, p := range pairs {
		if p.I != 0 {
			Te.Errorf("all bonds should involve the carbon: %v", p)
		}
	}
	if err = AssignBonds(coords, top); err != nil {
		Te.Fatal(err)
	}
	if len(top.Atom(0).Bonds) != 4 || top.Atom(1).Bonds[0].Cross(top.Atom(1)) != top.Atom(0) {
		Te.Errorf("bonds not assigned to atoms")
	}
}

func TestHeavyIndexes(Te *testing.T) {
	_, top := testMolecule(Te)
	heavy := HeavyIndexes(top)
	want := []int{0, 3, 4}
	if len(heavy) != len(want) {
		Te.Fatalf("Got heavy atoms %v, expected %v", heavy, want)
	}
	for i, v := range want {
		if heavy[i] != v {
			Te.Errorf("Got heavy atoms %v, expected %v", heavy, want)
		}
	}
}

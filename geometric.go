/*
 * geometric.go, part of confscan.
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
	"math"

	v3 "github.com/rmera/confscan/v3"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//CenterOfMass returns the center of mass the atoms represented by the coordinates in geometry
//and the masses in mass, and an error. If mass is nil, it calculates the geometric center
func CenterOfMass(geometry *v3.Matrix, mass []float64) (*v3.Matrix, error) {
	if geometry == nil {
		return nil, CError{"nil matrix to get the center of mass", []string{"CenterOfMass"}}
	}
	gr := geometry.NVecs()
	if mass == nil {
		mass = ones(gr)
	}
	if len(mass) != gr {
		return nil, CError{fmt.Sprintf("%d masses for %d atoms", len(mass), gr), []string{"CenterOfMass"}}
	}
	total := floats.Sum(mass)
	if total == 0 {
		return nil, CError{"Total mass is zero", []string{"CenterOfMass"}}
	}
	ref := v3.Zeros(1)
	for i := 0; i < gr; i++ {
		for j := 0; j < 3; j++ {
			ref.Set(0, j, ref.At(0, j)+mass[i]*geometry.At(i, j))
		}
	}
	ref.Scale(1.0/total, ref)
	return ref, nil
}

//MassCentrate centers in in the center of mass of oref. Returns the centered matrix
//and the displacement vector.
func MassCentrate(in, oref *v3.Matrix, mass []float64) (*v3.Matrix, *v3.Matrix, error) {
	ref, err := CenterOfMass(oref, mass)
	if err != nil {
		return nil, nil, errDecorate(err, "MassCentrate")
	}
	returned := v3.Zeros(in.NVecs())
	returned.SubVec(in, ref)
	return returned, ref, nil
}

//RotatorTranslatorToSuper superimposes the set of cartesian coordinates given as the rows of the matrix test on the ones of the rows
//of the matrix templa, with the Kabsch algorithm. Returns the transformed matrix, the rotation matrix, 2 translation row vectors
//for the superposition plus an error. In order to perform the superposition, without using the transformed,
//the first translation vector has to be added first to the moving matrix, then the rotation must be performed
//and finally the second translation has to be added.
//Reflections are never returned: the rotation always has determinant 1.
func RotatorTranslatorToSuper(test, templa *v3.Matrix) (*v3.Matrix, *v3.Matrix, *v3.Matrix, *v3.Matrix, error) {
	tmr := templa.NVecs()
	tsr := test.NVecs()
	if tmr != tsr {
		return nil, nil, nil, nil, CError{fmt.Sprintf("Ill-formed matrices: %d and %d vectors", tsr, tmr), []string{"RotatorTranslatorToSuper"}}
	}
	ctest, distest, err := MassCentrate(test, test, nil)
	if err != nil {
		return nil, nil, nil, nil, errDecorate(err, "RotatorTranslatorToSuper")
	}
	ctempla, distempla, err := MassCentrate(templa, templa, nil)
	if err != nil {
		return nil, nil, nil, nil, errDecorate(err, "RotatorTranslatorToSuper")
	}
	H := mat.NewDense(3, 3, nil)
	H.Mul(ctest.T(), ctempla.Dense)
	var svd mat.SVD
	if ok := svd.Factorize(H, mat.SVDFull); !ok {
		return nil, nil, nil, nil, CError{"SVD factorization failed", []string{"RotatorTranslatorToSuper"}}
	}
	var U, V mat.Dense
	svd.UTo(&U)
	svd.VTo(&V)
	//Rotation acts on row vectors: x' = x*Rotation
	Rotation := v3.Zeros(3)
	Rotation.Mul(&U, V.T())
	if v3.Det(Rotation) < 0 {
		D := mat.NewDiagDense(3, []float64{1, 1, -1})
		UD := mat.NewDense(3, 3, nil)
		UD.Mul(&U, D)
		Rotation.Mul(UD, V.T())
	}
	transformed := v3.Zeros(tsr)
	transformed.Mul(ctest, Rotation)
	transformed.AddVec(transformed, distempla)
	distest.Scale(-1, distest)
	return transformed, Rotation, distest, distempla, nil
}

//Super superimposes test onto templa, using only the atoms in testlst and templalst (all atoms
//if both are nil) to obtain the superposition, and returns the whole test set, superimposed.
func Super(test, templa *v3.Matrix, testlst, templalst []int) (*v3.Matrix, error) {
	ctest := test
	ctempla := templa
	if testlst != nil && templalst != nil {
		if len(testlst) != len(templalst) {
			return nil, CError{"Mismatched atom lists", []string{"Super"}}
		}
		ctest = v3.Zeros(len(testlst))
		if err := ctest.SomeVecsSafe(test, testlst); err != nil {
			return nil, CError{err.Error(), []string{"Super"}}
		}
		ctempla = v3.Zeros(len(templalst))
		if err := ctempla.SomeVecsSafe(templa, templalst); err != nil {
			return nil, CError{err.Error(), []string{"Super"}}
		}
	}
	_, rot, trans1, trans2, err := RotatorTranslatorToSuper(ctest, ctempla)
	if err != nil {
		return nil, errDecorate(err, "Super")
	}
	ret := v3.Zeros(test.NVecs())
	ret.AddVec(test, trans1)
	ret.Mul(ret, rot)
	ret.AddVec(ret, trans2)
	return ret, nil
}

//RMSD returns the RSMD (root of the mean square deviation) for the sets of cartesian
//coordinates in test and template, without superimposing them.
func RMSD(test, template *v3.Matrix) (float64, error) {
	if test.NVecs() != template.NVecs() {
		return 0, CError{"Ill formed matrices for RMSD calculation", []string{"RMSD"}}
	}
	var sq float64
	for i := 0; i < template.NVecs(); i++ {
		for j := 0; j < 3; j++ {
			d := template.At(i, j) - test.At(i, j)
			sq += d * d
		}
	}
	return math.Sqrt(sq / float64(template.NVecs())), nil
}

//SuperRMSD superimposes test onto template with all atoms and returns the RMSD
//after the superposition.
func SuperRMSD(test, template *v3.Matrix) (float64, error) {
	transformed, _, _, _, err := RotatorTranslatorToSuper(test, template)
	if err != nil {
		return math.NaN(), errDecorate(err, "SuperRMSD")
	}
	return RMSD(transformed, template)
}

//MomentTensor returns the second moment tensor for a matrix A of coordinates and a
//slice with the respective massess (all masses are 1 if massslice is nil).
func MomentTensor(A *v3.Matrix, massslice []float64) (*v3.Matrix, error) {
	center, _, err := MassCentrate(A, A, massslice)
	if err != nil {
		return nil, errDecorate(err, "MomentTensor")
	}
	if massslice == nil {
		massslice = ones(A.NVecs())
	}
	for i := 0; i < center.NVecs(); i++ {
		row := center.VecView(i)
		row.Scale(math.Sqrt(massslice[i]), row)
	}
	moment := v3.Zeros(3)
	moment.Mul(center.T(), center)
	return moment, nil
}

//InertiaTensor returns the inertia tensor, in amu*A^2, of the coordinates in A with masses mass,
//with respect to their center of mass.
func InertiaTensor(A *v3.Matrix, mass []float64) (*v3.Matrix, error) {
	moment, err := MomentTensor(A, mass)
	if err != nil {
		return nil, errDecorate(err, "InertiaTensor")
	}
	trace := moment.At(0, 0) + moment.At(1, 1) + moment.At(2, 2)
	inertia := v3.Zeros(3)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			inertia.Set(i, j, trace*v3.KronekerDelta(float64(i), float64(j), -1)-moment.At(i, j))
		}
	}
	return inertia, nil
}

//PrincipalAxes returns the principal axes of inertia, as the rows of a matrix
//forming a right-handed set, and the principal moments, in ascending order.
func PrincipalAxes(A *v3.Matrix, mass []float64) (*v3.Matrix, []float64, error) {
	inertia, err := InertiaTensor(A, mass)
	if err != nil {
		return nil, nil, errDecorate(err, "PrincipalAxes")
	}
	evecs, evals, err := v3.EigenWrap(inertia, 1e-8)
	if err != nil {
		return nil, nil, CError{err.Error(), []string{"v3.EigenWrap", "PrincipalAxes"}}
	}
	return evecs, evals, nil
}

//RotationalConstants returns the rotational constants A >= B >= C, in MHz, of
//the structure with coordinates (A) and masses mass. Constants for vanishing
//moments (the A constant of a linear molecule) are set to 0.
func RotationalConstants(coords *v3.Matrix, mass []float64) ([3]float64, error) {
	var ret [3]float64
	_, evals, err := PrincipalAxes(coords, mass)
	if err != nil {
		return ret, errDecorate(err, "RotationalConstants")
	}
	for i, v := range evals {
		if v < 1e-6 {
			continue
		}
		ret[i] = AmuA2MHz / v
	}
	return ret, nil
}

func ones(n int) []float64 {
	r := make([]float64, n)
	for i := range r {
		r[i] = 1
	}
	return r
}

/*
 * energy.go, part of confscan.
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

package qm

import (
	"context"
	"os"

	"github.com/google/uuid"
	chem "github.com/rmera/confscan"
	v3 "github.com/rmera/confscan/v3"
)

//DefaultMethod is used when no method is requested.
const DefaultMethod = "gfn2"

//EnergyCalculator obtains single-point energies for structures, choosing the
//program from the method name. Each calculation runs in its own scratch
//directory, so an EnergyCalculator can be used from several goroutines.
type EnergyCalculator struct {
	calc    Calc
	scratch string
	keep    bool
	handle  func() Handle
}

//NewEnergyCalculator returns a calculator for method (DefaultMethod if empty).
//others are passed verbatim to the program.
func NewEnergyCalculator(method string, others ...string) (*EnergyCalculator, error) {
	if method == "" {
		method = DefaultMethod
	}
	E := &EnergyCalculator{calc: Calc{Method: method, Others: others}, scratch: os.TempDir()}
	switch {
	case isInString(XTBMethods, method):
		E.handle = func() Handle { return NewXTBHandle() }
	default:
		return nil, Error{ErrUnknownMethod, "", method, "", []string{"NewEnergyCalculator"}, true}
	}
	return E, nil
}

//Method returns the method used.
func (E *EnergyCalculator) Method() string {
	return E.calc.Method
}

//SetScratch sets the directory where the scratch directories are created.
func (E *EnergyCalculator) SetScratch(dir string) {
	E.scratch = dir
}

//KeepFiles makes the calculator leave the scratch directories behind, for debugging.
func (E *EnergyCalculator) KeepFiles(keep bool) {
	E.keep = keep
}

//SetHandleMaker replaces the function that creates a program handle for each calculation.
func (E *EnergyCalculator) SetHandleMaker(f func() Handle) {
	E.handle = f
}

//Energy returns the single-point energy, in Hartree, of the structure with
//coordinates coords and atoms atoms.
func (E *EnergyCalculator) Energy(ctx context.Context, coords *v3.Matrix, atoms chem.AtomMultiCharger) (float64, error) {
	name := "confscan-" + uuid.NewString()
	dir, err := os.MkdirTemp(E.scratch, name)
	if err != nil {
		return 0, Error{ErrCantInput, "", name, err.Error(), []string{"os.MkdirTemp", "Energy"}, true}
	}
	if !E.keep {
		defer os.RemoveAll(dir)
	}
	h := E.handle()
	h.SetName("confscan")
	h.SetWorkDir(dir)
	calc := E.calc
	if err = h.BuildInput(coords, atoms, &calc); err != nil {
		return 0, errDecorate(err, "Energy")
	}
	if err = h.Run(ctx); err != nil {
		return 0, errDecorate(err, "Energy")
	}
	en, err := h.Energy()
	if err != nil {
		return en, errDecorate(err, "Energy")
	}
	return en, nil
}

/*
 * xtb.go, part of confscan.
 *
 *
 * Copyright 2016 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
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
//In order to use this part of the library you need the xtb program, which must be obtained from Prof. Stefan Grimme's group.
//Please cite the the xtb references if you used the program.

package qm

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	chem "github.com/rmera/confscan"
	v3 "github.com/rmera/confscan/v3"
)

//XTBMethods are the methods understood by XTBHandle.
var XTBMethods = []string{"gfn0", "gfn1", "gfn2", "gfnff"}

//Note that the default methods and basis vary with each program, and even
//for a given program they are NOT considered part of the API, so they can always change.
type XTBHandle struct {
	command   string
	inputname string
	workdir   string
	nCPU      int
	options   []string
}

func NewXTBHandle() *XTBHandle {
	run := new(XTBHandle)
	run.SetDefaults()
	return run
}

//XTBHandle methods

//Sets the number of CPU to be used
func (O *XTBHandle) SetnCPU(cpu int) {
	O.nCPU = cpu
}

func (O *XTBHandle) Command() string {
	return O.command
}

func (O *XTBHandle) SetName(name string) {
	O.inputname = name
}

func (O *XTBHandle) SetWorkDir(dir string) {
	O.workdir = dir
}

func (O *XTBHandle) SetCommand(name string) {
	O.command = name
}

func (O *XTBHandle) SetDefaults() {
	O.command = os.ExpandEnv("xtb")
	O.nCPU = 1
	if cpu := runtime.NumCPU() / 2; cpu > 1 {
		O.nCPU = cpu
	}
	O.workdir = "."
}

//Options returns the command line arguments built by the last BuildInput call.
func (O *XTBHandle) Options() []string {
	return O.options
}

func (O *XTBHandle) file(ext string) string {
	return filepath.Join(O.workdir, O.inputname+ext)
}

//BuildInput builds an input for a single-point XTB calculation.
func (O *XTBHandle) BuildInput(coords *v3.Matrix, atoms chem.AtomMultiCharger, Q *Calc) error {
	if O.inputname == "" {
		O.inputname = "confscan"
	}
	if atoms == nil || coords == nil {
		return Error{ErrMissingCharges, XTB, O.inputname, "", []string{"BuildInput"}, true}
	}
	err := chem.XYZFileWrite(O.file(".xyz"), coords, atoms)
	if err != nil {
		return Error{ErrCantInput, XTB, O.inputname, err.Error(), []string{"BuildInput"}, true}
	}
	O.options = make([]string, 0, 10)
	O.options = append(O.options, O.inputname+".xyz", "--sp")
	O.options = append(O.options, "--chrg", strconv.Itoa(atoms.Charge()))
	if atoms.Multi() > 1 {
		O.options = append(O.options, "--uhf", strconv.Itoa(atoms.Multi()-1))
	}
	if O.nCPU > 1 {
		O.options = append(O.options, "-P", strconv.Itoa(O.nCPU))
	}
	switch {
	case Q.Method == "gfnff":
		O.options = append(O.options, "--gfnff")
	case isInString(XTBMethods, Q.Method):
		O.options = append(O.options, "--gfn", strings.ReplaceAll(Q.Method, "gfn", "")) //so "0", "1" or "2"
	default:
		O.options = append(O.options, "--gfn", "2") //default method
	}
	if Q.Dielectric > 0 && Q.Method != "gfn0" { //as of the current version, gfn0 doesn't support implicit solvation
		solvent, ok := dielectric2Solvent[int(Q.Dielectric)]
		if ok {
			O.options = append(O.options, "--alpb", solvent)
		}
	}
	O.options = append(O.options, Q.Others...)
	return nil
}

//Run runs xtb in the work directory, with the output going to inputname.out.
func (O *XTBHandle) Run(ctx context.Context) error {
	out, err := os.Create(O.file(".out"))
	if err != nil {
		return Error{ErrNotRunning, XTB, O.inputname, err.Error(), []string{"os.Create", "Run"}, true}
	}
	defer out.Close()
	command := exec.CommandContext(ctx, O.command, O.options...)
	command.Dir = O.workdir
	command.Stdout = out
	command.Stderr = out
	if err = command.Run(); err != nil {
		return Error{ErrNotRunning, XTB, O.inputname, err.Error(), []string{"exec.Run", "Run"}, true}
	}
	os.Remove(filepath.Join(O.workdir, "xtbrestart"))
	return nil
}

//This checks that an xtb calculation has terminated normally
func (O *XTBHandle) normalTermination() bool {
	out := O.file(".out")
	return searchBackwards("normal termination of x", out) != "" && searchBackwards("abnormal termination of x", out) == ""
}

//Energy gets the energy of a previous XTB calculations, in Hartree.
//Returns error if problem, and also if the energy returned that is product of an
//abnormally-terminated calculation. (in this case error is "Probable problem
//in calculation")
func (O *XTBHandle) Energy() (float64, error) {
	energyline := searchBackwards("total E       :", O.file(".out"))
	if energyline == "" {
		energyline = searchBackwards("TOTAL ENERGY", O.file(".out"))
	}
	if energyline == "" {
		return 0, Error{ErrNoEnergy, XTB, O.inputname, "", []string{"searchBackwards", "Energy"}, true}
	}
	var energy float64
	var err error = fmt.Errorf("no number in line %q", energyline)
	for _, v := range strings.Fields(energyline) {
		if energy, err = strconv.ParseFloat(v, 64); err == nil {
			break
		}
	}
	if err != nil {
		return 0, Error{ErrNoEnergy, XTB, O.inputname, err.Error(), []string{"strconv.ParseFloat", "Energy"}, true}
	}
	if !O.normalTermination() {
		return energy, Error{ErrProbableProblem, XTB, O.inputname, "", []string{"Energy"}, false}
	}
	return energy, nil
}

var dielectric2Solvent = map[int]string{
	80: "h2o",
	5:  "chcl3",
	9:  "ch2cl2",
	21: "acetone",
	37: "acetonitrile",
	33: "methanol",
	2:  "toluene",
	7:  "thf",
	47: "dmso",
	38: "dmf",
}

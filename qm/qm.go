/*
 * qm.go, part of confscan.
 *
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

package qm

import (
	"context"
	"fmt"
	"os"
	"strings"

	chem "github.com/rmera/confscan"
	v3 "github.com/rmera/confscan/v3"
)

//Handle allows to set single-point calculations using different programs.
type Handle interface {

	//Sets the name for the job, used for input
	//and output files. The extentions will depend on the program.
	SetName(name string)

	//SetWorkDir sets the directory where the program runs and
	//writes its files.
	SetWorkDir(dir string)

	//BuildInput builds an input for the QM program based int the data in
	//atoms, coords and C. returns only error.
	BuildInput(coords *v3.Matrix, atoms chem.AtomMultiCharger, Q *Calc) error

	//Run runs the QM program for a calculation previously set,
	//and waits for it to finish, or for ctx to be cancelled.
	Run(ctx context.Context) error

	//Energy gets the last energy, in Hartree, for a calculation by parsing the
	//QM program's output file. Return error if fail. Also returns
	//Error ("Probable problem in calculation")
	//if there is a energy but the calculation didnt end properly.
	Energy() (float64, error)
}

//Calc contains the settings for a calculation.
type Calc struct {
	Method     string
	Dielectric float64
	Others     []string //passed verbatim to the program's command line
	Memory     int      //Max memory to be used in MB (the effect depends on the QM program)
}

//Errors

const (
	ErrNoEnergy        = "qm: Unable to read energy from output"
	ErrNotRunning      = "qm: Couldn't run calculation"
	ErrCantInput       = "qm: Can't build input file"
	ErrMissingCharges  = "qm: Missing charges or coordinates"
	ErrProbableProblem = "qm: The energy might not be reliable"
	ErrUnknownMethod   = "qm: No program available for the requested method"
)

//Program names
const (
	XTB = "XTB"
)

//Error is the error type for the qm package.
type Error struct {
	message    string
	code       string //the name of the QM program giving the problem, or empty string if none
	inputname  string //the input file that has problems, or empty string if none.
	additional string
	deco       []string
	critical   bool
}

func (err Error) Error() string {
	ret := fmt.Sprintf("%s (%s/%s)", err.message, err.code, err.inputname)
	if err.additional != "" {
		ret = ret + ": " + err.additional
	}
	return ret
}

//Code returns the program that caused the error.
func (err Error) Code() string { return err.code }

//InputName returns the name of the job that caused the error.
func (err Error) InputName() string { return err.inputname }

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

//Critical returns whether the error is critical or it can be ignored
func (err Error) Critical() bool { return err.critical }

func errDecorate(err error, caller string) error {
	if e, ok := err.(Error); ok {
		e.deco = e.Decorate(caller)
		return e
	}
	return err
}

//Utilities here

//Same as the previous, but with strings.
func isInString(container []string, test string) bool {
	for _, i := range container {
		if test == i {
			return true
		}
	}
	return false
}

//searchBackwards searches a file backwards, i.e., starting from the end, for a string.
//Returns the line that contains the string, or an empty string.
func searchBackwards(str, filename string) string {
	data, err := os.ReadFile(filename)
	if err != nil {
		return ""
	}
	lines := strings.Split(string(data), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.Contains(lines[i], str) {
			return lines[i]
		}
	}
	return ""
}

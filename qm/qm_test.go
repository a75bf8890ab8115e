/*
 * qm_test.go, part of confscan.
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
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	chem "github.com/rmera/confscan"
	v3 "github.com/rmera/confscan/v3"
)

func water(Te *testing.T) (*v3.Matrix, *chem.Topology) {
	coords, err := v3.NewMatrix([]float64{
		0, 0, 0,
		0.96, 0, 0,
		-0.24, 0.93, 0,
	})
	if err != nil {
		Te.Fatal(err)
	}
	ats := []*chem.Atom{{Symbol: "O"}, {Symbol: "H"}, {Symbol: "H"}}
	return coords, chem.NewTopology(0, 1, ats)
}

//fakeXTB writes a shell script that behaves like xtb, printing energy.
func fakeXTB(Te *testing.T, energy string, normal bool) string {
	if runtime.GOOS == "windows" {
		Te.Skip("needs a POSIX shell")
	}
	script := "#!/bin/sh\necho \"          :: total energy    " + energy + " Eh    ::\"\n"
	script += "echo \"   total E       :     " + energy + "\"\n"
	if normal {
		script += "echo \"normal termination of xtb\"\n"
	}
	name := filepath.Join(Te.TempDir(), "xtb")
	if err := os.WriteFile(name, []byte(script), 0o755); err != nil {
		Te.Fatal(err)
	}
	return name
}

func TestXTBInput(Te *testing.T) {
	coords, top := water(Te)
	top.SetCharge(-1)
	top.SetMulti(2)
	x := NewXTBHandle()
	x.SetWorkDir(Te.TempDir())
	x.SetnCPU(1)
	if err := x.BuildInput(coords, top, &Calc{Method: "gfn1", Dielectric: 80, Others: []string{"--acc", "0.1"}}); err != nil {
		Te.Fatal(err)
	}
	opts := strings.Join(x.Options(), " ")
	for _, v := range []string{"--sp", "--chrg -1", "--uhf 1", "--gfn 1", "--alpb h2o", "--acc 0.1"} {
		if !strings.Contains(opts, v) {
			Te.Errorf("option %q missing from %q", v, opts)
		}
	}
	if _, err := chem.XYZFileRead(x.file(".xyz")); err != nil {
		Te.Errorf("input geometry not written: %v", err)
	}
	if err := x.BuildInput(coords, top, &Calc{Method: "gfnff"}); err != nil {
		Te.Fatal(err)
	}
	if opts = strings.Join(x.Options(), " "); !strings.Contains(opts, "--gfnff") || strings.Contains(opts, "--gfn ") {
		Te.Errorf("wrong options for gfnff: %q", opts)
	}
}

func TestEnergyCalculator(Te *testing.T) {
	coords, top := water(Te)
	E, err := NewEnergyCalculator("")
	if err != nil {
		Te.Fatal(err)
	}
	if E.Method() != DefaultMethod {
		Te.Errorf("expected the default method, got %s", E.Method())
	}
	scratch := Te.TempDir()
	E.SetScratch(scratch)
	command := fakeXTB(Te, "-5.070544440612", true)
	E.SetHandleMaker(func() Handle {
		x := NewXTBHandle()
		x.SetCommand(command)
		return x
	})
	en, err := E.Energy(context.Background(), coords, top)
	if err != nil {
		Te.Fatal(err)
	}
	if en != -5.070544440612 {
		Te.Errorf("expected energy -5.070544440612, got %f", en)
	}
	left, _ := os.ReadDir(scratch)
	if len(left) != 0 {
		Te.Errorf("scratch directories left behind: %v", left)
	}
	command = fakeXTB(Te, "-5.0", false)
	en, err = E.Energy(context.Background(), coords, top)
	if err == nil || en != -5.0 {
		Te.Errorf("an abnormal termination should give the energy and an error, got %f %v", en, err)
	}
	if _, err := NewEnergyCalculator("b3lyp"); err == nil {
		Te.Error("unknown methods should be rejected")
	}
}

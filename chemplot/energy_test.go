/*
 * energy_test.go, part of confscan.
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

package chemplot

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestEnergyProfile(Te *testing.T) {
	name := filepath.Join(Te.TempDir(), "profile.png")
	acc := Series{Name: "accepted", Energies: []float64{12.5, 0, 3.1, 7.7}}
	rej := Series{Name: "rejected", Energies: []float64{0.2, 3.3, math.NaN(), 15}}
	if err := EnergyProfile("Test profile", name, acc, rej); err != nil {
		Te.Fatal(err)
	}
	info, err := os.Stat(name)
	if err != nil {
		Te.Fatal(err)
	}
	if info.Size() == 0 {
		Te.Error("Empty plot file")
	}
}

func TestEnergyProfileEmpty(Te *testing.T) {
	name := filepath.Join(Te.TempDir(), "empty.png")
	err := EnergyProfile("Nothing", name, Series{Name: "accepted"}, Series{Name: "nan", Energies: []float64{math.NaN()}})
	if err == nil {
		Te.Error("Expected an error for series without finite energies")
	}
	if _, err := os.Stat(name); !os.IsNotExist(err) {
		Te.Error("No file should have been written")
	}
}

func TestProfilePoints(Te *testing.T) {
	pts := profilePoints(Series{Energies: []float64{5, 2, math.Inf(1), 3}}, 2)
	want := []float64{0, 1, 3}
	if len(pts) != len(want) {
		Te.Fatalf("Got %d points, expected %d", len(pts), len(want))
	}
	for i, v := range want {
		if pts[i].X != float64(i+1) || pts[i].Y != v {
			Te.Errorf("Point %d is (%v, %v), expected (%d, %v)", i, pts[i].X, pts[i].Y, i+1, v)
		}
	}
}

func TestSeriesColor(Te *testing.T) {
	seen := make(map[[3]uint8]bool)
	for i := 0; i < 4; i++ {
		c := seriesColor(i, 4)
		k := [3]uint8{c.R, c.G, c.B}
		if seen[k] {
			Te.Errorf("Series %d repeats color %v", i, k)
		}
		seen[k] = true
	}
}

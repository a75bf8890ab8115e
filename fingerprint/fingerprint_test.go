/*
 * fingerprint_test.go, part of confscan.
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

package fingerprint

import (
	"math"
	"testing"

	v3 "github.com/rmera/confscan/v3"
)

//four points on a line, spaced 1, 2 and 1.5
func line(Te *testing.T) *v3.Matrix {
	c, err := v3.NewMatrix([]float64{
		0, 0, 0,
		1, 0, 0,
		3, 0, 0,
		4.5, 0, 0,
	})
	if err != nil {
		Te.Fatal(err)
	}
	return c
}

func TestPairs(Te *testing.T) {
	pairs, err := Pairs(line(Te))
	if err != nil {
		Te.Fatal(err)
	}
	expected := []Pair{{0, 1}, {0, 1.5}, {1.5, 2}}
	if len(pairs) != len(expected) {
		Te.Fatalf("expected %d pairs, got %v", len(expected), pairs)
	}
	for i, v := range expected {
		if math.Abs(pairs[i].Birth-v.Birth) > 1e-12 || math.Abs(pairs[i].Death-v.Death) > 1e-12 {
			Te.Errorf("pair %d: expected %v, got %v", i, v, pairs[i])
		}
	}
}

func TestImageInvariance(Te *testing.T) {
	G, err := New(DefaultParams())
	if err != nil {
		Te.Fatal(err)
	}
	c := line(Te)
	img, err := G.Image(c)
	if err != nil {
		Te.Fatal(err)
	}
	if img.Sum() <= 0 {
		Te.Errorf("empty image for %v", c)
	}
	//rigid motion plus relabeling
	moved, _ := v3.NewMatrix([]float64{
		10, 4.5, 0,
		10, 0, 0,
		10, 3, 0,
		10, 1, 0,
	})
	img2, err := G.Image(moved)
	if err != nil {
		Te.Fatal(err)
	}
	if d := img.Diff(img2); d > 1e-9 {
		Te.Errorf("images of equivalent structures differ by %f", d)
	}
	other, _ := v3.NewMatrix([]float64{
		0, 0, 0,
		1, 0, 0,
		2, 0, 0,
		4.5, 0, 0,
	})
	img3, err := G.Image(other)
	if err != nil {
		Te.Fatal(err)
	}
	if d := img.Diff(img3); d <= 1e-6 {
		Te.Errorf("images of different structures should differ, got %f", d)
	}
	if d := img.Diff(&Image{bins: 3, d: make([]float64, 9)}); !math.IsInf(d, 1) {
		Te.Errorf("images of different size should be infinitely different, got %f", d)
	}
}

func TestBadParams(Te *testing.T) {
	p := DefaultParams()
	p.Bins = 0
	if _, err := New(p); err == nil {
		Te.Error("zero bins should not be accepted")
	}
}

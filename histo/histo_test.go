/*
 * histo_test.go, part of confscan.
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

package histo

import (
	"math"
	"strings"
	"testing"
)

func TestHisto(Te *testing.T) {
	rawdata := []float64{1, 6, 3, 2, 4, 5, 7, 6, 3.5, 3, 5, 1, 1, 0, 0, 5, 8, 1, 2, 3, 44, 3, 7, 3, 1, 3, 5, 32, 1, math.NaN()}
	D, err := NewData([]float64{0, 1, 2, 3, 4, 8}, rawdata)
	if err != nil {
		Te.Fatal(err)
	}
	want := []float64{2, 6, 2, 7, 9}
	for i, v := range want {
		if D.View()[i] != v {
			Te.Errorf("Bin %d has %v, expected %v", i, D.View()[i], v)
		}
	}
	//8, 44, 32 and the NaN
	if D.Total() != 26 || D.Outside() != 4 {
		Te.Errorf("Total %d outside %d, expected 26 and 4", D.Total(), D.Outside())
	}
	D.Normalize()
	if math.Abs(D.View()[4]-9.0/26) > 1e-12 {
		Te.Errorf("Normalized last bin is %v", D.View()[4])
	}
	D.AddData(0.5)
	if !D.Normalized() || math.Abs(D.View()[0]-3.0/27) > 1e-12 {
		Te.Errorf("Adding to a normalized histogram gave %v", D.View()[0])
	}
	D.UnNormalize()
	if math.Abs(D.View()[0]-3) > 1e-9 {
		Te.Errorf("Unnormalized first bin is %v", D.View()[0])
	}
	if lines := strings.Count(D.String(), "\n"); lines != 5 {
		Te.Errorf("String has %d lines, expected 5", lines)
	}
}

func TestUniform(Te *testing.T) {
	d := Uniform(0, 1, 4)
	want := []float64{0, 0.25, 0.5, 0.75, 1}
	for i, v := range want {
		if math.Abs(d[i]-v) > 1e-12 {
			Te.Errorf("Divider %d is %v, expected %v", i, d[i], v)
		}
	}
}

func TestBadDividers(Te *testing.T) {
	for _, d := range [][]float64{nil, {1}, {0, 2, 1}, {0, 0, 1}, {0, math.Inf(1)}} {
		if _, err := NewData(d, nil); err == nil {
			Te.Errorf("Dividers %v should give an error", d)
		}
	}
}

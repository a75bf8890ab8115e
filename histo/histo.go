/*
 * histo.go, part of confscan.
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

//Package histo builds one-dimensional histograms over fixed dividers.
package histo

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
)

//Error is the error type for this package.
type Error struct {
	msg  string
	deco []string
}

func (err Error) Error() string { return err.msg }

//Decorate adds dec to the decoration trail of the error, and returns the trail.
func (err Error) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

//Data is a histogram. Bin i counts the values v with
//dividers[i] <= v < dividers[i+1].
type Data struct {
	dividers   []float64
	histo      []float64
	total      int
	outside    int
	normalized bool
}

//Uniform returns the dividers for bins equal bins between min and max.
func Uniform(min, max float64, bins int) []float64 {
	if bins < 1 {
		bins = 1
	}
	return floats.Span(make([]float64, bins+1), min, max)
}

//NewData returns a new histogram from the dividers and rawdata given.
//rawdata can be nil. In that case, an empty histogram is created.
//The dividers must be at least 2, finite and strictly increasing.
func NewData(dividers []float64, rawdata []float64) (*Data, error) {
	if len(dividers) < 2 {
		return nil, Error{fmt.Sprintf("%d dividers, at least 2 are needed", len(dividers)), []string{"NewData"}}
	}
	for i, v := range dividers {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, Error{fmt.Sprintf("Divider %d is not finite", i), []string{"NewData"}}
		}
		if i > 0 && v <= dividers[i-1] {
			return nil, Error{fmt.Sprintf("Dividers not increasing at %d", i), []string{"NewData"}}
		}
	}
	//copied so nobody changes them from outside
	d := &Data{dividers: append([]float64(nil), dividers...)}
	d.histo = make([]float64, len(dividers)-1)
	d.AddData(rawdata...)
	return d, nil
}

//AddData adds the given data point(s) to the histogram. Points outside the
//dividers, and NaNs, are only counted in Outside.
func (D *Data) AddData(point ...float64) {
	norma := D.normalized
	if norma {
		D.UnNormalize()
	}
	last := len(D.dividers) - 1
	for _, v := range point {
		if math.IsNaN(v) || v < D.dividers[0] || v >= D.dividers[last] {
			D.outside++
			continue
		}
		//first divider larger than v, minus one
		j := sort.Search(len(D.dividers), func(i int) bool { return D.dividers[i] > v }) - 1
		D.histo[j]++
		D.total++
	}
	if norma {
		D.Normalize()
	}
}

//Total returns the number of points in the histogram.
func (D *Data) Total() int {
	return D.total
}

//Outside returns the number of points given that fell outside the dividers.
func (D *Data) Outside() int {
	return D.outside
}

//Normalized Returns true if the histogram is normalized
func (D *Data) Normalized() bool {
	return D.normalized
}

//Normalize normalizes the histogram
func (D *Data) Normalize() {
	D.normaunnorma(true)
}

//UnNormalize un-normalizes the histogram
func (D *Data) UnNormalize() {
	D.normaunnorma(false)
}

func (D *Data) normaunnorma(normalize bool) {
	if D.total <= 0 || D.normalized == normalize {
		return
	}
	n := float64(D.total)
	if normalize {
		n = 1 / n
	}
	floats.Scale(n, D.histo)
	D.normalized = normalize
}

//Dividers returns a copy of the dividers of the histogram.
func (D *Data) Dividers() []float64 {
	return append([]float64(nil), D.dividers...)
}

//View returns the bins of the histogram, not a copy.
func (D *Data) View() []float64 {
	return D.histo
}

//String returns one line per bin with its limits, its value and a bar.
func (D *Data) String() string {
	var b strings.Builder
	max := floats.Max(D.histo)
	for i, v := range D.histo {
		bar := 0
		if max > 0 {
			bar = int(math.Round(30 * v / max))
		}
		if D.normalized {
			fmt.Fprintf(&b, "%6.3f-%6.3f %9.3f %s\n", D.dividers[i], D.dividers[i+1], v, strings.Repeat("#", bar))
		} else {
			fmt.Fprintf(&b, "%6.3f-%6.3f %9d %s\n", D.dividers[i], D.dividers[i+1], int(v), strings.Repeat("#", bar))
		}
	}
	return b.String()
}

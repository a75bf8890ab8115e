/*
 * filter.go, part of confscan.
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

package confscan

import "math"

//FilterResult is the verdict of the cheap pre-filter for one pair.
type FilterResult int

const (
	FilterUndecided FilterResult = iota //the structures need a real comparison
	FilterDistinct                      //different from this reference, skip the comparison
	FilterDuplicate                     //same as this reference, reject without comparison
)

func (F FilterResult) String() string {
	switch F {
	case FilterDistinct:
		return "distinct"
	case FilterDuplicate:
		return "duplicate"
	default:
		return "undecided"
	}
}

//Delta returns the mean absolute difference between the rotational constants
//of c and r (MHz), and the L1 distance between their fingerprints. A missing
//fingerprint gives an infinite difference.
func Delta(c, r *Structure) (drot, dfp float64) {
	for i := 0; i < 3; i++ {
		drot += math.Abs(c.rot[i] - r.rot[i])
	}
	drot /= 3
	dfp = c.fp.Diff(r.fp)
	return drot, dfp
}

//Thresholds are the pre-filter limits learned during a run. Each of them
//can only grow.
type Thresholds struct {
	LooseRot, TightRot float64
	LooseFP, TightFP   float64

	//a loose limit means nothing until a near miss has been seen
	looseSet bool

	IgnoreRotation    bool
	IgnoreFingerprint bool
}

//Classify returns the pre-filter verdict for a pair with differences drot and dfp.
//The distinct verdict needs both criteria above the loose limits, the duplicate
//one both below the tight limits. An ignored criterion always agrees. A missing
//fingerprint (infinite dfp) never counts as evidence of distinctness.
func (T *Thresholds) Classify(drot, dfp float64) FilterResult {
	rotAbove := T.IgnoreRotation || drot > T.LooseRot
	fpAbove := T.IgnoreFingerprint || (dfp > T.LooseFP && !math.IsInf(dfp, 1))
	if T.looseSet && rotAbove && fpAbove && !(T.IgnoreRotation && T.IgnoreFingerprint) {
		return FilterDistinct
	}
	rotBelow := T.IgnoreRotation || drot < T.TightRot
	fpBelow := T.IgnoreFingerprint || dfp < T.TightFP
	if rotBelow && fpBelow && !(T.IgnoreRotation && T.IgnoreFingerprint) {
		return FilterDuplicate
	}
	return FilterUndecided
}

//Observe feeds the result of a real comparison, with RMSD rmsd, to the thresholds.
//Pairs with rmsd up to scaleTight*cutoff raise the tight limits, pairs up to
//scaleLoose*cutoff the loose ones. It returns true if any limit changed.
func (T *Thresholds) Observe(rmsd, drot, dfp, cutoff, scaleTight, scaleLoose float64) bool {
	if math.IsNaN(rmsd) || math.IsNaN(drot) || math.IsNaN(dfp) || math.IsInf(drot, 0) || math.IsInf(dfp, 0) {
		return false
	}
	old := *T
	switch {
	case rmsd <= scaleTight*cutoff:
		T.TightRot = math.Max(T.TightRot, drot)
		T.TightFP = math.Max(T.TightFP, dfp)
	case rmsd <= scaleLoose*cutoff:
		T.LooseRot = math.Max(T.LooseRot, drot)
		T.LooseFP = math.Max(T.LooseFP, dfp)
		T.looseSet = true
	default:
		return false
	}
	return old != *T
}

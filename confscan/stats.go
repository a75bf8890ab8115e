/*
 * stats.go, part of confscan.
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

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

//Cause is the reason a structure was rejected. Every rejection has exactly one.
type Cause int

const (
	CauseNone      Cause = iota
	CauseThreshold       //pre-filter: rotational constants and fingerprint below the tight limits
	CauseRMSD            //RMSD below the cutoff, from a fresh comparison
	CauseRule            //RMSD below the cutoff after applying a known relabeling
	CauseEnergy          //outside the energy window
	CauseRank            //the maximum number of structures was already accepted
	CauseInvalid         //the structure failed the sanity checks
)

func (C Cause) String() string {
	switch C {
	case CauseThreshold:
		return "threshold"
	case CauseRMSD:
		return "rmsd"
	case CauseRule:
		return "reorder rule"
	case CauseEnergy:
		return "energy"
	case CauseRank:
		return "rank"
	case CauseInvalid:
		return "invalid"
	default:
		return "none"
	}
}

//Rejection records why a structure was rejected, with the numbers behind
//the decision. Ref is -1 when no reference was involved.
type Rejection struct {
	Index int //queue index
	Ref   int
	Pass  int
	Cause Cause
	RMSD  float64
	DRot  float64 //MHz
	DFP   float64
	DE    float64 //kJ/mol, over the reference (or the lowest structure)
}

//Stats are the counters of a run. They are only for reporting.
type Stats struct {
	Accepted          int
	Rejected          int
	ThresholdRejected int
	ReorderAttempted  int
	ReorderSucceeded  int
	CacheHits         int
	Invalid           int
	Skipped           int
}

func (S Stats) String() string {
	return fmt.Sprintf("Accepted: %d Rejected: %d (threshold: %d, invalid: %d) Reordered: %d Successfully: %d Reused: %d",
		S.Accepted, S.Rejected, S.ThresholdRejected, S.Invalid, S.ReorderAttempted, S.ReorderSucceeded, S.CacheHits)
}

//Summary gives the mean and standard deviation of the RMSD of the rejections
//with the given cause, and how many there were. Rejections without a finite
//RMSD are left out.
func Summary(rej []Rejection, cause Cause) (mean, std float64, n int) {
	vals := make([]float64, 0, len(rej))
	for _, v := range rej {
		if v.Cause != cause || math.IsNaN(v.RMSD) || math.IsInf(v.RMSD, 0) {
			continue
		}
		vals = append(vals, v.RMSD)
	}
	if len(vals) == 0 {
		return math.NaN(), math.NaN(), 0
	}
	if len(vals) == 1 {
		return vals[0], 0, 1
	}
	mean, std = stat.MeanStdDev(vals, nil)
	return mean, std, len(vals)
}

/*
 * comparator.go, part of confscan.
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
	"math"

	"github.com/rmera/confscan/rmsd"
)

//Comparator is the expensive, exact structure comparison. Implementations
//need not be safe for concurrent use: every worker gets its own.
type Comparator interface {
	//Align returns the RMSD after superposition, with the atoms as given.
	Align(ref, target *Structure) (float64, error)

	//AlignWithReorder searches for the relabeling of target that gives the lowest
	//RMSD against ref, and returns that RMSD and the relabeling.
	AlignWithReorder(ref, target *Structure) (float64, Rule, error)

	//RMSDForRule returns the RMSD after relabeling target with rule.
	RMSDForRule(ref, target *Structure, rule Rule) (float64, error)

	//HBondTopologyDifference returns the number of hydrogen bonds not shared by
	//ref and target (relabeled with rule, unless rule is nil).
	HBondTopologyDifference(ref, target *Structure, rule Rule) int
}

//ComparatorFactory returns a new Comparator that may use up to threads goroutines.
type ComparatorFactory func(threads int) Comparator

//DriverFactory returns a factory of comparators backed by rmsd.Driver, set
//up according to o.
func DriverFactory(o Options) ComparatorFactory {
	return func(threads int) Comparator {
		ro := rmsd.DefaultOptions()
		ro.Heavy = o.Heavy
		ro.CheckConnections = o.CheckConnections
		ro.Threads = threads
		return &driverComparator{d: rmsd.NewDriver(ro)}
	}
}

type driverComparator struct {
	d *rmsd.Driver
}

func (C *driverComparator) Align(ref, target *Structure) (float64, error) {
	return nanIsInf(C.d.Align(ref.conformer(), target.conformer()))
}

func (C *driverComparator) AlignWithReorder(ref, target *Structure) (float64, Rule, error) {
	r, rule, err := C.d.AlignWithReorder(ref.conformer(), target.conformer())
	if err != nil || math.IsNaN(r) {
		return math.Inf(1), nil, err
	}
	return r, Rule(rule), nil
}

func (C *driverComparator) RMSDForRule(ref, target *Structure, rule Rule) (float64, error) {
	return nanIsInf(C.d.RMSDForRule(ref.conformer(), target.conformer(), rule))
}

func (C *driverComparator) HBondTopologyDifference(ref, target *Structure, rule Rule) int {
	return C.d.HBondTopologyDifference(ref.conformer(), target.conformer(), rule)
}

//Threads sets the number of goroutines the relabeling search may use.
func (C *driverComparator) Threads(n int) {
	C.d.Threads(n)
}

//degenerate comparisons must never make two structures look alike
func nanIsInf(r float64, err error) (float64, error) {
	if err != nil || math.IsNaN(r) {
		return math.Inf(1), err
	}
	return r, nil
}

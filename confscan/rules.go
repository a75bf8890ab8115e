/*
 * rules.go, part of confscan.
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

//Rule is an atom relabeling: the atom Rule[i] of the target corresponds
//to the atom i of the reference.
type Rule []int

//Equal returns true if both rules are element-wise identical.
func (R Rule) Equal(o Rule) bool {
	if len(R) != len(o) {
		return false
	}
	for i, v := range R {
		if o[i] != v {
			return false
		}
	}
	return true
}

//RuleCache is the set of relabelings found during a run (or loaded from restart
//files). It never holds two identical rules. It is not safe for concurrent
//writes: only the goroutine running the scan inserts rules, and workers get
//snapshots from Rules.
type RuleCache struct {
	rules []Rule
}

//NewRuleCache returns a cache with the given rules, duplicates removed.
func NewRuleCache(rules ...Rule) *RuleCache {
	C := new(RuleCache)
	for _, v := range rules {
		C.Insert(v)
	}
	return C
}

//Insert adds a copy of rule to the cache. Empty rules and rules already present
//are ignored. Returns true if the rule was added.
func (C *RuleCache) Insert(rule Rule) bool {
	if len(rule) == 0 || C.Contains(rule) {
		return false
	}
	C.rules = append(C.rules, append(Rule(nil), rule...))
	return true
}

//Contains returns true if rule is in the cache.
func (C *RuleCache) Contains(rule Rule) bool {
	for _, v := range C.rules {
		if v.Equal(rule) {
			return true
		}
	}
	return false
}

//Len returns the number of rules stored.
func (C *RuleCache) Len() int {
	return len(C.rules)
}

//Rules returns a snapshot of the rules, in insertion order. The slice can be
//kept after further inserts.
func (C *RuleCache) Rules() []Rule {
	return append([]Rule(nil), C.rules...)
}

//TryKnownRules applies each rule of rules, in order, to target and returns the
//first one that makes target a duplicate of ref, with its RMSD. Rules for a
//different number of atoms are skipped. If no rule works, it returns the lowest
//RMSD found (+Inf if none could be computed), a nil rule, and false.
func TryKnownRules(cmp Comparator, ref, target *Structure, rules []Rule, cutoff float64, maxHTopo int) (float64, Rule, bool) {
	best := math.Inf(1)
	for _, r := range rules {
		if len(r) != target.Len() || len(r) != ref.Len() {
			continue
		}
		rmsd, err := cmp.RMSDForRule(ref, target, r)
		if err != nil || math.IsNaN(rmsd) {
			continue
		}
		best = math.Min(best, rmsd)
		if duplicate(cmp, ref, target, r, rmsd, cutoff, maxHTopo) {
			return rmsd, r, true
		}
	}
	return best, nil, false
}

//duplicate applies the acceptance criterion: RMSD within the cutoff and, if
//maxHTopo is not -1, a hydrogen bond topology difference of at most maxHTopo.
func duplicate(cmp Comparator, ref, target *Structure, rule Rule, rmsd, cutoff float64, maxHTopo int) bool {
	if math.IsNaN(rmsd) || rmsd > cutoff {
		return false
	}
	if maxHTopo == -1 {
		return true
	}
	return cmp.HBondTopologyDifference(ref, target, rule) <= maxHTopo
}

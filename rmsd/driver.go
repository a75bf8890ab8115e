/*
 * driver.go, part of confscan.
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

//Package rmsd compares two conformers of the same molecule. It superimposes them,
//optionally after searching for the relabeling of equivalent atoms that gives the
//lowest RMSD, and compares their hydrogen-bond patterns.
package rmsd

import (
	"fmt"
	"math"
	"runtime"

	chem "github.com/rmera/confscan"
	v3 "github.com/rmera/confscan/v3"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/mat"
)

//Conformer is one of the structures to compare.
type Conformer struct {
	Top    chem.Atomer
	Coords *v3.Matrix
}

//Options for a Driver
type Options struct {
	Heavy            bool //use only non-hydrogen atoms for the RMSD
	CheckConnections bool //reject relabelings that change the bond graph
	MaxIter          int  //assign/superimpose cycles per starting orientation
	Threads          int
}

//DefaultOptions returns all-atom RMSD, no connectivity check, 10 cycles per
//starting orientation and all logical CPUs.
func DefaultOptions() Options {
	return Options{MaxIter: 10, Threads: runtime.NumCPU()}
}

//Driver compares pairs of conformers. A Driver is not safe for concurrent use,
//but its methods may use several goroutines internally.
type Driver struct {
	o Options
}

//NewDriver returns a new Driver with options o.
func NewDriver(o Options) *Driver {
	if o.MaxIter <= 0 {
		o.MaxIter = 10
	}
	if o.Threads <= 0 {
		o.Threads = 1
	}
	return &Driver{o: o}
}

//Threads returns the number of goroutines used for the relabeling
//search, and sets it to a new value, if given.
func (D *Driver) Threads(n ...int) int {
	if len(n) > 0 && n[0] > 0 {
		D.o.Threads = n[0]
	}
	return D.o.Threads
}

//Heavy returns whether only heavy atoms are used for the RMSD.
func (D *Driver) Heavy() bool {
	return D.o.Heavy
}

func check(ref, target Conformer) error {
	if ref.Top == nil || target.Top == nil || ref.Coords == nil || target.Coords == nil {
		return Error{"nil conformer", []string{"check"}, true}
	}
	if ref.Top.Len() != target.Top.Len() || ref.Coords.NVecs() != ref.Top.Len() || target.Coords.NVecs() != target.Top.Len() {
		return Error{fmt.Sprintf("Mismatched conformers: %d and %d atoms", ref.Top.Len(), target.Top.Len()), []string{"check"}, true}
	}
	return nil
}

//indexes for the RMSD: heavy atoms or all atoms.
func (D *Driver) rmsdIndexes(top chem.Atomer) []int {
	if D.o.Heavy {
		if heavy := chem.HeavyIndexes(top); len(heavy) > 0 {
			return heavy
		}
	}
	ret := make([]int, top.Len())
	for i := range ret {
		ret[i] = i
	}
	return ret
}

//Align superimposes target on ref without relabeling and returns the RMSD.
//Both conformers must list the same elements in the same order.
func (D *Driver) Align(ref, target Conformer) (float64, error) {
	if err := check(ref, target); err != nil {
		return math.NaN(), errDecorate(err, "Align")
	}
	if !chem.SameComposition(ref.Top, target.Top) {
		return math.NaN(), Error{"Conformers have different atom orderings", []string{"Align"}, true}
	}
	return D.rmsd(ref.Coords, target.Coords, ref.Top)
}

//rmsd after superposition of the selected atoms of test onto templa.
func (D *Driver) rmsd(templa, test *v3.Matrix, top chem.Atomer) (float64, error) {
	if templa.HasNaN() || test.HasNaN() {
		return math.NaN(), Error{"NaN or Inf in coordinates", []string{"rmsd"}, false}
	}
	ind := D.rmsdIndexes(top)
	if len(ind) == top.Len() {
		r, err := chem.SuperRMSD(test, templa)
		if err != nil {
			return math.NaN(), Error{err.Error(), []string{"chem.SuperRMSD", "rmsd"}, false}
		}
		return r, nil
	}
	a := v3.Zeros(len(ind))
	a.SomeVecs(templa, ind)
	b := v3.Zeros(len(ind))
	b.SomeVecs(test, ind)
	r, err := chem.SuperRMSD(b, a)
	if err != nil {
		return math.NaN(), Error{err.Error(), []string{"chem.SuperRMSD", "rmsd"}, false}
	}
	return r, nil
}

//permuted returns the coordinates of target relabeled by rule, i.e. the
//atom i of the result is the atom rule[i] of target.
func permuted(coords *v3.Matrix, rule []int) *v3.Matrix {
	ret := v3.Zeros(len(rule))
	ret.SomeVecs(coords, rule)
	return ret
}

//validRule checks that rule is a permutation that maps each atom of ref onto an
//atom of target with the same element.
func validRule(ref, target chem.Atomer, rule []int) error {
	if len(rule) != ref.Len() {
		return Error{fmt.Sprintf("Rule of length %d for %d atoms", len(rule), ref.Len()), []string{"validRule"}, false}
	}
	seen := make([]bool, len(rule))
	for i, v := range rule {
		if v < 0 || v >= len(rule) || seen[v] {
			return Error{fmt.Sprintf("Rule is not a permutation at position %d", i), []string{"validRule"}, false}
		}
		seen[v] = true
		if ref.Atom(i).Symbol != target.Atom(v).Symbol {
			return Error{fmt.Sprintf("Rule maps %s onto %s", ref.Atom(i).Symbol, target.Atom(v).Symbol), []string{"validRule"}, false}
		}
	}
	return nil
}

//RMSDForRule returns the RMSD between ref and target after relabeling target
//with rule, and superimposing.
func (D *Driver) RMSDForRule(ref, target Conformer, rule []int) (float64, error) {
	if err := check(ref, target); err != nil {
		return math.NaN(), errDecorate(err, "RMSDForRule")
	}
	if err := validRule(ref.Top, target.Top, rule); err != nil {
		return math.NaN(), errDecorate(err, "RMSDForRule")
	}
	return D.rmsd(ref.Coords, permuted(target.Coords, rule), ref.Top)
}

type startResult struct {
	rule []int
	rmsd float64
}

//AlignWithReorder searches for the relabeling of the atoms of target that
//minimizes the RMSD to ref. Only atoms of the same element are exchanged.
//It returns the best RMSD and the rule, such that rule[i] is the atom of
//target matching the atom i of ref.
func (D *Driver) AlignWithReorder(ref, target Conformer) (float64, []int, error) {
	if err := check(ref, target); err != nil {
		return math.NaN(), nil, errDecorate(err, "AlignWithReorder")
	}
	if ref.Coords.HasNaN() || target.Coords.HasNaN() {
		return math.NaN(), nil, Error{"NaN or Inf in coordinates", []string{"AlignWithReorder"}, false}
	}
	groups, err := elementGroups(ref.Top, target.Top)
	if err != nil {
		return math.NaN(), nil, errDecorate(err, "AlignWithReorder")
	}
	var bonds *simple.UndirectedGraph
	var refbonds []chem.BondPair
	if D.o.CheckConnections {
		refbonds, err = chem.BondPairs(ref.Coords, ref.Top)
		if err != nil {
			return math.NaN(), nil, Error{err.Error(), []string{"chem.BondPairs", "AlignWithReorder"}, false}
		}
		bonds, err = bondGraph(target)
		if err != nil {
			return math.NaN(), nil, errDecorate(err, "AlignWithReorder")
		}
	}
	starts := D.starts(ref, target)
	results := make([]chan *startResult, len(starts))
	sem := make(chan struct{}, D.o.Threads)
	for i, s := range starts {
		results[i] = make(chan *startResult, 1)
		go func(s *v3.Matrix, r chan *startResult) {
			sem <- struct{}{}
			defer func() { <-sem }()
			r <- D.refine(ref, target, s, groups, refbonds, bonds)
		}(s, results[i])
	}
	best := &startResult{rmsd: math.Inf(1)}
	for _, r := range results {
		res := <-r
		if res.rule != nil && res.rmsd < best.rmsd {
			best = res
		}
	}
	if best.rule == nil {
		//no acceptable relabeling, keep the labels as they are.
		identity := make([]int, ref.Top.Len())
		for i := range identity {
			identity[i] = i
		}
		if err := validRule(ref.Top, target.Top, identity); err != nil {
			return math.NaN(), nil, Error{"No valid relabeling found", []string{"AlignWithReorder"}, false}
		}
		r, err := D.rmsd(ref.Coords, target.Coords, ref.Top)
		return r, identity, errDecorate(err, "AlignWithReorder")
	}
	return best.rmsd, best.rule, nil
}

//elementGroups returns, per element, the indexes of the atoms of ref and target with it.
func elementGroups(ref, target chem.Atomer) ([][2][]int, error) {
	byElement := make(map[string]*[2][]int)
	order := make([]string, 0, 5)
	for i := 0; i < ref.Len(); i++ {
		s := ref.Atom(i).Symbol
		g, ok := byElement[s]
		if !ok {
			g = new([2][]int)
			byElement[s] = g
			order = append(order, s)
		}
		g[0] = append(g[0], i)
	}
	for i := 0; i < target.Len(); i++ {
		g, ok := byElement[target.Atom(i).Symbol]
		if !ok {
			return nil, Error{fmt.Sprintf("Element %s not present in the reference", target.Atom(i).Symbol), []string{"elementGroups"}, true}
		}
		g[1] = append(g[1], i)
	}
	ret := make([][2][]int, 0, len(order))
	for _, s := range order {
		g := byElement[s]
		if len(g[0]) != len(g[1]) {
			return nil, Error{fmt.Sprintf("Different number of %s atoms: %d and %d", s, len(g[0]), len(g[1])), []string{"elementGroups"}, true}
		}
		ret = append(ret, *g)
	}
	return ret, nil
}

//starts returns the initial placements of target for the relabeling search: target
//superimposed on ref with its current labels (if the elements allow it), and the four
//proper orientations of the principal axes of target onto those of ref.
func (D *Driver) starts(ref, target Conformer) []*v3.Matrix {
	ret := make([]*v3.Matrix, 0, 5)
	if chem.SameComposition(ref.Top, target.Top) {
		if s, err := chem.Super(target.Coords, ref.Coords, nil, nil); err == nil {
			ret = append(ret, s)
		}
	}
	refAxes, refCenter, err := frame(ref)
	if err != nil {
		return ret
	}
	tAxes, tCenter, err := frame(target)
	if err != nil {
		return ret
	}
	tc := v3.Zeros(target.Coords.NVecs())
	tc.SubVec(target.Coords, tCenter)
	inFrame := v3.Zeros(target.Coords.NVecs())
	inFrame.Mul(tc, tAxes.T())
	signs := [4][3]float64{{1, 1, 1}, {-1, -1, 1}, {-1, 1, -1}, {1, -1, -1}}
	for _, s := range signs {
		//back from the principal frame of target into the lab frame of ref
		flipped := v3.Zeros(3)
		for i := 0; i < 3; i++ {
			row := flipped.VecView(i)
			row.Scale(s[i], refAxes.VecView(i))
		}
		placed := v3.Zeros(target.Coords.NVecs())
		placed.Mul(inFrame, flipped)
		placed.AddVec(placed, refCenter)
		ret = append(ret, placed)
	}
	return ret
}

//frame returns the principal axes, as rows, and the center of mass of c.
func frame(c Conformer) (*v3.Matrix, *v3.Matrix, error) {
	var mass []float64
	if m, ok := c.Top.(chem.Masser); ok {
		mass, _ = m.Masses() //a nil mass just gives the geometric center
	}
	axes, _, err := chem.PrincipalAxes(c.Coords, mass)
	if err != nil {
		return nil, nil, Error{err.Error(), []string{"chem.PrincipalAxes", "frame"}, false}
	}
	center, err := chem.CenterOfMass(c.Coords, mass)
	if err != nil {
		return nil, nil, Error{err.Error(), []string{"chem.CenterOfMass", "frame"}, false}
	}
	return axes, center, nil
}

//refine alternates element-wise optimal assignment and superposition, starting from
//the placement start of target, until the assignment doesn't change. A result with a nil
//rule means that no acceptable relabeling was found.
func (D *Driver) refine(ref, target Conformer, start *v3.Matrix, groups [][2][]int, refbonds []chem.BondPair, bonds *simple.UndirectedGraph) *startResult {
	n := ref.Top.Len()
	placed := start
	var rule []int
	for iter := 0; iter < D.o.MaxIter; iter++ {
		newrule := make([]int, n)
		for _, g := range groups {
			m := len(g[0])
			cost := mat.NewDense(m, m, nil)
			for k, ri := range g[0] {
				for l, ti := range g[1] {
					var d2 float64
					for j := 0; j < 3; j++ {
						d := ref.Coords.At(ri, j) - placed.At(ti, j)
						d2 += d * d
					}
					cost.Set(k, l, d2)
				}
			}
			for k, l := range assign(cost) {
				newrule[g[0][k]] = g[1][l]
			}
		}
		if sameRule(rule, newrule) {
			break
		}
		rule = newrule
		ident := make([]int, n)
		for i := range ident {
			ident[i] = i
		}
		s, err := chem.Super(placed, ref.Coords, rule, ident)
		if err != nil {
			break
		}
		placed = s
	}
	if rule == nil || (bonds != nil && !keepsBonds(refbonds, bonds, rule)) {
		return &startResult{rmsd: math.Inf(1)}
	}
	r, err := D.rmsd(ref.Coords, permuted(target.Coords, rule), ref.Top)
	if err != nil || math.IsNaN(r) {
		return &startResult{rmsd: math.Inf(1)}
	}
	return &startResult{rule: rule, rmsd: r}
}

func sameRule(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

//bondGraph returns the covalent bond graph of c.
func bondGraph(c Conformer) (*simple.UndirectedGraph, error) {
	pairs, err := chem.BondPairs(c.Coords, c.Top)
	if err != nil {
		return nil, Error{err.Error(), []string{"chem.BondPairs", "bondGraph"}, false}
	}
	g := simple.NewUndirectedGraph()
	for i := 0; i < c.Top.Len(); i++ {
		g.AddNode(simple.Node(i))
	}
	for _, p := range pairs {
		g.SetEdge(g.NewEdge(simple.Node(p.I), simple.Node(p.J)))
	}
	return g, nil
}

//keepsBonds returns true if rule maps the bonds of the reference exactly onto the bonds of the target.
func keepsBonds(refbonds []chem.BondPair, target *simple.UndirectedGraph, rule []int) bool {
	if target.Edges().Len() != len(refbonds) {
		return false
	}
	for _, b := range refbonds {
		if !target.HasEdgeBetween(int64(rule[b.I]), int64(rule[b.J])) {
			return false
		}
	}
	return true
}

//Error is the error type for the rmsd package.
type Error struct {
	message  string
	deco     []string
	critical bool
}

func (err Error) Error() string { return err.message }

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

//Critical returns true for errors that come from the input (mismatched or
//malformed conformers) rather than from numerical trouble.
func (err Error) Critical() bool { return err.critical }

func errDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(Error); ok {
		e.deco = e.Decorate(caller)
		return e
	}
	return err
}

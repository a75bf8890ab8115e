/*
 * fingerprint.go, part of confscan.
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

//Package fingerprint builds a topological fingerprint of a structure: a
//persistence image of the 0-dimensional persistent homology of its
//interatomic distances. Two structures that differ only by a rigid motion
//or by a relabeling of their atoms get the same image, so the L1 difference
//between images is a cheap, alignment-free dissimilarity.
package fingerprint

import (
	"fmt"
	"math"
	"sort"

	v3 "github.com/rmera/confscan/v3"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

//Params defines the grid and smoothing of the persistence image.
//The image spans [XMin,XMax] in birth and [YMin,YMax] in death, with
//Bins bins per side. The gaussian placed on each pair has standard deviations
//(XMax-XMin)/StdX and (YMax-YMin)/StdY, and an amplitude of Scaling times the
//persistence of the pair.
type Params struct {
	XMin, XMax float64
	YMin, YMax float64
	Bins       int
	Scaling    float64
	StdX, StdY float64
}

//DefaultParams returns the parameters used by confscan.
func DefaultParams() Params {
	return Params{XMin: 0, XMax: 4, YMin: 0, YMax: 4, Bins: 10, Scaling: 0.1, StdX: 10, StdY: 10}
}

func (P Params) check() error {
	if P.Bins <= 0 || P.XMax <= P.XMin || P.YMax <= P.YMin || P.StdX <= 0 || P.StdY <= 0 {
		return Error{fmt.Sprintf("Invalid image parameters %+v", P), []string{"check"}, true}
	}
	return nil
}

//Pair is a birth-death pair of the persistence diagram.
type Pair struct {
	Birth, Death float64
}

//Persistence returns Death-Birth.
func (P Pair) Persistence() float64 {
	return P.Death - P.Birth
}

//Pairs returns the 0-dimensional persistence pairs for the points in coords.
//The connected components of the distance filtration merge along the edges of
//the minimum spanning tree of the complete distance graph. Each merge at
//distance d kills the younger of the two components, the one whose own last
//internal merge happened later, giving the pair (last internal merge, d).
//Single points are born at 0. The result has coords.NVecs()-1 pairs, sorted by death.
func Pairs(coords *v3.Matrix) ([]Pair, error) {
	n := coords.NVecs()
	if n < 2 {
		return nil, nil
	}
	if coords.HasNaN() {
		return nil, Error{"NaN or Inf in coordinates", []string{"Pairs"}, true}
	}
	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for i := 0; i < n; i++ {
		g.AddNode(simple.Node(i))
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(i), simple.Node(j), coords.Distance(i, j)))
		}
	}
	mst := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	path.Kruskal(mst, g)
	type edge struct {
		i, j int
		w    float64
	}
	edges := make([]edge, 0, n-1)
	it := mst.WeightedEdges()
	for it.Next() {
		e := it.WeightedEdge()
		edges = append(edges, edge{int(e.From().ID()), int(e.To().ID()), e.Weight()})
	}
	sort.SliceStable(edges, func(a, b int) bool { return edges[a].w < edges[b].w })
	uf := newUnionFind(n)
	pairs := make([]Pair, 0, n-1)
	for _, e := range edges {
		ri, rj := uf.find(e.i), uf.find(e.j)
		birth := math.Max(uf.last[ri], uf.last[rj])
		pairs = append(pairs, Pair{Birth: birth, Death: e.w})
		uf.union(ri, rj, e.w)
	}
	return pairs, nil
}

type unionFind struct {
	parent []int
	last   []float64 //distance of the last merge inside each root's component
}

func newUnionFind(n int) *unionFind {
	u := &unionFind{parent: make([]int, n), last: make([]float64, n)}
	for i := range u.parent {
		u.parent[i] = i
	}
	return u
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(ri, rj int, w float64) {
	u.parent[rj] = ri
	u.last[ri] = w
}

//Image is a Bins x Bins persistence image, stored row-major with the
//birth axis along the rows.
type Image struct {
	bins int
	d    []float64
}

//Bins returns the number of bins per side.
func (I *Image) Bins() int {
	return I.bins
}

//At returns the value of the bin i (birth), j (death).
func (I *Image) At(i, j int) float64 {
	return I.d[i*I.bins+j]
}

//Sum returns the total intensity of the image.
func (I *Image) Sum() float64 {
	return floats.Sum(I.d)
}

//Diff returns the sum of the absolute element-wise differences between
//the images I and J. Images of different size are infinitely different.
func (I *Image) Diff(J *Image) float64 {
	if I == nil || J == nil || I.bins != J.bins {
		return math.Inf(1)
	}
	return floats.Distance(I.d, J.d, 1)
}

//Generator turns coordinates into persistence images with a fixed set of parameters.
//It is safe for concurrent use.
type Generator struct {
	p Params
}

//New returns a Generator for the parameters p.
func New(p Params) (*Generator, error) {
	if err := p.check(); err != nil {
		return nil, errDecorate(err, "New")
	}
	return &Generator{p: p}, nil
}

//Params returns the parameters of the generator.
func (G *Generator) Params() Params {
	return G.p
}

//Image returns the persistence image of the points in coords.
func (G *Generator) Image(coords *v3.Matrix) (*Image, error) {
	pairs, err := Pairs(coords)
	if err != nil {
		return nil, errDecorate(err, "Image")
	}
	return G.FromPairs(pairs), nil
}

//FromPairs returns the persistence image of a persistence diagram.
func (G *Generator) FromPairs(pairs []Pair) *Image {
	p := G.p
	img := &Image{bins: p.Bins, d: make([]float64, p.Bins*p.Bins)}
	wx := (p.XMax - p.XMin) / float64(p.Bins)
	wy := (p.YMax - p.YMin) / float64(p.Bins)
	sx := (p.XMax - p.XMin) / p.StdX
	sy := (p.YMax - p.YMin) / p.StdY
	for _, pr := range pairs {
		amp := p.Scaling * pr.Persistence()
		if amp == 0 {
			continue
		}
		for i := 0; i < p.Bins; i++ {
			dx := p.XMin + (float64(i)+0.5)*wx - pr.Birth
			gx := math.Exp(-dx * dx / (2 * sx * sx))
			for j := 0; j < p.Bins; j++ {
				dy := p.YMin + (float64(j)+0.5)*wy - pr.Death
				img.d[i*p.Bins+j] += amp * gx * math.Exp(-dy*dy/(2*sy*sy))
			}
		}
	}
	return img
}

//Error is the error type for the fingerprint package.
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

//Critical returns whether the error is critical or it can be ignored
func (err Error) Critical() bool { return err.critical }

func errDecorate(err error, caller string) error {
	if e, ok := err.(Error); ok {
		e.deco = e.Decorate(caller)
		return e
	}
	return err
}

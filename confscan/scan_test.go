/*
 * scan_test.go, part of confscan.
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
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rmera/confscan/rmsd"
)

func newScanner(t *testing.T, structs []*Structure, o Options) *Scanner {
	S, err := NewScanner(NewQueue(structs, o.Skip), o, nil)
	require.NoError(t, err)
	return S
}

func TestIdenticalStructures(t *testing.T) {
	S := newScanner(t, identical(t, 3), DefaultOptions())
	res, err := S.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{0}, res.Accepted)
	require.Len(t, res.Rejected, 2)
	for _, v := range res.Rejected {
		require.Equal(t, CauseRMSD, v.Cause)
		require.Equal(t, 1, v.Pass)
		require.Equal(t, 0, v.Ref)
		require.Less(t, v.RMSD, 1e-6)
	}
	require.Empty(t, res.Threshold)
	require.Equal(t, 1, res.Stats.Accepted)
	require.Equal(t, 2, res.Stats.Rejected)
	require.Zero(t, res.Stats.ReorderAttempted)
	require.False(t, res.Cancelled)
}

func TestSwappedHydrogens(t *testing.T) {
	structs := []*Structure{
		ch2fcl(t, 0, -40, false, false),
		ch2fcl(t, 1, -39.9999, true, true),
	}
	S := newScanner(t, structs, DefaultOptions())
	res, err := S.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{0, 1}, res.PassAccepted[0], "without relabeling both structures look different")
	require.Equal(t, []int{0}, res.PassAccepted[1])
	require.Equal(t, []int{0}, res.Accepted)
	require.Len(t, res.Rejected, 1)
	require.Equal(t, CauseRMSD, res.Rejected[0].Cause)
	require.Equal(t, 2, res.Rejected[0].Pass)
	require.Equal(t, 1, res.Stats.ReorderAttempted)
	require.Equal(t, 1, res.Stats.ReorderSucceeded)
	require.Contains(t, res.Rules, Rule{0, 2, 1, 3, 4})
	require.True(t, res.Thresholds.looseSet, "the first pass saw a near miss")
}

func TestKnownRuleReuse(t *testing.T) {
	structs := []*Structure{
		ch2fcl(t, 0, -40, false, false),
		ch2fcl(t, 1, -39.9999, true, true),
	}
	o := DefaultOptions()
	o.SkipFirst = true
	o.PreventReorder = true
	S := newScanner(t, structs, o)
	S.SetRestart(&RestartState{Rules: []Rule{{0, 2, 1, 3, 4}}, Sources: 1, DeltaE: -1})
	res, err := S.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{0}, res.Accepted)
	require.Len(t, res.Rejected, 1)
	require.Equal(t, CauseRule, res.Rejected[0].Cause)
	require.Equal(t, 3, res.Rejected[0].Pass)
	require.Equal(t, 1, res.Stats.CacheHits)
	require.Zero(t, res.Stats.ReorderAttempted)
	require.Len(t, res.Rules, 1)
}

func TestEnergyWindow(t *testing.T) {
	structs := identical(t, 3)
	structs[1] = ch2fcl(t, 1, -39.9, false, true)
	structs[2] = ch2fcl(t, 2, -39.8, false, false)
	o := DefaultOptions()
	o.MaxEnergy = 10
	sc := &script{}
	S := newScanner(t, structs, o)
	S.SetComparatorFactory(sc.factory())
	res, err := S.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{0}, res.Accepted)
	require.Len(t, res.Rejected, 2)
	for _, v := range res.Rejected {
		require.Equal(t, CauseEnergy, v.Cause)
		require.Equal(t, 1, v.Pass)
	}
	require.InDelta(t, 0.1*2625.5, res.Rejected[0].DE, 1e-6)
	require.Zero(t, sc.aligns)
	require.Zero(t, sc.searches)
	require.Zero(t, sc.probes)
}

func TestRank(t *testing.T) {
	structs := clones(t, 5)
	o := DefaultOptions()
	o.Rank = 2
	sc := &script{}
	S := newScanner(t, structs, o)
	S.SetComparatorFactory(sc.factory())
	res, err := S.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{0, 1}, res.Accepted)
	require.Len(t, res.Rejected, 3)
	for _, v := range res.Rejected {
		require.Equal(t, CauseRank, v.Cause)
	}
}

func TestInvalidStructure(t *testing.T) {
	structs := identical(t, 2)
	bad := structs[1]
	broken := &Structure{name: bad.name, index: 1, energy: bad.energy, top: bad.top, coords: bad.coords, rot: bad.rot, fp: bad.fp}
	structs[1] = broken
	for _, skipFirst := range []bool{false, true} {
		o := DefaultOptions()
		o.SkipFirst = skipFirst
		res, err := newScanner(t, structs, o).Run(context.Background())
		require.NoError(t, err)
		require.Equal(t, []int{0}, res.Accepted)
		require.Len(t, res.Rejected, 1)
		require.Equal(t, CauseInvalid, res.Rejected[0].Cause)
		require.Equal(t, 1, res.Stats.Invalid)
	}
}

func TestCancelledRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	S := newScanner(t, identical(t, 3), DefaultOptions())
	res, err := S.Run(ctx)
	require.NoError(t, err)
	require.True(t, res.Cancelled)
	require.Empty(t, res.Accepted)
	require.Equal(t, []int{0, 1, 2}, res.Pending)
	require.Nil(t, res.PassAccepted[1])
}

//Every structure is far from the others, except the ones listed.
func scripted() *script {
	return &script{
		align: map[[2]int]float64{
			{0, 2}: 0.1,
			{1, 3}: 0.5,
		},
		reorder: map[[2]int]float64{
			{0, 4}: 0.2,
			{1, 5}: 0.3,
			{6, 7}: 0.1,
		},
		rule: Rule{0, 2, 1, 3, 4},
	}
}

func TestThreadCountDeterminism(t *testing.T) {
	structs := clones(t, 9)
	var want *Result
	for _, threads := range []int{1, 2, 4, 8} {
		o := DefaultOptions()
		o.Threads = threads
		sc := scripted()
		S := newScanner(t, structs, o)
		S.SetComparatorFactory(sc.factory())
		res, err := S.Run(context.Background())
		require.NoError(t, err)
		require.Equal(t, []int{0, 1, 6, 8}, res.Accepted)
		if want == nil {
			want = res
			continue
		}
		require.Equal(t, want.Accepted, res.Accepted, "threads %d", threads)
		require.Equal(t, want.PassAccepted, res.PassAccepted, "threads %d", threads)
		require.Equal(t, len(want.Rejected), len(res.Rejected))
		for i, v := range want.Rejected {
			require.Equal(t, v.Index, res.Rejected[i].Index)
			require.Equal(t, v.Cause, res.Rejected[i].Cause)
			require.Equal(t, v.Ref, res.Rejected[i].Ref)
		}
		require.Equal(t, want.Rules, res.Rules)
		require.Equal(t, want.Stats, res.Stats)
	}
}

func TestFirstDuplicateWins(t *testing.T) {
	structs := clones(t, 3)
	sc := &script{
		reorder: map[[2]int]float64{
			{0, 2}: 0.2,
			{1, 2}: 0.1,
		},
		rule: Rule{0, 2, 1, 3, 4},
	}
	o := DefaultOptions()
	o.SkipFirst = true
	o.DoThird = false
	o.Threads = 4
	S := newScanner(t, structs, o)
	S.SetComparatorFactory(sc.factory())
	res, err := S.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{0, 1}, res.Accepted)
	require.Len(t, res.Rejected, 1)
	require.Equal(t, 0, res.Rejected[0].Ref, "the reference accepted first must win")
	require.InDelta(t, 0.2, res.Rejected[0].RMSD, 1e-12)
	require.Equal(t, 1, res.Stats.ReorderSucceeded)
	require.Equal(t, 3, res.Stats.ReorderAttempted)
}

func TestReuseOnlyPassKeepsCache(t *testing.T) {
	structs := clones(t, 3)
	sc := &script{
		reorder: map[[2]int]float64{{0, 2}: 0.1},
		rule:    Rule{0, 2, 1, 3, 4},
	}
	o := DefaultOptions()
	o.SkipFirst = true
	o.PreventReorder = true
	S := newScanner(t, structs, o)
	S.SetComparatorFactory(sc.factory())
	res, err := S.Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, res.Rules)
	require.Zero(t, sc.searches)
	require.Equal(t, []int{0, 1, 2}, res.Accepted)

	S = newScanner(t, structs, o)
	S.SetComparatorFactory(sc.factory())
	S.SetRestart(&RestartState{Rules: []Rule{{0, 2, 1, 3, 4}, {1, 0, 2, 3, 4}}, Sources: 1, DeltaE: -1})
	res, err = S.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []Rule{{0, 2, 1, 3, 4}, {1, 0, 2, 3, 4}}, res.Rules)
	require.Zero(t, sc.searches)
	require.Equal(t, []int{0, 1}, res.Accepted)
	require.Equal(t, CauseRule, res.Rejected[0].Cause)
}

func TestRestartGuard(t *testing.T) {
	structs := clones(t, 4)
	sc := &script{
		reorder: map[[2]int]float64{{0, 1}: 0.1, {0, 3}: 0.1},
		rule:    Rule{0, 2, 1, 3, 4},
	}
	o := DefaultOptions()
	o.SkipFirst = true
	o.DoThird = false
	//structure 1 lies 0.026 kJ/mol over 0, structure 3 0.079 kJ/mol
	o.LastDE = 0.05
	S := newScanner(t, structs, o)
	S.SetComparatorFactory(sc.factory())
	S.SetRestart(&RestartState{Sources: 1, DeltaE: 10})
	res, err := S.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2}, res.Accepted, "below lastdE only known rules are tried")
	require.Equal(t, CauseRMSD, res.Rejected[0].Cause)
	require.Equal(t, 3, res.Rejected[0].Index)
}

func TestMergedRestartPreventsReorder(t *testing.T) {
	S := newScanner(t, identical(t, 2), DefaultOptions())
	S.SetRestart(&RestartState{Sources: 2, DeltaE: -1})
	require.True(t, S.Options().PreventReorder)
	o := DefaultOptions()
	o.Restart = false
	S = newScanner(t, identical(t, 2), o)
	S.SetRestart(&RestartState{Sources: 2, Rules: []Rule{{0, 1}}})
	require.False(t, S.Options().PreventReorder)
	require.Empty(t, S.Rules())
}

func TestSeeds(t *testing.T) {
	structs := []*Structure{
		ch2fcl(t, 0, -40, true, false),
		ch2fclStretched(t, 1, -39.99, false, false, 2.4),
	}
	q := NewQueue(structs, 0)
	q.Seed([]*Structure{ch2fcl(t, 10, -40.001, false, true)})
	o := DefaultOptions()
	o.RMSD = 0.1
	S, err := NewScanner(q, o, nil)
	require.NoError(t, err)
	res, err := S.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{1}, res.Accepted, "the swapped structure is a copy of the seed")
	require.Equal(t, 2, res.Rejected[0].Ref)
	require.Equal(t, CauseRMSD, res.Rejected[0].Cause)
}

func TestAcceptedAreDistinct(t *testing.T) {
	structs := []*Structure{
		ch2fcl(t, 0, -40, false, false),
		ch2fcl(t, 1, -39.99999, false, true),
		ch2fcl(t, 2, -39.9999, true, false),
		ch2fclStretched(t, 3, -39.999, false, true, 2.2),
		ch2fclStretched(t, 4, -39.998, true, false, 2.2),
		ch2fclStretched(t, 5, -39.997, false, false, 2.6),
	}
	o := DefaultOptions()
	o.RMSD = 0.1
	o.Threads = 3
	res, err := newScanner(t, structs, o).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{0, 3, 5}, res.Accepted)
	D := rmsd.NewDriver(rmsd.Options{Threads: 1})
	acc := res.Structures(res.Accepted)
	for i := range acc {
		for j := i + 1; j < len(acc); j++ {
			r, _, err := D.AlignWithReorder(acc[i].conformer(), acc[j].conformer())
			require.NoError(t, err)
			require.Greater(t, r, 0.1)
		}
	}
	require.Equal(t, len(structs), len(res.Accepted)+len(res.Rejected)+len(res.Threshold))
}

func TestNaNIsNeverDuplicate(t *testing.T) {
	sc := &script{align: map[[2]int]float64{{0, 1}: math.NaN()}}
	S := newScanner(t, clones(t, 2), DefaultOptions())
	S.SetComparatorFactory(sc.factory())
	res, err := S.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{0, 1}, res.Accepted)
}

func stretched(t *testing.T, ccl ...float64) []*Structure {
	ret := make([]*Structure, len(ccl))
	for i, v := range ccl {
		ret[i] = ch2fclStretched(t, i, -40+float64(i)*1e-5, false, false, v)
	}
	return ret
}

func TestTightThresholdRejects(t *testing.T) {
	structs := stretched(t, 1.77, 2.6, 1.9)
	calRot, calFP := Delta(structs[1], structs[0])
	drot, dfp := Delta(structs[2], structs[0])
	require.Less(t, drot, calRot)
	require.Less(t, dfp, calFP)

	//0 and 1 are the same within the tight scale, which calibrates the filter
	sc := &script{align: map[[2]int]float64{{0, 1}: 0.05}}
	o := DefaultOptions()
	o.DoThird = false
	S := newScanner(t, structs, o)
	S.SetComparatorFactory(sc.factory())
	res, err := S.Run(context.Background())
	require.NoError(t, err)
	require.InDelta(t, calRot, res.Thresholds.TightRot, 1e-9)
	require.InDelta(t, calFP, res.Thresholds.TightFP, 1e-9)
	require.Equal(t, []int{0}, res.Accepted)
	require.Equal(t, []int{0, 2}, res.PassAccepted[0])

	require.Len(t, res.Threshold, 1)
	th := res.Threshold[0]
	require.Equal(t, 2, th.Index)
	require.Equal(t, 0, th.Ref)
	require.Equal(t, 2, th.Pass)
	require.Equal(t, CauseThreshold, th.Cause)
	require.InDelta(t, drot, th.DRot, 1e-9)
	require.True(t, math.IsNaN(th.RMSD))
	require.Equal(t, 1, res.Stats.ThresholdRejected)
	require.Equal(t, 1, res.Stats.Rejected)
	require.Zero(t, sc.searches, "a threshold rejection needs no comparison")
	require.Zero(t, sc.probes)
	for _, v := range res.Rejected {
		require.NotEqual(t, 2, v.Index)
	}
}

func TestLooseThresholdSkipsReference(t *testing.T) {
	//3 is a copy of 2, both far from the close pair 0 and 1
	structs := stretched(t, 1.77, 1.80, 2.6, 2.6)
	calRot, calFP := Delta(structs[1], structs[0])
	for _, r := range []int{0, 1} {
		drot, dfp := Delta(structs[2], structs[r])
		require.Greater(t, drot, calRot)
		require.Greater(t, dfp, calFP)
	}

	//0 and 1 are a near miss, which sets the loose limits
	sc := &script{
		align:   map[[2]int]float64{{0, 1}: 1.0},
		reorder: map[[2]int]float64{{2, 3}: 0.05},
		rule:    Rule{0, 1, 2, 3, 4},
	}
	o := DefaultOptions()
	o.DoThird = false
	S := newScanner(t, structs, o)
	S.SetComparatorFactory(sc.factory())
	res, err := S.Run(context.Background())
	require.NoError(t, err)
	require.True(t, res.Thresholds.looseSet)
	require.Equal(t, []int{0, 1, 2, 3}, res.PassAccepted[0])
	require.Equal(t, []int{0, 1, 2}, res.Accepted)
	require.Empty(t, res.Threshold)

	require.Len(t, res.Rejected, 1)
	require.Equal(t, 3, res.Rejected[0].Index)
	require.Equal(t, 2, res.Rejected[0].Ref)
	require.Equal(t, CauseRMSD, res.Rejected[0].Cause)
	//1 against 0 and 3 against 2; every other pair is skipped as distinct
	require.EqualValues(t, 2, sc.searches)
	require.Equal(t, 2, res.Stats.ReorderAttempted)
}

/*
 * scan.go, part of confscan.
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
	"io"
	"math"

	"github.com/sirupsen/logrus"

	chem "github.com/rmera/confscan"
)

//Result holds the partition of the queue produced by a run. All the slices
//hold queue indexes (see Queue.At). A structure is in at most one of Accepted,
//Rejected, Threshold and Pending.
type Result struct {
	Accepted     []int       //in acceptance order, without seeds
	Rejected     []Rejection //rejected for any cause except the pre-filter
	Threshold    []Rejection //rejected by the pre-filter
	Pending      []int       //never evaluated because the run was cancelled
	PassAccepted [3][]int    //accepted at the end of each pass that ran
	Stats        Stats
	Thresholds   Thresholds
	Rules        []Rule
	Cancelled    bool
	Queue        *Queue
}

//Structures returns the structures with the given queue indexes.
func (R *Result) Structures(idx []int) []*Structure {
	ret := make([]*Structure, len(idx))
	for i, v := range idx {
		ret[i] = R.Queue.At(v)
	}
	return ret
}

//Scanner removes duplicates from a Queue in up to three passes: the first
//compares structures as given, the second searches for atom relabelings and
//the third only applies the relabelings already known.
//A Scanner is meant for one run.
type Scanner struct {
	o       Options
	q       *Queue
	log     logrus.FieldLogger
	factory ComparatorFactory
	cache   *RuleCache
	thresh  Thresholds
	stats   Stats
	statlog *statLog

	rejected  []Rejection
	threshold []Rejection
	pending   []int
	cancelled bool

	elow       float64 //lowest energy accepted so far, Hartree
	useRestart bool
	lastdE     float64
	dE         float64 //of the last candidate, kJ/mol
	refE       float64 //energies of the last pair compared
	targetE    float64
}

//NewScanner returns a Scanner for the structures in q. A nil log discards messages.
func NewScanner(q *Queue, o Options, log logrus.FieldLogger) (*Scanner, error) {
	o, err := o.normalized()
	if err != nil {
		return nil, err
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	S := &Scanner{
		o:       o,
		q:       q,
		log:     log,
		factory: DriverFactory(o),
		cache:   NewRuleCache(),
		statlog: newStatLog(),
		elow:    math.Inf(1),
		lastdE:  o.LastDE,
	}
	S.thresh.IgnoreRotation = o.IgnoreRotation
	S.thresh.IgnoreFingerprint = o.IgnoreFingerprint
	if low, ok := q.Baseline(); ok {
		S.elow = low
	}
	return S, nil
}

//SetComparatorFactory replaces the rmsd.Driver-based comparators.
func (S *Scanner) SetComparatorFactory(f ComparatorFactory) {
	S.factory = f
}

//SetRestart makes the scan start from a previous run's state. Restart
//information is ignored if the Restart option is off.
func (S *Scanner) SetRestart(R *RestartState) {
	if !S.o.Restart || R == nil {
		return
	}
	for _, err := range R.Errors {
		S.log.WithError(err).Warn("restart source ignored")
	}
	for _, v := range R.Rules {
		S.cache.Insert(v)
	}
	if R.Merged() && !S.o.PreventReorder {
		S.log.WithField("sources", R.Sources).Warn("several restart sources, relabeling searches disabled")
		S.o.PreventReorder = true
	}
	S.useRestart = R.Usable()
	if S.lastdE < 0 {
		S.lastdE = R.DeltaE
	}
	S.log.WithFields(logrus.Fields{"rules": S.cache.Len(), "sources": R.Sources, "failed": R.Failed(), "lastdE": S.lastdE}).Info("restart information loaded")
}

//Rules returns the relabeling rules known to the scanner.
func (S *Scanner) Rules() []Rule {
	return S.cache.Rules()
}

//Options returns the options in use, with defaults filled in.
func (S *Scanner) Options() Options {
	return S.o
}

//Run performs the passes. It stops early, without error, when ctx is
//cancelled: the structures not yet evaluated are then returned as Pending.
func (S *Scanner) Run(ctx context.Context) (*Result, error) {
	res := &Result{Queue: S.q}
	S.stats.Skipped = S.q.Skipped()
	input := S.q.Candidates()
	S.statlog.section(1)
	if S.o.SkipFirst {
		input = S.dropInvalid(input)
	} else {
		input = S.firstPass(ctx, input)
	}
	res.PassAccepted[0] = input
	S.passDone(1, input)
	if !S.cancelled && !S.o.PreventReorder {
		S.statlog.section(2)
		input = S.reorderPass(ctx, 2, input, false)
		res.PassAccepted[1] = input
		S.passDone(2, input)
	}
	if !S.cancelled && S.o.DoThird {
		S.statlog.section(3)
		input = S.reorderPass(ctx, 3, input, true)
		res.PassAccepted[2] = input
		S.passDone(3, input)
	}
	if !S.cancelled {
		S.dE = -1
	}
	S.statlog.section(0)
	res.Accepted = S.rerank(input)
	S.statlog.summary(S.rejected, S.o.RMSD)
	S.stats.Accepted = len(res.Accepted)
	res.Rejected = S.rejected
	res.Threshold = S.threshold
	res.Pending = S.pending
	res.Stats = S.stats
	res.Thresholds = S.thresh
	res.Rules = S.cache.Rules()
	res.Cancelled = S.cancelled
	return res, nil
}

func (S *Scanner) passDone(pass int, accepted []int) {
	S.log.WithFields(logrus.Fields{
		"pass":      pass,
		"accepted":  len(accepted),
		"rejected":  S.stats.Rejected,
		"threshold": S.stats.ThresholdRejected,
		"rules":     S.cache.Len(),
		"looseRot":  S.thresh.LooseRot,
		"tightRot":  S.thresh.TightRot,
		"looseFP":   S.thresh.LooseFP,
		"tightFP":   S.thresh.TightFP,
		"cancelled": S.cancelled,
	}).Info("pass finished")
}

//deltaE returns the energy of s over the lowest accepted energy, in kJ/mol.
func (S *Scanner) deltaE(s *Structure) float64 {
	if math.IsInf(S.elow, 1) {
		return 0
	}
	return (s.energy - S.elow) * chem.H2KJ
}

func (S *Scanner) outOfWindow(dE float64) bool {
	return S.o.MaxEnergy > 0 && dE > S.o.MaxEnergy
}

//rankCap returns the maximum number of structures a pass may accept, or -1.
//The relabeling pass keeps twice as many, leaving room for the reuse pass.
func (S *Scanner) rankCap(pass int) int {
	if S.o.Rank <= 0 {
		return -1
	}
	if pass == 2 {
		return 2 * S.o.Rank
	}
	return S.o.Rank
}

func (S *Scanner) accept(c int) {
	S.elow = math.Min(S.elow, S.q.At(c).energy)
}

func (S *Scanner) reject(r Rejection) {
	c := S.q.At(r.Index)
	var ref *Structure
	if r.Ref >= 0 {
		ref = S.q.At(r.Ref)
	}
	S.statlog.rejection(r, c, ref)
	S.log.WithFields(logrus.Fields{"pass": r.Pass, "structure": c.index, "cause": r.Cause.String(), "rmsd": r.RMSD, "dRot": r.DRot, "dFP": r.DFP, "dE": r.DE}).Debug("structure rejected")
	if r.Cause == CauseThreshold {
		S.stats.ThresholdRejected++
		S.threshold = append(S.threshold, r)
		return
	}
	if r.Cause == CauseInvalid {
		S.stats.Invalid++
	}
	S.stats.Rejected++
	S.rejected = append(S.rejected, r)
}

//rejectRest rejects every structure in rest with the same cause, used when a pass halts.
func (S *Scanner) rejectRest(rest []int, pass int, cause Cause) {
	for _, v := range rest {
		S.reject(Rejection{Index: v, Ref: -1, Pass: pass, Cause: cause, RMSD: math.NaN(), DE: S.deltaE(S.q.At(v))})
	}
}

func (S *Scanner) cancel(rest []int, pass int) {
	S.cancelled = true
	S.pending = append(S.pending, rest...)
	S.log.WithFields(logrus.Fields{"pass": pass, "pending": len(rest)}).Warn("run cancelled")
}

func (S *Scanner) dropInvalid(input []int) []int {
	ret := make([]int, 0, len(input))
	for _, c := range input {
		if !S.q.At(c).valid {
			S.reject(Rejection{Index: c, Ref: -1, Pass: 1, Cause: CauseInvalid, RMSD: math.NaN()})
			continue
		}
		ret = append(ret, c)
	}
	for _, c := range ret {
		S.accept(c)
	}
	return ret
}

func (S *Scanner) observe(rmsd, drot, dfp float64) {
	if S.thresh.Observe(rmsd, drot, dfp, S.o.RMSD, S.o.ScaleTight, S.o.ScaleLoose) {
		S.log.WithFields(logrus.Fields{"looseRot": S.thresh.LooseRot, "tightRot": S.thresh.TightRot, "looseFP": S.thresh.LooseFP, "tightFP": S.thresh.TightFP}).Debug("thresholds updated")
	}
}

func (S *Scanner) status(pass, done, total, accepted int) {
	S.log.WithFields(logrus.Fields{
		"pass":       pass,
		"done":       100 * float64(done) / float64(total),
		"accepted":   accepted,
		"rejected":   S.stats.Rejected + S.stats.ThresholdRejected,
		"reordered":  S.stats.ReorderAttempted,
		"successful": S.stats.ReorderSucceeded,
		"reused":     S.stats.CacheHits,
		"dE":         S.dE,
	}).Info("status")
}

//firstPass compares each candidate with every accepted structure, without
//relabeling. Its comparisons are also the ones that calibrate the pre-filter.
func (S *Scanner) firstPass(ctx context.Context, input []int) []int {
	const pass = 1
	cmp := S.factory(S.o.Threads)
	refs := S.q.Seeds()
	accepted := make([]int, 0, len(input))
	limit := S.rankCap(pass)
	for k, c := range input {
		if ctx.Err() != nil {
			S.cancel(input[k:], pass)
			return accepted
		}
		if limit > 0 && len(accepted) >= limit {
			S.rejectRest(input[k:], pass, CauseRank)
			break
		}
		cs := S.q.At(c)
		if !cs.valid {
			S.reject(Rejection{Index: c, Ref: -1, Pass: pass, Cause: CauseInvalid, RMSD: math.NaN()})
			continue
		}
		if len(refs) == 0 {
			refs = append(refs, c)
			accepted = append(accepted, c)
			S.accept(c)
			continue
		}
		S.dE = S.deltaE(cs)
		if S.outOfWindow(S.dE) {
			S.rejectRest(input[k:], pass, CauseEnergy)
			break
		}
		var rej *Rejection
		for _, r := range refs {
			if ctx.Err() != nil {
				S.cancel(input[k:], pass)
				return accepted
			}
			rs := S.q.At(r)
			rmsd, err := cmp.Align(rs, cs)
			if err != nil {
				S.log.WithError(err).WithFields(logrus.Fields{"structure": cs.index, "reference": rs.index}).Debug("comparison failed")
				rmsd = math.Inf(1)
			}
			S.refE, S.targetE = rs.energy, cs.energy
			drot, dfp := Delta(cs, rs)
			S.observe(rmsd, drot, dfp)
			if duplicate(cmp, rs, cs, nil, rmsd, S.o.RMSD, S.o.MaxHTopoDiff) {
				rej = &Rejection{Index: c, Ref: r, Pass: pass, Cause: CauseRMSD, RMSD: rmsd, DRot: drot, DFP: dfp, DE: (cs.energy - rs.energy) * chem.H2KJ}
				break
			}
		}
		if rej != nil {
			S.reject(*rej)
		} else {
			refs = append(refs, c)
			accepted = append(accepted, c)
			S.accept(c)
		}
		S.status(pass, k+1, len(input), len(accepted))
	}
	return accepted
}

//reorderPass compares each candidate with every accepted structure, allowing
//atom relabelings. With reuseOnly, only the rules in the cache are tried.
func (S *Scanner) reorderPass(ctx context.Context, pass int, input []int, reuseOnly bool) []int {
	P := newPool(S.o.Threads, S.factory)
	for _, v := range S.q.Seeds() {
		P.add(v, S.q.At(v))
	}
	accepted := make([]int, 0, len(input))
	limit := S.rankCap(pass)
	for k, c := range input {
		if ctx.Err() != nil {
			S.cancel(input[k:], pass)
			return accepted
		}
		if limit > 0 && len(accepted) >= limit {
			S.rejectRest(input[k:], pass, CauseRank)
			break
		}
		cs := S.q.At(c)
		if len(P.workers) == 0 {
			P.add(c, cs)
			accepted = append(accepted, c)
			S.accept(c)
			continue
		}
		S.dE = S.deltaE(cs)
		if S.outOfWindow(S.dE) {
			S.rejectRest(input[k:], pass, CauseEnergy)
			break
		}
		if rej := S.evaluate(P, pass, c, reuseOnly); rej != nil {
			S.reject(*rej)
		} else {
			P.add(c, cs)
			accepted = append(accepted, c)
			S.accept(c)
		}
		S.status(pass, k+1, len(input), len(accepted))
	}
	return accepted
}

//evaluate runs the pre-filter and then the comparisons of candidate c against
//all the workers of P. It returns the rejection, or nil if c is new.
func (S *Scanner) evaluate(P *pool, pass, c int, reuseOnly bool) *Rejection {
	cs := S.q.At(c)
	if S.useRestart && !reuseOnly {
		if S.dE < S.lastdE {
			//already searched in the previous run
			reuseOnly = true
		} else {
			S.useRestart = false
		}
	}
	rules := S.cache.Rules()
	share := P.share()
	tasks := make([]task, 0, len(P.workers))
	deltas := make([][2]float64, 0, len(P.workers))
	for _, w := range P.workers {
		drot, dfp := Delta(cs, w.refS)
		switch S.thresh.Classify(drot, dfp) {
		case FilterDistinct:
			continue
		case FilterDuplicate:
			return &Rejection{Index: c, Ref: w.ref, Pass: pass, Cause: CauseThreshold, RMSD: math.NaN(), DRot: drot, DFP: dfp, DE: (cs.energy - w.refS.energy) * chem.H2KJ}
		}
		tasks = append(tasks, task{w: w, target: cs, rules: rules, reuseOnly: reuseOnly, threads: share, cutoff: S.o.RMSD, maxHTopo: S.o.MaxHTopoDiff})
		deltas = append(deltas, [2]float64{drot, dfp})
	}
	if len(tasks) == 0 {
		return nil
	}
	outs := P.run(tasks)
	var win *outcome
	var windelta [2]float64
	for i := range outs {
		o := &outs[i]
		S.refE, S.targetE = S.q.At(o.ref).energy, cs.energy
		if o.err != nil {
			S.log.WithError(o.err).WithFields(logrus.Fields{"structure": cs.index, "reference": S.q.At(o.ref).index}).Debug("comparison failed")
		}
		if o.searched {
			S.stats.ReorderAttempted++
			if o.err == nil {
				S.observe(o.rmsd, deltas[i][0], deltas[i][1])
			}
		}
		if o.duplicate && win == nil {
			win = o
			windelta = deltas[i]
		}
	}
	if win == nil {
		return nil
	}
	switch win.cause {
	case CauseRule:
		S.stats.CacheHits++
	case CauseRMSD:
		S.stats.ReorderSucceeded++
		if !reuseOnly && S.cache.Insert(win.rule) {
			S.log.WithFields(logrus.Fields{"rule": win.rule, "rules": S.cache.Len()}).Debug("new relabeling rule")
		}
	}
	ref := S.q.At(win.ref)
	return &Rejection{Index: c, Ref: win.ref, Pass: pass, Cause: win.cause, RMSD: win.rmsd, DRot: windelta[0], DFP: windelta[1], DE: (cs.energy - ref.energy) * chem.H2KJ}
}

//rerank applies the rank and energy limits to the final list, in case a pass
//accepted more than allowed. The extra structures are rejected.
func (S *Scanner) rerank(accepted []int) []int {
	ret := make([]int, 0, len(accepted))
	for _, c := range accepted {
		dE := S.deltaE(S.q.At(c))
		switch {
		case S.o.Rank > 0 && len(ret) >= S.o.Rank:
			S.reject(Rejection{Index: c, Ref: -1, Pass: 0, Cause: CauseRank, RMSD: math.NaN(), DE: dE})
		case S.outOfWindow(dE):
			S.reject(Rejection{Index: c, Ref: -1, Pass: 0, Cause: CauseEnergy, RMSD: math.NaN(), DE: dE})
		default:
			ret = append(ret, c)
		}
	}
	return ret
}

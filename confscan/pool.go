/*
 * pool.go, part of confscan.
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

	"golang.org/x/sync/errgroup"
)

//worker compares candidates against one accepted structure. It lives for
//the whole pass and owns its comparator, so nothing in it is shared with
//other workers.
type worker struct {
	ref  int //queue index of the reference
	refS *Structure
	cmp  Comparator
}

//task is one comparison, built fresh for every candidate and worker.
type task struct {
	w         *worker
	target    *Structure
	rules     []Rule //snapshot of the cache
	reuseOnly bool
	threads   int
	cutoff    float64
	maxHTopo  int
}

//outcome is what a task found. The scan applies outcomes, in submission
//order, once every task for the candidate has finished.
type outcome struct {
	ref       int
	rmsd      float64 //+Inf if nothing was computed
	searched  bool    //a relabeling search was run
	cacheHit  bool
	duplicate bool
	cause     Cause
	rule      Rule //relabeling that made the structures equal, if any
	err       error
}

//threadSetter is implemented by comparators that can use several goroutines.
type threadSetter interface {
	Threads(n int)
}

func (t task) run() outcome {
	ref := t.w.refS
	cmp := t.w.cmp
	out := outcome{ref: t.w.ref, rmsd: math.Inf(1)}
	if len(t.rules) > 0 {
		r, rule, ok := TryKnownRules(cmp, ref, t.target, t.rules, t.cutoff, t.maxHTopo)
		if ok {
			out.rmsd, out.rule, out.cacheHit, out.duplicate, out.cause = r, rule, true, true, CauseRule
			return out
		}
	}
	if t.reuseOnly {
		return out
	}
	if ts, ok := cmp.(threadSetter); ok {
		ts.Threads(t.threads)
	}
	out.searched = true
	r, rule, err := cmp.AlignWithReorder(ref, t.target)
	if err != nil || math.IsNaN(r) {
		out.err = err
		return out
	}
	out.rmsd = r
	if duplicate(cmp, ref, t.target, rule, r, t.cutoff, t.maxHTopo) {
		out.duplicate, out.cause, out.rule = true, CauseRMSD, rule
	}
	return out
}

//pool runs the tasks of one candidate concurrently.
type pool struct {
	threads int
	factory ComparatorFactory
	workers []*worker
}

func newPool(threads int, factory ComparatorFactory) *pool {
	if threads < 1 {
		threads = 1
	}
	return &pool{threads: threads, factory: factory}
}

//add creates the worker for a newly accepted structure.
func (P *pool) add(ref int, s *Structure) *worker {
	w := &worker{ref: ref, refS: s, cmp: P.factory(P.share())}
	P.workers = append(P.workers, w)
	return w
}

//share is the number of goroutines each comparison may use.
func (P *pool) share() int {
	if len(P.workers) == 0 {
		return P.threads
	}
	s := P.threads / len(P.workers)
	if s < 1 {
		return 1
	}
	return s
}

//run executes all tasks, at most P.threads at the same time, and returns their
//outcomes in the order of tasks. It returns only when every task is done.
func (P *pool) run(tasks []task) []outcome {
	outs := make([]outcome, len(tasks))
	eg := &errgroup.Group{}
	eg.SetLimit(P.threads)
	for i := range tasks {
		i := i
		eg.Go(func() error {
			outs[i] = tasks[i].run()
			return nil
		})
	}
	//errors travel in the outcomes; no task returns one.
	_ = eg.Wait()
	return outs
}

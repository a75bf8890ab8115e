/*
 * ingest.go, part of confscan.
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
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	chem "github.com/rmera/confscan"
	"github.com/rmera/confscan/fingerprint"
	"github.com/rmera/confscan/qm"
	v3 "github.com/rmera/confscan/v3"
)

//energies with an absolute value below this are taken as missing.
const noEnergy = 1e-5

//EnergySource computes single point energies, in Hartree.
type EnergySource interface {
	Energy(ctx context.Context, coords *v3.Matrix, atoms chem.AtomMultiCharger) (float64, error)
}

//ReadStructures reads all the structures in the xyz or trj file name. Energies
//are taken from the comment lines, unless o.Method is set or the comment has
//no energy; those structures get their energy from src (or, if src is nil, from
//a qm.EnergyCalculator for o.Method). Structures whose energy can't be obtained
//are marked as invalid.
func ReadStructures(ctx context.Context, name string, o Options, src EnergySource, log logrus.FieldLogger) ([]*Structure, error) {
	if _, err := BaseName(name); err != nil {
		return nil, err
	}
	o, err := o.normalized()
	if err != nil {
		return nil, err
	}
	gen, err := fingerprint.New(o.Fingerprint)
	if err != nil {
		return nil, inputError(err, "fingerprint parameters")
	}
	X, err := chem.XYZFileOpen(name)
	if err != nil {
		return nil, inputError(err, "opening %s", name)
	}
	defer X.Close()
	var frames []*chem.Frame
	for {
		f, err := X.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, inputError(err, "reading %s", name)
		}
		frames = append(frames, f)
	}
	if len(frames) == 0 {
		return nil, inputError(nil, "no structures in %s", name)
	}
	if err := fillEnergies(ctx, frames, o, src, log); err != nil {
		return nil, err
	}
	ret := make([]*Structure, 0, len(frames))
	for i, f := range frames {
		s, err := NewStructure(f.Comment, i, f.Energy, f.Top, f.Coords, gen)
		if err != nil {
			return nil, errors.Wrapf(err, "structure %d of %s", i, name)
		}
		if !s.Valid() && log != nil {
			log.WithFields(logrus.Fields{"file": name, "structure": i}).Warn("invalid structure")
		}
		ret = append(ret, s)
	}
	return ret, nil
}

func fillEnergies(ctx context.Context, frames []*chem.Frame, o Options, src EnergySource, log logrus.FieldLogger) error {
	var todo []int
	for i, f := range frames {
		if o.Method != "" || math.Abs(f.Energy) < noEnergy {
			todo = append(todo, i)
		}
	}
	if len(todo) == 0 {
		return nil
	}
	if src == nil {
		calc, err := qm.NewEnergyCalculator(o.Method, o.MethodOptions...)
		if err != nil {
			return inputError(err, "energy method")
		}
		src = calc
	}
	eg := &errgroup.Group{}
	eg.SetLimit(o.Threads)
	for _, i := range todo {
		f := frames[i]
		i := i
		eg.Go(func() error {
			e, err := src.Energy(ctx, f.Coords, f.Top)
			if err != nil {
				if log != nil {
					log.WithError(err).WithField("structure", i).Warn("no energy")
				}
				e = math.Inf(1)
			}
			f.Energy = e
			return nil
		})
	}
	//tasks give failed calculations +Inf energies instead of errors.
	return eg.Wait()
}

//Job is a whole run: reading, scanning and writing the results.
type Job struct {
	Input    string
	Options  Options
	Log      logrus.FieldLogger
	Energies EnergySource      //nil for a qm.EnergyCalculator
	Factory  ComparatorFactory //nil for rmsd.Driver comparators
}

//Run reads the input and the seeds, loads the restart information, scans the
//structures and writes the results. It returns the result and the files written.
func (J *Job) Run(ctx context.Context) (*Result, []string, error) {
	log := J.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	base, err := BaseName(J.Input)
	if err != nil {
		return nil, nil, err
	}
	structs, err := ReadStructures(ctx, J.Input, J.Options, J.Energies, log)
	if err != nil {
		return nil, nil, err
	}
	q := NewQueue(structs, J.Options.Skip)
	if J.Options.Accepted != "" {
		seeds, err := ReadStructures(ctx, J.Options.Accepted, J.Options, J.Energies, log)
		if err != nil {
			return nil, nil, errors.Wrap(err, "reading accepted structures")
		}
		q.Seed(seeds)
	}
	S, err := NewScanner(q, J.Options, log.WithField("input", filepath.Base(J.Input)))
	if err != nil {
		return nil, nil, err
	}
	if J.Factory != nil {
		S.SetComparatorFactory(J.Factory)
	}
	if J.Options.Restart {
		S.SetRestart(LoadRestart(filepath.Dir(base), J.Options.RestartFiles...))
	}
	res, err := S.Run(ctx)
	if err != nil {
		return nil, nil, err
	}
	files, err := S.Finalize(res, Output{Base: base, Compress: J.Options.Compress})
	return res, files, err
}

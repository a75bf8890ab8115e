/*
 * output.go, part of confscan.
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
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	chem "github.com/rmera/confscan"
	"github.com/rmera/confscan/histo"
)

var passNames = [...]string{"Final ranking", "1st", "2nd", "3rd"}

//statLog is the human readable record of every rejection, with both geometries.
type statLog struct {
	b bytes.Buffer
}

func newStatLog() *statLog {
	return &statLog{}
}

func (L *statLog) section(pass int) {
	fmt.Fprintf(&L.b, "Results of %s Pass\n", passNames[pass])
}

func (L *statLog) rejection(r Rejection, c, ref *Structure) {
	switch r.Cause {
	case CauseThreshold:
		fmt.Fprintf(&L.b, "Molecule got rejected as differences %.6f MHz and %.6f are below the estimated thresholds; energy difference of %.4f kJ/mol\n", r.DRot, r.DFP, r.DE)
	case CauseRMSD, CauseRule:
		fmt.Fprintf(&L.b, "Molecule got rejected due to small rmsd %.6f (%s) with an energy difference of %.4f kJ/mol\n", r.RMSD, r.Cause, r.DE)
	case CauseEnergy:
		fmt.Fprintf(&L.b, "Molecule got rejected as it lies %.4f kJ/mol over the lowest structure\n", r.DE)
	case CauseRank:
		fmt.Fprintf(&L.b, "Molecule got rejected as the maximum number of structures was reached\n")
	case CauseInvalid:
		fmt.Fprintf(&L.b, "Molecule got rejected as its geometry is not valid\n")
	}
	for _, s := range []*Structure{c, ref} {
		if s == nil {
			continue
		}
		str, err := chem.XYZStringWrite(s.coords, s.top, s.comment())
		if err == nil {
			L.b.WriteString(str)
		}
	}
	L.b.WriteString("\n")
}

//summary closes the log with the RMSD statistics of the rejections by
//structural comparison, and their distribution up to cutoff.
func (L *statLog) summary(rej []Rejection, cutoff float64) {
	fmt.Fprintf(&L.b, "Summary\n")
	var rmsds []float64
	for _, c := range []Cause{CauseRMSD, CauseRule} {
		mean, std, n := Summary(rej, c)
		if n == 0 {
			continue
		}
		fmt.Fprintf(&L.b, "%d rejected (%s): RMSD %.4f +/- %.4f A\n", n, c, mean, std)
		for _, v := range rej {
			if v.Cause == c {
				rmsds = append(rmsds, v.RMSD)
			}
		}
	}
	if len(rmsds) == 0 {
		return
	}
	h, err := histo.NewData(histo.Uniform(0, cutoff*(1+1e-9), 10), rmsds)
	if err != nil {
		return
	}
	fmt.Fprintf(&L.b, "RMSD distribution\n%s", h)
}

func (L *statLog) String() string {
	return L.b.String()
}

//comment is the comment line written for S, which always starts with the energy.
func (S *Structure) comment() string {
	fields := strings.Fields(S.name)
	if len(fields) > 0 {
		if e, err := strconv.ParseFloat(fields[0], 64); err == nil && math.Abs(e-S.energy) < 1e-10 {
			return S.name
		}
	}
	return strings.TrimSpace(fmt.Sprintf("%.10f %s", S.energy, S.name))
}

//BaseName returns the file name input without the .xyz/.trj extension and
//everything after it, or an error if input has none of them.
func BaseName(input string) (string, error) {
	for _, ext := range []string{".xyz", ".trj"} {
		if i := strings.LastIndex(input, ext); i > 0 {
			return input[:i], nil
		}
	}
	return "", inputError(nil, "%s is not an xyz or trj file", input)
}

//Output names the files written for a run.
type Output struct {
	Base     string
	Compress bool
}

//Stream returns the name of the file for a stream, such as "accepted".
func (O Output) Stream(kind string) string {
	name := O.Base + "." + kind + ".xyz"
	if O.Compress {
		name += ".zst"
	}
	return name
}

//StatisticLog returns the name of the statistic log.
func (O Output) StatisticLog() string {
	return O.Base + ".statistic.log"
}

//Restart returns the name of the restart file, next to the other outputs.
func (O Output) Restart() string {
	return filepath.Join(filepath.Dir(O.Base), RestartFile)
}

func writeStream(name string, structs []*Structure) error {
	W, err := chem.XYZFileCreate(name)
	if err != nil {
		return errors.Wrapf(err, "creating %s", name)
	}
	for _, s := range structs {
		if err := W.WNext(s.coords, s.top, s.comment()); err != nil {
			W.Close()
			return errors.Wrapf(err, "writing %s", name)
		}
	}
	return errors.Wrapf(W.Close(), "closing %s", name)
}

func rejected(r []Rejection) []int {
	ret := make([]int, len(r))
	for i, v := range r {
		ret[i] = v.Index
	}
	return ret
}

//Finalize writes the restart file, the structure streams and the statistic log
//for res, and returns the names of the files written.
func (S *Scanner) Finalize(res *Result, out Output) ([]string, error) {
	var written []string
	rec := RestartRecord{ReferenceLastEnergy: S.refE, TargetLastEnergy: S.targetE, DeltaE: S.dE}
	for _, v := range res.Rules {
		rec.ReorderRules = append(rec.ReorderRules, []int(v))
	}
	if err := WriteRestart(out.Restart(), rec); err != nil {
		return written, err
	}
	written = append(written, out.Restart())
	streams := []struct {
		kind string
		idx  []int
		skip bool
	}{
		{"accepted", res.Accepted, false},
		{"joined", append(append([]int(nil), res.Accepted...), S.q.Seeds()...), len(S.q.Seeds()) == 0},
		{"rejected", rejected(res.Rejected), S.o.FewerFiles},
		{"thresh", rejected(res.Threshold), S.o.FewerFiles},
		{"1st", res.PassAccepted[0], S.o.FewerFiles || S.o.SkipFirst},
		{"2nd", res.PassAccepted[1], S.o.FewerFiles || res.PassAccepted[1] == nil},
		{"pending", res.Pending, len(res.Pending) == 0},
	}
	for _, v := range streams {
		if v.skip {
			continue
		}
		name := out.Stream(v.kind)
		if err := writeStream(name, res.Structures(v.idx)); err != nil {
			return written, err
		}
		written = append(written, name)
	}
	if !S.o.FewerFiles {
		name := out.StatisticLog()
		if err := os.WriteFile(name, []byte(S.statlog.String()), 0o644); err != nil {
			return written, errors.Wrapf(err, "writing %s", name)
		}
		written = append(written, name)
	}
	S.log.WithFields(logrus.Fields{"kept": len(res.Accepted), "total": S.q.Len(), "files": len(written)}).
		Infof("%d structures were kept - of %d total!", len(res.Accepted), S.q.Len())
	return written, nil
}

/*
 * restart.go, part of confscan.
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
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

//RestartFile is the name of the restart file written at the end of each run.
const RestartFile = "confscan_restart.json"

const restartGlob = "confscan_restart*.json"

//RestartRecord is the state saved between runs.
type RestartRecord struct {
	ReorderRules        [][]int `json:"ReorderRules"`
	ReferenceLastEnergy float64 `json:"ReferenceLastEnergy"`
	TargetLastEnergy    float64 `json:"TargetLastEnergy"`
	DeltaE              float64 `json:"deltaE"` //-1 if the run finished
}

type restartDocument struct {
	ConfScan *RestartRecord `json:"ConfScan"`
}

//RestartState is what was recovered from the restart sources.
type RestartState struct {
	Rules               []Rule
	ReferenceLastEnergy float64
	TargetLastEnergy    float64
	DeltaE              float64
	Sources             int     //files found
	Errors              []error //one per source that could not be used
}

//Failed returns the number of sources that could not be used.
func (R *RestartState) Failed() int {
	return len(R.Errors)
}

//Usable returns true if the state comes from exactly one, readable, source.
//Only then does the previous run's bookkeeping apply to this one.
func (R *RestartState) Usable() bool {
	return R.Sources == 1 && R.Failed() == 0
}

//Merged returns true if more than one source was found. Rules from several runs
//may come from different molecules, so relabeling searches are not trusted then.
func (R *RestartState) Merged() bool {
	return R.Sources > 1
}

//LoadRestart reads every confscan_restart*.json file in dir, plus the files in
//extra, and merges their rules. Unreadable sources are recorded in Errors and
//otherwise ignored. The energies and deltaE are those of the last good source.
func LoadRestart(dir string, extra ...string) *RestartState {
	R := &RestartState{DeltaE: -1}
	names, _ := filepath.Glob(filepath.Join(dir, restartGlob))
	sort.Strings(names)
	seen := make(map[string]bool)
	cache := NewRuleCache()
	for _, name := range append(names, extra...) {
		clean := filepath.Clean(name)
		if seen[clean] {
			continue
		}
		seen[clean] = true
		R.Sources++
		rec, err := ReadRestart(clean)
		if err != nil {
			R.Errors = append(R.Errors, err)
			continue
		}
		for _, v := range rec.ReorderRules {
			cache.Insert(v)
		}
		R.ReferenceLastEnergy = rec.ReferenceLastEnergy
		R.TargetLastEnergy = rec.TargetLastEnergy
		R.DeltaE = rec.DeltaE
	}
	R.Rules = cache.Rules()
	return R
}

//ReadRestart reads one restart file.
func ReadRestart(name string) (*RestartRecord, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrapf(ErrRestart, "%s: %v", name, err)
	}
	var doc restartDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(ErrRestart, "%s: %v", name, err)
	}
	if doc.ConfScan == nil {
		return nil, errors.Wrapf(ErrRestart, "%s: no ConfScan block", name)
	}
	return doc.ConfScan, nil
}

//WriteRestart writes rec to the file name, replacing it.
func WriteRestart(name string, rec RestartRecord) error {
	if rec.ReorderRules == nil {
		rec.ReorderRules = [][]int{}
	}
	data, err := json.MarshalIndent(restartDocument{ConfScan: &rec}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding restart information")
	}
	tmp := name + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", tmp)
	}
	return errors.Wrapf(os.Rename(tmp, name), "renaming %s", tmp)
}

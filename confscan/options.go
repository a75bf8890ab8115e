/*
 * options.go, part of confscan.
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
	"runtime"

	"github.com/rmera/confscan/fingerprint"
)

//Default RMSD cutoffs, in A.
const (
	DefaultRMSD      = 0.9
	DefaultHeavyRMSD = 0.75
)

//Options controls a run. The yaml names are the ones used in configuration files.
type Options struct {
	RMSD              float64  `yaml:"rmsd"`      //acceptance cutoff, A. <= 0 selects the default
	Heavy             bool     `yaml:"heavy"`     //RMSD over non-hydrogen atoms only
	Rank              int      `yaml:"rank"`      //maximum number of accepted structures, -1 for no limit
	MaxEnergy         float64  `yaml:"maxenergy"` //energy window over the lowest structure, kJ/mol, -1 for no limit
	ScaleLoose        float64  `yaml:"scaleLoose"`
	ScaleTight        float64  `yaml:"scaleTight"`
	MaxHTopoDiff      int      `yaml:"maxHTopoDiff"` //-1 disables the hydrogen bond check
	Threads           int      `yaml:"threads"`
	SkipFirst         bool     `yaml:"skipfirst"`
	PreventReorder    bool     `yaml:"preventreorder"`
	DoThird           bool     `yaml:"dothird"`
	Restart           bool     `yaml:"restart"`
	RestartFiles      []string `yaml:"restartfiles"` //read in addition to the confscan_restart*.json files
	Skip              int      `yaml:"skip"`
	Accepted          string   `yaml:"accepted"` //structures accepted in a previous run
	Method            string   `yaml:"method"`   //energy method for structures without energy
	MethodOptions     []string `yaml:"methodoptions"`
	LastDE            float64  `yaml:"lastdE"`
	CheckConnections  bool     `yaml:"check"`
	IgnoreRotation    bool     `yaml:"ignoreRotation"`
	IgnoreFingerprint bool     `yaml:"ignoreBarCode"`
	FewerFiles        bool     `yaml:"fewerFile"`
	Compress          bool     `yaml:"compress"`
	Plot              bool     `yaml:"plot"`
	StopFile          string   `yaml:"stopfile"`

	Fingerprint fingerprint.Params `yaml:"fingerprint"`
}

//DefaultOptions returns the options for a standard three-pass run
//(the third pass enabled) with restart files and one thread.
func DefaultOptions() Options {
	return Options{
		RMSD:         -1,
		Rank:         -1,
		MaxEnergy:    -1,
		ScaleLoose:   1.5,
		ScaleTight:   0.1,
		MaxHTopoDiff: -1,
		Threads:      1,
		DoThird:      true,
		Restart:      true,
		LastDE:       -1,
		StopFile:     "stop",
		Fingerprint:  fingerprint.DefaultParams(),
	}
}

//normalized returns a copy of O with defaults in place of unset values,
//or an error for options that make no sense.
func (O Options) normalized() (Options, error) {
	if O.RMSD <= 0 {
		O.RMSD = DefaultRMSD
		if O.Heavy {
			O.RMSD = DefaultHeavyRMSD
		}
	}
	if O.Threads <= 0 {
		O.Threads = runtime.NumCPU()
	}
	if O.Rank == 0 {
		O.Rank = -1
	}
	if O.MaxEnergy == 0 {
		O.MaxEnergy = -1
	}
	if O.Skip < 0 {
		return O, inputError(nil, "negative skip count %d", O.Skip)
	}
	if O.ScaleTight < 0 || O.ScaleLoose < O.ScaleTight {
		return O, inputError(nil, "bad threshold scales: loose %g, tight %g", O.ScaleLoose, O.ScaleTight)
	}
	if O.StopFile == "" {
		O.StopFile = "stop"
	}
	if O.Fingerprint.Bins == 0 {
		O.Fingerprint = fingerprint.DefaultParams()
	}
	return O, nil
}

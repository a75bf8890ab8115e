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

package main

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/rmera/confscan/confscan"
)

//bindOptions registers the flags that map onto the fields of o.
func bindOptions(fs *pflag.FlagSet, o *confscan.Options) {
	fs.Float64VarP(&o.RMSD, "rmsd", "r", o.RMSD, "RMSD cutoff in A; 0.9 (0.75 with --heavy) if not given")
	fs.BoolVar(&o.Heavy, "heavy", o.Heavy, "Use only non-hydrogen atoms for the RMSD")
	fs.IntVar(&o.Rank, "rank", o.Rank, "Keep at most this many structures (-1 for all)")
	fs.Float64VarP(&o.MaxEnergy, "maxenergy", "e", o.MaxEnergy, "Keep only structures within this many kJ/mol of the lowest (-1 for all)")
	fs.Float64Var(&o.ScaleLoose, "scale-loose", o.ScaleLoose, "Scale of the loose thresholds")
	fs.Float64Var(&o.ScaleTight, "scale-tight", o.ScaleTight, "Scale of the tight thresholds")
	fs.IntVar(&o.MaxHTopoDiff, "max-htopo", o.MaxHTopoDiff, "Maximum hydrogen bond topology difference for duplicates (-1 to disable)")
	fs.IntVarP(&o.Threads, "threads", "t", o.Threads, "Number of threads (0 for all CPUs)")
	fs.BoolVar(&o.SkipFirst, "skip-first", o.SkipFirst, "Skip the first pass")
	fs.BoolVar(&o.PreventReorder, "prevent-reorder", o.PreventReorder, "Don't look for atom relabelings")
	fs.BoolVar(&o.DoThird, "third", o.DoThird, "Run the third pass, reusing the known relabelings")
	fs.BoolVar(&o.Restart, "restart", o.Restart, "Use the restart files in the output directory")
	fs.StringSliceVar(&o.RestartFiles, "restart-file", o.RestartFiles, "Additional restart file (can be repeated)")
	fs.IntVar(&o.Skip, "skip", o.Skip, "Skip this many of the lowest energy structures")
	fs.StringVarP(&o.Accepted, "accepted", "a", o.Accepted, "File with structures accepted in a previous run")
	fs.StringVarP(&o.Method, "method", "m", o.Method, "Method to compute the energies (xtb)")
	fs.StringSliceVar(&o.MethodOptions, "method-option", o.MethodOptions, "Option passed to the energy method (can be repeated)")
	fs.Float64Var(&o.LastDE, "lastde", o.LastDE, "Energy difference to restart from (-1 to take it from the restart file)")
	fs.BoolVar(&o.CheckConnections, "check", o.CheckConnections, "Check that structures keep their connectivity")
	fs.BoolVar(&o.IgnoreRotation, "ignore-rotation", o.IgnoreRotation, "Don't use rotational constants in the pre-filter")
	fs.BoolVar(&o.IgnoreFingerprint, "ignore-fingerprint", o.IgnoreFingerprint, "Don't use fingerprints in the pre-filter")
	fs.BoolVar(&o.FewerFiles, "fewer-files", o.FewerFiles, "Write only the accepted structures")
	fs.BoolVar(&o.Compress, "compress", o.Compress, "Compress the structure files with zstd")
	fs.BoolVar(&o.Plot, "plot", o.Plot, "Plot the energy profile of the result")
	fs.StringVar(&o.StopFile, "stop-file", o.StopFile, "A run ends cleanly when this file appears")
}

//loadConfig reads a YAML configuration file over the default options.
//Unknown keys are an error.
func loadConfig(name string) (confscan.Options, error) {
	o := confscan.DefaultOptions()
	data, err := os.ReadFile(name)
	if err != nil {
		return o, errors.Wrap(err, "reading configuration")
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&o); err != nil {
		return o, errors.Wrapf(err, "parsing configuration %s", name)
	}
	return o, nil
}

//resolveOptions returns the options for a run: the defaults, then the
//configuration file given with --config, if any, then the flags set in the
//command line.
func resolveOptions(cmd *cobra.Command) (confscan.Options, error) {
	o := confscan.DefaultOptions()
	cfg, _ := cmd.Flags().GetString("config")
	if cfg != "" {
		var err error
		if o, err = loadConfig(cfg); err != nil {
			return o, err
		}
	}
	over := pflag.NewFlagSet("options", pflag.ContinueOnError)
	bindOptions(over, &o)
	var err error
	cmd.Flags().Visit(func(f *pflag.Flag) {
		dst := over.Lookup(f.Name)
		if dst == nil || err != nil {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			err = dst.Value.(pflag.SliceValue).Replace(sv.GetSlice())
			return
		}
		err = dst.Value.Set(f.Value.String())
	})
	return o, errors.Wrap(err, "applying flags")
}

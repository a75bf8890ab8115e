/*
 * main.go, part of confscan.
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

//Command confscan removes duplicate structures from a conformer ensemble.
//Structures are read from an xyz file, in order of increasing energy, and
//kept only if they differ from all the structures kept before them.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	chem "github.com/rmera/confscan"
	"github.com/rmera/confscan/chemplot"
	"github.com/rmera/confscan/confscan"
	"github.com/rmera/confscan/sentinel"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "confscan [flags] ensemble.xyz",
		Short: "Remove duplicate conformers from an ensemble",
		Long: `confscan reads an ensemble of structures from an xyz (or trj) file, with
the energies, in Hartree, in the comment lines, and keeps only the structures
that are not duplicates of a lower energy one. Two structures are duplicates
if their RMSD, after superposition and, if needed, after relabeling equivalent
atoms, is below the cutoff.

The run can be stopped cleanly by creating the stop file (by default "stop"
in the working directory). The structures not yet processed are written to
the pending file, and the run can be continued later from the restart file.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := resolveOptions(cmd)
			if err != nil {
				return err
			}
			err = run(cmd.Context(), args[0], o, newLogger(cmd), cmd.OutOrStdout())
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			}
			return err
		},
	}
	cmd.Flags().String("config", "", "YAML configuration file; flags given take precedence")
	cmd.Flags().BoolP("verbose", "v", false, "Log every rejection")
	cmd.Flags().BoolP("quiet", "q", false, "Log only warnings and errors")
	o := confscan.DefaultOptions()
	bindOptions(cmd.Flags(), &o)
	return cmd
}

func newLogger(cmd *cobra.Command) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(cmd.ErrOrStderr())
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	verbose, _ := cmd.Flags().GetBool("verbose")
	quiet, _ := cmd.Flags().GetBool("quiet")
	switch {
	case verbose:
		log.SetLevel(logrus.DebugLevel)
	case quiet:
		log.SetLevel(logrus.WarnLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}

func run(ctx context.Context, input string, o confscan.Options, log *logrus.Logger, out io.Writer) error {
	if o.StopFile == "" {
		o.StopFile = "stop"
	}
	if err := sentinel.Clear(o.StopFile); err != nil {
		return errors.Wrap(err, "removing old stop file")
	}
	ctx, sent, err := sentinel.Watch(ctx, o.StopFile, sentinel.DefaultPoll, log)
	if err != nil {
		return err
	}
	defer sent.Stop()
	job := &confscan.Job{Input: input, Options: o, Log: log}
	res, files, err := job.Run(ctx)
	if err != nil {
		return err
	}
	if o.Plot {
		name, err := plotProfile(input, res)
		if err != nil {
			log.WithError(err).Warn("no energy profile")
		} else {
			files = append(files, name)
		}
	}
	fmt.Fprintln(out, res.Stats)
	if res.Cancelled {
		fmt.Fprintf(out, "Stopped, %d structures pending\n", len(res.Pending))
	}
	for _, v := range files {
		fmt.Fprintln(out, v)
	}
	return nil
}

//plotProfile writes the energies of the accepted and rejected structures,
//in kJ/mol, to <base>.energy.png, and returns the file name.
func plotProfile(input string, res *confscan.Result) (string, error) {
	base, err := confscan.BaseName(input)
	if err != nil {
		return "", err
	}
	kj := func(idx []int) []float64 {
		e := make([]float64, 0, len(idx))
		for _, s := range res.Structures(idx) {
			e = append(e, s.Energy()*chem.H2KJ)
		}
		return e
	}
	rej := make([]int, 0, len(res.Rejected)+len(res.Threshold))
	for _, v := range res.Rejected {
		rej = append(rej, v.Index)
	}
	for _, v := range res.Threshold {
		rej = append(rej, v.Index)
	}
	name := base + ".energy.png"
	err = chemplot.EnergyProfile("Energy profile",
		name,
		chemplot.Series{Name: "accepted", Energies: kj(res.Accepted)},
		chemplot.Series{Name: "rejected", Energies: kj(rej)})
	return name, err
}

/*
 * energy.go, part of confscan.
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

package chemplot

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

//Series is a named set of energies, in kJ/mol.
type Series struct {
	Name     string
	Energies []float64
}

//PlotError is the error type for this package.
type PlotError struct {
	msg  string
	deco []string
}

func (err PlotError) Error() string { return err.msg }

//Decorate adds dec to the decoration trail of the error, and returns the trail.
func (err PlotError) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

//profilePoints returns the energies in S sorted in ascending order, relative to
//base, against their rank (1-based). Non-finite energies are left out.
func profilePoints(S Series, base float64) plotter.XYs {
	e := make([]float64, 0, len(S.Energies))
	for _, v := range S.Energies {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		e = append(e, v)
	}
	sort.Float64s(e)
	pts := make(plotter.XYs, len(e))
	for i, v := range e {
		pts[i].X = float64(i + 1)
		pts[i].Y = v - base
	}
	return pts
}

//lowest returns the lowest finite energy in all series.
func lowest(series []Series) (float64, bool) {
	low := math.Inf(1)
	for _, s := range series {
		for _, v := range s.Energies {
			if !math.IsNaN(v) && v < low {
				low = v
			}
		}
	}
	return low, !math.IsInf(low, 1)
}

func basicProfilePlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = "Rank"
	p.Y.Label.Text = "Relative energy (kJ/mol)"
	p.X.Min = 0
	p.Y.Min = 0
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	return p
}

//EnergyProfile plots the energies of each series, relative to the lowest
//energy among all of them, against their rank within the series, and saves
//the plot to filename. The format is taken from the file extension.
func EnergyProfile(title, filename string, series ...Series) error {
	base, ok := lowest(series)
	if !ok {
		return PlotError{"No finite energies to plot", []string{"EnergyProfile"}}
	}
	p := basicProfilePlot(title)
	for key, val := range series {
		pts := profilePoints(val, base)
		if len(pts) == 0 {
			continue
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return PlotError{err.Error(), []string{"plotter.NewScatter", "EnergyProfile"}}
		}
		col := seriesColor(key, len(series))
		s.GlyphStyle.Color = col
		s.GlyphStyle.Shape = shape(key)
		s.GlyphStyle.Radius = vg.Points(2.5)
		l, err := plotter.NewLine(pts)
		if err != nil {
			return PlotError{err.Error(), []string{"plotter.NewLine", "EnergyProfile"}}
		}
		l.LineStyle.Color = col
		l.LineStyle.Width = vg.Points(0.5)
		p.Add(l, s)
		p.Legend.Add(fmt.Sprintf("%s (%d)", val.Name, len(pts)), s)
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, filename); err != nil {
		return PlotError{err.Error(), []string{"plot.Save", "EnergyProfile"}}
	}
	return nil
}

func shape(key int) draw.GlyphDrawer {
	switch key % 4 {
	case 0:
		return draw.CircleGlyph{}
	case 1:
		return draw.TriangleGlyph{}
	case 2:
		return draw.BoxGlyph{}
	default:
		return draw.CrossGlyph{}
	}
}

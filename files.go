/*
 * files.go, part of confscan.
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

package chem

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	v3 "github.com/rmera/confscan/v3"
)

//zstdSuffix marks compressed XYZ streams.
const zstdSuffix = ".zst"

//Frame is one structure read from a multi-structure XYZ file.
type Frame struct {
	Top     *Topology
	Coords  *v3.Matrix
	Comment string
	Energy  float64 //first number found in the comment line, 0 if none.
}

//XYZReader reads, one by one, the frames of a (possibly zstd-compressed)
//multi-structure XYZ file. Each frame carries its own topology, so
//ensembles with different molecules can be read.
type XYZReader struct {
	r      *bufio.Reader
	closer func()
	name   string
	frame  int
}

//NewXYZReader returns a reader for the XYZ data in r. name is only used
//in error messages.
func NewXYZReader(r io.Reader, name string) *XYZReader {
	return &XYZReader{r: bufio.NewReader(r), name: name, closer: func() {}}
}

//XYZFileOpen opens the file name for reading. Files whose name ends
//in .zst are decompressed on the fly.
func XYZFileOpen(name string) (*XYZReader, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, CError{err.Error(), []string{"os.Open", "XYZFileOpen"}}
	}
	if !strings.HasSuffix(name, zstdSuffix) {
		X := NewXYZReader(f, name)
		X.closer = func() { f.Close() }
		return X, nil
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, CError{err.Error(), []string{"zstd.NewReader", "XYZFileOpen"}}
	}
	X := NewXYZReader(dec, name)
	X.closer = func() {
		dec.Close()
		f.Close()
	}
	return X, nil
}

//Close releases the underlying file, if any.
func (X *XYZReader) Close() {
	X.closer()
}

//Next returns the next frame, or io.EOF when no frames are left.
func (X *XYZReader) Next() (*Frame, error) {
	var line string
	var err error
	//skip blank lines between frames
	for {
		line, err = X.r.ReadString('\n')
		if strings.TrimSpace(line) != "" {
			break
		}
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, CError{fmt.Sprintf("Error reading XYZ file %s after frame %d: %s", X.name, X.frame, err.Error()), []string{"Next"}}
		}
	}
	natoms, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || natoms <= 0 {
		return nil, CError{fmt.Sprintf("Ill formatted XYZ file %s: bad atom count in frame %d", X.name, X.frame), []string{"Next"}}
	}
	comment, err := X.r.ReadString('\n')
	if err != nil && comment == "" {
		return nil, CError{fmt.Sprintf("Ill formatted XYZ file %s: truncated frame %d", X.name, X.frame), []string{"Next"}}
	}
	top := NewTopology(0, 1, make([]*Atom, natoms))
	coords := make([]float64, natoms*3)
	for i := 0; i < natoms; i++ {
		line, err = X.r.ReadString('\n')
		if err != nil && line == "" {
			return nil, CError{fmt.Sprintf("Ill formatted XYZ file %s: frame %d has less than %d atoms", X.name, X.frame, natoms), []string{"Next"}}
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, CError{fmt.Sprintf("Line number %d of frame %d in file %s ill formed", i, X.frame, X.name), []string{"Next"}}
		}
		at := &Atom{ID: i + 1, Index: i, Symbol: normalizeSymbol(fields[0])}
		at.Name = at.Symbol
		at.Mass = symbolMass[at.Symbol]
		top.Atoms[i] = at
		for j := 0; j < 3; j++ {
			coords[i*3+j], err = strconv.ParseFloat(fields[j+1], 64)
			if err != nil {
				return nil, CError{fmt.Sprintf("Bad coordinate in line %d of frame %d in file %s", i, X.frame, X.name), []string{"strconv.ParseFloat", "Next"}}
			}
		}
	}
	mcoords, err := v3.NewMatrix(coords)
	if err != nil {
		return nil, errDecorate(err, "Next")
	}
	X.frame++
	comment = strings.TrimSpace(comment)
	return &Frame{Top: top, Coords: mcoords, Comment: comment, Energy: energyFromComment(comment)}, nil
}

//energyFromComment returns the first number found in an XYZ comment line.
//Both "-40.12345" and "energy: -40.12345 gnorm: 0.0001" are understood.
func energyFromComment(comment string) float64 {
	for _, v := range strings.Fields(comment) {
		e, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return e
		}
	}
	return 0
}

//XYZ symbols are often written in uppercase ("CL").
func normalizeSymbol(s string) string {
	if len(s) < 2 {
		return strings.ToUpper(s)
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

//XYZFileRead reads all the frames of an XYZ file into a Molecule. All frames
//must contain the same atoms, in the same order.
func XYZFileRead(name string) (*Molecule, error) {
	X, err := XYZFileOpen(name)
	if err != nil {
		return nil, errDecorate(err, "XYZFileRead")
	}
	defer X.Close()
	var mol *Molecule
	for {
		f, err := X.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errDecorate(err, "XYZFileRead")
		}
		if mol == nil {
			mol = &Molecule{Topology: f.Top}
		} else if !SameComposition(mol, f.Top) {
			return nil, CError{fmt.Sprintf("Frame %d of %s doesn't match the first frame", mol.LenFrames(), name), []string{"XYZFileRead"}}
		}
		mol.AddFrame(f.Coords, f.Energy)
		mol.Names = append(mol.Names, f.Comment)
	}
	if mol == nil {
		return nil, CError{fmt.Sprintf("No structures in %s", name), []string{"XYZFileRead"}}
	}
	return mol, nil
}

//XYZStringWrite returns a string with one XYZ frame, with comment as the second line.
func XYZStringWrite(Coords *v3.Matrix, mol Atomer, comment string) (string, error) {
	if mol.Len() != Coords.NVecs() {
		return "", CError{fmt.Sprintf("Ill formed coordinates/topology: %d atoms, %d coordinates", mol.Len(), Coords.NVecs()), []string{"XYZStringWrite"}}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-4d\n", mol.Len())
	fmt.Fprintf(&b, "%s\n", strings.ReplaceAll(comment, "\n", " "))
	for i := 0; i < mol.Len(); i++ {
		fmt.Fprintf(&b, "%-2s  %12.6f%12.6f%12.6f \n", mol.Atom(i).Symbol, Coords.At(i, 0), Coords.At(i, 1), Coords.At(i, 2))
	}
	return b.String(), nil
}

//XYZWriter appends frames to an XYZ stream, compressing with zstd if the
//file name ends in .zst. It must be closed for a compressed stream to be valid.
type XYZWriter struct {
	f    *os.File
	w    io.Writer
	zw   *zstd.Encoder
	name string
}

//XYZFileCreate creates (truncating) the file name and returns a writer for it.
func XYZFileCreate(name string) (*XYZWriter, error) {
	f, err := os.Create(name)
	if err != nil {
		return nil, CError{err.Error(), []string{"os.Create", "XYZFileCreate"}}
	}
	W := &XYZWriter{f: f, w: f, name: name}
	if strings.HasSuffix(name, zstdSuffix) {
		W.zw, err = zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			f.Close()
			return nil, CError{err.Error(), []string{"zstd.NewWriter", "XYZFileCreate"}}
		}
		W.w = W.zw
	}
	return W, nil
}

//Name returns the name of the file written.
func (W *XYZWriter) Name() string {
	return W.name
}

//WNext writes one frame.
func (W *XYZWriter) WNext(Coords *v3.Matrix, mol Atomer, comment string) error {
	str, err := XYZStringWrite(Coords, mol, comment)
	if err != nil {
		return errDecorate(err, "WNext")
	}
	if _, err = io.WriteString(W.w, str); err != nil {
		return CError{err.Error(), []string{"WNext"}}
	}
	return nil
}

//Close flushes the stream and closes the file.
func (W *XYZWriter) Close() error {
	if W.zw != nil {
		if err := W.zw.Close(); err != nil {
			W.f.Close()
			return CError{err.Error(), []string{"Close"}}
		}
	}
	return W.f.Close()
}

//XYZFileWrite writes the frame Coords of mol to a new XYZ file with name xyzname.
func XYZFileWrite(xyzname string, Coords *v3.Matrix, mol Atomer) error {
	W, err := XYZFileCreate(xyzname)
	if err != nil {
		return errDecorate(err, "XYZFileWrite")
	}
	if err = W.WNext(Coords, mol, ""); err != nil {
		W.Close()
		return errDecorate(err, "XYZFileWrite")
	}
	return W.Close()
}

/*
 * doc.go, part of confscan.
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

/*Package chem is the base package of confscan. It provides atom and molecule structures, facilities for reading and writing
multi-structure XYZ files, and the geometric functions the conformer scanner needs.



	**Capabilities**


    Reads/writes multi-structure XYZ files, plain or zstd-compressed (.zst),
	either all at once or one structure at a time. The energy of each structure
	is taken from its comment line.

    Superimposes structures with the Kabsch algorithm. The user specify what
	atoms to use for the superimposing transformation calculation. Then all the
	atoms will be superimposed accordingly.

    Calculates RMSD between sets of coordinates.

    Calculates moment and inertia tensors, principal axes and rotational constants.

    Assigns bonds based on covalent radii.

confscan uses its own matrix type for coordinates, v3.Matrix, based on gonum.org/v1/gonum/mat.
Each row of a v3.Matrix represents one point in space.*/
package chem

/*
 * errors.go, part of confscan.
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

import "github.com/pkg/errors"

//ErrInput is the cause of every error that prevents a run from starting:
//unreadable or malformed input, wrong file names, bad options.
var ErrInput = errors.New("confscan: input error")

//ErrRestart is the cause of the (non-fatal) errors found while reading
//restart sources.
var ErrRestart = errors.New("confscan: unusable restart source")

//inputError wraps err so that errors.Cause returns ErrInput, keeping the
//original message.
func inputError(err error, format string, args ...interface{}) error {
	if err == nil {
		return errors.Wrapf(ErrInput, format, args...)
	}
	return errors.Wrapf(ErrInput, "%s: %v", errors.Errorf(format, args...).Error(), err)
}

//IsInput reports whether err was caused by bad input.
func IsInput(err error) bool {
	return errors.Cause(err) == ErrInput
}

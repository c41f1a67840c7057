/*
Copyright © 2022 the swmmtonetcdf authors.
This file is part of swmmtonetcdf.

swmmtonetcdf is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

swmmtonetcdf is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with swmmtonetcdf.  If not, see <http://www.gnu.org/licenses/>.
*/

package swmmutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cbuahin/swmmtonetcdf"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

// Errors returned when validating configuration.
var (
	ErrInputFile  = errors.New("swmmtonetcdf: input file does not exist")
	ErrOutputFile = errors.New("swmmtonetcdf: output directory does not exist")
	ErrProjection = errors.New("swmmtonetcdf: projection is empty")
)

// conversion holds the validated settings of the convert command.
type conversion struct {
	src, dst string
	opts     swmmtonetcdf.Options
}

// convertOptions reads and validates the settings of the convert command.
// Paths are checked before the source file is opened.
func convertOptions(cfg *viper.Viper) (*conversion, error) {
	src, err := checkInputFile(cast.ToString(cfg.Get("out")))
	if err != nil {
		return nil, err
	}
	dst, err := checkOutputFile(cast.ToString(cfg.Get("nc")))
	if err != nil {
		return nil, err
	}
	strategy, err := swmmtonetcdf.ParseStrategy(cast.ToString(cfg.Get("strategy")))
	if err != nil {
		return nil, err
	}
	flushEvery, err := cast.ToIntE(cfg.Get("flushevery"))
	if err != nil {
		return nil, fmt.Errorf("swmmtonetcdf: invalid flushevery: %v", err)
	}
	geom := cast.ToBool(cfg.Get("geom")) && !cast.ToBool(cfg.Get("no-geom"))
	prj, err := checkProjection(cast.ToString(cfg.Get("prj")))
	if err != nil {
		return nil, err
	}
	inp := cast.ToString(cfg.Get("inp"))
	if geom && inp != "" {
		if inp, err = checkInputFile(inp); err != nil {
			return nil, err
		}
	}
	logrus.WithFields(logrus.Fields{
		"geom": geom,
		"inp":  inp,
		"prj":  prj,
	}).Debug("geometry settings")

	return &conversion{
		src: src,
		dst: dst,
		opts: swmmtonetcdf.Options{
			Strategy:   strategy,
			FlushEvery: flushEvery,
			Geometry:   geom,
			Projection: prj,
			Log:        logrus.StandardLogger(),
		},
	}, nil
}

// checkInputFile makes sure that the file f is specified and exists.
func checkInputFile(f string) (string, error) {
	f = strings.TrimSpace(f)
	if f == "" {
		return "", fmt.Errorf("%w: no file specified", ErrInputFile)
	}
	fi, err := os.Stat(f)
	if err != nil {
		return f, fmt.Errorf("%w: %v", ErrInputFile, err)
	}
	if fi.IsDir() {
		return f, fmt.Errorf("%w: %s is a directory", ErrInputFile, f)
	}
	return f, nil
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists.
func checkOutputFile(f string) (string, error) {
	f = strings.TrimSpace(f)
	if f == "" {
		return "", fmt.Errorf("%w: no file specified", ErrOutputFile)
	}
	outdir := filepath.Dir(f)
	fi, err := os.Stat(outdir)
	if err != nil {
		return f, fmt.Errorf("%w: %v", ErrOutputFile, err)
	}
	if !fi.IsDir() {
		return f, fmt.Errorf("%w: %s is not a directory", ErrOutputFile, outdir)
	}
	return f, nil
}

func checkProjection(prj string) (string, error) {
	prj = strings.TrimSpace(prj)
	if prj == "" {
		return "", ErrProjection
	}
	return prj, nil
}

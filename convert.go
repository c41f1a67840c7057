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

// Package swmmtonetcdf converts SWMM 5 binary output files into NetCDF
// files holding one (element, attribute, time) array per element class.
package swmmtonetcdf

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cbuahin/swmmtonetcdf/swmmout"
	"github.com/sirupsen/logrus"
)

// Version is the version of this software.
const Version = "0.0.1"

// DefaultFlushEvery is the default number of periods between flushes when
// converting ByTimestep.
const DefaultFlushEvery = 5000

// Options control a conversion. The zero value converts BySeries and logs
// to the standard logger.
type Options struct {
	Strategy Strategy

	// FlushEvery is the number of periods between flushes of the destination
	// when converting ByTimestep.
	FlushEvery int

	// Progress, if not nil, receives the percentage of periods converted
	// ByTimestep.
	Progress io.Writer

	// Geometry requests export of element geometry in Projection. It is
	// accepted but not supported yet.
	Geometry   bool
	Projection string

	Log logrus.FieldLogger
}

func (o *Options) setDefaults() {
	if o.FlushEvery <= 0 {
		o.FlushEvery = DefaultFlushEvery
	}
	if o.Log == nil {
		o.Log = logrus.StandardLogger()
	}
}

// Convert converts the SWMM output file at srcPath into a NetCDF file at
// dstPath, overwriting any existing file.
//
// The destination is written to dstPath + ".part" and renamed to dstPath
// only once every value has been written, so dstPath never holds an
// incomplete conversion. If the conversion fails the partial file is
// removed; if the process dies the partial file holds whatever was last
// flushed.
func Convert(srcPath, dstPath string, opts Options) (err error) {
	opts.setDefaults()
	f, err := swmmout.Open(srcPath)
	if err != nil {
		return fmt.Errorf("swmmtonetcdf: opening source: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("swmmtonetcdf: closing source: %w", cerr)
		}
	}()
	size := f.ProjectSize()
	opts.Log.WithFields(logrus.Fields{
		"file":          srcPath,
		"subcatchments": size[swmmout.Subcatch],
		"nodes":         size[swmmout.Node],
		"links":         size[swmmout.Link],
		"pollutants":    size[swmmout.Pollutant],
		"periods":       f.Times(swmmout.NumPeriods),
		"step":          f.Times(swmmout.ReportStep),
	}).Info("opened SWMM output")
	return convert(f, filepath.Base(srcPath), dstPath, opts)
}

// convert writes the results of src to dst. name is recorded as the source
// of the output file.
func convert(src Source, name, dst string, opts Options) (err error) {
	start := time.Now()
	schema, err := BuildSchema(src)
	if err != nil {
		return err
	}
	axis, err := BuildTimeAxis(src)
	if err != nil {
		return err
	}
	opts.Log.WithFields(logrus.Fields{
		"node_attributes":      len(schema.Class(Node).Attributes),
		"link_attributes":      len(schema.Class(Link).Attributes),
		"catchment_attributes": len(schema.Class(Catchment).Attributes),
		"system_attributes":    len(schema.Class(System).Attributes),
		"first":                axis.Times[0],
		"last":                 axis.Times[axis.Len()-1],
	}).Info("built schema")
	if opts.Geometry {
		opts.Log.WithField("projection", opts.Projection).Debug("geometry export is not supported; skipping")
	}

	part := dst + ".part"
	var units []string
	for _, u := range src.PollutantUnits() {
		units = append(units, u.String())
	}
	sink, err := CreateNetCDF(part, schema, axis, Metadata{
		Source:         name,
		SWMMVersion:    src.Version(),
		FlowUnits:      src.FlowUnits().String(),
		UnitSystem:     src.FlowUnits().UnitSystem(),
		PollutantUnits: units,
	})
	if err != nil {
		os.Remove(part)
		return err
	}
	opts.Log.WithField("file", part).Info("created destination")

	defer func() {
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err == nil {
			if err = os.Rename(part, dst); err != nil {
				err = fmt.Errorf("swmmtonetcdf: finalizing destination: %v", err)
			}
		}
		if err != nil {
			os.Remove(part)
			opts.Log.WithFields(logrus.Fields{
				"file":  part,
				"error": err,
			}).Warn("removed partial destination")
			return
		}
		opts.Log.WithFields(logrus.Fields{
			"file":     dst,
			"strategy": opts.Strategy,
			"elapsed":  time.Since(start),
		}).Info("conversion complete")
	}()

	return Populate(sink, src, schema, opts)
}

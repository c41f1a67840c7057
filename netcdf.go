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

package swmmtonetcdf

import (
	"fmt"
	"os"
	"strings"

	"github.com/ctessum/cdf"
)

// Metadata holds the global attributes of an output file.
type Metadata struct {
	// Source is the name of the converted SWMM output file.
	Source string

	SWMMVersion int
	FlowUnits   string
	UnitSystem  string

	// PollutantUnits holds the concentration units of each pollutant, in
	// source order.
	PollutantUnits []string
}

// NetCDFSink writes results to a NetCDF classic file.
type NetCDFSink struct {
	ff *os.File
	f  *cdf.File
	n  int // periods
}

// CreateNetCDF creates (or truncates) the file at path, writes the header
// laid out by s and a, and fills in the time coordinate and every name
// variable. Numeric results are written afterwards through the Sink methods.
//
// The time dimension has a fixed length of a.Len() rather than being the
// unlimited dimension: NetCDF classic only allows the unlimited dimension
// as the outermost dimension of a variable, and time is innermost here.
//
// Classes with no elements have their element dimension, element names and
// results omitted, because NetCDF classic also reads a zero-length dimension
// as the unlimited one. The global attribute "omitted_classes" lists them,
// separated by spaces. Likewise the pollutants dimension and its
// "pollutants" and "pollutant_units" variables only exist when the source
// has pollutants.
func CreateNetCDF(path string, s *Schema, a *TimeAxis, meta Metadata) (*NetCDFSink, error) {
	if len(meta.PollutantUnits) != len(s.Pollutants) {
		return nil, fmt.Errorf("%w: %d pollutant units for %d pollutants",
			ErrSchemaMismatch, len(meta.PollutantUnits), len(s.Pollutants))
	}
	h, names := netcdfHeader(s, a, meta)
	if errs := h.Check(); len(errs) > 0 {
		return nil, fmt.Errorf("swmmtonetcdf: creating netcdf header: %v", errs[0])
	}

	ff, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("swmmtonetcdf: creating netcdf file: %v", err)
	}
	f, err := cdf.Create(ff, h) // writes the header to ff
	if err != nil {
		ff.Close()
		return nil, fmt.Errorf("swmmtonetcdf: writing netcdf header: %v", err)
	}
	sink := &NetCDFSink{ff: ff, f: f, n: a.Len()}

	w := f.Writer("time", []int{0}, f.Header.Lengths("time"))
	if _, err := w.Write(a.Hours); err != nil {
		ff.Close()
		return nil, fmt.Errorf("swmmtonetcdf: writing time: %v", err)
	}
	for _, v := range names {
		if err := sink.writeStrings(v.name, v.values); err != nil {
			ff.Close()
			return nil, err
		}
	}
	return sink, nil
}

type stringVar struct {
	name   string
	values []string
}

// netcdfHeader builds the file header and returns it along with the
// contents of the character variables it declares.
func netcdfHeader(s *Schema, a *TimeAxis, meta Metadata) (*cdf.Header, []stringVar) {
	dims := []string{"time"}
	lengths := []int{a.Len()}
	var names []stringVar
	addStrings := func(name string, values []string) {
		names = append(names, stringVar{name: name, values: values})
		dims = append(dims, name+"_strlen")
		lengths = append(lengths, maxLen(values))
	}
	var omitted []string
	for _, c := range Classes {
		cs := s.Class(c)
		switch {
		case c == System:
		case len(cs.Elements) > 0:
			dims = append(dims, c.Dimension())
			lengths = append(lengths, len(cs.Elements))
		default:
			omitted = append(omitted, c.String())
		}
		dims = append(dims, c.AttributeDimension())
		lengths = append(lengths, len(cs.Attributes))
	}
	if len(s.Pollutants) > 0 {
		dims = append(dims, "pollutants")
		lengths = append(lengths, len(s.Pollutants))
	}
	for _, c := range Classes {
		cs := s.Class(c)
		if c != System && len(cs.Elements) > 0 {
			addStrings(c.Dimension(), cs.Elements)
		}
	}
	for _, c := range Classes {
		addStrings(c.AttributeVariable(), s.Class(c).Attributes)
	}
	if len(s.Pollutants) > 0 {
		addStrings("pollutants", s.Pollutants)
		addStrings("pollutant_units", meta.PollutantUnits)
	}

	h := cdf.NewHeader(dims, lengths)
	h.AddAttribute("", "title", "SWMM simulation results")
	h.AddAttribute("", "Conventions", "CF-1.6")
	h.AddAttribute("", "source", meta.Source)
	h.AddAttribute("", "history", "converted from SWMM binary output by swmmtonetcdf v"+Version)
	h.AddAttribute("", "swmm_version", []int32{int32(meta.SWMMVersion)})
	h.AddAttribute("", "flow_units", meta.FlowUnits)
	h.AddAttribute("", "unit_system", meta.UnitSystem)
	h.AddAttribute("", "report_step_seconds", []int32{int32(a.Step.Seconds())})
	if len(omitted) > 0 {
		h.AddAttribute("", "omitted_classes", strings.Join(omitted, " "))
	}

	h.AddVariable("time", []string{"time"}, []float64{0})
	h.AddAttribute("time", "long_name", "time")
	h.AddAttribute("time", "standard_name", "time")
	h.AddAttribute("time", "units", TimeUnits)
	h.AddAttribute("time", "calendar", TimeCalendar)

	for _, c := range Classes {
		cs := s.Class(c)
		if c != System && len(cs.Elements) > 0 {
			h.AddVariable(c.Dimension(), []string{c.Dimension(), c.Dimension() + "_strlen"}, "")
			h.AddAttribute(c.Dimension(), "long_name", fmt.Sprintf("%s names", c))
		}
		v := c.AttributeVariable()
		h.AddVariable(v, []string{c.AttributeDimension(), v + "_strlen"}, "")
		h.AddAttribute(v, "long_name", fmt.Sprintf("%s attribute names", c))
	}
	if len(s.Pollutants) > 0 {
		h.AddVariable("pollutants", []string{"pollutants", "pollutants_strlen"}, "")
		h.AddAttribute("pollutants", "long_name", "pollutant names")
		h.AddVariable("pollutant_units", []string{"pollutants", "pollutant_units_strlen"}, "")
		h.AddAttribute("pollutant_units", "long_name", "pollutant concentration units")
	}
	for _, c := range Classes {
		cs := s.Class(c)
		v := c.DataVariable()
		switch {
		case c == System:
			h.AddVariable(v, []string{c.AttributeDimension(), "time"}, []float64{0})
		case len(cs.Elements) > 0:
			h.AddVariable(v, []string{c.Dimension(), c.AttributeDimension(), "time"}, []float64{0})
		default:
			continue
		}
		h.AddAttribute(v, "long_name", fmt.Sprintf("%s results", c))
	}
	h.Define()
	return h, names
}

func maxLen(values []string) int {
	n := 1
	for _, v := range values {
		if len(v) > n {
			n = len(v)
		}
	}
	return n
}

// writeStrings writes values into the character variable v, padding each
// one with NULs to the variable's string length.
func (s *NetCDFSink) writeStrings(v string, values []string) error {
	lengths := s.f.Header.Lengths(v)
	width := lengths[1]
	var b strings.Builder
	for _, val := range values {
		b.WriteString(val)
		b.WriteString(strings.Repeat("\x00", width-len(val)))
	}
	w := s.f.Writer(v, []int{0, 0}, lengths)
	if _, err := w.Write(b.String()); err != nil {
		return fmt.Errorf("swmmtonetcdf: writing %s: %v", v, err)
	}
	return nil
}

// WriteSeries implements Sink. Writer end indices are one past the last
// value in the innermost dimension.
func (s *NetCDFSink) WriteSeries(c ElementClass, element, attribute int, values []float32) error {
	if len(values) != s.n {
		return fmt.Errorf("%w: %v series has %d periods, want %d", ErrSchemaMismatch, c, len(values), s.n)
	}
	var begin, end []int
	if c == System {
		begin, end = []int{attribute, 0}, []int{attribute, s.n}
	} else {
		begin, end = []int{element, attribute, 0}, []int{element, attribute, s.n}
	}
	w := s.f.Writer(c.DataVariable(), begin, end)
	if w == nil {
		return fmt.Errorf("swmmtonetcdf: no %s variable", c.DataVariable())
	}
	if _, err := w.Write(toFloat64(values)); err != nil {
		return fmt.Errorf("swmmtonetcdf: writing %s[%d, %d]: %v", c.DataVariable(), element, attribute, err)
	}
	return nil
}

// WriteSnapshot implements Sink. The attributes of one period are not
// contiguous in the file, so they are written one value at a time.
func (s *NetCDFSink) WriteSnapshot(c ElementClass, element, period int, values []float32) error {
	v := c.DataVariable()
	for a, val := range values {
		begin := []int{element, a, period}
		end := []int{element, a, period + 1}
		if c == System {
			begin, end = begin[1:], end[1:]
		}
		w := s.f.Writer(v, begin, end)
		if w == nil {
			return fmt.Errorf("swmmtonetcdf: no %s variable", v)
		}
		if _, err := w.Write([]float64{float64(val)}); err != nil {
			return fmt.Errorf("swmmtonetcdf: writing %s[%d, %d, %d]: %v", v, element, a, period, err)
		}
	}
	return nil
}

// Flush implements Sink by committing the file to stable storage.
func (s *NetCDFSink) Flush() error {
	if err := s.ff.Sync(); err != nil {
		return fmt.Errorf("swmmtonetcdf: flushing netcdf file: %v", err)
	}
	return nil
}

// Close implements Sink.
func (s *NetCDFSink) Close() error {
	if s.ff == nil {
		return nil
	}
	ff := s.ff
	s.ff = nil
	if err := cdf.UpdateNumRecs(ff); err != nil {
		ff.Close()
		return fmt.Errorf("swmmtonetcdf: finalizing netcdf file: %v", err)
	}
	if err := ff.Close(); err != nil {
		return fmt.Errorf("swmmtonetcdf: closing netcdf file: %v", err)
	}
	return nil
}

func toFloat64(values []float32) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

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
	"strings"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// Summary describes the contents of a converted file.
type Summary struct {
	Title       string `toml:"title"`
	Source      string `toml:"source"`
	SWMMVersion int    `toml:"swmm_version"`
	FlowUnits   string `toml:"flow_units"`

	// OmittedClasses lists the classes written without elements or results
	// because the source has none of them.
	OmittedClasses []string `toml:"omitted_classes"`

	// PollutantUnits maps pollutant names to concentration units.
	PollutantUnits map[string]string `toml:"pollutant_units"`

	Dimensions map[string]int      `toml:"dimensions"`
	Elements   map[string][]string `toml:"elements"`
	Attributes map[string][]string `toml:"attributes"`

	// FirstHour and LastHour are the first and last times, in TimeUnits.
	FirstHour float64 `toml:"first_hour"`
	LastHour  float64 `toml:"last_hour"`

	Variables map[string]VariableSummary `toml:"variables"`
}

// VariableSummary holds statistics of one results variable.
type VariableSummary struct {
	Shape []int   `toml:"shape"`
	Min   float64 `toml:"min"`
	Max   float64 `toml:"max"`
	Sum   float64 `toml:"sum"`
}

// dimensioner is implemented by groups read from NetCDF classic files.
type dimensioner interface {
	ListDimensions() []string
	GetDimension(name string) (uint64, bool)
}

// Inspect reads the converted file at path and summarizes it.
func Inspect(path string) (*Summary, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("swmmtonetcdf: opening %s: %v", path, err)
	}
	defer nc.Close()

	s := &Summary{
		Dimensions: make(map[string]int),
		Elements:       make(map[string][]string),
		Attributes:     make(map[string][]string),
		Variables:      make(map[string]VariableSummary),
		PollutantUnits: make(map[string]string),
	}
	attrs := nc.Attributes()
	if v, ok := attrs.Get("title"); ok {
		s.Title = fmt.Sprint(v)
	}
	if v, ok := attrs.Get("source"); ok {
		s.Source = fmt.Sprint(v)
	}
	if v, ok := attrs.Get("flow_units"); ok {
		s.FlowUnits = fmt.Sprint(v)
	}
	if v, ok := attrs.Get("omitted_classes"); ok {
		s.OmittedClasses = strings.Fields(fmt.Sprint(v))
	}
	if v, ok := attrs.Get("swmm_version"); ok {
		if i, ok := v.(int32); ok {
			s.SWMMVersion = int(i)
		}
	}
	if d, ok := nc.(dimensioner); ok {
		for _, name := range d.ListDimensions() {
			n, _ := d.GetDimension(name)
			s.Dimensions[name] = int(n)
		}
	}

	hours, err := readFloats(nc, "time")
	if err != nil {
		return nil, err
	}
	if len(hours) > 0 {
		s.FirstHour = hours[0]
		s.LastHour = hours[len(hours)-1]
	}

	for _, c := range Classes {
		names, err := readStrings(nc, c.AttributeVariable())
		if err != nil {
			return nil, err
		}
		s.Attributes[c.String()] = names
		if c == System {
			continue
		}
		if !hasVariable(nc, c.Dimension()) {
			continue
		}
		if s.Elements[c.String()], err = readStrings(nc, c.Dimension()); err != nil {
			return nil, err
		}
	}

	if hasVariable(nc, "pollutants") {
		names, err := readStrings(nc, "pollutants")
		if err != nil {
			return nil, err
		}
		units, err := readStrings(nc, "pollutant_units")
		if err != nil {
			return nil, err
		}
		if len(units) != len(names) {
			return nil, fmt.Errorf("swmmtonetcdf: %d pollutant units for %d pollutants", len(units), len(names))
		}
		for i, name := range names {
			s.PollutantUnits[name] = units[i]
		}
	}

	for _, c := range Classes {
		v := c.DataVariable()
		if !hasVariable(nc, v) {
			continue
		}
		cube, err := readCube(nc, v)
		if err != nil {
			return nil, err
		}
		s.Variables[v] = VariableSummary{
			Shape: cube.Shape,
			Min:   floats.Min(cube.Elements),
			Max:   floats.Max(cube.Elements),
			Sum:   floats.Sum(cube.Elements),
		}
	}
	return s, nil
}

// ReadCube reads the named numeric variable of the NetCDF file at path.
func ReadCube(path, variable string) (*sparse.DenseArray, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("swmmtonetcdf: opening %s: %v", path, err)
	}
	defer nc.Close()
	return readCube(nc, variable)
}

func hasVariable(nc api.Group, name string) bool {
	for _, v := range nc.ListVariables() {
		if v == name {
			return true
		}
	}
	return false
}

func readCube(nc api.Group, name string) (*sparse.DenseArray, error) {
	v, err := nc.GetVariable(name)
	if err != nil {
		return nil, fmt.Errorf("swmmtonetcdf: reading %s: %v", name, err)
	}
	var shape []int
	var data []float64
	switch vals := v.Values.(type) {
	case []float64:
		shape = []int{len(vals)}
		data = vals
	case [][]float64:
		shape = []int{len(vals), 0}
		for _, row := range vals {
			shape[1] = len(row)
			data = append(data, row...)
		}
	case [][][]float64:
		shape = []int{len(vals), 0, 0}
		for _, plane := range vals {
			shape[1] = len(plane)
			for _, row := range plane {
				shape[2] = len(row)
				data = append(data, row...)
			}
		}
	default:
		return nil, fmt.Errorf("swmmtonetcdf: %s has unsupported type %T", name, v.Values)
	}
	cube := sparse.ZerosDense(shape...)
	if len(data) != len(cube.Elements) {
		return nil, fmt.Errorf("swmmtonetcdf: %s is ragged", name)
	}
	copy(cube.Elements, data)
	return cube, nil
}

func readFloats(nc api.Group, name string) ([]float64, error) {
	v, err := nc.GetVariable(name)
	if err != nil {
		return nil, fmt.Errorf("swmmtonetcdf: reading %s: %v", name, err)
	}
	switch vals := v.Values.(type) {
	case []float64:
		return vals, nil
	case float64:
		return []float64{vals}, nil
	}
	return nil, fmt.Errorf("swmmtonetcdf: %s has unsupported type %T", name, v.Values)
}

// readStrings reads a character variable, one string per row, with the NUL
// padding removed.
func readStrings(nc api.Group, name string) ([]string, error) {
	v, err := nc.GetVariable(name)
	if err != nil {
		return nil, fmt.Errorf("swmmtonetcdf: reading %s: %v", name, err)
	}
	var rows []string
	switch vals := v.Values.(type) {
	case []string:
		rows = vals
	case string:
		rows = []string{vals}
	default:
		return nil, fmt.Errorf("swmmtonetcdf: %s has unsupported type %T", name, v.Values)
	}
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = strings.TrimRight(r, "\x00")
	}
	return out, nil
}

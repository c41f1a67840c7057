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

// Package swmmouttest writes small synthetic SWMM 5 output files for tests.
package swmmouttest

import (
	"bytes"
	"encoding/binary"
	"io/ioutil"

	"github.com/cbuahin/swmmtonetcdf/swmmout"
)

// Project describes the contents of a synthetic output file.
type Project struct {
	Version   int32
	FlowUnits swmmout.FlowUnits

	Subcatchments, Nodes, Links, Pollutants []string

	// PollutantUnits holds one unit per pollutant. Nil means MgPerL for all.
	PollutantUnits []swmmout.PollutantUnits

	// SystemVars is the number of system values written per period.
	// SWMM 5.1 writes 15; zero means 15.
	SystemVars int

	// StartDate is in SWMM day numbers; ReportStep is in seconds.
	StartDate  float64
	ReportStep int32
	Periods    int

	// ErrorCode is written to the closing record.
	ErrorCode int32

	// Value returns the value written for an attribute of an object in a
	// period. Nil means Value.
	Value func(t swmmout.ElementType, period, index, attr int) float32
}

// Value is the default value generator. Every (type, period, index, attr)
// combination gets a distinct value that is exact in float32.
func Value(t swmmout.ElementType, period, index, attr int) float32 {
	return float32(int(t)*1000000+period*1000+index*32+attr) / 4
}

// Simple returns a project with the given numbers of subcatchments,
// nodes, links and pollutants.
func Simple(subcatchments, nodes, links, pollutants, periods int) Project {
	p := Project{
		Version:    51015,
		FlowUnits:  swmmout.CMS,
		StartDate:  43101, // 2018-01-01
		ReportStep: 3600,
		Periods:    periods,
	}
	p.Subcatchments = names("S", subcatchments)
	p.Nodes = names("J", nodes)
	p.Links = names("C", links)
	p.Pollutants = names("P", pollutants)
	return p
}

func names(prefix string, n int) []string {
	s := make([]string, n)
	for i := range s {
		s[i] = prefix + string(rune('1'+i%9)) + string(rune('a'+i/9))
	}
	return s
}

// Vars returns the number of values written per object of type t.
func (p Project) Vars(t swmmout.ElementType) int {
	np := len(p.Pollutants)
	switch t {
	case swmmout.Subcatch:
		return 8 + np
	case swmmout.Node:
		return 6 + np
	case swmmout.Link:
		return 5 + np
	case swmmout.System:
		if p.SystemVars == 0 {
			return 15
		}
		return p.SystemVars
	}
	return 0
}

// Bytes encodes the project as an output file.
func (p Project) Bytes() []byte {
	value := p.Value
	if value == nil {
		value = Value
	}
	var b bytes.Buffer
	w := func(v interface{}) { binary.Write(&b, binary.LittleEndian, v) }

	w([]int32{swmmout.Magic, p.Version, int32(p.FlowUnits),
		int32(len(p.Subcatchments)), int32(len(p.Nodes)), int32(len(p.Links)), int32(len(p.Pollutants))})

	idPos := int32(b.Len())
	for _, group := range [][]string{p.Subcatchments, p.Nodes, p.Links, p.Pollutants} {
		for _, id := range group {
			w(int32(len(id)))
			b.WriteString(id)
		}
	}
	units := make([]int32, len(p.Pollutants))
	for i := range units {
		if i < len(p.PollutantUnits) {
			units[i] = int32(p.PollutantUnits[i])
		}
	}
	w(units)

	propPos := int32(b.Len())
	props := []struct {
		codes []int32
		n     int
	}{
		{[]int32{1}, len(p.Subcatchments)},
		{[]int32{0, 2, 3}, len(p.Nodes)},
		{[]int32{0, 4, 4, 3, 5}, len(p.Links)},
	}
	for _, pr := range props {
		w(int32(len(pr.codes)))
		w(pr.codes)
		w(make([]float32, len(pr.codes)*pr.n))
	}
	types := []swmmout.ElementType{swmmout.Subcatch, swmmout.Node, swmmout.Link, swmmout.System}
	for _, t := range types {
		n := p.Vars(t)
		w(int32(n))
		codes := make([]int32, n)
		for i := range codes {
			codes[i] = int32(i)
		}
		w(codes)
	}
	w(p.StartDate)
	w(p.ReportStep)

	resultsPos := int32(b.Len())
	counts := []int{len(p.Subcatchments), len(p.Nodes), len(p.Links), 1}
	for period := 0; period < p.Periods; period++ {
		w(p.StartDate + float64(period+1)*float64(p.ReportStep)/86400)
		for i, t := range types {
			for j := 0; j < counts[i]; j++ {
				for a := 0; a < p.Vars(t); a++ {
					w(value(t, period, j, a))
				}
			}
		}
	}

	w([]int32{idPos, propPos, resultsPos, int32(p.Periods), p.ErrorCode, swmmout.Magic})
	return b.Bytes()
}

// Write writes the project to path as an output file.
func (p Project) Write(path string) error {
	return ioutil.WriteFile(path, p.Bytes(), 0644)
}

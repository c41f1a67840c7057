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
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/cbuahin/swmmtonetcdf/swmmout"
	"github.com/cbuahin/swmmtonetcdf/swmmout/swmmouttest"
	"github.com/kr/pretty"
)

// openProject writes p to a temporary file and opens it.
func openProject(t *testing.T, p swmmouttest.Project) *swmmout.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.out")
	if err := p.Write(path); err != nil {
		t.Fatal(err)
	}
	f, err := swmmout.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

// failingSource wraps a Source and injects faults.
type failingSource struct {
	Source

	// failAfter, if positive, is the number of successful reads before
	// every read fails.
	failAfter int
	reads     int

	// varCount overrides VarCount for the given types.
	varCount map[swmmout.ElementType]int

	// short drops this many values from every Result.
	short int
}

var errInjected = errors.New("injected read failure")

func (s *failingSource) read() error {
	s.reads++
	if s.failAfter > 0 && s.reads > s.failAfter {
		return errInjected
	}
	return nil
}

func (s *failingSource) VarCount(t swmmout.ElementType) int {
	if n, ok := s.varCount[t]; ok {
		return n
	}
	return s.Source.VarCount(t)
}

func (s *failingSource) Series(t swmmout.ElementType, index, attr, start, end int) ([]float32, error) {
	if err := s.read(); err != nil {
		return nil, err
	}
	return s.Source.Series(t, index, attr, start, end)
}

func (s *failingSource) Result(t swmmout.ElementType, period, index int) ([]float32, error) {
	if err := s.read(); err != nil {
		return nil, err
	}
	v, err := s.Source.Result(t, period, index)
	if err != nil {
		return nil, err
	}
	return v[:len(v)-s.short], nil
}

func TestBuildSchema(t *testing.T) {
	f := openProject(t, swmmouttest.Simple(1, 3, 2, 0, 10))
	s, err := BuildSchema(f)
	if err != nil {
		t.Fatal(err)
	}

	nodes := s.Class(Node)
	if want := []string{"J1a", "J2a", "J3a"}; !reflect.DeepEqual(nodes.Elements, want) {
		t.Errorf("node names: %v", pretty.Diff(nodes.Elements, want))
	}
	if nodes.Index["J3a"] != 2 {
		t.Errorf("J3a index: %d", nodes.Index["J3a"])
	}
	want := []string{"INVERT_DEPTH", "HYDRAULIC_HEAD", "PONDED_VOLUME",
		"LATERAL_INFLOW", "TOTAL_INFLOW", "FLOODING_LOSSES"}
	if !reflect.DeepEqual(nodes.Attributes, want) {
		t.Errorf("node attributes: %v", pretty.Diff(nodes.Attributes, want))
	}
	if nodes.Fixed != 6 || nodes.Len() != 3 {
		t.Errorf("node fixed %d, len %d", nodes.Fixed, nodes.Len())
	}
	for _, tt := range []struct {
		c          ElementClass
		elements   int
		attributes int
	}{
		{Link, 2, 5},
		{Catchment, 1, 8},
		{System, 1, 14},
	} {
		cs := s.Class(tt.c)
		if cs.Len() != tt.elements || len(cs.Attributes) != tt.attributes {
			t.Errorf("%v: %d elements, %d attributes; want %d, %d",
				tt.c, cs.Len(), len(cs.Attributes), tt.elements, tt.attributes)
		}
	}
	if len(s.Class(System).Elements) != 0 {
		t.Errorf("system has named elements: %v", s.Class(System).Elements)
	}
}

func TestBuildSchemaPollutants(t *testing.T) {
	f := openProject(t, swmmouttest.Simple(1, 3, 2, 2, 10))
	s, err := BuildSchema(f)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"P1a", "P2a"}; !reflect.DeepEqual(s.Pollutants, want) {
		t.Errorf("pollutants: %v", pretty.Diff(s.Pollutants, want))
	}
	for _, c := range []ElementClass{Node, Link, Catchment} {
		cs := s.Class(c)
		if len(cs.Attributes) != cs.Fixed+2 {
			t.Errorf("%v: %d attributes, want %d", c, len(cs.Attributes), cs.Fixed+2)
		}
		if got := cs.Attributes[cs.Fixed:]; !reflect.DeepEqual(got, s.Pollutants) {
			t.Errorf("%v pollutant attributes: %v", c, got)
		}
	}
	if n := len(s.Class(System).Attributes); n != 14 {
		t.Errorf("system attributes: %d", n)
	}

	a, err := s.PollutantAttribute("P2a")
	if err != nil {
		t.Fatal(err)
	}
	if a != "POLLUT_CONC_1" {
		t.Errorf("pollutant attribute: %s", a)
	}
	if _, err := s.PollutantAttribute("TSS"); !errors.Is(err, ErrPollutantNotFound) {
		t.Errorf("missing pollutant: %v", err)
	}

	for _, tt := range []struct {
		c    ElementClass
		name string
		want int
	}{
		{Node, "TOTAL_INFLOW", int(swmmout.NodeTotalInflow)},
		{Node, "P2a", int(swmmout.NodePollutConc0) + 1},
		{Link, "P1a", int(swmmout.LinkPollutConc0)},
		{Catchment, "SOIL_MOISTURE", int(swmmout.SubcatchSoilMoisture)},
		{System, "EVAP_RATE", int(swmmout.SysEvapRate)},
	} {
		code, err := s.AttributeIndex(tt.c, tt.name)
		if err != nil {
			t.Fatal(err)
		}
		if code != tt.want {
			t.Errorf("%v %s: code %d, want %d", tt.c, tt.name, code, tt.want)
		}
	}
	if _, err := s.AttributeIndex(System, "P1a"); err == nil {
		t.Error("system has no pollutant attributes")
	}
	for i := range s.Class(Link).Attributes {
		code, err := s.AttributeCode(Link, i)
		if err != nil {
			t.Fatal(err)
		}
		if code != i {
			t.Errorf("link attribute %d has code %d", i, code)
		}
	}
}

func TestBuildSchemaStable(t *testing.T) {
	f := openProject(t, swmmouttest.Simple(2, 4, 3, 2, 3))
	s1, err := BuildSchema(f)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := BuildSchema(f)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(s1, s2) {
		t.Errorf("schemas differ: %v", pretty.Diff(s1, s2))
	}
}

func TestBuildSchemaMismatch(t *testing.T) {
	f := openProject(t, swmmouttest.Simple(1, 2, 1, 2, 3))
	src := &failingSource{Source: f, varCount: map[swmmout.ElementType]int{swmmout.Node: 7}}
	if _, err := BuildSchema(src); !errors.Is(err, ErrSchemaMismatch) {
		t.Errorf("short node values: %v", err)
	}

	// Extra values are allowed and truncated later.
	src.varCount = map[swmmout.ElementType]int{swmmout.Node: 12}
	if _, err := BuildSchema(src); err != nil {
		t.Errorf("long node values: %v", err)
	}
}

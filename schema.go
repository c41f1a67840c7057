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
	"fmt"

	"github.com/cbuahin/swmmtonetcdf/swmmout"
)

// Errors returned while building a schema.
var (
	ErrPollutantNotFound = errors.New("swmmtonetcdf: pollutant not found")
	ErrSchemaMismatch    = errors.New("swmmtonetcdf: source reports fewer values than the schema requires")
)

// ElementClass is one of the groups of results written to the output file.
type ElementClass int

// Element classes, in output order.
const (
	Node ElementClass = iota
	Link
	Catchment
	System
)

// Classes lists every ElementClass in output order.
var Classes = []ElementClass{Node, Link, Catchment, System}

// classTable describes how an ElementClass is read from the source and
// named in the output file.
type classTable struct {
	element    swmmout.ElementType
	name       string // singular prefix, e.g. "node"
	dim        string // element dimension and element-name variable
	fixed      []string
	pollutants bool
}

var classTables = [...]classTable{
	Node: {
		element:    swmmout.Node,
		name:       "node",
		dim:        "nodes",
		fixed:      swmmout.FixedAttributes(swmmout.Node),
		pollutants: swmmout.HasPollutants(swmmout.Node),
	},
	Link: {
		element:    swmmout.Link,
		name:       "link",
		dim:        "links",
		fixed:      swmmout.FixedAttributes(swmmout.Link),
		pollutants: swmmout.HasPollutants(swmmout.Link),
	},
	Catchment: {
		element:    swmmout.Subcatch,
		name:       "catchment",
		dim:        "catchments",
		fixed:      swmmout.FixedAttributes(swmmout.Subcatch),
		pollutants: swmmout.HasPollutants(swmmout.Subcatch),
	},
	System: {
		element: swmmout.System,
		name:    "system",
		fixed:   swmmout.FixedAttributes(swmmout.System),
	},
}

func (c ElementClass) String() string {
	if c < Node || c > System {
		return fmt.Sprintf("ElementClass(%d)", int(c))
	}
	return classTables[c].name
}

// ElementType returns the source element type the class is read from.
func (c ElementClass) ElementType() swmmout.ElementType { return classTables[c].element }

// Dimension returns the name of the element dimension, which is also the
// name of the element-name variable. System has none.
func (c ElementClass) Dimension() string { return classTables[c].dim }

// AttributeDimension returns the name of the attribute dimension.
func (c ElementClass) AttributeDimension() string { return classTables[c].name + "_attributes" }

// AttributeVariable returns the name of the attribute-name variable.
func (c ElementClass) AttributeVariable() string { return classTables[c].name + "_attribute_names" }

// DataVariable returns the name of the numeric results variable.
func (c ElementClass) DataVariable() string { return classTables[c].name + "_timeseries" }

// Source is the read interface of an open SWMM output file.
// *swmmout.File implements it.
type Source interface {
	ProjectSize() []int
	ElementName(t swmmout.ElementType, i int) (string, error)
	Times(t swmmout.Time) int
	StartDate() float64
	VarCount(t swmmout.ElementType) int
	Version() int
	FlowUnits() swmmout.FlowUnits
	PollutantUnits() []swmmout.PollutantUnits

	// Series returns one attribute of one object over the periods [start, end).
	Series(t swmmout.ElementType, index, attr, start, end int) ([]float32, error)

	// Result returns all attributes of one object for one period.
	Result(t swmmout.ElementType, period, index int) ([]float32, error)
}

// ClassSchema holds the element and attribute names of one ElementClass.
type ClassSchema struct {
	Class ElementClass

	// Elements holds element names in source index order. It is empty for
	// System, which has a single implicit element.
	Elements []string

	// Index maps element names to their source index.
	Index map[string]int

	// Attributes holds the attribute names in the order their values are
	// written: the fixed attributes followed by the pollutant names.
	Attributes []string

	// Fixed is the number of leading attributes that do not depend on the
	// pollutants.
	Fixed int
}

// Len returns the number of elements in the class. System counts as one.
func (cs *ClassSchema) Len() int {
	if cs.Class == System {
		return 1
	}
	return len(cs.Elements)
}

// Schema is the layout of the output file.
type Schema struct {
	// Pollutants holds pollutant names in source order.
	Pollutants []string

	pollutantIndex map[string]int
	classes        [System + 1]ClassSchema
}

// BuildSchema reads the element and pollutant names from src and derives the
// attribute list of every class. It fails with ErrSchemaMismatch if src
// reports fewer values per object than a class has attributes.
func BuildSchema(src Source) (*Schema, error) {
	s := new(Schema)
	var err error
	s.Pollutants, s.pollutantIndex, err = elementNames(src, swmmout.Pollutant)
	if err != nil {
		return nil, err
	}
	for _, c := range Classes {
		t := classTables[c]
		cs := ClassSchema{Class: c}
		if c != System {
			cs.Elements, cs.Index, err = elementNames(src, t.element)
			if err != nil {
				return nil, err
			}
		}
		cs.Attributes = append(cs.Attributes, t.fixed...)
		cs.Fixed = len(t.fixed)
		if t.pollutants {
			cs.Attributes = append(cs.Attributes, s.Pollutants...)
		}
		if n := src.VarCount(t.element); n < len(cs.Attributes) {
			return nil, fmt.Errorf("%w: %v has %d values, want %d", ErrSchemaMismatch, c, n, len(cs.Attributes))
		}
		s.classes[c] = cs
	}
	return s, nil
}

// elementNames returns the names of the objects of type t in index order,
// along with a map from name to index.
func elementNames(src Source, t swmmout.ElementType) ([]string, map[string]int, error) {
	count := src.ProjectSize()[t]
	names := make([]string, count)
	index := make(map[string]int, count)
	for i := 0; i < count; i++ {
		name, err := src.ElementName(t, i)
		if err != nil {
			return nil, nil, fmt.Errorf("swmmtonetcdf: reading %v names: %w", t, err)
		}
		names[i] = name
		index[name] = i
	}
	return names, index, nil
}

// Class returns the schema of class c.
func (s *Schema) Class(c ElementClass) *ClassSchema { return &s.classes[c] }

// PollutantIndex returns the source index of the named pollutant.
func (s *Schema) PollutantIndex(name string) (int, error) {
	i, ok := s.pollutantIndex[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrPollutantNotFound, name)
	}
	return i, nil
}

// PollutantAttribute returns the name of the concentration attribute slot
// that holds the named pollutant, e.g. "POLLUT_CONC_1".
func (s *Schema) PollutantAttribute(name string) (string, error) {
	i, err := s.PollutantIndex(name)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("POLLUT_CONC_%d", i), nil
}

// AttributeCode returns the source attribute code of the i'th attribute of
// class c. Pollutant attributes are resolved by name.
func (s *Schema) AttributeCode(c ElementClass, i int) (int, error) {
	cs := &s.classes[c]
	if i < 0 || i >= len(cs.Attributes) {
		return 0, fmt.Errorf("swmmtonetcdf: %v attribute %d out of range", c, i)
	}
	if i < cs.Fixed {
		return i, nil
	}
	k, err := s.PollutantIndex(cs.Attributes[i])
	if err != nil {
		return 0, err
	}
	return cs.Fixed + k, nil
}

// AttributeIndex resolves an attribute name of class c, either a fixed
// attribute or a pollutant name, to its source attribute code.
func (s *Schema) AttributeIndex(c ElementClass, name string) (int, error) {
	cs := &s.classes[c]
	for i, a := range cs.Attributes[:cs.Fixed] {
		if a == name {
			return i, nil
		}
	}
	if !classTables[c].pollutants {
		return 0, fmt.Errorf("swmmtonetcdf: %v has no attribute %q", c, name)
	}
	k, err := s.PollutantIndex(name)
	if err != nil {
		return 0, err
	}
	return cs.Fixed + k, nil
}

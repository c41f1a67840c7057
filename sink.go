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

	"github.com/ctessum/sparse"
)

// Sink receives the numeric results of a conversion. Element and attribute
// indices follow the Schema the Sink was created with.
type Sink interface {
	// WriteSeries stores the values of one attribute of one element for
	// every period. For System the element index is ignored.
	WriteSeries(c ElementClass, element, attribute int, values []float32) error

	// WriteSnapshot stores all attributes of one element for one period.
	// For System the element index is ignored.
	WriteSnapshot(c ElementClass, element, period int, values []float32) error

	// Flush makes the values written so far durable.
	Flush() error

	Close() error
}

// MemorySink holds the results of a conversion in memory, one ResultCube
// per class. Node, Link and Catchment cubes are shaped
// (element, attribute, time); the System cube is (attribute, time).
type MemorySink struct {
	Cubes map[ElementClass]*sparse.DenseArray
}

// NewMemorySink allocates zeroed cubes for every class of s with n periods.
func NewMemorySink(s *Schema, n int) *MemorySink {
	m := &MemorySink{Cubes: make(map[ElementClass]*sparse.DenseArray)}
	for _, c := range Classes {
		cs := s.Class(c)
		if c == System {
			m.Cubes[c] = sparse.ZerosDense(len(cs.Attributes), n)
		} else {
			m.Cubes[c] = sparse.ZerosDense(len(cs.Elements), len(cs.Attributes), n)
		}
	}
	return m
}

func (m *MemorySink) index(c ElementClass, element, attribute, period int) []int {
	if c == System {
		return []int{attribute, period}
	}
	return []int{element, attribute, period}
}

// WriteSeries implements Sink.
func (m *MemorySink) WriteSeries(c ElementClass, element, attribute int, values []float32) error {
	cube := m.Cubes[c]
	if err := cube.CheckIndex(m.index(c, element, attribute, len(values)-1)); err != nil {
		return fmt.Errorf("swmmtonetcdf: %v series: %v", c, err)
	}
	for t, v := range values {
		cube.Set(float64(v), m.index(c, element, attribute, t)...)
	}
	return nil
}

// WriteSnapshot implements Sink.
func (m *MemorySink) WriteSnapshot(c ElementClass, element, period int, values []float32) error {
	cube := m.Cubes[c]
	if err := cube.CheckIndex(m.index(c, element, len(values)-1, period)); err != nil {
		return fmt.Errorf("swmmtonetcdf: %v snapshot: %v", c, err)
	}
	for a, v := range values {
		cube.Set(float64(v), m.index(c, element, a, period)...)
	}
	return nil
}

// Flush implements Sink. It does nothing.
func (m *MemorySink) Flush() error { return nil }

// Close implements Sink. It does nothing.
func (m *MemorySink) Close() error { return nil }

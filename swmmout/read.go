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

package swmmout

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Series returns the values of attribute attr of the index'th object of
// type t for the periods in [start, end). For t == System, index must be 0.
func (f *File) Series(t ElementType, index, attr, start, end int) ([]float32, error) {
	if f.f == nil {
		return nil, ErrClosed
	}
	if err := f.checkObject(t, index); err != nil {
		return nil, err
	}
	if attr < 0 || attr >= f.vars[t] {
		return nil, fmt.Errorf("%w: %v attribute %d of %d", ErrAttribute, t, attr, f.vars[t])
	}
	if start < 0 || end > f.nPeriods || start > end {
		return nil, fmt.Errorf("%w: [%d, %d) of %d", ErrPeriod, start, end, f.nPeriods)
	}
	off := f.objectOffset(t, index) + int64(attr)*recordSize
	out := make([]float32, end-start)
	var buf [recordSize]byte
	for p := start; p < end; p++ {
		if _, err := f.f.ReadAt(buf[:], f.periodOffset(p)+off); err != nil {
			return nil, fmt.Errorf("swmmout: reading %v series: %w", t, truncated(err))
		}
		out[p-start] = math.Float32frombits(binary.LittleEndian.Uint32(buf[:]))
	}
	return out, nil
}

// Result returns every reported value of the index'th object of type t for
// a single period, in attribute code order. For t == System, index must be 0.
func (f *File) Result(t ElementType, period, index int) ([]float32, error) {
	if f.f == nil {
		return nil, ErrClosed
	}
	if err := f.checkObject(t, index); err != nil {
		return nil, err
	}
	if period < 0 || period >= f.nPeriods {
		return nil, fmt.Errorf("%w: %d of %d", ErrPeriod, period, f.nPeriods)
	}
	buf := make([]byte, f.vars[t]*recordSize)
	if _, err := f.f.ReadAt(buf, f.periodOffset(period)+f.objectOffset(t, index)); err != nil {
		return nil, fmt.Errorf("swmmout: reading %v result: %w", t, truncated(err))
	}
	out := make([]float32, f.vars[t])
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*recordSize:]))
	}
	return out, nil
}

// PeriodDate returns the date stamp stored with a period, as a SWMM day
// number.
func (f *File) PeriodDate(period int) (float64, error) {
	if f.f == nil {
		return 0, ErrClosed
	}
	if period < 0 || period >= f.nPeriods {
		return 0, fmt.Errorf("%w: %d of %d", ErrPeriod, period, f.nPeriods)
	}
	var buf [dateSize]byte
	if _, err := f.f.ReadAt(buf[:], f.resultsPos+int64(period)*f.bytesPerPeriod); err != nil {
		return 0, fmt.Errorf("swmmout: reading period date: %w", truncated(err))
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[:])), nil
}

// SubcatchSeries returns a subcatchment attribute over the periods [start, end).
func (f *File) SubcatchSeries(index int, attr SubcatchAttribute, start, end int) ([]float32, error) {
	return f.Series(Subcatch, index, int(attr), start, end)
}

// NodeSeries returns a node attribute over the periods [start, end).
func (f *File) NodeSeries(index int, attr NodeAttribute, start, end int) ([]float32, error) {
	return f.Series(Node, index, int(attr), start, end)
}

// LinkSeries returns a link attribute over the periods [start, end).
func (f *File) LinkSeries(index int, attr LinkAttribute, start, end int) ([]float32, error) {
	return f.Series(Link, index, int(attr), start, end)
}

// SystemSeries returns a system attribute over the periods [start, end).
func (f *File) SystemSeries(attr SystemAttribute, start, end int) ([]float32, error) {
	return f.Series(System, 0, int(attr), start, end)
}

// SubcatchResult returns all attributes of a subcatchment for one period.
func (f *File) SubcatchResult(period, index int) ([]float32, error) {
	return f.Result(Subcatch, period, index)
}

// NodeResult returns all attributes of a node for one period.
func (f *File) NodeResult(period, index int) ([]float32, error) {
	return f.Result(Node, period, index)
}

// LinkResult returns all attributes of a link for one period.
func (f *File) LinkResult(period, index int) ([]float32, error) {
	return f.Result(Link, period, index)
}

// SystemResult returns all system attributes for one period.
func (f *File) SystemResult(period int) ([]float32, error) {
	return f.Result(System, period, 0)
}

func (f *File) checkObject(t ElementType, index int) error {
	if t < Subcatch || t > System {
		return fmt.Errorf("swmmout: element type %v has no results", t)
	}
	if index < 0 || index >= f.counts[t] {
		return fmt.Errorf("%w: %v %d of %d", ErrIndex, t, index, f.counts[t])
	}
	return nil
}

// periodOffset is the file offset of the first value of a period, just past
// its date stamp.
func (f *File) periodOffset(period int) int64 {
	return f.resultsPos + int64(period)*f.bytesPerPeriod + dateSize
}

// objectOffset is the offset of an object's values within a period.
func (f *File) objectOffset(t ElementType, index int) int64 {
	var n int
	switch t {
	case System:
		n = f.counts[Link]*f.vars[Link] + f.counts[Node]*f.vars[Node] + f.counts[Subcatch]*f.vars[Subcatch]
	case Link:
		n = f.counts[Node]*f.vars[Node] + f.counts[Subcatch]*f.vars[Subcatch] + index*f.vars[Link]
	case Node:
		n = f.counts[Subcatch]*f.vars[Subcatch] + index*f.vars[Node]
	case Subcatch:
		n = index * f.vars[Subcatch]
	}
	return int64(n) * recordSize
}

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

// Package swmmout reads the binary output files written by the EPA SWMM 5
// stormwater model.
//
// An output file holds a header with the project's object IDs and
// properties, followed by one record per reporting period containing every
// reported value for every subcatchment, node, link and the system as a
// whole. Values are read lazily from disk, either as the series of one
// attribute over a range of periods or as all attributes of one object for a
// single period.
//
// To read a file:
//
//	f, err := swmmout.Open("model.out")
//	...
//	defer f.Close()
//	n := f.Times(swmmout.NumPeriods)
//	flow, err := f.LinkSeries(0, swmmout.LinkFlowRate, 0, n)
package swmmout

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Magic is the number that starts and ends every SWMM 5 output file.
const Magic = 516114522

const (
	recordSize  = 4 // bytes in an integer or real value
	dateSize    = 8 // bytes in a period's date stamp
	headerSize  = 7 * recordSize
	closingSize = 6 * recordSize
)

// Errors returned by the reader.
var (
	ErrBadMagic   = errors.New("swmmout: not a SWMM 5 output file")
	ErrSimulation = errors.New("swmmout: simulation ended with an error")
	ErrNoPeriods  = errors.New("swmmout: file contains no reporting periods")
	ErrTruncated  = errors.New("swmmout: file is truncated")
	ErrIndex      = errors.New("swmmout: element index out of range")
	ErrAttribute  = errors.New("swmmout: attribute out of range")
	ErrPeriod     = errors.New("swmmout: period out of range")
	ErrClosed     = errors.New("swmmout: file is closed")
)

// File is an open SWMM 5 output file.
type File struct {
	f    *os.File
	name string

	version   int32
	flowUnits FlowUnits

	// counts is indexed by ElementType; the system always counts as one.
	counts [Pollutant + 1]int

	names          [Pollutant + 1][]string
	pollutantUnits []PollutantUnits

	// vars holds the number of reported values per object, by ElementType.
	vars [System + 1]int

	startDate  float64
	reportStep int32
	nPeriods   int

	resultsPos     int64
	bytesPerPeriod int64
}

// Open opens the SWMM output file at path and reads its metadata. The file
// is checked for the magic numbers, a clean simulation status and at least
// one reporting period before Open returns.
func Open(path string) (*File, error) {
	osf, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("swmmout: %v", err)
	}
	f := &File{f: osf, name: path}
	if err := f.readMetadata(); err != nil {
		osf.Close()
		return nil, err
	}
	return f, nil
}

// Close releases the file. Calling Close more than once is allowed.
func (f *File) Close() error {
	if f.f == nil {
		return nil
	}
	err := f.f.Close()
	f.f = nil
	return err
}

// Name returns the path the file was opened from.
func (f *File) Name() string { return f.name }

// Version returns the SWMM engine version that wrote the file, e.g. 51015.
func (f *File) Version() int { return int(f.version) }

// FlowUnits returns the flow units of the simulation.
func (f *File) FlowUnits() FlowUnits { return f.flowUnits }

// PollutantUnits returns the concentration units of each pollutant.
func (f *File) PollutantUnits() []PollutantUnits {
	return append([]PollutantUnits(nil), f.pollutantUnits...)
}

// ProjectSize returns the number of objects of each ElementType, indexed
// by ElementType.
func (f *File) ProjectSize() []int {
	return append([]int(nil), f.counts[:]...)
}

// ElementName returns the ID of the i'th object of type t.
func (f *File) ElementName(t ElementType, i int) (string, error) {
	if f.f == nil {
		return "", ErrClosed
	}
	if t < Subcatch || t > Pollutant || t == System {
		return "", fmt.Errorf("swmmout: element type %v has no names", t)
	}
	if i < 0 || i >= f.counts[t] {
		return "", fmt.Errorf("%w: %v %d of %d", ErrIndex, t, i, f.counts[t])
	}
	return f.names[t][i], nil
}

// Times returns the reporting step in seconds or the number of periods.
func (f *File) Times(t Time) int {
	switch t {
	case ReportStep:
		return int(f.reportStep)
	case NumPeriods:
		return f.nPeriods
	}
	return 0
}

// StartDate returns the simulation start as SWMM's decimal day number
// (days since 30 December 1899). The first reported period ends one
// reporting step after it.
func (f *File) StartDate() float64 { return f.startDate }

// VarCount returns the number of values reported for each object of type t
// in every period.
func (f *File) VarCount(t ElementType) int {
	if t < Subcatch || t > System {
		return 0
	}
	return f.vars[t]
}

func (f *File) readMetadata() error {
	fi, err := f.f.Stat()
	if err != nil {
		return fmt.Errorf("swmmout: %v", err)
	}
	size := fi.Size()
	if size < headerSize+closingSize {
		return ErrTruncated
	}

	var closing [6]int32
	if err := f.readAt(size-closingSize, &closing); err != nil {
		return err
	}
	idPos, propPos, resultsPos := int64(closing[0]), int64(closing[1]), int64(closing[2])
	nPeriods, errCode, magic2 := closing[3], closing[4], closing[5]

	var header [7]int32
	if err := f.readAt(0, &header); err != nil {
		return err
	}
	if header[0] != Magic || magic2 != Magic {
		return ErrBadMagic
	}
	if errCode != 0 {
		return fmt.Errorf("%w (code %d)", ErrSimulation, errCode)
	}
	if nPeriods <= 0 {
		return ErrNoPeriods
	}
	f.version = header[1]
	f.flowUnits = FlowUnits(header[2])
	for i, t := range []ElementType{Subcatch, Node, Link, Pollutant} {
		if header[3+i] < 0 {
			return fmt.Errorf("swmmout: negative %v count", t)
		}
		f.counts[t] = int(header[3+i])
	}
	f.counts[System] = 1
	f.nPeriods = int(nPeriods)

	if idPos < headerSize || propPos < idPos || resultsPos < propPos || resultsPos > size-closingSize {
		return ErrTruncated
	}
	// Every ID takes at least its length prefix and every pollutant also
	// has a unit code, so the counts are bounded by the ID section size.
	ids := int64(f.counts[Subcatch]) + int64(f.counts[Node]) + int64(f.counts[Link]) + 2*int64(f.counts[Pollutant])
	if ids*recordSize > propPos-idPos {
		return fmt.Errorf("%w: %d IDs in %d bytes", ErrTruncated, ids, propPos-idPos)
	}
	if err := f.readIDs(idPos, propPos); err != nil {
		return err
	}
	if err := f.readVariables(propPos, resultsPos); err != nil {
		return err
	}

	var start struct {
		Date float64
		Step int32
	}
	if err := f.readAt(resultsPos-dateSize-recordSize, &start); err != nil {
		return err
	}
	f.startDate, f.reportStep = start.Date, start.Step
	if f.reportStep <= 0 {
		return fmt.Errorf("swmmout: invalid report step %d", f.reportStep)
	}

	// Counts and variable counts are both bounded by the file size, so the
	// products below fit in an int64.
	nvals := int64(f.counts[Subcatch])*int64(f.vars[Subcatch]) +
		int64(f.counts[Node])*int64(f.vars[Node]) +
		int64(f.counts[Link])*int64(f.vars[Link]) + int64(f.vars[System])
	f.resultsPos = resultsPos
	f.bytesPerPeriod = dateSize + nvals*recordSize
	avail := size - closingSize - resultsPos
	if f.bytesPerPeriod > avail || int64(f.nPeriods) > avail/f.bytesPerPeriod {
		return fmt.Errorf("%w: %d periods of %d bytes in %d bytes", ErrTruncated, f.nPeriods, f.bytesPerPeriod, avail)
	}
	return nil
}

// readIDs reads the object IDs and pollutant units stored in [begin, end).
func (f *File) readIDs(begin, end int64) error {
	r := bufio.NewReader(io.NewSectionReader(f.f, begin, end-begin))
	for _, t := range []ElementType{Subcatch, Node, Link, Pollutant} {
		f.names[t] = make([]string, f.counts[t])
		for i := range f.names[t] {
			s, err := readString(r)
			if err != nil {
				return fmt.Errorf("swmmout: reading %v IDs: %w", t, truncated(err))
			}
			f.names[t][i] = s
		}
	}
	units := make([]int32, f.counts[Pollutant])
	if err := binary.Read(r, binary.LittleEndian, units); err != nil {
		return fmt.Errorf("swmmout: reading pollutant units: %w", truncated(err))
	}
	f.pollutantUnits = make([]PollutantUnits, len(units))
	for i, u := range units {
		f.pollutantUnits[i] = PollutantUnits(u)
	}
	return nil
}

// readVariables skips the object properties stored at begin and reads the
// number of reported variables for each element type.
func (f *File) readVariables(begin, end int64) error {
	r := bufio.NewReader(io.NewSectionReader(f.f, begin, end-begin))
	for _, t := range []ElementType{Subcatch, Node, Link} {
		n, err := readInt(r)
		if err != nil {
			return fmt.Errorf("swmmout: reading %v properties: %w", t, truncated(err))
		}
		if n < 0 {
			return fmt.Errorf("swmmout: negative %v property count", t)
		}
		// property codes, then one value per property per object.
		skip := int64(n) * (1 + int64(f.counts[t])) * recordSize
		if skip > end-begin {
			return fmt.Errorf("%w: %d %v properties", ErrTruncated, n, t)
		}
		if _, err := r.Discard(int(skip)); err != nil {
			return fmt.Errorf("swmmout: reading %v properties: %w", t, truncated(err))
		}
	}
	for _, t := range []ElementType{Subcatch, Node, Link, System} {
		n, err := readInt(r)
		if err != nil {
			return fmt.Errorf("swmmout: reading %v variables: %w", t, truncated(err))
		}
		if n < 0 {
			return fmt.Errorf("swmmout: negative %v variable count", t)
		}
		if int64(n)*recordSize > end-begin {
			return fmt.Errorf("%w: %d %v variables", ErrTruncated, n, t)
		}
		if _, err := r.Discard(int(n) * recordSize); err != nil {
			return fmt.Errorf("swmmout: reading %v variables: %w", t, truncated(err))
		}
		f.vars[t] = int(n)
	}
	return nil
}

func (f *File) readAt(off int64, data interface{}) error {
	r := io.NewSectionReader(f.f, off, int64(binary.Size(data)))
	if err := binary.Read(r, binary.LittleEndian, data); err != nil {
		return fmt.Errorf("swmmout: reading at offset %d: %w", off, truncated(err))
	}
	return nil
}

func readInt(r io.Reader) (int32, error) {
	var v int32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readString(r io.Reader) (string, error) {
	n, err := readInt(r)
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", fmt.Errorf("negative string length %d", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

// truncated maps short reads onto ErrTruncated.
func truncated(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrTruncated
	}
	return err
}

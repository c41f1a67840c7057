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
	"math"
	"time"

	"github.com/cbuahin/swmmtonetcdf/swmmout"
)

// Time coordinate metadata written to the output file.
const (
	TimeUnits    = "hours since 0001-01-01 00:00:00.0"
	TimeCalendar = "gregorian"
)

const (
	// SWMMEpochJD converts a SWMM day number into a Julian day number.
	SWMMEpochJD = 2415018.5

	unixEpochJD = 2440587.5

	// referenceJD is the Julian day number of 0001-01-01 00:00 in the
	// mixed Julian/Gregorian calendar used by TimeUnits and TimeCalendar.
	referenceJD = 1721423.5

	secondsPerDay = 86400
)

// ErrTimeAxis is returned when a time axis cannot be built.
var ErrTimeAxis = errors.New("swmmtonetcdf: invalid time axis")

// TimeAxis holds the end time of every reporting period.
type TimeAxis struct {
	// Times holds the period times in UTC.
	Times []time.Time

	// Hours holds Times encoded as TimeUnits in TimeCalendar.
	Hours []float64

	Step time.Duration
}

// Len returns the number of periods.
func (a *TimeAxis) Len() int { return len(a.Times) }

// BuildTimeAxis derives the reporting times of src.
func BuildTimeAxis(src Source) (*TimeAxis, error) {
	return NewTimeAxis(src.StartDate()+SWMMEpochJD,
		src.Times(swmmout.ReportStep), src.Times(swmmout.NumPeriods))
}

// NewTimeAxis returns the n reporting times that follow the simulation
// start startJD (a Julian day number) at intervals of step seconds. The
// first period ends one step after the start.
func NewTimeAxis(startJD float64, step, n int) (*TimeAxis, error) {
	if step <= 0 {
		return nil, fmt.Errorf("%w: report step %d s", ErrTimeAxis, step)
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d periods", ErrTimeAxis, n)
	}
	a := &TimeAxis{
		Times: make([]time.Time, 0, n),
		Hours: make([]float64, 0, n),
		Step:  time.Duration(step) * time.Second,
	}
	first := FromJulianDay(startJD).Add(a.Step)
	end := first.Add(time.Duration(n) * a.Step)
	for t := first; t.Before(end); t = t.Add(a.Step) {
		a.Times = append(a.Times, t)
		a.Hours = append(a.Hours, HoursSinceReference(t))
	}
	if len(a.Times) != n {
		return nil, fmt.Errorf("%w: generated %d times for %d periods", ErrTimeAxis, len(a.Times), n)
	}
	return a, nil
}

// FromJulianDay converts a Julian day number to a UTC time, rounded to the
// nearest second.
func FromJulianDay(jd float64) time.Time {
	s := math.Round((jd - unixEpochJD) * secondsPerDay)
	return time.Unix(int64(s), 0).UTC()
}

// HoursSinceReference encodes t as TimeUnits in TimeCalendar.
func HoursSinceReference(t time.Time) float64 {
	const offset = (unixEpochJD - referenceJD) * 24
	return float64(t.Unix())/3600 + float64(t.Nanosecond())/3.6e12 + offset
}

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
	"io"
	"strings"

	"github.com/cbuahin/swmmtonetcdf/swmmout"
	"github.com/sirupsen/logrus"
)

// ErrUnknownStrategy is returned for an unrecognized Strategy name.
var ErrUnknownStrategy = errors.New("swmmtonetcdf: unknown strategy")

// Strategy is the order in which results are copied from the source.
type Strategy int

const (
	// BySeries reads the whole time series of one attribute of one element
	// at a time.
	BySeries Strategy = iota

	// ByTimestep reads every attribute of every element for one period at
	// a time.
	ByTimestep
)

func (s Strategy) String() string {
	switch s {
	case BySeries:
		return "series"
	case ByTimestep:
		return "timestep"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy returns the Strategy named by s ("series" or "timestep").
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "series", "byseries":
		return BySeries, nil
	case "timestep", "bytimestep":
		return ByTimestep, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Populate copies every result of src described by schema into sink, using
// the traversal order opts.Strategy. Values are passed through unchanged;
// only the first len(Attributes) values of each object are kept.
func Populate(sink Sink, src Source, schema *Schema, opts Options) error {
	opts.setDefaults()
	switch opts.Strategy {
	case BySeries:
		return populateBySeries(sink, src, schema, opts)
	case ByTimestep:
		return populateByTimestep(sink, src, schema, opts)
	}
	return fmt.Errorf("%w: %v", ErrUnknownStrategy, opts.Strategy)
}

func populateBySeries(sink Sink, src Source, schema *Schema, opts Options) error {
	n := src.Times(swmmout.NumPeriods)
	for _, c := range Classes {
		cs := schema.Class(c)
		t := c.ElementType()
		for i, name := range cs.Attributes {
			code, err := schema.AttributeCode(c, i)
			if err != nil {
				return err
			}
			for j := 0; j < cs.Len(); j++ {
				values, err := src.Series(t, j, code, 0, n)
				if err != nil {
					return fmt.Errorf("swmmtonetcdf: reading %v %d %s: %w", c, j, name, err)
				}
				if err := sink.WriteSeries(c, j, i, values); err != nil {
					return err
				}
			}
			if err := sink.Flush(); err != nil {
				return err
			}
			opts.Log.WithFields(logrus.Fields{
				"class":     c,
				"attribute": name,
				"elements":  cs.Len(),
			}).Debug("attribute written")
		}
	}
	return nil
}

func populateByTimestep(sink Sink, src Source, schema *Schema, opts Options) error {
	n := src.Times(swmmout.NumPeriods)
	p := progress{w: opts.Progress, last: -1}
	for period := 0; period < n; period++ {
		for _, c := range Classes {
			cs := schema.Class(c)
			want := len(cs.Attributes)
			for j := 0; j < cs.Len(); j++ {
				values, err := src.Result(c.ElementType(), period, j)
				if err != nil {
					return fmt.Errorf("swmmtonetcdf: reading %v %d period %d: %w", c, j, period, err)
				}
				if len(values) < want {
					return fmt.Errorf("%w: %v %d has %d values in period %d, want %d",
						ErrSchemaMismatch, c, j, len(values), period, want)
				}
				if err := sink.WriteSnapshot(c, j, period, values[:want]); err != nil {
					return err
				}
			}
		}
		if (period+1)%opts.FlushEvery == 0 || period == n-1 {
			if err := sink.Flush(); err != nil {
				return err
			}
			opts.Log.WithField("period", period+1).Debug("flushed")
		}
		p.report(period+1, n)
	}
	return nil
}

// progress writes the percentage of completed periods whenever it changes.
type progress struct {
	w    io.Writer
	last int
}

func (p *progress) report(done, total int) {
	if p.w == nil || total == 0 {
		return
	}
	pct := done * 100 / total
	if pct == p.last {
		return
	}
	p.last = pct
	fmt.Fprintf(p.w, "Progress: %d%%/100\r", pct)
	if done == total {
		fmt.Fprintln(p.w)
	}
}

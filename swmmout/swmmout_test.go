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

package swmmout_test

import (
	"encoding/binary"
	"errors"
	"io/ioutil"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/cbuahin/swmmtonetcdf/swmmout"
	"github.com/cbuahin/swmmtonetcdf/swmmout/swmmouttest"
)

func writeProject(t *testing.T, p swmmouttest.Project) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.out")
	if err := p.Write(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpen(t *testing.T) {
	p := swmmouttest.Simple(1, 3, 2, 2, 10)
	f, err := swmmout.Open(writeProject(t, p))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if want := []int{1, 3, 2, 1, 2}; !reflect.DeepEqual(f.ProjectSize(), want) {
		t.Errorf("project size: %v != %v", f.ProjectSize(), want)
	}
	if f.Times(swmmout.NumPeriods) != 10 {
		t.Errorf("periods: %d", f.Times(swmmout.NumPeriods))
	}
	if f.Times(swmmout.ReportStep) != 3600 {
		t.Errorf("report step: %d", f.Times(swmmout.ReportStep))
	}
	if f.StartDate() != 43101 {
		t.Errorf("start date: %g", f.StartDate())
	}
	if f.Version() != 51015 || f.FlowUnits() != swmmout.CMS {
		t.Errorf("version %d, flow units %v", f.Version(), f.FlowUnits())
	}
	if f.FlowUnits().UnitSystem() != "SI" {
		t.Errorf("unit system: %s", f.FlowUnits().UnitSystem())
	}
	for _, tt := range []struct {
		et   swmmout.ElementType
		want int
	}{
		{swmmout.Subcatch, 10},
		{swmmout.Node, 8},
		{swmmout.Link, 7},
		{swmmout.System, 15},
	} {
		if n := f.VarCount(tt.et); n != tt.want {
			t.Errorf("%v vars: %d != %d", tt.et, n, tt.want)
		}
	}
	for _, tt := range []struct {
		et   swmmout.ElementType
		want []string
	}{
		{swmmout.Subcatch, p.Subcatchments},
		{swmmout.Node, p.Nodes},
		{swmmout.Link, p.Links},
		{swmmout.Pollutant, p.Pollutants},
	} {
		for i, want := range tt.want {
			name, err := f.ElementName(tt.et, i)
			if err != nil {
				t.Fatal(err)
			}
			if name != want {
				t.Errorf("%v %d: %q != %q", tt.et, i, name, want)
			}
		}
	}
	if _, err := f.ElementName(swmmout.Node, 3); !errors.Is(err, swmmout.ErrIndex) {
		t.Errorf("out of range name: %v", err)
	}
	if units := f.PollutantUnits(); len(units) != 2 || units[0] != swmmout.MgPerL {
		t.Errorf("pollutant units: %v", units)
	}
}

func TestSeries(t *testing.T) {
	p := swmmouttest.Simple(2, 3, 2, 1, 6)
	f, err := swmmout.Open(writeProject(t, p))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	check := func(et swmmout.ElementType, index, attr int, got []float32, start int) {
		t.Helper()
		for i, v := range got {
			if want := swmmouttest.Value(et, start+i, index, attr); v != want {
				t.Errorf("%v %d attr %d period %d: %g != %g", et, index, attr, start+i, v, want)
			}
		}
	}

	s, err := f.NodeSeries(2, swmmout.NodeTotalInflow, 0, 6)
	if err != nil {
		t.Fatal(err)
	}
	if len(s) != 6 {
		t.Fatalf("series length %d", len(s))
	}
	check(swmmout.Node, 2, int(swmmout.NodeTotalInflow), s, 0)

	s, err = f.LinkSeries(1, swmmout.LinkPollutConc0, 2, 5)
	if err != nil {
		t.Fatal(err)
	}
	check(swmmout.Link, 1, int(swmmout.LinkPollutConc0), s, 2)

	s, err = f.SubcatchSeries(0, swmmout.SubcatchRunoffRate, 0, 6)
	if err != nil {
		t.Fatal(err)
	}
	check(swmmout.Subcatch, 0, int(swmmout.SubcatchRunoffRate), s, 0)

	s, err = f.SystemSeries(swmmout.SysOutfallFlows, 0, 6)
	if err != nil {
		t.Fatal(err)
	}
	check(swmmout.System, 0, int(swmmout.SysOutfallFlows), s, 0)

	if _, err := f.NodeSeries(0, swmmout.NodeAttribute(7), 0, 6); !errors.Is(err, swmmout.ErrAttribute) {
		t.Errorf("bad attribute: %v", err)
	}
	if _, err := f.NodeSeries(0, swmmout.NodeHydraulicHead, 0, 7); !errors.Is(err, swmmout.ErrPeriod) {
		t.Errorf("bad period: %v", err)
	}
	if _, err := f.NodeSeries(3, swmmout.NodeHydraulicHead, 0, 6); !errors.Is(err, swmmout.ErrIndex) {
		t.Errorf("bad index: %v", err)
	}
}

func TestResult(t *testing.T) {
	p := swmmouttest.Simple(1, 2, 2, 2, 4)
	f, err := swmmout.Open(writeProject(t, p))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	for _, tt := range []struct {
		et    swmmout.ElementType
		index int
		get   func(period, index int) ([]float32, error)
	}{
		{swmmout.Subcatch, 0, f.SubcatchResult},
		{swmmout.Node, 1, f.NodeResult},
		{swmmout.Link, 1, f.LinkResult},
		{swmmout.System, 0, func(period, _ int) ([]float32, error) { return f.SystemResult(period) }},
	} {
		got, err := tt.get(3, tt.index)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != p.Vars(tt.et) {
			t.Fatalf("%v result length %d != %d", tt.et, len(got), p.Vars(tt.et))
		}
		for a, v := range got {
			if want := swmmouttest.Value(tt.et, 3, tt.index, a); v != want {
				t.Errorf("%v attr %d: %g != %g", tt.et, a, v, want)
			}
		}
	}

	date, err := f.PeriodDate(0)
	if err != nil {
		t.Fatal(err)
	}
	if want := 43101 + 1.0/24; date != want {
		t.Errorf("period date: %g != %g", date, want)
	}
	if _, err := f.NodeResult(4, 0); !errors.Is(err, swmmout.ErrPeriod) {
		t.Errorf("bad period: %v", err)
	}
}

func TestOpenErrors(t *testing.T) {
	good := swmmouttest.Simple(1, 2, 1, 0, 3).Bytes()

	badMagic := append([]byte(nil), good...)
	badMagic[0]++

	simErr := swmmouttest.Simple(1, 2, 1, 0, 3)
	simErr.ErrorCode = 105

	noPeriods := swmmouttest.Simple(1, 2, 1, 0, 0)

	// patch overwrites the integer at offset off.
	patch := func(off int, v uint32) []byte {
		b := append([]byte(nil), good...)
		binary.LittleEndian.PutUint32(b[off:], v)
		return b
	}

	for _, tt := range []struct {
		name string
		data []byte
		want error
	}{
		{"magic", badMagic, swmmout.ErrBadMagic},
		{"simulation", simErr.Bytes(), swmmout.ErrSimulation},
		{"periods", noPeriods.Bytes(), swmmout.ErrNoPeriods},
		{"short", good[:30], swmmout.ErrTruncated},
		// Dropping the middle of the results breaks the closing record's offsets.
		{"truncated", append(append([]byte(nil), good[:len(good)-60]...), good[len(good)-24:]...), swmmout.ErrTruncated},
		{"huge node count", patch(16, 0x7ffffff0), swmmout.ErrTruncated},
		{"huge pollutant count", patch(24, 0x7ffffff0), swmmout.ErrTruncated},
		{"huge period count", patch(len(good)-12, 0x7ffffff0), swmmout.ErrTruncated},
	} {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.out")
			if err := ioutil.WriteFile(path, tt.data, 0644); err != nil {
				t.Fatal(err)
			}
			f, err := swmmout.Open(path)
			if err == nil {
				f.Close()
				t.Fatal("expected an error")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("%v is not %v", err, tt.want)
			}
		})
	}

	if _, err := swmmout.Open(filepath.Join(t.TempDir(), "missing.out")); err == nil {
		t.Error("opened a missing file")
	}
}

func TestClosed(t *testing.T) {
	f, err := swmmout.Open(writeProject(t, swmmouttest.Simple(0, 1, 0, 0, 2)))
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
	if _, err := f.NodeSeries(0, swmmout.NodeInvertDepth, 0, 2); !errors.Is(err, swmmout.ErrClosed) {
		t.Errorf("series after close: %v", err)
	}
	if _, err := f.ElementName(swmmout.Node, 0); !errors.Is(err, swmmout.ErrClosed) {
		t.Errorf("name after close: %v", err)
	}
}

func TestAttributeNames(t *testing.T) {
	if s := swmmout.NodePollutConc0.String(); s != "POLLUT_CONC_0" {
		t.Errorf("node pollutant 0: %s", s)
	}
	if s := (swmmout.LinkPollutConc0 + 2).String(); s != "POLLUT_CONC_2" {
		t.Errorf("link pollutant 2: %s", s)
	}
	if s := swmmout.SubcatchGWTableElev.String(); s != "GW_TABLE_ELEV" {
		t.Errorf("subcatch: %s", s)
	}
	if n := len(swmmout.FixedAttributes(swmmout.System)); n != 14 {
		t.Errorf("system attributes: %d", n)
	}
	if n := len(swmmout.FixedAttributes(swmmout.Node)); n != int(swmmout.NodePollutConc0) {
		t.Errorf("node attributes: %d", n)
	}
	if swmmout.HasPollutants(swmmout.System) {
		t.Error("system has no pollutant slots")
	}
}

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

package swmmutil

import (
	"bytes"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cbuahin/swmmtonetcdf"
	"github.com/cbuahin/swmmtonetcdf/swmmout/swmmouttest"
	"github.com/lnashier/viper"
)

// writeProject writes a small SWMM output file and returns its path.
func writeProject(t *testing.T, dir string) string {
	t.Helper()
	src := filepath.Join(dir, "model.out")
	if err := swmmouttest.Simple(1, 3, 2, 1, 6).Write(src); err != nil {
		t.Fatal(err)
	}
	return src
}

func execute(args ...string) (string, error) {
	var b bytes.Buffer
	Root.SetOutput(&b)
	Root.SetArgs(args)
	err := Root.Execute()
	return b.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute("version")
	if err != nil {
		t.Fatal(err)
	}
	if want := "swmmtonetcdf v" + swmmtonetcdf.Version; !strings.Contains(out, want) {
		t.Errorf("%q does not contain %q", out, want)
	}
}

func TestConvertAndInspect(t *testing.T) {
	dir := t.TempDir()
	src := writeProject(t, dir)
	dst := filepath.Join(dir, "model.nc")
	Cfg.Set("loglevel", "error")
	Cfg.Set("out", src)
	Cfg.Set("nc", dst)

	for _, strategy := range []string{"series", "timestep"} {
		Cfg.Set("strategy", strategy)
		if _, err := execute("convert"); err != nil {
			t.Fatalf("%s: %v", strategy, err)
		}
		if _, err := os.Stat(dst); err != nil {
			t.Fatalf("%s: %v", strategy, err)
		}
	}
	Cfg.Set("strategy", "series")

	out, err := execute("inspect")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`source = "model.out"`,
		`flow_units = "CMS"`,
		"[dimensions]",
		"[variables.node_timeseries]",
		`"P1a"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect output does not contain %q:\n%s", want, out)
		}
	}
}

func TestConvertBadPaths(t *testing.T) {
	dir := t.TempDir()
	src := writeProject(t, dir)
	Cfg.Set("loglevel", "error")

	Cfg.Set("out", filepath.Join(dir, "missing.out"))
	Cfg.Set("nc", filepath.Join(dir, "model.nc"))
	if _, err := execute("convert"); !errors.Is(err, ErrInputFile) {
		t.Errorf("missing input: %v", err)
	}

	Cfg.Set("out", src)
	Cfg.Set("nc", filepath.Join(dir, "missing", "model.nc"))
	if _, err := execute("convert"); !errors.Is(err, ErrOutputFile) {
		t.Errorf("missing output directory: %v", err)
	}

	Cfg.Set("nc", filepath.Join(dir, "model.nc"))
	Cfg.Set("strategy", "sideways")
	if _, err := execute("convert"); !errors.Is(err, swmmtonetcdf.ErrUnknownStrategy) {
		t.Errorf("bad strategy: %v", err)
	}
	Cfg.Set("strategy", "series")
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	src := writeProject(t, dir)
	cfgPath := filepath.Join(dir, "config.toml")
	config := `
strategy = "timestep"
flushevery = 2
prj = "EPSG:32617"
no-geom = true
`
	if err := ioutil.WriteFile(cfgPath, []byte(config), 0644); err != nil {
		t.Fatal(err)
	}
	Cfg.Set("config", cfgPath)
	Cfg.Set("loglevel", "error")
	defer Cfg.Set("config", "")
	if err := Root.PersistentPreRunE(nil, nil); err != nil {
		t.Fatal(err)
	}
	if n := Cfg.GetInt("flushevery"); n != 2 {
		t.Errorf("flushevery from config file: %d", n)
	}

	// Other tests set strategy on Cfg directly, which takes precedence over
	// the file, so the remaining options are checked on a fresh instance.
	v := viper.New()
	v.SetConfigFile(cfgPath)
	if err := v.ReadInConfig(); err != nil {
		t.Fatal(err)
	}
	v.Set("out", src)
	v.Set("nc", filepath.Join(dir, "model.nc"))
	c, err := convertOptions(v)
	if err != nil {
		t.Fatal(err)
	}
	if c.opts.Strategy != swmmtonetcdf.ByTimestep {
		t.Errorf("strategy: %v", c.opts.Strategy)
	}
	if c.opts.FlushEvery != 2 {
		t.Errorf("flushevery: %d", c.opts.FlushEvery)
	}
	if c.opts.Geometry || c.opts.Projection != "EPSG:32617" {
		t.Errorf("geometry %v, projection %s", c.opts.Geometry, c.opts.Projection)
	}
	if c.src != src {
		t.Errorf("src: %s", c.src)
	}
}

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

// Package swmmutil holds the command-line interface of swmmtonetcdf.
package swmmutil

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/cbuahin/swmmtonetcdf"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

type option struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

var options []option

func init() {
	// Options are the configuration options available to swmmtonetcdf.
	options = []option{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "loglevel",
			usage: `
              loglevel is the minimum level of log messages to print
              (debug, info, warning or error).`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "out",
			usage: `
              out is the path to the SWMM binary output file to convert.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "nc",
			usage: `
              nc is the path of the NetCDF file to create. An existing file
              is overwritten. Its directory must exist.`,
			shorthand:  "n",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags(), inspectCmd.Flags()},
		},
		{
			name: "inp",
			usage: `
              inp is the path to the SWMM input file that element geometry
              is read from.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "geom",
			usage: `
              geom specifies whether to save element geometry.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "no-geom",
			usage: `
              no-geom disables saving element geometry. It overrides geom.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "prj",
			usage: `
              prj is the WKT projection, or EPSG code, of saved geometry.`,
			defaultVal: "EPSG:4326",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "strategy",
			usage: `
              strategy is the order results are read in: "series" reads
              the whole time series of one attribute of one element at a
              time and "timestep" reads every result of one reporting
              period at a time.`,
			defaultVal: "series",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "flushevery",
			usage: `
              flushevery is the number of reporting periods between
              flushes of the NetCDF file when strategy is "timestep".`,
			defaultVal: swmmtonetcdf.DefaultFlushEvery,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
	}

	Cfg = viper.New()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, v, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, v, option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(convertCmd)
	Root.AddCommand(inspectCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets up logging.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("swmmtonetcdf: problem reading configuration file: %v", err)
		}
	}
	level, err := logrus.ParseLevel(cast.ToString(Cfg.Get("loglevel")))
	if err != nil {
		return fmt.Errorf("swmmtonetcdf: invalid loglevel: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "swmmtonetcdf",
	Short: "Convert SWMM output files to NetCDF.",
	Long: `swmmtonetcdf converts the binary output file of a SWMM 5 simulation into a
NetCDF file that holds one (element, attribute, time) array for each of the
nodes, links and subcatchments and one (attribute, time) array of system results.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag) or by using command-line arguments.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
	SilenceUsage:      true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of swmmtonetcdf.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("swmmtonetcdf v%s\n", swmmtonetcdf.Version)
	},
	DisableAutoGenTag: true,
}

// convertCmd converts a SWMM output file.
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a SWMM output file to NetCDF.",
	Long: `convert reads the SWMM binary output file given by --out and writes its
results to the NetCDF file given by --nc. The file is first written next to
its destination with a ".part" suffix and renamed once it is complete.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := convertOptions(Cfg)
		if err != nil {
			return err
		}
		o.opts.Progress = cmd.OutOrStdout()
		return swmmtonetcdf.Convert(o.src, o.dst, o.opts)
	},
	DisableAutoGenTag: true,
}

// inspectCmd prints a summary of a converted file.
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Summarize a NetCDF file created by convert.",
	Long: `inspect prints the dimensions, element and attribute names, time range
and value statistics of the NetCDF file given by --nc, in TOML format.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := checkInputFile(cast.ToString(Cfg.Get("nc")))
		if err != nil {
			return err
		}
		s, err := swmmtonetcdf.Inspect(path)
		if err != nil {
			return err
		}
		return toml.NewEncoder(cmd.OutOrStdout()).Encode(s)
	},
	DisableAutoGenTag: true,
}

// Execute runs Root and exits with a non-zero status on failure.
func Execute() {
	if err := Root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

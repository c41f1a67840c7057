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

// Command swmmtonetcdf converts SWMM 5 binary output files to NetCDF.
package main

import "github.com/cbuahin/swmmtonetcdf/swmmutil"

func main() {
	swmmutil.Execute()
}

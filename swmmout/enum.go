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

import "fmt"

// ElementType identifies a class of objects in an output file.
// The numeric values index the slice returned by File.ProjectSize.
type ElementType int

// Element types, in the order used by the SWMM output toolkit.
const (
	Subcatch ElementType = iota
	Node
	Link
	System
	Pollutant
)

var elementTypeNames = [...]string{"SUBCATCH", "NODE", "LINK", "SYSTEM", "POLLUT"}

func (t ElementType) String() string {
	if t < 0 || int(t) >= len(elementTypeNames) {
		return fmt.Sprintf("ElementType(%d)", int(t))
	}
	return elementTypeNames[t]
}

// Time identifies one of the time-related quantities returned by File.Times.
type Time int

const (
	// ReportStep is the reporting time step in seconds.
	ReportStep Time = iota
	// NumPeriods is the number of reporting periods.
	NumPeriods
)

// FlowUnits is the flow unit code stored in the output file header.
type FlowUnits int32

// Flow unit codes.
const (
	CFS FlowUnits = iota
	GPM
	MGD
	CMS
	LPS
	MLD
)

var flowUnitNames = [...]string{"CFS", "GPM", "MGD", "CMS", "LPS", "MLD"}

func (u FlowUnits) String() string {
	if u < 0 || int(u) >= len(flowUnitNames) {
		return fmt.Sprintf("FlowUnits(%d)", int32(u))
	}
	return flowUnitNames[u]
}

// UnitSystem returns "US" for the customary flow units and "SI" otherwise.
func (u FlowUnits) UnitSystem() string {
	if u <= MGD {
		return "US"
	}
	return "SI"
}

// PollutantUnits is the concentration unit code of a pollutant.
type PollutantUnits int32

// Concentration unit codes.
const (
	MgPerL PollutantUnits = iota
	UgPerL
	CountPerL
)

var pollutantUnitNames = [...]string{"MG/L", "UG/L", "COUNT/L"}

func (u PollutantUnits) String() string {
	if u < 0 || int(u) >= len(pollutantUnitNames) {
		return fmt.Sprintf("PollutantUnits(%d)", int32(u))
	}
	return pollutantUnitNames[u]
}

// SubcatchAttribute is a reported subcatchment quantity. Pollutant k is
// reported as SubcatchPollutConc0 + k.
type SubcatchAttribute int

// Subcatchment attributes.
const (
	SubcatchRainfall SubcatchAttribute = iota
	SubcatchSnowDepth
	SubcatchEvapLoss
	SubcatchInfilLoss
	SubcatchRunoffRate
	SubcatchGWOutflowRate
	SubcatchGWTableElev
	SubcatchSoilMoisture
	SubcatchPollutConc0
)

var subcatchAttributeNames = [...]string{
	"RAINFALL",
	"SNOW_DEPTH",
	"EVAP_LOSS",
	"INFIL_LOSS",
	"RUNOFF_RATE",
	"GW_OUTFLOW_RATE",
	"GW_TABLE_ELEV",
	"SOIL_MOISTURE",
}

func (a SubcatchAttribute) String() string {
	return attributeName(int(a), subcatchAttributeNames[:], int(SubcatchPollutConc0))
}

// NodeAttribute is a reported node quantity. Pollutant k is reported as
// NodePollutConc0 + k.
type NodeAttribute int

// Node attributes.
const (
	NodeInvertDepth NodeAttribute = iota
	NodeHydraulicHead
	NodePondedVolume
	NodeLateralInflow
	NodeTotalInflow
	NodeFloodingLosses
	NodePollutConc0
)

var nodeAttributeNames = [...]string{
	"INVERT_DEPTH",
	"HYDRAULIC_HEAD",
	"PONDED_VOLUME",
	"LATERAL_INFLOW",
	"TOTAL_INFLOW",
	"FLOODING_LOSSES",
}

func (a NodeAttribute) String() string {
	return attributeName(int(a), nodeAttributeNames[:], int(NodePollutConc0))
}

// LinkAttribute is a reported link quantity. Pollutant k is reported as
// LinkPollutConc0 + k.
type LinkAttribute int

// Link attributes.
const (
	LinkFlowRate LinkAttribute = iota
	LinkFlowDepth
	LinkFlowVelocity
	LinkFlowVolume
	LinkCapacity
	LinkPollutConc0
)

var linkAttributeNames = [...]string{
	"FLOW_RATE",
	"FLOW_DEPTH",
	"FLOW_VELOCITY",
	"FLOW_VOLUME",
	"CAPACITY",
}

func (a LinkAttribute) String() string {
	return attributeName(int(a), linkAttributeNames[:], int(LinkPollutConc0))
}

// SystemAttribute is a reported system-wide quantity.
type SystemAttribute int

// System attributes.
const (
	SysAirTemp SystemAttribute = iota
	SysRainfall
	SysSnowDepth
	SysEvapInfilLoss
	SysRunoffFlow
	SysDryWeatherInflow
	SysGWInflow
	SysRDIIInflow
	SysDirectInflow
	SysTotalLateralInflow
	SysFloodLosses
	SysOutfallFlows
	SysVolumeStored
	SysEvapRate
	numSystemAttributes
)

var systemAttributeNames = [...]string{
	"AIR_TEMP",
	"RAINFALL",
	"SNOW_DEPTH",
	"EVAP_INFIL_LOSS",
	"RUNOFF_FLOW",
	"DRY_WEATHER_INFLOW",
	"GW_INFLOW",
	"RDII_INFLOW",
	"DIRECT_INFLOW",
	"TOTAL_LATERAL_INFLOW",
	"FLOOD_LOSSES",
	"OUTFALL_FLOWS",
	"VOLUME_STORED",
	"EVAP_RATE",
}

func (a SystemAttribute) String() string {
	if a < 0 || a >= numSystemAttributes {
		return fmt.Sprintf("SystemAttribute(%d)", int(a))
	}
	return systemAttributeNames[a]
}

// attributeName names attribute code a, given the names of the fixed codes
// and the code of the first pollutant concentration slot.
func attributeName(a int, fixed []string, pollut0 int) string {
	switch {
	case a < 0:
		return fmt.Sprintf("Attribute(%d)", a)
	case a < len(fixed):
		return fixed[a]
	default:
		return fmt.Sprintf("POLLUT_CONC_%d", a-pollut0)
	}
}

// FixedAttributes returns the names of the attributes of element type t
// that do not depend on the pollutants in a file, in code order.
// Subcatch, Node and Link are followed by one pollutant concentration
// per pollutant; System has no pollutant slots.
func FixedAttributes(t ElementType) []string {
	var names []string
	switch t {
	case Subcatch:
		names = subcatchAttributeNames[:]
	case Node:
		names = nodeAttributeNames[:]
	case Link:
		names = linkAttributeNames[:]
	case System:
		names = systemAttributeNames[:]
	default:
		return nil
	}
	return append([]string(nil), names...)
}

// HasPollutants reports whether element type t carries pollutant
// concentration slots after its fixed attributes.
func HasPollutants(t ElementType) bool {
	return t == Subcatch || t == Node || t == Link
}

// Package domain models the cells, crops, climate series and per-day simulation
// state of the crop ET simulator.
//
// # Cells and Crops
//
// A cell is one weather station location ("ET cell") with static soil and
// hydrologic properties. Each cell carries a set of crop activity flags keyed by
// crop number; only flagged crops are simulated for that cell. Crop parameter
// records are shared across cells unless a per-cell override replaces fields.
//
// # Crop Categories and GDD Policies
//
// Two independent classifications are resolved once, when a crop is loaded:
//
//	Category (season reset detection):
//	  winter    class 13 or 14, or curve name containing "WINTER"
//	  standard  everything else
//
//	GDD policy (daily heat unit accounting):
//	  none          curve number <= 0 (bare soil, open water, ...)
//	  winter grain  class 13 or 14, or curve name exactly "WINTER WHEAT"
//	  corn          tbase < 0; the parameter tables store the corn base
//	                temperature negated as a type flag, the true base is -tbase
//	  generic       everything else
//
// The two classifications intentionally differ: a crop named "WINTER RYE" in a
// class other than 13/14 resets like a winter crop but accumulates GDD with the
// generic policy.
//
// # Calendar Conventions
//
// Day of year (DOY) is 1-based, 1..366. Long-term normal tables are indexed by
// DOY directly and have length 367: index 0 duplicates DOY 1 and DOY 366 falls
// back to DOY 365 when the record holds no leap day.
//
// Daily series must contain consecutive days. The absolute 1-based row position
// within the station series is the "day index" that drives the 30-day reference
// ET average, even when a date window restricts which days are simulated.
//
// # Units
//
//	Temperatures  °C
//	Precip, ET    mm/day
//	Snow, depth   mm
//	Elevation     feet in the cell tables, converted to metres for air pressure
//	Air pressure  kPa
package domain

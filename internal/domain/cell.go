package domain

import "math"

// Cell holds the static properties of one ET cell.
type Cell struct {
	ID             string
	Name           string
	RefETID        string // station whose weather and reference ET drive the cell
	Lat            float64
	Lon            float64
	ElevationFt    float64
	Permeability   float64
	WHC            float64 // water holding capacity
	SoilDepth      float64
	HydroGroupName string
	HydroGroup     int
	AridityRating  float64
	AirPressure    float64 // kPa, derived from elevation

	IrrigationFlag int
	CropFlags      map[int]bool

	DairyCuttings int
	BeefCuttings  int
}

// NewCell returns a cell with derived fields filled in.
func NewCell(id, name, refETID string, lat, lon, elevFt float64) *Cell {
	return &Cell{
		ID:          id,
		Name:        name,
		RefETID:     refETID,
		Lat:         lat,
		Lon:         lon,
		ElevationFt: elevFt,
		AirPressure: AirPressureFromElevation(elevFt * 0.3048),
		CropFlags:   make(map[int]bool),
	}
}

// AirPressureFromElevation returns mean air pressure in kPa for an elevation in metres
// (ASCE standardized reference ET equation 3).
func AirPressureFromElevation(elevM float64) float64 {
	return 101.3 * math.Pow((293.0-0.0065*elevM)/293.0, 5.26)
}

package climate

import "math"

const (
	// MissingThreshold marks sentinel-invalid temperature inputs.
	MissingThreshold = -90.0
	// MissingValue is stored for an absent input; it is below MissingThreshold.
	MissingValue = -999.0
	// FallbackRHMin is used when dewpoint or maximum temperature is missing.
	FallbackRHMin = 30.0
)

// VaporPressure returns saturation vapor pressure in kPa at temperature t (°C).
// Vapor pressure over ice is not considered.
func VaporPressure(t float64) float64 {
	return 0.6108 * math.Exp(17.27*t/(t+237.3))
}

// RHMin estimates minimum relative humidity (%) from dewpoint and the unadjusted
// maximum temperature.
func RHMin(tdew, tmax float64) float64 {
	if tdew < MissingThreshold || tmax < MissingThreshold {
		return FallbackRHMin
	}
	return min(VaporPressure(tdew)/VaporPressure(tmax)*100, 100)
}

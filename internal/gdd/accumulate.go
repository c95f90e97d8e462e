// Package gdd implements the daily growing degree day update: the rolling 30-day
// reference ET mean, season reset detection and crop-specific GDD/CGDD accounting.
package gdd

import (
	"fmt"

	"github.com/couchcryptid/crop-et-sim/internal/domain"
)

// Winter grain thresholds (°C) and penalties.
const (
	winterNoGrowthTMin = -4.0
	winterStuntTMin    = -10.0
	winterStuntPenalty = 5.0
	winterBurnTMin     = -25.0
	winterBurnFraction = 0.10

	cornMaxTemp = 30.0

	// standardResetOffset places the standard-crop reset boundary this many days
	// after the trigger DOY, so a wrap past it only happens at the year end.
	standardResetOffset = 199
)

// Accumulate runs the three daily stages in order and reports whether the season
// was reset today.
func Accumulate(cs *domain.CropState, crop *domain.Crop, day *domain.DayState) (bool, error) {
	UpdateETRef30(cs, day)
	reset := DetectSeasonReset(cs, crop, day.DOY)
	if err := UpdateGDD(cs, crop, day); err != nil {
		return reset, err
	}
	return reset, nil
}

// UpdateETRef30 folds today's reference ET into the rolling 30-day mean. Up to day
// 30 the mean grows over the available days; after that the value stored 30 days
// ago is replaced.
func UpdateETRef30(cs *domain.CropState, day *domain.DayState) {
	n := day.Index
	lost := day.ETRefWindow.Put(n, day.ETRef)
	if n > domain.ETRefWindowSize {
		cs.ETRef30 += (day.ETRef - lost) / domain.ETRefWindowSize
		return
	}
	cs.ETRef30 = (cs.ETRef30*float64(n-1) + day.ETRef) / float64(n)
}

// DetectSeasonReset clears CGDD and the season markers when today crosses the
// crop's phenological year boundary. LastDOY always advances to today.
func DetectSeasonReset(cs *domain.CropState, crop *domain.Crop, doy int) bool {
	trigger := crop.GDDTriggerDOY
	var reset bool
	if crop.Category == domain.CategoryWinter {
		reset = cs.LastDOY < trigger && trigger <= doy
	} else {
		boundary := trigger + standardResetOffset
		reset = cs.LastDOY > boundary && boundary >= doy
	}
	if reset {
		cs.CGDD = 0
		cs.DOYStartCycle = 0
		cs.RealStart = false
		cs.InSeason = false
	}
	cs.LastDOY = doy
	return reset
}

// UpdateGDD applies the crop's GDD policy for today.
func UpdateGDD(cs *domain.CropState, crop *domain.Crop, day *domain.DayState) error {
	switch crop.Policy.Kind {
	case domain.PolicyNone:
		return nil
	case domain.PolicyWinterGrain:
		winterGrain(cs, crop.Policy.Base, day)
	case domain.PolicyCornModified:
		cornModified(cs, crop.Policy.Base, day)
	case domain.PolicyGeneric:
		generic(cs, crop.Policy.Base, day)
	default:
		return fmt.Errorf("crop %d: %w", crop.Number, domain.ErrUnresolvedPolicy)
	}
	return nil
}

// winterGrain follows development through winter. Freezing days add nothing,
// severe cold stunts the next day's GDD, and extreme cold without snow cover burns
// back 10% of CGDD on the following day.
func winterGrain(cs *domain.CropState, base float64, day *domain.DayState) {
	cs.GDD = 0
	if day.TMin >= winterNoGrowthTMin && day.TMean > base {
		cs.GDD = day.TMean - base
	}
	cs.GDD = max(cs.GDD-cs.Penalty, 0)
	cs.Penalty = 0

	cs.CGDD = max(cs.CGDD+cs.GDD-cs.CGDDPenalty, 0)
	cs.CGDDPenalty = 0

	if day.TMin < winterStuntTMin {
		cs.Penalty = winterStuntPenalty
	}
	if day.TMin < winterBurnTMin && day.SnowDepth <= 0 {
		cs.CGDDPenalty = cs.CGDD * winterBurnFraction
	}
}

// cornModified is the 86/50 °F method: temperatures are capped at 30 °C and
// raised to the base before averaging. No daily GDD is recorded.
func cornModified(cs *domain.CropState, base float64, day *domain.DayState) {
	tmax, tmin := CornClamp(day.TMax, day.TMin, base)
	cs.CGDD = max(cs.CGDD+0.5*(tmax+tmin)-base, 0)
}

// CornClamp returns the maximum and minimum temperatures limited to [base, 30].
func CornClamp(tmax, tmin, base float64) (float64, float64) {
	tmaxl := min(tmax, cornMaxTemp)
	tminl := min(tmin, cornMaxTemp)
	if tmax < base {
		tmaxl = base
	}
	if tmin < base {
		tminl = base
	}
	return tmaxl, tminl
}

func generic(cs *domain.CropState, base float64, day *domain.DayState) {
	if day.TMean > base {
		cs.GDD = day.TMean - base
		cs.CGDD += cs.GDD
	}
}

// Package climate turns raw station weather into the adjusted daily series and
// long-term day-of-year normals consumed by the phenology engine.
package climate

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/crop-et-sim/internal/domain"
)

const (
	// T30Window is the trailing window, in days, of the 30-day mean temperature.
	T30Window = 30

	// snowSettleRatio converts fresh snowfall to settled snow depth (2:1 settling).
	snowSettleRatio = 0.5
	// snowMeltRate is melt in mm per day per °C of maximum temperature.
	snowMeltRate = 4.0
)

// aridityAdjustment is the monthly downward temperature adjustment (°C) at an
// aridity rating of 100, indexed 0..12 by fractional month.
var aridityAdjustment = []float64{0, 0, 0, 0, 1, 1.5, 2, 3.5, 4.5, 3, 0, 0, 0}

var aridityCurve = mustFitAridity()

func mustFitAridity() *interp.PiecewiseLinear {
	xs := make([]float64, len(aridityAdjustment))
	for i := range xs {
		xs[i] = float64(i)
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, aridityAdjustment); err != nil {
		panic(fmt.Sprintf("fit aridity curve: %v", err))
	}
	return &pl
}

// Normalize builds the adjusted daily climate series and long-term normals for one
// station. aridity is the cell's aridity rating (0..100); refet selects which
// reference ET column is carried into the series.
func Normalize(rec *domain.StationRecord, aridity float64, refet domain.RefETType) (*domain.Climate, error) {
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("normalize climate: %w", err)
	}
	n := rec.Len()

	c := &domain.Climate{
		StationID: rec.StationID,
		Dates:     rec.Dates,
		DOY:       make([]int, n),
		TMax:      make([]float64, n),
		TMin:      make([]float64, n),
		TMean:     make([]float64, n),
		TMaxRaw:   rec.TMax,
		TDew:      rec.TDew,
		Wind:      rec.Wind,
		Precip:    rec.Precip,
		ETRef:     rec.ETo,
	}
	if refet == domain.RefETAlfalfa {
		c.ETRef = rec.ETr
	}

	for i, d := range rec.Dates {
		c.DOY[i] = d.YearDay()
		adj := 0.0
		if aridity > 0 {
			adj = AridityAdjustment(d) * aridity / 100
		}
		c.TMax[i] = rec.TMax[i] - adj
		c.TMin[i] = rec.TMin[i] - adj
		c.TMean[i] = 0.5 * (c.TMax[i] + c.TMin[i])
	}

	c.T30 = TrailingMean(c.TMean, T30Window)
	c.CGDD0 = AnnualCumulativeGDD(rec.Dates, c.TMean)
	c.Normals.T30LT = DayOfYearMeans(c.DOY, c.T30)
	c.Normals.CGDD0LT = DayOfYearMeans(c.DOY, c.CGDD0)
	c.SnowDepth = EstimateSnowDepth(rec.Snow, rec.SnowDepth, c.TMax)

	return c, nil
}

// AridityAdjustment returns the unscaled aridity temperature adjustment for a date.
func AridityAdjustment(d time.Time) float64 {
	frac := float64(d.Month()) + (float64(d.Day())-15)/30.4
	frac = min(max(frac, 1), 11)
	return aridityCurve.Predict(frac)
}

// TrailingMean returns the mean of each value and up to window-1 preceding values.
// The first days of a series average over however many days are available.
func TrailingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		lo := max(i-window+1, 0)
		out[i] = stat.Mean(values[lo:i+1], nil)
	}
	return out
}

// AnnualCumulativeGDD accumulates base-0 GDD (tmean when positive) within each
// calendar year.
func AnnualCumulativeGDD(dates []time.Time, tmean []float64) []float64 {
	out := make([]float64, len(tmean))
	sum := 0.0
	for i, t := range tmean {
		if i > 0 && dates[i].Year() != dates[i-1].Year() {
			sum = 0
		}
		if t > 0 {
			sum += t
		}
		out[i] = sum
	}
	return out
}

// DayOfYearMeans averages values by day of year. Index 0 duplicates DOY 1; a DOY
// with no data takes the value of the closest preceding DOY (DOY 366 falls back to
// 365 in records without a leap day).
func DayOfYearMeans(doy []int, values []float64) [domain.NormalsLength]float64 {
	var groups [domain.NormalsLength][]float64
	for i, d := range doy {
		groups[d] = append(groups[d], values[i])
	}

	var out [domain.NormalsLength]float64
	have := false
	for d := 1; d < domain.NormalsLength; d++ {
		if len(groups[d]) == 0 {
			if have {
				out[d] = out[d-1]
			}
			continue
		}
		out[d] = stat.Mean(groups[d], nil)
		if !have {
			// Back-fill DOYs before the first one present in the record.
			for b := 1; b < d; b++ {
				out[b] = out[d]
			}
			have = true
		}
	}
	out[0] = out[1]
	return out
}

// EstimateSnowDepth settles snowfall into an accumulation, melts it by maximum
// temperature and caps the reported depth at the accumulation. The accumulation
// starts at zero at the beginning of the record. When the record holds no snowfall
// the reported depths are returned unchanged.
func EstimateSnowDepth(snow, depth, tmax []float64) []float64 {
	out := make([]float64, len(depth))
	copy(out, depth)

	anySnow := false
	for _, s := range snow {
		if s > 0 {
			anySnow = true
			break
		}
	}
	if !anySnow {
		return out
	}

	accum := 0.0
	for i := range out {
		accum += snow[i] * snowSettleRatio
		melt := max(snowMeltRate*tmax[i], 0)
		accum = max(accum-melt, 0)
		out[i] = min(out[i], accum)
	}
	return out
}

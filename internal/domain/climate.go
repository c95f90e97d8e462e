package domain

import (
	"fmt"
	"time"
)

// NormalsLength is the length of the day-of-year normal tables (index 0..366).
const NormalsLength = 367

// RefETType selects which reference ET column drives the simulation.
type RefETType int

const (
	RefETGrass   RefETType = iota // ASCE standardized short (grass) reference, ETo
	RefETAlfalfa                  // ASCE standardized tall (alfalfa) reference, ETr
)

// StationRecord is the raw daily weather and reference ET series for one station.
type StationRecord struct {
	StationID string
	Dates     []time.Time
	TMax      []float64
	TMin      []float64
	TDew      []float64
	Wind      []float64
	Precip    []float64
	Snow      []float64
	SnowDepth []float64
	ETo       []float64
	ETr       []float64
}

// Len returns the number of days in the record.
func (r *StationRecord) Len() int { return len(r.Dates) }

// Validate checks that every column matches the date column and that dates are
// consecutive calendar days.
func (r *StationRecord) Validate() error {
	n := len(r.Dates)
	cols := map[string][]float64{
		"tmax": r.TMax, "tmin": r.TMin, "tdew": r.TDew, "wind": r.Wind,
		"precip": r.Precip, "snow": r.Snow, "snow_depth": r.SnowDepth,
		"eto": r.ETo, "etr": r.ETr,
	}
	for name, col := range cols {
		if len(col) != n {
			return fmt.Errorf("station %s column %s has %d rows, want %d: %w",
				r.StationID, name, len(col), n, ErrSeriesLength)
		}
	}
	for i := 1; i < n; i++ {
		want := r.Dates[i-1].AddDate(0, 0, 1)
		if !sameDay(r.Dates[i], want) {
			return fmt.Errorf("station %s row %d: %s follows %s: %w",
				r.StationID, i+1, r.Dates[i].Format(time.DateOnly),
				r.Dates[i-1].Format(time.DateOnly), ErrNonConsecutiveDates)
		}
	}
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ClimateNormals are long-term day-of-year means built from a full station record.
type ClimateNormals struct {
	T30LT   [NormalsLength]float64 // 30-day mean temperature normal
	CGDD0LT [NormalsLength]float64 // cumulative GDD (base 0) normal
}

// Climate is the normalized daily series for one station. It is read-only once built.
type Climate struct {
	StationID string
	Dates     []time.Time
	DOY       []int

	TMax      []float64 // aridity adjusted
	TMin      []float64 // aridity adjusted
	TMean     []float64
	T30       []float64
	CGDD0     []float64 // annual cumulative GDD, base 0
	SnowDepth []float64

	TMaxRaw []float64 // unadjusted, used for humidity
	TDew    []float64
	Wind    []float64
	Precip  []float64
	ETRef   []float64

	Normals ClimateNormals
}

// Len returns the number of days in the series.
func (c *Climate) Len() int { return len(c.Dates) }

// Window restricts which days of a series are simulated. Zero values are open ends.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window, inclusive.
func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && t.After(w.End) {
		return false
	}
	return true
}

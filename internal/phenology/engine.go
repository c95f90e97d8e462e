// Package phenology drives the daily simulation of one crop on one cell: season
// and dormancy setup, degree day accumulation and the ET physics step.
package phenology

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/crop-et-sim/internal/climate"
	"github.com/couchcryptid/crop-et-sim/internal/domain"
	"github.com/couchcryptid/crop-et-sim/internal/gdd"
)

// SeasonAdapter is the ET physics collaborator. Setup methods initialize the
// water balance for a new season or dormant period; ComputeET runs one day and
// writes the adapter-owned CropState outputs.
type SeasonAdapter interface {
	SetupCrop(cs *domain.CropState, crop *domain.Crop, day *domain.DayState)
	SetupDormant(cs *domain.CropState, cell *domain.Cell, crop *domain.Crop, day *domain.DayState)
	ComputeET(cs *domain.CropState, cell *domain.Cell, crop *domain.Crop, day *domain.DayState) error
}

// RecordStream receives the daily records of one (cell, crop) run in date order.
type RecordStream interface {
	Write(ctx context.Context, rec domain.DailyRecord) error
	Close() error
}

// Summary describes a completed run.
type Summary struct {
	Days   int
	Resets int
	State  domain.CropState
}

// Engine runs (cell, crop) simulations. It holds no per-run state and may be used
// from several goroutines.
type Engine struct {
	adapter SeasonAdapter
	logger  *slog.Logger
}

// NewEngine creates an Engine backed by the given ET physics adapter.
func NewEngine(adapter SeasonAdapter, logger *slog.Logger) *Engine {
	return &Engine{adapter: adapter, logger: logger}
}

// Run simulates one crop on one cell over the days of c inside window, writing
// one record per simulated day to stream. The caller owns the stream and closes it.
func (e *Engine) Run(ctx context.Context, cell *domain.Cell, crop *domain.Crop, c *domain.Climate, window domain.Window, stream RecordStream) (Summary, error) {
	cs := domain.NewCropState()
	day := &domain.DayState{Normals: &c.Normals}
	var sum Summary

	for i := range c.Len() {
		date := c.Dates[i]
		if !window.Contains(date) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		// Setup sees the previous day's snapshot, or a zero one on the first day.
		// A pending crop setup takes precedence; dormant setup waits a day.
		switch {
		case !cs.InSeason && cs.CropSetupFlag:
			e.adapter.SetupCrop(cs, crop, day)
		case !cs.InSeason && cs.DormantSetupFlag:
			e.adapter.SetupDormant(cs, cell, crop, day)
		}

		populate(day, c, i)
		day.RHMin = climate.RHMin(day.TDew, day.TMaxRaw)

		reset, err := gdd.Accumulate(cs, crop, day)
		if err != nil {
			return sum, fmt.Errorf("cell %s crop %d on %s: %w", cell.ID, crop.Number, date.Format("2006-01-02"), err)
		}
		if reset {
			sum.Resets++
			e.logger.Debug("season reset", "cell_id", cell.ID, "crop", crop.Number, "date", date.Format("2006-01-02"))
		}

		if err := e.adapter.ComputeET(cs, cell, crop, day); err != nil {
			return sum, fmt.Errorf("compute et for cell %s crop %d on %s: %w", cell.ID, crop.Number, date.Format("2006-01-02"), err)
		}

		if err := stream.Write(ctx, record(cell, crop, cs, day)); err != nil {
			return sum, fmt.Errorf("write record for cell %s crop %d: %w", cell.ID, crop.Number, err)
		}
		sum.Days++
	}

	sum.State = *cs
	return sum, nil
}

// populate copies row i of the climate series into the reusable day snapshot.
func populate(day *domain.DayState, c *domain.Climate, i int) {
	day.Index = i + 1
	day.Date = c.Dates[i]
	day.DOY = c.DOY[i]
	day.TMax = c.TMax[i]
	day.TMin = c.TMin[i]
	day.TMean = c.TMean[i]
	day.TMaxRaw = c.TMaxRaw[i]
	day.TDew = c.TDew[i]
	day.Wind = c.Wind[i]
	day.SnowDepth = c.SnowDepth[i]
	day.Precip = c.Precip[i]
	day.ETRef = c.ETRef[i]
	day.T30 = c.T30[i]
}

func record(cell *domain.Cell, crop *domain.Crop, cs *domain.CropState, day *domain.DayState) domain.DailyRecord {
	var season int
	if cs.InSeason {
		season = 1
	}
	return domain.DailyRecord{
		CellID:     cell.ID,
		CropNumber: crop.Number,
		Date:       day.Date,
		DOY:        day.DOY,
		ETRef:      day.ETRef,
		Precip:     day.Precip,
		T30:        day.T30,
		ETAct:      cs.ETcAct,
		ETPot:      cs.ETcPot,
		ETBas:      cs.ETcBas,
		Irrigation: cs.IrrSim,
		InSeason:   season,
		Runoff:     cs.Runoff,
		DeepPerc:   cs.DeepPerc,
	}
}

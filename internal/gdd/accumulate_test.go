package gdd

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/crop-et-sim/internal/domain"
)

func resolved(c domain.Crop) *domain.Crop {
	domain.ResolveCrop(&c)
	return &c
}

var (
	alfalfa     = resolved(domain.Crop{Number: 3, ClassNumber: 1, CurveNumber: 1, CurveName: "ALFALFA", TBase: 5, GDDTriggerDOY: 1})
	winterWheat = resolved(domain.Crop{Number: 13, ClassNumber: 13, CurveNumber: 13, CurveName: "WINTER WHEAT", TBase: 0, GDDTriggerDOY: 274})
	corn        = resolved(domain.Crop{Number: 7, ClassNumber: 7, CurveNumber: 7, CurveName: "CORN", TBase: -8, GDDTriggerDOY: 1})
	bareSoil    = resolved(domain.Crop{Number: 44, ClassNumber: 44, CurveNumber: 0, CurveName: "BARE SOIL"})
)

func TestUpdateETRef30_ConstantInput(t *testing.T) {
	cs := domain.NewCropState()
	day := &domain.DayState{ETRef: 5.0}

	for n := 1; n <= 40; n++ {
		day.Index = n
		UpdateETRef30(cs, day)
		if n >= 30 {
			assert.Equal(t, 5.0, cs.ETRef30, "day %d", n)
		}
	}
}

func TestUpdateETRef30_MatchesTrailingMean(t *testing.T) {
	cs := domain.NewCropState()
	day := &domain.DayState{}
	var history []float64

	for n := 1; n <= 120; n++ {
		v := float64(n%17) * 0.7
		history = append(history, v)
		day.Index = n
		day.ETRef = v
		UpdateETRef30(cs, day)

		lo := max(len(history)-30, 0)
		var sum float64
		for _, h := range history[lo:] {
			sum += h
		}
		assert.InDelta(t, sum/float64(len(history[lo:])), cs.ETRef30, 1e-9, "day %d", n)
	}
}

func TestUpdateETRef30_LateStartUsesAbsoluteIndex(t *testing.T) {
	// A window starting at row 41 sees an empty buffer: the first value is
	// folded in with weight 1/30.
	cs := domain.NewCropState()
	day := &domain.DayState{Index: 41, ETRef: 6}
	UpdateETRef30(cs, day)
	assert.InDelta(t, 0.2, cs.ETRef30, 1e-12)
}

// simulate runs DetectSeasonReset over consecutive days and returns reset dates.
func simulate(t *testing.T, crop *domain.Crop, start time.Time, days int) []time.Time {
	t.Helper()
	cs := domain.NewCropState()
	var resets []time.Time
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i)
		cs.CGDD += 1
		if DetectSeasonReset(cs, crop, d.YearDay()) {
			resets = append(resets, d)
			assert.Zero(t, cs.CGDD)
		}
	}
	return resets
}

func TestDetectSeasonReset_StandardOncePerYear(t *testing.T) {
	start := time.Date(2000, time.March, 1, 0, 0, 0, 0, time.UTC)
	resets := simulate(t, alfalfa, start, 3*365)

	require.Len(t, resets, 3)
	for _, r := range resets {
		assert.Equal(t, 1, r.YearDay(), "standard crops reset on the first day of the year")
	}
}

func TestDetectSeasonReset_WinterOncePerYear(t *testing.T) {
	start := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	resets := simulate(t, winterWheat, start, 3*365)

	require.Len(t, resets, 3)
	for i, r := range resets {
		assert.Equal(t, 2000+i, r.Year())
		assert.Equal(t, 274, r.YearDay())
	}
}

func TestDetectSeasonReset_ClearsSeasonMarkers(t *testing.T) {
	cs := &domain.CropState{
		CGDD: 900, DOYStartCycle: 120, RealStart: true, InSeason: true, LastDOY: 273,
	}
	require.True(t, DetectSeasonReset(cs, winterWheat, 274))
	assert.Zero(t, cs.CGDD)
	assert.Zero(t, cs.DOYStartCycle)
	assert.False(t, cs.RealStart)
	assert.False(t, cs.InSeason)
	assert.Equal(t, 274, cs.LastDOY)

	// No reset on the next day.
	cs.CGDD = 5
	assert.False(t, DetectSeasonReset(cs, winterWheat, 275))
	assert.Equal(t, 5.0, cs.CGDD)
}

func TestUpdateGDD_Generic(t *testing.T) {
	cs := domain.NewCropState()

	require.NoError(t, UpdateGDD(cs, alfalfa, &domain.DayState{TMean: 15}))
	assert.Equal(t, 10.0, cs.GDD)
	assert.Equal(t, 10.0, cs.CGDD)

	// Below base: no change at all, GDD keeps yesterday's value.
	require.NoError(t, UpdateGDD(cs, alfalfa, &domain.DayState{TMean: 3}))
	assert.Equal(t, 10.0, cs.GDD)
	assert.Equal(t, 10.0, cs.CGDD)
}

func TestUpdateGDD_CornClamp(t *testing.T) {
	tmaxl, tminl := CornClamp(35, -5, corn.Policy.Base)
	assert.Equal(t, 30.0, tmaxl)
	assert.Equal(t, 8.0, tminl, "tmin is raised to the true base")

	cs := domain.NewCropState()
	require.NoError(t, UpdateGDD(cs, corn, &domain.DayState{TMax: 35, TMin: -5, TMean: 15}))
	assert.Equal(t, 11.0, cs.CGDD)
	assert.Zero(t, cs.GDD, "corn records no daily gdd")

	cs = domain.NewCropState()
	require.NoError(t, UpdateGDD(cs, corn, &domain.DayState{TMax: 28, TMin: 12}))
	assert.Equal(t, 12.0, cs.CGDD)

	cs = domain.NewCropState()
	require.NoError(t, UpdateGDD(cs, corn, &domain.DayState{TMax: 2, TMin: -10}))
	assert.Zero(t, cs.CGDD, "cold day adds nothing")
}

func TestUpdateGDD_WinterGrainFreezeAndPenalty(t *testing.T) {
	cs := domain.NewCropState()

	// Freezing: no growth despite warm mean, and sets tomorrow's penalty.
	require.NoError(t, UpdateGDD(cs, winterWheat, &domain.DayState{TMin: -12, TMean: 4}))
	assert.Zero(t, cs.GDD)
	assert.Equal(t, 5.0, cs.Penalty)

	// Next day: 8 GDD minus the 5 penalty.
	require.NoError(t, UpdateGDD(cs, winterWheat, &domain.DayState{TMin: 2, TMean: 8}))
	assert.Equal(t, 3.0, cs.GDD)
	assert.Equal(t, 3.0, cs.CGDD)
	assert.Zero(t, cs.Penalty)

	// Penalty larger than GDD floors at zero.
	require.NoError(t, UpdateGDD(cs, winterWheat, &domain.DayState{TMin: -11, TMean: 1}))
	require.NoError(t, UpdateGDD(cs, winterWheat, &domain.DayState{TMin: 0, TMean: 2}))
	assert.Zero(t, cs.GDD)
	assert.Equal(t, 3.0, cs.CGDD)
}

func TestUpdateGDD_WinterGrainBurnBack(t *testing.T) {
	cs := &domain.CropState{CGDD: 100}

	// Day D: extreme cold without snow cover.
	require.NoError(t, UpdateGDD(cs, winterWheat, &domain.DayState{TMin: -26, TMean: -20, SnowDepth: 0}))
	assert.Equal(t, 100.0, cs.CGDD)
	assert.Equal(t, 10.0, cs.CGDDPenalty)

	// Day D+1: no new growth, so the burn-back shows directly.
	require.NoError(t, UpdateGDD(cs, winterWheat, &domain.DayState{TMin: -5, TMean: -1}))
	assert.Equal(t, 90.0, cs.CGDD)
	assert.Zero(t, cs.CGDDPenalty)
}

func TestUpdateGDD_WinterGrainSnowCoverPreventsBurnBack(t *testing.T) {
	cs := &domain.CropState{CGDD: 100}
	require.NoError(t, UpdateGDD(cs, winterWheat, &domain.DayState{TMin: -30, TMean: -22, SnowDepth: 40}))
	assert.Zero(t, cs.CGDDPenalty)
}

func TestUpdateGDD_NonCropAndUnresolved(t *testing.T) {
	cs := &domain.CropState{CGDD: 12, GDD: 3}
	require.NoError(t, UpdateGDD(cs, bareSoil, &domain.DayState{TMean: 25}))
	assert.Equal(t, 12.0, cs.CGDD)
	assert.Equal(t, 3.0, cs.GDD)

	unresolved := &domain.Crop{Number: 99, CurveNumber: 5}
	err := UpdateGDD(cs, unresolved, &domain.DayState{TMean: 25})
	require.ErrorIs(t, err, domain.ErrUnresolvedPolicy)
	assert.Contains(t, err.Error(), "crop 99")
}

func TestAccumulate_NeverNegative(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	start := time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

	for _, crop := range []*domain.Crop{alfalfa, winterWheat, corn, bareSoil} {
		t.Run(crop.Name+crop.CurveName, func(t *testing.T) {
			cs := domain.NewCropState()
			day := &domain.DayState{}
			for i := 0; i < 3*365; i++ {
				d := start.AddDate(0, 0, i)
				day.Index = i + 1
				day.Date = d
				day.DOY = d.YearDay()
				day.TMin = rng.Float64()*60 - 40
				day.TMax = day.TMin + rng.Float64()*20
				day.TMean = 0.5 * (day.TMax + day.TMin)
				day.SnowDepth = 0
				day.ETRef = rng.Float64() * 10

				_, err := Accumulate(cs, crop, day)
				require.NoError(t, err)
				require.GreaterOrEqual(t, cs.CGDD, 0.0, "day %d", i)
				require.GreaterOrEqual(t, cs.GDD, 0.0, "day %d", i)
			}
		})
	}
}

func TestAccumulate_ReportsReset(t *testing.T) {
	cs := &domain.CropState{LastDOY: 366, CGDD: 50}
	day := &domain.DayState{Index: 1, DOY: 1, TMean: 10, ETRef: 3}

	reset, err := Accumulate(cs, alfalfa, day)
	require.NoError(t, err)
	assert.True(t, reset)
	// Reset happens before today's GDD is added.
	assert.Equal(t, 5.0, cs.CGDD)
	assert.Equal(t, 3.0, cs.ETRef30)
}

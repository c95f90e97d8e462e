// Package etphysics provides a single-coefficient reference implementation of the
// ET physics step. It tracks season start and end from T30 and CGDD and scales
// reference ET by a crop coefficient; the soil water balance is not modelled.
package etphysics

import (
	"github.com/couchcryptid/crop-et-sim/internal/domain"
)

// DormantKc is the crop coefficient applied outside the growing season.
const DormantKc = 0.15

// Reference implements phenology.SeasonAdapter.
type Reference struct{}

// NewReference returns the reference adapter.
func NewReference() *Reference { return &Reference{} }

// SetupCrop prepares the state for the next growing season.
func (Reference) SetupCrop(cs *domain.CropState, _ *domain.Crop, _ *domain.DayState) {
	cs.CropSetupFlag = false
	clearOutputs(cs)
}

// SetupDormant prepares the state for the non-growing period after a season ends.
func (Reference) SetupDormant(cs *domain.CropState, _ *domain.Cell, _ *domain.Crop, _ *domain.DayState) {
	cs.DormantSetupFlag = false
	clearOutputs(cs)
}

// ComputeET advances the season markers and computes today's crop ET.
func (Reference) ComputeET(cs *domain.CropState, _ *domain.Cell, crop *domain.Crop, day *domain.DayState) error {
	if crop.Policy.Kind == domain.PolicyNone {
		setET(cs, DormantKc*day.ETRef)
		return nil
	}

	if cs.InSeason && seasonOver(cs, crop, day) {
		cs.InSeason = false
		cs.DormantSetupFlag = true
		cs.CropSetupFlag = true
	} else if !cs.InSeason && !cs.RealStart && day.T30 >= crop.T30ForStart {
		cs.InSeason = true
		cs.RealStart = true
		cs.DOYStartCycle = day.DOY
	}

	kc := DormantKc
	if cs.InSeason {
		kc = crop.KcMax
	}
	setET(cs, kc*day.ETRef)
	return nil
}

// seasonOver reports a killing frost or reaching the termination CGDD.
func seasonOver(cs *domain.CropState, crop *domain.Crop, day *domain.DayState) bool {
	if day.TMin < crop.KillingFrostTemperature {
		return true
	}
	return crop.CGDDForTermination > 0 && cs.CGDD >= crop.CGDDForTermination
}

func setET(cs *domain.CropState, et float64) {
	cs.ETcPot = et
	cs.ETcAct = et
	cs.ETcBas = et
	cs.IrrSim = 0
	cs.Runoff = 0
	cs.DeepPerc = 0
}

func clearOutputs(cs *domain.CropState) {
	setET(cs, 0)
}

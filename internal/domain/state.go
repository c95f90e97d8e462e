package domain

import "time"

// ETRefWindowSize is the number of days in the rolling reference ET average.
const ETRefWindowSize = 30

// CropState is the persistent simulation state of one (cell, crop) run.
type CropState struct {
	ETRef30     float64 // rolling 30-day reference ET mean
	CGDD        float64
	GDD         float64
	Penalty     float64 // GDD penalty applied on the next day (winter grain)
	CGDDPenalty float64 // CGDD burn-back applied on the next day (winter grain)

	LastDOY       int
	DOYStartCycle int
	RealStart     bool

	InSeason         bool
	CropSetupFlag    bool
	DormantSetupFlag bool

	// Written by the ET physics adapter.
	ETcAct   float64
	ETcPot   float64
	ETcBas   float64
	IrrSim   float64
	Runoff   float64
	DeepPerc float64
}

// NewCropState returns the state at the start of a run: waiting for season setup.
func NewCropState() *CropState {
	return &CropState{CropSetupFlag: true}
}

// ETRefWindow is a fixed-capacity ring of the most recent reference ET values.
type ETRefWindow struct {
	values [ETRefWindowSize]float64
}

// Put stores v for the 1-based day index n and returns the value it replaced.
func (w *ETRefWindow) Put(n int, v float64) float64 {
	slot := (n - 1) % ETRefWindowSize
	lost := w.values[slot]
	w.values[slot] = v
	return lost
}

// Values returns a copy of the stored values in slot order.
func (w *ETRefWindow) Values() []float64 {
	out := make([]float64, ETRefWindowSize)
	copy(out, w.values[:])
	return out
}

// DayState is the per-day input snapshot. One instance is reused for every day of a
// run; only the ETRef window carries over between days.
type DayState struct {
	Index int // 1-based absolute row in the station series
	Date  time.Time
	DOY   int

	TMax      float64
	TMin      float64
	TMean     float64
	TMaxRaw   float64
	TDew      float64
	Wind      float64
	SnowDepth float64
	Precip    float64
	ETRef     float64
	T30       float64
	RHMin     float64

	Normals *ClimateNormals

	ETRefWindow ETRefWindow
}

// DailyRecord is one output row for a (cell, crop) pair. Field order matches the
// legacy tabular output.
type DailyRecord struct {
	CellID     string    `json:"cell_id"`
	CropNumber int       `json:"crop_number"`
	Date       time.Time `json:"date"`
	DOY        int       `json:"doy"`
	ETRef      float64   `json:"pmeto"`
	Precip     float64   `json:"precip"`
	T30        float64   `json:"t30"`
	ETAct      float64   `json:"et_act"`
	ETPot      float64   `json:"et_pot"`
	ETBas      float64   `json:"et_bas"`
	Irrigation float64   `json:"irrigation"`
	InSeason   int       `json:"in_season"`
	Runoff     float64   `json:"runoff"`
	DeepPerc   float64   `json:"deep_perc"`
}

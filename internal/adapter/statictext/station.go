package statictext

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/crop-et-sim/internal/climate"
	"github.com/couchcryptid/crop-et-sim/internal/domain"
)

// Station series column names.
const (
	colDate      = "date"
	colTMax      = "tmax"
	colTMin      = "tmin"
	colTDew      = "tdew"
	colWind      = "wind"
	colPrecip    = "precip"
	colSnow      = "snow"
	colSnowDepth = "snow_depth"
	colETo       = "eto"
	colETr       = "etr"
)

var dateLayouts = []string{"2006-01-02", "01/02/2006", "1/2/2006", "2006/01/02"}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// ReadStation parses a daily station series with one header line of column
// names. Snow and snow depth are optional and default to zero. A blank dewpoint
// is stored as climate.MissingValue; other blank required values are errors.
func ReadStation(r io.Reader, stationID string) (*domain.StationRecord, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("station %s: empty series", stationID)
	}
	h := newHeader(rows[0])
	if err := h.require(colDate, colTMax, colTMin, colTDew, colWind, colPrecip, colETo, colETr); err != nil {
		return nil, fmt.Errorf("station %s: %w", stationID, err)
	}

	n := len(rows) - 1
	rec := &domain.StationRecord{
		StationID: stationID,
		Dates:     make([]time.Time, 0, n),
		TMax:      make([]float64, 0, n),
		TMin:      make([]float64, 0, n),
		TDew:      make([]float64, 0, n),
		Wind:      make([]float64, 0, n),
		Precip:    make([]float64, 0, n),
		Snow:      make([]float64, 0, n),
		SnowDepth: make([]float64, 0, n),
		ETo:       make([]float64, 0, n),
		ETr:       make([]float64, 0, n),
	}
	for i, row := range rows[1:] {
		d, err := parseDate(h.field(row, colDate))
		if err != nil {
			return nil, fmt.Errorf("station %s line %d: %w", stationID, i+2, err)
		}
		p := &rowParser{line: i + 2}
		rec.Dates = append(rec.Dates, d)
		rec.TMax = append(rec.TMax, p.requiredFloat(colTMax, h.field(row, colTMax)))
		rec.TMin = append(rec.TMin, p.requiredFloat(colTMin, h.field(row, colTMin)))
		rec.TDew = append(rec.TDew, p.floatOr(colTDew, h.field(row, colTDew), climate.MissingValue))
		rec.Wind = append(rec.Wind, p.requiredFloat(colWind, h.field(row, colWind)))
		rec.Precip = append(rec.Precip, p.requiredFloat(colPrecip, h.field(row, colPrecip)))
		rec.Snow = append(rec.Snow, p.float(colSnow, h.field(row, colSnow)))
		rec.SnowDepth = append(rec.SnowDepth, p.float(colSnowDepth, h.field(row, colSnowDepth)))
		rec.ETo = append(rec.ETo, p.requiredFloat(colETo, h.field(row, colETo)))
		rec.ETr = append(rec.ETr, p.requiredFloat(colETr, h.field(row, colETr)))
		if p.err != nil {
			return nil, fmt.Errorf("station %s %w", stationID, p.err)
		}
	}
	return rec, nil
}

// WriteStation writes a station series in the format ReadStation accepts.
func WriteStation(w io.Writer, rec *domain.StationRecord) error {
	if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		colDate, colTMax, colTMin, colTDew, colWind, colPrecip, colSnow, colSnowDepth, colETo, colETr); err != nil {
		return err
	}
	for i := range rec.Len() {
		if _, err := fmt.Fprintf(w, "%s\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\n",
			rec.Dates[i].Format("2006-01-02"),
			rec.TMax[i], rec.TMin[i], rec.TDew[i], rec.Wind[i], rec.Precip[i],
			rec.Snow[i], rec.SnowDepth[i], rec.ETo[i], rec.ETr[i]); err != nil {
			return err
		}
	}
	return nil
}

// StationLoader reads station files from a directory and normalizes them.
type StationLoader struct {
	dir    string
	format string
	refet  domain.RefETType
}

// NewStationLoader creates a loader for files named by format (a fmt pattern
// taking the station ID) under dir.
func NewStationLoader(dir, format string, refet domain.RefETType) *StationLoader {
	return &StationLoader{dir: dir, format: format, refet: refet}
}

// Path returns the series file path for a station.
func (l *StationLoader) Path(stationID string) string {
	return filepath.Join(l.dir, fmt.Sprintf(l.format, stationID))
}

// Climate reads and normalizes the series of one station.
func (l *StationLoader) Climate(ctx context.Context, stationID string, aridity float64) (*domain.Climate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := l.Path(stationID)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rec, err := ReadStation(f, stationID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return climate.Normalize(rec, aridity, l.refet)
}

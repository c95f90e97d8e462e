package datfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/crop-et-sim/internal/domain"
)

// Columns names the value columns of a record line after the date, in order.
var Columns = []string{"DOY", "PMETo", "Pr.mm", "T30", "ETact", "ETpot", "ETbas", "Irrn", "Seasn", "Runof", "DPerc"}

// ReadRecords parses a file written by the sink. Lines starting with '#' are
// skipped. Cell and crop are not stored in the file and are left empty.
func ReadRecords(r io.Reader) ([]domain.DailyRecord, error) {
	var out []domain.DailyRecord
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		rec, err := parseLine(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	return out, sc.Err()
}

func parseLine(text string) (domain.DailyRecord, error) {
	fields := strings.Fields(text)
	if len(fields) != len(Columns)+1 {
		return domain.DailyRecord{}, fmt.Errorf("%d fields, want %d", len(fields), len(Columns)+1)
	}
	date, err := time.Parse("2006-01-02", fields[0])
	if err != nil {
		return domain.DailyRecord{}, err
	}
	v := make([]float64, len(Columns))
	for i, s := range fields[1:] {
		if v[i], err = strconv.ParseFloat(s, 64); err != nil {
			return domain.DailyRecord{}, fmt.Errorf("column %s: %w", Columns[i], err)
		}
	}
	return domain.DailyRecord{
		Date:       date,
		DOY:        int(v[0]),
		ETRef:      v[1],
		Precip:     v[2],
		T30:        v[3],
		ETAct:      v[4],
		ETPot:      v[5],
		ETBas:      v[6],
		Irrigation: v[7],
		InSeason:   int(v[8]),
		Runoff:     v[9],
		DeepPerc:   v[10],
	}, nil
}

// Values returns the record's columns in Columns order.
func Values(rec domain.DailyRecord) []float64 {
	return []float64{
		float64(rec.DOY), rec.ETRef, rec.Precip, rec.T30,
		rec.ETAct, rec.ETPot, rec.ETBas, rec.Irrigation,
		float64(rec.InSeason), rec.Runoff, rec.DeepPerc,
	}
}

// Command genmock writes a deterministic synthetic input set for the simulator:
// the static cell and crop tables plus one daily weather series per station.
// Temperatures follow a seasonal sine with noise; cold wet days carry snow.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock -cells 4 -years 3 -seed 42
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/crop-et-sim/internal/adapter/statictext"
	"github.com/couchcryptid/crop-et-sim/internal/domain"
)

const weatherFileFormat = "%s_daily.txt"

// mockCrop is one row of the generated crop parameter table.
type mockCrop struct {
	number, class, curve int
	name, curveName      string
	tbase                float64
	triggerDOY           int
	kcMax, t30, term     float64
	killingFrost         float64
}

var crops = []mockCrop{
	{number: 1, class: 1, curve: 1, name: "Alfalfa", curveName: "ALFALFA", tbase: 5, triggerDOY: 1, kcMax: 1.2, t30: 8, term: 0, killingFrost: -6},
	{number: 3, class: 7, curve: 7, name: "Field corn", curveName: "CORN", tbase: -10, triggerDOY: 1, kcMax: 1.15, t30: 14, term: 1600, killingFrost: -2},
	{number: 7, class: 3, curve: 3, name: "Spring grain", curveName: "SPRING GRAIN", tbase: 0, triggerDOY: 1, kcMax: 1.1, t30: 6, term: 1900, killingFrost: -4},
	{number: 13, class: 13, curve: 13, name: "Winter wheat", curveName: "WINTER WHEAT", tbase: 0, triggerDOY: 274, kcMax: 1.1, t30: 4, term: 2300, killingFrost: -20},
	{number: 44, class: 44, curve: 0, name: "Bare soil", curveName: "BARE", tbase: 0, triggerDOY: 1},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output directory")
	cells := flag.Int("cells", 4, "number of ET cells (one station each)")
	years := flag.Int("years", 3, "number of years of daily weather")
	startYear := flag.Int("start-year", 2001, "first year of weather")
	seed := flag.Uint64("seed", 42, "random seed")
	flag.Parse()

	if *out == "" || *cells < 1 || *years < 1 {
		flag.Usage()
		return fmt.Errorf("missing or invalid flags: -out, -cells, -years")
	}

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
	staticDir := filepath.Join(*out, "static")
	weatherDir := filepath.Join(*out, "climate")
	for _, dir := range []string{staticDir, weatherDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	ids := make([]string, *cells)
	for i := range ids {
		ids[i] = fmt.Sprintf("C%03d", i+1)
	}

	if err := writeTable(filepath.Join(staticDir, "ETCellsProperties.txt"), cellProperties(ids, rng)); err != nil {
		return fmt.Errorf("writing cell properties: %w", err)
	}
	if err := writeTable(filepath.Join(staticDir, "ETCellsCrops.txt"), cellCrops(ids, rng)); err != nil {
		return fmt.Errorf("writing cell crops: %w", err)
	}
	if err := writeTable(filepath.Join(staticDir, "CropParams.txt"), cropParams()); err != nil {
		return fmt.Errorf("writing crop parameters: %w", err)
	}
	if err := writeTable(filepath.Join(staticDir, "MeanCuttings.txt"), cuttings(ids, rng)); err != nil {
		return fmt.Errorf("writing cuttings: %w", err)
	}

	start := time.Date(*startYear, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(*startYear+*years, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range ids {
		rec := station(stationID(i), start, end, rng)
		if err := writeStation(filepath.Join(weatherDir, fmt.Sprintf(weatherFileFormat, rec.StationID)), rec); err != nil {
			return fmt.Errorf("writing station for cell %s: %w", id, err)
		}
	}
	log.Printf("wrote %d cells, %d crops, %d years of weather to %s", *cells, len(crops), *years, *out)

	return writeEnv(filepath.Join(*out, "cropet.env"), staticDir, weatherDir)
}

func stationID(i int) string { return fmt.Sprintf("USC%05d", i+1) }

func f(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func cellProperties(ids []string, rng *rand.Rand) [][]string {
	rows := [][]string{{
		"ET Cell ID", "ET Cell Name", "Ref ET ID", "Latitude", "Longitude", "Elevation (feet)",
		"Permeability", "AWC", "Soil Depth", "Hydrologic Group (A-C)", "Hydrologic Group", "Aridity Rating",
	}}
	for i, id := range ids {
		group := 1 + rng.IntN(3)
		rows = append(rows, []string{
			id, "Mock cell " + id, stationID(i),
			f(round(38+rng.Float64()*4, 4)), f(round(-114+rng.Float64()*4, 4)),
			f(round(3500+rng.Float64()*3000, 0)),
			f(round(0.2+rng.Float64()*2, 2)), f(round(1+rng.Float64()*2, 2)), f(round(36+rng.Float64()*36, 0)),
			string(rune('A' + group - 1)), strconv.Itoa(group),
			f(round(rng.Float64()*100, 0)),
		})
	}
	return rows
}

func cellCrops(ids []string, rng *rand.Rand) [][]string {
	numbers := []string{"", "", "", ""}
	names := []string{"ET Cell ID", "ET Cell Name", "Ref ET ID", "Irrigation Flag"}
	for _, c := range crops {
		numbers = append(numbers, strconv.Itoa(c.number))
		names = append(names, c.name)
	}
	rows := [][]string{{"ET cell crops"}, numbers, names}
	for i, id := range ids {
		row := []string{id, "Mock cell " + id, stationID(i), strconv.Itoa(rng.IntN(2))}
		for range crops {
			grown := 0
			if rng.Float64() < 0.6 {
				grown = 1
			}
			row = append(row, strconv.Itoa(grown))
		}
		rows = append(rows, row)
	}
	return rows
}

func cropParams() [][]string {
	rows := [][]string{{
		"CropNum", "Name", "ClassNum", "CurveNum", "CurveName", "CGDD_Tbase",
		"GDD_TrigDOY", "CropKcMax", "T30_CGDD", "CGDD_Term", "KillFrostC",
	}}
	for _, c := range crops {
		rows = append(rows, []string{
			strconv.Itoa(c.number), c.name, strconv.Itoa(c.class), strconv.Itoa(c.curve), c.curveName,
			f(c.tbase), strconv.Itoa(c.triggerDOY), f(c.kcMax), f(c.t30), f(c.term), f(c.killingFrost),
		})
	}
	return rows
}

func cuttings(ids []string, rng *rand.Rand) [][]string {
	rows := [][]string{
		{"Mean number of alfalfa cuttings"},
		{"ET Cell ID", "ET Cell Name", "Latitude", "Number Dairy", "Number Beef"},
	}
	for _, id := range ids {
		beef := 2 + rng.IntN(3)
		rows = append(rows, []string{id, "Mock cell " + id, "", strconv.Itoa(beef + 1), strconv.Itoa(beef)})
	}
	return rows
}

// station builds a daily series over [start, end).
func station(id string, start, end time.Time, rng *rand.Rand) *domain.StationRecord {
	rec := &domain.StationRecord{StationID: id}
	amplitude := 12 + rng.Float64()*4
	mean := 8 + rng.Float64()*4
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		season := math.Sin(2 * math.Pi * float64(d.YearDay()-105) / 365)
		tmean := mean + amplitude*season + rng.NormFloat64()*2
		spread := 6 + rng.Float64()*4
		tmax := tmean + spread
		tmin := tmean - spread

		precip := 0.0
		if rng.Float64() < 0.2 {
			precip = rng.ExpFloat64() * 4
		}
		snow := 0.0
		if precip > 0 && tmean < 0 {
			snow = precip * 10
		}
		eto := max(0.2, 0.18*(tmean+4)+rng.Float64()*0.3)

		rec.Dates = append(rec.Dates, d)
		rec.TMax = append(rec.TMax, round(tmax, 2))
		rec.TMin = append(rec.TMin, round(tmin, 2))
		rec.TDew = append(rec.TDew, round(tmin-1-rng.Float64()*3, 2))
		rec.Wind = append(rec.Wind, round(1+rng.Float64()*4, 2))
		rec.Precip = append(rec.Precip, round(precip, 2))
		rec.Snow = append(rec.Snow, round(snow, 1))
		rec.SnowDepth = append(rec.SnowDepth, 0)
		rec.ETo = append(rec.ETo, round(eto, 3))
		rec.ETr = append(rec.ETr, round(eto*1.25, 3))
	}
	return rec
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}

func writeTable(path string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(file)
	w.Comma = '\t'
	if err := w.WriteAll(rows); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func writeStation(path string, rec *domain.StationRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := statictext.WriteStation(file, rec); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func writeEnv(path, staticDir, weatherDir string) error {
	env := fmt.Sprintf(`CELL_PROPERTIES_PATH=%s
CELL_CROPS_PATH=%s
CROP_PARAMS_PATH=%s
CUTTINGS_PATH=%s
WEATHER_DIR=%s
WEATHER_FILE_FORMAT=%s
`,
		filepath.Join(staticDir, "ETCellsProperties.txt"),
		filepath.Join(staticDir, "ETCellsCrops.txt"),
		filepath.Join(staticDir, "CropParams.txt"),
		filepath.Join(staticDir, "MeanCuttings.txt"),
		weatherDir, weatherFileFormat,
	)
	if err := os.WriteFile(path, []byte(env), 0o600); err != nil {
		return err
	}
	log.Printf("wrote settings: %s", path)
	return nil
}

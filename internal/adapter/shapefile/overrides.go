// Package shapefile applies spatially varying crop parameters. Each
// crop_NN_<name>.shp file in the calibration directory carries one attribute row
// per cell, keyed by CELL_ID, whose fields replace crop NN's parameters for that
// cell.
package shapefile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	shp "github.com/jonas-p/go-shp"

	"github.com/couchcryptid/crop-et-sim/internal/registry"
)

// CellIDField is the attribute holding the cell ID.
const CellIDField = "CELL_ID"

var cropFileRE = regexp.MustCompile(`(?i)^crop_(\d{2})_\w+\.shp$`)

// CellRow is the parsed attribute row for one cell.
type CellRow struct {
	CellID        string
	Override      registry.Override
	DairyCuttings *int
	BeefCuttings  *int
}

// CropFiles returns the crop parameter shapefiles in dir keyed by crop number.
func CropFiles(dir string) (map[int]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read calibration dir: %w", err)
	}
	files := make(map[int]string)
	for _, e := range entries {
		m := cropFileRE.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		files[num] = filepath.Join(dir, e.Name())
	}
	return files, nil
}

// ReadCropFile reads every attribute row of one crop parameter shapefile.
// Blank attributes leave the parameter unchanged.
func ReadCropFile(path string) ([]CellRow, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening shapefile: %w", err)
	}
	defer r.Close()

	fields := make(map[string]int)
	for i, f := range r.Fields() {
		fields[f.String()] = i
	}
	if _, ok := fields[CellIDField]; !ok {
		return nil, fmt.Errorf("%s: no %s field", path, CellIDField)
	}

	var rows []CellRow
	for r.Next() {
		n, _ := r.Shape()
		attr := func(name string) string {
			i, ok := fields[name]
			if !ok {
				return ""
			}
			return strings.Trim(r.ReadAttribute(n, i), "\x00 ")
		}
		p := &attrParser{row: n}
		row := CellRow{CellID: attr(CellIDField)}
		o := &row.Override
		o.Name = p.str(attr("Name"))
		o.ClassNumber = p.int("ClassNum", attr("ClassNum"))
		o.CurveNumber = p.int("CurveNum", attr("CurveNum"))
		o.CurveName = p.str(attr("CurveName"))
		o.TBase = p.float("CGDD_Tbase", attr("CGDD_Tbase"))
		o.KcMax = p.float("CropKcMax", attr("CropKcMax"))
		o.T30ForStart = p.float("T30_CGDD", attr("T30_CGDD"))
		o.CGDDForTermination = p.float("CGDD_Term", attr("CGDD_Term"))
		o.KillingFrostTemperature = p.float("KillFrostC", attr("KillFrostC"))
		row.DairyCuttings = p.int("Dairy_Cur", attr("Dairy_Cur"))
		row.BeefCuttings = p.int("Beef_Cut", attr("Beef_Cut"))
		if p.err != nil {
			return nil, fmt.Errorf("%s: %w", path, p.err)
		}
		rows = append(rows, row)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// Apply loads the shapefiles of the active crops in dir into reg. Rows for cells
// the registry does not know are logged and skipped. It returns the number of
// overrides applied.
func Apply(dir string, reg *registry.Registry, logger *slog.Logger) (int, error) {
	files, err := CropFiles(dir)
	if err != nil {
		return 0, err
	}
	active := reg.ActiveCropNumbers()

	nums := make([]int, 0, len(files))
	for num := range files {
		if slices.Contains(active, num) {
			nums = append(nums, num)
		}
	}
	sort.Ints(nums)

	var applied int
	for _, num := range nums {
		rows, err := ReadCropFile(files[num])
		if err != nil {
			return applied, err
		}
		for _, row := range rows {
			cell, err := reg.Cell(row.CellID)
			if err != nil {
				logger.Warn("spatial crop parameter not applied", "cell_id", row.CellID, "crop", num, "error", err)
				continue
			}
			if err := reg.SetOverride(row.CellID, num, row.Override); err != nil {
				return applied, err
			}
			if row.DairyCuttings != nil {
				cell.DairyCuttings = *row.DairyCuttings
			}
			if row.BeefCuttings != nil {
				cell.BeefCuttings = *row.BeefCuttings
			}
			applied++
		}
		logger.Debug("spatial crop parameters read", "crop", num, "file", files[num], "rows", len(rows))
	}
	return applied, nil
}

type attrParser struct {
	row int
	err error
}

func (p *attrParser) str(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (p *attrParser) int(name, s string) *int {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.fail(name, err)
		return nil
	}
	n := int(f)
	return &n
}

func (p *attrParser) float(name, s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.fail(name, err)
		return nil
	}
	return &f
}

func (p *attrParser) fail(name string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("row %d field %s: %w", p.row, name, err)
	}
}

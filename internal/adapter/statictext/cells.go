package statictext

import (
	"fmt"
	"io"
	"strconv"

	"github.com/couchcryptid/crop-et-sim/internal/domain"
)

// cellIDHeader marks a single-line header in the cell property and cuttings tables.
const cellIDHeader = "ET Cell ID"

// cellPropertyColumns is the fixed column order of the cell properties table.
var cellPropertyColumns = []string{
	"cell_id", "cell_name", "refet_id", "lat", "lon", "elevation_ft",
	"permeability", "whc", "soil_depth", "hydro_group_name", "hydro_group", "aridity",
}

// ReadCellProperties parses the cell properties table. The table has either one
// header line starting with "ET Cell ID" or two header lines.
func ReadCellProperties(r io.Reader) ([]*domain.Cell, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, err
	}
	skip := 2
	if len(rows) > 0 && len(rows[0]) > 0 && rows[0][0] == cellIDHeader {
		skip = 1
	}
	if len(rows) < skip {
		return nil, nil
	}

	cells := make([]*domain.Cell, 0, len(rows)-skip)
	for i, row := range rows[skip:] {
		if len(row) < len(cellPropertyColumns) {
			return nil, fmt.Errorf("cell properties line %d: %d columns, want %d",
				i+skip+1, len(row), len(cellPropertyColumns))
		}
		p := &rowParser{line: i + skip + 1}
		c := domain.NewCell(row[0], row[1], row[2],
			p.float("lat", row[3]),
			p.float("lon", row[4]),
			p.float("elevation_ft", row[5]),
		)
		c.Permeability = p.float("permeability", row[6])
		c.WHC = p.float("whc", row[7])
		c.SoilDepth = p.float("soil_depth", row[8])
		c.HydroGroupName = row[9]
		c.HydroGroup = p.int("hydro_group", row[10])
		c.AridityRating = p.float("aridity", row[11])
		if p.err != nil {
			return nil, fmt.Errorf("cell properties %w", p.err)
		}
		cells = append(cells, c)
	}
	return cells, nil
}

// CellCrops is one row of the cell crops table.
type CellCrops struct {
	CellID         string
	IrrigationFlag int
	Flags          map[int]bool
}

// ReadCellCrops parses the cell crops table: crop numbers on the second line
// from column 5, crop names on the third, then one row per cell with the
// irrigation flag in column 4 and crop flags from column 5.
func ReadCellCrops(r io.Reader) ([]CellCrops, []string, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) < 3 || len(rows[1]) < 5 {
		return nil, nil, fmt.Errorf("cell crops: header lines missing")
	}

	numbers := make([]int, 0, len(rows[1])-4)
	for _, s := range rows[1][4:] {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, nil, fmt.Errorf("cell crops: crop number %q: %w", s, err)
		}
		numbers = append(numbers, n)
	}
	var names []string
	if len(rows[2]) > 4 {
		names = rows[2][4:]
	}

	out := make([]CellCrops, 0, len(rows)-3)
	for i, row := range rows[3:] {
		if len(row) < 4+len(numbers) {
			return nil, nil, fmt.Errorf("cell crops line %d: %d columns, want %d", i+4, len(row), 4+len(numbers))
		}
		p := &rowParser{line: i + 4}
		cc := CellCrops{
			CellID:         row[0],
			IrrigationFlag: p.int("irrigation_flag", row[3]),
			Flags:          make(map[int]bool, len(numbers)),
		}
		for j, num := range numbers {
			cc.Flags[num] = p.flag(strconv.Itoa(num), row[4+j])
		}
		if p.err != nil {
			return nil, nil, fmt.Errorf("cell crops %w", p.err)
		}
		out = append(out, cc)
	}
	return out, names, nil
}

// Cuttings is one row of the mean cuttings table.
type Cuttings struct {
	CellID string
	Dairy  int
	Beef   int
}

// ReadCuttings parses the mean cuttings table. Two header lines are skipped;
// the cell ID column is located by the "ET Cell ID" heading on the second line
// and defaults to the first column.
func ReadCuttings(r io.Reader) ([]Cuttings, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, nil
	}
	idCol := 0
	for i, name := range rows[1] {
		if name == cellIDHeader {
			idCol = i
			break
		}
	}

	out := make([]Cuttings, 0, len(rows)-2)
	for i, row := range rows[2:] {
		if len(row) < 5 || len(row) <= idCol {
			return nil, fmt.Errorf("cuttings line %d: too few columns", i+3)
		}
		p := &rowParser{line: i + 3}
		c := Cuttings{
			CellID: row[idCol],
			Dairy:  p.int("dairy_cuttings", row[3]),
			Beef:   p.int("beef_cuttings", row[4]),
		}
		if p.err != nil {
			return nil, fmt.Errorf("cuttings %w", p.err)
		}
		out = append(out, c)
	}
	return out, nil
}

package statictext

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/crop-et-sim/internal/registry"
)

// Paths locates the static input tables. Cuttings is optional.
type Paths struct {
	CellProperties string
	CellCrops      string
	CropParams     string
	Cuttings       string
}

// LoadRegistry reads the static tables into a new registry. A cell referenced by
// the crops or cuttings tables but absent from the properties table is fatal.
func LoadRegistry(paths Paths, logger *slog.Logger) (*registry.Registry, error) {
	reg := registry.New()

	cells, err := loadWith(paths.CellProperties, ReadCellProperties)
	if err != nil {
		return nil, fmt.Errorf("cell properties: %w", err)
	}
	for _, c := range cells {
		reg.AddCell(c)
	}

	crops, err := loadWith(paths.CropParams, ReadCropParams)
	if err != nil {
		return nil, fmt.Errorf("crop parameters: %w", err)
	}
	for _, c := range crops {
		reg.AddCrop(c)
	}

	data, err := os.ReadFile(paths.CellCrops)
	if err != nil {
		return nil, fmt.Errorf("cell crops: %w", err)
	}
	cellCrops, _, err := ReadCellCrops(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", paths.CellCrops, err)
	}
	for _, cc := range cellCrops {
		cell, err := reg.Cell(cc.CellID)
		if err != nil {
			return nil, fmt.Errorf("cell crops: %w", err)
		}
		cell.IrrigationFlag = cc.IrrigationFlag
		if err := reg.SetCropFlags(cc.CellID, cc.Flags); err != nil {
			return nil, err
		}
	}

	if paths.Cuttings != "" {
		cuttings, err := loadWith(paths.Cuttings, ReadCuttings)
		if err != nil {
			return nil, fmt.Errorf("cuttings: %w", err)
		}
		for _, ct := range cuttings {
			cell, err := reg.Cell(ct.CellID)
			if err != nil {
				return nil, fmt.Errorf("cuttings: %w", err)
			}
			cell.DairyCuttings = ct.Dairy
			cell.BeefCuttings = ct.Beef
		}
	}

	logger.Info("static tables loaded",
		"cells", len(cells),
		"crops", len(crops),
		"active_crops", len(reg.ActiveCropNumbers()),
	)
	return reg, nil
}

func loadWith[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	data, err := os.ReadFile(path)
	if err != nil {
		return zero, err
	}
	v, err := read(bytes.NewReader(data))
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

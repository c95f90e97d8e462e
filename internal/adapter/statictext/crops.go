package statictext

import (
	"fmt"
	"io"

	"github.com/couchcryptid/crop-et-sim/internal/domain"
)

// Crop parameter column names. They match the spatial override attribute names.
const (
	colCropNum      = "CropNum"
	colName         = "Name"
	colClassNum     = "ClassNum"
	colCurveNum     = "CurveNum"
	colCurveName    = "CurveName"
	colCurveType    = "CurveType"
	colTBase        = "CGDD_Tbase"
	colTriggerDOY   = "GDD_TrigDOY"
	colIrrigFlag    = "IrrigFlag"
	colIrrigDays    = "IrrigDays"
	colKcMax        = "CropKcMax"
	colT30          = "T30_CGDD"
	colCGDDEFC      = "CGDD_EFC"
	colCGDDTerm     = "CGDD_Term"
	colKillingFrost = "KillFrostC"
)

// requiredCropColumns must be present and non-blank for every crop.
var requiredCropColumns = []string{
	colCropNum, colClassNum, colCurveNum, colTBase, colTriggerDOY,
	colKcMax, colT30, colCGDDTerm, colKillingFrost,
}

// ReadCropParams parses the crop parameter table: one header line of column
// names, then one crop per row. Category and GDD policy are resolved. Columns
// outside requiredCropColumns are optional and read blank as zero.
func ReadCropParams(r io.Reader) ([]*domain.Crop, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	h := newHeader(rows[0])
	if err := h.require(requiredCropColumns...); err != nil {
		return nil, fmt.Errorf("crop parameters: %w", err)
	}

	crops := make([]*domain.Crop, 0, len(rows)-1)
	for i, row := range rows[1:] {
		p := &rowParser{line: i + 2}
		c := &domain.Crop{
			Number:                      p.requiredInt(colCropNum, h.field(row, colCropNum)),
			Name:                        h.field(row, colName),
			ClassNumber:                 p.requiredInt(colClassNum, h.field(row, colClassNum)),
			CurveNumber:                 p.requiredInt(colCurveNum, h.field(row, colCurveNum)),
			CurveName:                   h.field(row, colCurveName),
			CurveType:                   p.int(colCurveType, h.field(row, colCurveType)),
			TBase:                       p.requiredFloat(colTBase, h.field(row, colTBase)),
			GDDTriggerDOY:               p.requiredInt(colTriggerDOY, h.field(row, colTriggerDOY)),
			IrrigationFlag:              p.int(colIrrigFlag, h.field(row, colIrrigFlag)),
			DaysAfterPlantingIrrigation: p.int(colIrrigDays, h.field(row, colIrrigDays)),
			KcMax:                       p.requiredFloat(colKcMax, h.field(row, colKcMax)),
			T30ForStart:                 p.requiredFloat(colT30, h.field(row, colT30)),
			CGDDForEFC:                  p.float(colCGDDEFC, h.field(row, colCGDDEFC)),
			CGDDForTermination:          p.requiredFloat(colCGDDTerm, h.field(row, colCGDDTerm)),
			KillingFrostTemperature:     p.requiredFloat(colKillingFrost, h.field(row, colKillingFrost)),
		}
		if p.err != nil {
			return nil, fmt.Errorf("crop parameters %w", p.err)
		}
		domain.ResolveCrop(c)
		crops = append(crops, c)
	}
	return crops, nil
}

package shapefile

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	shp "github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/crop-et-sim/internal/domain"
	"github.com/couchcryptid/crop-et-sim/internal/registry"
)

type testRow struct {
	cellID    string
	tbase     string
	curveName string
	dairy     string
}

// writeCropFile writes a point shapefile with one record per row. Empty values
// are left unwritten.
func writeCropFile(t *testing.T, dir, name string, rows []testRow) string {
	t.Helper()
	path := filepath.Join(dir, name)
	w, err := shp.Create(path, shp.POINT)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField(CellIDField, 10),
		shp.FloatField("CGDD_Tbase", 10, 2),
		shp.StringField("CurveName", 20),
		shp.NumberField("Dairy_Cur", 4),
	}))
	for _, r := range rows {
		n := int(w.Write(&shp.Point{X: -111, Y: 40}))
		require.NoError(t, w.WriteAttribute(n, 0, r.cellID))
		if r.tbase != "" {
			require.NoError(t, w.WriteAttribute(n, 1, r.tbase))
		}
		if r.curveName != "" {
			require.NoError(t, w.WriteAttribute(n, 2, r.curveName))
		}
		if r.dairy != "" {
			require.NoError(t, w.WriteAttribute(n, 3, r.dairy))
		}
	}
	w.Close()

	// The writer names the attribute table without the extension dot.
	base := strings.TrimSuffix(path, ".shp")
	if _, err := os.Stat(base + "dbf"); err == nil {
		require.NoError(t, os.Rename(base+"dbf", base+".dbf"))
	}
	return path
}

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New()
	r.AddCell(domain.NewCell("A", "Cell A", "S1", 40, -111, 4500))
	r.AddCell(domain.NewCell("B", "Cell B", "S2", 41, -112, 5000))
	r.AddCrop(&domain.Crop{Number: 3, Name: "Alfalfa", ClassNumber: 1, CurveNumber: 1, CurveName: "ALFALFA", TBase: 5, GDDTriggerDOY: 1})
	r.AddCrop(&domain.Crop{Number: 7, Name: "Corn", ClassNumber: 7, CurveNumber: 7, CurveName: "CORN", TBase: -10, GDDTriggerDOY: 1})
	require.NoError(t, r.SetCropFlags("A", map[int]bool{3: true, 7: false}))
	require.NoError(t, r.SetCropFlags("B", map[int]bool{3: true}))
	return r
}

func TestCropFiles(t *testing.T) {
	dir := t.TempDir()
	writeCropFile(t, dir, "crop_03_alfalfa.shp", nil)
	writeCropFile(t, dir, "crop_07_corn.shp", nil)
	writeCropFile(t, dir, "fields.shp", nil)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "crop_09_dir.shp"), 0o755))

	files, err := CropFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, map[int]string{
		3: filepath.Join(dir, "crop_03_alfalfa.shp"),
		7: filepath.Join(dir, "crop_07_corn.shp"),
	}, files)

	_, err = CropFiles(filepath.Join(dir, "missing"))
	require.Error(t, err)
}

func TestReadCropFile(t *testing.T) {
	dir := t.TempDir()
	path := writeCropFile(t, dir, "crop_03_alfalfa.shp", []testRow{
		{cellID: "A", tbase: "8.5", curveName: "WINTER ALF", dairy: "5"},
		{cellID: "B"},
	})

	rows, err := ReadCropFile(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	a := rows[0]
	assert.Equal(t, "A", a.CellID)
	require.NotNil(t, a.Override.TBase)
	assert.Equal(t, 8.5, *a.Override.TBase)
	require.NotNil(t, a.Override.CurveName)
	assert.Equal(t, "WINTER ALF", *a.Override.CurveName)
	require.NotNil(t, a.DairyCuttings)
	assert.Equal(t, 5, *a.DairyCuttings)
	assert.Nil(t, a.BeefCuttings, "absent field")
	assert.Nil(t, a.Override.KcMax, "absent field")

	b := rows[1]
	assert.Equal(t, "B", b.CellID)
	assert.Nil(t, b.Override.TBase, "blank attribute")
	assert.Nil(t, b.Override.CurveName, "blank attribute")
	assert.Nil(t, b.DairyCuttings, "blank attribute")
}

func TestReadCropFile_BadNumber(t *testing.T) {
	dir := t.TempDir()
	path := writeCropFile(t, dir, "crop_03_alfalfa.shp", []testRow{{cellID: "A", tbase: "warm"}})

	_, err := ReadCropFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field CGDD_Tbase")
}

func TestApply(t *testing.T) {
	dir := t.TempDir()
	writeCropFile(t, dir, "crop_03_alfalfa.shp", []testRow{
		{cellID: "A", tbase: "8", dairy: "6"},
		{cellID: "Z", tbase: "1"},
	})
	// Crop 7 is inactive everywhere so its file is never read.
	writeCropFile(t, dir, "crop_07_corn.shp", []testRow{{cellID: "A", tbase: "oops"}})

	reg := newTestRegistry(t)
	n, err := Apply(dir, reg, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, 1, n, "unknown cell is skipped")

	a, err := reg.CropFor("A", 3)
	require.NoError(t, err)
	assert.Equal(t, 8.0, a.TBase)

	b, err := reg.CropFor("B", 3)
	require.NoError(t, err)
	assert.Equal(t, 5.0, b.TBase, "other cells keep the shared parameters")

	cell, err := reg.Cell("A")
	require.NoError(t, err)
	assert.Equal(t, 6, cell.DairyCuttings)
}

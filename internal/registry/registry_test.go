package registry

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/crop-et-sim/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := New()
	r.AddCell(domain.NewCell("A", "Cell A", "S1", 40, -111, 4500))
	r.AddCell(domain.NewCell("B", "Cell B", "S2", 41, -112, 5000))
	r.AddCrop(&domain.Crop{Number: 3, Name: "Alfalfa", ClassNumber: 1, CurveNumber: 1, CurveName: "ALFALFA", TBase: 5, GDDTriggerDOY: 1})
	r.AddCrop(&domain.Crop{Number: 7, Name: "Corn", ClassNumber: 7, CurveNumber: 7, CurveName: "CORN", TBase: -10, GDDTriggerDOY: 1})
	r.AddCrop(&domain.Crop{Number: 13, Name: "Winter wheat", ClassNumber: 13, CurveNumber: 13, CurveName: "WINTER WHEAT", GDDTriggerDOY: 274})
	require.NoError(t, r.SetCropFlags("A", map[int]bool{3: true, 7: true, 13: false}))
	require.NoError(t, r.SetCropFlags("B", map[int]bool{13: true}))
	return r
}

func TestRegistry_Lookups(t *testing.T) {
	r := newTestRegistry(t)

	cell, err := r.Cell("A")
	require.NoError(t, err)
	assert.Equal(t, "S1", cell.RefETID)

	_, err = r.Cell("Z")
	require.ErrorIs(t, err, domain.ErrMissingCell)
	assert.Contains(t, err.Error(), `"Z"`)

	crop, err := r.CropFor("A", 7)
	require.NoError(t, err)
	assert.Equal(t, domain.PolicyCornModified, crop.Policy.Kind)
	assert.Equal(t, 10.0, crop.Policy.Base)

	_, err = r.CropFor("A", 99)
	require.ErrorIs(t, err, domain.ErrMissingCrop)
	assert.Contains(t, err.Error(), "crop 99")
}

func TestRegistry_ActiveCropsAndPairs(t *testing.T) {
	r := newTestRegistry(t)

	nums, err := r.ActiveCrops("A")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 7}, nums)

	assert.Equal(t, []Pair{{"A", 3}, {"A", 7}, {"B", 13}}, r.Pairs())
	assert.Equal(t, []int{3, 7, 13}, r.ActiveCropNumbers())
}

func TestRegistry_OverrideIsPerCell(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.SetOverride("A", 3, Override{
		TBase:     ptr(8.0),
		CurveName: ptr("WINTER ALFALFA"),
	}))

	a, err := r.CropFor("A", 3)
	require.NoError(t, err)
	assert.Equal(t, 8.0, a.Policy.Base)
	assert.Equal(t, domain.CategoryWinter, a.Category, "override is re-resolved")

	shared, err := r.Crop(3)
	require.NoError(t, err)
	assert.Equal(t, 5.0, shared.TBase, "shared record is untouched")
	assert.Equal(t, domain.CategoryStandard, shared.Category)

	require.ErrorIs(t, r.SetOverride("Z", 3, Override{}), domain.ErrMissingCell)
}

func TestRegistry_FilterCrops(t *testing.T) {
	t.Run("skip list", func(t *testing.T) {
		r := newTestRegistry(t)
		r.FilterCrops([]int{13}, nil, slog.Default())

		assert.Equal(t, []string{"A"}, r.CellIDs(), "cell B has no crops left")
		assert.Equal(t, []Pair{{"A", 3}, {"A", 7}}, r.Pairs())
	})

	t.Run("test list", func(t *testing.T) {
		r := newTestRegistry(t)
		r.FilterCrops(nil, []int{7}, slog.Default())

		assert.Equal(t, []Pair{{"A", 7}}, r.Pairs())
	})

	t.Run("no lists", func(t *testing.T) {
		r := newTestRegistry(t)
		r.FilterCrops(nil, nil, slog.Default())
		assert.Len(t, r.Pairs(), 3)
	})
}

func TestRegistry_Validate(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Validate())

	require.NoError(t, r.SetCropFlags("B", map[int]bool{13: true, 42: true}))
	err := r.Validate()
	require.ErrorIs(t, err, domain.ErrMissingCrop)
	assert.Contains(t, err.Error(), "crop 42")

	require.ErrorIs(t, r.SetCropFlags("Z", nil), domain.ErrMissingCell)
}

package datfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/crop-et-sim/internal/domain"
)

func TestFormatRecord(t *testing.T) {
	rec := domain.DailyRecord{
		Date:     time.Date(2001, 3, 5, 0, 0, 0, 0, time.UTC),
		DOY:      64,
		ETRef:    2.5,
		Precip:   1.25,
		T30:      -3.4567,
		ETAct:    0.375,
		ETPot:    0.375,
		ETBas:    0.375,
		InSeason: 1,
	}
	want := "2001-03-05  64     2.500     1.250    -3.457     0.375     0.375     0.375     0.000     1     0.000     0.000\n"
	assert.Equal(t, want, FormatRecord(rec))
}

func TestSink_WritesOneFilePerPair(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	s, err := NewSink(dir)
	require.NoError(t, err)
	assert.Equal(t, "datfile", s.Name())

	cell := &domain.Cell{ID: "A"}
	crop := &domain.Crop{Number: 3}
	st, err := s.Open(context.Background(), cell, crop)
	require.NoError(t, err)

	day := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 3 {
		require.NoError(t, st.Write(context.Background(), domain.DailyRecord{
			CellID: "A", CropNumber: 3, Date: day.AddDate(0, 0, i), DOY: i + 1, ETRef: 5,
		}))
	}
	require.NoError(t, st.Close())

	data, err := os.ReadFile(filepath.Join(dir, "A_3.dat"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "#     Date DOY     PMETo"))
	assert.True(t, strings.HasPrefix(lines[3], "2001-01-03   3     5.000"))
}

func TestSink_OpenFailure(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSink(dir)
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(s.Path("A", 3), 0o755))

	_, err = s.Open(context.Background(), &domain.Cell{ID: "A"}, &domain.Crop{Number: 3})
	require.Error(t, err)
}

func TestReadRecords_ParsesSinkOutput(t *testing.T) {
	day := time.Date(2001, 6, 1, 0, 0, 0, 0, time.UTC)
	want := domain.DailyRecord{
		Date: day, DOY: 152, ETRef: 6.125, Precip: 2, T30: 18.5,
		ETAct: 5.5, ETPot: 5.5, ETBas: 5.5, InSeason: 1, Runoff: 0.25,
	}
	text := "#     Date DOY     PMETo\n" + FormatRecord(want) + "\n"

	got, err := ReadRecords(strings.NewReader(text))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, want, got[0])
	assert.Equal(t, 152.0, Values(got[0])[0])
	assert.Len(t, Values(got[0]), len(Columns))
}

func TestReadRecords_Errors(t *testing.T) {
	_, err := ReadRecords(strings.NewReader("2001-06-01 152 1.0\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")

	_, err = ReadRecords(strings.NewReader("2001-06-01 152 x 0 0 0 0 0 0 0 0 0\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "column PMETo")
}

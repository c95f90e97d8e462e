package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/crop-et-sim/internal/domain"
)

func openTestSink(t *testing.T) *Sink {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "cropet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func records(cellID string, crop, n int, etref float64) []domain.DailyRecord {
	day := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.DailyRecord, n)
	for i := range n {
		out[i] = domain.DailyRecord{
			CellID:     cellID,
			CropNumber: crop,
			Date:       day.AddDate(0, 0, i),
			DOY:        i + 1,
			ETRef:      etref,
			T30:        float64(i) / 2,
			ETAct:      etref * 0.15,
			InSeason:   i % 2,
		}
	}
	return out
}

func writeAll(t *testing.T, s *Sink, cellID string, crop int, recs []domain.DailyRecord) {
	t.Helper()
	ctx := context.Background()
	st, err := s.Open(ctx, &domain.Cell{ID: cellID}, &domain.Crop{Number: crop})
	require.NoError(t, err)
	for _, r := range recs {
		require.NoError(t, st.Write(ctx, r))
	}
	require.NoError(t, st.Close())
}

func TestSink_RoundTrip(t *testing.T) {
	s := openTestSink(t)
	assert.Equal(t, "sqlite", s.Name())
	require.NoError(t, s.CheckReadiness(context.Background()))

	want := records("A", 3, 5, 4)
	writeAll(t, s, "A", 3, want)
	writeAll(t, s, "B", 3, records("B", 3, 2, 1))

	got, err := s.Records(context.Background(), "A", 3)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestSink_RerunReplacesRows(t *testing.T) {
	s := openTestSink(t)
	writeAll(t, s, "A", 3, records("A", 3, 5, 4))
	writeAll(t, s, "A", 3, records("A", 3, 2, 6))

	got, err := s.Records(context.Background(), "A", 3)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 6.0, got[0].ETRef)
}

func TestSink_FailedWriteRollsBack(t *testing.T) {
	s := openTestSink(t)
	ctx := context.Background()
	recs := records("A", 3, 2, 4)

	st, err := s.Open(ctx, &domain.Cell{ID: "A"}, &domain.Crop{Number: 3})
	require.NoError(t, err)
	require.NoError(t, st.Write(ctx, recs[0]))
	require.Error(t, st.Write(ctx, recs[0]), "duplicate date violates the primary key")
	require.NoError(t, st.Close())

	got, err := s.Records(ctx, "A", 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSink_ReadyWhilePairOpen(t *testing.T) {
	s := openTestSink(t)
	writeAll(t, s, "A", 3, records("A", 3, 2, 4))

	ctx := context.Background()
	st, err := s.Open(ctx, &domain.Cell{ID: "B"}, &domain.Crop{Number: 3})
	require.NoError(t, err)
	require.NoError(t, st.Write(ctx, records("B", 3, 1, 1)[0]))

	pingCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, s.CheckReadiness(pingCtx))

	got, err := s.Records(pingCtx, "A", 3)
	require.NoError(t, err)
	assert.Len(t, got, 2, "committed rows stay readable")

	got, err = s.Records(pingCtx, "B", 3)
	require.NoError(t, err)
	assert.Empty(t, got, "open pair is not visible until commit")

	require.NoError(t, st.Close())
	got, err = s.Records(ctx, "B", 3)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

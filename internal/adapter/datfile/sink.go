// Package datfile writes daily records as fixed-width text, one file per
// (cell, crop) pair.
package datfile

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/crop-et-sim/internal/domain"
	"github.com/couchcryptid/crop-et-sim/internal/phenology"
)

const (
	headerFormat = "%10s %3s %9s %9s %9s %9s %9s %9s %9s %5s %9s %9s\n"
	rowFormat    = "%10s %3d %9.3f %9.3f %9.3f %9.3f %9.3f %9.3f %9.3f %5d %9.3f %9.3f\n"
)

// Sink creates <dir>/<cellID>_<cropNumber>.dat files.
type Sink struct {
	dir string
}

// NewSink creates the output directory if needed.
func NewSink(dir string) (*Sink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Sink{dir: dir}, nil
}

func (s *Sink) Name() string { return "datfile" }

// Path returns the output file for a pair.
func (s *Sink) Path(cellID string, cropNumber int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%d.dat", cellID, cropNumber))
}

// Open truncates the pair's file and writes the column header.
func (s *Sink) Open(_ context.Context, cell *domain.Cell, crop *domain.Crop) (phenology.RecordStream, error) {
	f, err := os.Create(s.Path(cell.ID, crop.Number))
	if err != nil {
		return nil, err
	}
	st := &stream{f: f, w: bufio.NewWriter(f)}
	if err := WriteHeader(st.w); err != nil {
		f.Close()
		return nil, err
	}
	return st, nil
}

// WriteHeader writes the commented column header line.
func WriteHeader(w *bufio.Writer) error {
	_, err := fmt.Fprintf(w, headerFormat,
		"#     Date", "DOY", "PMETo", "Pr.mm", "T30", "ETact",
		"ETpot", "ETbas", "Irrn", "Seasn", "Runof", "DPerc")
	return err
}

// FormatRecord renders one record as a fixed-width line.
func FormatRecord(rec domain.DailyRecord) string {
	return fmt.Sprintf(rowFormat,
		rec.Date.Format("2006-01-02"), rec.DOY,
		rec.ETRef, rec.Precip, rec.T30,
		rec.ETAct, rec.ETPot, rec.ETBas,
		rec.Irrigation, rec.InSeason, rec.Runoff, rec.DeepPerc)
}

type stream struct {
	f *os.File
	w *bufio.Writer
}

func (s *stream) Write(_ context.Context, rec domain.DailyRecord) error {
	_, err := s.w.WriteString(FormatRecord(rec))
	return err
}

func (s *stream) Close() error {
	if err := s.w.Flush(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}

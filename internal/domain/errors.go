package domain

import "errors"

var (
	// ErrMissingCell is returned when a cell ID cannot be resolved.
	ErrMissingCell = errors.New("missing cell")

	// ErrMissingCrop is returned when a crop number has no parameter record.
	ErrMissingCrop = errors.New("missing crop parameters")

	// ErrUnresolvedPolicy is returned when a crop reaches the daily loop without a
	// resolved GDD policy.
	ErrUnresolvedPolicy = errors.New("unresolved gdd policy")

	// ErrNonConsecutiveDates is returned when a daily series skips or repeats a day.
	ErrNonConsecutiveDates = errors.New("non-consecutive dates")

	// ErrSeriesLength is returned when the columns of a daily series differ in length.
	ErrSeriesLength = errors.New("series length mismatch")
)

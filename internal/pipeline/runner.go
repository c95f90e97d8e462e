package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/crop-et-sim/internal/domain"
	"github.com/couchcryptid/crop-et-sim/internal/observability"
	"github.com/couchcryptid/crop-et-sim/internal/phenology"
	"github.com/couchcryptid/crop-et-sim/internal/registry"
)

// ClimateSource provides normalized climate for a station and aridity rating.
type ClimateSource interface {
	Climate(ctx context.Context, stationID string, aridity float64) (*domain.Climate, error)
}

// Simulator runs one (cell, crop) pair over a climate series.
type Simulator interface {
	Run(ctx context.Context, cell *domain.Cell, crop *domain.Crop, c *domain.Climate, window domain.Window, stream phenology.RecordStream) (phenology.Summary, error)
}

// Sink opens one record stream per (cell, crop) pair.
type Sink interface {
	Name() string
	Open(ctx context.Context, cell *domain.Cell, crop *domain.Crop) (phenology.RecordStream, error)
}

// Options tune a Runner.
type Options struct {
	Workers int
	Window  domain.Window
}

// PairError records the failure of a single pair.
type PairError struct {
	Pair registry.Pair
	Err  error
}

func (e PairError) Error() string {
	return fmt.Sprintf("cell %s crop %d: %v", e.Pair.CellID, e.Pair.CropNumber, e.Err)
}

func (e PairError) Unwrap() error { return e.Err }

// Report summarizes a completed run.
type Report struct {
	Pairs     int
	Succeeded int
	Days      int
	Resets    int
	Failures  []PairError
}

// Runner fans the active (cell, crop) pairs of a registry out over a bounded
// worker pool.
type Runner struct {
	registry *registry.Registry
	climate  ClimateSource
	sim      Simulator
	sink     Sink
	logger   *slog.Logger
	metrics  *observability.Metrics
	opts     Options
	started  atomic.Bool
	running  atomic.Bool
	total    atomic.Int64
	done     atomic.Int64
	failed   atomic.Int64
}

// Progress is a point-in-time view of a run.
type Progress struct {
	Running bool  `json:"running"`
	Pairs   int64 `json:"pairs"`
	Done    int64 `json:"done"`
	Failed  int64 `json:"failed"`
}

// NewRunner creates a Runner with the given collaborators and observability.
func NewRunner(reg *registry.Registry, climate ClimateSource, sim Simulator, sink Sink, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Runner{
		registry: reg,
		climate:  climate,
		sim:      sim,
		sink:     sink,
		logger:   logger,
		metrics:  metrics,
		opts:     opts,
	}
}

// CheckReadiness returns nil once a run has started, or an error describing why
// the service is not yet ready.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if !r.started.Load() {
		return errors.New("runner has not started a simulation yet")
	}
	return nil
}

// Progress reports how many pairs have finished.
func (r *Runner) Progress() Progress {
	return Progress{
		Running: r.running.Load(),
		Pairs:   r.total.Load(),
		Done:    r.done.Load(),
		Failed:  r.failed.Load(),
	}
}

// Run simulates every active pair. Missing or unresolvable crop parameters and
// context cancellation abort the run; any other pair failure is recorded in the
// report and the remaining pairs continue.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	if err := r.registry.Validate(); err != nil {
		return Report{}, fmt.Errorf("validate registry: %w", err)
	}

	pairs := r.registry.Pairs()
	report := Report{Pairs: len(pairs)}
	r.logger.Info("simulation started", "pairs", len(pairs), "workers", r.opts.Workers, "sink", r.sink.Name())
	r.total.Store(int64(len(pairs)))
	r.done.Store(0)
	r.failed.Store(0)
	r.started.Store(true)
	r.running.Store(true)
	defer r.running.Store(false)
	r.metrics.RunnerActive.Set(1)
	defer r.metrics.RunnerActive.Set(0)

	start := domain.Now()
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	for _, p := range pairs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			sum, err := r.runPair(gctx, p)
			r.done.Add(1)
			if err != nil {
				r.failed.Add(1)
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if isFatal(err) {
					return PairError{Pair: p, Err: err}
				}
				report.Failures = append(report.Failures, PairError{Pair: p, Err: err})
				return nil
			}
			report.Succeeded++
			report.Days += sum.Days
			report.Resets += sum.Resets
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	r.logger.Info("simulation finished",
		"pairs", report.Pairs,
		"succeeded", report.Succeeded,
		"failed", len(report.Failures),
		"days", report.Days,
		"duration", domain.Since(start),
	)
	return report, nil
}

// runPair simulates one pair. The stream is closed on every path once opened.
func (r *Runner) runPair(ctx context.Context, p registry.Pair) (sum phenology.Summary, err error) {
	start := domain.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
			r.logger.Warn("pair failed", "cell_id", p.CellID, "crop", p.CropNumber, "error", err)
		}
		r.metrics.PairRuns.WithLabelValues(outcome).Inc()
		r.metrics.PairDuration.Observe(domain.Since(start).Seconds())
	}()

	cell, err := r.registry.Cell(p.CellID)
	if err != nil {
		return sum, err
	}
	crop, err := r.registry.CropFor(p.CellID, p.CropNumber)
	if err != nil {
		return sum, err
	}
	clim, err := r.climate.Climate(ctx, cell.RefETID, cell.AridityRating)
	if err != nil {
		return sum, err
	}

	stream, err := r.sink.Open(ctx, cell, crop)
	if err != nil {
		return sum, fmt.Errorf("open %s stream: %w", r.sink.Name(), err)
	}
	defer func() {
		if cerr := stream.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s stream: %w", r.sink.Name(), cerr)
		}
	}()

	sum, err = r.sim.Run(ctx, cell, crop, clim, r.opts.Window, stream)
	r.metrics.DaysSimulated.Add(float64(sum.Days))
	r.metrics.SeasonResets.Add(float64(sum.Resets))
	if err != nil {
		return sum, err
	}
	r.metrics.RecordsWritten.WithLabelValues(r.sink.Name()).Add(float64(sum.Days))
	r.logger.Debug("pair finished", "cell_id", p.CellID, "crop", p.CropNumber, "days", sum.Days, "resets", sum.Resets)
	return sum, nil
}

// isFatal reports errors that invalidate the whole run rather than one pair.
func isFatal(err error) bool {
	return errors.Is(err, domain.ErrMissingCell) ||
		errors.Is(err, domain.ErrMissingCrop) ||
		errors.Is(err, domain.ErrUnresolvedPolicy) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

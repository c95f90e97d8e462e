// Package registry holds the static cell properties, crop parameter records, crop
// activity flags and per-cell crop parameter overrides for a simulation run.
package registry

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/couchcryptid/crop-et-sim/internal/domain"
)

// Override replaces selected crop parameters for one cell. Nil fields keep the
// shared crop value.
type Override struct {
	Name                    *string
	ClassNumber             *int
	CurveNumber             *int
	CurveName               *string
	TBase                   *float64
	KcMax                   *float64
	T30ForStart             *float64
	CGDDForTermination      *float64
	KillingFrostTemperature *float64
}

// Pair identifies one (cell, crop) simulation run.
type Pair struct {
	CellID     string
	CropNumber int
}

// Registry is safe for concurrent reads once loading is complete.
type Registry struct {
	mu        sync.RWMutex
	cells     map[string]*domain.Cell
	crops     map[int]*domain.Crop
	overrides map[string]map[int]Override
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		cells:     make(map[string]*domain.Cell),
		crops:     make(map[int]*domain.Crop),
		overrides: make(map[string]map[int]Override),
	}
}

// AddCell registers a cell, replacing any cell with the same ID.
func (r *Registry) AddCell(c *domain.Cell) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.CropFlags == nil {
		c.CropFlags = make(map[int]bool)
	}
	r.cells[c.ID] = c
}

// AddCrop registers a crop parameter record and resolves its category and policy.
func (r *Registry) AddCrop(c *domain.Crop) {
	domain.ResolveCrop(c)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.crops[c.Number] = c
}

// SetCropFlags replaces the crop activity flags of a cell.
func (r *Registry) SetCropFlags(cellID string, flags map[int]bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cell, ok := r.cells[cellID]
	if !ok {
		return fmt.Errorf("set crop flags for cell %q: %w", cellID, domain.ErrMissingCell)
	}
	cell.CropFlags = flags
	return nil
}

// SetOverride records per-cell parameter replacements for one crop.
func (r *Registry) SetOverride(cellID string, cropNum int, o Override) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cells[cellID]; !ok {
		return fmt.Errorf("override crop %d for cell %q: %w", cropNum, cellID, domain.ErrMissingCell)
	}
	if r.overrides[cellID] == nil {
		r.overrides[cellID] = make(map[int]Override)
	}
	r.overrides[cellID][cropNum] = o
	return nil
}

// Cell returns the cell with the given ID.
func (r *Registry) Cell(id string) (*domain.Cell, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cells[id]
	if !ok {
		return nil, fmt.Errorf("cell %q: %w", id, domain.ErrMissingCell)
	}
	return c, nil
}

// Crop returns the shared parameter record of a crop.
func (r *Registry) Crop(num int) (*domain.Crop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.crops[num]
	if !ok {
		return nil, fmt.Errorf("crop %d: %w", num, domain.ErrMissingCrop)
	}
	return c, nil
}

// CropFor returns the crop parameters for a cell. When the cell overrides any
// parameter a resolved copy is returned; otherwise the shared record is.
func (r *Registry) CropFor(cellID string, cropNum int) (*domain.Crop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.cells[cellID]; !ok {
		return nil, fmt.Errorf("cell %q: %w", cellID, domain.ErrMissingCell)
	}
	base, ok := r.crops[cropNum]
	if !ok {
		return nil, fmt.Errorf("crop %d for cell %q: %w", cropNum, cellID, domain.ErrMissingCrop)
	}
	o, ok := r.overrides[cellID][cropNum]
	if !ok {
		return base, nil
	}
	c := base.Clone()
	o.apply(c)
	domain.ResolveCrop(c)
	return c, nil
}

func (o Override) apply(c *domain.Crop) {
	if o.Name != nil {
		c.Name = *o.Name
	}
	if o.ClassNumber != nil {
		c.ClassNumber = *o.ClassNumber
	}
	if o.CurveNumber != nil {
		c.CurveNumber = *o.CurveNumber
	}
	if o.CurveName != nil {
		c.CurveName = *o.CurveName
	}
	if o.TBase != nil {
		c.TBase = *o.TBase
	}
	if o.KcMax != nil {
		c.KcMax = *o.KcMax
	}
	if o.T30ForStart != nil {
		c.T30ForStart = *o.T30ForStart
	}
	if o.CGDDForTermination != nil {
		c.CGDDForTermination = *o.CGDDForTermination
	}
	if o.KillingFrostTemperature != nil {
		c.KillingFrostTemperature = *o.KillingFrostTemperature
	}
}

// CellIDs returns all cell IDs in sorted order.
func (r *Registry) CellIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.cells))
	for id := range r.cells {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ActiveCrops returns the sorted crop numbers flagged active for a cell.
func (r *Registry) ActiveCrops(cellID string) ([]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cell, ok := r.cells[cellID]
	if !ok {
		return nil, fmt.Errorf("cell %q: %w", cellID, domain.ErrMissingCell)
	}
	return activeCrops(cell), nil
}

func activeCrops(cell *domain.Cell) []int {
	nums := make([]int, 0, len(cell.CropFlags))
	for num, on := range cell.CropFlags {
		if on {
			nums = append(nums, num)
		}
	}
	slices.Sort(nums)
	return nums
}

// FilterCrops deactivates crops excluded by the skip list or, when a test list is
// given, crops not on it. Cells left without active crops are removed.
func (r *Registry) FilterCrops(skip, test []int, logger *slog.Logger) {
	if len(skip) == 0 && len(test) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	keep := func(num int) bool {
		if slices.Contains(skip, num) {
			return false
		}
		return len(test) == 0 || slices.Contains(test, num)
	}

	for id, cell := range r.cells {
		for num, on := range cell.CropFlags {
			if on && !keep(num) {
				cell.CropFlags[num] = false
			}
		}
		if len(activeCrops(cell)) == 0 {
			logger.Debug("removing cell without active crops", "cell_id", id)
			delete(r.cells, id)
			delete(r.overrides, id)
		}
	}
}

// Pairs returns every active (cell, crop) pair, ordered by cell then crop.
func (r *Registry) Pairs() []Pair {
	var pairs []Pair
	for _, id := range r.CellIDs() {
		nums, err := r.ActiveCrops(id)
		if err != nil {
			continue
		}
		for _, num := range nums {
			pairs = append(pairs, Pair{CellID: id, CropNumber: num})
		}
	}
	return pairs
}

// ActiveCropNumbers returns the sorted union of active crops across all cells.
func (r *Registry) ActiveCropNumbers() []int {
	seen := make(map[int]bool)
	for _, p := range r.Pairs() {
		seen[p.CropNumber] = true
	}
	nums := make([]int, 0, len(seen))
	for num := range seen {
		nums = append(nums, num)
	}
	slices.Sort(nums)
	return nums
}

// Validate checks that every active pair resolves to complete parameters. The
// first unresolvable key aborts validation.
func (r *Registry) Validate() error {
	for _, p := range r.Pairs() {
		crop, err := r.CropFor(p.CellID, p.CropNumber)
		if err != nil {
			return err
		}
		if crop.Policy.Kind == domain.PolicyUnset {
			return fmt.Errorf("crop %d for cell %q: %w", p.CropNumber, p.CellID, domain.ErrUnresolvedPolicy)
		}
	}
	return nil
}

package mortality

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrMissingFields is returned when a table source lacks the age or survivor column.
	ErrMissingFields = errors.New("mortality table must contain 'x' and 'lx' columns")
	// ErrNonContiguousAges is returned when tabulated ages are not consecutive integers.
	ErrNonContiguousAges = errors.New("ages must be contiguous integers")
)

// Column names accepted by FromColumns.
const (
	ColumnAge       = "x"
	ColumnSurvivors = "lx"
)

// Row is one life-table entry: number of survivors lx at integer age x.
type Row struct {
	Age       int
	Survivors float64
}

// LifeTable is a life-table mortality engine.
//
// Ages below the first tabulated age carry no mortality; ages past the last
// tabulated age are certain death. Both are modelling assumptions, not facts
// about the population.
type LifeTable struct {
	minAge int
	maxAge int
	lx     []float64
	qx     []float64

	// grid holds qx padded with certain death for gridWidth years past the
	// table end, so one-year death vectors are plain slice copies.
	grid      []float64
	gridWidth int
}

// NewLifeTable builds a table from rows in any order.
func NewLifeTable(rows []Row) (*LifeTable, error) {
	if len(rows) == 0 {
		return nil, ErrMissingFields
	}
	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Age < sorted[j].Age })

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Age-sorted[i-1].Age != 1 {
			return nil, fmt.Errorf("%w: age %d follows %d", ErrNonContiguousAges, sorted[i].Age, sorted[i-1].Age)
		}
	}

	lx := make([]float64, len(sorted))
	for i, r := range sorted {
		lx[i] = r.Survivors
	}
	return build(sorted[0].Age, lx), nil
}

// FromColumns builds a table from a column-oriented source such as a decoded
// JSON document or a CSV file read column-wise.
func FromColumns(cols map[string][]float64) (*LifeTable, error) {
	xs, okX := cols[ColumnAge]
	lxs, okL := cols[ColumnSurvivors]
	if !okX || !okL || len(xs) == 0 {
		return nil, ErrMissingFields
	}
	if len(xs) != len(lxs) {
		return nil, fmt.Errorf("mortality table columns differ in length: %d ages, %d survivors", len(xs), len(lxs))
	}
	rows := make([]Row, len(xs))
	for i, x := range xs {
		if x != math.Trunc(x) {
			return nil, fmt.Errorf("%w: age %v is not an integer", ErrNonContiguousAges, x)
		}
		rows[i] = Row{Age: int(x), Survivors: lxs[i]}
	}
	return NewLifeTable(rows)
}

// Synthesize builds a constant-force table lx = 1000*exp(-mu*age) for ages 0..maxAge.
func Synthesize(mu float64, maxAge int) *LifeTable {
	if maxAge < 0 {
		maxAge = 0
	}
	lx := make([]float64, maxAge+1)
	for age := range lx {
		lx[age] = 1000 * math.Exp(-mu*float64(age))
	}
	return build(0, lx)
}

func build(minAge int, lx []float64) *LifeTable {
	n := len(lx)
	qx := make([]float64, n)
	for i := 0; i < n-1; i++ {
		if lx[i] == 0 {
			qx[i] = 1
			continue
		}
		qx[i] = 1 - lx[i+1]/lx[i]
	}
	qx[n-1] = 1

	width := n
	grid := make([]float64, n+width)
	copy(grid, qx)
	for i := n; i < len(grid); i++ {
		grid[i] = 1
	}

	return &LifeTable{
		minAge:    minAge,
		maxAge:    minAge + n - 1,
		lx:        lx,
		qx:        qx,
		grid:      grid,
		gridWidth: width,
	}
}

func (m *LifeTable) MinAge() int { return m.minAge }
func (m *LifeTable) MaxAge() int { return m.maxAge }

// Survivors returns lx at age x, flattened below the table and zero above it.
func (m *LifeTable) Survivors(x int) float64 {
	if x < m.minAge {
		x = m.minAge
	}
	if x > m.maxAge {
		return 0
	}
	return m.lx[x-m.minAge]
}

// Copy returns an independent table.
func (m *LifeTable) Copy() *LifeTable {
	out := *m
	out.lx = append([]float64(nil), m.lx...)
	out.qx = append([]float64(nil), m.qx...)
	out.grid = append([]float64(nil), m.grid...)
	return &out
}

// Clone satisfies Model.
func (m *LifeTable) Clone() Model { return m.Copy() }

// WithMortalityFactor returns a table whose one-year death probabilities come from
// a force of mortality scaled by factor. Used for stress scenarios on tabulated data.
func (m *LifeTable) WithMortalityFactor(factor float64) *LifeTable {
	lx := make([]float64, len(m.lx))
	lx[0] = m.lx[0]
	for i := 1; i < len(lx); i++ {
		p := 1 - m.qx[i-1]
		if p <= 0 || lx[i-1] == 0 {
			lx[i] = 0
			continue
		}
		lx[i] = lx[i-1] * math.Pow(p, factor)
	}
	return build(m.minAge, lx)
}

package model

import (
	"math"
	"slices"
	"time"
)

// Panel is a date × symbol table of values. Missing entries are NaN, never zero.
type Panel struct {
	Dates   []time.Time
	Symbols []string
	Values  [][]float64 // [date][symbol]
}

// NewPanel allocates a panel filled with NaN.
func NewPanel(dates []time.Time, symbols []string) *Panel {
	p := &Panel{
		Dates:   slices.Clone(dates),
		Symbols: slices.Clone(symbols),
		Values:  make([][]float64, len(dates)),
	}
	for i := range p.Values {
		row := make([]float64, len(symbols))
		for j := range row {
			row[j] = math.NaN()
		}
		p.Values[i] = row
	}
	return p
}

// NewPanelLike allocates a NaN panel with the same axes as p.
func NewPanelLike(p *Panel) *Panel {
	return NewPanel(p.Dates, p.Symbols)
}

// Rows returns the number of dates.
func (p *Panel) Rows() int { return len(p.Dates) }

// Cols returns the number of symbols.
func (p *Panel) Cols() int { return len(p.Symbols) }

// At returns the value at row i, column j.
func (p *Panel) At(i, j int) float64 { return p.Values[i][j] }

// Set stores v at row i, column j.
func (p *Panel) Set(i, j int, v float64) { p.Values[i][j] = v }

// Clone returns a deep copy.
func (p *Panel) Clone() *Panel {
	out := &Panel{
		Dates:   slices.Clone(p.Dates),
		Symbols: slices.Clone(p.Symbols),
		Values:  make([][]float64, len(p.Values)),
	}
	for i, row := range p.Values {
		out.Values[i] = slices.Clone(row)
	}
	return out
}

// SymbolIndex maps each symbol to its column.
func (p *Panel) SymbolIndex() map[string]int {
	idx := make(map[string]int, len(p.Symbols))
	for j, s := range p.Symbols {
		idx[s] = j
	}
	return idx
}

// DateIndex maps each date to its row.
func (p *Panel) DateIndex() map[time.Time]int {
	idx := make(map[time.Time]int, len(p.Dates))
	for i, d := range p.Dates {
		idx[d] = i
	}
	return idx
}

// Between returns the rows whose dates fall in [start, end], both inclusive.
func (p *Panel) Between(start, end time.Time) *Panel {
	lo, _ := slices.BinarySearchFunc(p.Dates, start, func(a, b time.Time) int { return a.Compare(b) })
	hi := lo
	for hi < len(p.Dates) && !p.Dates[hi].After(end) {
		hi++
	}
	out := &Panel{
		Dates:   slices.Clone(p.Dates[lo:hi]),
		Symbols: slices.Clone(p.Symbols),
		Values:  make([][]float64, hi-lo),
	}
	for i := lo; i < hi; i++ {
		out.Values[i-lo] = slices.Clone(p.Values[i])
	}
	return out
}

// Select returns the panel restricted to the given dates and symbols, in that order.
// Dates or symbols absent from p yield NaN cells.
func (p *Panel) Select(dates []time.Time, symbols []string) *Panel {
	out := NewPanel(dates, symbols)
	di := p.DateIndex()
	si := p.SymbolIndex()
	for i, d := range dates {
		src, ok := di[d]
		if !ok {
			continue
		}
		for j, s := range symbols {
			if c, ok := si[s]; ok {
				out.Values[i][j] = p.Values[src][c]
			}
		}
	}
	return out
}

// Align restricts a and b to their common dates and symbols, keeping a's ordering.
func Align(a, b *Panel) (*Panel, *Panel) {
	bd := b.DateIndex()
	dates := make([]time.Time, 0, len(a.Dates))
	for _, d := range a.Dates {
		if _, ok := bd[d]; ok {
			dates = append(dates, d)
		}
	}
	bs := b.SymbolIndex()
	symbols := make([]string, 0, len(a.Symbols))
	for _, s := range a.Symbols {
		if _, ok := bs[s]; ok {
			symbols = append(symbols, s)
		}
	}
	return a.Select(dates, symbols), b.Select(dates, symbols)
}

// Map applies fn to every cell and returns a new panel.
func (p *Panel) Map(fn func(v float64) float64) *Panel {
	out := NewPanelLike(p)
	for i, row := range p.Values {
		for j, v := range row {
			out.Values[i][j] = fn(v)
		}
	}
	return out
}

// Combine applies fn cell by cell to two panels sharing the same axes.
func Combine(a, b *Panel, fn func(x, y float64) float64) *Panel {
	out := NewPanelLike(a)
	for i := range a.Values {
		for j := range a.Values[i] {
			out.Values[i][j] = fn(a.Values[i][j], b.Values[i][j])
		}
	}
	return out
}

// Column returns a copy of the column for symbol j.
func (p *Panel) Column(j int) []float64 {
	col := make([]float64, len(p.Values))
	for i, row := range p.Values {
		col[i] = row[j]
	}
	return col
}

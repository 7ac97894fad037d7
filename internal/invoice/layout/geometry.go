// Package layout turns prepared documents into pages of absolutely
// positioned drawing operations. It performs no I/O.
package layout

import "unicode/utf8"

// Geometry holds page dimensions and fixed offsets in millimetres.
// Y grows downwards from the top edge of the page.
type Geometry struct {
	PageWidth  float64
	PageHeight float64

	MarginLeft  float64
	MarginRight float64
	MarginTop   float64

	// BottomBand is reserved for the footer; no table row or totals enter it.
	BottomBand float64

	HeaderHeight      float64
	RowStep           float64
	TableHeaderHeight float64
	LineHeight        float64
	DisclaimerWidth   float64
}

// A4 is the production geometry.
func A4() Geometry {
	return Geometry{
		PageWidth:         210,
		PageHeight:        297,
		MarginLeft:        15,
		MarginRight:       15,
		MarginTop:         15,
		BottomBand:        40,
		HeaderHeight:      40,
		RowStep:           8,
		TableHeaderHeight: 9,
		LineHeight:        5,
		DisclaimerWidth:   80,
	}
}

func (g Geometry) ContentWidth() float64 {
	return g.PageWidth - g.MarginLeft - g.MarginRight
}

// BodyLimit is the lowest y a table row or the totals block may reach.
func (g Geometry) BodyLimit() float64 {
	return g.PageHeight - g.BottomBand
}

// FirstBreakIndex is the zero-based index of the first row pushed to a new
// page when the table body starts at y0 and reserve millimetres above the
// footer band are kept free for the totals block.
func (g Geometry) FirstBreakIndex(y0, reserve float64) int {
	if g.RowStep <= 0 {
		return 0
	}
	n := int((g.BodyLimit() - reserve - y0) / g.RowStep)
	if n < 0 {
		return 0
	}
	return n
}

// RowsPerContinuationPage is the row capacity of pages after the first.
func (g Geometry) RowsPerContinuationPage(repeatHeader bool, reserve float64) int {
	top := g.MarginTop
	if repeatHeader {
		top += g.TableHeaderHeight
	}
	return g.FirstBreakIndex(top, reserve)
}

// Font selects size in points and weight.
type Font struct {
	Size float64
	Bold bool
}

// Measurer reports the rendered width of text in millimetres.
type Measurer interface {
	TextWidth(text string, font Font) float64
}

// FixedMeasurer gives every rune the same advance, scaled by font size.
type FixedMeasurer struct {
	// PerRune is the advance of one rune at 10pt.
	PerRune float64
}

func (m FixedMeasurer) TextWidth(text string, font Font) float64 {
	return float64(utf8.RuneCountInString(text)) * m.PerRune * font.Size / 10
}

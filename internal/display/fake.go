package display

import (
	"strings"
	"sync"
)

// FakeDisplay is an in-memory character grid.
type FakeDisplay struct {
	mu       sync.Mutex
	cells    [Rows][Columns]byte
	col, row int

	// Writes counts WriteText calls.
	Writes int
}

// NewFakeDisplay creates a blank display.
func NewFakeDisplay() *FakeDisplay {
	f := &FakeDisplay{}
	f.Clear()
	return f
}

// MoveCursor positions the cursor. Out-of-range positions are clamped.
func (f *FakeDisplay) MoveCursor(col, row int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.col = min(max(col, 0), Columns)
	f.row = min(max(row, 0), Rows-1)
}

// WriteText writes bytes from the cursor. Text past the right edge is dropped.
func (f *FakeDisplay) WriteText(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Writes++
	for i := 0; i < len(text); i++ {
		if f.col >= Columns {
			return
		}
		f.cells[f.row][f.col] = text[i]
		f.col++
	}
}

// Line returns a row as a string.
func (f *FakeDisplay) Line(row int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.cells[row][:])
}

// Text returns both rows with glyph and degree bytes made printable,
// as "#" for custom glyphs and "°" for the degree sign.
func (f *FakeDisplay) Text() string {
	var b strings.Builder
	for r := 0; r < Rows; r++ {
		if r > 0 {
			b.WriteByte('\n')
		}
		for _, c := range []byte(f.Line(r)) {
			switch {
			case c < 8:
				b.WriteByte('#')
			case c == DegreeSign:
				b.WriteString("°")
			default:
				b.WriteByte(c)
			}
		}
	}
	return b.String()
}

// Clear blanks every cell.
func (f *FakeDisplay) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for r := range f.cells {
		for c := range f.cells[r] {
			f.cells[r][c] = ' '
		}
	}
	f.col, f.row = 0, 0
}

// Package display renders controller readings on a 16x2 character display.
package display

import (
	"strconv"

	"github.com/sweeney/greenhouse/internal/logic"
)

// Display is a character display addressed by cursor position.
type Display interface {
	MoveCursor(col, row int)
	WriteText(text string)
}

// Geometry of the reference display.
const (
	Columns = 16
	Rows    = 2
)

// Custom glyph slots and the controller's built-in degree sign.
const (
	GlyphMoisture    byte = 0
	GlyphThermometer byte = 1
	GlyphLight       byte = 2
	DegreeSign       byte = 0xDF
)

// Glyphs holds the 5x8 bitmaps uploaded to the custom glyph slots, in slot order.
var Glyphs = [3][8]byte{
	{0b00000, 0b00100, 0b01110, 0b11111, 0b11111, 0b11111, 0b01110, 0b00000}, // drop
	{0b00100, 0b01010, 0b01110, 0b01110, 0b01110, 0b10101, 0b11111, 0b01110}, // thermometer
	{0b01110, 0b10001, 0b10001, 0b10101, 0b10101, 0b01110, 0b01110, 0b00100}, // bulb
}

// Screen knows where each reading lives on the display:
//
//	row 0: hh:mm:ss  T24.5°C
//	row 1: M 75%     L 42%
type Screen struct {
	d Display
}

// NewScreen wraps a display.
func NewScreen(d Display) *Screen {
	return &Screen{d: d}
}

// DrawLayout writes the static parts of the screen.
func (s *Screen) DrawLayout() {
	s.d.MoveCursor(0, 0)
	s.d.WriteText("00:00:00")
	s.d.MoveCursor(10, 0)
	s.d.WriteText(string([]byte{GlyphThermometer, '0', DegreeSign, 'C'}))
	s.d.MoveCursor(0, 1)
	s.d.WriteText(string([]byte{GlyphMoisture}))
	s.d.MoveCursor(10, 1)
	s.d.WriteText(string([]byte{GlyphLight}))
}

// ShowClock writes the 8-character time of day.
func (s *Screen) ShowClock(c logic.Clock) {
	s.d.MoveCursor(0, 0)
	s.d.WriteText(c.String())
}

// ShowTemperature writes the temperature followed by the unit.
func (s *Screen) ShowTemperature(t logic.Temperature) {
	s.d.MoveCursor(11, 0)
	s.d.WriteText(t.String())
	s.d.MoveCursor(15, 0)
	s.d.WriteText(string([]byte{DegreeSign, 'C'}))
}

// ShowMoisture writes the soil moisture percentage.
func (s *Screen) ShowMoisture(percent int) {
	s.showPercent(1, percent)
}

// ShowLight writes the light percentage.
func (s *Screen) ShowLight(percent int) {
	s.showPercent(11, percent)
}

func (s *Screen) showPercent(col, percent int) {
	s.d.MoveCursor(col, 1)
	s.d.WriteText("   ")
	s.d.MoveCursor(col, 1)
	s.d.WriteText(strconv.Itoa(percent))
	s.d.MoveCursor(col+3, 1)
	s.d.WriteText("%")
}

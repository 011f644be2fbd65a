package display

import (
	"fmt"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/hd44780i2c"
)

// DefaultLCDAddress is the usual PCF8574 backpack address.
const DefaultLCDAddress = 0x27

// LCD is an HD44780 display behind an I2C backpack.
//
// The driver's Print wraps onto the next row at the right edge, so LCD
// tracks the column itself and drops anything past the last one.
type LCD struct {
	dev *hd44780i2c.Device
	col int
}

var _ Display = (*LCD)(nil)

// NewLCD configures the display and uploads the custom glyphs.
func NewLCD(bus drivers.I2C, addr uint8) (*LCD, error) {
	dev := hd44780i2c.New(bus, addr)
	if err := dev.Configure(hd44780i2c.Config{
		Width:  Columns,
		Height: Rows,
	}); err != nil {
		return nil, fmt.Errorf("lcd: configure: %w", err)
	}
	for slot, g := range Glyphs {
		dev.CreateCharacter(uint8(slot), g[:])
	}
	dev.ClearDisplay()
	return &LCD{dev: &dev}, nil
}

// MoveCursor positions the cursor.
func (l *LCD) MoveCursor(col, row int) {
	l.col = col
	l.dev.SetCursor(uint8(col), uint8(row))
}

// WriteText prints raw bytes at the cursor, clipped at the right edge.
func (l *LCD) WriteText(text string) {
	n := Columns - l.col
	if n <= 0 {
		return
	}
	if len(text) > n {
		text = text[:n]
	}
	l.dev.Print([]byte(text))
	l.col += len(text)
}

package cpu

import (
	"strings"

	"github.com/hexaflex/c8vm/devices"
)

const (
	DisplayWidth  = devices.DisplayWidth
	DisplayHeight = devices.DisplayHeight
	SpriteWidth   = 8 // Pixels per sprite row.
)

// Display is the monochrome framebuffer, indexed [y][x].
type Display [DisplayHeight][DisplayWidth]bool

// Clear turns every pixel off.
func (d *Display) Clear() {
	*d = Display{}
}

// Pixel returns true if the pixel at the given coordinates is lit.
// Coordinates outside the display are never lit.
func (d *Display) Pixel(x, y int) bool {
	if x < 0 || y < 0 || x >= DisplayWidth || y >= DisplayHeight {
		return false
	}
	return d[y][x]
}

// Blit XORs the given sprite onto the display with its top-left corner at (x, y).
// Each byte is one 8-pixel row, most significant bit leftmost. Coordinates wrap
// around both edges. Returns true if any lit pixel was turned off.
func (d *Display) Blit(x, y uint8, sprite []byte) (collision bool) {
	for r, row := range sprite {
		py := (int(y) + r) % DisplayHeight

		for c := 0; c < SpriteWidth; c++ {
			if row&(0x80>>c) == 0 {
				continue
			}

			px := (int(x) + c) % DisplayWidth
			if d[py][px] {
				collision = true
			}
			d[py][px] = !d[py][px]
		}
	}
	return
}

// Lit returns the number of lit pixels.
func (d *Display) Lit() int {
	var n int
	for y := range d {
		for x := range d[y] {
			if d[y][x] {
				n++
			}
		}
	}
	return n
}

// String renders the display as rows of '#' and '.'.
func (d *Display) String() string {
	var sb strings.Builder
	sb.Grow((DisplayWidth + 1) * DisplayHeight)

	for y := range d {
		for x := range d[y] {
			if d[y][x] {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

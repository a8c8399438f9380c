package main

import (
	"strings"

	"github.com/hexaflex/c8vm/devices"
)

// Escape sequences.
const (
	cursorHome  = "\x1b[H"
	clearScreen = "\x1b[2J"
	hideCursor  = "\x1b[?25l"
	showCursor  = "\x1b[?25h"
	bell        = "\a"
)

// render draws the frame with half-block characters, two pixel rows per
// text line. Lines end in "\r\n" since the terminal is in raw mode.
func render(sb *strings.Builder, f devices.Frame) {
	sb.WriteString(cursorHome)

	for y := 0; y < devices.DisplayHeight; y += 2 {
		for x := 0; x < devices.DisplayWidth; x++ {
			top, bottom := f.Pixel(x, y), f.Pixel(x, y+1)

			switch {
			case top && bottom:
				sb.WriteRune('█')
			case top:
				sb.WriteRune('▀')
			case bottom:
				sb.WriteRune('▄')
			default:
				sb.WriteByte(' ')
			}
		}
		sb.WriteString("\r\n")
	}
}

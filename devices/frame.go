package devices

// Frame is the read-only view of the machine which peripherals observe
// once per host frame.
type Frame interface {
	// Pixel returns true if the display pixel at the given coordinates is lit.
	Pixel(x, y int) bool

	// Sound returns true while the sound timer is running.
	Sound() bool
}

// Display dimensions in pixels.
const (
	DisplayWidth  = 64
	DisplayHeight = 32
)

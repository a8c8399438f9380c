// Package screen implements the monochrome 64x32 display as an OpenGL renderer.
//
// The framebuffer is uploaded as a single-channel texture which the fragment
// shader maps onto the configured foreground and background colours.
package screen

import (
	"image/color"

	"github.com/go-gl/gl/v4.2-core/gl"
	"github.com/pkg/errors"

	"github.com/hexaflex/c8vm/devices"
)

// Display dimensions in pixels.
const (
	Width  = devices.DisplayWidth
	Height = devices.DisplayHeight
)

// Device renders the machine's framebuffer.
type Device struct {
	pixels      [Width * Height]byte
	fg, bg      [4]float32
	shader      uint32
	vao         uint32
	vbo         uint32
	tex         uint32
	stale       bool // Framebuffer changed since the last Update.
	colorsDirty bool
	pixelsDirty bool
	initialized bool
}

var _ devices.Device = &Device{}

// New creates a new display with the given pixel colours.
func New(fg, bg color.Color) *Device {
	var d Device
	d.stale = true
	d.SetColors(fg, bg)
	return &d
}

// ID returns the device identifier.
func (d *Device) ID() devices.ID {
	return devices.NewID(devices.VIP, 0x0002)
}

// SetColors changes the colours of lit and unlit pixels.
func (d *Device) SetColors(fg, bg color.Color) {
	d.fg = rgba(fg)
	d.bg = rgba(bg)
	d.colorsDirty = true
}

// Background returns the colour of unlit pixels, suitable for gl.ClearColor.
func (d *Device) Background() (r, g, b, a float32) {
	return d.bg[0], d.bg[1], d.bg[2], d.bg[3]
}

// Startup initializes device resources. It requires a current GL context.
func (d *Device) Startup(devices.KeyFunc) error {
	var err error

	d.shader, err = compileProgram(vertex, fragment)
	if err != nil {
		return errors.Wrapf(err, "failed to compile shaders")
	}

	gl.UseProgram(d.shader)

	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)

	gl.GenBuffers(1, &d.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(quadVertices)*4, gl.Ptr(quadVertices), gl.STATIC_DRAW)

	vertAttrib := uint32(gl.GetAttribLocation(d.shader, glStr("vertPos")))
	texCoordAttrib := uint32(gl.GetAttribLocation(d.shader, glStr("vertTexCoord")))

	gl.EnableVertexAttribArray(vertAttrib)
	gl.VertexAttribPointer(vertAttrib, 2, gl.FLOAT, false, 4*4, gl.PtrOffset(0))

	gl.EnableVertexAttribArray(texCoordAttrib)
	gl.VertexAttribPointer(texCoordAttrib, 2, gl.FLOAT, false, 4*4, gl.PtrOffset(2*4))

	d.tex = makeTexture()
	d.colorsDirty = true
	d.pixelsDirty = true
	d.initialized = true
	return nil
}

// Shutdown clears up device resources.
func (d *Device) Shutdown() error {
	if !d.initialized {
		return nil
	}

	d.initialized = false
	gl.DeleteTextures(1, &d.tex)
	gl.DeleteBuffers(1, &d.vbo)
	gl.DeleteVertexArrays(1, &d.vao)
	gl.DeleteProgram(d.shader)
	return nil
}

// Invalidate marks the framebuffer as changed. The next Update copies it.
func (d *Device) Invalidate() {
	d.stale = true
}

// Update copies the framebuffer of the given frame, if it was invalidated.
func (d *Device) Update(f devices.Frame) {
	if !d.stale {
		return
	}

	d.stale = false
	if rasterize(d.pixels[:], f) {
		d.pixelsDirty = true
	}
}

// Pixel returns true if the last copied frame has the given pixel lit.
func (d *Device) Pixel(x, y int) bool {
	if x < 0 || y < 0 || x >= Width || y >= Height {
		return false
	}
	return d.pixels[y*Width+x] != 0
}

// Draw renders the display contents into the current viewport.
func (d *Device) Draw() {
	if !d.initialized {
		return
	}

	gl.UseProgram(d.shader)
	d.upload()

	gl.BindVertexArray(d.vao)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, d.tex)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
}

// upload sends changed colours and pixels to the GPU.
func (d *Device) upload() {
	if d.colorsDirty {
		gl.Uniform4fv(gl.GetUniformLocation(d.shader, glStr("fg")), 1, &d.fg[0])
		gl.Uniform4fv(gl.GetUniformLocation(d.shader, glStr("bg")), 1, &d.bg[0])
		d.colorsDirty = false
	}

	if d.pixelsDirty {
		uploadTexture(d.tex, Width, Height, d.pixels[:])
		d.pixelsDirty = false
	}
}

// rasterize writes one byte per pixel into dst: 0xff for lit, 0 for unlit.
// Returns true if dst changed.
func rasterize(dst []byte, f devices.Frame) bool {
	var changed bool

	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			var v byte
			if f.Pixel(x, y) {
				v = 0xff
			}

			if i := y*Width + x; dst[i] != v {
				dst[i] = v
				changed = true
			}
		}
	}

	return changed
}

// rgba converts c to normalized RGBA components.
func rgba(c color.Color) [4]float32 {
	r, g, b, a := c.RGBA()
	return [4]float32{
		float32(r) / 0xffff,
		float32(g) / 0xffff,
		float32(b) / 0xffff,
		float32(a) / 0xffff,
	}
}

var quadVertices = []float32{
	//  X, Y, U, V
	-1.0, -1.0, 0.0, 1.0,
	1.0, -1.0, 1.0, 1.0,
	-1.0, 1.0, 0.0, 0.0,
	1.0, -1.0, 1.0, 1.0,
	1.0, 1.0, 1.0, 0.0,
	-1.0, 1.0, 0.0, 0.0,
}

// Package hexpad maps a glfw gamepad onto the hexadecimal keypad.
package hexpad

import (
	"log"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/hexaflex/c8vm/devices"
)

// Mapping assigns keypad keys to gamepad buttons.
type Mapping map[glfw.GamepadButton]int

// DefaultMapping follows the layout most games use for movement:
// 2/4/6/8 on the directional pad and 5 as the action key.
var DefaultMapping = Mapping{
	glfw.ButtonDpadUp:      0x2,
	glfw.ButtonDpadLeft:    0x4,
	glfw.ButtonDpadRight:   0x6,
	glfw.ButtonDpadDown:    0x8,
	glfw.ButtonA:           0x5,
	glfw.ButtonB:           0x0,
	glfw.ButtonX:           0xa,
	glfw.ButtonY:           0xb,
	glfw.ButtonLeftBumper:  0x1,
	glfw.ButtonRightBumper: 0x3,
	glfw.ButtonBack:        0xc,
	glfw.ButtonStart:       0xf,
}

type buttons [glfw.ButtonLast + 1]bool

// Device polls the first connected gamepad once per frame and reports
// button changes as key events.
type Device struct {
	mapping     Mapping
	keyFunc     devices.KeyFunc
	joy         glfw.Joystick
	state       buttons
	initialized bool
}

var _ devices.Device = &Device{}

// New creates a new device with the given mapping.
// DefaultMapping is used if m is nil.
func New(m Mapping) *Device {
	if m == nil {
		m = DefaultMapping
	}
	return &Device{mapping: m}
}

// ID returns the device id.
func (d *Device) ID() devices.ID {
	return devices.NewID(devices.VIP, 0x0003)
}

// Startup detects any connected gamepad. glfw must be initialized.
func (d *Device) Startup(f devices.KeyFunc) error {
	d.keyFunc = f
	glfw.SetJoystickCallback(d.configure)

	for joy := glfw.Joystick1; joy <= glfw.JoystickLast; joy++ {
		if joy.Present() && joy.IsGamepad() {
			d.configure(joy, glfw.Connected)
			break
		}
	}

	return nil
}

// Shutdown clears up device resources.
func (d *Device) Shutdown() error {
	glfw.SetJoystickCallback(nil)
	d.initialized = false
	return nil
}

// Update polls the gamepad.
func (d *Device) Update(devices.Frame) {
	if !d.initialized {
		return
	}

	gs := d.joy.GetGamepadState()
	if gs == nil {
		return
	}

	var next buttons
	for btn, action := range gs.Buttons {
		next[btn] = action == glfw.Press
	}

	d.apply(next)
}

// apply reports the difference between the current and next button
// states and makes next current.
func (d *Device) apply(next buttons) {
	for btn, pressed := range next {
		if pressed == d.state[btn] {
			continue
		}

		key, ok := d.mapping[glfw.GamepadButton(btn)]
		if ok && d.keyFunc != nil {
			d.keyFunc(key, pressed)
		}
	}

	d.state = next
}

// configure is called whenever a joystick is connected or disconnected from the system.
func (d *Device) configure(joy glfw.Joystick, event glfw.PeripheralEvent) {
	connected := event == glfw.Connected && joy.IsGamepad()

	if connected {
		log.Println(d.ID(), "gamepad connected:", joy.GetGamepadName())
	} else if joy == d.joy && d.initialized {
		log.Println(d.ID(), "gamepad disconnected")
	} else {
		return
	}

	// Release whatever was held on the old pad.
	d.apply(buttons{})
	d.joy = joy
	d.initialized = connected
}

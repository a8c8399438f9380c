package devices

import (
	"log"

	"github.com/pkg/errors"
)

// KeyFunc delivers a keypad event to the machine.
// Key is in the range [0, 15].
type KeyFunc func(key int, pressed bool)

// Device represents a peripheral device attached to the interpreter.
type Device interface {
	// ID yields the manufacturer and serial number for the device.
	ID() ID

	// Startup initializes internal resources.
	//
	// KeyFunc can be used by input devices to deliver key events.
	Startup(KeyFunc) error

	// Shutdown cleans up internal resources.
	Shutdown() error

	// Update is called once per host frame with the current machine state.
	Update(Frame)
}

// Map contains a list of registered peripherals.
type Map []Device

// Connect adds the given device to the device map.
// Returns false if the device type is already present in the set.
func (dm *Map) Connect(dev Device) bool {
	if (*dm).Find(dev.ID()) > -1 {
		return false
	}

	*dm = append(*dm, dev)
	return true
}

// Update forwards the given frame to all devices.
func (dm Map) Update(f Frame) {
	for _, dev := range dm {
		dev.Update(f)
	}
}

// Startup initializes internal resources.
func (dm Map) Startup(f KeyFunc) error {
	var errorset ErrorSet

	for _, dev := range dm {
		log.Println(dev.ID(), "startup")
		if err := dev.Startup(f); err != nil {
			errorset.Append(errors.Wrapf(err, "%s", dev.ID()))
		}
	}

	if errorset.Len() == 0 {
		return nil
	}

	return errorset
}

// Shutdown cleans up internal resources.
func (dm Map) Shutdown() error {
	var errorset ErrorSet

	for _, dev := range dm {
		log.Println(dev.ID(), "shutdown")
		if err := dev.Shutdown(); err != nil {
			errorset.Append(errors.Wrapf(err, "%s", dev.ID()))
		}
	}

	if errorset.Len() == 0 {
		return nil
	}

	return errorset
}

// Find returns the index for the device with the given id.
// Returns -1 if it can't be found.
func (dm Map) Find(id ID) int {
	for i, dev := range dm {
		if dev.ID() == id {
			return i
		}
	}
	return -1
}

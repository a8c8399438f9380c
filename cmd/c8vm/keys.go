package main

import (
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/hexaflex/c8vm/devices/vip/keypad"
)

// keymap places the hexadecimal keypad on the left side of a QWERTY keyboard:
//
//	1 2 3 4      1 2 3 C
//	Q W E R  ->  4 5 6 D
//	A S D F      7 8 9 E
//	Z X C V      A 0 B F
var keymap = map[glfw.Key]keypad.Key{
	glfw.Key1: keypad.Key1, glfw.Key2: keypad.Key2, glfw.Key3: keypad.Key3, glfw.Key4: keypad.KeyC,
	glfw.KeyQ: keypad.Key4, glfw.KeyW: keypad.Key5, glfw.KeyE: keypad.Key6, glfw.KeyR: keypad.KeyD,
	glfw.KeyA: keypad.Key7, glfw.KeyS: keypad.Key8, glfw.KeyD: keypad.Key9, glfw.KeyF: keypad.KeyE,
	glfw.KeyZ: keypad.KeyA, glfw.KeyX: keypad.Key0, glfw.KeyC: keypad.KeyB, glfw.KeyV: keypad.KeyF,
}

// keypadKey returns the keypad key bound to k.
func keypadKey(k glfw.Key) (keypad.Key, bool) {
	v, ok := keymap[k]
	return v, ok
}

package main

import (
	"time"

	"github.com/hexaflex/c8vm/devices/vip/keypad"
)

// keymap places the hexadecimal keypad on the left side of a QWERTY keyboard:
//
//	1 2 3 4      1 2 3 C
//	q w e r  ->  4 5 6 D
//	a s d f      7 8 9 E
//	z x c v      A 0 B F
var keymap = map[byte]keypad.Key{
	'1': keypad.Key1, '2': keypad.Key2, '3': keypad.Key3, '4': keypad.KeyC,
	'q': keypad.Key4, 'w': keypad.Key5, 'e': keypad.Key6, 'r': keypad.KeyD,
	'a': keypad.Key7, 's': keypad.Key8, 'd': keypad.Key9, 'f': keypad.KeyE,
	'z': keypad.KeyA, 'x': keypad.Key0, 'c': keypad.KeyB, 'v': keypad.KeyF,
}

// keypadKey returns the keypad key bound to the given input byte.
// Upper case letters map like their lower case counterparts.
func keypadKey(b byte) (keypad.Key, bool) {
	if b >= 'A' && b <= 'Z' {
		b += 'a' - 'A'
	}
	k, ok := keymap[b]
	return k, ok
}

// Keyboard emulates key releases for terminals, which only report presses.
// A key counts as held until the hold time passes without it being typed again.
type Keyboard struct {
	hold     time.Duration
	deadline [keypad.KeyCount]time.Time
	pressed  func(keypad.Key)
	released func(keypad.Key)
}

// NewKeyboard creates a keyboard which reports state changes to the given handlers.
func NewKeyboard(hold time.Duration, pressed, released func(keypad.Key)) *Keyboard {
	return &Keyboard{
		hold:     hold,
		pressed:  pressed,
		released: released,
	}
}

// Type handles a key typed at the given time. Auto-repeat extends the hold.
func (kb *Keyboard) Type(k keypad.Key, now time.Time) {
	if kb.deadline[k].IsZero() {
		kb.pressed(k)
	}
	kb.deadline[k] = now.Add(kb.hold)
}

// Expire releases keys whose hold time has passed.
func (kb *Keyboard) Expire(now time.Time) {
	for k, dl := range kb.deadline {
		if dl.IsZero() || now.Before(dl) {
			continue
		}

		kb.deadline[k] = time.Time{}
		kb.released(keypad.Key(k))
	}
}

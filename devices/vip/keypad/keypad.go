// Package keypad implements the 16-key hexadecimal keypad of the CHIP-8
// along with the blocking wait-for-key latch.
//
// The original keypad layout:
//
//	+---+---+---+---+
//	| 1 | 2 | 3 | C |
//	+---+---+---+---+
//	| 4 | 5 | 6 | D |
//	+---+---+---+---+
//	| 7 | 8 | 9 | E |
//	+---+---+---+---+
//	| A | 0 | B | F |
//	+---+---+---+---+
package keypad

import (
	"fmt"

	"github.com/pkg/errors"
)

// Key identifies a keypad key.
type Key uint8

// Known keys.
const (
	Key0 Key = iota
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
)

// KeyCount is the number of keys on the keypad.
const KeyCount = 16

// ErrWaitPending is returned when a wait is requested while another one is outstanding.
var ErrWaitPending = errors.New("keypad: wait already pending")

// Valid returns true if k names a key on the keypad.
func (k Key) Valid() bool {
	return k < KeyCount
}

func (k Key) String() string {
	return fmt.Sprintf("%X", uint8(k))
}

// Keypad tracks key states and the wait-for-key latch.
//
// The latch is either absent (running) or holds the register index which
// receives the next pressed key.
type Keypad struct {
	keys  [KeyCount]bool
	await *uint8
}

// Press marks the given key as held down. If a wait is pending, it is
// resolved and the latched register is returned.
// Keys outside the keypad are ignored.
func (k *Keypad) Press(key Key) (register uint8, resolved bool) {
	if !key.Valid() {
		return 0, false
	}

	k.keys[key] = true

	if k.await == nil {
		return 0, false
	}

	register = *k.await
	k.await = nil
	return register, true
}

// Release marks the given key as no longer held down.
func (k *Keypad) Release(key Key) {
	if key.Valid() {
		k.keys[key] = false
	}
}

// Pressed returns true if the given key is currently held down.
func (k *Keypad) Pressed(key Key) bool {
	return key.Valid() && k.keys[key]
}

// Await latches the given register to receive the next key press.
func (k *Keypad) Await(register uint8) error {
	if k.await != nil {
		return ErrWaitPending
	}

	k.await = &register
	return nil
}

// Waiting returns the latched register, if a wait is pending.
func (k *Keypad) Waiting() (register uint8, ok bool) {
	if k.await == nil {
		return 0, false
	}
	return *k.await, true
}

// Reset releases all keys and drops any pending wait.
func (k *Keypad) Reset() {
	*k = Keypad{}
}

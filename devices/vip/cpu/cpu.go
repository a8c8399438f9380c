// Package cpu implements the CHIP-8 interpreter.
//
// The CPU owns the complete machine state: memory, registers, call stack,
// framebuffer, keypad and timers. The host drives it by calling Cycle once per
// instruction and reporting the wall-clock time that passed since the previous call.
package cpu

import (
	"io"
	"log"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/hexaflex/c8vm/arch"
	"github.com/hexaflex/c8vm/devices"
	"github.com/hexaflex/c8vm/devices/vip/keypad"
	"github.com/hexaflex/c8vm/devices/vip/timer"
)

// TraceFunc represents a callback handler for debug trace output.
type TraceFunc func(*Instruction)

// Quirks selects between interpreter behaviours which differ across implementations.
type Quirks struct {
	// PreserveFlagOnAddImmediate keeps 7xkk from writing the carry to VF,
	// which matches the COSMAC VIP interpreter.
	PreserveFlagOnAddImmediate bool
}

// Registers holds the programmer-visible registers.
type Registers struct {
	V  [arch.RegisterCount]uint8 // V0-VF.
	I  uint16                    // Index register.
	PC uint16                    // Program counter.
}

// CPU implements the runtime.
type CPU struct {
	devices     devices.Map   // Connected peripherals.
	trace       TraceFunc     // Handler for debug trace output.
	memory      Memory        // System memory.
	regs        Registers     // Register file.
	stack       Stack         // Return addresses.
	display     Display       // Framebuffer.
	keypad      keypad.Keypad // Key states and wait latch.
	timers      timer.Timers  // Delay and sound timers.
	instr       Instruction   // Decoded instruction data.
	sprite      [15]byte      // Scratch buffer for DRW.
	rng         *rand.Rand    // Random number generator.
	quirks      Quirks        // Behavioural switches.
	fault       error         // Set once the run has stopped.
	redraw      bool          // Display changed since the last Redraw call.
	initialized uint32        // Has Startup been called?
}

var _ devices.Frame = &CPU{}

// New creates a new CPU, optionally with the given debug trace handler.
// Memory is cleared, except for the font, and the program counter points at ProgramStart.
func New(trace TraceFunc) *CPU {
	if trace == nil {
		trace = func(*Instruction) { /* nop */ }
	}

	c := &CPU{
		trace:  trace,
		memory: make(Memory, MemoryCapacity),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	c.Reset()
	return c
}

// ID returns the cpu's device Id.
func (c *CPU) ID() devices.ID {
	return devices.NewID(devices.VIP, 0x0001)
}

// Connect connects the given hardware peripheral to the system.
// Returns false if the given device type is already connected.
func (c *CPU) Connect(dev devices.Device) bool {
	return c.devices.Connect(dev)
}

// Devices returns the connected peripherals.
func (c *CPU) Devices() devices.Map {
	return c.devices
}

// Startup marks the cpu as ready to run and initializes connected peripherals.
// Returns an error if the cpu is already running. Use Shutdown() first.
func (c *CPU) Startup() error {
	if !atomic.CompareAndSwapUint32(&c.initialized, 0, 1) {
		return errors.New(c.ID().String() + " is already running")
	}

	log.Println(c.ID(), "startup")
	return c.devices.Startup(c.keyEvent)
}

// Shutdown stops the cpu and cleans up peripheral resources.
func (c *CPU) Shutdown() error {
	if !atomic.CompareAndSwapUint32(&c.initialized, 1, 0) {
		return nil
	}

	log.Println(c.ID(), "shutdown")
	return c.devices.Shutdown()
}

// Reset restores the power-on state: memory is cleared and the font installed,
// registers, stack, display, keypad and timers are zeroed and PC points at ProgramStart.
func (c *CPU) Reset() {
	clear(c.memory)
	copy(c.memory[FontAddress:], font[:])

	c.regs = Registers{PC: ProgramStart}
	c.stack.Reset()
	c.display.Clear()
	c.keypad.Reset()
	c.timers.Reset()
	c.fault = nil
	c.redraw = true
}

// Load copies the given program into memory at ProgramStart.
func (c *CPU) Load(program []byte) error {
	if len(program) > MemoryCapacity-ProgramStart {
		return errors.Wrapf(ErrProgramTooLarge, "%d bytes (max: %d)", len(program), MemoryCapacity-ProgramStart)
	}
	return c.memory.Write(ProgramStart, program)
}

// Seed reseeds the random number generator used by RND.
func (c *CPU) Seed(seed int64) {
	c.rng = rand.New(rand.NewSource(seed))
}

// SetQuirks selects interpreter behaviours.
func (c *CPU) SetQuirks(q Quirks) {
	c.quirks = q
}

// SetTimerMode selects how the timers treat time beyond a full period.
func (c *CPU) SetTimerMode(mode timer.Mode) {
	c.timers.Mode = mode
}

// Cycle executes a single instruction, unless a key wait is pending, and then
// advances the timers by the given elapsed time.
//
// Returns io.EOF once the program has halted or if the cpu is not running.
// Fatal faults are returned as *Error; the run stops and every later call
// returns the same error.
func (c *CPU) Cycle(elapsed time.Duration) error {
	if atomic.LoadUint32(&c.initialized) == 0 {
		return io.EOF
	}

	if c.fault != nil {
		return c.fault
	}

	if _, waiting := c.keypad.Waiting(); !waiting {
		if err := c.step(); err != nil {
			c.fault = err
			return err
		}
	}

	c.timers.Tick(elapsed)
	return nil
}

// Run calls Cycle until the program halts, a fault occurs or limit cycles
// have been performed. Each cycle reports perCycle as elapsed time.
// done is true if the program halted.
func (c *CPU) Run(limit int, perCycle time.Duration) (done bool, err error) {
	for i := 0; i < limit; i++ {
		err = c.Cycle(perCycle)
		if err == io.EOF {
			return true, nil
		}
		if err != nil {
			return false, err
		}
	}
	return false, nil
}

// KeyPressed marks the key as held down. A pending key wait receives the key
// and execution resumes on the next cycle.
func (c *CPU) KeyPressed(key keypad.Key) {
	if reg, ok := c.keypad.Press(key); ok {
		c.regs.V[reg] = uint8(key)
	}
}

// KeyReleased marks the key as no longer held down.
func (c *CPU) KeyReleased(key keypad.Key) {
	c.keypad.Release(key)
}

// Waiting returns the register awaiting a key press, if any.
func (c *CPU) Waiting() (register uint8, ok bool) {
	return c.keypad.Waiting()
}

// Registers returns a copy of the register file.
func (c *CPU) Registers() Registers {
	return c.regs
}

// Memory returns the cpu's internal memory bank.
func (c *CPU) Memory() Memory {
	return c.memory
}

// Stack returns a copy of the saved return addresses, oldest first.
func (c *CPU) Stack() []uint16 {
	return append([]uint16(nil), c.stack.Data...)
}

// Timers returns a copy of the timer state.
func (c *CPU) Timers() timer.Timers {
	return c.timers
}

// Display returns a snapshot of the framebuffer.
func (c *CPU) Display() Display {
	return c.display
}

// Redraw returns true if the display changed since the previous call.
func (c *CPU) Redraw() bool {
	v := c.redraw
	c.redraw = false
	return v
}

// Pixel returns true if the display pixel at the given coordinates is lit.
func (c *CPU) Pixel(x, y int) bool {
	return c.display.Pixel(x, y)
}

// Sound returns true while the sound timer is running.
func (c *CPU) Sound() bool {
	return c.timers.Beeping()
}

// step fetches, decodes and executes the instruction at PC.
func (c *CPU) step() error {
	instr := &c.instr

	if err := instr.Decode(c.memory, c.regs.PC); err != nil {
		return NewError(instr, err)
	}

	c.trace(instr)
	c.regs.PC += arch.InstructionSize

	if err := c.exec(instr); err != nil {
		if err == io.EOF {
			return err
		}
		return NewError(instr, err)
	}
	return nil
}

// exec applies the given instruction. PC already points at the next instruction.
func (c *CPU) exec(instr *Instruction) error {
	v := &c.regs.V
	x, y := instr.X, instr.Y

	switch instr.Op {
	case arch.HALT:
		return io.EOF
	case arch.SYS, arch.Unknown:
		/* nop */

	case arch.CLS:
		c.display.Clear()
		c.redraw = true
	case arch.RET:
		pc, err := c.stack.Pop()
		if err != nil {
			return err
		}
		c.regs.PC = pc
	case arch.JP:
		c.regs.PC = instr.NNN
	case arch.CALL:
		if err := c.stack.Push(c.regs.PC); err != nil {
			return err
		}
		c.regs.PC = instr.NNN
	case arch.JPV0:
		c.regs.PC = (instr.NNN + uint16(v[0])) & AddressMask

	case arch.SEI:
		c.skipIf(v[x] == instr.KK)
	case arch.SNEI:
		c.skipIf(v[x] != instr.KK)
	case arch.SE:
		c.skipIf(v[x] == v[y])
	case arch.SNE:
		c.skipIf(v[x] != v[y])

	case arch.LDI:
		v[x] = instr.KK
	case arch.ADDI:
		sum := uint16(v[x]) + uint16(instr.KK)
		v[x] = uint8(sum)
		if !c.quirks.PreserveFlagOnAddImmediate {
			v[arch.Flag] = uint8(sum >> 8)
		}

	case arch.LD:
		v[x] = v[y]
	case arch.OR:
		v[x] |= v[y]
	case arch.AND:
		v[x] &= v[y]
	case arch.XOR:
		v[x] ^= v[y]
	case arch.ADD:
		sum := uint16(v[x]) + uint16(v[y])
		v[x] = uint8(sum)
		v[arch.Flag] = uint8(sum >> 8)
	case arch.SUB:
		flag := b2u(v[x] >= v[y])
		v[x] -= v[y]
		v[arch.Flag] = flag
	case arch.SUBN:
		flag := b2u(v[y] >= v[x])
		v[x] = v[y] - v[x]
		v[arch.Flag] = flag
	case arch.SHR:
		flag := v[x] & 0x01
		v[x] >>= 1
		v[arch.Flag] = flag
	case arch.SHL:
		flag := v[x] >> 7
		v[x] <<= 1
		v[arch.Flag] = flag

	case arch.LDIA:
		c.regs.I = instr.NNN
	case arch.RND:
		v[x] = uint8(c.rng.Intn(256)) & instr.KK
	case arch.DRW:
		return c.draw(instr)

	case arch.SKP, arch.SKNP:
		key := keypad.Key(v[x])
		if !key.Valid() {
			return errors.Wrapf(ErrBounds, "key %02x", v[x])
		}
		c.skipIf(c.keypad.Pressed(key) == (instr.Op == arch.SKP))
	case arch.LDK:
		return c.keypad.Await(x)

	case arch.LDVDT:
		v[x] = c.timers.Delay
	case arch.LDDTV:
		c.timers.Delay = v[x]
	case arch.LDSTV:
		c.timers.Sound = v[x]

	case arch.ADDIV:
		c.regs.I += uint16(v[x])
	case arch.LDF:
		c.regs.I = FontAddress + uint16(v[x])*FontGlyphSize
	case arch.LDB:
		return c.store(c.regs.I, []byte{v[x] / 100, v[x] / 10 % 10, v[x] % 10})
	case arch.STM:
		return c.store(c.regs.I, v[:x+1])
	case arch.LDM:
		return c.memory.Read(int(c.regs.I), v[:x+1])
	}

	return nil
}

// draw implements DRW: VF is cleared, then set if the sprite erased any lit pixel.
func (c *CPU) draw(instr *Instruction) error {
	v := &c.regs.V
	x, y := v[instr.X], v[instr.Y]

	sprite := c.sprite[:instr.N]
	if err := c.memory.Read(int(c.regs.I), sprite); err != nil {
		return err
	}

	v[arch.Flag] = b2u(c.display.Blit(x, y, sprite))
	c.redraw = true
	return nil
}

// store writes p to memory at addr. The font table is read-only.
func (c *CPU) store(addr uint16, p []byte) error {
	if int(addr) < fontEnd && len(p) > 0 {
		return errors.Wrapf(ErrBounds, "write to font at %03x", addr)
	}
	return c.memory.Write(int(addr), p)
}

// skipIf skips the next instruction if cond holds.
func (c *CPU) skipIf(cond bool) {
	if cond {
		c.regs.PC += arch.InstructionSize
	}
}

// keyEvent delivers key events from input peripherals.
func (c *CPU) keyEvent(key int, pressed bool) {
	if key < 0 || key >= keypad.KeyCount {
		return
	}

	if pressed {
		c.KeyPressed(keypad.Key(key))
	} else {
		c.KeyReleased(keypad.Key(key))
	}
}

func b2u(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}

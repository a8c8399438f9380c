package cpu

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexaflex/c8vm/arch"
	"github.com/hexaflex/c8vm/devices"
	"github.com/hexaflex/c8vm/devices/vip/keypad"
	"github.com/hexaflex/c8vm/devices/vip/timer"
)

func TestLD(t *testing.T) {
	//   LD V3, $2A
	//   LD V4, V3
	//   HALT

	ct := newCodeTest()
	ct.emit(0x632a, 0x8430, 0x0000)

	ct.want[3] = 0x2a
	ct.want[4] = 0x2a
	ct.wantPC = 0x206
	runTest(t, ct)
}

func TestADDI(t *testing.T) {
	//   LD V0, $FE
	//   ADD V0, $03
	//   HALT

	ct := newCodeTest()
	ct.emit(0x60fe, 0x7003, 0x0000)

	ct.want[0] = 0x01
	ct.want[arch.Flag] = 1
	runTest(t, ct)
}

func TestADDIPreserveFlag(t *testing.T) {
	ct := newCodeTest()
	ct.quirks.PreserveFlagOnAddImmediate = true
	ct.v[arch.Flag] = 7
	ct.emit(0x60fe, 0x7003, 0x0000)

	ct.want[0] = 0x01
	ct.want[arch.Flag] = 7
	runTest(t, ct)
}

func TestBitwise(t *testing.T) {
	tests := []struct {
		word uint16
		want uint8
	}{
		{0x8011, 0xfc | 0x3f},
		{0x8012, 0xfc & 0x3f},
		{0x8013, 0xfc ^ 0x3f},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%04x", tt.word), func(t *testing.T) {
			ct := newCodeTest()
			ct.v[0] = 0xfc
			ct.v[1] = 0x3f
			ct.emit(tt.word, 0x0000)

			ct.want[0] = int(tt.want)
			ct.want[1] = 0x3f
			runTest(t, ct)
		})
	}
}

func TestADDProperty(t *testing.T) {
	c := newTestCPU(t)

	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b += 7 {
			c.regs.V[1], c.regs.V[2] = uint8(a), uint8(b)
			execWord(t, c, 0x8124)

			if have, want := c.regs.V[1], uint8((a+b)%256); have != want {
				t.Fatalf("%d+%d: want %d; have %d", a, b, want, have)
			}
			if have, want := c.regs.V[arch.Flag], b2u(a+b >= 256); have != want {
				t.Fatalf("%d+%d: want VF=%d; have %d", a, b, want, have)
			}
		}
	}
}

func TestSUBProperty(t *testing.T) {
	c := newTestCPU(t)

	for a := 0; a < 256; a += 3 {
		for b := 0; b < 256; b += 5 {
			// SUB V1, V2
			c.regs.V[1], c.regs.V[2] = uint8(a), uint8(b)
			execWord(t, c, 0x8125)
			sub, subFlag := c.regs.V[1], c.regs.V[arch.Flag]

			// SUBN V2, V1 computes the same difference.
			c.regs.V[1], c.regs.V[2] = uint8(a), uint8(b)
			execWord(t, c, 0x8217)
			subn, subnFlag := c.regs.V[2], c.regs.V[arch.Flag]

			want := uint8((a - b + 256) % 256)
			if sub != want || subn != want {
				t.Fatalf("%d-%d: want %d; have SUB=%d SUBN=%d", a, b, want, sub, subn)
			}
			if subFlag != subnFlag || subFlag != b2u(a >= b) {
				t.Fatalf("%d-%d: flags SUB=%d SUBN=%d", a, b, subFlag, subnFlag)
			}
		}
	}
}

// The no-borrow flag is set when both operands are equal, unlike
// interpreters which only set it for Vx > Vy.
func TestSUBEqualOperandsSetsFlag(t *testing.T) {
	ct := newCodeTest()
	ct.v[0] = 0x42
	ct.v[1] = 0x42
	ct.emit(0x8015, 0x0000)

	ct.want[0] = 0
	ct.want[arch.Flag] = 1
	runTest(t, ct)
}

func TestSUBNBorrow(t *testing.T) {
	ct := newCodeTest()
	ct.v[0] = 5
	ct.v[1] = 3
	ct.emit(0x8017, 0x0000)

	ct.want[0] = 0xfe
	ct.want[arch.Flag] = 0
	runTest(t, ct)
}

func TestShifts(t *testing.T) {
	tests := []struct {
		name  string
		word  uint16
		in    uint8
		out   uint8
		carry uint8
	}{
		{"SHR odd", 0x8106, 0x81, 0x40, 1},
		{"SHR even", 0x8106, 0x80, 0x40, 0},
		{"SHL high", 0x810e, 0x81, 0x02, 1},
		{"SHL low", 0x810e, 0x41, 0x82, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct := newCodeTest()
			ct.v[1] = tt.in
			ct.emit(tt.word, 0x0000)

			ct.want[1] = int(tt.out)
			ct.want[arch.Flag] = int(tt.carry)
			runTest(t, ct)
		})
	}
}

func TestFlagRegisterReceivesFlag(t *testing.T) {
	//   ADD VF, V1 -> VF holds the carry, not the sum.
	ct := newCodeTest()
	ct.v[arch.Flag] = 0xff
	ct.v[1] = 0x02
	ct.emit(0x8f14, 0x0000)

	ct.want[arch.Flag] = 1
	runTest(t, ct)
}

func TestSkips(t *testing.T) {
	tests := []struct {
		name string
		word uint16
		skip bool
	}{
		{"SE imm taken", 0x3005, true},
		{"SE imm not taken", 0x3006, false},
		{"SNE imm taken", 0x4006, true},
		{"SNE imm not taken", 0x4005, false},
		{"SE reg taken", 0x5010, true},
		{"SE reg not taken", 0x5020, false},
		{"SNE reg taken", 0x9020, true},
		{"SNE reg not taken", 0x9010, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct := newCodeTest()
			ct.v[0] = 5
			ct.v[1] = 5
			ct.v[2] = 9
			ct.emit(tt.word, 0x0000, 0x0000)

			ct.wantPC = 0x204
			if tt.skip {
				ct.wantPC = 0x206
			}
			runTest(t, ct)
		})
	}
}

func TestJP(t *testing.T) {
	//   JP $206
	//   LD V0, $01
	//   HALT
	//   LD V1, $02
	//   HALT

	ct := newCodeTest()
	ct.emit(0x1206, 0x6001, 0x0000, 0x6102, 0x0000)

	ct.want[0] = 0
	ct.want[1] = 2
	ct.wantPC = 0x20a
	runTest(t, ct)
}

func TestJPV0(t *testing.T) {
	ct := newCodeTest()
	ct.v[0] = 0x04
	ct.emit(0xb202, 0x0000, 0x0000, 0x6107, 0x0000)

	ct.want[1] = 7
	runTest(t, ct)
}

func TestJPV0WrapsAddressSpace(t *testing.T) {
	c := newTestCPU(t)
	c.regs.V[0] = 0x10
	execWord(t, c, 0xbff8)
	assert.Equal(t, uint16(0x008), c.regs.PC)
}

func TestCALLRET(t *testing.T) {
	//   CALL foo
	//   HALT
	// :foo
	//   LD V0, $7B
	//   RET

	ct := newCodeTest()
	ct.emit(0x2204, 0x0000, 0x607b, 0x00ee)

	ct.want[0] = 0x7b
	ct.wantPC = 0x204
	runTest(t, ct)
}

func TestNestedCallRoundTrip(t *testing.T) {
	assert := assert.New(t)

	// Sixteen nested calls: 0x200 calls 0x300, 0x300 calls 0x304 ... Each
	// subroutine is "CALL next; RET", so sixteen returns unwind back to the
	// instruction after the first call.
	var prog bytes.Buffer
	prog.Write([]byte{0x23, 0x00, 0x00, 0x00})
	prog.Write(make([]byte, 0x100-4))
	for i := 1; i < StackLimit; i++ {
		target := 0x300 + i*4
		prog.Write([]byte{0x20 | byte(target>>8), byte(target), 0x00, 0xee})
	}
	prog.Write([]byte{0x00, 0xee})

	c := newTestCPU(t)
	require.NoError(t, c.Load(prog.Bytes()))

	for i := 0; i < StackLimit; i++ {
		require.NoError(t, c.Cycle(0))
	}
	assert.Len(c.Stack(), StackLimit)
	assert.Equal(uint16(0x202), c.Stack()[0])

	for i := 0; i < StackLimit; i++ {
		require.NoError(t, c.Cycle(0))
	}
	assert.Empty(c.Stack())
	assert.Equal(uint16(0x202), c.Registers().PC)
}

func TestStackOverflow(t *testing.T) {
	assert := assert.New(t)

	// CALL $200 forever.
	c := newTestCPU(t)
	require.NoError(t, c.Load([]byte{0x22, 0x00}))

	done, err := c.Run(100, 0)
	assert.False(done)
	assert.ErrorIs(err, ErrStackOverflow)

	var rte *Error
	require.True(t, errors.As(err, &rte))
	assert.Equal(0x200, rte.IP)
	assert.Equal(uint16(0x2200), rte.Word)
	assert.Equal("200: 2200 CALL $200: stack overflow", err.Error())

	// The run has stopped.
	assert.ErrorIs(c.Cycle(0), ErrStackOverflow)
}

func TestStackUnderflow(t *testing.T) {
	c := newTestCPU(t)
	require.NoError(t, c.Load([]byte{0x00, 0xee}))

	err := c.Cycle(0)
	assert.ErrorIs(t, err, ErrStackUnderflow)
	assert.Contains(t, err.Error(), "200: 00ee RET")
}

func TestUnknownOpcodeIsNop(t *testing.T) {
	ct := newCodeTest()
	ct.emit(0x5121, 0x8018, 0xe0ff, 0xf0ff, 0x0123, 0x0000)

	ct.wantPC = 0x20c
	runTest(t, ct)
}

func TestLDIAndFont(t *testing.T) {
	assert := assert.New(t)

	c := newTestCPU(t)
	execWord(t, c, 0xa123)
	assert.Equal(uint16(0x123), c.regs.I)

	c.regs.V[4] = 0xb
	execWord(t, c, 0xf429)
	assert.Equal(uint16(0xb*FontGlyphSize), c.regs.I)
	assert.Equal(font[0xb*FontGlyphSize:0xc*FontGlyphSize], []byte(c.memory[c.regs.I:c.regs.I+FontGlyphSize]))
}

func TestADDIV(t *testing.T) {
	c := newTestCPU(t)
	c.regs.I = 0x300
	c.regs.V[2] = 0x20
	execWord(t, c, 0xf21e)
	assert.Equal(t, uint16(0x320), c.regs.I)
}

func TestRND(t *testing.T) {
	assert := assert.New(t)

	c := newTestCPU(t)
	c.Seed(1)
	for i := 0; i < 64; i++ {
		execWord(t, c, 0xc30f)
		assert.Zero(c.regs.V[3] & 0xf0)
	}

	execWord(t, c, 0xc300)
	assert.Zero(c.regs.V[3])

	a, b := newTestCPU(t), newTestCPU(t)
	a.Seed(42)
	b.Seed(42)
	execWord(t, a, 0xc0ff)
	execWord(t, b, 0xc0ff)
	assert.Equal(a.regs.V[0], b.regs.V[0])
}

func TestBCD(t *testing.T) {
	tests := []struct {
		value uint8
		want  []byte
	}{
		{0, []byte{0, 0, 0}},
		{7, []byte{0, 0, 7}},
		{42, []byte{0, 4, 2}},
		{255, []byte{2, 5, 5}},
		{100, []byte{1, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.value), func(t *testing.T) {
			c := newTestCPU(t)
			c.regs.I = 0x300
			c.regs.V[6] = tt.value
			execWord(t, c, 0xf633)
			assert.Equal(t, tt.want, []byte(c.memory[0x300:0x303]))
			assert.Equal(t, uint16(0x300), c.regs.I)
		})
	}
}

func TestStoreLoadRegisters(t *testing.T) {
	assert := assert.New(t)

	c := newTestCPU(t)
	for i := range c.regs.V {
		c.regs.V[i] = uint8(0x10 + i)
	}
	c.regs.I = 0x400

	// LD [I], V3
	execWord(t, c, 0xf355)
	assert.Equal([]byte{0x10, 0x11, 0x12, 0x13, 0x00}, []byte(c.memory[0x400:0x405]))
	assert.Equal(uint16(0x400), c.regs.I)

	c.regs.V = [arch.RegisterCount]uint8{}
	c.memory[0x404] = 0x99

	// LD V4, [I]
	execWord(t, c, 0xf465)
	assert.Equal([]uint8{0x10, 0x11, 0x12, 0x13, 0x99, 0x00}, c.regs.V[:6])
}

func TestStoreIntoFontFails(t *testing.T) {
	c := newTestCPU(t)
	c.regs.I = 0x0010
	require.NoError(t, c.Load([]byte{0xf0, 0x55}))

	err := c.Cycle(0)
	assert.ErrorIs(t, err, ErrBounds)
	assert.Equal(t, font[0x10], c.memory[0x10])
}

func TestLoadPastEndFails(t *testing.T) {
	c := newTestCPU(t)
	c.regs.I = 0xffe
	require.NoError(t, c.Load([]byte{0xff, 0x65}))

	err := c.Cycle(0)
	assert.ErrorIs(t, err, ErrBounds)
	assert.Contains(t, err.Error(), "200: ff65 LD VF, [I]")
}

func TestFetchPastEndFails(t *testing.T) {
	c := newTestCPU(t)
	require.NoError(t, c.Load([]byte{0x1f, 0xff}))

	require.NoError(t, c.Cycle(0))
	err := c.Cycle(0)
	assert.ErrorIs(t, err, ErrBounds)
	assert.Contains(t, err.Error(), "fff: fetch")
}

func TestTimersInstructions(t *testing.T) {
	assert := assert.New(t)

	c := newTestCPU(t)
	c.regs.V[1] = 30
	c.regs.V[2] = 9
	execWord(t, c, 0xf115)
	execWord(t, c, 0xf218)
	assert.Equal(uint8(30), c.Timers().Delay)
	assert.Equal(uint8(9), c.Timers().Sound)
	assert.True(c.Sound())

	execWord(t, c, 0xf307)
	assert.Equal(uint8(30), c.regs.V[3])
}

func TestTimerDecrementPerCycle(t *testing.T) {
	assert := assert.New(t)

	// JP $200
	c := newTestCPU(t)
	require.NoError(t, c.Load([]byte{0x12, 0x00}))
	c.timers.Delay = 10

	for i := 0; i < 6; i++ {
		require.NoError(t, c.Cycle(timer.Period))
	}
	assert.Equal(uint8(4), c.Timers().Delay)

	for i := 0; i < 20; i++ {
		require.NoError(t, c.Cycle(timer.Period))
	}
	assert.Equal(uint8(0), c.Timers().Delay)
}

func TestTimerDecrementIndependentOfThroughput(t *testing.T) {
	c := newTestCPU(t)
	require.NoError(t, c.Load([]byte{0x12, 0x00}))
	c.timers.Delay = 10

	// 1000 instructions in 2.5 periods.
	for i := 0; i < 1000; i++ {
		require.NoError(t, c.Cycle(timer.Period/400))
	}
	assert.Equal(t, uint8(8), c.Timers().Delay)
}

func TestCarryRemainderTimerMode(t *testing.T) {
	c := newTestCPU(t)
	c.SetTimerMode(timer.CarryRemainder)
	require.NoError(t, c.Load([]byte{0x12, 0x00}))
	c.timers.Delay = 10

	require.NoError(t, c.Cycle(timer.Period*3))
	assert.Equal(t, uint8(7), c.Timers().Delay)
}

func TestSKPSKNP(t *testing.T) {
	tests := []struct {
		name    string
		word    uint16
		pressed bool
		skip    bool
	}{
		{"SKP pressed", 0xe09e, true, true},
		{"SKP released", 0xe09e, false, false},
		{"SKNP pressed", 0xe0a1, true, false},
		{"SKNP released", 0xe0a1, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCPU(t)
			c.regs.V[0] = 0xa
			if tt.pressed {
				c.KeyPressed(keypad.KeyA)
			}

			require.NoError(t, c.Load([]byte{byte(tt.word >> 8), byte(tt.word)}))
			require.NoError(t, c.Cycle(0))

			want := uint16(0x202)
			if tt.skip {
				want = 0x204
			}
			assert.Equal(t, want, c.Registers().PC)
		})
	}
}

func TestSKPKeyOutOfRange(t *testing.T) {
	c := newTestCPU(t)
	c.regs.V[0] = 0x10
	require.NoError(t, c.Load([]byte{0xe0, 0x9e}))

	assert.ErrorIs(t, c.Cycle(0), ErrBounds)
}

func TestKeyWaitBlocksDecoding(t *testing.T) {
	assert := assert.New(t)

	//   LD V5, K
	//   LD V6, $01
	//   HALT
	c := newTestCPU(t)
	require.NoError(t, c.Load([]byte{0xf5, 0x0a, 0x66, 0x01, 0x00, 0x00}))
	c.timers.Delay = 5

	require.NoError(t, c.Cycle(0))
	reg, waiting := c.Waiting()
	assert.True(waiting)
	assert.Equal(uint8(5), reg)

	for i := 0; i < 10; i++ {
		require.NoError(t, c.Cycle(timer.Period))
	}
	assert.Equal(uint16(0x202), c.Registers().PC)
	assert.Zero(c.Registers().V[6])
	// Timers keep running while blocked.
	assert.Zero(c.Timers().Delay)

	// A release alone does not resume.
	c.KeyReleased(keypad.KeyB)
	_, waiting = c.Waiting()
	assert.True(waiting)

	c.KeyPressed(keypad.KeyB)
	_, waiting = c.Waiting()
	assert.False(waiting)
	assert.Equal(uint8(0xb), c.Registers().V[5])

	require.NoError(t, c.Cycle(0))
	assert.Equal(uint8(1), c.Registers().V[6])

	done, err := c.Run(10, 0)
	assert.NoError(err)
	assert.True(done)
}

func TestCLS(t *testing.T) {
	c := newTestCPU(t)
	for y := 0; y < DisplayHeight; y += 3 {
		for x := 0; x < DisplayWidth; x += 5 {
			c.display[y][x] = true
		}
	}
	c.Redraw()

	execWord(t, c, 0x00e0)
	assert.Zero(t, c.display.Lit())
	assert.True(t, c.Redraw())
	assert.False(t, c.Redraw())
}

func TestDRW(t *testing.T) {
	assert := assert.New(t)

	c := newTestCPU(t)
	c.Redraw()
	c.regs.V[0] = 2
	c.regs.V[1] = 3
	c.regs.V[arch.Flag] = 1

	// LD F, V2 with V2 = 0 -> glyph "0".
	execWord(t, c, 0xf229)
	execWord(t, c, 0xd015)

	assert.Equal(uint8(0), c.regs.V[arch.Flag])
	assert.True(c.Redraw())
	assert.Equal(14, c.display.Lit())
	assert.True(c.Pixel(2, 3))
	assert.True(c.Pixel(5, 3))
	assert.False(c.Pixel(3, 4))
	assert.True(c.Pixel(5, 7))

	// Drawing again erases everything and reports a collision.
	execWord(t, c, 0xd015)
	assert.Equal(uint8(1), c.regs.V[arch.Flag])
	assert.Zero(c.display.Lit())
}

func TestDRWIdempotentTwice(t *testing.T) {
	assert := assert.New(t)

	c := newTestCPU(t)
	c.regs.I = 0x300
	copy(c.memory[0x300:], []byte{0xa5, 0x5a, 0xff})

	// A lit pixel elsewhere does not count as a collision.
	c.display[20][40] = true
	before := c.Display()

	c.regs.V[0], c.regs.V[1] = 10, 10
	execWord(t, c, 0xd013)
	assert.Equal(uint8(0), c.regs.V[arch.Flag])

	execWord(t, c, 0xd013)
	assert.Equal(uint8(1), c.regs.V[arch.Flag])
	assert.Equal(before, c.Display())
}

func TestDRWCollisionFlag(t *testing.T) {
	c := newTestCPU(t)
	c.regs.I = 0x300
	c.memory[0x300] = 0x80
	c.display[0][0] = true

	execWord(t, c, 0xd011)
	assert.Equal(t, uint8(1), c.regs.V[arch.Flag])
	assert.False(t, c.Pixel(0, 0))
}

func TestDRWWraps(t *testing.T) {
	assert := assert.New(t)

	c := newTestCPU(t)
	c.regs.I = 0x300
	c.memory[0x300] = 0xff
	c.memory[0x301] = 0xff
	c.regs.V[0] = 60
	c.regs.V[1] = 31

	execWord(t, c, 0xd012)

	for _, x := range []int{60, 61, 62, 63, 0, 1, 2, 3} {
		assert.True(c.Pixel(x, 31), "x=%d y=31", x)
		assert.True(c.Pixel(x, 0), "x=%d y=0", x)
	}
	assert.False(c.Pixel(4, 31))
	assert.False(c.Pixel(59, 0))
	assert.Equal(16, c.display.Lit())
}

func TestDRWZeroRows(t *testing.T) {
	c := newTestCPU(t)
	c.regs.V[arch.Flag] = 1
	execWord(t, c, 0xd010)
	assert.Equal(t, uint8(0), c.regs.V[arch.Flag])
	assert.Zero(t, c.display.Lit())
}

func TestEndToEnd(t *testing.T) {
	assert := assert.New(t)

	//   CALL $204
	//   HALT
	//   ADD V0, V1
	//   ADD V0, V1
	//   ADD V0, V1
	//   RET
	c := newTestCPU(t)
	require.NoError(t, c.Load([]byte{
		0x22, 0x04, 0x00, 0x00,
		0x80, 0x14, 0x80, 0x14, 0x80, 0x14, 0x00, 0xee,
	}))
	c.regs.V[0] = 1
	c.regs.V[1] = 3

	done, err := c.Run(100, 0)
	assert.NoError(err)
	assert.True(done)
	assert.Equal(uint8(10), c.Registers().V[0])
	assert.Equal(uint8(0), c.Registers().V[arch.Flag])
	assert.Equal(io.EOF, c.Cycle(0))
}

func TestLoad(t *testing.T) {
	assert := assert.New(t)

	c := New(nil)
	assert.NoError(c.Load(make([]byte, MemoryCapacity-ProgramStart)))
	assert.ErrorIs(c.Load(make([]byte, MemoryCapacity-ProgramStart+1)), ErrProgramTooLarge)
	assert.Equal(font[:], []byte(c.memory[:len(font)]))
}

func TestReset(t *testing.T) {
	assert := assert.New(t)

	c := newTestCPU(t)
	require.NoError(t, c.Load([]byte{0x22, 0x00}))
	_, err := c.Run(20, timer.Period)
	require.Error(t, err)

	c.Reset()
	assert.Equal(Registers{PC: ProgramStart}, c.Registers())
	assert.Empty(c.Stack())
	assert.Equal(font[:], []byte(c.memory[:len(font)]))
	assert.Zero(c.memory[ProgramStart])

	// The fault is gone; the zeroed program halts immediately.
	assert.Equal(io.EOF, c.Cycle(0))
}

func TestNotRunning(t *testing.T) {
	c := New(nil)
	assert.Equal(t, io.EOF, c.Cycle(0))

	require.NoError(t, c.Startup())
	assert.Error(t, c.Startup())
	require.NoError(t, c.Shutdown())
	assert.NoError(t, c.Shutdown())
	assert.Equal(t, io.EOF, c.Cycle(0))
}

func TestTrace(t *testing.T) {
	var seen []string
	c := New(func(i *Instruction) {
		seen = append(seen, fmt.Sprintf("%03x %s", i.IP, i.Instruction))
	})
	require.NoError(t, c.Startup())
	require.NoError(t, c.Load([]byte{0x60, 0x01, 0x00, 0x00}))

	done, err := c.Run(10, 0)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, []string{"200 LD V0, $01", "202 HALT"}, seen)
}

func TestDevices(t *testing.T) {
	assert := assert.New(t)

	dev := &testDevice{}
	c := New(nil)
	assert.True(c.Connect(dev))
	assert.False(c.Connect(&testDevice{}))

	require.NoError(t, c.Startup())
	require.NoError(t, c.Load([]byte{0xf3, 0x0a, 0x12, 0x02}))
	require.NoError(t, c.Cycle(0))

	dev.keyFunc(0xc, true)
	assert.Equal(uint8(0xc), c.Registers().V[3])
	dev.keyFunc(0x10, true)
	dev.keyFunc(0xc, false)

	c.display[1][2] = true
	c.timers.Sound = 2
	c.Devices().Update(c)
	assert.True(dev.lit)
	assert.True(dev.beep)

	require.NoError(t, c.Shutdown())
	assert.True(dev.stopped)
}

const testID devices.ID = 0xc0ffee

type testDevice struct {
	keyFunc devices.KeyFunc
	lit     bool
	beep    bool
	stopped bool
}

func (d *testDevice) ID() devices.ID { return testID }

func (d *testDevice) Startup(f devices.KeyFunc) error {
	d.keyFunc = f
	return nil
}

func (d *testDevice) Shutdown() error {
	d.stopped = true
	return nil
}

func (d *testDevice) Update(f devices.Frame) {
	d.lit = f.Pixel(2, 1)
	d.beep = f.Sound()
}

type codeTest struct {
	program bytes.Buffer
	quirks  Quirks
	v       [arch.RegisterCount]uint8 // Initial register values.
	want    map[int]int               // Expected register values by index.
	wantPC  int                       // Expected final PC, if nonzero.
}

func newCodeTest() *codeTest {
	return &codeTest{
		want: make(map[int]int),
	}
}

func (ct *codeTest) emit(words ...uint16) {
	for _, w := range words {
		ct.program.WriteByte(byte(w >> 8))
		ct.program.WriteByte(byte(w))
	}
}

func runTest(t *testing.T, ct *codeTest) {
	t.Helper()

	c := newTestCPU(t)
	c.SetQuirks(ct.quirks)
	c.regs.V = ct.v

	if err := c.Load(ct.program.Bytes()); err != nil {
		t.Fatalf("Load failure: %v", err)
	}

	done, err := c.Run(MemoryCapacity, 0)
	if err != nil {
		t.Fatalf("Cycle failure: %v", err)
	}
	if !done {
		t.Fatalf("program did not halt")
	}

	for reg, want := range ct.want {
		if have := int(c.regs.V[reg]); have != want {
			t.Fatalf("register mismatch at V%X:\nwant: %02x\nhave: %02x\n", reg, want, have)
		}
	}

	// PC points past the HALT instruction.
	if ct.wantPC != 0 && int(c.regs.PC) != ct.wantPC {
		t.Fatalf("PC mismatch:\nwant: %03x\nhave: %03x\n", ct.wantPC, c.regs.PC)
	}
}

// newTestCPU returns a started cpu with no devices attached.
func newTestCPU(t *testing.T) *CPU {
	t.Helper()

	c := New(nil)
	c.Seed(1)
	require.NoError(t, c.Startup())
	t.Cleanup(func() { c.Shutdown() })
	return c
}

// execWord executes a single instruction word in isolation.
func execWord(t *testing.T, c *CPU, word uint16) {
	t.Helper()

	c.instr.IP = int(c.regs.PC)
	c.instr.Instruction = arch.Decode(word)
	c.regs.PC += arch.InstructionSize
	require.NoError(t, c.exec(&c.instr))
}

package main

import (
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/pkg/term"

	"github.com/hexaflex/c8vm/devices/vip/cpu"
	"github.com/hexaflex/c8vm/devices/vip/timer"
)

const (
	keyEscape   = 0x1b
	frameRate   = 60
	framePeriod = time.Second / frameRate
)

func main() {
	config := parseArgs()

	if err := run(config); err != nil {
		log.Fatal(err)
	}
}

func run(config *Config) error {
	program, err := os.ReadFile(config.Program)
	if err != nil {
		return errors.Wrap(err, "load program")
	}

	c := cpu.New(nil)
	c.SetQuirks(cpu.Quirks{PreserveFlagOnAddImmediate: config.VFQuirk})
	if config.TimerCarry {
		c.SetTimerMode(timer.CarryRemainder)
	}
	if config.Seed != 0 {
		c.Seed(config.Seed)
	}

	if err := c.Load(program); err != nil {
		return err
	}

	tty, err := term.Open(config.Device, term.RawMode)
	if err != nil {
		return errors.Wrapf(err, "open %s", config.Device)
	}

	defer func() {
		tty.Write([]byte(showCursor + "\r\n"))
		tty.Restore()
		tty.Close()
	}()

	// Raw mode swallows log line endings; keep log output off the display.
	log.SetOutput(io.Discard)

	if err := c.Startup(); err != nil {
		return err
	}

	defer c.Shutdown()

	tty.Write([]byte(clearScreen + hideCursor))
	err = loop(config, c, tty, readInput(tty))

	if err == io.EOF {
		return nil
	}
	return err
}

// readInput forwards bytes typed on r until it fails.
func readInput(r io.Reader) <-chan byte {
	input := make(chan byte, 64)

	go func() {
		defer close(input)

		buf := make([]byte, 16)
		for {
			n, err := r.Read(buf)
			for _, b := range buf[:n] {
				input <- b
			}
			if err != nil {
				return
			}
		}
	}()

	return input
}

// pacing returns the number of instructions to run per frame and the time
// each of them accounts for. A batch spans one frame period.
func pacing(speed int) (batch int, perCycle time.Duration) {
	batch = max(speed/frameRate, 1)
	return batch, framePeriod / time.Duration(batch)
}

// loop runs the program until it halts, faults or escape is typed.
// Instructions run in batches, once per frame.
func loop(config *Config, c *cpu.CPU, w io.Writer, input <-chan byte) error {
	kb := NewKeyboard(config.KeyHold, c.KeyPressed, c.KeyReleased)
	batch, perCycle := pacing(config.Speed)

	ticker := time.NewTicker(framePeriod)
	defer ticker.Stop()

	var sb strings.Builder
	var beeping bool

	for {
		select {
		case b, ok := <-input:
			if !ok || b == keyEscape {
				return io.EOF
			}
			if k, ok := keypadKey(b); ok {
				kb.Type(k, time.Now())
			}
			continue

		case now := <-ticker.C:
			kb.Expire(now)
		}

		for i := 0; i < batch; i++ {
			if err := c.Cycle(perCycle); err != nil {
				return err
			}
		}

		sb.Reset()
		if c.Redraw() {
			render(&sb, c)
		}

		if c.Sound() && !beeping && !config.Mute {
			sb.WriteString(bell)
		}
		beeping = c.Sound()

		if sb.Len() > 0 {
			if _, err := io.WriteString(w, sb.String()); err != nil {
				return err
			}
		}
	}
}

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/bradleyjkemp/memviz"
	"github.com/pkg/errors"

	"github.com/hexaflex/c8vm/devices/vip/cpu"
)

// snapshot is the machine state rendered by dumpState.
type snapshot struct {
	Registers cpu.Registers
	Stack     []uint16
	Delay     uint8
	Sound     uint8
	Waiting   bool
	Display   string
}

func takeSnapshot(c *cpu.CPU) *snapshot {
	_, waiting := c.Waiting()
	timers := c.Timers()
	display := c.Display()

	return &snapshot{
		Registers: c.Registers(),
		Stack:     c.Stack(),
		Delay:     timers.Delay,
		Sound:     timers.Sound,
		Waiting:   waiting,
		Display:   display.String(),
	}
}

// dumpState writes a graphviz rendering of the machine state to a
// timestamped .dot file in the working directory and returns its name.
func dumpState(c *cpu.CPU) (string, error) {
	file := fmt.Sprintf("%s-%s.dot", AppName, time.Now().Format("20060102-150405"))

	fd, err := os.Create(file)
	if err != nil {
		return "", errors.Wrap(err, "dump state")
	}

	defer fd.Close()

	memviz.Map(fd, takeSnapshot(c))
	return file, nil
}

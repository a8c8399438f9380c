package main

import (
	"io"
	"time"

	"github.com/hexaflex/c8vm/devices"
	"github.com/hexaflex/c8vm/devices/vip/cpu"
)

// maxBacklog bounds how far execution catches up after a stall,
// such as a dragged window or a breakpoint.
const maxBacklog = time.Second / 10

// CPUController controls the execution of a CPU at a fixed instruction rate.
type CPUController struct {
	cpu        *cpu.CPU
	period     time.Duration // Wall-clock time per instruction.
	last       time.Time     // Time of the previous Advance call.
	backlog    time.Duration // Time owed to execution.
	start      time.Time
	cycleCount uint64
	running    bool
}

// NewCPUController creates a new CPU controller.
func NewCPUController(trace cpu.TraceFunc, speed int, devices ...devices.Device) *CPUController {
	cpu := cpu.New(trace)

	for _, dev := range devices {
		cpu.Connect(dev)
	}

	return &CPUController{
		cpu:    cpu,
		period: time.Second / time.Duration(speed),
	}
}

// CPU returns the controlled cpu.
func (c *CPUController) CPU() *cpu.CPU {
	return c.cpu
}

// Running returns true if the CPU is currently running.
func (c *CPUController) Running() bool {
	return c.running
}

// Frequency returns the measured instruction rate in herz.
func (c *CPUController) Frequency() float64 {
	if !c.running {
		return 0
	}
	return float64(c.cycleCount) / time.Since(c.start).Seconds()
}

// ToggleRun starts or stops program execution.
func (c *CPUController) ToggleRun() {
	c.setRunning(!c.running)
}

// Start begins execution of the program.
func (c *CPUController) Start() {
	c.setRunning(true)
}

// Stop pauses execution of the program.
func (c *CPUController) Stop() {
	c.setRunning(false)
}

// Advance executes as many instructions as are due since the previous call.
func (c *CPUController) Advance(now time.Time) error {
	if !c.running {
		return nil
	}

	c.backlog += now.Sub(c.last)
	c.last = now

	if c.backlog > maxBacklog {
		c.backlog = maxBacklog
	}

	for c.running && c.backlog >= c.period {
		c.backlog -= c.period

		if err := c.Step(); err != nil {
			return err
		}
	}

	return nil
}

// Step performs a single execution step, worth one instruction period.
// Execution stops once the program halts or faults.
func (c *CPUController) Step() error {
	c.cycleCount++

	err := c.cpu.Cycle(c.period)
	if err != nil {
		c.setRunning(false)
		if err != io.EOF {
			return err
		}
	}

	return nil
}

// Load resets the cpu and loads the given program.
func (c *CPUController) Load(program []byte) error {
	c.Stop()
	c.cpu.Reset()
	return c.cpu.Load(program)
}

// Startup initializes the cpu and connected peripherals.
func (c *CPUController) Startup() error {
	return c.cpu.Startup()
}

// Shutdown disposes of CPU and peripheral resources.
func (c *CPUController) Shutdown() error {
	return c.cpu.Shutdown()
}

// setRunning determines if the CPU is running or is paused.
func (c *CPUController) setRunning(v bool) {
	c.running = v
	c.start = time.Now()
	c.last = c.start
	c.backlog = 0
	c.cycleCount = 0
}

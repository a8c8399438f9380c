package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/go-gl/gl/v4.2-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"

	"github.com/hexaflex/c8vm/devices/vip/buzzer"
	"github.com/hexaflex/c8vm/devices/vip/cpu"
	"github.com/hexaflex/c8vm/devices/vip/hexpad"
	"github.com/hexaflex/c8vm/devices/vip/screen"
	"github.com/hexaflex/c8vm/devices/vip/timer"
)

// App defines application context.
type App struct {
	config       *Config        // Application configuration.
	window       *glfw.Window   // OpenGL/GLFW context.
	cpu          *CPUController // VM with program to be run.
	display      *screen.Device // Display peripheral.
	gamepad      *hexpad.Device // Gamepad peripheral.
	buzzer       *buzzer.Device // Sound peripheral.
	titleUpdated time.Time      // Value used to periodically update window title.
	lastRendered time.Time      // Last time a frame was rendered.
}

// NewApp creates a new application instance using the given configuration.
func NewApp(config *Config) *App {
	var a App
	a.config = config
	a.display = screen.New(config.Foreground, config.Background)
	a.gamepad = hexpad.New(nil)
	a.cpu = NewCPUController(a.printTrace, config.Speed, a.display, a.gamepad)

	c := a.cpu.CPU()
	c.SetQuirks(cpu.Quirks{PreserveFlagOnAddImmediate: config.VFQuirk})
	if config.TimerCarry {
		c.SetTimerMode(timer.CarryRemainder)
	}
	if config.Seed != 0 {
		c.Seed(config.Seed)
	}
	return &a
}

// Run runs the application and does not return until it is finished
// or an error occurred during initialization.
func (a *App) Run() error {
	if err := a.initGL(); err != nil {
		return err
	}

	defer a.dispose()

	if err := a.initAudio(); err != nil {
		return err
	}

	if a.config.StatsView != "" {
		a.startStatsView()
	}

	if err := a.cpu.Startup(); err != nil {
		return err
	}

	log.Println(Version())
	printHelp()

	if err := a.loadProgram(); err != nil {
		return err
	}

	if !a.config.Debug {
		a.cpu.Start()
	}

	for !a.window.ShouldClose() {
		a.mainLoop()
	}

	return nil
}

// mainLoop performs all main loop operations.
func (a *App) mainLoop() {
	if err := a.cpu.Advance(time.Now()); err != nil {
		log.Println(err)
	}

	// Periodically render display contents and feed the peripherals.
	if time.Since(a.lastRendered) >= time.Second/buzzer.FramesPerSecond {
		a.lastRendered = time.Now()
		syncDevices(a.cpu.CPU(), a.display)

		gl.Clear(gl.COLOR_BUFFER_BIT)
		a.display.Draw()
		a.window.SwapBuffers()
	}

	// Periodically update the window title to show the current instruction rate.
	if time.Since(a.titleUpdated) >= time.Second*2 {
		a.titleUpdated = time.Now()
		a.window.SetTitle(fmt.Sprintf("%s %s - %.0f ips", AppName, AppVersion, a.cpu.Frequency()))
	}

	glfw.PollEvents()
}

// syncDevices feeds the current machine state to the peripherals.
// The display only copies the framebuffer after a draw or clear.
func syncDevices(c *cpu.CPU, display *screen.Device) {
	if c.Redraw() {
		display.Invalidate()
	}
	c.Devices().Update(c)
}

// dispose ensures openGL/GLFW and other resources are cleaned up.
func (a *App) dispose() {
	a.cpu.Stop()
	if err := a.cpu.Shutdown(); err != nil {
		log.Println(err)
	}

	if a.window != nil {
		a.window.Destroy()
		a.window = nil
	}

	glfw.Terminate()
}

func (a *App) keyCallback(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action == glfw.Repeat {
		return
	}

	if k, ok := keypadKey(key); ok {
		c := a.cpu.CPU()
		if action == glfw.Press {
			c.KeyPressed(k)
		} else {
			c.KeyReleased(k)
		}
		return
	}

	if action != glfw.Press {
		return
	}

	var err error

	switch key {
	case glfw.KeyEscape:
		a.window.SetShouldClose(true)
	case glfw.KeyF1:
		printHelp()
	case glfw.KeyF2:
		a.config.Debug = !a.config.Debug
		log.Println("debug mode:", a.config.Debug)
	case glfw.KeyF3:
		a.config.PrintTrace = !a.config.PrintTrace
	case glfw.KeyF5:
		if err = a.loadProgram(); err == nil && !a.config.Debug {
			a.cpu.Start()
		}
	case glfw.KeyF6:
		a.cpu.ToggleRun()
	case glfw.KeyF7:
		err = a.cpu.Step()
	case glfw.KeyF9:
		var file string
		if file, err = dumpState(a.cpu.CPU()); err == nil {
			log.Println("state written to", file)
		}
	}

	if err != nil {
		log.Println(err)
	}
}

// initGL initializes GLFW and openGL.
func (a *App) initGL() error {
	err := glfw.Init()
	if err != nil {
		return errors.Wrapf(err, "glfw.Init failed")
	}

	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.Visible, glfw.True)
	glfw.WindowHint(glfw.Focused, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 2)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	var monitor *glfw.Monitor

	width := screen.Width * a.config.ScaleFactor
	height := screen.Height * a.config.ScaleFactor

	if a.config.Fullscreen {
		monitor = glfw.GetPrimaryMonitor()
		mode := monitor.GetVideoMode()

		width = mode.Width
		height = mode.Height

		glfw.WindowHint(glfw.Decorated, glfw.False)
		glfw.WindowHint(glfw.Maximized, glfw.True)
	} else {
		glfw.WindowHint(glfw.Decorated, glfw.True)
		glfw.WindowHint(glfw.Maximized, glfw.False)
	}

	a.window, err = glfw.CreateWindow(width, height, AppName, monitor, nil)
	if err != nil {
		a.dispose()
		return errors.Wrapf(err, "glfw.CreateWindow failed")
	}

	a.window.MakeContextCurrent()
	a.window.SetKeyCallback(a.keyCallback)

	glfw.SwapInterval(1)

	err = gl.Init()
	if err != nil {
		a.dispose()
		return errors.Wrapf(err, "gl.Init failed")
	}

	gl.ClearColor(a.display.Background())
	return nil
}

// initAudio connects the buzzer, with an optional WAV recorder.
func (a *App) initAudio() error {
	var rec *buzzer.Recorder

	if a.config.Record != "" {
		var err error
		if rec, err = buzzer.CreateRecorder(a.config.Record, buzzer.SampleRate); err != nil {
			return err
		}
	}

	if a.config.Mute && rec == nil {
		return nil
	}

	a.buzzer = buzzer.New(a.config.Mute, rec)
	a.cpu.CPU().Connect(a.buzzer)
	return nil
}

// startStatsView serves runtime statistics in the background.
func (a *App) startStatsView() {
	viewer.SetConfiguration(viewer.WithAddr(a.config.StatsView))
	mgr := statsview.New()
	go mgr.Start()
	log.Printf("stats server available at http://%s/debug/statsview", a.config.StatsView)
}

// loadProgram loads the current program from disk and resets the cpu.
func (a *App) loadProgram() error {
	log.Println("loading", a.config.Program)

	program, err := os.ReadFile(a.config.Program)
	if err != nil {
		return errors.Wrap(err, "load program")
	}

	return a.cpu.Load(program)
}

// printTrace prints instruction trace data. This can be toggled
// on off through a.config.PrintTrace.
//
// It also ensures execution is stopped if the given instruction has a breakpoint
// associated with it. This only happens if a.config.Debug is true.
func (a *App) printTrace(i *cpu.Instruction) {
	if a.config.Debug && a.config.Breakpoints[uint16(i.IP)] {
		log.Printf("breakpoint at %03x", i.IP)
		a.cpu.Stop()
	}

	if !a.config.PrintTrace {
		return
	}

	fmt.Println(formatTrace(i, a.cpu.CPU().Registers()))
}

// formatTrace renders the instruction along with the registers it reads.
func formatTrace(i *cpu.Instruction, r cpu.Registers) string {
	var sb strings.Builder
	sb.Grow(80)

	fmt.Fprintf(&sb, "%03x  %04x  %s", i.IP, i.Word, i.Instruction)
	pad(&sb, 32)
	fmt.Fprintf(&sb, "V%X=%02x V%X=%02x I=%03x", i.X, r.V[i.X], i.Y, r.V[i.Y], r.I)
	return sb.String()
}

// printHelp writes a short overview of supported shortcut keys to stdout.
func printHelp() {
	var sb strings.Builder
	sb.WriteString("shortcut keys:\n")
	sb.WriteString(" 1-4,Q-R,A-F,Z-V  Keypad.\n")
	sb.WriteString(" ESC      Exit the program.\n")
	sb.WriteString(" F1       Display this help.\n")
	sb.WriteString(" F2       Enable/Disable debug mode.\n")
	sb.WriteString(" F3       Enable/Disable debug trace output.\n")
	sb.WriteString(" F5       (re)load the program from disk and reset the cpu.\n")
	sb.WriteString(" F6       Start/Stop program execution.\n")
	sb.WriteString(" F7       Perform a single execution step.\n")
	sb.WriteString(" F9       Write a graph of the machine state to a .dot file.")
	log.Println(sb.String())
}

// pad pads sb with spaces until it reaches the given size.
func pad(sb *strings.Builder, size int) {
	for sb.Len() < size {
		sb.WriteByte(' ')
	}
}

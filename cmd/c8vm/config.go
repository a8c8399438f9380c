package main

import (
	"flag"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/colornames"
)

// Config defines program configuration.
type Config struct {
	Program     string          // Path to the ROM to load.
	ScaleFactor int             // Amount by which each pixel is scaled.
	Fullscreen  bool            // Run in fullscreen?
	Debug       bool            // Enable debug mode? This handles breakpoints if enabled.
	PrintTrace  bool            // Print instruction trace data?
	Breakpoints map[uint16]bool // Addresses at which execution pauses in debug mode.
	Speed       int             // Instructions per second.
	Foreground  color.Color     // Colour of lit pixels.
	Background  color.Color     // Colour of unlit pixels.
	TimerCarry  bool            // Carry timer remainders instead of dropping them.
	VFQuirk     bool            // Leave VF untouched on 7xkk.
	Record      string          // WAV file receiving the buzzer output.
	Mute        bool            // Disable audio playback.
	StatsView   string          // Listen address for the runtime stats viewer.
	Seed        int64           // RNG seed. Zero picks one from the clock.
}

// parseArgs parses command line arguments as applicable.
//
// If an error occurred, this exits the program with an appropriate message.
// When version information is requested, it is printed to stdout and the program ends cleanly.
func parseArgs() *Config {
	c, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err == flag.ErrHelp {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.CommandLine.Usage()
		os.Exit(1)
	}
	return c
}

func parseFlags(fs *flag.FlagSet, args []string) (*Config, error) {
	var c Config
	c.ScaleFactor = 10
	c.Speed = 700

	var fg, bg, breaks string
	fg, bg = "white", "black"

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "%s [options] <rom file>\n", os.Args[0])
		fs.PrintDefaults()
	}

	fs.BoolVar(&c.Debug, "debug", c.Debug, "Run in debug mode: start paused and honour breakpoints.")
	fs.BoolVar(&c.PrintTrace, "trace", c.PrintTrace, "Print instruction trace data.")
	fs.StringVar(&breaks, "break", breaks, "Comma separated list of breakpoint addresses. E.g.: 0x2a4,0x300")
	fs.IntVar(&c.ScaleFactor, "scale-factor", c.ScaleFactor, "Pixel scale factor for the display.")
	fs.BoolVar(&c.Fullscreen, "fullscreen", c.Fullscreen, "Run the display in fullscreen or windowed mode.")
	fs.IntVar(&c.Speed, "speed", c.Speed, "Instructions executed per second.")
	fs.StringVar(&fg, "fg", fg, "Colour name of lit pixels.")
	fs.StringVar(&bg, "bg", bg, "Colour name of unlit pixels.")
	fs.BoolVar(&c.TimerCarry, "timer-carry", c.TimerCarry, "Carry leftover time between timer decrements.")
	fs.BoolVar(&c.VFQuirk, "vf-quirk", c.VFQuirk, "Do not write the carry flag for ADD Vx, byte.")
	fs.StringVar(&c.Record, "record", c.Record, "Record buzzer output to the given WAV file.")
	fs.BoolVar(&c.Mute, "mute", c.Mute, "Disable audio playback.")
	fs.StringVar(&c.StatsView, "statsview", c.StatsView, "Serve runtime statistics at the given address. E.g.: localhost:18066")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "Random number generator seed.")

	version := fs.Bool("version", false, "Display version information.")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *version {
		fmt.Println(Version())
		os.Exit(0)
	}

	if fs.NArg() == 0 {
		return nil, errors.New("missing rom file")
	}

	if c.ScaleFactor < 1 {
		return nil, errors.Errorf("invalid scale factor: %d", c.ScaleFactor)
	}

	if c.Speed < 1 {
		return nil, errors.Errorf("invalid speed: %d", c.Speed)
	}

	var err error
	if c.Foreground, err = parseColor(fg); err != nil {
		return nil, err
	}
	if c.Background, err = parseColor(bg); err != nil {
		return nil, err
	}
	if c.Breakpoints, err = parseBreakpoints(breaks); err != nil {
		return nil, err
	}

	c.Program = fs.Arg(0)
	return &c, nil
}

// parseColor looks up an SVG colour name.
func parseColor(name string) (color.Color, error) {
	c, ok := colornames.Map[strings.ToLower(name)]
	if !ok {
		return nil, errors.Errorf("unknown colour: %q", name)
	}
	return c, nil
}

// parseBreakpoints parses a comma separated list of addresses.
func parseBreakpoints(v string) (map[uint16]bool, error) {
	set := make(map[uint16]bool)

	for _, f := range strings.Split(v, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}

		n, err := strconv.ParseUint(f, 0, 12)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid breakpoint %q", f)
		}
		set[uint16(n)] = true
	}

	return set, nil
}

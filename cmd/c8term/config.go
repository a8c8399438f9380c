package main

import (
	"flag"
	"fmt"
	"os"
	"time"
)

// Config defines program configuration.
type Config struct {
	Program    string        // Path to the ROM to load.
	Device     string        // Terminal device to open.
	Speed      int           // Instructions per second.
	KeyHold    time.Duration // How long a typed key counts as held down.
	TimerCarry bool          // Carry timer remainders instead of dropping them.
	VFQuirk    bool          // Leave VF untouched on 7xkk.
	Mute       bool          // Do not ring the terminal bell.
	Seed       int64         // RNG seed. Zero picks one from the clock.
}

// parseArgs parses command line arguments as applicable.
//
// If an error occurred, this exits the program with an appropriate message.
// When version information is requested, it is printed to stdout and the program ends cleanly.
func parseArgs() *Config {
	var c Config
	c.Device = "/dev/tty"
	c.Speed = 700
	c.KeyHold = 100 * time.Millisecond

	flag.Usage = func() {
		fmt.Printf("%s [options] <rom file>\n", os.Args[0])
		flag.PrintDefaults()
	}

	flag.StringVar(&c.Device, "tty", c.Device, "Terminal device to use for input and output.")
	flag.IntVar(&c.Speed, "speed", c.Speed, "Instructions executed per second.")
	flag.DurationVar(&c.KeyHold, "key-hold", c.KeyHold, "Time a typed key is reported as held down. Terminals do not report key releases.")
	flag.BoolVar(&c.TimerCarry, "timer-carry", c.TimerCarry, "Carry leftover time between timer decrements.")
	flag.BoolVar(&c.VFQuirk, "vf-quirk", c.VFQuirk, "Do not write the carry flag for ADD Vx, byte.")
	flag.BoolVar(&c.Mute, "mute", c.Mute, "Do not ring the terminal bell.")
	flag.Int64Var(&c.Seed, "seed", c.Seed, "Random number generator seed.")
	version := flag.Bool("version", false, "Display version information.")
	flag.Parse()

	if *version {
		fmt.Println(Version())
		os.Exit(0)
	}

	if flag.NArg() == 0 || c.Speed < 1 {
		flag.Usage()
		os.Exit(1)
	}

	c.Program = flag.Arg(0)
	return &c
}

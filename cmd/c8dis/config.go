package main

import (
	"flag"
	"fmt"
	"os"
)

// Config defines program configuration.
type Config struct {
	Input  string // ROM file to disassemble.
	Output string // Path to store output in. Empty means stdout.
	Labels bool   // Emit labels for jump and call targets.
	Raw    bool   // Include addresses and raw instruction words.
}

// parseArgs parses command line arguments as applicable.
//
// If an error occurred, this exits the program with an appropriate message.
// When version information is requested, it is printed to stdout and the program ends cleanly.
func parseArgs() *Config {
	var c Config
	c.Labels = true
	c.Raw = true

	flag.Usage = func() {
		fmt.Printf("%s [options] <rom file>\n", os.Args[0])
		flag.PrintDefaults()
	}

	flag.StringVar(&c.Output, "out", c.Output, "Output file. Defaults to stdout.")
	flag.BoolVar(&c.Labels, "labels", c.Labels, "Emit labels for jump and call targets.")
	flag.BoolVar(&c.Raw, "raw", c.Raw, "Prefix each line with its address and instruction word.")
	version := flag.Bool("version", false, "Display version information.")
	flag.Parse()

	if *version {
		fmt.Println(Version())
		os.Exit(0)
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	c.Input = flag.Arg(0)
	return &c
}

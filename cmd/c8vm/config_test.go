package main

import (
	"flag"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/colornames"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("c8vm", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestParseFlagsDefaults(t *testing.T) {
	assert := assert.New(t)

	c, err := parseFlags(newFlagSet(), []string{"pong.ch8"})
	require.NoError(t, err)
	assert.Equal("pong.ch8", c.Program)
	assert.Equal(10, c.ScaleFactor)
	assert.Equal(700, c.Speed)
	assert.Equal(colornames.White, c.Foreground)
	assert.Equal(colornames.Black, c.Background)
	assert.Empty(c.Breakpoints)
	assert.False(c.Debug)
}

func TestParseFlags(t *testing.T) {
	assert := assert.New(t)

	c, err := parseFlags(newFlagSet(), []string{
		"-debug", "-trace", "-speed", "1000", "-fg", "Lime", "-bg", "navy",
		"-break", "0x2a4, 0x300", "-timer-carry", "-vf-quirk", "-seed", "7",
		"-mute", "-record", "out.wav", "game.ch8",
	})
	require.NoError(t, err)
	assert.True(c.Debug)
	assert.True(c.PrintTrace)
	assert.Equal(1000, c.Speed)
	assert.Equal(colornames.Lime, c.Foreground)
	assert.Equal(colornames.Navy, c.Background)
	assert.Equal(map[uint16]bool{0x2a4: true, 0x300: true}, c.Breakpoints)
	assert.True(c.TimerCarry)
	assert.True(c.VFQuirk)
	assert.True(c.Mute)
	assert.Equal(int64(7), c.Seed)
	assert.Equal("out.wav", c.Record)
}

func TestParseFlagsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no rom", nil},
		{"bad colour", []string{"-fg", "blurple", "a.ch8"}},
		{"bad breakpoint", []string{"-break", "0x1000", "a.ch8"}},
		{"bad speed", []string{"-speed", "0", "a.ch8"}},
		{"bad scale", []string{"-scale-factor", "0", "a.ch8"}},
		{"unknown flag", []string{"-nope", "a.ch8"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFlags(newFlagSet(), tt.args)
			assert.Error(t, err)
		})
	}
}

func TestKeymap(t *testing.T) {
	seen := make(map[int]bool)
	for _, k := range keymap {
		seen[int(k)] = true
	}
	assert.Len(t, seen, 16)
}

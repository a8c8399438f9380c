// Package buzzer plays the sound timer as a square-wave tone through SDL,
// and optionally records it to a WAV file.
package buzzer

import (
	"log"

	"github.com/pkg/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/hexaflex/c8vm/devices"
)

// Audio properties.
const (
	SampleRate      = 22050
	Frequency       = 440
	Volume          = 48
	FramesPerSecond = 60
	frameSamples    = SampleRate / FramesPerSecond

	// Upper bound for queued audio. Beyond this, frames are dropped
	// instead of letting latency grow.
	maxQueued = frameSamples * 4
)

// Device is the buzzer.
type Device struct {
	tone        Tone
	samples     []uint8
	recorder    *Recorder
	id          sdl.AudioDeviceID
	silence     uint8
	mute        bool
	initialized bool
}

var _ devices.Device = &Device{}

// New creates a new buzzer. If mute is set no audio device is opened,
// but a recorder still receives samples. The recorder may be nil.
func New(mute bool, rec *Recorder) *Device {
	return &Device{
		tone: Tone{
			Frequency:  Frequency,
			SampleRate: SampleRate,
			Volume:     Volume,
		},
		samples:  make([]uint8, frameSamples),
		recorder: rec,
		silence:  Silence,
		mute:     mute,
	}
}

// ID returns the device id.
func (d *Device) ID() devices.ID {
	return devices.NewID(devices.VIP, 0x0004)
}

// Startup opens the audio device.
func (d *Device) Startup(devices.KeyFunc) error {
	if d.mute {
		return nil
	}

	if err := sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
		return errors.Wrap(err, "sdl audio")
	}

	spec := &sdl.AudioSpec{
		Freq:     SampleRate,
		Format:   sdl.AUDIO_U8,
		Channels: 1,
		Samples:  uint16(frameSamples),
	}

	var actual sdl.AudioSpec
	id, err := sdl.OpenAudioDevice("", false, spec, &actual, 0)
	if err != nil {
		sdl.QuitSubSystem(sdl.INIT_AUDIO)
		return errors.Wrap(err, "open audio device")
	}

	d.id = id
	d.silence = actual.Silence
	d.initialized = true

	sdl.PauseAudioDevice(d.id, false)
	log.Println(d.ID(), "audio device opened at", actual.Freq, "Hz")
	return nil
}

// Shutdown closes the audio device and finalizes any recording.
func (d *Device) Shutdown() error {
	var err error

	if d.recorder != nil {
		err = d.recorder.Close()
		d.recorder = nil
	}

	if d.initialized {
		d.initialized = false
		sdl.CloseAudioDevice(d.id)
		sdl.QuitSubSystem(sdl.INIT_AUDIO)
	}

	return err
}

// Update generates one frame worth of audio for the current sound timer state.
func (d *Device) Update(f devices.Frame) {
	d.tone.Fill(d.samples, f.Sound())

	if d.recorder != nil {
		if err := d.recorder.Write(d.samples); err != nil {
			log.Println(d.ID(), err)
			d.recorder = nil
		}
	}

	if !d.initialized {
		return
	}

	if sdl.GetQueuedAudioSize(d.id) > maxQueued {
		return
	}

	if d.silence != Silence {
		shift(d.samples, d.silence)
	}

	if err := sdl.QueueAudio(d.id, d.samples); err != nil {
		log.Println(d.ID(), err)
	}
}

// shift moves samples centred on Silence to the device's silence value.
func shift(p []uint8, silence uint8) {
	for i, v := range p {
		p[i] = v - Silence + silence
	}
}

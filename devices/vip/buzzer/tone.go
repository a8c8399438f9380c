package buzzer

// Silence is the unsigned 8-bit sample value of a flat line.
const Silence = 0x80

// Tone generates an 8-bit unsigned square wave. The phase carries over
// between calls to Fill, so consecutive buffers join without clicks.
type Tone struct {
	Frequency  float64 // Pitch in Hz.
	SampleRate int     // Samples per second.
	Volume     uint8   // Amplitude around Silence, [0, 127].
	phase      float64 // Position within the current period, [0, 1).
}

// Fill writes len(p) samples into p. While on is false, p receives silence
// and the phase is reset so the next tone starts on a rising edge.
func (t *Tone) Fill(p []uint8, on bool) {
	if !on || t.SampleRate <= 0 {
		for i := range p {
			p[i] = Silence
		}
		t.phase = 0
		return
	}

	step := t.Frequency / float64(t.SampleRate)
	high := uint8(Silence + int(t.Volume))
	low := uint8(Silence - int(t.Volume))

	for i := range p {
		if t.phase < 0.5 {
			p[i] = high
		} else {
			p[i] = low
		}

		t.phase += step
		if t.phase >= 1 {
			t.phase -= 1
		}
	}
}

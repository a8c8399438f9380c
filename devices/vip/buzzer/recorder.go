package buzzer

import (
	"io"
	"log"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
)

// Recorder writes 8-bit mono samples to a WAV stream.
type Recorder struct {
	enc    *wav.Encoder
	buf    audio.IntBuffer
	closer io.Closer
}

// NewRecorder creates a recorder which encodes into w.
// The WAV header is finalized by Close.
func NewRecorder(w io.WriteSeeker, sampleRate int) *Recorder {
	return &Recorder{
		enc: wav.NewEncoder(w, sampleRate, 8, 1, 1),
		buf: audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
			SourceBitDepth: 8,
		},
	}
}

// CreateRecorder creates the named file and returns a recorder writing to it.
func CreateRecorder(file string, sampleRate int) (*Recorder, error) {
	fd, err := os.Create(file)
	if err != nil {
		return nil, errors.Wrap(err, "create recording")
	}

	log.Println("recording audio to", file)
	r := NewRecorder(fd, sampleRate)
	r.closer = fd
	return r, nil
}

// Write appends the given samples.
func (r *Recorder) Write(p []uint8) error {
	if cap(r.buf.Data) < len(p) {
		r.buf.Data = make([]int, len(p))
	}

	r.buf.Data = r.buf.Data[:len(p)]
	for i, v := range p {
		r.buf.Data[i] = int(v)
	}

	return errors.Wrap(r.enc.Write(&r.buf), "write recording")
}

// Close finalizes the WAV header and closes the underlying file, if
// the recorder owns one.
func (r *Recorder) Close() error {
	err := r.enc.Close()

	if r.closer != nil {
		if cerr := r.closer.Close(); err == nil {
			err = cerr
		}
	}

	return errors.Wrap(err, "close recording")
}

package native

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/xaionaro-go/avrelay/engine"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

var errNotWAV = errors.New("not a RIFF/WAVE file")

// readWAV positions r at the beginning of the PCM data and returns the
// format together with a reader limited to the whole frames of the "data"
// chunk.
func readWAV(r io.ReadSeeker) (engine.AudioFormat, io.Reader, error) {
	d := wav.NewDecoder(r)
	if err := d.FwdToPCM(); err != nil {
		return engine.AudioFormat{}, nil, fmt.Errorf("%w: %v", errNotWAV, err)
	}
	if err := d.Err(); err != nil {
		return engine.AudioFormat{}, nil, fmt.Errorf("%w: %v", errNotWAV, err)
	}
	if d.PCMChunk == nil || d.NumChans == 0 {
		return engine.AudioFormat{}, nil, errNotWAV
	}
	if d.WavAudioFormat != wavFormatPCM && d.WavAudioFormat != wavFormatExtensible {
		return engine.AudioFormat{}, nil, fmt.Errorf("unsupported WAVE encoding: 0x%04X", d.WavAudioFormat)
	}

	format := engine.AudioFormat{
		Channels:      int(d.NumChans),
		SampleRate:    int(d.SampleRate),
		BitsPerSample: int(d.BitDepth),
	}
	size := int64(d.PCMSize)
	if blockAlign := int64(format.BlockAlign()); blockAlign > 0 {
		size -= size % blockAlign
	}
	return format, io.LimitReader(d.PCMChunk.R, size), nil
}

// wavWriter writes LPCM data into a WAVE file. The sizes in the header are
// fixed up by Finish.
type wavWriter struct {
	file    *os.File
	format  engine.AudioFormat
	encoder *wav.Encoder
	buf     *audio.IntBuffer
}

func newWAVWriter(file *os.File, format engine.AudioFormat) (*wavWriter, error) {
	switch format.BitsPerSample {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%d bits per sample is not supported by the WAVE writer", format.BitsPerSample)
	}
	w := &wavWriter{
		file:    file,
		format:  format,
		encoder: wav.NewEncoder(file, format.SampleRate, format.BitsPerSample, format.Channels, wavFormatPCM),
		buf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: format.Channels,
				SampleRate:  format.SampleRate,
			},
			SourceBitDepth: format.BitsPerSample,
		},
	}

	// the first write emits the header, so an empty stream is still a valid file
	if err := w.encoder.Write(w.buf); err != nil {
		return nil, fmt.Errorf("unable to write the WAVE header: %w", err)
	}
	return w, nil
}

// Write accepts whole frames of little-endian LPCM; a trailing partial
// frame is dropped.
func (w *wavWriter) Write(p []byte) (int, error) {
	blockAlign := w.format.BlockAlign()
	p = p[:len(p)-len(p)%blockAlign]
	if len(p) == 0 {
		return 0, nil
	}

	bytesPerSample := w.format.BitsPerSample / 8
	w.buf.Data = w.buf.Data[:0]
	for off := 0; off < len(p); off += bytesPerSample {
		w.buf.Data = append(w.buf.Data, decodeLPCMSample(p[off:off+bytesPerSample]))
	}
	if err := w.encoder.Write(w.buf); err != nil {
		return 0, err
	}
	return len(p), nil
}

func decodeLPCMSample(b []byte) int {
	switch len(b) {
	case 1:
		return int(b[0])
	case 2:
		return int(int16(binary.LittleEndian.Uint16(b)))
	case 3:
		return int(audio.Int24LETo32(b))
	case 4:
		return int(int32(binary.LittleEndian.Uint32(b)))
	}
	return 0
}

func (w *wavWriter) Finish() error {
	return w.encoder.Close()
}

func (w *wavWriter) Close() error {
	return w.file.Close()
}

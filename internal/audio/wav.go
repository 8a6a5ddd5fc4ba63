package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var (
	// ErrInvalidWAV is returned when the input is not a RIFF/WAVE stream.
	ErrInvalidWAV = errors.New("invalid wav file")
	// ErrEmptyAudio is returned when a WAV stream holds no PCM data.
	ErrEmptyAudio = errors.New("empty wav buffer")
)

// DecodeWAV decodes a WAV stream into a mono Track. Multi-channel input is
// downmixed by averaging the channels of each frame.
func DecodeWAV(r io.ReadSeeker) (*Track, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidWAV
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read pcm: %w", err)
	}
	if buf == nil {
		return nil, ErrEmptyAudio
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = int(dec.BitDepth)
	}
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float32(int(1) << (bitDepth - 1))

	channels := int(dec.NumChans)
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}
	if channels <= 0 {
		channels = 1
	}

	sr := int(dec.SampleRate)
	if sr == 0 && buf.Format != nil {
		sr = buf.Format.SampleRate
	}
	if sr == 0 {
		sr = 16000
	}

	frames := len(buf.Data) / channels
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += float32(buf.Data[i*channels+c]) / scale
		}
		out[i] = sum / float32(channels)
	}
	return &Track{Samples: out, SampleRate: sr}, nil
}

// LoadWAVFile opens and decodes a WAV file from disk.
func LoadWAVFile(path string) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := DecodeWAV(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return t, nil
}

// DecodeWAVToFloat32 decodes a WAV blob into mono 32-bit float PCM samples.
func DecodeWAVToFloat32(b []byte) ([]float32, int, error) {
	t, err := DecodeWAV(bytes.NewReader(b))
	if err != nil {
		return nil, 0, err
	}
	return t.Samples, t.SampleRate, nil
}

// DecodePCM16LEToFloat32 converts little-endian PCM16 bytes into float32 samples and returns the given sample rate.
func DecodePCM16LEToFloat32(b []byte, sampleRate int) ([]float32, int, error) {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	if len(b)%2 != 0 {
		return nil, 0, errors.New("pcm16 length must be even")
	}
	out := make([]float32, len(b)/2)
	for i := 0; i < len(out); i++ {
		v := int16(uint16(b[2*i]) | uint16(b[2*i+1])<<8)
		out[i] = float32(v) / 32768.0
	}
	return out, sampleRate, nil
}

// EncodeWAV writes t as a 16-bit mono PCM WAV stream.
func EncodeWAV(w io.WriteSeeker, t *Track) error {
	if t == nil || t.SampleRate <= 0 {
		return errors.New("encode wav: track has no sample rate")
	}
	enc := wav.NewEncoder(w, t.SampleRate, 16, 1, 1)
	data := make([]int, len(t.Samples))
	for i, s := range t.Samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		data[i] = int(s * 32767)
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: t.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	return enc.Close()
}

// WriteWAVFile encodes t into a new file at path, replacing any existing file.
func WriteWAVFile(path string, t *Track) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeWAV(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ResampleLinear resamples PCM32F from inRate to outRate using linear interpolation.
func ResampleLinear(samples []float32, inRate, outRate int) []float32 {
	if inRate <= 0 || outRate <= 0 || inRate == outRate || len(samples) == 0 {
		if inRate == outRate {
			return append([]float32(nil), samples...)
		}
		return samples
	}
	ratio := float64(outRate) / float64(inRate)
	outLen := int(float64(len(samples)) * ratio)
	if outLen <= 1 {
		outLen = 1
	}
	out := make([]float32, outLen)
	for i := 0; i < outLen; i++ {
		srcPos := float64(i) / ratio
		i0 := int(srcPos)
		if i0 >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := float32(srcPos - float64(i0))
		s0 := samples[i0]
		s1 := samples[i0+1]
		out[i] = s0 + (s1-s0)*frac
	}
	return out
}

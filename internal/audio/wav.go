package audio

import (
	"fmt"
	"io"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavBitDepth = 16

// EncodeWAV writes the buffer as 16-bit mono PCM WAV. Samples are clamped
// to [-1, 1] before quantization.
func EncodeWAV(b *Buffer, w io.WriteSeeker) error {
	enc := wav.NewEncoder(w, b.SampleRate, wavBitDepth, 1, 1)
	data := make([]int, len(b.Samples))
	for i, s := range b.Samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		data[i] = int(math.Round(s * math.MaxInt16))
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: b.SampleRate},
		Data:           data,
		SourceBitDepth: wavBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav: %w", err)
	}
	return nil
}

// DecodeWAV reads a PCM WAV stream into a mono buffer. Multi-channel
// input is downmixed by averaging.
func DecodeWAV(r io.ReadSeeker) (*Buffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("decode wav: not a valid WAV stream")
	}
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	bitDepth := int(dec.BitDepth)
	if bitDepth == 0 {
		bitDepth = wavBitDepth
	}
	scale := float64(int(1)<<(bitDepth-1)) - 1
	channels := pcm.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	frames := len(pcm.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(pcm.Data[i*channels+c])
		}
		samples[i] = sum / float64(channels) / scale
	}
	return &Buffer{Samples: samples, SampleRate: int(dec.SampleRate)}, nil
}

// WriteWAVFile encodes the buffer into a WAV file at path.
func WriteWAVFile(b *Buffer, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav file: %w", err)
	}
	if err := EncodeWAV(b, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadWAVFile decodes a WAV file into a buffer.
func ReadWAVFile(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav file: %w", err)
	}
	defer f.Close()
	return DecodeWAV(f)
}

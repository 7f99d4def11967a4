package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// chunkSize is the number of samples read per decoder call
const chunkSize = 4096

// AudioDecoder defines the interface for all audio format decoders
type AudioDecoder interface {
	// ReadChunk reads up to numSamples mono samples from the first channel.
	// Samples are signed at BitDepth bits. Returns io.EOF when exhausted.
	ReadChunk(numSamples int) ([]int, error)

	// SampleRate returns the audio sample rate in Hz
	SampleRate() int

	// BitDepth returns the bits per sample of ReadChunk's output
	BitDepth() int

	// NumChannels returns the number of channels in the source
	NumChannels() int

	// Close closes the decoder and releases resources
	Close() error
}

// NewDecoder picks a decoder by file extension.
// WAV, MP3 and FLAC are decoded natively; anything else goes through ffmpeg.
func NewDecoder(ctx context.Context, filename, ffmpegPath string) (AudioDecoder, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav", ".wave":
		return NewWAVDecoder(filename)
	case ".mp3":
		return NewMP3Decoder(filename)
	case ".flac":
		return NewFLACDecoder(filename)
	default:
		return NewFFmpegDecoder(ctx, filename, ffmpegPath)
	}
}

// Decode reads a whole audio file into a mono clip.
func Decode(path string) (*Clip, error) {
	return DecodeContext(context.Background(), path, "ffmpeg")
}

// DecodeContext reads a whole audio file into a mono clip, using ffmpegPath
// for formats without a native decoder.
func DecodeContext(ctx context.Context, path, ffmpegPath string) (*Clip, error) {
	dec, err := NewDecoder(ctx, path, ffmpegPath)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	clip, err := ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return clip, nil
}

// ReadAll drains dec into a clip
func ReadAll(dec AudioDecoder) (*Clip, error) {
	clip := &Clip{
		SampleRate: dec.SampleRate(),
		BitDepth:   dec.BitDepth(),
	}

	for {
		chunk, err := dec.ReadChunk(chunkSize)
		clip.Samples = append(clip.Samples, chunk...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	if clip.SampleRate <= 0 {
		return nil, fmt.Errorf("decoder reported sample rate %d", clip.SampleRate)
	}
	return clip, nil
}

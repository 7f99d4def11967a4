package audio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/linuxmatters/visound/internal/config"
)

// FFmpegDecoder implements AudioDecoder by running ffmpeg as a subprocess.
// This provides support for any audio format ffmpeg can decode.
// Output is 16-bit mono at config.DecodeSampleRate, taken from channel 0.
type FFmpegDecoder struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	reader *bufio.Reader
	stderr *bytes.Buffer
	done   bool
}

// NewFFmpegDecoder starts ffmpeg decoding filename to raw PCM.
func NewFFmpegDecoder(ctx context.Context, filename, ffmpegPath string) (*FFmpegDecoder, error) {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}

	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-hide_banner",
		"-loglevel", "error",
		"-i", filename,
		"-vn",
		"-af", "pan=mono|c0=c0",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprint(config.DecodeSampleRate),
		"pipe:1",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create ffmpeg pipe: %w", err)
	}
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	return &FFmpegDecoder{
		cmd:    cmd,
		stdout: stdout,
		reader: bufio.NewReaderSize(stdout, 64*1024),
		stderr: stderr,
	}, nil
}

// ReadChunk reads the next chunk of samples
func (d *FFmpegDecoder) ReadChunk(numSamples int) ([]int, error) {
	if d.done {
		return nil, io.EOF
	}

	buf := make([]byte, numSamples*2)
	n, err := io.ReadFull(d.reader, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		d.done = true
		if werr := d.wait(); werr != nil {
			return nil, werr
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read ffmpeg output: %w", err)
	}

	frames := n / 2
	if frames == 0 {
		return nil, io.EOF
	}

	samples := make([]int, frames)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(buf[i*2:])))
	}
	return samples, nil
}

func (d *FFmpegDecoder) wait() error {
	if err := d.cmd.Wait(); err != nil {
		msg := strings.TrimSpace(d.stderr.String())
		if msg == "" {
			return fmt.Errorf("ffmpeg decode failed: %w", err)
		}
		return fmt.Errorf("ffmpeg decode failed: %w: %s", err, msg)
	}
	return nil
}

// SampleRate returns the sample rate
func (d *FFmpegDecoder) SampleRate() int {
	return config.DecodeSampleRate
}

// BitDepth returns the bits per sample
func (d *FFmpegDecoder) BitDepth() int {
	return 16
}

// NumChannels returns the number of channels delivered
func (d *FFmpegDecoder) NumChannels() int {
	return 1
}

// Close stops ffmpeg if it is still running
func (d *FFmpegDecoder) Close() error {
	if d.done {
		return nil
	}
	d.done = true
	d.stdout.Close()
	if d.cmd.Process != nil {
		_ = d.cmd.Process.Kill()
	}
	_ = d.cmd.Wait()
	return nil
}

package encoder

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/linuxmatters/visound/internal/config"
)

// Config holds the encoder configuration
type Config struct {
	OutputPath string // Path to output MP4 file
	Width      int    // Video width in pixels
	Height     int    // Video height in pixels
	Framerate  int    // Frames per second
	AudioPath  string // Path to input WAV file, muxed unchanged as AAC
	Threads    int    // Encoder threads, 0 lets ffmpeg decide
	FFmpegPath string // ffmpeg binary, defaults to "ffmpeg"
	HWEncoder  *HWEncoder
}

// Encoder streams RGBA frames into an ffmpeg subprocess that encodes them
// to H.264 and muxes them with the audio track.
type Encoder struct {
	config Config

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *tailBuffer

	frameSize int
	frames    int
	closed    bool
}

// New creates a new encoder instance
func New(config Config) (*Encoder, error) {
	if config.Width <= 0 || config.Height <= 0 {
		return nil, fmt.Errorf("invalid dimensions: %dx%d", config.Width, config.Height)
	}
	if config.Framerate <= 0 {
		return nil, fmt.Errorf("invalid framerate: %d", config.Framerate)
	}
	if config.OutputPath == "" {
		return nil, fmt.Errorf("output path cannot be empty")
	}
	if config.FFmpegPath == "" {
		config.FFmpegPath = "ffmpeg"
	}

	return &Encoder{
		config:    config,
		frameSize: config.Width * config.Height * 4,
	}, nil
}

// Initialize starts ffmpeg. Frames may be written once it returns.
// Cancelling ctx kills ffmpeg.
func (e *Encoder) Initialize(ctx context.Context) error {
	e.cmd = exec.CommandContext(ctx, e.config.FFmpegPath, e.args()...)

	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to create ffmpeg pipe: %w", err)
	}
	e.stdin = stdin

	e.stderr = newTailBuffer(4096)
	e.cmd.Stderr = e.stderr

	if err := e.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	return nil
}

// args builds the ffmpeg command line
func (e *Encoder) args() []string {
	c := e.config
	args := []string{"-hide_banner", "-loglevel", "error", "-y"}
	args = append(args, hwDeviceArgs(c.HWEncoder)...)

	args = append(args,
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", c.Width, c.Height),
		"-framerate", fmt.Sprint(c.Framerate),
		"-i", "pipe:0",
	)
	if c.AudioPath != "" {
		args = append(args, "-i", c.AudioPath)
	}

	// yuv420p needs even dimensions
	filter := "pad=ceil(iw/2)*2:ceil(ih/2)*2"
	if upload := hwUploadFilter(c.HWEncoder); upload != "" {
		filter += "," + upload
	}
	args = append(args, "-vf", filter)
	args = append(args, videoCodecArgs(c.HWEncoder)...)

	if c.AudioPath != "" {
		args = append(args,
			"-map", "0:v:0",
			"-map", "1:a:0",
			"-c:a", "aac",
			"-b:a", config.AudioBitRate,
		)
	}
	if c.Threads > 0 {
		args = append(args, "-threads", fmt.Sprint(c.Threads))
	}

	return append(args, "-movflags", "+faststart", c.OutputPath)
}

// videoCodecArgs returns codec options for the selected encoder
func videoCodecArgs(hw *HWEncoder) []string {
	if hw == nil {
		return []string{"-c:v", "libx264", "-preset", "veryfast", "-crf", "18", "-pix_fmt", "yuv420p"}
	}

	switch hw.Type {
	case HWAccelNVENC:
		return []string{"-c:v", hw.Name, "-preset", "p4", "-pix_fmt", "yuv420p"}
	case HWAccelVAAPI, HWAccelVulkan:
		// Pixel format is set by the upload filter
		return []string{"-c:v", hw.Name}
	default:
		return []string{"-c:v", hw.Name, "-pix_fmt", "nv12"}
	}
}

// WriteFrame writes one frame. Frames must match the configured size.
func (e *Encoder) WriteFrame(img *image.RGBA) error {
	b := img.Bounds()
	if b.Dx() != e.config.Width || b.Dy() != e.config.Height {
		return fmt.Errorf("frame is %dx%d, encoder expects %dx%d", b.Dx(), b.Dy(), e.config.Width, e.config.Height)
	}

	// Sub-images have a stride wider than the row
	if img.Stride == b.Dx()*4 {
		start := img.PixOffset(b.Min.X, b.Min.Y)
		return e.WriteFrameRGBA(img.Pix[start : start+e.frameSize])
	}

	data := make([]byte, 0, e.frameSize)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := img.PixOffset(b.Min.X, y)
		data = append(data, img.Pix[i:i+b.Dx()*4]...)
	}
	return e.WriteFrameRGBA(data)
}

// WriteFrameRGBA writes one frame of packed RGBA bytes
func (e *Encoder) WriteFrameRGBA(rgbaData []byte) error {
	if e.stdin == nil || e.closed {
		return fmt.Errorf("encoder is not running")
	}
	if len(rgbaData) != e.frameSize {
		return fmt.Errorf("frame has %d bytes, want %d", len(rgbaData), e.frameSize)
	}

	if _, err := e.stdin.Write(rgbaData); err != nil {
		// ffmpeg exiting early closes the pipe; its stderr says why
		return e.failure(fmt.Errorf("failed to write frame %d: %w", e.frames, err))
	}
	e.frames++
	return nil
}

// Frames returns the number of frames written
func (e *Encoder) Frames() int {
	return e.frames
}

// Close finishes the stream and waits for ffmpeg to write the file
func (e *Encoder) Close() error {
	if e.closed || e.cmd == nil {
		return nil
	}
	e.closed = true

	closeErr := e.stdin.Close()
	if err := e.cmd.Wait(); err != nil {
		return e.failure(fmt.Errorf("ffmpeg failed: %w", err))
	}
	if closeErr != nil && !errors.Is(closeErr, io.ErrClosedPipe) {
		return fmt.Errorf("failed to close ffmpeg input: %w", closeErr)
	}
	return nil
}

// failure appends ffmpeg's last stderr output to err
func (e *Encoder) failure(err error) error {
	if e.stderr == nil {
		return err
	}
	if msg := strings.TrimSpace(e.stderr.String()); msg != "" {
		return fmt.Errorf("%w: %s", err, msg)
	}
	return err
}

// tailBuffer keeps the last max bytes written to it. os/exec writes from its
// own goroutine, so access is guarded.
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
	max int
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.max {
		t.buf = t.buf[len(t.buf)-t.max:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}

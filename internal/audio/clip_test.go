package audio

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func rampClip(sampleRate, n int) *Clip {
	samples := make([]int, n)
	for i := range samples {
		samples[i] = (i % 2000) - 1000
	}
	return &Clip{SampleRate: sampleRate, BitDepth: 16, Samples: samples}
}

func TestClipDurationMillis(t *testing.T) {
	testCases := []struct {
		rate, n int
		want    int64
	}{
		{44100, 44100, 1000},
		{48000, 24000, 500},
		{48000, 47, 0},
		{8000, 8001, 1000},
		{0, 100, 0},
	}
	for _, tc := range testCases {
		c := &Clip{SampleRate: tc.rate, Samples: make([]int, tc.n)}
		if got := c.DurationMillis(); got != tc.want {
			t.Errorf("DurationMillis(%d samples @ %d Hz) = %d, want %d", tc.n, tc.rate, got, tc.want)
		}
	}
}

func TestClipSlice(t *testing.T) {
	clip := rampClip(48000, 96000)

	s, err := clip.Slice(500, 1500)
	if err != nil {
		t.Fatalf("Slice() error = %v", err)
	}
	if s.Len() != 48000 {
		t.Fatalf("Slice(500, 1500) has %d samples, want 48000", s.Len())
	}
	if s.Samples[0] != clip.Samples[24000] || s.Samples[47999] != clip.Samples[71999] {
		t.Error("slice does not start and end on the expected samples")
	}
	if s.SampleRate != clip.SampleRate || s.BitDepth != clip.BitDepth {
		t.Error("slice lost the clip format")
	}

	s.Samples[0] = 12345
	if clip.Samples[24000] == 12345 {
		t.Error("slice shares storage with the clip")
	}
}

func TestClipSlice_ClampsEnd(t *testing.T) {
	clip := rampClip(1000, 1500)
	s, err := clip.Slice(1000, 10_000)
	if err != nil {
		t.Fatalf("Slice() error = %v", err)
	}
	if s.Len() != 500 {
		t.Errorf("clamped slice has %d samples, want 500", s.Len())
	}
}

func TestClipSlice_InvalidRanges(t *testing.T) {
	clip := rampClip(1000, 1500)
	for _, r := range [][2]int64{{-1, 10}, {800, 700}, {2000, 3000}} {
		if _, err := clip.Slice(r[0], r[1]); !errors.Is(err, ErrInvalidRange) {
			t.Errorf("Slice(%d, %d) error = %v, want ErrInvalidRange", r[0], r[1], err)
		}
	}

	s, err := clip.Slice(700, 700)
	if err != nil || s.Len() != 0 {
		t.Errorf("Slice(700, 700) = %v, %v; want empty clip", s, err)
	}
}

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name     string
		sample   int
		bitDepth int
		want     float64
	}{
		{"16-bit divisor", 10000, 16, 1.0},
		{"16-bit negative", -5000, 16, -0.5},
		{"24-bit rescaled", 10000 << 8, 24, 1.0},
		{"32-bit rescaled", 10000 << 16, 32, 1.0},
		{"8-bit rescaled", 1, 8, 256.0 / 10000},
		{"full scale 16-bit", 32767, 16, 3.2767},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize([]int{tc.sample}, tc.bitDepth)
			if math.Abs(got[0]-tc.want) > 1e-12 {
				t.Errorf("Normalize(%d, %d bits) = %v, want %v", tc.sample, tc.bitDepth, got[0], tc.want)
			}
		})
	}
}

func TestClipWindow(t *testing.T) {
	clip := &Clip{SampleRate: 100, BitDepth: 16, Samples: []int{0, 10000, -20000, 3000}}
	got := clip.Window(1, 3)
	if len(got) != 2 || got[0] != 1.0 || got[1] != -2.0 {
		t.Errorf("Window(1, 3) = %v, want [1 -2]", got)
	}
}

func TestClipWriteWAV_RoundTrip(t *testing.T) {
	for _, bitDepth := range []int{8, 16} {
		clip := &Clip{SampleRate: 22050, BitDepth: bitDepth}
		limit := 1 << (bitDepth - 1)
		for i := 0; i < 5000; i++ {
			clip.Samples = append(clip.Samples, (i*37)%(2*limit)-limit)
		}

		path := filepath.Join(t.TempDir(), "clip.wav")
		f, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := clip.WriteWAV(f); err != nil {
			t.Fatalf("WriteWAV(%d-bit) error = %v", bitDepth, err)
		}
		f.Close()

		decoded, err := Decode(path)
		if err != nil {
			t.Fatalf("Decode(%d-bit) error = %v", bitDepth, err)
		}
		if decoded.SampleRate != 22050 || decoded.BitDepth != bitDepth {
			t.Errorf("decoded format %d Hz %d-bit, want 22050 Hz %d-bit", decoded.SampleRate, decoded.BitDepth, bitDepth)
		}
		if decoded.Len() != clip.Len() {
			t.Fatalf("decoded %d samples, want %d", decoded.Len(), clip.Len())
		}
		for i := range clip.Samples {
			if decoded.Samples[i] != clip.Samples[i] {
				t.Fatalf("%d-bit sample %d = %d, want %d", bitDepth, i, decoded.Samples[i], clip.Samples[i])
			}
		}
	}
}

func TestClipWriteWAV_RejectsUnknownFormat(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "bad.wav"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := (&Clip{BitDepth: 16}).WriteWAV(f); err == nil {
		t.Error("WriteWAV accepted a clip with no sample rate")
	}
	if err := (&Clip{SampleRate: 8000}).WriteWAV(f); err == nil {
		t.Error("WriteWAV accepted a clip with no bit depth")
	}
}

func TestContainerDepth(t *testing.T) {
	for in, want := range map[int]int{4: 8, 8: 8, 12: 16, 16: 16, 20: 24, 24: 24, 32: 32} {
		if got := containerDepth(in); got != want {
			t.Errorf("containerDepth(%d) = %d, want %d", in, got, want)
		}
	}
}

package encoder

import (
	"bufio"
	"context"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// HWAccelType represents a hardware acceleration type
type HWAccelType string

const (
	HWAccelNone         HWAccelType = "none"         // Software encoding (libx264)
	HWAccelAuto         HWAccelType = "auto"         // Auto-detect best available
	HWAccelNVENC        HWAccelType = "nvenc"        // NVIDIA NVENC
	HWAccelQSV          HWAccelType = "qsv"          // Intel Quick Sync Video
	HWAccelVAAPI        HWAccelType = "vaapi"        // VA-API (AMD, Intel, older hardware)
	HWAccelVulkan       HWAccelType = "vulkan"       // Vulkan Video
	HWAccelVideoToolbox HWAccelType = "videotoolbox" // Apple VideoToolbox (macOS)
)

// probeTimeout bounds each one-frame test encode
const probeTimeout = 10 * time.Second

// vaapiDevice is the render node used for VA-API encoding
const vaapiDevice = "/dev/dri/renderD128"

// HWEncoder represents a detected hardware encoder
type HWEncoder struct {
	Name        string      // Encoder name (e.g., "h264_nvenc")
	Type        HWAccelType // Hardware acceleration type
	Available   bool        // Whether hardware is present and working
	Description string      // Human-readable description
}

// encoderSpec defines a hardware encoder configuration for priority lists
type encoderSpec struct {
	name      string
	accelType HWAccelType
	desc      string
}

// linuxEncoderPriority defines the encoder preference order for Linux
// Priority: nvenc > qsv > vaapi > vulkan > software
// VAAPI is preferred over Vulkan as it has broader hardware support (AMD, Intel, older Intel)
var linuxEncoderPriority = []encoderSpec{
	{"h264_nvenc", HWAccelNVENC, "NVIDIA NVENC"},
	{"h264_qsv", HWAccelQSV, "Intel Quick Sync Video"},
	{"h264_vaapi", HWAccelVAAPI, "VA-API"},
	{"h264_vulkan", HWAccelVulkan, "Vulkan Video"},
}

// macOSEncoderPriority defines the encoder preference order for macOS
// Priority: videotoolbox > software
var macOSEncoderPriority = []encoderSpec{
	{"h264_videotoolbox", HWAccelVideoToolbox, "Apple VideoToolbox"},
}

// ParseHWAccel validates a --encoder flag value
func ParseHWAccel(s string) (HWAccelType, bool) {
	switch t := HWAccelType(strings.ToLower(s)); t {
	case HWAccelNone, HWAccelAuto, HWAccelNVENC, HWAccelQSV, HWAccelVAAPI, HWAccelVulkan, HWAccelVideoToolbox:
		return t, true
	}
	return "", false
}

// hwDeviceArgs returns the global options that create a hardware device
func hwDeviceArgs(hw *HWEncoder) []string {
	if hw == nil {
		return nil
	}
	switch hw.Type {
	case HWAccelVAAPI:
		return []string{"-vaapi_device", vaapiDevice}
	case HWAccelVulkan:
		return []string{"-init_hw_device", "vulkan=vk", "-filter_hw_device", "vk"}
	}
	return nil
}

// hwUploadFilter returns the filter that moves frames onto the device
func hwUploadFilter(hw *HWEncoder) string {
	if hw == nil {
		return ""
	}
	switch hw.Type {
	case HWAccelVAAPI, HWAccelVulkan:
		return "format=nv12,hwupload"
	}
	return ""
}

// probeEnv silences libva, which logs to stderr separately from ffmpeg
func probeEnv() []string {
	return append(os.Environ(), "LIBVA_MESSAGING_LEVEL=0")
}

// parseEncoderList extracts encoder names from `ffmpeg -encoders` output
func parseEncoderList(output string) map[string]bool {
	names := make(map[string]bool)
	inList := false

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "------") {
			inList = true
			continue
		}
		if !inList {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 || len(fields[0]) != 6 {
			continue
		}
		names[fields[1]] = true
	}
	return names
}

// listEncoders returns the encoders compiled into ffmpeg
func listEncoders(ffmpegPath string) map[string]bool {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, ffmpegPath, "-hide_banner", "-encoders").Output()
	if err != nil {
		return nil
	}
	return parseEncoderList(string(out))
}

// testEncoderAvailable performs a one-frame test encode. This catches cases
// where an encoder is compiled in but the hardware is missing or does not
// support it (e.g., Intel iGPU with Vulkan but no Vulkan Video encoding).
func testEncoderAvailable(ffmpegPath string, spec encoderSpec) bool {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	hw := &HWEncoder{Name: spec.name, Type: spec.accelType}

	args := []string{"-hide_banner", "-loglevel", "quiet"}
	args = append(args, hwDeviceArgs(hw)...)
	args = append(args, "-f", "lavfi", "-i", "color=black:s=256x144:d=0.1", "-frames:v", "1")
	if upload := hwUploadFilter(hw); upload != "" {
		args = append(args, "-vf", upload)
	}
	args = append(args, videoCodecArgs(hw)...)
	args = append(args, "-f", "null", "-")

	cmd := exec.CommandContext(ctx, ffmpegPath, args...)
	cmd.Env = probeEnv()
	return cmd.Run() == nil
}

// encoderPriority returns the candidate list for this OS
func encoderPriority() []encoderSpec {
	switch runtime.GOOS {
	case "darwin":
		return macOSEncoderPriority
	default: // Linux and others
		return linuxEncoderPriority
	}
}

// DetectHWEncoders probes for available hardware encoders
// Returns a list of detected encoders in priority order
func DetectHWEncoders(ffmpegPath string) []HWEncoder {
	compiled := listEncoders(ffmpegPath)

	var encoders []HWEncoder
	for _, spec := range encoderPriority() {
		encoder := HWEncoder{
			Name:        spec.name,
			Type:        spec.accelType,
			Description: spec.desc,
		}

		// Only test encoders ffmpeg was built with
		if compiled[spec.name] {
			encoder.Available = testEncoderAvailable(ffmpegPath, spec)
		}

		encoders = append(encoders, encoder)
	}

	return encoders
}

// SelectBestEncoder returns the best available encoder based on priority
// If requestedType is HWAccelAuto, it selects the first available hardware encoder
// If requestedType is HWAccelNone, it returns nil (use software)
// Otherwise, it attempts to use the requested type if available
func SelectBestEncoder(ffmpegPath string, requestedType HWAccelType) *HWEncoder {
	if requestedType == HWAccelNone || requestedType == "" {
		return nil
	}
	return pickEncoder(DetectHWEncoders(ffmpegPath), requestedType)
}

// pickEncoder applies the selection rules to a detected list
func pickEncoder(encoders []HWEncoder, requestedType HWAccelType) *HWEncoder {
	for i := range encoders {
		if requestedType == HWAccelAuto && encoders[i].Available {
			return &encoders[i]
		}
		if encoders[i].Type == requestedType {
			if encoders[i].Available {
				return &encoders[i]
			}
			return nil // Requested type not available
		}
	}
	return nil
}

// GetEncoderStatus returns a human-readable status of all hardware encoders
func GetEncoderStatus(ffmpegPath string) string {
	return formatEncoderStatus(DetectHWEncoders(ffmpegPath))
}

func formatEncoderStatus(encoders []HWEncoder) string {
	var sb strings.Builder
	sb.WriteString("Hardware Encoder Status:\n")

	for _, enc := range encoders {
		status := "not available"
		if enc.Available {
			status = "available"
		}
		sb.WriteString("  ")
		sb.WriteString(enc.Description)
		sb.WriteString(" (")
		sb.WriteString(enc.Name)
		sb.WriteString("): ")
		sb.WriteString(status)
		sb.WriteString("\n")
	}

	return sb.String()
}

package ui

import (
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/linuxmatters/visound/internal/cli"
)

// Phase represents the current export phase
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseRendering
	PhaseComplete
	PhaseFailed
)

// SourceLoaded reports the decoded clip and prepared image
type SourceLoaded struct {
	ClipDuration time.Duration
	SampleRate   int
	Samples      int
	Width        int
	Height       int
	FrameRate    int
	TotalFrames  int
	EncoderName  string
	LoadTime     time.Duration
}

// RenderProgress reports frames written so far
type RenderProgress struct {
	Frame       int
	TotalFrames int
	Elapsed     time.Duration
	Window      []float64
	FrameData   *image.RGBA
}

// RenderComplete signals a finished export
type RenderComplete struct {
	OutputFile  string
	PosterFile  string
	FileSize    int64
	TotalFrames int
	FrameRate   int
	Samples     int
	LoadTime    time.Duration
	RenderTime  time.Duration
	PosterTime  time.Duration
	TotalTime   time.Duration
	EncoderName string
}

// RenderFailed signals an aborted export
type RenderFailed struct {
	Err error
}

// exportQuitMsg is sent when it's time to quit after showing completion
type exportQuitMsg struct{}

// ExportModel implements the Bubbletea model for video export
type ExportModel struct {
	progressBar progress.Model
	summaryBar  progress.Model
	phase       Phase

	source   *SourceLoaded
	render   RenderProgress
	complete *RenderComplete
	failure  error

	startTime       time.Time
	renderStartTime time.Time

	width           int
	noPreview       bool
	preview         cachedPreview
	completionDelay time.Duration
}

// NewExportModel creates the export progress model
func NewExportModel(noPreview bool) *ExportModel {
	p := progress.New(
		progress.WithGradient(string(cli.SignalViolet), string(cli.SignalCyan)),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	summaryBar := progress.New(
		progress.WithGradient(string(cli.SignalViolet), string(cli.SignalCyan)),
		progress.WithWidth(30),
		progress.WithoutPercentage(),
	)

	return &ExportModel{
		progressBar:     p,
		summaryBar:      summaryBar,
		phase:           PhaseLoading,
		startTime:       time.Now(),
		completionDelay: 2 * time.Second,
		noPreview:       noPreview,
		preview:         cachedPreview{config: DefaultPreviewConfig(), key: -1},
	}
}

// Init initializes the model
func (m *ExportModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *ExportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressBar.Width = max(min(msg.Width-30, 50), 10)
		return m, nil

	case SourceLoaded:
		m.source = &msg
		m.phase = PhaseRendering
		m.renderStartTime = time.Now()
		return m, nil

	case RenderProgress:
		m.render = msg
		return m, nil

	case RenderComplete:
		m.complete = &msg
		m.phase = PhaseComplete
		return m, tea.Tick(m.completionDelay, func(time.Time) tea.Msg {
			return exportQuitMsg{}
		})

	case RenderFailed:
		m.failure = msg.Err
		m.phase = PhaseFailed
		return m, tea.Quit

	case exportQuitMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		if m.complete != nil {
			return m, tea.Quit
		}
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	return m, nil
}

// Phase returns the current phase
func (m *ExportModel) Phase() Phase {
	return m.phase
}

// View renders the UI
func (m *ExportModel) View() string {
	switch m.phase {
	case PhaseComplete:
		return m.renderComplete()
	case PhaseFailed:
		return ""
	}
	return m.renderProgress()
}

// CompletionSummary returns the final summary for printing after the
// program exits, or "" if the export did not complete.
func (m *ExportModel) CompletionSummary() string {
	if m.complete == nil {
		return ""
	}
	return m.renderComplete()
}

func (m *ExportModel) renderProgress() string {
	var s strings.Builder

	s.WriteString(titleView())
	s.WriteString("\n")

	phaseLabel := "Decoding audio & preparing image"
	if m.phase == PhaseRendering {
		phaseLabel = "Rendering & muxing"
	}
	s.WriteString(lipgloss.NewStyle().Foreground(cli.SignalViolet).Render(phaseLabel))
	s.WriteString("\n\n")

	if m.phase == PhaseRendering {
		m.renderRenderingProgress(&s)
	} else {
		s.WriteString(lipgloss.NewStyle().Faint(true).Render("Loading..."))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	m.renderSource(&s)

	if len(m.render.Window) > 0 {
		s.WriteString("\n\n")
		s.WriteString(lipgloss.NewStyle().Foreground(cli.SignalViolet).Render("Amplitude:"))
		s.WriteString("\n")
		s.WriteString(renderWaveform(m.render.Window, m.waveformWidth(), 1))
	}

	if !m.noPreview {
		if view := m.preview.render(m.render.Frame, m.render.FrameData); view != "" {
			s.WriteString("\n\n")
			s.WriteString(view)
		}
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(cli.SignalTeal).
		Padding(1, 2).
		Render(s.String())
}

func (m *ExportModel) renderRenderingProgress(s *strings.Builder) {
	if m.render.TotalFrames == 0 {
		s.WriteString(lipgloss.NewStyle().Faint(true).Render("Starting render..."))
		s.WriteString("\n")
		return
	}

	percent := float64(m.render.Frame) / float64(m.render.TotalFrames)

	s.WriteString("Progress: ")
	s.WriteString(m.progressBar.ViewAs(percent))
	fmt.Fprintf(s, "  %d%%", int(percent*100))
	s.WriteString("\n\n")

	elapsed := m.render.Elapsed
	if elapsed == 0 {
		elapsed = time.Since(m.renderStartTime)
	}

	var estimatedTotal, eta time.Duration
	var speed float64
	if percent > 0 {
		estimatedTotal = time.Duration(float64(elapsed) / percent)
		eta = estimatedTotal - elapsed
		if elapsed > 0 && m.source != nil && m.source.FrameRate > 0 {
			rendered := time.Duration(m.render.Frame) * time.Second / time.Duration(m.source.FrameRate)
			speed = float64(rendered) / float64(elapsed)
		}
	}

	s.WriteString(lipgloss.NewStyle().Faint(true).Render(fmt.Sprintf(
		"Time: %s / %s  │  Speed: %.1fx realtime  │  ETA: %s",
		formatDuration(elapsed),
		formatDuration(estimatedTotal),
		speed,
		formatDuration(eta))))
	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Faint(true).Italic(true).Render(
		fmt.Sprintf("Frame %d of %d", m.render.Frame, m.render.TotalFrames)))
}

func (m *ExportModel) renderSource(s *strings.Builder) {
	labelStyle := lipgloss.NewStyle().Faint(true)
	headerStyle := lipgloss.NewStyle().Faint(true).Bold(true)

	s.WriteString(headerStyle.Render("Source"))
	s.WriteString(" │ ")

	if m.source == nil {
		s.WriteString(lipgloss.NewStyle().Faint(true).Italic(true).Render("Loading..."))
		return
	}

	fmt.Fprintf(s, "%.2fs  %s %.1f kHz  %s %dx%d  %s %d fps",
		m.source.ClipDuration.Seconds(),
		labelStyle.Render("Audio:"), float64(m.source.SampleRate)/1000,
		labelStyle.Render("Frame:"), m.source.Width, m.source.Height,
		labelStyle.Render("Rate:"), m.source.FrameRate)
	if m.source.EncoderName != "" {
		fmt.Fprintf(s, "  %s %s", labelStyle.Render("Encoder:"), m.source.EncoderName)
	}
}

func (m *ExportModel) waveformWidth() int {
	if m.width > 10 {
		return min(m.width-10, 64)
	}
	return 64
}

func (m *ExportModel) renderComplete() string {
	var s strings.Builder
	c := m.complete

	s.WriteString(lipgloss.NewStyle().Bold(true).Foreground(cli.SignalCyan).Render("✓ Export Complete!"))
	s.WriteString("\n\n")

	dimLabel := lipgloss.NewStyle().Faint(true)
	fmt.Fprintf(&s, "%s%s\n", dimLabel.Render("Output:   "), c.OutputFile)
	if c.PosterFile != "" {
		fmt.Fprintf(&s, "%s%s\n", dimLabel.Render("Poster:   "), c.PosterFile)
	}
	if c.EncoderName != "" {
		fmt.Fprintf(&s, "%s%s\n", dimLabel.Render("Encoder:  "), c.EncoderName)
	}

	var videoDuration time.Duration
	if c.FrameRate > 0 {
		videoDuration = time.Duration(c.TotalFrames) * time.Second / time.Duration(c.FrameRate)
	}
	fmt.Fprintf(&s, "%s%d frames at %d fps (%.2fs)\n", dimLabel.Render("Video:    "), c.TotalFrames, c.FrameRate, videoDuration.Seconds())
	if c.Samples > 0 {
		fmt.Fprintf(&s, "%s%d samples\n", dimLabel.Render("Audio:    "), c.Samples)
	}
	fmt.Fprintf(&s, "%s%s\n\n", dimLabel.Render("Size:     "), formatBytes(c.FileSize))

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(cli.SignalViolet)
	labelStyle := lipgloss.NewStyle().Faint(true)
	highlight := lipgloss.NewStyle().Foreground(cli.SignalTeal)

	s.WriteString(headerStyle.Render("Time Breakdown"))
	s.WriteString("\n")

	total := max(c.TotalTime, time.Millisecond)
	for _, row := range []struct {
		label string
		d     time.Duration
	}{
		{"Load & prepare:", c.LoadTime},
		{"Render & mux:", c.RenderTime},
		{"Poster:", c.PosterTime},
	} {
		if row.d <= 0 {
			continue
		}
		ratio := min(float64(row.d)/float64(total), 1)
		fmt.Fprintf(&s, "  %s%s (~%2d%%)  %s\n",
			labelStyle.Render(fmt.Sprintf("%-18s", row.label)),
			fmt.Sprintf("~%-6s", formatDuration(row.d)),
			int(ratio*100),
			m.summaryBar.ViewAs(ratio))
	}
	fmt.Fprintf(&s, "  %s%s", labelStyle.Render(fmt.Sprintf("%-18s", "Total time:")), highlight.Render(formatDuration(c.TotalTime)))

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(cli.SignalTeal).
		Padding(1, 1).
		Render(s.String()) + "\n"
}

func titleView() string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(cli.SignalCyan).
		Render("visound ◉")
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatBytes(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}

	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"KB", "MB", "GB"}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), units[min(exp, len(units)-1)])
}

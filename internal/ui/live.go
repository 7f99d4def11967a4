package ui

import (
	"fmt"
	"image"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/linuxmatters/visound/internal/cli"
)

// LiveFrame carries one rendered live tick
type LiveFrame struct {
	Seq        int
	Frame      *image.RGBA
	Window     []float64
	Peak       float64
	Brightness float64
	Skipped    int
}

// LiveEnded signals the end of a live session; Err is nil on a clean end
type LiveEnded struct {
	Err error
}

// LiveModel implements the Bubbletea model for live mode
type LiveModel struct {
	source    string
	last      LiveFrame
	ended     *LiveEnded
	startTime time.Time
	width     int
	noPreview bool
	preview   cachedPreview
	peakHold  float64
}

// NewLiveModel creates the live view for the named source
func NewLiveModel(source string, noPreview bool) *LiveModel {
	return &LiveModel{
		source:    source,
		startTime: time.Now(),
		noPreview: noPreview,
		preview:   cachedPreview{config: DefaultPreviewConfig(), key: -1},
	}
}

// Init initializes the model
func (m *LiveModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case LiveFrame:
		m.last = msg
		// Peak hold decays so old transients fade from the readout
		m.peakHold = max(m.peakHold*0.95, abs(msg.Peak))
		return m, nil

	case LiveEnded:
		m.ended = &msg
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the UI
func (m *LiveModel) View() string {
	if m.ended != nil {
		return ""
	}

	var s strings.Builder

	s.WriteString(titleView())
	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Foreground(cli.SignalViolet).Render("Live: " + m.source))
	s.WriteString("\n\n")

	labelStyle := lipgloss.NewStyle().Faint(true)
	valueStyle := lipgloss.NewStyle().Bold(true)

	if m.last.Frame == nil {
		s.WriteString(labelStyle.Render("Waiting for audio..."))
	} else {
		// Fixed-width values avoid shimmer
		s.WriteString(labelStyle.Render("Peak: "))
		s.WriteString(valueStyle.Render(fmt.Sprintf("%+6.3f", m.last.Peak)))
		s.WriteString("  │  ")
		s.WriteString(labelStyle.Render("Hold: "))
		s.WriteString(valueStyle.Render(fmt.Sprintf("%6.3f", m.peakHold)))
		s.WriteString("  │  ")
		s.WriteString(labelStyle.Render("Brightness: "))
		s.WriteString(valueStyle.Render(fmt.Sprintf("%4.2f", m.last.Brightness)))
		s.WriteString("\n")
		s.WriteString(labelStyle.Render(fmt.Sprintf("Tick %d  │  Skipped %d  │  Elapsed %s",
			m.last.Seq, m.last.Skipped, formatDuration(time.Since(m.startTime)))))

		s.WriteString("\n\n")
		s.WriteString(renderWaveform(m.last.Window, m.waveformWidth(), 1))

		if !m.noPreview {
			s.WriteString("\n\n")
			s.WriteString(m.preview.render(m.last.Seq, m.last.Frame))
		}
	}

	s.WriteString("\n")
	s.WriteString(labelStyle.Render("q to quit"))

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(cli.SignalTeal).
		Padding(1, 2).
		Render(s.String())
}

// Err returns the session error once the session has ended
func (m *LiveModel) Err() error {
	if m.ended == nil {
		return nil
	}
	return m.ended.Err
}

func (m *LiveModel) waveformWidth() int {
	if m.width > 10 {
		return min(m.width-10, 64)
	}
	return 64
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

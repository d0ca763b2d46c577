package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TUI message types
type RecordingStartMsg struct{ At time.Time }
type RecordingStopMsg struct {
	Elapsed    time.Duration
	Dispatched bool
}
type TranscriptionMsg struct {
	Text     string
	Elapsed  time.Duration
	NoSpeech bool
	Err      string
}
type ModeLineMsg struct{ Text string }   // backend, language, mode
type DeviceLineMsg struct{ Text string } // microphone device name
type tickMsg time.Time

const levelBarWidth = 30

type tuiModel struct {
	hotkeyLabel string
	probe       func() float32
	recording   bool
	startedAt   time.Time
	elapsed     time.Duration
	level       float64
	peak        float64
	width       int

	modeLine    string
	deviceLine  string
	status      string // outcome of the last stop
	lastText    string
	lastErr     string
	noSpeech    bool
	count       int
	lastLatency time.Duration
}

var (
	recStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	idleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	textStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	helpKeyStyle = helpStyle.Bold(true)
	barOnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	barOffStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
)

func newTUIModel(hotkeyLabel string, probe func() float32) tuiModel {
	return tuiModel{hotkeyLabel: hotkeyLabel, probe: probe}
}

// NewTUIProgram builds the status view. probe samples the input peak on
// every tick while recording.
func NewTUIProgram(hotkeyLabel string, probe func() float32) *tea.Program {
	return tea.NewProgram(newTUIModel(hotkeyLabel, probe), tea.WithAltScreen())
}

func tuiTick() tea.Cmd {
	return tea.Tick(60*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}

	case tickMsg:
		if m.recording {
			m.elapsed = time.Time(msg).Sub(m.startedAt)
			if m.probe != nil {
				m = m.withLevel(float64(m.probe()))
			}
		}
		return m, tuiTick()

	case RecordingStartMsg:
		m.recording = true
		m.startedAt = msg.At
		m.elapsed = 0
		m.level = 0
		m.peak = 0
		m.status = ""

	case RecordingStopMsg:
		m.recording = false
		m.level = 0
		m.elapsed = msg.Elapsed
		if msg.Dispatched {
			m.status = fmt.Sprintf("transcribing %.1fs...", msg.Elapsed.Seconds())
		} else {
			m.status = fmt.Sprintf("discarded %.1fs tap (under 1s)", msg.Elapsed.Seconds())
		}

	case TranscriptionMsg:
		m.status = ""
		m.lastErr = msg.Err
		if msg.Err == "" {
			m.count++
			m.lastText = msg.Text
			m.noSpeech = msg.NoSpeech
			m.lastLatency = msg.Elapsed
		}

	case ModeLineMsg:
		m.modeLine = msg.Text

	case DeviceLineMsg:
		m.deviceLine = msg.Text
	}
	return m, nil
}

// withLevel smooths the meter and tracks the session peak.
func (m tuiModel) withLevel(level float64) tuiModel {
	if !m.recording {
		return m
	}
	m.level = m.level*0.6 + level*0.4
	if level > m.peak {
		m.peak = level
	}
	return m
}

func (m tuiModel) View() string {
	var b strings.Builder

	if m.recording {
		b.WriteString(recStyle.Render(fmt.Sprintf("● REC %.1fs", m.elapsed.Seconds())))
		b.WriteString("  " + levelBar(m.level, levelBarWidth))
		if m.elapsed > time.Second && m.peak < 0.02 {
			b.WriteString("  " + warnStyle.Render("⚠ no voice detected"))
		}
	} else {
		b.WriteString(idleStyle.Render("○ STANDBY"))
	}
	b.WriteString("\n")

	for _, line := range []string{m.modeLine, m.deviceLine} {
		if line != "" {
			b.WriteString(dimStyle.Render(line) + "\n")
		}
	}
	if m.status != "" {
		b.WriteString(dimStyle.Render(m.status) + "\n")
	}
	b.WriteString("\n")

	wrap := m.width - 2
	if wrap < 20 {
		wrap = 60
	}
	switch {
	case m.lastErr != "":
		for _, line := range wrapText("error: "+m.lastErr, wrap) {
			b.WriteString(errStyle.Render(line) + "\n")
		}
	case m.count == 0:
		b.WriteString(idleStyle.Render("No transcriptions yet") + "\n")
	case m.noSpeech:
		b.WriteString(warnStyle.Render(fmt.Sprintf("#%d no speech detected", m.count)) + "\n")
	default:
		b.WriteString(dimStyle.Render(fmt.Sprintf("#%d in %.2fs", m.count, m.lastLatency.Seconds())) + "\n")
		for _, line := range wrapText(m.lastText, wrap) {
			b.WriteString(textStyle.Render(line) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(helpKeyStyle.Render(m.hotkeyLabel) + helpStyle.Render(" to record · q to quit · whisperkey "+version))
	return b.String()
}

// levelBar renders level (0..1) as a fixed-width meter.
func levelBar(level float64, width int) string {
	n := int(level*float64(width) + 0.5)
	if n < 0 {
		n = 0
	}
	if n > width {
		n = width
	}
	return barOnStyle.Render(strings.Repeat("█", n)) + barOffStyle.Render(strings.Repeat("░", width-n))
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for len(text) > width {
		// Find last space within width
		splitAt := width
		for i := width; i > 0; i-- {
			if text[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, text[:splitAt])
		text = strings.TrimLeft(text[splitAt:], " ")
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}

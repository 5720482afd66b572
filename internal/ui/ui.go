// Package ui provides a terminal UI for watching dosing windows and profile
// comparisons. Uses Bubbletea for interactive display of progress and logs.
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mkrenz/doseview/internal/compare"
	"github.com/mkrenz/doseview/internal/monitor"
	"github.com/mkrenz/doseview/internal/window"
)

// Panel represents which panel is currently focused.
type Panel int

const (
	PanelWindows Panel = iota
	PanelTables
	PanelLogs
)

// ConnState represents the upstream connection state.
type ConnState int

const (
	ConnDisconnected ConnState = iota
	ConnConnected
	ConnLocal
)

func (s ConnState) String() string {
	switch s {
	case ConnDisconnected:
		return "Disconnected"
	case ConnConnected:
		return "Connected"
	case ConnLocal:
		return "Local files"
	default:
		return "Unknown"
	}
}

// LogEntry represents a log line.
type LogEntry struct {
	Time    time.Time
	Level   string
	Message string
}

// Model holds the TUI state.
type Model struct {
	// Display state
	width       int
	height      int
	activePanel Panel
	quitting    bool

	// Windows panel
	connState ConnState
	report    monitor.Report
	hasReport bool

	// Comparison tables
	tableIndex int
	rowScroll  int

	// Logs
	logs      []LogEntry
	logScroll int

	// Progress
	progressTick int

	// Styles
	styles *Styles
}

// Styles holds lipgloss styles for the UI.
type Styles struct {
	// Panel borders
	ActiveBorder   lipgloss.Style
	InactiveBorder lipgloss.Style

	// Text styles
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Highlight lipgloss.Style
	Muted     lipgloss.Style

	// Status indicators
	StatusOK     lipgloss.Style
	StatusWarn   lipgloss.Style
	StatusError  lipgloss.Style
	StatusActive lipgloss.Style

	// Table rows
	RowSelected lipgloss.Style
	RowNormal   lipgloss.Style
	RowTotal    lipgloss.Style

	// Log levels
	LogDebug lipgloss.Style
	LogInfo  lipgloss.Style
	LogWarn  lipgloss.Style
	LogError lipgloss.Style

	// Help bar
	HelpKey  lipgloss.Style
	HelpText lipgloss.Style
}

// newStyles creates the default style set.
func newStyles() *Styles {
	subtle := lipgloss.AdaptiveColor{Light: "#666", Dark: "#888"}
	highlight := lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	green := lipgloss.AdaptiveColor{Light: "#22863a", Dark: "#3fb950"}
	yellow := lipgloss.AdaptiveColor{Light: "#b08800", Dark: "#d29922"}
	red := lipgloss.AdaptiveColor{Light: "#cb2431", Dark: "#f85149"}
	blue := lipgloss.AdaptiveColor{Light: "#0366d6", Dark: "#58a6ff"}

	return &Styles{
		ActiveBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(highlight),

		InactiveBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(subtle),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(highlight).
			MarginBottom(1),

		Subtitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#333", Dark: "#ccc"}),

		Label: lipgloss.NewStyle().
			Foreground(subtle),

		Value: lipgloss.NewStyle().
			Bold(true),

		Highlight: lipgloss.NewStyle().
			Foreground(highlight).
			Bold(true),

		Muted: lipgloss.NewStyle().
			Foreground(subtle),

		StatusOK: lipgloss.NewStyle().
			Foreground(green).
			Bold(true),

		StatusWarn: lipgloss.NewStyle().
			Foreground(yellow).
			Bold(true),

		StatusError: lipgloss.NewStyle().
			Foreground(red).
			Bold(true),

		StatusActive: lipgloss.NewStyle().
			Foreground(blue).
			Bold(true),

		RowSelected: lipgloss.NewStyle().
			Background(highlight).
			Foreground(lipgloss.Color("#fff")).
			Bold(true),

		RowNormal: lipgloss.NewStyle(),

		RowTotal: lipgloss.NewStyle().
			Foreground(blue).
			Bold(true),

		LogDebug: lipgloss.NewStyle().Foreground(subtle),
		LogInfo:  lipgloss.NewStyle().Foreground(blue),
		LogWarn:  lipgloss.NewStyle().Foreground(yellow),
		LogError: lipgloss.NewStyle().Foreground(red),

		HelpKey: lipgloss.NewStyle().
			Foreground(highlight).
			Bold(true),

		HelpText: lipgloss.NewStyle().
			Foreground(subtle),
	}
}

// tickMsg is sent periodically to update the UI.
type tickMsg time.Time

// reportMsg carries a fresh monitor report into the model.
type reportMsg monitor.Report

// New creates a new TUI model.
func New() *Model {
	return &Model{
		width:       80,
		height:      24,
		activePanel: PanelWindows,
		connState:   ConnDisconnected,
		logs:        make([]LogEntry, 0),
		styles:      newStyles(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

// tickCmd returns a command that ticks every second.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case reportMsg:
		m.report = monitor.Report(msg)
		m.hasReport = true
		return m, nil

	case tickMsg:
		m.progressTick++
		return m, tickCmd()
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "tab", "right", "l":
		m.activePanel = (m.activePanel + 1) % 3
		return m, nil

	case "shift+tab", "left", "h":
		m.activePanel = (m.activePanel + 2) % 3
		return m, nil

	case "up", "k":
		return m.handleUp(), nil

	case "down", "j":
		return m.handleDown(), nil

	case "home", "g":
		return m.handleHome(), nil

	case "end", "G":
		return m.handleEnd(), nil
	}

	return m, nil
}

// handleUp handles up arrow / k key.
func (m Model) handleUp() Model {
	switch m.activePanel {
	case PanelTables:
		if m.rowScroll > 0 {
			m.rowScroll--
		} else if m.tableIndex > 0 {
			m.tableIndex--
		}
	case PanelLogs:
		if m.logScroll > 0 {
			m.logScroll--
		}
	}
	return m
}

// handleDown handles down arrow / j key.
func (m Model) handleDown() Model {
	switch m.activePanel {
	case PanelTables:
		table := m.currentTable()
		if table != nil && m.rowScroll < len(table.Rows)-1 {
			m.rowScroll++
		} else if m.tableIndex < 3 {
			m.tableIndex++
			m.rowScroll = 0
		}
	case PanelLogs:
		maxScroll := len(m.logs) - 1
		if m.logScroll < maxScroll {
			m.logScroll++
		}
	}
	return m
}

// handleHome handles home / g key.
func (m Model) handleHome() Model {
	switch m.activePanel {
	case PanelTables:
		m.tableIndex = 0
		m.rowScroll = 0
	case PanelLogs:
		m.logScroll = 0
	}
	return m
}

// handleEnd handles end / G key.
func (m Model) handleEnd() Model {
	switch m.activePanel {
	case PanelTables:
		m.tableIndex = 3
		m.rowScroll = 0
	case PanelLogs:
		if len(m.logs) > 0 {
			m.logScroll = len(m.logs) - 1
		}
	}
	return m
}

// currentTable returns the comparison table selected in the tables panel.
func (m Model) currentTable() *compare.Table {
	if !m.hasReport || m.report.Comparison == nil {
		return nil
	}
	c := m.report.Comparison
	switch m.tableIndex {
	case 0:
		return &c.Basal
	case 1:
		return &c.CarbRatio
	case 2:
		return &c.Sensitivity
	case 3:
		return &c.Target
	default:
		return nil
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	// Calculate panel dimensions
	topHeight := m.height / 2
	bottomHeight := m.height - topHeight - 3 // -3 for help bar and padding
	leftWidth := m.width / 2
	rightWidth := m.width - leftWidth

	// Build panels
	windowPanel := m.renderWindowPanel(leftWidth-2, topHeight-2)
	tablePanel := m.renderTablePanel(rightWidth-2, topHeight-2)
	logPanel := m.renderLogPanel(m.width-2, bottomHeight-2)

	// Apply borders
	windowBorder := m.getBorder(PanelWindows).Width(leftWidth - 2).Height(topHeight - 2)
	tableBorder := m.getBorder(PanelTables).Width(rightWidth - 2).Height(topHeight - 2)
	logBorder := m.getBorder(PanelLogs).Width(m.width - 2).Height(bottomHeight - 2)

	// Layout
	topRow := lipgloss.JoinHorizontal(
		lipgloss.Top,
		windowBorder.Render(windowPanel),
		tableBorder.Render(tablePanel),
	)

	helpBar := m.renderHelpBar()

	return lipgloss.JoinVertical(
		lipgloss.Left,
		topRow,
		logBorder.Render(logPanel),
		helpBar,
	)
}

// getBorder returns the appropriate border style for a panel.
func (m Model) getBorder(panel Panel) lipgloss.Style {
	if m.activePanel == panel {
		return m.styles.ActiveBorder
	}
	return m.styles.InactiveBorder
}

// renderWindowPanel renders the active-window progress panel.
func (m Model) renderWindowPanel(width, height int) string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Doseview Windows"))
	b.WriteString("\n\n")

	// Connection
	connStyle := m.styles.StatusError
	switch m.connState {
	case ConnConnected:
		connStyle = m.styles.StatusOK
	case ConnLocal:
		connStyle = m.styles.StatusWarn
	}
	b.WriteString(m.styles.Label.Render("Source: "))
	b.WriteString(connStyle.Render(m.connState.String()))
	b.WriteString("\n\n")

	b.WriteString(m.renderWindowLine("Temp Target", m.report.TempTarget, width))
	b.WriteString("\n")
	b.WriteString(m.renderWindowLine("Profile Switch", m.report.ProfileSwitch, width))

	// Sampling time
	b.WriteString("\n")
	b.WriteString(m.styles.Label.Render("Sampled: "))
	if m.hasReport {
		b.WriteString(m.styles.Value.Render(m.report.SampledAt.Format("15:04:05")))
	} else {
		b.WriteString(m.styles.Muted.Render("Never"))
	}

	return b.String()
}

// renderWindowLine renders one window's label, progress bar and remaining time.
func (m Model) renderWindowLine(title string, sample monitor.Sample, width int) string {
	var b strings.Builder

	b.WriteString(m.styles.Subtitle.Render(title))
	b.WriteString("\n")

	st := sample.Window
	if st == nil || !st.Active() {
		b.WriteString(m.styles.Muted.Render("None"))
		b.WriteString("\n")
		return b.String()
	}

	label := st.Label
	if st.Mode == window.ModeAdjusted {
		label += " " + m.styles.StatusWarn.Render("(adjusted)")
	}
	b.WriteString(m.styles.Value.Render(label))
	b.WriteString("\n")

	pct := int(sample.Ratio * 100)
	b.WriteString(m.renderProgressBar(pct, width-4))
	b.WriteString("\n")

	remaining := window.Remaining(st, m.report.SampledAt)
	b.WriteString(m.styles.Label.Render("Remaining: "))
	b.WriteString(m.styles.Value.Render(formatDuration(remaining)))
	b.WriteString("\n")

	return b.String()
}

// renderProgressBar renders a progress bar.
func (m Model) renderProgressBar(pct, width int) string {
	if width < 10 {
		width = 10
	}

	filled := width * pct / 100
	if filled > width {
		filled = width
	}

	bar := strings.Repeat("=", filled) + strings.Repeat("-", width-filled)

	// Color based on percentage
	style := m.styles.StatusOK
	if pct > 80 {
		style = m.styles.StatusError
	} else if pct > 50 {
		style = m.styles.StatusWarn
	}

	return "[" + style.Render(bar) + "]"
}

// renderTablePanel renders the currently selected comparison table.
func (m Model) renderTablePanel(width, height int) string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Comparison"))
	b.WriteString("\n\n")

	table := m.currentTable()
	if table == nil {
		b.WriteString(m.styles.Muted.Render("No comparison loaded"))
		return b.String()
	}

	b.WriteString(m.styles.Subtitle.Render(fmt.Sprintf("%s (%s)", table.Title, table.Unit)))
	b.WriteString("\n")
	b.WriteString(m.styles.Label.Render(fmt.Sprintf("%-8s %12s %12s", "Time", table.Name1, table.Name2)))
	b.WriteString("\n")

	visibleRows := height - 6
	if visibleRows < 1 {
		visibleRows = 1
	}

	start := m.rowScroll
	if start > len(table.Rows)-1 {
		start = len(table.Rows) - 1
	}
	if start < 0 {
		start = 0
	}

	for i := start; i < len(table.Rows) && i < start+visibleRows; i++ {
		row := table.Rows[i]
		line := fmt.Sprintf("%-8s %12s %12s", row.Time, row.Value1, row.Value2)

		style := m.styles.RowNormal
		if row.Time == compare.TotalLabel {
			style = m.styles.RowTotal
		}
		if i == m.rowScroll && m.activePanel == PanelTables {
			style = m.styles.RowSelected
		}

		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	// Table cycle indicator
	b.WriteString(m.styles.Muted.Render(fmt.Sprintf(" [%d/4]", m.tableIndex+1)))

	return b.String()
}

// renderLogPanel renders the log viewer panel.
func (m Model) renderLogPanel(width, height int) string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Logs"))
	b.WriteString("\n\n")

	if len(m.logs) == 0 {
		b.WriteString(m.styles.Muted.Render("No logs yet"))
		return b.String()
	}

	visibleLogs := height - 4
	if visibleLogs < 1 {
		visibleLogs = 1
	}

	start := m.logScroll
	if start+visibleLogs > len(m.logs) {
		start = len(m.logs) - visibleLogs
		if start < 0 {
			start = 0
		}
	}

	for i := start; i < len(m.logs) && i < start+visibleLogs; i++ {
		entry := m.logs[i]

		timeStr := entry.Time.Format("15:04:05")

		var levelStyle lipgloss.Style
		switch entry.Level {
		case "debug":
			levelStyle = m.styles.LogDebug
		case "info":
			levelStyle = m.styles.LogInfo
		case "warn":
			levelStyle = m.styles.LogWarn
		case "error":
			levelStyle = m.styles.LogError
		default:
			levelStyle = m.styles.Muted
		}

		maxMsgLen := width - 20
		msg := entry.Message
		if len(msg) > maxMsgLen && maxMsgLen > 3 {
			msg = msg[:maxMsgLen-3] + "..."
		}

		line := fmt.Sprintf("%s %s %s",
			m.styles.Muted.Render(timeStr),
			levelStyle.Render(fmt.Sprintf("[%-5s]", entry.Level)),
			msg,
		)

		b.WriteString(line)
		b.WriteString("\n")
	}

	if len(m.logs) > visibleLogs {
		scrollInfo := fmt.Sprintf(" [%d/%d]", m.logScroll+1, len(m.logs))
		b.WriteString(m.styles.Muted.Render(scrollInfo))
	}

	return b.String()
}

// renderHelpBar renders the help bar at the bottom.
func (m Model) renderHelpBar() string {
	helpItems := []struct {
		key  string
		desc string
	}{
		{"tab", "switch panel"},
		{"j/k", "up/down"},
		{"q", "quit"},
	}

	var parts []string
	for _, item := range helpItems {
		parts = append(parts, fmt.Sprintf("%s %s",
			m.styles.HelpKey.Render(item.key),
			m.styles.HelpText.Render(item.desc),
		))
	}

	return "  " + strings.Join(parts, "  |  ")
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	} else if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}

// SetConnState updates the upstream connection indicator.
func (m *Model) SetConnState(state ConnState) {
	m.connState = state
}

// SetReport replaces the displayed monitor report.
func (m *Model) SetReport(r monitor.Report) {
	m.report = r
	m.hasReport = true
}

// AddLog adds a log entry.
func (m *Model) AddLog(level, message string) {
	m.logs = append(m.logs, LogEntry{
		Time:    time.Now(),
		Level:   level,
		Message: message,
	})
	// Auto-scroll to bottom if not actively scrolling
	if m.logScroll == len(m.logs)-2 || len(m.logs) == 1 {
		m.logScroll = len(m.logs) - 1
	}
}

// ClearLogs removes all logs.
func (m *Model) ClearLogs() {
	m.logs = make([]LogEntry, 0)
	m.logScroll = 0
}

// Run starts the TUI.
func (m *Model) Run() error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RunWithProgram starts the TUI and returns the program for external control.
// Reports are pushed in with Program.Send(ReportMsg(r)).
func (m *Model) RunWithProgram() (*tea.Program, error) {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		_, _ = p.Run()
	}()
	return p, nil
}

// ReportMsg wraps a monitor report for delivery via Program.Send.
func ReportMsg(r monitor.Report) tea.Msg {
	return reportMsg(r)
}

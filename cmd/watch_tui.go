// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/ocellus/pkg/ocellus"
)

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for notices
}

// watchModel polls the session from tea commands. The next poll is only
// scheduled after the previous result arrives, so the session is never used
// concurrently.
type watchModel struct {
	ctx      context.Context
	session  *ocellus.Session
	connInfo string
	line     bool
	interval time.Duration

	table         table.Model
	stats         ocellus.Snapshot
	polls         uint64
	lastPoll      time.Time
	lastCount     int
	eventLog      []eventLogEntry
	maxLogEntries int
	failing       bool
	width         int
	height        int
	quitting      bool
}

// Messages
type tickMsg time.Time

type pollMsg struct {
	blocks   []ocellus.Block
	features *ocellus.Features
	err      error
}

var blockColumns = []table.Column{
	{Title: "#", Width: 3},
	{Title: "Sig", Width: 10},
	{Title: "X", Width: 5},
	{Title: "Y", Width: 5},
	{Title: "W", Width: 5},
	{Title: "H", Width: 5},
	{Title: "Angle", Width: 6},
	{Title: "Index", Width: 6},
	{Title: "Age", Width: 5},
}

var featureColumns = []table.Column{
	{Title: "Kind", Width: 13},
	{Title: "Position", Width: 16},
	{Title: "Index", Width: 6},
	{Title: "Detail", Width: 40},
}

// formatUptime formats a duration as a human-friendly string
func formatUptime(d time.Duration) string {
	seconds := uint64(d / time.Second)
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	seconds %= 60
	minutes %= 60
	hours %= 24

	plural := func(n uint64, unit string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}

	parts := []string{}
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, plural(seconds, "second"))
	}

	// Join with commas and "and" for last item
	if len(parts) == 1 {
		return parts[0]
	}
	if len(parts) == 2 {
		return parts[0] + " and " + parts[1]
	}
	last := parts[len(parts)-1]
	rest := strings.Join(parts[:len(parts)-1], ", ")
	return rest + ", and " + last
}

func newWatchModel(ctx context.Context, sess *ocellus.Session, connInfo string, line bool, interval time.Duration) watchModel {
	columns := blockColumns
	if line {
		columns = featureColumns
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(10),
		table.WithFocused(false),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true).
		Foreground(lipgloss.Color("12"))
	styles.Selected = lipgloss.NewStyle()
	t.SetStyles(styles)

	return watchModel{
		ctx:           ctx,
		session:       sess,
		connInfo:      connInfo,
		line:          line,
		interval:      interval,
		table:         t,
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

func (m watchModel) Init() tea.Cmd {
	return m.pollCmd()
}

func (m watchModel) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m watchModel) pollCmd() tea.Cmd {
	ctx, sess, line := m.ctx, m.session, m.line
	return func() tea.Msg {
		if line {
			f, err := sess.Line.GetMainFeatures(ctx, ocellus.FeatureAll, true)
			return pollMsg{features: f, err: err}
		}
		blocks, err := sess.CCC.GetBlocks(ctx, ocellus.SigAll, 255, true)
		return pollMsg{blocks: blocks, err: err}
	}
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(m.height-20, 5))

	case tickMsg:
		return m, m.pollCmd()

	case pollMsg:
		m.polls++
		m.lastPoll = time.Now()
		m.stats = m.session.Stats().Snapshot()

		if msg.err != nil {
			if m.ctx.Err() != nil {
				return m, tea.Quit
			}
			// Log only the first failure of a run
			if !m.failing {
				m.addLogEntry(msg.err.Error(), true)
			}
			m.failing = true
			return m, m.tickCmd()
		}
		if m.failing {
			m.addLogEntry("Sensor answering again", false)
			m.failing = false
		}

		var rows []table.Row
		if m.line {
			rows = featureRows(msg.features)
		} else {
			rows = blockRows(msg.blocks)
		}
		if len(rows) != m.lastCount {
			m.addLogEntry(fmt.Sprintf("%d detected (was %d)", len(rows), m.lastCount), false)
			m.lastCount = len(rows)
		}
		m.table.SetRows(rows)
		return m, m.tickCmd()
	}

	return m, nil
}

func (m *watchModel) addLogEntry(message string, isError bool) {
	entry := eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.eventLog = append(m.eventLog, entry)

	// Keep only last N entries
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

func blockRows(blocks []ocellus.Block) []table.Row {
	rows := make([]table.Row, 0, len(blocks))
	for i, b := range blocks {
		angle := "-"
		if b.IsColorCode() {
			angle = fmt.Sprintf("%d", b.Angle)
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", i),
			ocellus.FormatSignature(b.Signature),
			fmt.Sprintf("%d", b.X),
			fmt.Sprintf("%d", b.Y),
			fmt.Sprintf("%d", b.Width),
			fmt.Sprintf("%d", b.Height),
			angle,
			fmt.Sprintf("%d", b.Index),
			fmt.Sprintf("%d", b.Age),
		})
	}
	return rows
}

func featureRows(f *ocellus.Features) []table.Row {
	if f == nil {
		return nil
	}

	var rows []table.Row
	for _, v := range f.Vectors {
		detail := ""
		if v.Flags&ocellus.LineFlagIntersectionPresent != 0 {
			detail = "intersection ahead"
		}
		if v.Flags&ocellus.LineFlagInvalid != 0 {
			detail = "invalid"
		}
		rows = append(rows, table.Row{
			"vector",
			fmt.Sprintf("(%d %d)-(%d %d)", v.X0, v.Y0, v.X1, v.Y1),
			fmt.Sprintf("%d", v.Index),
			detail,
		})
	}
	for _, in := range f.Intersections {
		branches := make([]string, 0, len(in.Lines))
		for _, l := range in.Lines {
			branches = append(branches, fmt.Sprintf("%d@%d°", l.Index, l.Angle))
		}
		rows = append(rows, table.Row{
			"intersection",
			fmt.Sprintf("(%d %d)", in.X, in.Y),
			"-",
			strings.Join(branches, " "),
		})
	}
	for _, b := range f.Barcodes {
		rows = append(rows, table.Row{
			"barcode",
			fmt.Sprintf("(%d %d)", b.X, b.Y),
			"-",
			fmt.Sprintf("code %d", b.Code),
		})
	}
	return rows
}

func (m watchModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	var s strings.Builder
	s.WriteString(titleStyle.Render("OCELLUS - WATCH"))
	s.WriteString("\n")
	mode := "Blocks"
	if m.line {
		mode = "Line features"
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Mode: %s | Every %s | Press 'q' to quit",
		m.connInfo, mode, m.interval)))
	s.WriteString("\n")
	if v := m.session.Version(); v != nil {
		r := m.session.Resolution()
		s.WriteString(headerStyle.Render(fmt.Sprintf("Firmware %s %s | Frame %dx%d",
			v.Firmware(), v.FirmwareType, r.Width, r.Height)))
	}
	s.WriteString("\n\n")

	// Status
	switch {
	case m.polls == 0:
		s.WriteString(warningStyle.Render("⏳ Waiting for first frame..."))
	case m.failing:
		s.WriteString(errorStyle.Render("✗ Sensor not answering"))
	default:
		s.WriteString(statsValueStyle.Render(fmt.Sprintf("✓ %d detected", m.lastCount)))
		s.WriteString(headerStyle.Render(" at " + m.lastPoll.Format("15:04:05.000")))
	}
	s.WriteString("\n\n")

	s.WriteString(boxStyle.Render(m.table.View()))
	s.WriteString("\n\n")

	// Statistics
	st := m.stats
	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Transactions:"), statsValueStyle.Render(fmt.Sprintf("%d", st.Transactions)),
		statsLabelStyle.Render("Received:"), statsValueStyle.Render(fmt.Sprintf("%d (%.1f%%)", st.PacketsReceived, st.SuccessRate())),
		statsLabelStyle.Render("Errors:"), func() string {
			if st.Errors() > 0 {
				return errorStyle.Render(fmt.Sprintf("%d", st.Errors()))
			}
			return statsValueStyle.Render("0")
		}(),
	))

	if st.Errors() > 0 {
		statsContent.WriteString(fmt.Sprintf(" (%s: %d, %s: %d, %s: %d, %s: %d)\n",
			headerStyle.Render("checksum"), st.ChecksumErrors,
			headerStyle.Render("sync"), st.SyncTimeouts,
			headerStyle.Render("transport"), st.TransportErrors,
			headerStyle.Render("device"), st.ProtocolErrors,
		))
	}

	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s\n",
		statsLabelStyle.Render("Busy retries:"), warningStyle.Render(fmt.Sprintf("%d", st.BusyRetries)),
		statsLabelStyle.Render("Bytes:"), statsValueStyle.Render(fmt.Sprintf("%d out / %d in", st.BytesSent, st.BytesReceived)),
	))

	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s",
		statsLabelStyle.Render("Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f tx/s", st.TransactionRate)),
		statsLabelStyle.Render("Error Rate:"), func() string {
			if st.ErrorRate > 0 {
				return errorStyle.Render(fmt.Sprintf("%.1f err/s", st.ErrorRate))
			}
			return statsValueStyle.Render(fmt.Sprintf("%.1f err/s", st.ErrorRate))
		}(),
		statsLabelStyle.Render("Uptime:"), statsValueStyle.Render(formatUptime(st.Uptime)),
	))

	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Event log
	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	logHeight := m.height - m.table.Height() - 20
	if logHeight < 3 {
		logHeight = 3
	}

	logContent := strings.Builder{}
	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.eventLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("01/02/06 15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					warningStyle.Render("ℹ "+entry.message),
				))
			}
		}
	}

	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))

	return s.String()
}

// Package historyui provides the Bubble Tea browser for recorded generation runs.
package historyui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/chi2plookup/internal/model"
	"github.com/verte-zerg/chi2plookup/internal/report"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	detailStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
)

const detailLines = 6

// Model implements the Bubble Tea history UI.
type Model struct {
	runs  []model.RunRecord
	table table.Model

	width  int
	height int
}

// NewModel constructs a history UI over runs, newest first.
func NewModel(runs []model.RunRecord) *Model {
	m := &Model{runs: runs}
	m.table = buildTable(runs, 0, 1)
	m.table.Focus()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(m.width)
		m.table.SetHeight(m.tableHeight())
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "g", "home":
			m.table.GotoTop()
			return m, nil
		case "G", "end":
			m.table.GotoBottom()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	title := titleStyle.Render(fmt.Sprintf("Generation history (%d runs)", len(m.runs)))
	parts := []string{title, m.table.View()}
	if run, ok := m.Selected(); ok {
		parts = append(parts, detailStyle.Width(maxInt(10, m.width-2)).Render(renderDetail(run)))
	}
	parts = append(parts, footerStyle.Render("↑/↓ select  g/G top/bottom  q quit"))
	return strings.Join(parts, "\n")
}

// Selected returns the run under the cursor.
func (m *Model) Selected() (model.RunRecord, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.runs) {
		return model.RunRecord{}, false
	}
	return m.runs[idx], true
}

func (m *Model) tableHeight() int {
	// title + detail box (with borders) + footer
	return maxInt(2, m.height-1-(detailLines+2)-1)
}

func renderDetail(run model.RunRecord) string {
	rows := [][2]string{
		{"Path", run.OutputPath},
		{"Generated", run.GeneratedAt.Local().Format("2006-01-02 15:04:05")},
		{"Request", fmt.Sprintf("precision=%d df=%d start_chi=%d", run.Precision, run.MaxDegreesOfFreedom, run.ReferenceCutoff)},
		{"Cutoffs", report.JoinCutoffs(run.Cutoffs)},
		{"SHA256", run.SHA256},
		{"Size", fmt.Sprintf("%d bytes in %d ms", run.Bytes, run.DurationMs)},
	}
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, labelStyle.Render(fmt.Sprintf("%-10s", r[0]))+valueStyle.Render(r[1]))
	}
	return strings.Join(lines, "\n")
}

func buildTable(runs []model.RunRecord, width, height int) table.Model {
	cells := report.HistoryRows(runs)
	columns := make([]table.Column, len(report.HistoryHeaders))
	for i, h := range report.HistoryHeaders {
		w := lipgloss.Width(h)
		for _, row := range cells {
			if cw := lipgloss.Width(row[i]); cw > w {
				w = cw
			}
		}
		columns[i] = table.Column{Title: h, Width: w}
	}
	rows := make([]table.Row, len(cells))
	for i, row := range cells {
		rows[i] = table.Row(row)
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(maxInt(1, height)),
	)
	t.SetWidth(width)
	t.SetStyles(tableStyles())
	return t
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#F0F0F0")).
		Background(lipgloss.Color("#3A3020")).
		Bold(false)
	return styles
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
